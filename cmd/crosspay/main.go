// Command crosspay executes a cross-chain payment or a named protocol
// integration from the command line. With --simulate the bridge is replaced
// by a deterministic in-process fake, so flows can be exercised without keys
// or RPC access.
package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	crosspay "github.com/vitwit/crosspay"
	"github.com/vitwit/crosspay/bridge"
	"github.com/vitwit/crosspay/config"
	"github.com/vitwit/crosspay/integrations"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/vnet"
)

var (
	flagConfig    string
	flagSimulate  bool
	flagProject   string
	flagKey       string
	flagSender    string
	flagRecipient string
	flagAmount    string
	flagDecimals  int32
	flagMetadata  string
)

func main() {
	root := &cobra.Command{
		Use:   "crosspay",
		Short: "Execute cross-chain payments with destination-side actions",
		RunE:  run,
	}

	root.Flags().StringVar(&flagConfig, "config", "", "path to a config file (env vars used otherwise)")
	root.Flags().BoolVar(&flagSimulate, "simulate", true, "use the in-process simulated bridge")
	root.Flags().StringVar(&flagProject, "project", "",
		"named integration to run instead of a plain payment ("+strings.Join(integrations.Names(), ", ")+")")
	root.Flags().StringVar(&flagKey, "key", "", "hex private key for signing deposits")
	root.Flags().StringVar(&flagSender, "sender", "", "sender address (derived from --key when set)")
	root.Flags().StringVar(&flagRecipient, "recipient", "", "recipient address")
	root.Flags().StringVar(&flagAmount, "amount", "1", "amount in whole tokens, e.g. 1.5")
	root.Flags().Int32Var(&flagDecimals, "decimals", 6, "input token decimals")
	root.Flags().StringVar(&flagMetadata, "metadata", "", "payment metadata")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := logger.NewZapLogger(cfg.LogLevel, "cli")

	// Ephemeral chains from earlier runs must not pile up.
	if cfg.Tenderly.AccessKey != "" {
		prov := vnet.NewProvisioner(vnet.Credentials{
			AccessKey: cfg.Tenderly.AccessKey,
			Account:   cfg.Tenderly.Account,
			Project:   cfg.Tenderly.Project,
		}, vnet.NewRegistry(cfg.RegistryPath), log)
		if err := prov.TeardownStale(ctx); err != nil {
			log.Warn("stale testnet teardown failed", map[string]any{"error": err.Error()})
		}
	}

	key, sender, err := resolveIdentity()
	if err != nil {
		return err
	}
	if !utils.ValidateAddress(flagRecipient) {
		return fmt.Errorf("--recipient must be a valid address")
	}
	recipient := common.HexToAddress(flagRecipient)
	amount, err := utils.ParseTokenAmount(flagAmount, flagDecimals)
	if err != nil {
		return fmt.Errorf("bad --amount: %w", err)
	}

	route := types.Route{
		SourceChainID:      cfg.SourceChainID,
		DestinationChainID: cfg.DestinationChainID,
		InputToken:         common.HexToAddress(cfg.InputToken),
		OutputToken:        common.HexToAddress(cfg.OutputToken),
	}

	client, err := buildBridge(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	if flagProject != "" {
		return runIntegration(ctx, cfg, client, route, sender, recipient, amount, key, log)
	}

	opts := []crosspay.Option{
		crosspay.WithLogger(log),
		crosspay.WithTimeout(2 * time.Minute),
		crosspay.WithPrivateKey(key),
	}
	if cfg.FeeBps > 0 && cfg.FeeRecipient != "" {
		opts = append(opts, crosspay.WithFees(cfg.FeeBps, common.HexToAddress(cfg.FeeRecipient)))
	}
	if cfg.HubContract != "" {
		opts = append(opts, crosspay.WithHubContract(common.HexToAddress(cfg.HubContract)))
	}

	hub, err := crosspay.New(sender, route, client, opts...)
	if err != nil {
		return err
	}
	defer hub.Close()

	id, err := hub.SendOneTimePayment(ctx, recipient, amount, route.OutputToken, flagMetadata)
	if err != nil {
		return fmt.Errorf("payment %s failed: %w", id, err)
	}

	receipt, err := hub.GetPaymentReceipt(id)
	if err != nil {
		return err
	}
	fmt.Printf("payment %s completed\n  receipt %s\n  tx %s\n", id, receipt.ReceiptID, receipt.TxHash)
	return nil
}

// runIntegration drives a named flow through the same quote, update, execute
// sequence the hub uses for plain payments.
func runIntegration(ctx context.Context, cfg *config.Config, client bridge.Client, route types.Route, sender, recipient common.Address, amount *big.Int, key *ecdsa.PrivateKey, log logger.Logger) error {
	builder, ok := integrations.Lookup(flagProject)
	if !ok {
		return fmt.Errorf("unknown integration %q (have: %s)", flagProject, strings.Join(integrations.Names(), ", "))
	}

	params := integrations.Params{
		ChainID:      route.DestinationChainID,
		Sender:       sender,
		Recipient:    recipient,
		Token:        route.OutputToken,
		Amount:       amount,
		FeeBps:       cfg.FeeBps,
		FeeRecipient: common.HexToAddress(cfg.FeeRecipient),
	}
	if cfg.SwapAPIBaseURL != "" {
		params.Swapper = integrations.NewAggregator(cfg.SwapAPIBaseURL, common.HexToAddress(cfg.SwapSpender))
		params.SwapOutToken = common.HexToAddress(cfg.SwapOutToken)
	}

	msg, err := builder(ctx, params)
	if err != nil {
		return err
	}

	quote, err := client.GetQuote(ctx, &bridge.QuoteRequest{
		OriginChainID:      route.SourceChainID,
		DestinationChainID: route.DestinationChainID,
		InputToken:         route.InputToken,
		OutputToken:        route.OutputToken,
		InputAmount:        amount,
		Recipient:          types.MulticallHandlers[route.DestinationChainID],
		Message:            msg,
	})
	if err != nil {
		return err
	}

	updated, err := msg.ApplyUpdates(ctx, quote.SettledOutputAmount)
	if err != nil {
		return err
	}

	result, err := client.ExecuteQuote(ctx, quote, updated, bridge.ExecuteOptions{PrivateKey: key})
	if err != nil {
		return err
	}

	log.Info("integration executed", map[string]any{
		"project": flagProject,
		"settled": quote.SettledOutputAmount.String(),
	})
	fmt.Printf("%s executed\n  tx %s\n  settled %s\n", flagProject, result.TransactionHash.Hex(), quote.SettledOutputAmount)
	return nil
}

func resolveIdentity() (*ecdsa.PrivateKey, common.Address, error) {
	if flagKey != "" {
		key, err := utils.PrivateKeyFromHex(flagKey)
		if err != nil {
			return nil, common.Address{}, fmt.Errorf("bad --key: %w", err)
		}
		return key, utils.AddressFromPrivateKey(key), nil
	}
	// Simulation runs get a throwaway identity.
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, common.Address{}, err
	}
	addr := utils.AddressFromPrivateKey(key)
	if flagSender != "" {
		addr = common.HexToAddress(flagSender)
	}
	return key, addr, nil
}

func buildBridge(cfg *config.Config, log logger.Logger) (bridge.Client, error) {
	if flagSimulate {
		return bridge.NewSimClient(cfg.SimSlippageBps), nil
	}
	if cfg.OriginRPCURL == "" {
		return nil, fmt.Errorf("origin_rpc_url is required without --simulate")
	}
	return bridge.NewAcrossClient(cfg.OriginRPCURL, cfg.AcrossAPIBaseURL, log)
}
