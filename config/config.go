// Package config loads runtime settings from environment variables
// (CROSSPAY_ prefix) with an optional config file.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/vitwit/crosspay/types"
)

// Tenderly holds the ephemeral chain provisioning credentials.
type Tenderly struct {
	AccessKey string `mapstructure:"tenderly_access_key"`
	Account   string `mapstructure:"tenderly_account"`
	Project   string `mapstructure:"tenderly_project"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	SourceChainID      uint64 `mapstructure:"source_chain_id"`
	DestinationChainID uint64 `mapstructure:"destination_chain_id"`
	InputToken         string `mapstructure:"input_token"`
	OutputToken        string `mapstructure:"output_token"`
	HubContract        string `mapstructure:"hub_contract"`

	OriginRPCURL     string `mapstructure:"origin_rpc_url"`
	AcrossAPIBaseURL string `mapstructure:"across_api_base_url"`

	// Simulation-mode slippage applied by the fake bridge, in basis points.
	SimSlippageBps int64 `mapstructure:"sim_slippage_bps"`

	FeeBps       int64  `mapstructure:"fee_bps"`
	FeeRecipient string `mapstructure:"fee_recipient"`

	SwapAPIBaseURL string `mapstructure:"swap_api_base_url"`
	SwapSpender    string `mapstructure:"swap_spender"`
	SwapOutToken   string `mapstructure:"swap_out_token"`

	RegistryPath string `mapstructure:"registry_path"`

	Tenderly Tenderly `mapstructure:",squash"`
}

// Load reads configuration from the environment and, when path is non-empty,
// from the named config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CROSSPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("source_chain_id", types.ChainBase)
	v.SetDefault("destination_chain_id", types.ChainArbitrum)
	v.SetDefault("input_token", types.PaymentTokens[types.ChainBase]["USDC"].Hex())
	v.SetDefault("output_token", types.PaymentTokens[types.ChainArbitrum]["USDC"].Hex())
	v.SetDefault("hub_contract", types.HubContracts[types.ChainArbitrum].Hex())
	v.SetDefault("sim_slippage_bps", 30)
	v.SetDefault("registry_path", "testnet-ids.json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.ErrConfig, "failed to read config file", err)
		}
	}

	// Bind the keys AutomaticEnv cannot discover without a config file.
	for _, key := range []string{
		"log_level", "source_chain_id", "destination_chain_id",
		"input_token", "output_token", "hub_contract",
		"origin_rpc_url", "across_api_base_url", "sim_slippage_bps",
		"fee_bps", "fee_recipient", "registry_path",
		"swap_api_base_url", "swap_spender", "swap_out_token",
		"tenderly_access_key", "tenderly_account", "tenderly_project",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.ErrConfig, "failed to decode config", err)
	}
	return &cfg, nil
}
