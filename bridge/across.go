package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/message"
	xtypes "github.com/vitwit/crosspay/types"
)

const DefaultAPIBaseURL = "https://app.across.to/api"

const spokePoolABIJSON = `[
	{"name":"depositV3","type":"function","stateMutability":"payable",
	 "inputs":[
		{"name":"depositor","type":"address"},
		{"name":"recipient","type":"address"},
		{"name":"inputToken","type":"address"},
		{"name":"outputToken","type":"address"},
		{"name":"inputAmount","type":"uint256"},
		{"name":"outputAmount","type":"uint256"},
		{"name":"destinationChainId","type":"uint256"},
		{"name":"exclusiveRelayer","type":"address"},
		{"name":"quoteTimestamp","type":"uint32"},
		{"name":"fillDeadline","type":"uint32"},
		{"name":"exclusivityDeadline","type":"uint32"},
		{"name":"message","type":"bytes"}
	 ],
	 "outputs":[]}
]`

var spokePoolABI = mustParseABI(spokePoolABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("bridge: bad spoke pool abi: " + err.Error())
	}
	return parsed
}

// AcrossClient quotes routes through the Across suggested-fees API and
// submits deposits to the origin-chain spoke pool.
type AcrossClient struct {
	apiBaseURL string
	httpClient *http.Client
	eth        *ethclient.Client
	chainID    *big.Int
	log        logger.Logger
}

// NewAcrossClient dials the origin-chain RPC. apiBaseURL may be empty to use
// the public API.
func NewAcrossClient(rpcURL, apiBaseURL string, log logger.Logger) (*AcrossClient, error) {
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	if log == nil {
		log = logger.NoopLogger{}
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("origin rpc dial: %w", err)
	}
	chainID, err := eth.ChainID(context.Background())
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("origin chain id: %w", err)
	}

	return &AcrossClient{
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		eth:        eth,
		chainID:    chainID,
		log:        log,
	}, nil
}

type suggestedFeesResponse struct {
	TotalRelayFee struct {
		Total string `json:"total"`
	} `json:"totalRelayFee"`
	Timestamp           string `json:"timestamp"`
	FillDeadline        string `json:"fillDeadline"`
	ExclusiveRelayer    string `json:"exclusiveRelayer"`
	ExclusivityDeadline string `json:"exclusivityDeadline"`
	SpokePoolAddress    string `json:"spokePoolAddress"`
	DestinationSpokePool string `json:"destinationSpokePoolAddress"`
}

// GetQuote prices the route. The settled output amount is the input amount
// minus the relayer's total fee for carrying the fill.
func (c *AcrossClient) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	msgBytes, err := req.Message.ABIEncode()
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "failed to encode message for quote", err)
	}

	params := url.Values{}
	params.Set("originChainId", fmt.Sprintf("%d", req.OriginChainID))
	params.Set("destinationChainId", fmt.Sprintf("%d", req.DestinationChainID))
	params.Set("inputToken", req.InputToken.Hex())
	params.Set("outputToken", req.OutputToken.Hex())
	params.Set("amount", req.InputAmount.String())
	params.Set("recipient", req.Recipient.Hex())
	params.Set("message", hexutil.Encode(msgBytes))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBaseURL+"/suggested-fees?"+params.Encode(), nil)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "failed to build quote request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "quote request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "failed to read quote response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xtypes.NewError(xtypes.ErrQuote,
			fmt.Sprintf("quote API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var fees suggestedFeesResponse
	if err := json.Unmarshal(body, &fees); err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "failed to parse quote response", err)
	}

	relayFee, ok := new(big.Int).SetString(fees.TotalRelayFee.Total, 10)
	if !ok {
		return nil, xtypes.NewError(xtypes.ErrQuote,
			fmt.Sprintf("bad relay fee in quote response: %q", fees.TotalRelayFee.Total))
	}
	settled := new(big.Int).Sub(req.InputAmount, relayFee)
	if settled.Sign() <= 0 {
		return nil, xtypes.NewError(xtypes.ErrQuote, "relay fee exceeds input amount")
	}

	quote := &Quote{
		OriginChainID:       req.OriginChainID,
		DestinationChainID:  req.DestinationChainID,
		InputToken:          req.InputToken,
		OutputToken:         req.OutputToken,
		InputAmount:         req.InputAmount,
		SettledOutputAmount: settled,
		Recipient:           req.Recipient,
		Timestamp:           time.Now(),
		RelayerFee:          relayFee,
		Deposit: DepositParams{
			SpokePool:            common.HexToAddress(fees.SpokePoolAddress),
			DestinationSpokePool: common.HexToAddress(fees.DestinationSpokePool),
			ExclusiveRelayer:     common.HexToAddress(fees.ExclusiveRelayer),
			QuoteTimestamp:       parseUint32(fees.Timestamp),
			FillDeadline:         parseUint32(fees.FillDeadline),
			ExclusivityDeadline:  parseUint32(fees.ExclusivityDeadline),
		},
	}

	c.log.Info("bridge quote obtained", map[string]any{
		"inputAmount":  req.InputAmount.String(),
		"outputAmount": settled.String(),
		"relayFee":     relayFee.String(),
	})
	return quote, nil
}

// ExecuteQuote submits the depositV3 transaction carrying the updated message
// and waits for it to be mined.
func (c *AcrossClient) ExecuteQuote(ctx context.Context, quote *Quote, msg *message.CrossChainMessage, opts ExecuteOptions) (*ExecutionResult, error) {
	if opts.PrivateKey == nil {
		return nil, xtypes.NewError(xtypes.ErrExecution, "private key is required for deposit submission")
	}

	msgBytes, err := msg.ABIEncode()
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to encode message for deposit", err)
	}

	depositor := crypto.PubkeyToAddress(opts.PrivateKey.PublicKey)
	callData, err := spokePoolABI.Pack("depositV3",
		depositor,
		quote.Recipient,
		quote.InputToken,
		quote.OutputToken,
		quote.InputAmount,
		quote.SettledOutputAmount,
		new(big.Int).SetUint64(quote.DestinationChainID),
		quote.Deposit.ExclusiveRelayer,
		quote.Deposit.QuoteTimestamp,
		quote.Deposit.FillDeadline,
		quote.Deposit.ExclusivityDeadline,
		msgBytes,
	)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to encode deposit call", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, depositor)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to fetch nonce", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to fetch gas price", err)
	}

	spokePool := quote.Deposit.SpokePool
	gasLimit, err := c.eth.EstimateGas(ctx, ethereumCallMsg(depositor, spokePool, callData))
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "deposit gas estimation failed", err)
	}

	tx := types.NewTransaction(nonce, spokePool, new(big.Int), gasLimit, gasPrice, callData)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), opts.PrivateKey)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to sign deposit", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to send deposit", err)
	}

	rcpt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "deposit not mined", err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return nil, xtypes.NewError(xtypes.ErrExecution,
			fmt.Sprintf("deposit reverted: %s", signed.Hash()))
	}

	c.log.Info("deposit submitted", map[string]any{
		"txHash": signed.Hash().Hex(),
		"block":  rcpt.BlockNumber.Uint64(),
	})

	return &ExecutionResult{
		TransactionHash: signed.Hash(),
		Status:          "success",
		BlockNumber:     rcpt.BlockNumber.Uint64(),
		BlockHash:       rcpt.BlockHash,
	}, nil
}

func (c *AcrossClient) Close() {
	c.eth.Close()
}

func ethereumCallMsg(from, to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{From: from, To: &to, Data: data}
}

func parseUint32(s string) uint32 {
	var v uint32
	fmt.Sscanf(s, "%d", &v)
	return v
}
