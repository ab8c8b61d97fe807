package bridge

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vitwit/crosspay/message"
	xtypes "github.com/vitwit/crosspay/types"
)

// SimClient is a deterministic bridge stand-in for dry runs against ephemeral
// chains and for tests. The settled amount is the input minus a fixed
// slippage in basis points; hashes are derived from the request so repeated
// runs are reproducible.
type SimClient struct {
	SlippageBps int64
}

var _ Client = (*SimClient)(nil)

// NewSimClient builds a simulated bridge with the given slippage.
func NewSimClient(slippageBps int64) *SimClient {
	return &SimClient{SlippageBps: slippageBps}
}

func (c *SimClient) GetQuote(_ context.Context, req *QuoteRequest) (*Quote, error) {
	if req.InputAmount == nil || req.InputAmount.Sign() <= 0 {
		return nil, xtypes.NewError(xtypes.ErrQuote, "input amount must be positive")
	}
	if err := req.Message.Validate(); err != nil {
		return nil, xtypes.WrapError(xtypes.ErrQuote, "message rejected by bridge", err)
	}

	fee := new(big.Int).Mul(req.InputAmount, big.NewInt(c.SlippageBps))
	fee.Div(fee, big.NewInt(10000))
	settled := new(big.Int).Sub(req.InputAmount, fee)
	if settled.Sign() <= 0 {
		return nil, xtypes.NewError(xtypes.ErrQuote, "slippage exceeds input amount")
	}

	return &Quote{
		OriginChainID:       req.OriginChainID,
		DestinationChainID:  req.DestinationChainID,
		InputToken:          req.InputToken,
		OutputToken:         req.OutputToken,
		InputAmount:         req.InputAmount,
		SettledOutputAmount: settled,
		Recipient:           req.Recipient,
		Timestamp:           time.Now(),
		RelayerFee:          fee,
		Deposit: DepositParams{
			SpokePool:            xtypes.SpokePools[req.OriginChainID],
			DestinationSpokePool: xtypes.SpokePools[req.DestinationChainID],
		},
	}, nil
}

func (c *SimClient) ExecuteQuote(_ context.Context, quote *Quote, msg *message.CrossChainMessage, _ ExecuteOptions) (*ExecutionResult, error) {
	msgBytes, err := msg.ABIEncode()
	if err != nil {
		return nil, xtypes.WrapError(xtypes.ErrExecution, "failed to encode message", err)
	}

	seed := fmt.Sprintf("%d:%d:%s:%s", quote.OriginChainID, quote.DestinationChainID,
		quote.InputAmount, quote.SettledOutputAmount)
	txHash := crypto.Keccak256Hash([]byte(seed), msgBytes)
	blockHash := crypto.Keccak256Hash(txHash.Bytes())

	return &ExecutionResult{
		TransactionHash: txHash,
		Status:          "success",
		BlockNumber:     1,
		BlockHash:       blockHash,
	}, nil
}

func (c *SimClient) Close() {}
