// Package bridge defines the collaborator boundary to the cross-chain bridge:
// quoting a route and executing the deposit that carries the destination-side
// instruction payload. Implementations are selected by dependency injection;
// SimClient is the deterministic stand-in for dry runs and tests.
package bridge

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/message"
)

// QuoteRequest prices one bridge route, carrying the built message as the
// destination-side instruction payload.
type QuoteRequest struct {
	OriginChainID      uint64
	DestinationChainID uint64
	InputToken         common.Address
	OutputToken        common.Address
	InputAmount        *big.Int
	Recipient          common.Address
	Message            *message.CrossChainMessage
}

// DepositParams are the bridge-side parameters the quote fixes for the
// deposit transaction.
type DepositParams struct {
	SpokePool            common.Address
	DestinationSpokePool common.Address
	ExclusiveRelayer     common.Address
	QuoteTimestamp       uint32
	FillDeadline         uint32
	ExclusivityDeadline  uint32
}

// Quote is a priced route. SettledOutputAmount is the output-token amount the
// bridge will deliver on the destination chain; every amount-dependent action
// must be re-resolved against it before execution.
type Quote struct {
	OriginChainID       uint64
	DestinationChainID  uint64
	InputToken          common.Address
	OutputToken         common.Address
	InputAmount         *big.Int
	SettledOutputAmount *big.Int
	Recipient           common.Address
	Deposit             DepositParams
	Timestamp           time.Time

	GasFee     *big.Int
	BridgeFee  *big.Int
	RelayerFee *big.Int
}

// ExecuteOptions carry the signing key for the deposit transaction.
type ExecuteOptions struct {
	PrivateKey *ecdsa.PrivateKey
}

// ExecutionResult reports the source-chain deposit outcome after the
// destination execution signal.
type ExecutionResult struct {
	TransactionHash common.Hash
	Status          string
	BlockNumber     uint64
	BlockHash       common.Hash
}

// Client is the bridge collaborator interface.
type Client interface {
	GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error)
	ExecuteQuote(ctx context.Context, quote *Quote, msg *message.CrossChainMessage, opts ExecuteOptions) (*ExecutionResult, error)
	Close()
}
