package bridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/types"
)

func simRequest(amount int64) *QuoteRequest {
	msg := &message.CrossChainMessage{
		Actions: []message.Action{
			message.NewStaticAction(message.Call{
				Target:   common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
				CallData: []byte{1, 2, 3},
			}),
		},
		FallbackRecipient: common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
	}
	return &QuoteRequest{
		OriginChainID:      types.ChainBase,
		DestinationChainID: types.ChainArbitrum,
		InputAmount:        big.NewInt(amount),
		Recipient:          types.MulticallHandlers[types.ChainArbitrum],
		Message:            msg,
	}
}

func TestSimClient_GetQuote(t *testing.T) {
	c := NewSimClient(30)

	quote, err := c.GetQuote(context.Background(), simRequest(1_000_000))
	require.NoError(t, err)

	// 30 bps of 1_000_000 is exactly 3_000.
	assert.Equal(t, big.NewInt(997_000), quote.SettledOutputAmount)
	assert.Equal(t, big.NewInt(3_000), quote.RelayerFee)
	assert.Equal(t, types.SpokePools[types.ChainBase], quote.Deposit.SpokePool)
}

func TestSimClient_GetQuote_Rejects(t *testing.T) {
	c := NewSimClient(30)

	req := simRequest(0)
	_, err := c.GetQuote(context.Background(), req)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrQuote))

	req = simRequest(1_000_000)
	req.Message = &message.CrossChainMessage{}
	_, err = c.GetQuote(context.Background(), req)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrQuote))
}

func TestSimClient_ExecuteQuote_Deterministic(t *testing.T) {
	c := NewSimClient(30)
	ctx := context.Background()

	req := simRequest(1_000_000)
	quote, err := c.GetQuote(ctx, req)
	require.NoError(t, err)

	first, err := c.ExecuteQuote(ctx, quote, req.Message, ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "success", first.Status)

	second, err := c.ExecuteQuote(ctx, quote, req.Message, ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.TransactionHash, second.TransactionHash)
	assert.Equal(t, first.BlockHash, second.BlockHash)
}
