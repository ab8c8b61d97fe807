package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/types"
)

var (
	sender  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	recv    = common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	token   = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	spender = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"aave", "protocol-fees", "swap"}, Names())

	for _, name := range Names() {
		b, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.NotNil(t, b, name)
	}
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestAaveSupply(t *testing.T) {
	builder, _ := Lookup("aave")
	msg, err := builder(context.Background(), Params{
		ChainID:   types.ChainArbitrum,
		Sender:    sender,
		Recipient: recv,
		Token:     token,
		Amount:    big.NewInt(1_000_000),
	})
	require.NoError(t, err)
	require.Len(t, msg.Actions, 2)
	assert.Equal(t, sender, msg.FallbackRecipient)

	// approve the pool, then supply through it
	assert.Equal(t, token, msg.Actions[0].Call().Target)
	assert.Equal(t, AavePools[types.ChainArbitrum], msg.Actions[1].Call().Target)

	updated, err := msg.ApplyUpdates(context.Background(), big.NewInt(997_000))
	require.NoError(t, err)
	assert.NotEqual(t, msg.Actions[1].Call().CallData, updated.Actions[1].Call().CallData)
}

func TestAaveSupply_UnknownChain(t *testing.T) {
	builder, _ := Lookup("aave")
	_, err := builder(context.Background(), Params{
		ChainID:   999_999,
		Sender:    sender,
		Recipient: recv,
		Token:     token,
		Amount:    big.NewInt(1),
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrMessageBuild))
}

func TestProtocolFees_ExactSplit(t *testing.T) {
	builder, _ := Lookup("protocol-fees")
	msg, err := builder(context.Background(), Params{
		ChainID:      types.ChainArbitrum,
		Sender:       sender,
		Recipient:    recv,
		Token:        token,
		Amount:       big.NewInt(1_000_001),
		FeeBps:       250,
		FeeRecipient: spender,
	})
	require.NoError(t, err)
	require.Len(t, msg.Actions, 2)

	// recipient leg first, fee leg second, both on the token contract
	assert.Equal(t, token, msg.Actions[0].Call().Target)
	assert.Equal(t, token, msg.Actions[1].Call().Target)

	fees := message.FeeConfig{Bps: 250, Recipient: spender}
	recipientAmt, feeAmt := fees.Split(big.NewInt(1_000_001))
	assert.Equal(t, big.NewInt(1_000_001), new(big.Int).Add(recipientAmt, feeAmt))
}

func TestProtocolFees_RequiresFeeRecipient(t *testing.T) {
	builder, _ := Lookup("protocol-fees")
	_, err := builder(context.Background(), Params{
		ChainID:   types.ChainArbitrum,
		Sender:    sender,
		Recipient: recv,
		Token:     token,
		Amount:    big.NewInt(1),
		FeeBps:    250,
	})
	require.Error(t, err)
}

func aggregatorServer(t *testing.T, quotes *atomic.Int64, noRouteBelow int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quotes.Add(1)
		sellAmount, ok := new(big.Int).SetString(r.URL.Query().Get("sellAmount"), 10)
		require.True(t, ok)

		if sellAmount.Cmp(big.NewInt(noRouteBelow)) < 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"to":        spender.Hex(),
			"data":      "0x1234" + common.Bytes2Hex(sellAmount.Bytes()),
			"value":     "0",
			"buyAmount": sellAmount.String(),
		})
	}))
}

func TestSwap_RefetchesQuoteOnUpdate(t *testing.T) {
	var quotes atomic.Int64
	srv := aggregatorServer(t, &quotes, 0)
	defer srv.Close()

	builder, _ := Lookup("swap")
	msg, err := builder(context.Background(), Params{
		ChainID:      types.ChainArbitrum,
		Sender:       sender,
		Recipient:    recv,
		Token:        token,
		Amount:       big.NewInt(1_000_000),
		Swapper:      NewAggregator(srv.URL, spender),
		SwapOutToken: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	})
	require.NoError(t, err)
	require.Len(t, msg.Actions, 2)
	assert.Equal(t, int64(1), quotes.Load())

	updated, err := msg.ApplyUpdates(context.Background(), big.NewInt(997_000))
	require.NoError(t, err)
	assert.Equal(t, int64(2), quotes.Load(), "update must re-fetch the quote")
	assert.NotEqual(t, msg.Actions[1].Call().CallData, updated.Actions[1].Call().CallData)
	assert.Equal(t, spender, updated.Actions[1].Call().Target)
}

func TestSwap_NoRouteMakesMessageNonExecutable(t *testing.T) {
	var quotes atomic.Int64
	srv := aggregatorServer(t, &quotes, 500_000)
	defer srv.Close()

	builder, _ := Lookup("swap")
	msg, err := builder(context.Background(), Params{
		ChainID:      types.ChainArbitrum,
		Sender:       sender,
		Recipient:    recv,
		Token:        token,
		Amount:       big.NewInt(1_000_000),
		Swapper:      NewAggregator(srv.URL, spender),
		SwapOutToken: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	})
	require.NoError(t, err)

	// The bridge settles below the aggregator's minimum.
	_, err = msg.ApplyUpdates(context.Background(), big.NewInt(100_000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, message.ErrNoRoute))
}

func TestSwap_RequiresAggregator(t *testing.T) {
	builder, _ := Lookup("swap")
	_, err := builder(context.Background(), Params{
		ChainID:   types.ChainArbitrum,
		Sender:    sender,
		Recipient: recv,
		Token:     token,
		Amount:    big.NewInt(1),
	})
	require.Error(t, err)
}
