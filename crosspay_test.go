package crosspay_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crosspay "github.com/vitwit/crosspay"
	"github.com/vitwit/crosspay/bridge"
	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/types"
)

var (
	sender = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	recv   = common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	other  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func testRoute() types.Route {
	return types.Route{
		SourceChainID:      types.ChainBase,
		DestinationChainID: types.ChainArbitrum,
		InputToken:         types.PaymentTokens[types.ChainBase]["USDC"],
		OutputToken:        types.PaymentTokens[types.ChainArbitrum]["USDC"],
	}
}

func newHub(t *testing.T, opts ...crosspay.Option) *crosspay.Hub {
	t.Helper()
	hub, err := crosspay.New(sender, testRoute(), bridge.NewSimClient(30), opts...)
	require.NoError(t, err)
	t.Cleanup(hub.Close)
	return hub
}

func token() common.Address {
	return types.PaymentTokens[types.ChainArbitrum]["USDC"]
}

func TestSendOneTimePayment(t *testing.T) {
	hub := newHub(t)

	id, err := hub.SendOneTimePayment(context.Background(), recv, big.NewInt(1_000_000), token(), "invoice 42")
	require.NoError(t, err)
	assert.Regexp(t, `^PMT-`, id)

	status, err := hub.GetPaymentStatus(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, status)

	r, err := hub.GetPaymentReceipt(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), r.Amount)
	require.NotNil(t, r.Recipient)
	assert.Equal(t, recv, *r.Recipient)
	assert.NotEmpty(t, r.TxHash)
}

func TestSendBatchPayment_AmountIsRecipientSum(t *testing.T) {
	hub := newHub(t)

	id, err := hub.SendBatchPayment(context.Background(), []types.Recipient{
		{Address: recv, Amount: big.NewInt(1_000_000)},
		{Address: other, Amount: big.NewInt(2_500_000)},
	}, token(), "payroll")
	require.NoError(t, err)

	r, err := hub.GetPaymentReceipt(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3_500_000), r.Amount)
	require.NotNil(t, r.Batch)
	assert.Equal(t, []common.Address{recv, other}, r.Batch.Recipients)
}

func TestStartStream(t *testing.T) {
	hub := newHub(t)

	id, err := hub.StartStream(context.Background(), recv, big.NewInt(10_000_000), token(),
		time.Now().Add(30*24*time.Hour), "vesting")
	require.NoError(t, err)

	r, err := hub.GetPaymentReceipt(id)
	require.NoError(t, err)
	require.NotNil(t, r.Stream)
	assert.True(t, r.Stream.StreamRate.IsPositive())
}

func TestSetupRecurringPayment(t *testing.T) {
	hub := newHub(t)

	id, err := hub.SetupRecurringPayment(context.Background(), recv, big.NewInt(2_000_000), token(),
		7*24*time.Hour, time.Now().Add(90*24*time.Hour), "retainer")
	require.NoError(t, err)

	r, err := hub.GetPaymentReceipt(id)
	require.NoError(t, err)
	require.NotNil(t, r.Recurring)
	assert.False(t, r.Recurring.NextPaymentDate.IsZero())
}

func TestValidationFailureLeavesNoRecord(t *testing.T) {
	hub := newHub(t)

	id, err := hub.SendOneTimePayment(context.Background(), recv, big.NewInt(0), token(), "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrValidation))
	assert.Empty(t, id)
	assert.Equal(t, 0, hub.Tracker().Len())

	// Batch whose total disagrees with its legs can't happen through the API;
	// a missing recipient still fails before any record exists.
	id, err = hub.SendBatchPayment(context.Background(), nil, token(), "")
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Equal(t, 0, hub.Tracker().Len())
}

// failingBridge rejects execution after quoting successfully, which is the
// failure mode the dual record-and-return rule exists for.
type failingBridge struct {
	inner bridge.Client
	err   error
}

func (f *failingBridge) GetQuote(ctx context.Context, req *bridge.QuoteRequest) (*bridge.Quote, error) {
	return f.inner.GetQuote(ctx, req)
}

func (f *failingBridge) ExecuteQuote(context.Context, *bridge.Quote, *message.CrossChainMessage, bridge.ExecuteOptions) (*bridge.ExecutionResult, error) {
	return nil, f.err
}

func (f *failingBridge) Close() {}

func TestExecutionFailureRecordedAndReturned(t *testing.T) {
	execErr := errors.New("relayer refused the deposit")
	client := &failingBridge{inner: bridge.NewSimClient(30), err: execErr}

	hub, err := crosspay.New(sender, testRoute(), client)
	require.NoError(t, err)
	defer hub.Close()

	id, err := hub.SendOneTimePayment(context.Background(), recv, big.NewInt(1_000_000), token(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, execErr))
	require.NotEmpty(t, id)

	status, serr := hub.GetPaymentStatus(id)
	require.NoError(t, serr)
	assert.Equal(t, types.StatusFailed, status)

	r, rerr := hub.GetPaymentReceipt(id)
	require.NoError(t, rerr)
	assert.NotEmpty(t, r.Error)
	assert.Empty(t, r.TxHash)
}

func TestGetPaymentHistory(t *testing.T) {
	hub := newHub(t)
	ctx := context.Background()

	first, err := hub.SendOneTimePayment(ctx, recv, big.NewInt(100), token(), "")
	require.NoError(t, err)
	second, err := hub.SendOneTimePayment(ctx, other, big.NewInt(200), token(), "")
	require.NoError(t, err)

	history, err := hub.GetPaymentHistory(sender)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first, history[0].PaymentID)
	assert.Equal(t, second, history[1].PaymentID)

	recvHistory, err := hub.GetPaymentHistory(recv)
	require.NoError(t, err)
	require.Len(t, recvHistory, 1)
	assert.Equal(t, first, recvHistory[0].PaymentID)
}

func TestNew_RejectsUnknownDestination(t *testing.T) {
	route := testRoute()
	route.DestinationChainID = 999_999

	_, err := crosspay.New(sender, route, bridge.NewSimClient(30))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrConfig))
}

func TestWithFees_ExactSplitOnSettledAmount(t *testing.T) {
	feeRecipient := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	hub := newHub(t, crosspay.WithFees(250, feeRecipient))

	id, err := hub.SendOneTimePayment(context.Background(), recv, big.NewInt(1_000_001), token(), "")
	require.NoError(t, err)

	status, err := hub.GetPaymentStatus(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, status)
}
