// Package crosspay executes cross-chain payments: a deposit on a source
// chain, a bridge fill on the destination chain, and an ordered sequence of
// destination contract calls re-derived against the bridge's settled output
// amount right before execution.
package crosspay

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vitwit/crosspay/bridge"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/receipt"
	"github.com/vitwit/crosspay/tracker"
	"github.com/vitwit/crosspay/types"
)

// Hub is the public payment surface. One Hub serves one sender over one
// bridge route; independent payments may run concurrently.
type Hub struct {
	sender  common.Address
	route   types.Route
	bridge  bridge.Client
	builder *message.PaymentBuilder

	tracker  *tracker.Tracker
	receipts *receipt.Generator

	key     *ecdsa.PrivateKey
	timeout time.Duration
	log     logger.Logger
	metrics metrics.Recorder
}

// New constructs a Hub for the given sender and route. The bridge client is
// injected; pass bridge.NewSimClient for dry runs. Without WithPrivateKey an
// ephemeral key is generated, which is only suitable for simulation.
func New(sender common.Address, route types.Route, bridgeClient bridge.Client, opts ...Option) (*Hub, error) {
	if sender == (common.Address{}) {
		return nil, types.NewError(types.ErrConfig, "sender address is required")
	}
	if bridgeClient == nil {
		return nil, types.NewError(types.ErrConfig, "bridge client is required")
	}

	hubContract, ok := types.HubContracts[route.DestinationChainID]
	if !ok {
		return nil, types.NewError(types.ErrConfig,
			fmt.Sprintf("no payment hub deployed on chain %d", route.DestinationChainID))
	}

	h := &Hub{
		sender:  sender,
		route:   route,
		bridge:  bridgeClient,
		builder: message.NewPaymentBuilder(hubContract),
		tracker: tracker.New(),
		timeout: 30 * time.Second,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.key == nil {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, types.WrapError(types.ErrConfig, "failed to generate ephemeral key", err)
		}
		h.key = key
	}
	h.receipts = receipt.NewGenerator(h.tracker)
	return h, nil
}

// SendOneTimePayment executes a single payment to recipient and returns the
// payment id.
func (h *Hub) SendOneTimePayment(ctx context.Context, recipient common.Address, amount *big.Int, token common.Address, metadata string) (string, error) {
	return h.execute(ctx, types.PaymentConfig{
		Type:      types.PaymentOneTime,
		Sender:    h.sender,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		Metadata:  metadata,
		Route:     h.route,
	})
}

// SetupRecurringPayment executes the first installment of a recurring payment
// schedule and returns the payment id.
func (h *Hub) SetupRecurringPayment(ctx context.Context, recipient common.Address, amount *big.Int, token common.Address, frequency time.Duration, endTime time.Time, metadata string) (string, error) {
	return h.execute(ctx, types.PaymentConfig{
		Type:      types.PaymentRecurring,
		Sender:    h.sender,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		Metadata:  metadata,
		Route:     h.route,
		Frequency: frequency,
		EndTime:   endTime,
	})
}

// SendBatchPayment pays every recipient in one destination-side call. The
// tracked amount is always the sum of the per-recipient amounts.
func (h *Hub) SendBatchPayment(ctx context.Context, recipients []types.Recipient, token common.Address, metadata string) (string, error) {
	total := new(big.Int)
	for _, r := range recipients {
		if r.Amount != nil {
			total.Add(total, r.Amount)
		}
	}
	return h.execute(ctx, types.PaymentConfig{
		Type:       types.PaymentBatch,
		Sender:     h.sender,
		Recipients: recipients,
		Amount:     total,
		Token:      token,
		Metadata:   metadata,
		Route:      h.route,
	})
}

// StartStream opens a streaming payment that vests until endTime.
func (h *Hub) StartStream(ctx context.Context, recipient common.Address, amount *big.Int, token common.Address, endTime time.Time, metadata string) (string, error) {
	return h.execute(ctx, types.PaymentConfig{
		Type:      types.PaymentStream,
		Sender:    h.sender,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		Metadata:  metadata,
		Route:     h.route,
		EndTime:   endTime,
	})
}

// GetPaymentStatus returns the lifecycle state for a payment id.
func (h *Hub) GetPaymentStatus(id string) (types.PaymentStatus, error) {
	return h.tracker.Status(id)
}

// GetPaymentReceipt derives the type-specific receipt for a payment id.
func (h *Hub) GetPaymentReceipt(id string) (*receipt.Receipt, error) {
	return h.receipts.Generate(id)
}

// GetPaymentHistory returns receipts for every payment the address
// participates in.
func (h *Hub) GetPaymentHistory(addr common.Address) ([]*receipt.Receipt, error) {
	records := h.tracker.History(addr)
	receipts := make([]*receipt.Receipt, 0, len(records))
	for _, record := range records {
		r, err := h.receipts.Generate(record.ID)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// Tracker exposes the underlying tracker for callers that need raw records.
func (h *Hub) Tracker() *tracker.Tracker {
	return h.tracker
}

// Close releases the bridge client.
func (h *Hub) Close() {
	h.bridge.Close()
}

// execute drives one payment end to end. Validation failures surface before
// any record exists; every later failure is recorded as Failed on the tracker
// and also returned, so a caller can never mistake a failed payment for a
// successful one.
func (h *Hub) execute(ctx context.Context, cfg types.PaymentConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	id := h.tracker.CreatePayment(cfg)
	labels := map[string]string{"type": string(cfg.Type)}
	start := time.Now()

	txHash, err := h.run(ctx, &cfg)
	if err != nil {
		if uerr := h.tracker.UpdateStatus(id, types.StatusFailed, "", err.Error()); uerr != nil {
			h.log.Error("failed to record payment failure", map[string]any{"id": id, "error": uerr.Error()})
		}
		h.metrics.IncCounter("failed", labels)
		h.log.Error("payment failed", map[string]any{"id": id, "type": cfg.Type, "error": err.Error()})
		return id, err
	}

	if uerr := h.tracker.UpdateStatus(id, types.StatusCompleted, txHash, ""); uerr != nil {
		return id, uerr
	}
	h.metrics.IncCounter("completed", labels)
	h.metrics.ObserveLatency("execute", time.Since(start), labels)
	h.log.Info("payment completed", map[string]any{"id": id, "txHash": txHash})
	return id, nil
}

func (h *Hub) run(ctx context.Context, cfg *types.PaymentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	msg, err := h.builder.Build(ctx, cfg)
	if err != nil {
		return "", err
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}

	recipient, ok := types.MulticallHandlers[cfg.Route.DestinationChainID]
	if !ok {
		recipient = cfg.Sender
	}

	quote, err := h.bridge.GetQuote(ctx, &bridge.QuoteRequest{
		OriginChainID:      cfg.Route.SourceChainID,
		DestinationChainID: cfg.Route.DestinationChainID,
		InputToken:         cfg.Route.InputToken,
		OutputToken:        cfg.Route.OutputToken,
		InputAmount:        cfg.Amount,
		Recipient:          recipient,
		Message:            msg,
	})
	if err != nil {
		return "", err
	}

	// Re-resolve every amount-dependent action against the settled amount
	// before anything is submitted. A single failed re-derivation makes the
	// whole message non-executable.
	updated, err := msg.ApplyUpdates(ctx, quote.SettledOutputAmount)
	if err != nil {
		return "", err
	}

	result, err := h.bridge.ExecuteQuote(ctx, quote, updated, bridge.ExecuteOptions{PrivateKey: h.key})
	if err != nil {
		return "", err
	}
	if result.Status != "success" {
		return "", types.NewError(types.ErrExecution,
			fmt.Sprintf("destination execution failed with status %q", result.Status))
	}
	return result.TransactionHash.Hex(), nil
}
