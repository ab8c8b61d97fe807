// Package receipt derives immutable, type-specific receipt views from
// tracker state. Receipts are generated on demand and never persisted.
package receipt

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitwit/crosspay/tracker"
	"github.com/vitwit/crosspay/types"
)

// Store is the read-only slice of the tracker the generator needs.
type Store interface {
	Payment(id string) (*tracker.PaymentRecord, error)
}

// BatchDetails is the batch-specific receipt section.
type BatchDetails struct {
	Recipients []common.Address `json:"recipients"`
	Amounts    []*big.Int       `json:"amounts"`
}

// StreamDetails is the stream-specific receipt section. StreamRate is in
// token units per second; RemainingAmount interpolates elapsed time against
// the stream end.
type StreamDetails struct {
	StreamRate      decimal.Decimal `json:"streamRate"`
	RemainingAmount *big.Int        `json:"remainingAmount"`
	EndTime         time.Time       `json:"endTime"`
}

// RecurringDetails is the recurring-specific receipt section.
type RecurringDetails struct {
	Frequency       time.Duration `json:"frequency"`
	NextPaymentDate time.Time     `json:"nextPaymentDate"`
	EndTime         time.Time     `json:"endTime"`
}

// Receipt is a read-only projection of a payment record. Only the section
// matching the payment type is populated.
type Receipt struct {
	ReceiptID string              `json:"receiptId"`
	PaymentID string              `json:"paymentId"`
	Type      types.PaymentType   `json:"paymentType"`
	Status    types.PaymentStatus `json:"status"`
	Sender    common.Address      `json:"sender"`
	Recipient *common.Address     `json:"recipient,omitempty"`
	Token     common.Address      `json:"token"`
	Amount    *big.Int            `json:"amount"`
	Metadata  string              `json:"metadata,omitempty"`
	TxHash    string              `json:"txHash,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`

	Batch     *BatchDetails     `json:"batch,omitempty"`
	Stream    *StreamDetails    `json:"stream,omitempty"`
	Recurring *RecurringDetails `json:"recurring,omitempty"`
}

// Generator projects receipts from a payment store.
type Generator struct {
	store Store
	now   func() time.Time
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store, now: time.Now}
}

// Generate builds the receipt for a payment id, reflecting tracker state at
// generation time. Records missing their type-required fields are rejected
// rather than projected partially.
func (g *Generator) Generate(id string) (*Receipt, error) {
	record, err := g.store.Payment(id)
	if err != nil {
		return nil, err
	}

	cfg := record.Config
	r := &Receipt{
		ReceiptID: "RCPT-" + uuid.NewString(),
		PaymentID: record.ID,
		Type:      cfg.Type,
		Status:    record.Status,
		Sender:    cfg.Sender,
		Token:     cfg.Token,
		Amount:    cfg.Amount,
		Metadata:  cfg.Metadata,
		TxHash:    record.TxHash,
		Error:     record.Error,
		Timestamp: record.Timestamp,
	}

	switch cfg.Type {
	case types.PaymentBatch:
		if len(cfg.Recipients) == 0 {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("batch record %s has no recipients", id))
		}
		details := &BatchDetails{
			Recipients: make([]common.Address, len(cfg.Recipients)),
			Amounts:    make([]*big.Int, len(cfg.Recipients)),
		}
		for i, rec := range cfg.Recipients {
			details.Recipients[i] = rec.Address
			details.Amounts[i] = rec.Amount
		}
		r.Batch = details

	case types.PaymentStream:
		recipient := cfg.Recipient
		if recipient == (common.Address{}) || cfg.EndTime.IsZero() {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("stream record %s is missing recipient or end time", id))
		}
		r.Recipient = &recipient
		details, err := streamDetails(cfg, record.Timestamp, g.now())
		if err != nil {
			return nil, err
		}
		r.Stream = details

	case types.PaymentRecurring:
		recipient := cfg.Recipient
		if recipient == (common.Address{}) || cfg.Frequency <= 0 || cfg.EndTime.IsZero() {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("recurring record %s is missing recipient, frequency or end time", id))
		}
		r.Recipient = &recipient
		next := record.Timestamp.Add(cfg.Frequency)
		if next.After(cfg.EndTime) {
			next = cfg.EndTime
		}
		r.Recurring = &RecurringDetails{
			Frequency:       cfg.Frequency,
			NextPaymentDate: next,
			EndTime:         cfg.EndTime,
		}

	default:
		recipient := cfg.Recipient
		if recipient == (common.Address{}) {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("record %s has no recipient", id))
		}
		r.Recipient = &recipient
	}

	return r, nil
}

// streamDetails interpolates the remaining amount. Durations are in seconds;
// timestamps are converted once here at the boundary.
func streamDetails(cfg types.PaymentConfig, start, now time.Time) (*StreamDetails, error) {
	totalSeconds := int64(cfg.EndTime.Sub(start) / time.Second)
	if totalSeconds <= 0 {
		return nil, types.NewError(types.ErrValidation, "stream end time is not after its start")
	}

	total := decimal.NewFromBigInt(cfg.Amount, 0)
	rate := total.Div(decimal.NewFromInt(totalSeconds))

	elapsedSeconds := int64(now.Sub(start) / time.Second)
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if elapsedSeconds > totalSeconds {
		elapsedSeconds = totalSeconds
	}

	streamed := rate.Mul(decimal.NewFromInt(elapsedSeconds)).Floor()
	remaining := total.Sub(streamed)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}

	return &StreamDetails{
		StreamRate:      rate,
		RemainingAmount: remaining.BigInt(),
		EndTime:         cfg.EndTime,
	}, nil
}
