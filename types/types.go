package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// PaymentType enumerates the payment intents the hub supports.
type PaymentType string

const (
	PaymentOneTime   PaymentType = "OneTime"
	PaymentRecurring PaymentType = "Recurring"
	PaymentBatch     PaymentType = "Batch"
	PaymentStream    PaymentType = "Stream"
)

// PaymentStatus tracks the lifecycle of a payment record.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "Pending"
	StatusProcessing PaymentStatus = "Processing"
	StatusCompleted  PaymentStatus = "Completed"
	StatusFailed     PaymentStatus = "Failed"
	StatusCancelled  PaymentStatus = "Cancelled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Recipient is one batch payment leg.
type Recipient struct {
	Address common.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

// Route fixes the bridge lane a payment travels.
type Route struct {
	SourceChainID      uint64         `json:"sourceChainId" validate:"required"`
	DestinationChainID uint64         `json:"destinationChainId" validate:"required"`
	InputToken         common.Address `json:"inputToken"`
	OutputToken        common.Address `json:"outputToken"`
}

// PaymentConfig describes a payment intent before execution. Exactly one of
// Recipient or Recipients is populated depending on Type; Amount for batch
// payments is always the sum of the per-recipient amounts.
type PaymentConfig struct {
	Type       PaymentType    `json:"type" validate:"required"`
	Sender     common.Address `json:"sender"`
	Recipient  common.Address `json:"recipient,omitempty"`
	Recipients []Recipient    `json:"recipients,omitempty"`
	Token      common.Address `json:"token"`
	Amount     *big.Int       `json:"amount" validate:"required"`
	Metadata   string         `json:"metadata,omitempty"`
	Route      Route          `json:"route"`

	// Recurring payments only.
	Frequency time.Duration `json:"frequency,omitempty"`
	// Recurring payments and streams.
	EndTime time.Time `json:"endTime,omitempty"`
}

var validate = validator.New()

// Validate checks the config synchronously, before any network call.
// All failures carry the validation_failed code.
func (c *PaymentConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return WrapError(ErrValidation, "invalid payment config", err)
	}

	if c.Token == (common.Address{}) {
		return NewError(ErrValidation, "token is required")
	}
	if c.Amount == nil || c.Amount.Sign() <= 0 {
		return NewError(ErrValidation, "amount must be positive")
	}

	if c.Type == PaymentBatch {
		if len(c.Recipients) == 0 {
			return NewError(ErrValidation, "at least one recipient is required for batch payments")
		}
		sum := new(big.Int)
		for _, r := range c.Recipients {
			if r.Address == (common.Address{}) {
				return NewError(ErrValidation, "batch recipient address is required")
			}
			if r.Amount == nil || r.Amount.Sign() <= 0 {
				return NewError(ErrValidation, "batch recipient amount must be positive")
			}
			sum.Add(sum, r.Amount)
		}
		if c.Amount.Cmp(sum) != 0 {
			return NewError(ErrValidation,
				fmt.Sprintf("batch amount %s does not equal recipient sum %s", c.Amount, sum))
		}
	} else {
		if c.Recipient == (common.Address{}) {
			return NewError(ErrValidation,
				fmt.Sprintf("recipient is required for %s payments", c.Type))
		}
	}

	switch c.Type {
	case PaymentRecurring:
		if c.Frequency <= 0 {
			return NewError(ErrValidation, "frequency is required for recurring payments")
		}
		if c.EndTime.IsZero() {
			return NewError(ErrValidation, "end time is required for recurring payments")
		}
	case PaymentStream:
		if c.EndTime.IsZero() {
			return NewError(ErrValidation, "end time is required for streams")
		}
	}

	return nil
}
