package message

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/encoding"
	"github.com/vitwit/crosspay/types"
)

// FeeConfig enables the fee-splitting message variant: a protocol fee of
// Bps basis points is carved out of every settled amount and paid to
// Recipient.
type FeeConfig struct {
	Bps       int64
	Recipient common.Address
}

// Split divides amount into the recipient and fee portions using the floored
// basis-point formula. recipient + fee == amount holds exactly for every
// input.
func (f FeeConfig) Split(amount *big.Int) (recipient, fee *big.Int) {
	fee = new(big.Int).Mul(amount, big.NewInt(f.Bps))
	fee.Div(fee, big.NewInt(10000))
	recipient = new(big.Int).Sub(amount, fee)
	return recipient, fee
}

// PaymentBuilder composes the destination-chain action sequence for a
// validated payment config. Messages are built fresh per payment attempt and
// discarded after one execution.
type PaymentBuilder struct {
	Hub  common.Address
	Fees *FeeConfig
}

// NewPaymentBuilder returns a builder targeting the given hub contract.
func NewPaymentBuilder(hub common.Address) *PaymentBuilder {
	return &PaymentBuilder{Hub: hub}
}

// Build creates the cross-chain message for cfg, parameterized by the
// provisional amount. Approval actions always precede the action that
// consumes the approval.
func (b *PaymentBuilder) Build(ctx context.Context, cfg *types.PaymentConfig) (*CrossChainMessage, error) {
	if cfg.Sender == (common.Address{}) {
		return nil, types.NewError(types.ErrMessageBuild, "sender is required for the fallback recipient")
	}

	if b.Fees != nil && cfg.Type == types.PaymentOneTime {
		return b.buildFeeSplit(ctx, cfg)
	}

	approve, err := NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (Call, error) {
		data, err := encoding.ApproveCallData(b.Hub, amount)
		if err != nil {
			return Call{}, err
		}
		return Call{Target: cfg.Token, CallData: data}, nil
	}, cfg.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build approval action", err)
	}

	var payment Action
	if cfg.Type == types.PaymentBatch {
		// Per-recipient amounts are fixed at build time; only the approval
		// scope follows the settled amount.
		data, err := encoding.BatchPaymentCallData(cfg.Recipients, cfg.Token)
		if err != nil {
			return nil, types.WrapError(types.ErrMessageBuild, "failed to build batch payment action", err)
		}
		payment = NewStaticAction(Call{Target: b.Hub, CallData: data})
	} else {
		payment, err = NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (Call, error) {
			data, err := encoding.PaymentCallData(cfg.Recipient, cfg.Token, amount, cfg.Metadata)
			if err != nil {
				return Call{}, err
			}
			return Call{Target: b.Hub, CallData: data}, nil
		}, cfg.Amount)
		if err != nil {
			return nil, types.WrapError(types.ErrMessageBuild, "failed to build payment action", err)
		}
	}

	return &CrossChainMessage{
		Actions:           []Action{approve, payment},
		FallbackRecipient: cfg.Sender,
	}, nil
}

// buildFeeSplit emits two sibling transfer actions, recipient first, whose
// updates recompute both portions from the settled amount with the identical
// floor-based formula so nothing is lost or created by rounding.
func (b *PaymentBuilder) buildFeeSplit(ctx context.Context, cfg *types.PaymentConfig) (*CrossChainMessage, error) {
	fees := *b.Fees

	toRecipient, err := NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (Call, error) {
		recipientAmt, _ := fees.Split(amount)
		data, err := encoding.TransferCallData(cfg.Recipient, recipientAmt)
		if err != nil {
			return Call{}, err
		}
		return Call{Target: cfg.Token, CallData: data}, nil
	}, cfg.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build recipient transfer", err)
	}

	toFeeRecipient, err := NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (Call, error) {
		_, feeAmt := fees.Split(amount)
		data, err := encoding.TransferCallData(fees.Recipient, feeAmt)
		if err != nil {
			return Call{}, err
		}
		return Call{Target: cfg.Token, CallData: data}, nil
	}, cfg.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build fee transfer", err)
	}

	return &CrossChainMessage{
		Actions:           []Action{toRecipient, toFeeRecipient},
		FallbackRecipient: cfg.Sender,
	}, nil
}
