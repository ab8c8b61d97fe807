// Package message models the ordered destination-chain call sequence carried
// alongside a bridge deposit, and the protocol for re-deriving amount-dependent
// calls once the settled output amount is known.
package message

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/types"
)

// ErrNoRoute is the sentinel a DeriveFn returns when no usable call data can
// be produced for the requested amount (for example, an aggregator has no
// route). The whole message is then non-executable; stale call data is never
// submitted.
var ErrNoRoute = errors.New("no valid route for requested amount")

// Call is one destination-chain contract call.
type Call struct {
	Target   common.Address
	CallData []byte
	Value    *big.Int
}

// Action is one entry in a cross-chain message. Static actions return the
// same call forever; amount-dependent actions additionally implement
// Updatable and are replaced, never mutated, during the update pass.
type Action interface {
	Call() Call
}

// Updatable is an amount-dependent action. Update re-derives the call against
// the settled amount the same way the initial build did, issuing fresh
// network reads where the derivation requires them, and returns a replacement
// action. Given the same settled amount it must yield byte-identical call
// data.
type Updatable interface {
	Action
	Update(ctx context.Context, settled *big.Int) (Action, error)
}

// DeriveFn derives a call for a concrete amount.
type DeriveFn func(ctx context.Context, amount *big.Int) (Call, error)

// StaticAction is an amount-independent action, used unchanged on execution.
type StaticAction struct {
	call Call
}

func NewStaticAction(call Call) *StaticAction {
	if call.Value == nil {
		call.Value = new(big.Int)
	}
	return &StaticAction{call: call}
}

func (a *StaticAction) Call() Call { return a.call }

// DerivedAction carries its derivation so the call can be re-resolved against
// the bridge-settled amount right before execution.
type DerivedAction struct {
	call   Call
	derive DeriveFn
}

// NewDerivedAction evaluates derive once with the provisional amount to
// produce the initial call.
func NewDerivedAction(ctx context.Context, derive DeriveFn, provisional *big.Int) (*DerivedAction, error) {
	call, err := derive(ctx, provisional)
	if err != nil {
		return nil, err
	}
	if call.Value == nil {
		call.Value = new(big.Int)
	}
	return &DerivedAction{call: call, derive: derive}, nil
}

func (a *DerivedAction) Call() Call { return a.call }

// Update re-runs the derivation with the settled amount and returns a
// replacement action sharing the same derivation.
func (a *DerivedAction) Update(ctx context.Context, settled *big.Int) (Action, error) {
	call, err := a.derive(ctx, settled)
	if err != nil {
		return nil, types.WrapError(types.ErrUpdate, "action re-derivation failed", err)
	}
	if call.Value == nil {
		call.Value = new(big.Int)
	}
	return &DerivedAction{call: call, derive: a.derive}, nil
}

// CrossChainMessage is the ordered action list executed on the destination
// chain after the bridge fill, plus the address credited if that execution
// fails. Action order is execution order.
type CrossChainMessage struct {
	Actions           []Action
	FallbackRecipient common.Address
}

// Validate rejects messages that would silently strand funds.
func (m *CrossChainMessage) Validate() error {
	if len(m.Actions) == 0 {
		return types.NewError(types.ErrMessageBuild, "message has no actions")
	}
	if m.FallbackRecipient == (common.Address{}) {
		return types.NewError(types.ErrMessageBuild, "fallback recipient must not be the zero address")
	}
	return nil
}

// ApplyUpdates re-resolves every amount-dependent action against the settled
// amount, strictly in order, and returns a new message. Static actions pass
// through unchanged. Any single failed re-derivation makes the whole message
// non-executable.
func (m *CrossChainMessage) ApplyUpdates(ctx context.Context, settled *big.Int) (*CrossChainMessage, error) {
	updated := make([]Action, len(m.Actions))
	for i, action := range m.Actions {
		up, ok := action.(Updatable)
		if !ok {
			updated[i] = action
			continue
		}
		replacement, err := up.Update(ctx, settled)
		if err != nil {
			return nil, types.WrapError(types.ErrUpdate,
				fmt.Sprintf("action %d could not be updated for settled amount %s", i, settled), err)
		}
		updated[i] = replacement
	}
	return &CrossChainMessage{Actions: updated, FallbackRecipient: m.FallbackRecipient}, nil
}

var instructionsType = mustInstructionsType()

func mustInstructionsType() abi.Type {
	t, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "calls", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "target", Type: "address"},
			{Name: "callData", Type: "bytes"},
			{Name: "value", Type: "uint256"},
		}},
		{Name: "fallbackRecipient", Type: "address"},
	})
	if err != nil {
		panic("message: bad instructions type: " + err.Error())
	}
	return t
}

type instructionCall struct {
	Target   common.Address `json:"target"`
	CallData []byte         `json:"callData"`
	Value    *big.Int       `json:"value"`
}

type instructions struct {
	Calls             []instructionCall `json:"calls"`
	FallbackRecipient common.Address    `json:"fallbackRecipient"`
}

// ABIEncode packs the message into the destination handler's instruction
// bytes, preserving action order.
func (m *CrossChainMessage) ABIEncode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	instr := instructions{
		Calls:             make([]instructionCall, len(m.Actions)),
		FallbackRecipient: m.FallbackRecipient,
	}
	for i, action := range m.Actions {
		c := action.Call()
		val := c.Value
		if val == nil {
			val = new(big.Int)
		}
		instr.Calls[i] = instructionCall{Target: c.Target, CallData: c.CallData, Value: val}
	}

	args := abi.Arguments{{Type: instructionsType}}
	packed, err := args.Pack(instr)
	if err != nil {
		return nil, types.WrapError(types.ErrEncoding, "failed to encode message instructions", err)
	}
	return packed, nil
}
