// Package integrations assembles destination-chain action sequences for
// protocols beyond the plain payment hub. Each integration is registered
// under a name and produces a complete cross-chain message from the same
// parameter set, so callers pick a flow by name instead of hand-building
// actions.
package integrations

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/encoding"
	"github.com/vitwit/crosspay/message"
	"github.com/vitwit/crosspay/types"
)

// AavePools maps chain id to the Aave v3 pool contract.
var AavePools = map[uint64]common.Address{
	types.ChainEthereum: common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"),
	types.ChainOptimism: common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
	types.ChainBase:     common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"),
	types.ChainArbitrum: common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
}

// Params is the shared input for every named integration. Amount is the
// provisional amount; integrations re-derive amount-dependent calls against
// the settled amount through the standard update pass.
type Params struct {
	ChainID   uint64
	Sender    common.Address
	Recipient common.Address
	Token     common.Address
	Amount    *big.Int

	// FeeBps and FeeRecipient drive the protocol-fees flow.
	FeeBps       int64
	FeeRecipient common.Address

	// Swapper serves the swap flow; nil disables it.
	Swapper *Aggregator
	// SwapOutToken is the token the swap flow buys for the recipient.
	SwapOutToken common.Address
}

// Builder assembles the destination message for one integration.
type Builder func(ctx context.Context, p Params) (*message.CrossChainMessage, error)

var registry = map[string]Builder{
	"aave":          buildAaveSupply,
	"protocol-fees": buildProtocolFees,
	"swap":          buildSwap,
}

// Lookup returns the builder registered under name.
func Lookup(name string) (Builder, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names lists the registered integrations in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildAaveSupply approves the pool and supplies the settled amount on behalf
// of the recipient, so the recipient ends up holding the interest-bearing
// position.
func buildAaveSupply(ctx context.Context, p Params) (*message.CrossChainMessage, error) {
	pool, ok := AavePools[p.ChainID]
	if !ok {
		return nil, types.NewError(types.ErrMessageBuild,
			fmt.Sprintf("no aave pool known on chain %d", p.ChainID))
	}

	approve, err := message.NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (message.Call, error) {
		data, err := encoding.ApproveCallData(pool, amount)
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: p.Token, CallData: data}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build pool approval", err)
	}

	supply, err := message.NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (message.Call, error) {
		data, err := encoding.SupplyCallData(p.Token, amount, p.Recipient, 0)
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: pool, CallData: data}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build supply action", err)
	}

	return &message.CrossChainMessage{
		Actions:           []message.Action{approve, supply},
		FallbackRecipient: p.Sender,
	}, nil
}

// buildProtocolFees splits every settled amount between the recipient and the
// fee recipient with the floor-based basis-point formula.
func buildProtocolFees(ctx context.Context, p Params) (*message.CrossChainMessage, error) {
	if p.FeeRecipient == (common.Address{}) {
		return nil, types.NewError(types.ErrMessageBuild, "fee recipient is required")
	}
	fees := message.FeeConfig{Bps: p.FeeBps, Recipient: p.FeeRecipient}

	toRecipient, err := message.NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (message.Call, error) {
		recipientAmt, _ := fees.Split(amount)
		data, err := encoding.TransferCallData(p.Recipient, recipientAmt)
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: p.Token, CallData: data}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build recipient transfer", err)
	}

	toFees, err := message.NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (message.Call, error) {
		_, feeAmt := fees.Split(amount)
		data, err := encoding.TransferCallData(fees.Recipient, feeAmt)
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: p.Token, CallData: data}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build fee transfer", err)
	}

	return &message.CrossChainMessage{
		Actions:           []message.Action{toRecipient, toFees},
		FallbackRecipient: p.Sender,
	}, nil
}

// buildSwap approves the aggregator's spender and executes an aggregator swap
// into SwapOutToken for the recipient. The swap call data is quoted live on
// every derivation, so the update pass re-fetches a route for the settled
// amount instead of reusing a quote priced for the provisional one.
func buildSwap(ctx context.Context, p Params) (*message.CrossChainMessage, error) {
	if p.Swapper == nil {
		return nil, types.NewError(types.ErrMessageBuild, "swap integration requires an aggregator client")
	}

	approve, err := message.NewDerivedAction(ctx, func(_ context.Context, amount *big.Int) (message.Call, error) {
		data, err := encoding.ApproveCallData(p.Swapper.Spender(), amount)
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: p.Token, CallData: data}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build swap approval", err)
	}

	swap, err := message.NewDerivedAction(ctx, func(dctx context.Context, amount *big.Int) (message.Call, error) {
		quote, err := p.Swapper.Quote(dctx, SwapRequest{
			ChainID:   p.ChainID,
			SellToken: p.Token,
			BuyToken:  p.SwapOutToken,
			Amount:    amount,
			Recipient: p.Recipient,
		})
		if err != nil {
			return message.Call{}, err
		}
		return message.Call{Target: quote.Target, CallData: quote.CallData, Value: quote.Value}, nil
	}, p.Amount)
	if err != nil {
		return nil, types.WrapError(types.ErrMessageBuild, "failed to build swap action", err)
	}

	return &message.CrossChainMessage{
		Actions:           []message.Action{approve, swap},
		FallbackRecipient: p.Sender,
	}, nil
}
