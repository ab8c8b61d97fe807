// Package encoding provides pure call-data encoders for destination-chain
// actions. Every function is deterministic over well-typed input and returns
// an encoding_failed error otherwise.
package encoding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vitwit/crosspay/types"
)

// SubCall is one bundled sub-call inside a multicall action. The internal
// order of sub-calls is fixed by the caller and never re-ordered.
type SubCall struct {
	To           common.Address
	Data         []byte
	Value        *big.Int
	SkipRevert   bool
	CallbackHash [32]byte
}

// ApproveCallData encodes erc20.approve(spender, amount).
func ApproveCallData(spender common.Address, amount *big.Int) ([]byte, error) {
	return pack(erc20ABI, "approve", spender, amount)
}

// TransferCallData encodes erc20.transfer(to, amount).
func TransferCallData(to common.Address, amount *big.Int) ([]byte, error) {
	return pack(erc20ABI, "transfer", to, amount)
}

// TransferFromCallData encodes erc20.transferFrom(from, to, amount).
func TransferFromCallData(from, to common.Address, amount *big.Int) ([]byte, error) {
	return pack(erc20ABI, "transferFrom", from, to, amount)
}

// PaymentCallData encodes the hub sendPayment call, with the metadata
// variant when metadata is non-empty.
func PaymentCallData(recipient, token common.Address, amount *big.Int, metadata string) ([]byte, error) {
	if metadata == "" {
		return pack(hubABI, "sendPayment", recipient, token, amount)
	}
	return pack(hubABI, "sendPaymentWithMetadata", recipient, token, amount, []byte(metadata))
}

// BatchPaymentCallData encodes the hub sendBatchPayment call.
func BatchPaymentCallData(recipients []types.Recipient, token common.Address) ([]byte, error) {
	addrs := make([]common.Address, len(recipients))
	amounts := make([]*big.Int, len(recipients))
	for i, r := range recipients {
		addrs[i] = r.Address
		amounts[i] = r.Amount
	}
	return pack(hubABI, "sendBatchPayment", addrs, token, amounts)
}

// SupplyCallData encodes pool.supply(asset, amount, onBehalfOf, referralCode).
func SupplyCallData(asset common.Address, amount *big.Int, onBehalfOf common.Address, referralCode uint16) ([]byte, error) {
	return pack(poolABI, "supply", asset, amount, onBehalfOf, referralCode)
}

// MulticallData encodes bundler.multicall over the given sub-calls.
func MulticallData(calls []SubCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, types.NewError(types.ErrEncoding, "multicall requires at least one sub-call")
	}
	bundle := make([]struct {
		To           common.Address `json:"to"`
		Data         []byte         `json:"data"`
		Value        *big.Int       `json:"value"`
		SkipRevert   bool           `json:"skipRevert"`
		CallbackHash [32]byte       `json:"callbackHash"`
	}, len(calls))
	for i, c := range calls {
		val := c.Value
		if val == nil {
			val = new(big.Int)
		}
		bundle[i].To = c.To
		bundle[i].Data = c.Data
		bundle[i].Value = val
		bundle[i].SkipRevert = c.SkipRevert
		bundle[i].CallbackHash = c.CallbackHash
	}
	return pack(bundlerABI, "multicall", bundle)
}

// EncodeSignature encodes an arbitrary single-function call from a
// human-readable signature such as "deposit(address,uint256)". Tuple
// parameter types are not supported here; bundled tuple calls go through
// MulticallData.
func EncodeSignature(signature string, args ...interface{}) ([]byte, error) {
	name, paramTypes, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(paramTypes) != len(args) {
		return nil, types.NewError(types.ErrEncoding,
			fmt.Sprintf("%s expects %d arguments, got %d", signature, len(paramTypes), len(args)))
	}

	arguments := make(abi.Arguments, len(paramTypes))
	for i, t := range paramTypes {
		abiType, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, types.WrapError(types.ErrEncoding,
				fmt.Sprintf("unsupported parameter type %q", t), err)
		}
		arguments[i] = abi.Argument{Type: abiType}
	}

	packed, err := arguments.Pack(args...)
	if err != nil {
		return nil, types.WrapError(types.ErrEncoding,
			fmt.Sprintf("argument mismatch for %s", signature), err)
	}

	canonical := name + "(" + strings.Join(paramTypes, ",") + ")"
	selector := crypto.Keccak256([]byte(canonical))[:4]
	return append(selector, packed...), nil
}

func parseSignature(signature string) (string, []string, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, types.NewError(types.ErrEncoding,
			fmt.Sprintf("malformed function signature %q", signature))
	}
	name := signature[:open]
	inner := signature[open+1 : len(signature)-1]
	if inner == "" {
		return name, nil, nil
	}
	if strings.ContainsAny(inner, "()") {
		return "", nil, types.NewError(types.ErrEncoding,
			fmt.Sprintf("tuple parameters not supported in signature %q", signature))
	}
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return "", nil, types.NewError(types.ErrEncoding,
				fmt.Sprintf("empty parameter type in signature %q", signature))
		}
	}
	return name, parts, nil
}

func pack(parsed abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, types.WrapError(types.ErrEncoding,
			fmt.Sprintf("failed to encode %s call", method), err)
	}
	return data, nil
}
