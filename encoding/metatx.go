package encoding

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/vitwit/crosspay/types"
)

// Authorization is the struct signed off-chain and embedded in a
// setAuthorizationWithSig call. Nonce must match the authorizer's current
// on-chain nonce; Deadline is a unix timestamp in seconds.
type Authorization struct {
	Authorizer   common.Address
	Authorized   common.Address
	IsAuthorized bool
	Nonce        *big.Int
	Deadline     *big.Int
}

// Signature is a split 65-byte ECDSA signature.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

var authorizationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Authorization": {
		{Name: "authorizer", Type: "address"},
		{Name: "authorized", Type: "address"},
		{Name: "isAuthorized", Type: "bool"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// SignAuthorization produces the EIP-712 signature over an Authorization for
// the given contract domain.
func SignAuthorization(key *ecdsa.PrivateKey, chainID *big.Int, verifyingContract common.Address, auth Authorization) (Signature, error) {
	typedData := apitypes.TypedData{
		Types:       authorizationTypes,
		PrimaryType: "Authorization",
		Domain: apitypes.TypedDataDomain{
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: verifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"authorizer":   auth.Authorizer.Hex(),
			"authorized":   auth.Authorized.Hex(),
			"isAuthorized": auth.IsAuthorized,
			"nonce":        (*math.HexOrDecimal256)(auth.Nonce),
			"deadline":     (*math.HexOrDecimal256)(auth.Deadline),
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return Signature{}, types.WrapError(types.ErrEncoding, "failed to hash authorization", err)
	}

	raw, err := crypto.Sign(digest, key)
	if err != nil {
		return Signature{}, types.WrapError(types.ErrEncoding, "failed to sign authorization", err)
	}
	return SplitSignature(raw)
}

// SplitSignature splits a 65-byte r||s||v signature, normalizing v to 27/28.
func SplitSignature(raw []byte) (Signature, error) {
	if len(raw) != 65 {
		return Signature{}, types.NewError(types.ErrEncoding, "signature must be 65 bytes")
	}
	var sig Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = raw[64]
	if sig.V < 27 {
		sig.V += 27
	}
	return sig, nil
}

// AuthorizationCallData encodes setAuthorizationWithSig(authorization, signature).
func AuthorizationCallData(auth Authorization, sig Signature) ([]byte, error) {
	authTuple := struct {
		Authorizer   common.Address `json:"authorizer"`
		Authorized   common.Address `json:"authorized"`
		IsAuthorized bool           `json:"isAuthorized"`
		Nonce        *big.Int       `json:"nonce"`
		Deadline     *big.Int       `json:"deadline"`
	}{auth.Authorizer, auth.Authorized, auth.IsAuthorized, auth.Nonce, auth.Deadline}

	sigTuple := struct {
		V uint8    `json:"v"`
		R [32]byte `json:"r"`
		S [32]byte `json:"s"`
	}{sig.V, sig.R, sig.S}

	return pack(authABI, "setAuthorizationWithSig", authTuple, sigTuple)
}

// SignedAuthorizationCallData signs the authorization and encodes the call in
// one step, as used when a message bundles a grant action before the bundled
// calls and a revoke action after them.
func SignedAuthorizationCallData(key *ecdsa.PrivateKey, chainID *big.Int, verifyingContract common.Address, auth Authorization) ([]byte, error) {
	sig, err := SignAuthorization(key, chainID, verifyingContract, auth)
	if err != nil {
		return nil, err
	}
	return AuthorizationCallData(auth, sig)
}
