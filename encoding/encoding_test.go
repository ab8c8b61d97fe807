package encoding

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/types"
)

var (
	testSpender = common.HexToAddress("0x924a9f036260DdD5808007E1AA95f08eD08aA569")
	testHolder  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
)

func TestApproveCallData(t *testing.T) {
	data, err := ApproveCallData(testSpender, big.NewInt(1_000_000))
	require.NoError(t, err)

	// approve(address,uint256)
	assert.Equal(t, "095ea7b3", hex.EncodeToString(data[:4]))
	// 4-byte selector + two 32-byte words
	assert.Len(t, data, 68)
	assert.Equal(t, testSpender.Bytes(), data[16:36])
}

func TestTransferCallData(t *testing.T) {
	data, err := TransferCallData(testHolder, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
}

func TestPaymentCallData_MetadataVariant(t *testing.T) {
	plain, err := PaymentCallData(testHolder, testSpender, big.NewInt(100), "")
	require.NoError(t, err)

	withMeta, err := PaymentCallData(testHolder, testSpender, big.NewInt(100), "invoice 42")
	require.NoError(t, err)

	// Different hub entrypoints, so different selectors.
	assert.NotEqual(t, plain[:4], withMeta[:4])
}

func TestBatchPaymentCallData(t *testing.T) {
	recipients := []types.Recipient{
		{Address: testHolder, Amount: big.NewInt(100)},
		{Address: testSpender, Amount: big.NewInt(250)},
	}
	data, err := BatchPaymentCallData(recipients, testSpender)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	again, err := BatchPaymentCallData(recipients, testSpender)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeSignature(t *testing.T) {
	data, err := EncodeSignature("transfer(address,uint256)", testHolder, big.NewInt(42))
	require.NoError(t, err)

	reference, err := TransferCallData(testHolder, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, reference, data)
}

func TestEncodeSignature_Errors(t *testing.T) {
	cases := []struct {
		name      string
		signature string
		args      []interface{}
	}{
		{"missing parens", "transfer", []interface{}{testHolder}},
		{"empty name", "(address)", []interface{}{testHolder}},
		{"tuple parameter", "multicall((address,bytes)[])", []interface{}{nil}},
		{"arg count mismatch", "transfer(address,uint256)", []interface{}{testHolder}},
		{"bad arg type", "transfer(address,uint256)", []interface{}{testHolder, "not-a-number"}},
		{"empty parameter", "transfer(address,)", []interface{}{testHolder, big.NewInt(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeSignature(tc.signature, tc.args...)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrEncoding))
		})
	}
}

func TestMulticallData(t *testing.T) {
	inner, err := TransferCallData(testHolder, big.NewInt(7))
	require.NoError(t, err)

	calls := []SubCall{
		{To: testSpender, Data: inner},
		{To: testHolder, Data: inner, Value: big.NewInt(1), SkipRevert: true},
	}

	data, err := MulticallData(calls)
	require.NoError(t, err)

	again, err := MulticallData(calls)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	_, err = MulticallData(nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrEncoding))
}

func TestSignAuthorization_RecoversSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	auth := Authorization{
		Authorizer:   signer,
		Authorized:   testSpender,
		IsAuthorized: true,
		Nonce:        big.NewInt(0),
		Deadline:     big.NewInt(1_900_000_000),
	}

	sig, err := SignAuthorization(key, big.NewInt(8453), testHolder, auth)
	require.NoError(t, err)
	assert.Contains(t, []uint8{27, 28}, sig.V)

	// The same payload must produce a decodable on-chain call.
	data, err := AuthorizationCallData(auth, sig)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	bundled, err := SignedAuthorizationCallData(key, big.NewInt(8453), testHolder, auth)
	require.NoError(t, err)
	assert.Equal(t, data, bundled)
}

func TestSplitSignature(t *testing.T) {
	raw := make([]byte, 65)
	raw[0] = 0xaa
	raw[64] = 1

	sig, err := SplitSignature(raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(28), sig.V)
	assert.Equal(t, byte(0xaa), sig.R[0])

	_, err = SplitSignature(raw[:64])
	require.Error(t, err)
}
