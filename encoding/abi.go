package encoding

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ----------------- ERC-20 -----------------
const erc20ABIJSON = `[
	{"name":"approve","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// ----------------- Payment Hub -----------------
const hubABIJSON = `[
	{"name":"sendPayment","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipient","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[]},
	{"name":"sendPaymentWithMetadata","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipient","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"metadata","type":"bytes"}],
	 "outputs":[]},
	{"name":"sendBatchPayment","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipients","type":"address[]"},{"name":"token","type":"address"},{"name":"amounts","type":"uint256[]"}],
	 "outputs":[]}
]`

// ----------------- Lending pool -----------------
const poolABIJSON = `[
	{"name":"supply","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"onBehalfOf","type":"address"},{"name":"referralCode","type":"uint16"}],
	 "outputs":[]}
]`

// ----------------- Bundler multicall -----------------
const bundlerABIJSON = `[
	{"name":"multicall","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"bundle","type":"tuple[]","components":[
		{"name":"to","type":"address"},
		{"name":"data","type":"bytes"},
		{"name":"value","type":"uint256"},
		{"name":"skipRevert","type":"bool"},
		{"name":"callbackHash","type":"bytes32"}
	 ]}],
	 "outputs":[]}
]`

// ----------------- Signature-authorized meta-transaction -----------------
const authABIJSON = `[
	{"name":"setAuthorizationWithSig","type":"function","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"authorization","type":"tuple","components":[
			{"name":"authorizer","type":"address"},
			{"name":"authorized","type":"address"},
			{"name":"isAuthorized","type":"bool"},
			{"name":"nonce","type":"uint256"},
			{"name":"deadline","type":"uint256"}
		]},
		{"name":"signature","type":"tuple","components":[
			{"name":"v","type":"uint8"},
			{"name":"r","type":"bytes32"},
			{"name":"s","type":"bytes32"}
		]}
	 ],
	 "outputs":[]}
]`

var (
	erc20ABI   = mustParseABI(erc20ABIJSON)
	hubABI     = mustParseABI(hubABIJSON)
	poolABI    = mustParseABI(poolABIJSON)
	bundlerABI = mustParseABI(bundlerABIJSON)
	authABI    = mustParseABI(authABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("encoding: bad abi fragment: " + err.Error())
	}
	return parsed
}
