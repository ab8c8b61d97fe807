package types

import "github.com/ethereum/go-ethereum/common"

// Supported destination chains.
const (
	ChainEthereum uint64 = 1
	ChainOptimism uint64 = 10
	ChainBase     uint64 = 8453
	ChainArbitrum uint64 = 42161
)

// PaymentTokens maps chain id to the stable tokens accepted for payment.
var PaymentTokens = map[uint64]map[string]common.Address{
	ChainEthereum: {
		"USDC": common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		"USDT": common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		"DAI":  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
	},
	ChainArbitrum: {
		"USDC": common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		"USDT": common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9"),
		"DAI":  common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"),
	},
	ChainBase: {
		"USDC": common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		"USDT": common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb"),
		"DAI":  common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb"),
	},
	ChainOptimism: {
		"USDC": common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
		"USDT": common.HexToAddress("0x94b008aA00579c1307B0EF2c499aD98a8ce58e58"),
		"DAI":  common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"),
	},
}

// HubContracts maps chain id to the deployed payment hub contract.
var HubContracts = map[uint64]common.Address{
	ChainEthereum: common.HexToAddress("0x1234567890123456789012345678901234567890"),
	ChainArbitrum: common.HexToAddress("0x1234567890123456789012345678901234567890"),
	ChainBase:     common.HexToAddress("0x1234567890123456789012345678901234567890"),
	ChainOptimism: common.HexToAddress("0x1234567890123456789012345678901234567890"),
}

// SpokePools maps chain id to the bridge spoke pool deposits are sent to.
var SpokePools = map[uint64]common.Address{
	ChainEthereum: common.HexToAddress("0x5c7BCd6E7De5423a257D81B442095A1a6ced35C5"),
	ChainOptimism: common.HexToAddress("0x6f26Bf09B1C792e3228e5467807a900A503c0281"),
	ChainBase:     common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"),
	ChainArbitrum: common.HexToAddress("0xe35e9842fceaCA96570B734083f4a58e8F7C5f2A"),
}

// MulticallHandlers maps chain id to the destination-side handler that
// executes the message actions after a fill.
var MulticallHandlers = map[uint64]common.Address{
	ChainEthereum: common.HexToAddress("0x924a9f036260DdD5808007E1AA95f08eD08aA569"),
	ChainOptimism: common.HexToAddress("0x924a9f036260DdD5808007E1AA95f08eD08aA569"),
	ChainBase:     common.HexToAddress("0x924a9f036260DdD5808007E1AA95f08eD08aA569"),
	ChainArbitrum: common.HexToAddress("0x924a9f036260DdD5808007E1AA95f08eD08aA569"),
}

// ExplorerURLs maps chain id to the canonical block explorer.
var ExplorerURLs = map[uint64]string{
	ChainEthereum: "https://etherscan.io",
	ChainOptimism: "https://optimistic.etherscan.io",
	ChainBase:     "https://basescan.org",
	ChainArbitrum: "https://arbiscan.io",
}

// TransactionURL renders an explorer link for a transaction, or an empty
// string when the chain has no configured explorer.
func TransactionURL(chainID uint64, txHash string) string {
	base, ok := ExplorerURLs[chainID]
	if !ok {
		return ""
	}
	return base + "/tx/" + txHash
}
