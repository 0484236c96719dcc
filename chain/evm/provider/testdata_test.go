package provider

import (
	"math/big"

	chain_selectors "github.com/smartcontractkit/chain-selectors"
)

// Defines standard variables for a test chain.
var (
	testChainID    = chain_selectors.TEST_1000.EvmChainID // Defines a standard test EVM chain ID
	testChainIDBig = new(big.Int).SetUint64(testChainID)  // Defines the testChainID in *big.Int format
	// testChainIDHex is the eth_chainId JSON result for testChainID.
	testChainIDHex = `"0x3e8"`
)
