package deployer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/require"

	"github.com/bullbear-labs/bullbear-deploy/artifact"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm/provider"
)

const (
	bullBearABI = `[{"inputs":[` +
		`{"internalType":"uint256","name":"updateInterval","type":"uint256"},` +
		`{"internalType":"address","name":"priceFeedA","type":"address"},` +
		`{"internalType":"address","name":"priceFeedB","type":"address"}` +
		`],"stateMutability":"nonpayable","type":"constructor"}]`

	// bullBearBytecode deploys runtime code that returns 42 and ignores constructor arguments.
	bullBearBytecode = "0x600a600c600039600a6000f3602a60005260206000f3"
	// bullBearRuntime is the code left at the deployed address by bullBearBytecode.
	bullBearRuntime = "0x602a60005260206000f3"
	// revertingBytecode reverts in the constructor.
	revertingBytecode = "0x60006000fd"
	// emptyRuntimeBytecode succeeds without leaving any code behind.
	emptyRuntimeBytecode = "0x00"
)

// testResolver resolves the contracts used by the tests.
func testResolver(t *testing.T) artifact.Resolver {
	t.Helper()

	artifacts := map[string]string{
		"BullBear":     bullBearBytecode,
		"Reverting":    revertingBytecode,
		"EmptyRuntime": emptyRuntimeBytecode,
	}

	return artifact.ResolverFunc(func(name string) (*artifact.Artifact, error) {
		code, ok := artifacts[name]
		if !ok {
			return nil, artifact.ErrArtifactNotFound
		}

		return artifact.Parse(
			[]byte(`{"contractName":"`+name+`","abi":`+bullBearABI+`,"bytecode":"`+code+`"}`),
			"contracts/"+name+".sol", name,
		)
	})
}

// newSimChain returns a funded simulated chain.
func newSimChain(t *testing.T, cfg provider.SimChainProviderConfig) evm.Chain {
	t.Helper()

	bc, err := provider.NewSimChainProvider(t, chainsel.TEST_1000.Selector, cfg).Initialize(t.Context())
	require.NoError(t, err)

	c, ok := bc.(evm.Chain)
	require.True(t, ok, "expected an evm.Chain")

	return c
}

// rejectingClient is a client whose node refuses every transaction.
type rejectingClient struct {
	evm.OnchainClient
}

func (rejectingClient) SendTransaction(context.Context, *types.Transaction) error {
	return errors.New("transaction rejected by node")
}
