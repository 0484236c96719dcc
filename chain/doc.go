/*
Package chain defines the blockchain abstraction the deployer runs against.

A BlockChain identifies a network by its chain selector (see
github.com/smartcontractkit/chain-selectors). A Provider builds a BlockChain from explicit
configuration; the evm/provider package ships an RPC provider for real networks and a
simulated provider backed by go-ethereum's in-memory backend for tests.

	p := provider.NewRPCChainProvider(selector, provider.RPCChainProviderConfig{
		DeployerTransactorGen: provider.TransactorFromRaw(key),
		RPCs:                  []provider.RPC{{Name: "primary", HTTPURL: url}},
		ConfirmFunctor:        provider.ConfirmFuncGeth(5 * time.Minute),
	})

	bc, err := p.Initialize(ctx)
	if err != nil {
		return err
	}
	evmChain := bc.(evm.Chain)
*/
package chain
