package provider

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/bullbear-labs/bullbear-deploy/chain"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
)

var (
	// simChainID is the chain ID for the simulated EVM chain. This is always set to 1337 across
	// all instances of EVM Simulated Chains.
	simChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is the amount the deployer account is funded with: 1,000,000 Ether.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

// SimChainProviderConfig holds the configuration to initialize the SimChainProvider.
type SimChainProviderConfig struct {
	// Optional: BlockTime configures the time between blocks being committed. By default, this is
	// set to 0s, meaning that blocks are not mined automatically and the default confirm function
	// commits a block itself.
	BlockTime time.Duration
	// Optional: ConfirmFunctor replaces the default commit-and-wait confirm function. Use it to
	// exercise a real confirmation policy against the simulated chain.
	ConfirmFunctor ConfirmFunctor
	// Optional: DeployerGasLimit fixes the gas limit of the deployer transactor, skipping gas
	// estimation.
	DeployerGasLimit uint64
}

var _ chain.Provider = (*SimChainProvider)(nil)

// SimChainProvider manages a Simulated EVM chain that is backed by go-ethereum's in memory
// simulated backend.
type SimChainProvider struct {
	t        *testing.T
	selector uint64
	config   SimChainProviderConfig

	chain *evm.Chain
}

// NewSimChainProvider creates a new SimChainProvider with the given selector and configuration.
func NewSimChainProvider(
	t *testing.T, selector uint64, config SimChainProviderConfig,
) *SimChainProvider {
	t.Helper()

	return &SimChainProvider{
		t:        t,
		selector: selector,
		config:   config,
	}
}

// Initialize sets up the simulated chain with a prefunded deployer account and returns an
// evm.Chain that can be used to interact with it.
func (p *SimChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	key, err := crypto.GenerateKey()
	require.NoError(p.t, err, "failed to generate deployer key")

	deployerKey, err := bind.NewKeyedTransactorWithChainID(key, simChainID)
	require.NoError(p.t, err)
	if p.config.DeployerGasLimit > 0 {
		deployerKey.GasLimit = p.config.DeployerGasLimit
	}

	genesis := types.GenesisAlloc{
		deployerKey.From: {Balance: prefundAmountWei},
	}

	backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50000000))
	backend.Commit() // Commit the genesis block

	if p.config.BlockTime > 0 {
		startAutoMine(p.t, backend, p.config.BlockTime)
	}

	client := NewSimClient(p.t, backend)

	confirm := p.commitAndWait(client, deployerKey)
	if p.config.ConfirmFunctor != nil {
		confirm, err = p.config.ConfirmFunctor.Generate(ctx, p.selector, client, deployerKey.From)
		if err != nil {
			return nil, fmt.Errorf("failed to generate confirm function: %w", err)
		}
	}

	p.chain = &evm.Chain{
		Selector:    p.selector,
		Client:      client,
		DeployerKey: deployerKey,
		Confirm:     confirm,
	}

	return *p.chain, nil
}

// commitAndWait returns a confirm function that mines a block and waits for the receipt.
func (p *SimChainProvider) commitAndWait(client *SimClient, deployerKey *bind.TransactOpts) evm.ConfirmFunc {
	return func(tx *types.Transaction) (uint64, error) {
		if tx == nil {
			return 0, fmt.Errorf("tx was nil, nothing to confirm for selector: %d", p.selector)
		}

		// Ensure the transaction is mined by committing a new block
		client.Commit()

		receipt, err := func() (*types.Receipt, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()

			return bind.WaitMined(ctx, client, tx)
		}()
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm for selector %d: %w",
				tx.Hash().Hex(), p.selector, err,
			)
		}

		if receipt.Status == types.ReceiptStatusFailed {
			reason, err := getErrorReasonFromTx(
				p.t.Context(), client, deployerKey.From, tx, receipt,
			)
			if err == nil && reason != "" {
				return 0, fmt.Errorf("tx %s reverted for selector %d: %s",
					tx.Hash().Hex(), p.selector, reason,
				)
			}

			return 0, fmt.Errorf("tx %s reverted, could not decode error reason for selector %d",
				tx.Hash().Hex(), p.selector,
			)
		}

		return receipt.BlockNumber.Uint64(), nil
	}
}

// Name returns the name of the SimChainProvider.
func (*SimChainProvider) Name() string {
	return "Simulated EVM Chain Provider"
}

// ChainSelector returns the chain selector of the simulated chain managed by this provider.
func (p *SimChainProvider) ChainSelector() uint64 {
	return p.selector
}

// BlockChain returns the simulated chain instance managed by this provider. You must call Initialize
// before using this method to ensure the chain is properly set up.
func (p *SimChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}

// startAutoMine triggers the simulated backend to create a new block at intervals defined by
// `blockTime`. After the test is done, it stops the mining goroutine.
func startAutoMine(t *testing.T, backend *simulated.Backend, blockTime time.Duration) {
	t.Helper()

	ctx := t.Context()
	ticker := time.NewTicker(blockTime)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				backend.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()
}
