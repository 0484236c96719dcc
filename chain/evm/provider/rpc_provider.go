package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/bullbear-labs/bullbear-deploy/chain"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

const defaultDialTimeout = 10 * time.Second

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: A generator for the deployer key. Use TransactorFromRaw to create a deployer
	// key from a private key.
	DeployerTransactorGen SignerGenerator
	// Required: At least one RPC must be provided to connect to the EVM node. RPCs are tried in
	// order and the first one that answers with the expected chain ID is used.
	RPCs []RPC
	// Required: ConfirmFunctor is a type that generates a confirmation function for transactions.
	// Use ConfirmFuncGeth.
	ConfirmFunctor ConfirmFunctor
	// Optional: DialTimeout bounds connecting to and querying each RPC. Defaults to 10s.
	DialTimeout time.Duration
	// Optional: Logger is the logger to use for the RPCChainProvider. If not provided, a default
	// logger will be used.
	Logger logger.Logger
}

// validate checks if the RPCChainProviderConfig is valid.
func (c RPCChainProviderConfig) validate() error {
	if c.DeployerTransactorGen == nil {
		return errors.New("deployer transactor generator is required")
	}
	if c.ConfirmFunctor == nil {
		return errors.New("confirm functor is required")
	}
	if len(c.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}

	return nil
}

// RPCChainProvider is a chain provider that provides a chain that connects to an EVM node via RPC.
type RPCChainProvider struct {
	selector uint64
	config   RPCChainProviderConfig

	chain *evm.Chain
}

// NewRPCChainProvider creates a new RPCChainProvider with the given selector and configuration.
func NewRPCChainProvider(
	selector uint64, config RPCChainProviderConfig,
) *RPCChainProvider {
	return &RPCChainProvider{
		selector: selector,
		config:   config,
	}
}

// Initialize initializes the RPCChainProvider, setting up the EVM chain with the provided
// configuration. It returns the initialized chain.BlockChain or an error if initialization fails.
func (p *RPCChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}
	if p.config.DialTimeout <= 0 {
		p.config.DialTimeout = defaultDialTimeout
	}

	if err := p.config.validate(); err != nil {
		return nil, fmt.Errorf("failed to validate provider config: %w", err)
	}

	chainID, err := evm.ChainIDFromSelector(p.selector)
	if err != nil {
		return nil, err
	}

	deployerKey, err := p.config.DeployerTransactorGen.Generate(chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate deployer key: %w", err)
	}

	client, err := p.dial(ctx, chainID.Uint64())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to any RPC for selector %d: %w", p.selector, err)
	}

	confirmFunc, err := p.config.ConfirmFunctor.Generate(
		ctx, p.selector, client, deployerKey.From,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to generate confirm function: %w", err)
	}

	p.chain = &evm.Chain{
		Selector:    p.selector,
		Client:      client,
		DeployerKey: deployerKey,
		Confirm:     confirmFunc,
	}

	return *p.chain, nil
}

// dial connects to the configured RPCs in order and returns the first client whose node reports
// the expected chain ID.
func (p *RPCChainProvider) dial(ctx context.Context, wantChainID uint64) (*ethclient.Client, error) {
	var errs []error
	for _, rpc := range p.config.RPCs {
		client, err := p.dialOne(ctx, rpc, wantChainID)
		if err != nil {
			p.config.Logger.Warnw("RPC unavailable", "rpc", rpc.Name, "error", err)
			errs = append(errs, fmt.Errorf("rpc %q: %w", rpc.Name, err))

			continue
		}

		p.config.Logger.Infow("Connected to RPC", "rpc", rpc.Name, "chainID", wantChainID)

		return client, nil
	}

	return nil, errors.Join(errs...)
}

func (p *RPCChainProvider) dialOne(ctx context.Context, rpc RPC, wantChainID uint64) (*ethclient.Client, error) {
	endpoint := rpc.PreferredEndpoint()
	if endpoint == "" {
		return nil, errors.New("no endpoint configured")
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.config.DialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	gotChainID, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if gotChainID.Uint64() != wantChainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", wantChainID, gotChainID.Uint64())
	}

	return client, nil
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "EVM RPC Chain Provider"
}

// ChainSelector returns the chain selector of the chain managed by this provider.
func (p *RPCChainProvider) ChainSelector() uint64 {
	return p.selector
}

// BlockChain returns the chain instance managed by this provider. You must call Initialize
// before using this method to ensure the chain is properly set up.
func (p *RPCChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}
