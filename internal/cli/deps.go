package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/bullbear-labs/bullbear-deploy/artifact"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm/provider"
	"github.com/bullbear-labs/bullbear-deploy/config"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

// DotEnvLoaderFunc loads environment variables from a .env file.
type DotEnvLoaderFunc func(path string) error

// ConfigLoaderFunc loads the deployer configuration from a file path and the environment.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// LoggerFactoryFunc builds the logger used for the deployment at the configured level.
type LoggerFactoryFunc func(lvl zapcore.Level) (logger.Logger, error)

// ChainLoaderFunc connects to the configured network and returns the chain to deploy to.
type ChainLoaderFunc func(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error)

// ResolverLoaderFunc returns the resolver used to find contract artifacts.
type ResolverLoaderFunc func(dir string) artifact.Resolver

// defaultLoggerFactory is the production implementation that builds a zap logger.
func defaultLoggerFactory(lvl zapcore.Level) (logger.Logger, error) {
	cfg := logger.Config{Level: lvl}

	return cfg.New()
}

// defaultChainLoader dials the configured RPCs and sets up the signer and confirm function.
func defaultChainLoader(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error) {
	selector, err := cfg.Network.Selector()
	if err != nil {
		return evm.Chain{}, err
	}

	endpoints := cfg.Network.Endpoints()
	rpcs := make([]provider.RPC, 0, len(endpoints))
	for _, e := range endpoints {
		scheme := provider.URLSchemePreferenceHTTP
		if e.PreferredURLScheme == config.URLSchemeWS {
			scheme = provider.URLSchemePreferenceWS
		}

		rpcs = append(rpcs, provider.RPC{
			Name:               e.RPCName,
			HTTPURL:            e.HTTPURL,
			WSURL:              e.WSURL,
			PreferredURLScheme: scheme,
		})
	}

	p := provider.NewRPCChainProvider(selector, provider.RPCChainProviderConfig{
		DeployerTransactorGen: provider.TransactorFromRaw(
			cfg.Onchain.EVM.DeployerKey,
			provider.WithGasLimit(cfg.Onchain.EVM.GasLimit),
		),
		RPCs: rpcs,
		ConfirmFunctor: provider.ConfirmFuncGeth(
			cfg.Deploy.ConfirmTimeout,
			provider.WithTickInterval(cfg.Deploy.PollInterval),
			provider.WithConfirmations(cfg.Deploy.Confirmations),
		),
		Logger: lggr,
	})

	bc, err := p.Initialize(ctx)
	if err != nil {
		return evm.Chain{}, err
	}

	c, ok := bc.(evm.Chain)
	if !ok {
		return evm.Chain{}, fmt.Errorf("expected an evm chain, got %T", bc)
	}

	return c, nil
}

// defaultResolverLoader resolves artifacts from a Hardhat or Foundry output directory.
func defaultResolverLoader(dir string) artifact.Resolver {
	return artifact.NewDirResolver(dir)
}

// Deps holds the injectable dependencies of the deploy command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// DotEnvLoader loads the .env file.
	// Default: config.LoadDotEnv
	DotEnvLoader DotEnvLoaderFunc

	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// LoggerFactory builds the deployment logger.
	// Default: logger.Config.New
	LoggerFactory LoggerFactoryFunc

	// ChainLoader connects to the network.
	// Default: provider.RPCChainProvider
	ChainLoader ChainLoaderFunc

	// ResolverLoader resolves contract artifacts.
	// Default: artifact.NewDirResolver
	ResolverLoader ResolverLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.DotEnvLoader == nil {
		d.DotEnvLoader = config.LoadDotEnv
	}
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.LoggerFactory == nil {
		d.LoggerFactory = defaultLoggerFactory
	}
	if d.ChainLoader == nil {
		d.ChainLoader = defaultChainLoader
	}
	if d.ResolverLoader == nil {
		d.ResolverLoader = defaultResolverLoader
	}
}
