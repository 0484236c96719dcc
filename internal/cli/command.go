// Package cli provides the bullbear-deploy command.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bullbear-labs/bullbear-deploy/deployer"
	"github.com/bullbear-labs/bullbear-deploy/operations"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

const (
	// DefaultConfigPath is the config file read when --config is not given.
	DefaultConfigPath = "deploy.yml"
	// DefaultEnvFile is the .env file read when --env-file is not given.
	DefaultEnvFile = ".env"
)

var (
	deployShort = "Deploy the BullBear contract"

	deployLong = longDesc(`
		Deploys a single BullBear contract to the configured EVM network and waits for the
		deployment transaction to be confirmed.

		Configuration is read from the --config file when it exists and can be overridden by
		environment variables, which may be loaded from the --env-file. On success the contract
		address is printed to stdout.
	`)

	deployExample = examples(`
		# Deploy using deploy.yml and .env in the current directory
		bullbear-deploy

		# Deploy to a local node using environment variables only
		RPC_URL=http://127.0.0.1:8545 CHAIN_ID=31337 PRIVATE_KEY=0x... bullbear-deploy
	`)
)

// Config holds the configuration for the deploy command.
type Config struct {
	// Logger is the logger used before the deployment logger is configured. Required.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Logger == nil {
		missing = append(missing, "Logger")
	}

	if len(missing) > 0 {
		return errors.New("cli.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

type deployFlags struct {
	configPath string
	envFile    string
}

// NewCommand creates the root bullbear-deploy command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	var f deployFlags

	cmd := &cobra.Command{
		Use:           "bullbear-deploy",
		Short:         deployShort,
		Long:          deployLong,
		Example:       deployExample,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd, cfg, f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", DefaultConfigPath, "Path to the YAML config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", DefaultEnvFile, "Path to a .env file")

	return cmd, nil
}

// runDeploy executes the deploy command logic.
func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags) error {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	if err := deps.DotEnvLoader(f.envFile); err != nil {
		return err
	}

	envCfg, err := deps.ConfigLoader(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", f.configPath, err)
	}
	if err = envCfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lvl, err := logger.ParseLevel(envCfg.Log.Level)
	if err != nil {
		return err
	}
	lggr, err := deps.LoggerFactory(lvl)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	cfg.Logger.Debugw("Loaded config", "config", f.configPath, "artifactsDir", envCfg.Deploy.ArtifactsDir)

	chain, err := deps.ChainLoader(ctx, envCfg, lggr)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}

	// --- Execute

	d := deployer.New(lggr, chain, deps.ResolverLoader(envCfg.Deploy.ArtifactsDir))
	result, err := d.Deploy(ctx, deployer.ContractName, deployer.DefaultParams())
	if err != nil {
		logRecordedReports(lggr, d)

		return err
	}

	for _, id := range result.ReportIDs {
		report, rerr := d.Report(id)
		if rerr != nil {
			lggr.Warnw("Failed to read operation report", "reportID", id, "error", rerr)
			continue
		}
		logReport(lggr, report)
	}

	// --- Report

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Contract deployed to: %s\n", result.Address.Hex())

	return err
}

// logRecordedReports logs every report recorded by a failed deployment.
func logRecordedReports(lggr logger.Logger, d *deployer.Deployer) {
	reports, err := d.Reports()
	if err != nil {
		lggr.Warnw("Failed to read operation reports", "error", err)
		return
	}

	for _, report := range reports {
		logReport(lggr, report)
	}
}

func logReport(lggr logger.Logger, report operations.Report[any, any]) {
	kv := []any{
		"reportID", report.ID,
		"operation", report.Def.ID,
		"version", report.Def.Version,
		"timestamp", report.Timestamp,
	}
	if report.Err != nil {
		kv = append(kv, "error", report.Err.Message)
	}

	lggr.Debugw("Operation report", kv...)
}
