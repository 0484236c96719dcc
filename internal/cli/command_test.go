package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm/provider"
	"github.com/bullbear-labs/bullbear-deploy/config"
	"github.com/bullbear-labs/bullbear-deploy/deployer"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Config{Logger: logger.Nop()}.Validate())
	require.EqualError(t, Config{}.Validate(), "cli.Config: missing required fields: Logger")

	_, err := NewCommand(Config{})
	require.Error(t, err)
}

func TestNewCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "bullbear-deploy", cmd.Use)

	configFlag := cmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, DefaultConfigPath, configFlag.DefValue)

	envFlag := cmd.Flags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, DefaultEnvFile, envFlag.DefValue)
}

func TestCommand_Deploy(t *testing.T) {
	t.Parallel()

	validConfig := func() *config.Config {
		return &config.Config{
			Network: config.NetworkConfig{
				ChainSelector: chainsel.TEST_1000.Selector,
				RPCURL:        "http://127.0.0.1:8545",
			},
			Onchain: config.OnchainConfig{
				EVM: config.EVMConfig{DeployerKey: "0xabc"},
			},
			Deploy: config.DeployConfig{
				ArtifactsDir:   "testdata/artifacts",
				ConfirmTimeout: time.Minute,
				Confirmations:  1,
				PollInterval:   10 * time.Millisecond,
			},
			Log: config.LogConfig{Level: "debug"},
		}
	}

	simChainLoader := func(t *testing.T) ChainLoaderFunc {
		t.Helper()

		return func(_ context.Context, _ *config.Config, _ logger.Logger) (evm.Chain, error) {
			return newSimChain(t), nil
		}
	}

	tests := []struct {
		name           string
		giveArgs       []string
		giveDeps       func(t *testing.T) Deps
		wantStdout     string
		wantErr        string
		wantErrIs      error
		wantDeployLine bool
	}{
		{
			name: "deploys with the config file",
			giveArgs: []string{
				"--config", "testdata/deploy.yml", "--env-file", "testdata/missing.env",
			},
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{ChainLoader: simChainLoader(t)}
			},
			wantDeployLine: true,
		},
		{
			name: "deploys with injected config",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) { return validConfig(), nil },
					ChainLoader:  simChainLoader(t),
				}
			},
			wantDeployLine: true,
		},
		{
			name: "rejecting network",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) { return validConfig(), nil },
					ChainLoader: func(context.Context, *config.Config, logger.Logger) (evm.Chain, error) {
						c := newSimChain(t)
						c.Client = rejectingClient{c.Client}

						return c, nil
					},
				}
			},
			wantErrIs: deployer.ErrSubmission,
			wantErr:   "transaction rejected by node",
		},
		{
			name: "missing artifact",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) {
						cfg := validConfig()
						cfg.Deploy.ArtifactsDir = "testdata/missing"

						return cfg, nil
					},
					ChainLoader: simChainLoader(t),
				}
			},
			wantErrIs: deployer.ErrResolution,
		},
		{
			name: "env file fails to load",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{DotEnvLoader: func(string) error { return assert.AnError }}
			},
			wantErrIs: assert.AnError,
		},
		{
			name: "config fails to load",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) { return nil, assert.AnError },
				}
			},
			wantErr: "failed to load config deploy.yml",
		},
		{
			name: "invalid config",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) { return &config.Config{}, nil },
				}
			},
			wantErr: "onchain.evm.deployer_key is required",
		},
		{
			name: "chain fails to load",
			giveDeps: func(t *testing.T) Deps {
				t.Helper()

				return Deps{
					ConfigLoader: func(string) (*config.Config, error) { return validConfig(), nil },
					ChainLoader: func(context.Context, *config.Config, logger.Logger) (evm.Chain, error) {
						return evm.Chain{}, assert.AnError
					},
				}
			},
			wantErr: "failed to load chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := tt.giveDeps(t)
			deps.LoggerFactory = func(zapcore.Level) (logger.Logger, error) {
				return logger.Test(t), nil
			}

			cmd, err := NewCommand(Config{Logger: logger.Test(t), Deps: deps})
			require.NoError(t, err)

			var stdout, stderr bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs(append([]string{}, tt.giveArgs...))

			err = cmd.ExecuteContext(t.Context())

			if tt.wantDeployLine {
				require.NoError(t, err)
				assert.Regexp(t, `^Contract deployed to: 0x[0-9a-fA-F]{40}\n$`, stdout.String())

				return
			}

			require.Error(t, err)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
			}
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			}
			assert.NotContains(t, stdout.String(), "Contract deployed to")
		})
	}
}

func TestCommand_RejectsArgs(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Test(t)})
	require.NoError(t, err)

	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"unexpected"})

	require.Error(t, cmd.ExecuteContext(t.Context()))
}

func Test_defaultLoggerFactory(t *testing.T) {
	t.Parallel()

	lggr, err := defaultLoggerFactory(zapcore.WarnLevel)
	require.NoError(t, err)
	assert.NotNil(t, lggr)
}

// newSimChain returns a funded simulated chain.
func newSimChain(t *testing.T) evm.Chain {
	t.Helper()

	bc, err := provider.NewSimChainProvider(
		t, chainsel.TEST_1000.Selector, provider.SimChainProviderConfig{},
	).Initialize(t.Context())
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

func TestCommand_LogsReports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveReject  bool
		wantReports []string
		wantErrs    int
	}{
		{
			name:        "success logs submit and confirm",
			wantReports: []string{"evm-submit-deployment", "evm-confirm-deployment"},
		},
		{
			name:        "failure logs the failed submission",
			giveReject:  true,
			wantReports: []string{"evm-submit-deployment"},
			wantErrs:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)

			cmd, err := NewCommand(Config{
				Logger: logger.Test(t),
				Deps: Deps{
					ConfigLoader: func(string) (*config.Config, error) {
						return config.Load("testdata/deploy.yml")
					},
					LoggerFactory: func(zapcore.Level) (logger.Logger, error) { return lggr, nil },
					ChainLoader: func(context.Context, *config.Config, logger.Logger) (evm.Chain, error) {
						c := newSimChain(t)
						if tt.giveReject {
							c.Client = rejectingClient{c.Client}
						}

						return c, nil
					},
				},
			})
			require.NoError(t, err)

			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"--env-file", "testdata/missing.env"})
			_ = cmd.ExecuteContext(t.Context())

			entries := logs.FilterMessage("Operation report").All()
			require.Len(t, entries, len(tt.wantReports))

			errs := 0
			for i, entry := range entries {
				fields := entry.ContextMap()
				assert.Equal(t, tt.wantReports[i], fields["operation"])
				assert.NotEmpty(t, fields["reportID"])
				if _, ok := fields["error"]; ok {
					errs++
				}
			}
			assert.Equal(t, tt.wantErrs, errs)
		})
	}
}
