// Package config loads the deployer configuration from a YAML file and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/bullbear-labs/bullbear-deploy/artifact"
)

// RPC is an RPC endpoint of the target network.
type RPC struct {
	RPCName            string `mapstructure:"rpc_name" yaml:"rpc_name"`
	PreferredURLScheme string `mapstructure:"preferred_url_scheme" yaml:"preferred_url_scheme"`
	HTTPURL            string `mapstructure:"http_url" yaml:"http_url"`
	WSURL              string `mapstructure:"ws_url" yaml:"ws_url"`
}

// NetworkConfig selects the network to deploy to. Exactly one of ChainSelector and ChainID
// must be set.
type NetworkConfig struct {
	ChainSelector uint64 `mapstructure:"chain_selector" yaml:"chain_selector"`
	ChainID       uint64 `mapstructure:"chain_id" yaml:"chain_id"`
	RPCURL        string `mapstructure:"rpc_url" yaml:"rpc_url"` // Shorthand for a single RPC
	RPCs          []RPC  `mapstructure:"rpcs" yaml:"rpcs"`
}

// EVMConfig is the configuration for signing on EVM chains.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type EVMConfig struct {
	DeployerKey string `mapstructure:"deployer_key" yaml:"deployer_key"` // Secret: The private key of the deployer account.
	GasLimit    uint64 `mapstructure:"gas_limit" yaml:"gas_limit"`       // Fixed gas limit. Zero estimates gas.
}

// OnchainConfig wraps the configuration for the onchain components.
type OnchainConfig struct {
	EVM EVMConfig `mapstructure:"evm" yaml:"evm"`
}

// DeployConfig controls how the deployment is resolved and confirmed.
type DeployConfig struct {
	ArtifactsDir   string        `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout"`
	Confirmations  uint64        `mapstructure:"confirmations" yaml:"confirmations"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// LogConfig is the logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Config wraps the entire configuration of the deployer.
type Config struct {
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Onchain OnchainConfig `mapstructure:"onchain" yaml:"onchain"`
	Deploy  DeployConfig  `mapstructure:"deploy" yaml:"deploy"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	// Bind environment variables
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// If the config file exists, we continue to read it, otherwise we fallback to using
	// environment variables
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := newViper()

	// Bind environment variables
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

const (
	DefaultConfirmTimeout = 5 * time.Minute
	DefaultConfirmations  = 1
	DefaultPollInterval   = 1 * time.Second
	DefaultLogLevel       = "info"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("deploy.artifacts_dir", artifact.DefaultDir)
	v.SetDefault("deploy.confirm_timeout", DefaultConfirmTimeout)
	v.SetDefault("deploy.confirmations", DefaultConfirmations)
	v.SetDefault("deploy.poll_interval", DefaultPollInterval)
	v.SetDefault("log.level", DefaultLogLevel)

	return v
}

var (
	// envBindings defines how environment variables map to configuration keys used by Viper.
	// Each entry maps a config key (as used in the struct, e.g. "network.chain_id") to a list of
	// environment variable names that can provide its value.
	//
	// The first element in the list is the preferred environment variable name, and the second
	// (if present) is the name Hardhat projects conventionally keep in their .env file.
	//
	// When loading, Viper will check each listed environment variable in order and use the first one
	// that is set.
	envBindings = map[string][]string{
		"network.chain_selector":   {"DEPLOY_NETWORK_CHAIN_SELECTOR"},
		"network.chain_id":         {"DEPLOY_NETWORK_CHAIN_ID", "CHAIN_ID"},
		"network.rpc_url":          {"DEPLOY_NETWORK_RPC_URL", "RPC_URL"},
		"onchain.evm.deployer_key": {"ONCHAIN_EVM_DEPLOYER_KEY", "PRIVATE_KEY"},
		"onchain.evm.gas_limit":    {"ONCHAIN_EVM_GAS_LIMIT"},
		"deploy.artifacts_dir":     {"DEPLOY_ARTIFACTS_DIR"},
		"deploy.confirm_timeout":   {"DEPLOY_CONFIRM_TIMEOUT"},
		"deploy.confirmations":     {"DEPLOY_CONFIRMATIONS"},
		"deploy.poll_interval":     {"DEPLOY_POLL_INTERVAL"},
		"log.level":                {"LOG_LEVEL"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	// Bind environment variables mappings to the viper instance
	for key, envs := range envBindings {
		// Prepend the env key to the start of the arguments
		inputs := slices.Insert(envs, 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
