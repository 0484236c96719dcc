package config

import (
	"errors"
	"fmt"

	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

// Validate checks that the config has everything a deployment needs. All problems are reported
// at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Network.Selector(); err != nil {
		errs = append(errs, err)
	}

	endpoints := c.Network.Endpoints()
	if len(endpoints) == 0 {
		errs = append(errs, errors.New("network.rpc_url or network.rpcs is required"))
	}
	for _, rpc := range endpoints {
		if err := rpc.validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Onchain.EVM.DeployerKey == "" {
		errs = append(errs, errors.New("onchain.evm.deployer_key is required"))
	}

	if c.Deploy.ArtifactsDir == "" {
		errs = append(errs, errors.New("deploy.artifacts_dir is required"))
	}
	if c.Deploy.ConfirmTimeout <= 0 {
		errs = append(errs, fmt.Errorf("deploy.confirm_timeout must be positive, got %s", c.Deploy.ConfirmTimeout))
	}
	if c.Deploy.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("deploy.poll_interval must be positive, got %s", c.Deploy.PollInterval))
	}
	if c.Deploy.Confirmations == 0 {
		errs = append(errs, errors.New("deploy.confirmations must be at least 1"))
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}
