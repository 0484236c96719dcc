package evm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// ConfirmFunc is a function that takes a transaction, waits for the transaction to be confirmed,
// and returns the block number and an error.
type ConfirmFunc func(tx *types.Transaction) (uint64, error)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Chain represents an EVM chain. Everything the deployer needs to talk to the network is carried
// here explicitly: the client, the signer and the confirmation policy.
type Chain struct {
	Selector uint64

	Client OnchainClient
	// DeployerKey signs the deployment transaction.
	DeployerKey *bind.TransactOpts
	Confirm     ConfirmFunc
}

// ChainSelector returns the chain selector of the chain
func (c Chain) ChainSelector() uint64 {
	return c.Selector
}

// String returns chain name and selector "<name> (<selector>)"
func (c Chain) String() string {
	details, err := chainDetails(c.Selector)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%s (%d)", details.ChainName, details.ChainSelector)
}

// Name returns the name of the chain, falling back to the selector when the chain has no name.
func (c Chain) Name() string {
	details, err := chainDetails(c.Selector)
	if err != nil {
		return ""
	}
	if details.ChainName == "" {
		return strconv.FormatUint(c.Selector, 10)
	}

	return details.ChainName
}

// Family returns the family of the chain
func (c Chain) Family() string {
	family, err := chainsel.GetSelectorFamily(c.Selector)
	if err != nil {
		return ""
	}

	return family
}

// ChainID returns the EVM chain ID for the selector.
func (c Chain) ChainID() (*big.Int, error) {
	return ChainIDFromSelector(c.Selector)
}

// ChainIDFromSelector resolves the EVM chain ID of a chain selector.
func ChainIDFromSelector(selector uint64) (*big.Int, error) {
	chainIDStr, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID from selector %d: %w", selector, err)
	}

	chainID, ok := new(big.Int).SetString(chainIDStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to convert chain ID %s to big.Int", chainIDStr)
	}

	return chainID, nil
}

func chainDetails(selector uint64) (chainsel.ChainDetails, error) {
	id, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return chainsel.ChainDetails{}, err
	}
	family, err := chainsel.GetSelectorFamily(selector)
	if err != nil {
		return chainsel.ChainDetails{}, err
	}

	return chainsel.GetChainDetailsByChainIDAndFamily(id, family)
}
