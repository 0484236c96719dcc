package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
)

// ConfirmFunctor is an interface for creating a confirmation function for transactions on the
// EVM chain.
type ConfirmFunctor interface {
	// Generate returns a function that confirms transactions on the EVM chain.
	Generate(
		ctx context.Context, selector uint64, client evm.OnchainClient, from common.Address,
	) (evm.ConfirmFunc, error)
}

// ConfirmFuncGeth returns a ConfirmFunctor that uses the Geth client to confirm transactions.
// Every confirmation is bounded by waitMinedTimeout, which covers both waiting for the receipt
// and waiting for the configured confirmation depth.
func ConfirmFuncGeth(waitMinedTimeout time.Duration, opts ...func(*confirmFuncGeth)) ConfirmFunctor {
	cf := &confirmFuncGeth{
		tickInterval:     1 * time.Second, // the same value we have in bind.WaitMined hardcoded in "go-ethereum"
		waitMinedTimeout: waitMinedTimeout,
		confirmations:    1,
	}
	for _, o := range opts {
		o(cf)
	}

	return cf
}

// WithTickInterval sets how often the receipt and head are polled.
func WithTickInterval(interval time.Duration) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		if interval > 0 {
			o.tickInterval = interval
		}
	}
}

// WithConfirmations sets the block depth a receipt must reach before it counts as confirmed.
// A depth of 1 means the block containing the transaction is enough.
func WithConfirmations(n uint64) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		if n > 0 {
			o.confirmations = n
		}
	}
}

// confirmFuncGeth implements the ConfirmFunctor interface which generates a confirmation function
// for transactions using the Geth client.
type confirmFuncGeth struct {
	tickInterval     time.Duration
	waitMinedTimeout time.Duration
	confirmations    uint64
}

// Generate returns a function that confirms transactions using the Geth client.
func (g *confirmFuncGeth) Generate(
	ctx context.Context, selector uint64, client evm.OnchainClient, from common.Address,
) (evm.ConfirmFunc, error) {
	return func(tx *types.Transaction) (uint64, error) {
		var blockNum uint64
		if tx == nil {
			return 0, fmt.Errorf("tx was nil, nothing to confirm for selector: %d", selector)
		}

		ctxTimeout, cancel := context.WithTimeout(ctx, g.waitMinedTimeout)
		defer cancel()

		receipt, err := WaitMinedWithInterval(ctxTimeout, g.tickInterval, client, tx.Hash())
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm for selector %d: %w",
				tx.Hash().Hex(), selector, err,
			)
		}
		if receipt == nil {
			return blockNum, fmt.Errorf("receipt was nil for tx %s for selector %d",
				tx.Hash().Hex(), selector,
			)
		}

		blockNum = receipt.BlockNumber.Uint64()

		if receipt.Status == types.ReceiptStatusFailed {
			reason, err := getErrorReasonFromTx(ctxTimeout, client, from, tx, receipt)
			if err == nil && reason != "" {
				return 0, fmt.Errorf("tx %s reverted for selector %d: %s",
					tx.Hash().Hex(), selector, reason,
				)
			}

			return blockNum, fmt.Errorf("tx %s reverted, could not decode error reason for selector %d",
				tx.Hash().Hex(), selector,
			)
		}

		if g.confirmations > 1 {
			target := blockNum + g.confirmations - 1
			if err := waitForBlock(ctxTimeout, g.tickInterval, client, target); err != nil {
				return blockNum, fmt.Errorf("tx %s did not reach %d confirmations for selector %d: %w",
					tx.Hash().Hex(), g.confirmations, selector, err,
				)
			}
		}

		return blockNum, nil
	}, nil
}

// WaitMinedWithInterval is a custom function that allows to get receipts faster for networks with instant blocks
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

// blockNumberReader is the subset of the client used to follow the chain head.
type blockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// waitForBlock polls the chain head until it reaches target.
func waitForBlock(ctx context.Context, tick time.Duration, b blockNumberReader, target uint64) error {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		head, err := b.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-queryTicker.C:
		}
	}
}
