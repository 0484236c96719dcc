package deployer

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bullbear-labs/bullbear-deploy/artifact"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/operations"
)

// SubmitDeps are the dependencies of the submit operation.
type SubmitDeps struct {
	Chain    evm.Chain
	Artifact *artifact.Artifact
}

// SubmitInput is the recorded input of the submit operation.
type SubmitInput struct {
	Contract string `json:"contract"`
	Params   Params `json:"params"`
}

// SubmitOutput is the pending deployment.
type SubmitOutput struct {
	Address common.Address     `json:"address"`
	Tx      *types.Transaction `json:"tx"`
}

// SubmitOp encodes the constructor arguments and sends the contract creation transaction signed
// by the chain's deployer key. It does not wait for the transaction to be mined.
var SubmitOp = operations.NewOperation(
	"evm-submit-deployment",
	semver.MustParse("1.0.0"),
	"Submits a contract creation transaction",
	func(b operations.Bundle, deps SubmitDeps, input SubmitInput) (SubmitOutput, error) {
		if deps.Chain.DeployerKey == nil {
			return SubmitOutput{}, errors.New("chain has no deployer key")
		}
		if deps.Chain.Client == nil {
			return SubmitOutput{}, errors.New("chain has no client")
		}

		args, err := input.Params.Args()
		if err != nil {
			return SubmitOutput{}, err
		}

		opts := *deps.Chain.DeployerKey
		opts.Context = b.GetContext()

		addr, tx, _, err := bind.DeployContract(
			&opts, deps.Artifact.ABI, deps.Artifact.Bytecode, deps.Chain.Client, args...,
		)
		if err != nil {
			return SubmitOutput{}, fmt.Errorf("failed to deploy %s: %w", input.Contract, err)
		}

		b.Logger.Infow("Submitted deployment transaction",
			"contract", input.Contract, "txHash", tx.Hash().Hex(), "address", addr.Hex(),
			"nonce", tx.Nonce(), "from", opts.From.Hex(),
		)

		return SubmitOutput{Address: addr, Tx: tx}, nil
	},
)

// ConfirmInput identifies the deployment to confirm.
type ConfirmInput struct {
	Address common.Address     `json:"address"`
	Tx      *types.Transaction `json:"tx"`
}

// ConfirmOutput is the confirmed deployment.
type ConfirmOutput struct {
	BlockNumber uint64 `json:"blockNumber"`
}

// ConfirmOp waits for the deployment transaction using the chain's confirm function and then
// checks that contract code exists at the deployed address.
var ConfirmOp = operations.NewOperation(
	"evm-confirm-deployment",
	semver.MustParse("1.0.0"),
	"Waits for a contract creation transaction to be confirmed",
	func(b operations.Bundle, chain evm.Chain, input ConfirmInput) (ConfirmOutput, error) {
		if chain.Confirm == nil {
			return ConfirmOutput{}, errors.New("chain has no confirm function")
		}

		blockNum, err := chain.Confirm(input.Tx)
		if err != nil {
			return ConfirmOutput{}, err
		}

		code, err := chain.Client.CodeAt(b.GetContext(), input.Address, nil)
		if err != nil {
			return ConfirmOutput{}, fmt.Errorf("failed to read code at %s: %w", input.Address.Hex(), err)
		}
		if len(code) == 0 {
			return ConfirmOutput{}, fmt.Errorf("no contract code at %s after tx %s was mined",
				input.Address.Hex(), input.Tx.Hash().Hex(),
			)
		}

		b.Logger.Infow("Deployment transaction confirmed",
			"txHash", input.Tx.Hash().Hex(), "blockNumber", blockNum, "address", input.Address.Hex(),
		)

		return ConfirmOutput{BlockNumber: blockNum}, nil
	},
)
