// Package deployer deploys a single contract to an EVM chain and waits for it to be confirmed.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bullbear-labs/bullbear-deploy/artifact"
	"github.com/bullbear-labs/bullbear-deploy/chain/evm"
	"github.com/bullbear-labs/bullbear-deploy/operations"
	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

var (
	// ErrResolution is returned when the contract artifact cannot be resolved.
	ErrResolution = errors.New("failed to resolve contract factory")
	// ErrSubmission is returned when the deployment transaction cannot be built or sent.
	ErrSubmission = errors.New("failed to submit deployment")
	// ErrConfirmation is returned when a submitted deployment is not confirmed.
	ErrConfirmation = errors.New("failed to confirm deployment")
	// ErrAlreadyRun is returned by Deploy on a Deployer that has already been used.
	ErrAlreadyRun = errors.New("deployer has already run")
)

// State is the lifecycle state of a Deployer.
type State int

const (
	// StateNotStarted is the state of a new Deployer.
	StateNotStarted State = iota
	// StateSubmitted means the deployment transaction was accepted by the node.
	StateSubmitted
	// StateConfirmed means the deployment was mined and code exists at the address.
	StateConfirmed
	// StateFailed means a stage failed. The Deployer cannot be run again.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateSubmitted:
		return "SUBMITTED"
	case StateConfirmed:
		return "CONFIRMED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result describes a confirmed deployment.
type Result struct {
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	// ReportIDs are the IDs of the operation reports recorded during the run, in execution order.
	ReportIDs []string
}

// Deployer performs exactly one deployment against the chain it was built with.
type Deployer struct {
	lggr     logger.Logger
	chain    evm.Chain
	resolver artifact.Resolver
	reporter *operations.MemoryReporter

	mu    sync.Mutex
	state State
}

// New returns a Deployer for chain. The chain carries the client, the signing key and the
// confirm function; resolver provides the compiled contract.
func New(lggr logger.Logger, chain evm.Chain, resolver artifact.Resolver) *Deployer {
	return &Deployer{
		lggr:     lggr.Named("deployer"),
		chain:    chain,
		resolver: resolver,
		reporter: operations.NewMemoryReporter(),
		state:    StateNotStarted,
	}
}

// State returns the current state.
func (d *Deployer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Reports returns the operation reports recorded so far.
func (d *Deployer) Reports() ([]operations.Report[any, any], error) {
	return d.reporter.GetReports()
}

// Report returns the recorded operation report with the given ID, such as an entry of
// Result.ReportIDs.
func (d *Deployer) Report(id string) (operations.Report[any, any], error) {
	return d.reporter.GetReport(id)
}

func (d *Deployer) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lggr.Debugw("Deployer state changed", "from", d.state.String(), "to", s.String())
	d.state = s
}

// start moves the deployer out of NOT_STARTED, failing if it already left it.
func (d *Deployer) start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateNotStarted {
		return fmt.Errorf("%w: state is %s", ErrAlreadyRun, d.state)
	}
	// Until the submission succeeds, any exit leaves the deployer FAILED.
	d.state = StateFailed

	return nil
}

// Deploy resolves contractName, submits its creation transaction with params and blocks until
// the chain's confirm function accepts it.
//
// Errors wrap ErrResolution, ErrSubmission or ErrConfirmation depending on the stage that
// failed. Nothing is retried.
func (d *Deployer) Deploy(ctx context.Context, contractName string, params Params) (Result, error) {
	if err := d.start(); err != nil {
		return Result{}, err
	}

	d.lggr.Infow("Starting deployment",
		"contract", contractName, "chain", d.chain.String(), "params", params,
	)

	art, err := d.resolver.Resolve(contractName)
	if err != nil {
		return Result{}, fmt.Errorf("%w %s: %w", ErrResolution, contractName, err)
	}
	d.lggr.Infow("Resolved contract artifact", "artifact", art.FullyQualifiedName())

	b := operations.NewBundle(func() context.Context { return ctx }, d.lggr, d.reporter)

	submitted, err := operations.ExecuteOperation(b, SubmitOp,
		SubmitDeps{Chain: d.chain, Artifact: art},
		SubmitInput{Contract: art.FullyQualifiedName(), Params: params},
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w %s: %w", ErrSubmission, contractName, err)
	}
	d.setState(StateSubmitted)

	confirmed, err := operations.ExecuteOperation(b, ConfirmOp, d.chain, ConfirmInput(submitted.Output))
	if err != nil {
		d.setState(StateFailed)
		return Result{}, fmt.Errorf("%w %s: %w", ErrConfirmation, contractName, err)
	}
	d.setState(StateConfirmed)

	return Result{
		Address:     submitted.Output.Address,
		TxHash:      submitted.Output.Tx.Hash(),
		BlockNumber: confirmed.Output.BlockNumber,
		ReportIDs:   []string{submitted.ID, confirmed.ID},
	}, nil
}
