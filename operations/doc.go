/*
Package operations provides the building blocks a deployment is made of.

An Operation is a versioned, named step that performs at most one side effect, such as sending
a transaction or waiting for one to be mined. Executing an operation through ExecuteOperation
records a Report with the input, the output or error, and a unique ID, so every on-chain action
of a run can be traced afterwards.

# Basic Usage

	op := operations.NewOperation(
		"evm-deploy-contract", semver.MustParse("1.0.0"), "Deploys a contract",
		func(b operations.Bundle, deps Deps, input Input) (Output, error) { ... },
	)

	bundle := operations.NewBundle(ctx.Context, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input)
*/
package operations
