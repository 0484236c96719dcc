package operations

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bullbear-labs/bullbear-deploy/pkg/logger"
)

var ErrNotSerializable = errors.New("data cannot be safely recorded in a report, " +
	"avoid type that can't be serialized")

// ExecuteOperation executes an operation with the given input and dependencies and records a
// report of the execution, successful or not. Operations are never retried: a failed operation
// returns the handler's error unchanged so callers can inspect it with errors.Is.
//
// Input & Output:
// The input and output must be JSON serializable. If the input is not serializable, it will return an error.
// To be serializable, the input and output must be json.marshalable, or it must implement json.Marshaler.
func ExecuteOperation[IN, OUT, DEP any](
	b Bundle,
	operation *Operation[IN, OUT, DEP],
	deps DEP,
	input IN,
) (Report[IN, OUT], error) {
	if !IsSerializable(b.Logger, input) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s input: %w", operation.ID(), ErrNotSerializable)
	}

	output, err := operation.execute(b, deps, input)
	if err == nil && !IsSerializable(b.Logger, output) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s output: %w", operation.ID(), ErrNotSerializable)
	}

	report := NewReport(operation.Def(), input, output, err)
	if rerr := b.reporter.AddReport(report.ToGenericReport()); rerr != nil {
		return Report[IN, OUT]{}, fmt.Errorf("failed to record report for operation %s: %w", operation.ID(), rerr)
	}

	if err != nil {
		b.Logger.Errorw("Operation failed",
			"id", operation.ID(), "version", operation.Version(), "reportID", report.ID, "error", err,
		)

		return report, err
	}

	return report, nil
}

// IsSerializable returns true if v can be written into a report as JSON.
func IsSerializable(lggr logger.Logger, v any) bool {
	if _, err := json.Marshal(v); err != nil {
		lggr.Errorw("Value is not serializable", "type", fmt.Sprintf("%T", v), "error", err)

		return false
	}

	return true
}
