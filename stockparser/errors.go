package stockparser

import (
	"fmt"
	"strings"
)

// FormatError reports raw bytes that could not be decoded or parsed into
// tabular structure. Fatal to the current run.
type FormatError struct {
	Kind DatasetKind
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: cannot parse dataset: %v", e.Kind, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from a successfully parsed
// header. Fatal; names the dataset kind and every missing column.
type SchemaError struct {
	Kind    DatasetKind
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Kind, strings.Join(e.Missing, ", "))
}

// ReconciliationError reports an input record set that is empty or a join that
// cannot proceed meaningfully. Fatal, non-retryable.
type ReconciliationError struct {
	Reason string
	Err    error
}

func (e *ReconciliationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reconciliation failed: %s: %v", e.Reason, e.Err)
	}
	return "reconciliation failed: " + e.Reason
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
