package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage.
// Only ErrSchema is fatal for a run; the others are isolated per horizon.
var (
	// ErrSchema: the input panel is malformed (missing mandatory column, duplicate key)
	ErrSchema = errors.New("panel schema error")

	// ErrInsufficientData: no rows remain after filtering for a horizon
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateFold: a cross-validation fold holds a single label class
	ErrDegenerateFold = errors.New("degenerate fold: single label class")

	// ErrMissingModel: no persisted model exists for a horizon
	ErrMissingModel = errors.New("missing model")

	// ErrQualityFailed: the panel quality check reported critical issues
	ErrQualityFailed = errors.New("panel quality check failed")

	// ErrBusy: another routine holds the run guard (API trigger or scheduled job)
	ErrBusy = errors.New("another routine is running")
)

// SchemaError describes why a panel was rejected
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q: %s", ErrSchema, e.Column, e.Reason)
}

// Unwrap lets errors.Is(err, ErrSchema) match
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
