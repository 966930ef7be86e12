package domain

import "errors"

// Failure taxonomy for the pipeline. Stages fail fast and whole: a stage
// either fully succeeds or returns one of these (wrapped with detail) and
// leaves no partial result behind.
var (
	// ErrInvalidParameter indicates a stage configuration outside its
	// documented preconditions (non-positive size, negative noise, ...).
	ErrInvalidParameter = errors.New("insar: invalid parameter")

	// ErrShapeMismatch indicates a neighborhood grid too small to cover
	// the record count.
	ErrShapeMismatch = errors.New("insar: shape mismatch")

	// ErrSchemaMismatch indicates a record set missing a feature column
	// required at prediction time.
	ErrSchemaMismatch = errors.New("insar: schema mismatch")

	// ErrInsufficientData indicates a split or fit over too few records,
	// e.g. an empty held-out partition.
	ErrInsufficientData = errors.New("insar: insufficient data")
)
