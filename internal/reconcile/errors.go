package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a requested version that does not exist in the input.
	ErrConfiguration = errors.New("configuration error")
	// ErrFieldCountMismatch marks product and unit cells that split into different counts.
	ErrFieldCountMismatch = errors.New("field count mismatch")
	// ErrUncombinable marks multi-valued source and target cells of different lengths.
	ErrUncombinable = errors.New("uncombinable source and target values")
	// ErrDuplicateTarget marks a disaggregation group naming the same target twice.
	ErrDuplicateTarget = errors.New("duplicate target")
)

// RowError ties a parsing failure to its change report row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("change report %s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// DuplicateTargetError names the group that listed a target twice.
type DuplicateTargetError struct {
	Source Record
	Target Record
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("%v: target %s listed twice for source %s", ErrDuplicateTarget, e.Target, e.Source)
}

func (e *DuplicateTargetError) Unwrap() error { return ErrDuplicateTarget }
