package resolve

import (
	"fmt"

	"github.com/typeforge/genbind/internal/typedesc"
)

// Result is the outcome of one unification attempt. Satisfied carries the
// fully closed descriptor to construct; Unsatisfied optionally diagnoses the
// parameter or constraint that could not be met. An unsatisfiable candidate
// is an expected filtering outcome, so Result is a value, never an error.
type Result struct {
	Satisfied bool
	Closed    *typedesc.Descriptor
	Failure   *Failure
}

// Failure names what blocked a unification attempt. ParamIndex is -1 when
// the failure is not tied to a single parameter position; Constraint is nil
// unless a specific constraint was violated.
type Failure struct {
	ParamIndex int
	Constraint *typedesc.Constraint
	Reason     string
}

func (f *Failure) String() string {
	if f == nil {
		return "unsatisfied"
	}
	if f.ParamIndex >= 0 {
		return fmt.Sprintf("parameter %d: %s", f.ParamIndex, f.Reason)
	}
	return f.Reason
}

func satisfied(closed *typedesc.Descriptor) Result {
	return Result{Satisfied: true, Closed: closed}
}

func unsatisfied(format string, args ...any) Result {
	return Result{Failure: &Failure{ParamIndex: -1, Reason: fmt.Sprintf(format, args...)}}
}

func unsatisfiedParam(index int, c *typedesc.Constraint, format string, args ...any) Result {
	return Result{Failure: &Failure{ParamIndex: index, Constraint: c, Reason: fmt.Sprintf(format, args...)}}
}
