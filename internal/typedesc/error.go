package typedesc

import "fmt"

// NotGenericError indicates a generic-only operation was applied to a
// descriptor that is neither a definition nor an instantiation.
type NotGenericError struct {
	Name string
}

func (e *NotGenericError) Error() string {
	return fmt.Sprintf("type is not generic: %s", e.Name)
}

func NewNotGenericError(name string) *NotGenericError {
	return &NotGenericError{Name: name}
}

// ArityError indicates an instantiation with the wrong number of type arguments.
type ArityError struct {
	Name string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of type arguments for %s: got %d, want %d", e.Name, e.Got, e.Want)
}

func NewArityError(name string, want, got int) *ArityError {
	return &ArityError{Name: name, Want: want, Got: got}
}

// InvalidError indicates a structurally malformed descriptor.
type InvalidError struct {
	Name   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid descriptor %s: %s", e.Name, e.Reason)
}

func NewInvalidError(name, reason string) *InvalidError {
	return &InvalidError{Name: name, Reason: reason}
}
