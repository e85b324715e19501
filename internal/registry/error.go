package registry

import (
	"fmt"

	"github.com/typeforge/genbind/internal/typedesc"
)

// CollectionError reports a produced collection holding an absent element.
// It names the requested service and the offending position so the broken
// registration can be found.
type CollectionError struct {
	Service      string
	Position     int
	Registration string
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection for %s: element %d (registration %s) is nil",
		e.Service, e.Position, e.Registration)
}

func NewCollectionError(service string, position int, registration string) *CollectionError {
	return &CollectionError{Service: service, Position: position, Registration: registration}
}

// validateCollection checks a produced collection for nil elements before
// it is handed out. Adapted instances are judged by their underlying value.
func validateCollection(requested *typedesc.Descriptor, out []Resolved) error {
	for i, el := range out {
		if el.Type != nil {
			continue
		}
		value := el.Instance
		if adapted, ok := value.(AdaptedInstance); ok {
			value = adapted.Value
		}
		if value == nil {
			return NewCollectionError(requested.String(), i, el.Registration)
		}
	}
	return nil
}
