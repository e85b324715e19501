// Package registry keeps ordered service registrations and resolves them
// into collections of closed types and pre-built instances.
//
// The registry is the stateful collaborator around the pure resolution
// engine: it groups registrations by service definition, memoizes resolved
// collections, and validates what a resolution produced before handing it
// out. Engine calls themselves need no coordination.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/typeforge/genbind/internal/resolve"
	"github.com/typeforge/genbind/internal/typedesc"
)

// Registration is a read-only snapshot of one registry entry.
type Registration struct {
	// ID identifies the entry in diagnostics.
	ID string

	// Service is the type the entry was registered under. Open generic
	// definitions serve every closed form of the definition.
	Service *typedesc.Descriptor

	// Type is the candidate implementation type, nil for instance entries.
	Type *typedesc.Descriptor

	// Instance is the pre-built value of an instance entry.
	Instance any
}

// Resolved is one element of a produced collection: either a closed type
// the caller would construct, or a pre-built instance.
type Resolved struct {
	// Registration is the ID of the entry that produced this element.
	Registration string

	// Type is the closed constructible type, nil for instances.
	Type *typedesc.Descriptor

	// Instance is the pre-built value, possibly an AdaptedInstance.
	Instance any
}

// AdaptedInstance wraps a pre-built value that passed through a variant
// match, keeping both the service it was requested as and the service it
// was declared under.
type AdaptedInstance struct {
	Requested *typedesc.Descriptor
	Declared  *typedesc.Descriptor
	Value     any
}

func (a AdaptedInstance) String() string {
	return fmt.Sprintf("%v adapted %s to %s", a.Value, a.Declared, a.Requested)
}

type entry struct {
	id       string
	service  *typedesc.Descriptor
	typ      *typedesc.Descriptor
	instance any
}

// Registry holds ordered service registrations. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	entries []entry

	// service group key → indices into entries, in registration order
	groups map[string][]int

	// requested key + variant flag → resolved collection
	memo   map[string][]Resolved
	hits   int
	misses int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		groups: make(map[string][]int),
		memo:   make(map[string][]Resolved),
	}
}

// Register adds a type candidate for a service. The service may be a
// closed type or an open generic definition; the candidate may be open
// and is closed against each request during resolution.
// Returns the registration ID.
func (r *Registry) Register(service, candidate *typedesc.Descriptor) (string, error) {
	if err := checkService(service); err != nil {
		return "", err
	}
	if err := typedesc.Validate(candidate); err != nil {
		return "", fmt.Errorf("candidate for %s: %w", service, err)
	}
	if candidate.IsTypeParam() {
		return "", typedesc.NewInvalidError(candidate.String(), "parameter reference registered as a candidate")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(entry{id: uuid.NewString(), service: service, typ: candidate}), nil
}

// RegisterInstance adds a pre-built value under its declared closed
// service type. Returns the registration ID. A nil value is accepted
// here and reported when a resolution produces it.
func (r *Registry) RegisterInstance(service *typedesc.Descriptor, value any) (string, error) {
	if err := checkService(service); err != nil {
		return "", err
	}
	if !service.IsClosed() {
		return "", typedesc.NewInvalidError(service.String(), "instance declared under an open service type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(entry{id: uuid.NewString(), service: service, instance: value}), nil
}

// add appends an entry and drops memoized results (must hold mu).
func (r *Registry) add(e entry) string {
	idx := len(r.entries)
	r.entries = append(r.entries, e)
	key := groupKey(e.service)
	r.groups[key] = append(r.groups[key], idx)
	r.memo = make(map[string][]Resolved)
	return e.id
}

// Registrations returns a snapshot of all entries in registration order.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration, len(r.entries))
	for i, e := range r.entries {
		out[i] = Registration{ID: e.id, Service: e.service, Type: e.typ, Instance: e.instance}
	}
	return out
}

// Stats reports how many ResolveAll calls were answered from the memo
// and how many had to run the engine.
func (r *Registry) Stats() (hits, misses int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hits, r.misses
}

// ResolveAll resolves the requested closed service type into the ordered
// collection its registrations produce. Type candidates run through the
// engine and appear as closed types; instance entries pass through,
// wrapped in AdaptedInstance when a variant match widened them. The
// produced collection is validated before it is returned: a nil element
// is a configuration error, not a value the caller should see.
func (r *Registry) ResolveAll(requested *typedesc.Descriptor, includeVariant bool) ([]Resolved, error) {
	if err := typedesc.Validate(requested); err != nil {
		return nil, fmt.Errorf("requested service: %w", err)
	}
	if !requested.IsClosed() {
		return nil, typedesc.NewInvalidError(requested.String(), "requested service type is not closed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoKey(requested, includeVariant)
	if cached, ok := r.memo[key]; ok {
		r.hits++
		return snapshot(cached), nil
	}
	r.misses++

	out, err := r.resolveLocked(requested, includeVariant)
	if err != nil {
		return nil, err
	}
	if err := validateCollection(requested, out); err != nil {
		return nil, err
	}
	r.memo[key] = out
	return snapshot(out), nil
}

// resolveLocked walks the request's registration group in order and
// produces the collection (must hold mu).
func (r *Registry) resolveLocked(requested *typedesc.Descriptor, includeVariant bool) ([]Resolved, error) {
	out := []Resolved{}
	for _, idx := range r.groups[groupKey(requested)] {
		e := r.entries[idx]

		exact := e.service.Equal(requested)
		open := e.service.IsDefinition()
		variant := false
		if !exact && !open && includeVariant {
			variant = resolve.AssignableTo(e.service, requested)
		}
		if !exact && !open && !variant {
			continue
		}

		if e.typ == nil {
			value := e.instance
			if variant {
				value = AdaptedInstance{Requested: requested, Declared: e.service, Value: value}
			}
			out = append(out, Resolved{Registration: e.id, Instance: value})
			continue
		}

		res, err := resolve.Unify(requested, e.typ, includeVariant)
		if err != nil {
			return nil, fmt.Errorf("registration %s (%s): %w", e.id, e.typ, err)
		}
		if res.Satisfied {
			out = append(out, Resolved{Registration: e.id, Type: res.Closed})
		}
	}
	return out, nil
}

// checkService rejects descriptors that cannot name a service.
func checkService(service *typedesc.Descriptor) error {
	if err := typedesc.Validate(service); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if service.IsTypeParam() {
		return typedesc.NewInvalidError(service.String(), "parameter reference registered as a service")
	}
	return nil
}

// groupKey collapses a service type onto its definition so closed, open,
// and variant registrations of one definition share a group.
func groupKey(service *typedesc.Descriptor) string {
	if service.IsInstantiation() {
		return service.Definition.Key()
	}
	return service.Key()
}

func memoKey(requested *typedesc.Descriptor, includeVariant bool) string {
	if includeVariant {
		return requested.Key() + "+variant"
	}
	return requested.Key()
}

func snapshot(in []Resolved) []Resolved {
	out := make([]Resolved, len(in))
	copy(out, in)
	return out
}
