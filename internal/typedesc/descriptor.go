package typedesc

import "fmt"

// Kind classifies what a Descriptor describes: a class (reference type),
// a value type, an interface, or a reference to a generic parameter
// position. Variance is honored only on interface definitions.
type Kind int

const (
	KClass Kind = iota
	KValue
	KInterface
	KTypeParam
)

func (k Kind) String() string {
	switch k {
	case KClass:
		return "class"
	case KValue:
		return "value"
	case KInterface:
		return "interface"
	case KTypeParam:
		return "param"
	}
	return "unknown"
}

// Variance of a generic parameter position.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	}
	return "invariant"
}

// ConstraintKind classifies a parameter constraint: reference types only
// (RefType), value types only (ValType), a parameterless constructor
// (HasNew), or assignability to a target type (AssignableTo).
type ConstraintKind int

const (
	RefType ConstraintKind = iota
	ValType
	HasNew
	AssignableTo
)

// Constraint restricts which types a generic parameter accepts.
// Target is set only for AssignableTo and may mention parameters of the
// declaring definition (e.g. T: Comparable<T>).
type Constraint struct {
	Kind   ConstraintKind
	Target *Descriptor
}

// Param is one generic parameter position of a definition.
type Param struct {
	Index       int
	Name        string
	Variance    Variance
	Constraints []Constraint
}

// Descriptor is a structural description of a type. It plays three roles,
// distinguished by the predicates below:
//
//   - a plain or generic type definition (Name, Kind, Params, Base, Interfaces)
//   - a bound instantiation of a generic definition (Definition, Args)
//   - a reference to a generic parameter position (Kind == KTypeParam, Index)
//
// Descriptors are wired once (the hierarchy may be cyclic through constraint
// targets, e.g. Int implements Comparable<Int>) and are treated as immutable
// afterwards. Every operation over them builds new descriptors.
type Descriptor struct {
	Name       string
	Kind       Kind
	Abstract   bool // class without a parameterless constructor path
	Params     []Param
	Base       *Descriptor
	Interfaces []*Descriptor
	Definition *Descriptor   // non-nil for instantiations
	Args       []*Descriptor // bound arguments, parallel to Definition.Params
	Index      int           // parameter position for KTypeParam
}

// NewTypeParam returns a reference to parameter position index of the
// enclosing definition. The name is only used for display.
func NewTypeParam(index int, name string) *Descriptor {
	return &Descriptor{Name: name, Kind: KTypeParam, Index: index}
}

// Instantiate binds args to the parameter positions of def.
// def must be a generic definition and args must match its arity.
func Instantiate(def *Descriptor, args ...*Descriptor) (*Descriptor, error) {
	if def == nil || !def.IsDefinition() {
		name := "<nil>"
		if def != nil {
			name = def.Name
		}
		return nil, NewNotGenericError(name)
	}
	if len(args) != len(def.Params) {
		return nil, NewArityError(def.Name, len(def.Params), len(args))
	}
	for i, a := range args {
		if a == nil {
			return nil, NewInvalidError(def.Name, fmt.Sprintf("nil type argument at position %d", i))
		}
	}
	bound := make([]*Descriptor, len(args))
	copy(bound, args)
	return &Descriptor{Name: def.Name, Kind: def.Kind, Abstract: def.Abstract, Definition: def, Args: bound}, nil
}

// IsTypeParam reports whether d is a parameter reference.
func (d *Descriptor) IsTypeParam() bool {
	return d != nil && d.Kind == KTypeParam
}

// IsDefinition reports whether d is an open generic definition
// (it declares parameters and is not itself an instantiation).
func (d *Descriptor) IsDefinition() bool {
	return d != nil && d.Definition == nil && len(d.Params) > 0
}

// IsInstantiation reports whether d was built by binding arguments
// to a generic definition.
func (d *Descriptor) IsInstantiation() bool {
	return d != nil && d.Definition != nil
}

// IsGeneric reports whether d is a generic definition or an instantiation.
func (d *Descriptor) IsGeneric() bool {
	return d.IsDefinition() || d.IsInstantiation()
}

// IsClosed reports whether no generic parameter remains reachable through d:
// plain types are closed, parameter references and open definitions are not,
// and an instantiation is closed when every argument is.
func (d *Descriptor) IsClosed() bool {
	if d == nil {
		return false
	}
	switch {
	case d.IsTypeParam():
		return false
	case d.IsInstantiation():
		for _, a := range d.Args {
			if !a.IsClosed() {
				return false
			}
		}
		return true
	case d.IsDefinition():
		return false
	}
	return true
}

// GenericDefinition returns the definition d was built from. A definition
// returns itself. Non-generic descriptors are an error.
func (d *Descriptor) GenericDefinition() (*Descriptor, error) {
	switch {
	case d.IsInstantiation():
		return d.Definition, nil
	case d.IsDefinition():
		return d, nil
	}
	name := "<nil>"
	if d != nil {
		name = d.String()
	}
	return nil, NewNotGenericError(name)
}

// Arity returns the number of generic parameter positions of d's definition,
// or 0 for non-generic descriptors.
func (d *Descriptor) Arity() int {
	switch {
	case d == nil:
		return 0
	case d.IsInstantiation():
		return len(d.Definition.Params)
	}
	return len(d.Params)
}

// TypeArguments returns a copy of the bound arguments of an instantiation,
// or nil. Callers cannot alias the descriptor's internal state.
func (d *Descriptor) TypeArguments() []*Descriptor {
	if d == nil || len(d.Args) == 0 {
		return nil
	}
	args := make([]*Descriptor, len(d.Args))
	copy(args, d.Args)
	return args
}

// Equal is structural identity: parameter references compare by position,
// instantiations by definition plus pairwise arguments, and named types by
// name, kind and arity. It never walks Base or Interfaces, which may be
// cyclic through constraint targets.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d == o {
		return true
	}
	if d.IsTypeParam() || o.IsTypeParam() {
		return d.IsTypeParam() && o.IsTypeParam() && d.Index == o.Index
	}
	if d.IsInstantiation() || o.IsInstantiation() {
		if !d.IsInstantiation() || !o.IsInstantiation() {
			return false
		}
		if !d.Definition.Equal(o.Definition) {
			return false
		}
		if len(d.Args) != len(o.Args) {
			return false
		}
		for i := range d.Args {
			if !d.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return true
	}
	return d.Name == o.Name && d.Kind == o.Kind && len(d.Params) == len(o.Params)
}
