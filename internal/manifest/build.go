package manifest

import (
	"fmt"

	"github.com/typeforge/genbind/internal/typedesc"
	"github.com/typeforge/genbind/internal/typeexpr"
)

// Universe is a built manifest: descriptors by name plus the declared
// service registrations. It is immutable after Build.
type Universe struct {
	names []string
	types map[string]*typedesc.Descriptor
	regs  []ServiceRegistration
}

// ServiceRegistration pairs a service type with its candidate
// implementations, in registration order.
type ServiceRegistration struct {
	Service *typedesc.Descriptor
	Types   []*typedesc.Descriptor
}

// Build resolves every type reference in the manifest and returns the
// resulting universe. Undeclared names, wrong arities, and malformed
// declarations are reported with the position they come from.
func (f *File) Build() (*Universe, error) {
	// Parse already validated files loaded from disk; hand-built File
	// values go through the same checks here.
	if err := f.validate("manifest"); err != nil {
		return nil, err
	}

	b := &builder{types: make(map[string]*typedesc.Descriptor, len(f.Types))}

	// First pass: allocate one descriptor per declaration so references
	// can point at types declared later, or at the declaring type itself.
	for _, t := range f.Types {
		d := &typedesc.Descriptor{
			Name:     t.Name,
			Kind:     kindOf(t.Kind),
			Abstract: t.Abstract,
		}
		for i, p := range t.Params {
			d.Params = append(d.Params, typedesc.Param{
				Index:    i,
				Name:     p.Name,
				Variance: varianceOf(p.Variance),
			})
		}
		b.types[t.Name] = d
	}

	// Second pass: resolve bases, interfaces, and constraint targets.
	// Mutating the shared descriptors keeps cyclic references intact,
	// such as a value type implementing Comparable of itself.
	for i, t := range f.Types {
		d := b.types[t.Name]
		scope := paramScope(t)

		if t.Base != "" {
			base, err := b.resolveRef(t.Base, scope, false)
			if err != nil {
				return nil, fmt.Errorf("types[%d] (%s): base: %w", i, t.Name, err)
			}
			d.Base = base
		}
		for j, ref := range t.Implements {
			iface, err := b.resolveRef(ref, scope, false)
			if err != nil {
				return nil, fmt.Errorf("types[%d] (%s): implements[%d]: %w", i, t.Name, j, err)
			}
			d.Interfaces = append(d.Interfaces, iface)
		}
		for j, p := range t.Params {
			if p.Constraints == nil {
				continue
			}
			cs, err := b.resolveConstraints(p.Constraints, scope)
			if err != nil {
				return nil, fmt.Errorf("types[%d] (%s): params[%d] (%s): %w", i, t.Name, j, p.Name, err)
			}
			d.Params[j].Constraints = cs
		}

		if err := typedesc.Validate(d); err != nil {
			return nil, fmt.Errorf("types[%d] (%s): %w", i, t.Name, err)
		}
	}

	u := &Universe{types: b.types}
	for _, t := range f.Types {
		u.names = append(u.names, t.Name)
	}

	for i, r := range f.Registrations {
		service, err := b.resolveRef(r.Service, nil, true)
		if err != nil {
			return nil, fmt.Errorf("registrations[%d]: service: %w", i, err)
		}
		reg := ServiceRegistration{Service: service}
		for j, ref := range r.Types {
			c, err := b.resolveRef(ref, nil, true)
			if err != nil {
				return nil, fmt.Errorf("registrations[%d] (%s): types[%d]: %w", i, r.Service, j, err)
			}
			reg.Types = append(reg.Types, c)
		}
		u.regs = append(u.regs, reg)
	}

	return u, nil
}

// NewUniverse builds a universe directly from descriptors, for providers
// that project types from sources other than YAML.
func NewUniverse(types []*typedesc.Descriptor) (*Universe, error) {
	u := &Universe{types: make(map[string]*typedesc.Descriptor, len(types))}
	for _, t := range types {
		if err := typedesc.Validate(t); err != nil {
			return nil, err
		}
		if _, ok := u.types[t.Name]; ok {
			return nil, fmt.Errorf("duplicate type %s", t.Name)
		}
		u.names = append(u.names, t.Name)
		u.types[t.Name] = t
	}
	return u, nil
}

// Lookup returns the descriptor declared under name.
func (u *Universe) Lookup(name string) (*typedesc.Descriptor, bool) {
	d, ok := u.types[name]
	return d, ok
}

// Names returns the declared type names in declaration order.
func (u *Universe) Names() []string {
	out := make([]string, len(u.names))
	copy(out, u.names)
	return out
}

// Registrations returns the declared service registrations in order.
func (u *Universe) Registrations() []ServiceRegistration {
	out := make([]ServiceRegistration, len(u.regs))
	copy(out, u.regs)
	return out
}

// Resolve parses expr and maps it onto the universe's descriptors.
// Bare generic names resolve to their open definitions.
func (u *Universe) Resolve(expr string) (*typedesc.Descriptor, error) {
	e, err := typeexpr.Parse(expr)
	if err != nil {
		return nil, err
	}
	b := &builder{types: u.types}
	return b.resolveExpr(e, nil, true)
}

type builder struct {
	types map[string]*typedesc.Descriptor
}

// resolveRef parses a type reference and maps it onto descriptors. scope
// maps the declaring type's parameter names to their positions. A bare
// generic name resolves to the open definition only when allowOpen is
// set; hierarchy and constraint positions must bind every parameter.
func (b *builder) resolveRef(ref string, scope map[string]int, allowOpen bool) (*typedesc.Descriptor, error) {
	e, err := typeexpr.Parse(ref)
	if err != nil {
		return nil, err
	}
	return b.resolveExpr(e, scope, allowOpen)
}

func (b *builder) resolveExpr(e *typeexpr.Expr, scope map[string]int, allowOpen bool) (*typedesc.Descriptor, error) {
	if idx, ok := scope[e.Name]; ok {
		if len(e.Args) > 0 {
			return nil, fmt.Errorf("parameter %s cannot take type arguments", e.Name)
		}
		return typedesc.NewTypeParam(idx, e.Name), nil
	}

	d, ok := b.types[e.Name]
	if !ok {
		return nil, fmt.Errorf("undeclared type %s", e.Name)
	}

	if len(e.Args) == 0 {
		if len(d.Params) > 0 && !allowOpen {
			return nil, typedesc.NewArityError(d.Name, len(d.Params), 0)
		}
		return d, nil
	}

	args := make([]*typedesc.Descriptor, len(e.Args))
	for i, a := range e.Args {
		arg, err := b.resolveExpr(a, scope, allowOpen)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return typedesc.Instantiate(d, args...)
}

func (b *builder) resolveConstraints(c *ConstraintDecl, scope map[string]int) ([]typedesc.Constraint, error) {
	var cs []typedesc.Constraint
	if c.Reference {
		cs = append(cs, typedesc.Constraint{Kind: typedesc.RefType})
	}
	if c.Value {
		cs = append(cs, typedesc.Constraint{Kind: typedesc.ValType})
	}
	if c.New {
		cs = append(cs, typedesc.Constraint{Kind: typedesc.HasNew})
	}
	for _, ref := range c.Implements {
		target, err := b.resolveRef(ref, scope, false)
		if err != nil {
			return nil, fmt.Errorf("implements %s: %w", ref, err)
		}
		cs = append(cs, typedesc.Constraint{Kind: typedesc.AssignableTo, Target: target})
	}
	return cs, nil
}

func paramScope(t TypeDecl) map[string]int {
	if len(t.Params) == 0 {
		return nil
	}
	scope := make(map[string]int, len(t.Params))
	for i, p := range t.Params {
		scope[p.Name] = i
	}
	return scope
}

func kindOf(s string) typedesc.Kind {
	switch s {
	case "interface":
		return typedesc.KInterface
	case "value":
		return typedesc.KValue
	default:
		return typedesc.KClass
	}
}

func varianceOf(s string) typedesc.Variance {
	switch s {
	case "covariant", "out":
		return typedesc.Covariant
	case "contravariant", "in":
		return typedesc.Contravariant
	default:
		return typedesc.Invariant
	}
}
