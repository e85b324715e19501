package typedesc

import "fmt"

// Validate checks that d is structurally well formed and returns a typed
// error for the first defect found. Malformed descriptors are configuration
// mistakes and are rejected before any resolution runs; they are never
// reported as an unsatisfied match.
func Validate(d *Descriptor) error {
	if d == nil {
		return NewInvalidError("<nil>", "nil descriptor")
	}
	switch {
	case d.IsTypeParam():
		if d.Index < 0 {
			return NewInvalidError(d.String(), fmt.Sprintf("negative parameter position %d", d.Index))
		}
		return nil
	case d.IsInstantiation():
		return validateInstantiation(d)
	case d.IsDefinition():
		return validateDefinition(d)
	}
	if d.Abstract && d.Kind != KClass {
		return NewInvalidError(d.Name, "abstract on a non-class type")
	}
	if d.Kind == KInterface && d.Base != nil {
		return NewInvalidError(d.Name, "interface with a base type; extend through the interface list")
	}
	if d.Base != nil && d.Base.Kind == KInterface {
		return NewInvalidError(d.Name, "base type is an interface")
	}
	return nil
}

func validateInstantiation(d *Descriptor) error {
	def := d.Definition
	if !def.IsDefinition() {
		return NewNotGenericError(def.String())
	}
	if len(d.Args) != len(def.Params) {
		return NewArityError(def.Name, len(def.Params), len(d.Args))
	}
	for i, a := range d.Args {
		if a == nil {
			return NewInvalidError(d.Name, fmt.Sprintf("nil type argument at position %d", i))
		}
		if err := Validate(a); err != nil {
			return fmt.Errorf("argument %d of %s: %w", i, d.Name, err)
		}
	}
	return nil
}

func validateDefinition(d *Descriptor) error {
	if d.Abstract && d.Kind != KClass {
		return NewInvalidError(d.Name, "abstract on a non-class type")
	}
	if d.Kind == KInterface && d.Base != nil {
		return NewInvalidError(d.Name, "interface with a base type; extend through the interface list")
	}
	for i, p := range d.Params {
		if p.Index != i {
			return NewInvalidError(d.Name, fmt.Sprintf("parameter %s declared at position %d, indexed %d", p.Name, i, p.Index))
		}
		if p.Variance != Invariant && d.Kind != KInterface {
			return NewInvalidError(d.Name, fmt.Sprintf("variance on parameter %s of non-interface definition", p.Name))
		}
		for _, c := range p.Constraints {
			if err := validateConstraint(d, p, c); err != nil {
				return err
			}
		}
	}
	if d.Base != nil {
		if d.Base.Kind == KInterface {
			return NewInvalidError(d.Name, "base type is an interface")
		}
		if err := checkParamRange(d, d.Base); err != nil {
			return err
		}
	}
	for _, iface := range d.Interfaces {
		if iface == nil {
			return NewInvalidError(d.Name, "nil interface entry")
		}
		if err := checkParamRange(d, iface); err != nil {
			return err
		}
	}
	return nil
}

func validateConstraint(d *Descriptor, p Param, c Constraint) error {
	if c.Kind == AssignableTo {
		if c.Target == nil {
			return NewInvalidError(d.Name, fmt.Sprintf("assignability constraint on %s has no target", p.Name))
		}
		return checkParamRange(d, c.Target)
	}
	if c.Target != nil {
		return NewInvalidError(d.Name, fmt.Sprintf("constraint on %s carries an unexpected target type", p.Name))
	}
	return nil
}

// checkParamRange rejects parameter references that name a position the
// definition does not declare.
func checkParamRange(def, t *Descriptor) error {
	for _, idx := range ParamIndices(t) {
		if idx < 0 || idx >= len(def.Params) {
			return NewInvalidError(def.Name, fmt.Sprintf("%s references undeclared parameter position %d", t, idx))
		}
	}
	return nil
}
