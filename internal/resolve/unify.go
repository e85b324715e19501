package resolve

import (
	"fmt"

	"github.com/typeforge/genbind/internal/typedesc"
)

// binding maps a definition's parameter positions to the concrete types
// chosen during one unification attempt. A nil entry is unbound. Each
// attempt works on its own binding; a position observed with two different
// types fails the attempt rather than rebinding.
type binding []*typedesc.Descriptor

// Unify decides whether candidate can satisfy a request for the closed
// service type requested.
//
// A closed candidate satisfies the request when the requested type appears
// among its flattened bases and interfaces (itself included), or, when
// allowVariant is set, when one of those members variant-matches the
// request. An open candidate is unified member by member: every flattened
// member sharing the requested type's generic definition is tried in
// flatten order, its arguments unified position by position against the
// requested arguments, binding free parameters as they are encountered. The
// first member whose bindings can be completed and pass every declared
// constraint closes the candidate. When no member binds and allowVariant is
// set, a variant-matching member reports the candidate verbatim, not
// re-closed.
//
// Unsatisfiable candidates are an expected outcome and produce an
// Unsatisfied Result. The error return is reserved for malformed input:
// a nil or open request, or a candidate violating descriptor invariants.
func Unify(requested, candidate *typedesc.Descriptor, allowVariant bool) (Result, error) {
	if err := typedesc.Validate(requested); err != nil {
		return Result{}, fmt.Errorf("requested service: %w", err)
	}
	if !requested.IsClosed() {
		return Result{}, typedesc.NewInvalidError(requested.String(), "requested service type is open")
	}
	if err := typedesc.Validate(candidate); err != nil {
		return Result{}, fmt.Errorf("candidate: %w", err)
	}
	if candidate.IsTypeParam() {
		return Result{}, typedesc.NewInvalidError(candidate.String(), "candidate is a bare type parameter")
	}
	if candidate.IsClosed() {
		return unifyClosed(requested, candidate, allowVariant), nil
	}
	return unifyOpen(requested, candidate, allowVariant), nil
}

func unifyClosed(requested, candidate *typedesc.Descriptor, allowVariant bool) Result {
	members := AncestorsAndSelf(candidate)
	for _, m := range members {
		if m.Equal(requested) {
			return satisfied(candidate)
		}
	}
	if allowVariant {
		for _, m := range members {
			if m.IsInstantiation() && requested.IsInstantiation() &&
				m.Definition.Equal(requested.Definition) && VariantMatch(requested, m) {
				return satisfied(candidate)
			}
		}
	}
	return unsatisfied("%s does not satisfy %s", candidate, requested)
}

func unifyOpen(requested, candidate *typedesc.Descriptor, allowVariant bool) Result {
	def, slots := slotsOf(candidate)
	members := AncestorsAndSelf(candidate)

	var reqDef *typedesc.Descriptor
	if requested.IsGeneric() {
		reqDef, _ = requested.GenericDefinition()
	}

	var firstFailure *Failure
	for _, m := range members {
		if !targetsRequest(m, requested, reqDef) {
			continue
		}
		b := make(binding, len(def.Params))
		f := bindMember(b, m, requested)
		if f == nil {
			var closed *typedesc.Descriptor
			closed, f = completeAndVerify(def, slots, b)
			if f == nil {
				return satisfied(closed)
			}
		}
		if firstFailure == nil {
			firstFailure = f
		}
	}

	if allowVariant && reqDef != nil {
		for _, m := range members {
			if m.IsInstantiation() && m.Definition.Equal(reqDef) && VariantMatch(requested, m) {
				return satisfied(candidate)
			}
		}
	}

	if firstFailure != nil {
		return Result{Failure: firstFailure}
	}
	return unsatisfied("%s has no member matching %s", candidate, requested)
}

// targetsRequest selects the flattened members a request is unified
// against: those sharing the requested type's generic definition, or, for a
// non-generic request, the member equal to it.
func targetsRequest(m, requested, reqDef *typedesc.Descriptor) bool {
	if reqDef == nil {
		return m.Equal(requested)
	}
	if m.IsInstantiation() {
		return m.Definition.Equal(reqDef)
	}
	return m.IsDefinition() && m.Equal(reqDef)
}

// bindMember unifies member's arguments against the requested ones,
// recording parameter bindings in b.
func bindMember(b binding, member, requested *typedesc.Descriptor) *Failure {
	margs := argsOf(member)
	rargs := requested.Args
	if len(margs) != len(rargs) {
		return &Failure{ParamIndex: -1, Reason: fmt.Sprintf("%s and %s differ in arity", member, requested)}
	}
	for i := range margs {
		if f := bindArg(b, margs[i], rargs[i]); f != nil {
			return f
		}
	}
	return nil
}

func bindArg(b binding, cArg, rArg *typedesc.Descriptor) *Failure {
	switch {
	case cArg.IsTypeParam():
		idx := cArg.Index
		if idx < 0 || idx >= len(b) {
			return &Failure{ParamIndex: idx, Reason: fmt.Sprintf("parameter %s is not declared by the candidate", cArg)}
		}
		if b[idx] == nil {
			b[idx] = rArg
			return nil
		}
		if !b[idx].Equal(rArg) {
			return &Failure{ParamIndex: idx, Reason: fmt.Sprintf("parameter %s bound to both %s and %s", cArg, b[idx], rArg)}
		}
		return nil
	case cArg.IsInstantiation() && rArg.IsInstantiation() && cArg.Definition.Equal(rArg.Definition):
		for i := range cArg.Args {
			if f := bindArg(b, cArg.Args[i], rArg.Args[i]); f != nil {
				return f
			}
		}
		return nil
	default:
		if !cArg.Equal(rArg) {
			return &Failure{ParamIndex: -1, Reason: fmt.Sprintf("argument %s does not match %s", cArg, rArg)}
		}
		return nil
	}
}

// completeAndVerify pins parameters the member match left unbound from
// their own constraints, verifies every declared constraint with the full
// binding substituted into constraint targets, and closes the candidate's
// own argument slots.
func completeAndVerify(def *typedesc.Descriptor, slots []*typedesc.Descriptor, b binding) (*typedesc.Descriptor, *Failure) {
	var free []int
	seen := make(map[int]bool)
	for _, s := range slots {
		for _, idx := range typedesc.ParamIndices(s) {
			if !seen[idx] {
				seen[idx] = true
				free = append(free, idx)
			}
		}
	}

	// A constraint target can mention other parameters, so pinning one
	// parameter may close another's target. Iterate to a fixpoint.
	for progress := true; progress; {
		progress = false
		for _, idx := range free {
			if b[idx] != nil {
				continue
			}
			if pin := pinFromConstraints(def.Params[idx], b); pin != nil {
				b[idx] = pin
				progress = true
			}
		}
	}
	for _, idx := range free {
		if b[idx] == nil {
			return nil, &Failure{ParamIndex: idx, Reason: fmt.Sprintf("parameter %s cannot be determined from the request or its constraints", def.Params[idx].Name)}
		}
	}

	args := make([]*typedesc.Descriptor, len(slots))
	for i, s := range slots {
		args[i] = typedesc.Apply(s, b)
	}
	for i, p := range def.Params {
		if f := checkConstraints(p, args[i], args); f != nil {
			return nil, f
		}
	}

	closed, err := typedesc.Instantiate(def, args...)
	if err != nil {
		return nil, &Failure{ParamIndex: -1, Reason: err.Error()}
	}
	if !closed.IsClosed() {
		return nil, &Failure{ParamIndex: -1, Reason: fmt.Sprintf("%s is not fully closed", closed)}
	}
	return closed, nil
}

// pinFromConstraints picks the only safe witness for an unbound parameter:
// the first assignability target that is itself closed once the current
// bindings are substituted in. A type always satisfies assignability to
// itself, so the target can stand for the parameter; remaining constraints
// are still verified afterwards.
func pinFromConstraints(p typedesc.Param, b binding) *typedesc.Descriptor {
	for _, c := range p.Constraints {
		if c.Kind != typedesc.AssignableTo {
			continue
		}
		if t := typedesc.Apply(c.Target, b); t.IsClosed() {
			return t
		}
	}
	return nil
}

func checkConstraints(p typedesc.Param, bound *typedesc.Descriptor, subst []*typedesc.Descriptor) *Failure {
	for i := range p.Constraints {
		c := &p.Constraints[i]
		switch c.Kind {
		case typedesc.RefType:
			if bound.Kind != typedesc.KClass && bound.Kind != typedesc.KInterface {
				return &Failure{ParamIndex: p.Index, Constraint: c, Reason: fmt.Sprintf("%s is not a reference type", bound)}
			}
		case typedesc.ValType:
			if bound.Kind != typedesc.KValue {
				return &Failure{ParamIndex: p.Index, Constraint: c, Reason: fmt.Sprintf("%s is not a value type", bound)}
			}
		case typedesc.HasNew:
			if bound.Kind == typedesc.KInterface || bound.Abstract {
				return &Failure{ParamIndex: p.Index, Constraint: c, Reason: fmt.Sprintf("%s has no parameterless constructor", bound)}
			}
		case typedesc.AssignableTo:
			target := typedesc.Apply(c.Target, subst)
			if !target.IsClosed() {
				return &Failure{ParamIndex: p.Index, Constraint: c, Reason: fmt.Sprintf("constraint target %s cannot be resolved", target)}
			}
			if !AssignableTo(bound, target) {
				return &Failure{ParamIndex: p.Index, Constraint: c, Reason: fmt.Sprintf("%s is not assignable to %s", bound, target)}
			}
		}
	}
	return nil
}

// slotsOf returns the definition a candidate closes over and the candidate's
// own argument slots: an open definition is its own slots (one free
// parameter per position), a partially bound instantiation keeps its
// declared arguments.
func slotsOf(c *typedesc.Descriptor) (*typedesc.Descriptor, []*typedesc.Descriptor) {
	if c.IsInstantiation() {
		return c.Definition, c.Args
	}
	return c, paramRefs(c)
}

func argsOf(m *typedesc.Descriptor) []*typedesc.Descriptor {
	if m.IsInstantiation() {
		return m.Args
	}
	if m.IsDefinition() {
		return paramRefs(m)
	}
	return nil
}

func paramRefs(def *typedesc.Descriptor) []*typedesc.Descriptor {
	refs := make([]*typedesc.Descriptor, len(def.Params))
	for i, p := range def.Params {
		refs[i] = typedesc.NewTypeParam(i, p.Name)
	}
	return refs
}
