package resolve

import "github.com/typeforge/genbind/internal/typedesc"

// VariantMatch reports whether candidate can stand in for requested. Both
// must be instantiations of the same definition; each argument position is
// then checked per its declared variance: invariant positions need identical
// arguments, covariant positions need the candidate's argument assignable to
// the requested one, contravariant positions the reverse. Only interface
// definitions declare non-invariant positions, so for classes this collapses
// to structural equality.
func VariantMatch(requested, candidate *typedesc.Descriptor) bool {
	if !requested.IsInstantiation() || !candidate.IsInstantiation() {
		return false
	}
	def := requested.Definition
	if !def.Equal(candidate.Definition) {
		return false
	}
	if len(requested.Args) != len(def.Params) || len(candidate.Args) != len(def.Params) {
		return false
	}
	for i, p := range def.Params {
		r, c := requested.Args[i], candidate.Args[i]
		switch p.Variance {
		case typedesc.Covariant:
			if !AssignableTo(c, r) {
				return false
			}
		case typedesc.Contravariant:
			if !AssignableTo(r, c) {
				return false
			}
		default:
			if !r.Equal(c) {
				return false
			}
		}
	}
	return true
}

// AssignableTo reports whether a value of type from can be used where to is
// expected: the types are equal, to appears among from's flattened bases and
// interfaces, or from reaches a closed generic sharing to's definition that
// variant-matches it. Open arguments never prove assignability beyond
// positional equality.
func AssignableTo(from, to *typedesc.Descriptor) bool {
	if from.Equal(to) {
		return true
	}
	if from == nil || to == nil {
		return false
	}
	if sameDefinitionVariant(from, to) {
		return true
	}
	for _, m := range Ancestors(from) {
		if m.Equal(to) || sameDefinitionVariant(m, to) {
			return true
		}
	}
	return false
}

func sameDefinitionVariant(from, to *typedesc.Descriptor) bool {
	return from.IsInstantiation() && to.IsInstantiation() &&
		from.Definition.Equal(to.Definition) && VariantMatch(to, from)
}
