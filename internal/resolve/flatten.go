package resolve

import "github.com/typeforge/genbind/internal/typedesc"

// Ancestors returns every base type and interface reachable from t, without
// t itself and without duplicates. Generic parameters of the definitions on
// the way are substituted with t's own arguments, so an open candidate's
// hierarchy is expressed in the candidate's parameter space.
//
// The order is a contract relied on for deterministic member selection:
// the base-type chain first, nearest base outward, then interfaces in
// first-encountered order (t's direct interfaces in declaration order, then
// each base's, then the interfaces those interfaces extend, breadth first).
func Ancestors(t *typedesc.Descriptor) []*typedesc.Descriptor {
	if t == nil || t.IsTypeParam() {
		return nil
	}

	var out []*typedesc.Descriptor
	seen := map[string]bool{t.Key(): true}
	add := func(d *typedesc.Descriptor) bool {
		if d == nil || seen[d.Key()] {
			return false
		}
		seen[d.Key()] = true
		out = append(out, d)
		return true
	}

	// Base chain first. The seen set also terminates the walk if a
	// malformed graph cycles through bases.
	chain := []*typedesc.Descriptor{t}
	cur := t
	for {
		def, args := definitionSpace(cur)
		base := typedesc.Apply(def.Base, args)
		if base == nil || !add(base) {
			break
		}
		chain = append(chain, base)
		cur = base
	}

	// Interfaces in first-encountered order: declared ones of t and its
	// bases seed the queue, then each interface contributes the interfaces
	// it extends.
	var queue []*typedesc.Descriptor
	for _, link := range chain {
		def, args := definitionSpace(link)
		for _, iface := range def.Interfaces {
			queue = append(queue, typedesc.Apply(iface, args))
		}
	}
	for len(queue) > 0 {
		iface := queue[0]
		queue = queue[1:]
		if !add(iface) {
			continue
		}
		def, args := definitionSpace(iface)
		for _, inherited := range def.Interfaces {
			queue = append(queue, typedesc.Apply(inherited, args))
		}
	}

	return out
}

// AncestorsAndSelf is Ancestors with t itself prepended.
func AncestorsAndSelf(t *typedesc.Descriptor) []*typedesc.Descriptor {
	if t == nil || t.IsTypeParam() {
		return nil
	}
	return append([]*typedesc.Descriptor{t}, Ancestors(t)...)
}

// definitionSpace returns the definition whose Base and Interfaces describe
// t, plus the arguments that map that definition's parameter space into t's.
// Plain types and open definitions are their own space.
func definitionSpace(t *typedesc.Descriptor) (*typedesc.Descriptor, []*typedesc.Descriptor) {
	if t.IsInstantiation() {
		return t.Definition, t.Args
	}
	return t, nil
}
