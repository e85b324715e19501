package typedesc

// Apply returns t with every reachable parameter reference replaced by the
// argument at its position. A nil entry in args leaves that position in
// place, so partial substitutions stay open. t is never mutated; subtrees
// without parameter references are shared with the input.
//
// Apply recurses through instantiation arguments only. Base types and
// interface lists belong to definitions and are substituted by the caller
// when it walks the hierarchy.
func Apply(t *Descriptor, args []*Descriptor) *Descriptor {
	if t == nil || len(args) == 0 {
		return t
	}
	switch {
	case t.IsTypeParam():
		if t.Index >= 0 && t.Index < len(args) && args[t.Index] != nil {
			return args[t.Index]
		}
		return t
	case t.IsInstantiation():
		changed := false
		newArgs := make([]*Descriptor, len(t.Args))
		for i, a := range t.Args {
			newArgs[i] = Apply(a, args)
			if newArgs[i] != a {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &Descriptor{Name: t.Name, Kind: t.Kind, Abstract: t.Abstract, Definition: t.Definition, Args: newArgs}
	}
	return t
}

// ParamIndices returns the distinct parameter positions referenced by t,
// in first-encountered order.
func ParamIndices(t *Descriptor) []int {
	var out []int
	seen := make(map[int]bool)
	var walk func(*Descriptor)
	walk = func(d *Descriptor) {
		if d == nil {
			return
		}
		if d.IsTypeParam() {
			if !seen[d.Index] {
				seen[d.Index] = true
				out = append(out, d.Index)
			}
			return
		}
		for _, a := range d.Args {
			walk(a)
		}
	}
	walk(t)
	return out
}
