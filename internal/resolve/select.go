package resolve

import (
	"fmt"

	"github.com/typeforge/genbind/internal/typedesc"
)

// Candidate is one registered implementation: a type descriptor to
// construct, or a pre-built instance that resolution passes through
// untouched.
type Candidate struct {
	Type     *typedesc.Descriptor
	Instance any
}

// IsInstance reports whether the candidate is a pre-built value rather than
// a type to construct.
func (c Candidate) IsInstance() bool { return c.Type == nil }

func (c Candidate) String() string {
	if c.IsInstance() {
		return fmt.Sprintf("instance(%v)", c.Instance)
	}
	return c.Type.String()
}

// SelectClosed maps Unify over candidates for the requested closed service
// type. Pre-built instances always pass through unchanged; type candidates
// are replaced by their closed form when satisfied and dropped otherwise.
// The output preserves input order.
func SelectClosed(requested *typedesc.Descriptor, candidates []Candidate, includeVariantMatches bool) ([]Candidate, error) {
	out := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		if c.IsInstance() {
			out = append(out, c)
			continue
		}
		res, err := Unify(requested, c.Type, includeVariantMatches)
		if err != nil {
			return nil, fmt.Errorf("candidate %d for %s: %w", i, requested, err)
		}
		if res.Satisfied {
			out = append(out, Candidate{Type: res.Closed})
		}
	}
	return out, nil
}
