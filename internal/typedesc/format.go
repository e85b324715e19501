package typedesc

import (
	"fmt"
	"strings"
)

// String renders a diagnostic name: Int, Repository<T>, Pair<Int, String>.
// Parameter references print their declared name when one is set.
func (d *Descriptor) String() string {
	switch {
	case d == nil:
		return "<nil>"
	case d.IsTypeParam():
		if d.Name != "" {
			return d.Name
		}
		return fmt.Sprintf("T%d", d.Index)
	case d.IsInstantiation():
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", d.Name, strings.Join(args, ", "))
	case d.IsDefinition():
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			if p.Name != "" {
				params[i] = p.Name
			} else {
				params[i] = fmt.Sprintf("T%d", i)
			}
		}
		return fmt.Sprintf("%s<%s>", d.Name, strings.Join(params, ", "))
	}
	return d.Name
}

// Key returns a canonical identity string used for deduplication and map
// keys. Parameter references render by position, so two references compare
// equal regardless of their display names; definitions carry their arity.
func (d *Descriptor) Key() string {
	switch {
	case d == nil:
		return "<nil>"
	case d.IsTypeParam():
		return fmt.Sprintf("#%d", d.Index)
	case d.IsInstantiation():
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = a.Key()
		}
		return fmt.Sprintf("%s/%d<%s>", d.Name, len(d.Args), strings.Join(args, ","))
	case d.IsDefinition():
		return fmt.Sprintf("%s/%d", d.Name, len(d.Params))
	}
	return d.Name
}
