// Package gosrc projects Go packages into type descriptors.
//
// The projection is a documented, partial mapping from Go's type system
// onto the descriptor model:
//
//   - exported named types become descriptors; interfaces keep interface
//     kind, basic and array underlyings keep value semantics, everything
//     else behaves as a class
//   - interfaces embedded in an interface become its direct interfaces
//   - the first embedded struct field becomes the base-type analogue;
//     interfaces embedded in a struct become direct interfaces
//   - method-set satisfaction between plain root types is discovered with
//     go/types, since Go code rarely embeds the interfaces it implements
//   - type parameters project as invariant (Go declares no variance);
//     named constraint interfaces become assignability constraints, while
//     any, comparable, and interface literals carry no constraint
//
// Predeclared basic types are seeded into every projected universe so
// requests can name them without declaring them.
package gosrc

import (
	"fmt"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/typeforge/genbind/internal/manifest"
	"github.com/typeforge/genbind/internal/typedesc"
)

var basicNames = []string{
	"bool", "string",
	"int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	"float32", "float64", "complex64", "complex128",
}

// Predeclared reports whether name is a universe entry seeded from Go's
// predeclared identifiers rather than projected from source.
func Predeclared(name string) bool {
	if name == "error" {
		return true
	}
	for _, n := range basicNames {
		if n == name {
			return true
		}
	}
	return false
}

// Inspect loads the Go packages matching patterns, rooted at dir, and
// projects their exported named types into a universe. Patterns follow
// go list syntax; with none given the package in dir itself is loaded.
func Inspect(dir string, patterns ...string) (*manifest.Universe, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	return newProjector(pkgs).universe()
}

type projector struct {
	pkgs  []*packages.Package
	roots map[*types.Package]bool

	// bare-name occurrences across roots; duplicates get qualified names
	counts map[string]int

	named  map[*types.TypeName]*typedesc.Descriptor
	basics map[string]*typedesc.Descriptor

	out []*typedesc.Descriptor
}

func newProjector(pkgs []*packages.Package) *projector {
	p := &projector{
		pkgs:   pkgs,
		roots:  make(map[*types.Package]bool),
		counts: make(map[string]int),
		named:  make(map[*types.TypeName]*typedesc.Descriptor),
		basics: make(map[string]*typedesc.Descriptor),
	}
	for _, pkg := range pkgs {
		if pkg.Types != nil {
			p.roots[pkg.Types] = true
		}
	}
	return p
}

func (p *projector) universe() (*manifest.Universe, error) {
	p.seedBasics()

	for _, pkg := range p.pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			if obj, ok := scope.Lookup(name).(*types.TypeName); ok && obj.Exported() && !obj.IsAlias() {
				p.counts[obj.Name()]++
			}
		}
	}

	var rootTypes []*types.Named
	for _, pkg := range p.pkgs {
		scope := pkg.Types.Scope()
		names := scope.Names()
		sort.Strings(names)
		for _, name := range names {
			obj, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !obj.Exported() || obj.IsAlias() {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if _, err := p.project(named); err != nil {
				return nil, fmt.Errorf("projecting %s.%s: %w", pkg.PkgPath, name, err)
			}
			rootTypes = append(rootTypes, named)
		}
	}

	p.discoverImplements(rootTypes)

	return manifest.NewUniverse(p.out)
}

func (p *projector) seedBasics() {
	for _, name := range basicNames {
		d := &typedesc.Descriptor{Name: name, Kind: typedesc.KValue}
		p.basics[name] = d
		p.out = append(p.out, d)
	}
	errType := &typedesc.Descriptor{Name: "error", Kind: typedesc.KInterface}
	p.basics["error"] = errType
	p.out = append(p.out, errType)
}

// project maps a named type onto a descriptor, allocating definitions
// once and rebuilding instantiations from their origin.
func (p *projector) project(named *types.Named) (*typedesc.Descriptor, error) {
	origin := named.Origin()
	if named != origin {
		def, err := p.project(origin)
		if err != nil {
			return nil, err
		}
		targs := named.TypeArgs()
		args := make([]*typedesc.Descriptor, 0, targs.Len())
		for i := 0; i < targs.Len(); i++ {
			arg, err := p.typeOf(targs.At(i))
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return typedesc.Instantiate(def, args...)
	}

	obj := origin.Obj()
	if obj.Pkg() == nil {
		if d, ok := p.basics[obj.Name()]; ok {
			return d, nil
		}
		return nil, fmt.Errorf("cannot project predeclared type %s", obj.Name())
	}
	if d, ok := p.named[obj]; ok {
		return d, nil
	}

	d := &typedesc.Descriptor{
		Name: p.nameFor(obj),
		Kind: kindOf(origin),
	}
	// Cache before walking the body so cyclic references terminate.
	p.named[obj] = d
	p.out = append(p.out, d)

	if tparams := origin.TypeParams(); tparams != nil {
		for i := 0; i < tparams.Len(); i++ {
			tp := tparams.At(i)
			param := typedesc.Param{Index: i, Name: tp.Obj().Name()}
			target, err := p.constraintOf(tp)
			if err != nil {
				return nil, err
			}
			if target != nil {
				param.Constraints = []typedesc.Constraint{{Kind: typedesc.AssignableTo, Target: target}}
			}
			d.Params = append(d.Params, param)
		}
	}

	switch u := origin.Underlying().(type) {
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			emb, ok := u.EmbeddedType(i).(*types.Named)
			if !ok {
				continue
			}
			if _, isIface := emb.Underlying().(*types.Interface); !isIface {
				continue
			}
			iface, err := p.project(emb)
			if err != nil {
				return nil, err
			}
			d.Interfaces = append(d.Interfaces, iface)
		}
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if !f.Embedded() {
				continue
			}
			ft := f.Type()
			if ptr, ok := ft.(*types.Pointer); ok {
				ft = ptr.Elem()
			}
			emb, ok := ft.(*types.Named)
			if !ok {
				continue
			}
			switch emb.Underlying().(type) {
			case *types.Struct:
				if d.Base == nil {
					base, err := p.project(emb)
					if err != nil {
						return nil, err
					}
					d.Base = base
				}
			case *types.Interface:
				iface, err := p.project(emb)
				if err != nil {
					return nil, err
				}
				d.Interfaces = append(d.Interfaces, iface)
			}
		}
	}

	return d, nil
}

// typeOf maps a type argument or hierarchy position onto a descriptor.
// Positions the model cannot express (slices, maps, funcs) are errors.
func (p *projector) typeOf(t types.Type) (*typedesc.Descriptor, error) {
	switch t := t.(type) {
	case *types.Named:
		return p.project(t)
	case *types.TypeParam:
		return typedesc.NewTypeParam(t.Index(), t.Obj().Name()), nil
	case *types.Basic:
		if d, ok := p.basics[t.Name()]; ok {
			return d, nil
		}
		return nil, fmt.Errorf("cannot project basic type %s", t.Name())
	case *types.Pointer:
		return p.typeOf(t.Elem())
	}
	return nil, fmt.Errorf("cannot project %s", t)
}

// constraintOf maps a type parameter's constraint onto a target
// descriptor, or nil when the constraint carries nothing enforceable.
func (p *projector) constraintOf(tp *types.TypeParam) (*typedesc.Descriptor, error) {
	c := tp.Constraint()
	if c == nil {
		return nil, nil
	}
	named, ok := c.(*types.Named)
	if !ok {
		// any, or an interface literal with no name to project
		return nil, nil
	}
	obj := named.Obj()
	if obj.Pkg() == nil {
		// comparable carries no projectable contract; error does
		if obj.Name() == "error" {
			return p.basics["error"], nil
		}
		return nil, nil
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil, nil
	}
	if iface.NumMethods() == 0 && iface.NumEmbeddeds() == 0 {
		return nil, nil
	}
	return p.project(named)
}

// discoverImplements records method-set interface satisfaction between
// plain root types. Generic types are skipped: an uninstantiated origin
// has no method set to check. Empty interfaces are skipped as noise.
func (p *projector) discoverImplements(rootTypes []*types.Named) {
	for _, impl := range rootTypes {
		if _, ok := impl.Underlying().(*types.Interface); ok {
			continue
		}
		if impl.TypeParams().Len() > 0 {
			continue
		}
		d := p.named[impl.Obj()]
		for _, in := range rootTypes {
			iface, ok := in.Underlying().(*types.Interface)
			if !ok || iface.Empty() || in.TypeParams().Len() > 0 {
				continue
			}
			if !types.Implements(impl, iface) && !types.Implements(types.NewPointer(impl), iface) {
				continue
			}
			target := p.named[in.Obj()]
			if !containsDescriptor(d.Interfaces, target) {
				d.Interfaces = append(d.Interfaces, target)
			}
		}
	}
}

// nameFor picks the universe name: the bare name when it is unique across
// the loaded roots, the package-qualified form otherwise and for every
// type referenced from outside the roots.
func (p *projector) nameFor(obj *types.TypeName) string {
	if p.roots[obj.Pkg()] && p.counts[obj.Name()] == 1 {
		return obj.Name()
	}
	return obj.Pkg().Name() + "." + obj.Name()
}

func kindOf(named *types.Named) typedesc.Kind {
	switch named.Underlying().(type) {
	case *types.Interface:
		return typedesc.KInterface
	case *types.Basic, *types.Array:
		return typedesc.KValue
	default:
		return typedesc.KClass
	}
}

func containsDescriptor(list []*typedesc.Descriptor, d *typedesc.Descriptor) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}
