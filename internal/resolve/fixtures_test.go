package resolve

import "github.com/typeforge/genbind/internal/typedesc"

// The tests share a small synthetic type graph:
//
//	Base <- Derived                        classes
//	IFoo<T>            invariant           Impl<A> : IFoo<A>
//	ISource<out T>     covariant
//	IHandler<in T>     contravariant       HandlerImpl : IHandler<Base>
//	IComparable<T>                         Int : IComparable<Int>, Double : IComparable<Double>
//	                                       Thing : IComparable<Int>, IComparable<Double>
//	Repository<T> : IReadable<T>           MemoryRepository<T> : Repository<T>
type universe struct {
	Int, Double, Str      *typedesc.Descriptor
	Base, Derived         *typedesc.Descriptor
	IFoo, Impl            *typedesc.Descriptor
	ISource               *typedesc.Descriptor
	IHandler, HandlerImpl *typedesc.Descriptor
	IComparable, Thing    *typedesc.Descriptor
	IReadable, Repository *typedesc.Descriptor
	MemRepo               *typedesc.Descriptor
}

func value(name string) *typedesc.Descriptor {
	return &typedesc.Descriptor{Name: name, Kind: typedesc.KValue}
}

func class(name string) *typedesc.Descriptor {
	return &typedesc.Descriptor{Name: name, Kind: typedesc.KClass}
}

func iface(name string, params ...typedesc.Param) *typedesc.Descriptor {
	return &typedesc.Descriptor{Name: name, Kind: typedesc.KInterface, Params: params}
}

func classDef(name string, params ...typedesc.Param) *typedesc.Descriptor {
	return &typedesc.Descriptor{Name: name, Kind: typedesc.KClass, Params: params}
}

func p(i int, name string) typedesc.Param {
	return typedesc.Param{Index: i, Name: name}
}

func pv(i int, name string, v typedesc.Variance) typedesc.Param {
	return typedesc.Param{Index: i, Name: name, Variance: v}
}

func ref(i int, name string) *typedesc.Descriptor {
	return typedesc.NewTypeParam(i, name)
}

func apply(def *typedesc.Descriptor, args ...*typedesc.Descriptor) *typedesc.Descriptor {
	d, err := typedesc.Instantiate(def, args...)
	if err != nil {
		panic(err)
	}
	return d
}

func newUniverse() *universe {
	u := &universe{}

	u.Int = value("Int")
	u.Double = value("Double")
	u.Str = class("String")

	u.Base = class("Base")
	u.Derived = class("Derived")
	u.Derived.Base = u.Base

	u.IComparable = iface("IComparable", p(0, "T"))
	u.Int.Interfaces = []*typedesc.Descriptor{apply(u.IComparable, u.Int)}
	u.Double.Interfaces = []*typedesc.Descriptor{apply(u.IComparable, u.Double)}
	u.Thing = class("Thing")
	u.Thing.Interfaces = []*typedesc.Descriptor{
		apply(u.IComparable, u.Int),
		apply(u.IComparable, u.Double),
	}

	u.IFoo = iface("IFoo", p(0, "T"))
	u.Impl = classDef("Impl", p(0, "A"))
	u.Impl.Interfaces = []*typedesc.Descriptor{apply(u.IFoo, ref(0, "A"))}

	u.ISource = iface("ISource", pv(0, "T", typedesc.Covariant))
	u.IHandler = iface("IHandler", pv(0, "T", typedesc.Contravariant))
	u.HandlerImpl = class("HandlerImpl")
	u.HandlerImpl.Interfaces = []*typedesc.Descriptor{apply(u.IHandler, u.Base)}

	u.IReadable = iface("IReadable", p(0, "T"))
	u.Repository = iface("Repository", p(0, "T"))
	u.Repository.Interfaces = []*typedesc.Descriptor{apply(u.IReadable, ref(0, "T"))}
	u.MemRepo = classDef("MemoryRepository", p(0, "T"))
	u.MemRepo.Interfaces = []*typedesc.Descriptor{apply(u.Repository, ref(0, "T"))}

	return u
}
