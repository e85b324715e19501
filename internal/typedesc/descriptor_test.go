package typedesc

import (
	"errors"
	"testing"
)

func intType() *Descriptor { return &Descriptor{Name: "Int", Kind: KValue} }
func strType() *Descriptor { return &Descriptor{Name: "String", Kind: KClass} }

func repoDef() *Descriptor {
	return &Descriptor{
		Name:   "Repository",
		Kind:   KInterface,
		Params: []Param{{Index: 0, Name: "T"}},
	}
}

func mustInst(t *testing.T, def *Descriptor, args ...*Descriptor) *Descriptor {
	t.Helper()
	d, err := Instantiate(def, args...)
	if err != nil {
		t.Fatalf("Instantiate(%s) error: %v", def, err)
	}
	return d
}

func TestInstantiate(t *testing.T) {
	repo := repoDef()

	closed := mustInst(t, repo, intType())
	if !closed.IsInstantiation() {
		t.Errorf("IsInstantiation() = false, want true")
	}
	if !closed.IsClosed() {
		t.Errorf("IsClosed() = false, want true")
	}
	if got := closed.String(); got != "Repository<Int>" {
		t.Errorf("String() = %s, want Repository<Int>", got)
	}

	if _, err := Instantiate(repo, intType(), strType()); err == nil {
		t.Errorf("Instantiate with 2 args: want arity error")
	} else {
		var arity *ArityError
		if !errors.As(err, &arity) {
			t.Errorf("Instantiate with 2 args: error = %v, want *ArityError", err)
		}
	}

	if _, err := Instantiate(intType(), strType()); err == nil {
		t.Errorf("Instantiate of non-generic: want error")
	}
	if _, err := Instantiate(repo, nil); err == nil {
		t.Errorf("Instantiate with nil arg: want error")
	}
}

func TestIsClosed(t *testing.T) {
	repo := repoDef()
	pair := &Descriptor{
		Name:   "Pair",
		Kind:   KClass,
		Params: []Param{{Index: 0, Name: "A"}, {Index: 1, Name: "B"}},
	}

	tests := []struct {
		name string
		typ  *Descriptor
		want bool
	}{
		{"plain value type", intType(), true},
		{"parameter reference", NewTypeParam(0, "T"), false},
		{"open definition", repo, false},
		{"closed instantiation", mustInst(t, repo, intType()), true},
		{"open instantiation", mustInst(t, repo, NewTypeParam(0, "T")), false},
		{"nested closed", mustInst(t, repo, mustInst(t, pair, intType(), strType())), true},
		{"nested open", mustInst(t, repo, mustInst(t, pair, intType(), NewTypeParam(1, "B"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsClosed(); got != tt.want {
				t.Errorf("IsClosed(%s) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestGenericDefinition(t *testing.T) {
	repo := repoDef()
	closed := mustInst(t, repo, intType())

	def, err := closed.GenericDefinition()
	if err != nil {
		t.Fatalf("GenericDefinition() error: %v", err)
	}
	if !def.Equal(repo) {
		t.Errorf("GenericDefinition() = %s, want %s", def, repo)
	}

	self, err := repo.GenericDefinition()
	if err != nil {
		t.Fatalf("GenericDefinition() on definition error: %v", err)
	}
	if self != repo {
		t.Errorf("definition should return itself")
	}

	if _, err := intType().GenericDefinition(); err == nil {
		t.Errorf("GenericDefinition() on Int: want error")
	} else {
		var ng *NotGenericError
		if !errors.As(err, &ng) {
			t.Errorf("error = %v, want *NotGenericError", err)
		}
	}
}

func TestEqual(t *testing.T) {
	repo := repoDef()
	repo2 := repoDef()
	pair := &Descriptor{
		Name:   "Pair",
		Kind:   KClass,
		Params: []Param{{Index: 0, Name: "A"}, {Index: 1, Name: "B"}},
	}

	tests := []struct {
		name string
		a, b *Descriptor
		want bool
	}{
		{"same plain type", intType(), intType(), true},
		{"different names", intType(), strType(), false},
		{"same definition, separate values", repo, repo2, true},
		{"definition vs same-name plain", repo, &Descriptor{Name: "Repository", Kind: KInterface}, false},
		{"params compare by position", NewTypeParam(0, "T"), NewTypeParam(0, "U"), true},
		{"params at different positions", NewTypeParam(0, "T"), NewTypeParam(1, "T"), false},
		{"param vs plain", NewTypeParam(0, "T"), intType(), false},
		{"equal instantiations", mustInst(t, repo, intType()), mustInst(t, repo2, intType()), true},
		{"different arguments", mustInst(t, repo, intType()), mustInst(t, repo, strType()), false},
		{"different definitions", mustInst(t, repo, intType()), mustInst(t, pair, intType(), intType()), false},
		{"instantiation vs definition", mustInst(t, repo, intType()), repo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestTypeArgumentsCopy(t *testing.T) {
	closed := mustInst(t, repoDef(), intType())
	args := closed.TypeArguments()
	if len(args) != 1 {
		t.Fatalf("TypeArguments() len = %d, want 1", len(args))
	}
	args[0] = strType()
	if !closed.Args[0].Equal(intType()) {
		t.Errorf("mutating the returned slice must not touch the descriptor")
	}
}
