package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/typeforge/genbind/internal/typedesc"
)

func TestParse_ValidUniverse(t *testing.T) {
	src := `
types:
  - name: Comparable
    kind: interface
    params:
      - name: T
  - name: Int
    kind: value
    implements: ["Comparable<Int>"]
  - name: Handler
    kind: interface
    params:
      - name: T
        variance: contravariant
  - name: MemoryRepository
    kind: class
    params:
      - name: T
        constraints:
          new: true
          implements: ["Comparable<T>"]
registrations:
  - service: Comparable
    types: [Int]
`
	f, err := Parse([]byte(src), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Types) != 4 {
		t.Fatalf("expected 4 types, got %d", len(f.Types))
	}
	if f.Types[0].Kind != "interface" {
		t.Errorf("kind = %q, want interface", f.Types[0].Kind)
	}
	if f.Types[1].Implements[0] != "Comparable<Int>" {
		t.Errorf("implements = %q, want Comparable<Int>", f.Types[1].Implements[0])
	}
	if f.Types[2].Params[0].Variance != "contravariant" {
		t.Errorf("variance = %q, want contravariant", f.Types[2].Params[0].Variance)
	}
	c := f.Types[3].Params[0].Constraints
	if c == nil || !c.New {
		t.Error("expected new constraint")
	}
	if len(f.Registrations) != 1 || f.Registrations[0].Service != "Comparable" {
		t.Errorf("registrations = %+v", f.Registrations)
	}
}

func TestParse_ErrorEmpty(t *testing.T) {
	_, err := Parse(nil, "test.yaml")
	if err == nil {
		t.Fatal("expected error for empty manifest")
	}
}

func TestParse_ErrorNoTypes(t *testing.T) {
	src := `
types: []
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for empty types")
	}
}

func TestParse_ErrorUnknownField(t *testing.T) {
	src := `
types:
  - name: Int
    kind: value
    implments: ["Comparable<Int>"]
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_ErrorDuplicateType(t *testing.T) {
	src := `
types:
  - name: Int
    kind: value
  - name: Int
    kind: class
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for duplicate type")
	}
}

func TestParse_ErrorUnknownKind(t *testing.T) {
	src := `
types:
  - name: Int
    kind: struct
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParse_ErrorVarianceOnClass(t *testing.T) {
	src := `
types:
  - name: Box
    kind: class
    params:
      - name: T
        variance: covariant
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for variance on class parameter")
	}
}

func TestParse_ErrorUnknownVariance(t *testing.T) {
	src := `
types:
  - name: Source
    kind: interface
    params:
      - name: T
        variance: sideways
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for unknown variance")
	}
}

func TestParse_ErrorDuplicateParam(t *testing.T) {
	src := `
types:
  - name: Pair
    kind: class
    params:
      - name: T
      - name: T
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for duplicate parameter")
	}
}

func TestParse_ErrorReferenceAndValue(t *testing.T) {
	src := `
types:
  - name: Box
    kind: class
    params:
      - name: T
        constraints:
          reference: true
          value: true
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for reference + value constraints")
	}
}

func TestParse_ErrorAbstractValue(t *testing.T) {
	src := `
types:
  - name: Int
    kind: value
    abstract: true
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for abstract value type")
	}
}

func TestParse_ErrorRegistrationWithoutTypes(t *testing.T) {
	src := `
types:
  - name: Int
    kind: value
registrations:
  - service: Int
`
	_, err := Parse([]byte(src), "test.yaml")
	if err == nil {
		t.Fatal("expected error for registration without types")
	}
}

func buildUniverse(t *testing.T, src string) *Universe {
	t.Helper()
	f, err := Parse([]byte(src), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	u, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return u
}

func TestBuild_Universe(t *testing.T) {
	u := buildUniverse(t, `
types:
  - name: Comparable
    kind: interface
    params:
      - name: T
  - name: Int
    kind: value
    implements: ["Comparable<Int>"]
  - name: Entity
    kind: class
    abstract: true
  - name: Repository
    kind: interface
    params:
      - name: T
  - name: MemoryRepository
    kind: class
    params:
      - name: T
        constraints:
          new: true
          implements: ["Comparable<T>"]
    implements: ["Repository<T>"]
registrations:
  - service: Repository
    types: [MemoryRepository]
`)

	names := u.Names()
	want := []string{"Comparable", "Int", "Entity", "Repository", "MemoryRepository"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	intT, ok := u.Lookup("Int")
	if !ok {
		t.Fatal("Int not found")
	}
	if intT.Kind != typedesc.KValue {
		t.Errorf("Int kind = %v, want value", intT.Kind)
	}
	if len(intT.Interfaces) != 1 || intT.Interfaces[0].String() != "Comparable<Int>" {
		t.Fatalf("Int interfaces = %v", intT.Interfaces)
	}
	// The self-reference must point back at the very same descriptor.
	if intT.Interfaces[0].Args[0] != intT {
		t.Error("Comparable<Int> argument is not the Int descriptor itself")
	}
	cmp, _ := u.Lookup("Comparable")
	if intT.Interfaces[0].Definition != cmp {
		t.Error("Comparable<Int> definition is not the Comparable descriptor")
	}

	entity, _ := u.Lookup("Entity")
	if !entity.Abstract {
		t.Error("expected Entity to be abstract")
	}

	repo, _ := u.Lookup("MemoryRepository")
	if !repo.IsDefinition() {
		t.Fatal("expected MemoryRepository to be a generic definition")
	}
	cs := repo.Params[0].Constraints
	if len(cs) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(cs))
	}
	if cs[0].Kind != typedesc.HasNew {
		t.Errorf("constraints[0] = %v, want parameterless constructor", cs[0].Kind)
	}
	if cs[1].Kind != typedesc.AssignableTo || cs[1].Target.String() != "Comparable<T>" {
		t.Errorf("constraints[1] target = %v, want Comparable<T>", cs[1].Target)
	}

	regs := u.Registrations()
	if len(regs) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(regs))
	}
	repoIface, _ := u.Lookup("Repository")
	if regs[0].Service != repoIface {
		t.Error("service is not the Repository definition")
	}
	if len(regs[0].Types) != 1 || regs[0].Types[0] != repo {
		t.Error("candidate is not the MemoryRepository definition")
	}
}

func TestBuild_ParamReference(t *testing.T) {
	u := buildUniverse(t, `
types:
  - name: Repository
    kind: interface
    params:
      - name: T
  - name: MemoryRepository
    kind: class
    params:
      - name: Item
    implements: ["Repository<Item>"]
`)
	repo, _ := u.Lookup("MemoryRepository")
	arg := repo.Interfaces[0].Args[0]
	if !arg.IsTypeParam() || arg.Index != 0 {
		t.Errorf("interface argument = %v, want parameter reference at position 0", arg)
	}
	if arg.Name != "Item" {
		t.Errorf("parameter name = %q, want Item", arg.Name)
	}
}

func TestBuild_ErrorUndeclaredType(t *testing.T) {
	f, err := Parse([]byte(`
types:
  - name: Int
    kind: value
    implements: ["Comparable<Int>"]
`), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Build(); err == nil {
		t.Fatal("expected error for undeclared type")
	}
}

func TestBuild_ErrorOpenReferenceInHierarchy(t *testing.T) {
	// A hierarchy entry must bind every parameter of a generic target.
	f, err := Parse([]byte(`
types:
  - name: Comparable
    kind: interface
    params:
      - name: T
  - name: Int
    kind: value
    implements: ["Comparable"]
`), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Build(); err == nil {
		t.Fatal("expected arity error for open interface reference")
	}
}

func TestBuild_ErrorParameterWithArguments(t *testing.T) {
	f, err := Parse([]byte(`
types:
  - name: Repository
    kind: interface
    params:
      - name: T
  - name: Weird
    kind: class
    params:
      - name: T
    implements: ["T<Repository<T>>"]
`), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Build(); err == nil {
		t.Fatal("expected error for parameter used as a generic")
	}
}

func TestBuild_ErrorUndeclaredParameter(t *testing.T) {
	f, err := Parse([]byte(`
types:
  - name: Comparable
    kind: interface
    params:
      - name: T
  - name: Box
    kind: class
    params:
      - name: T
    implements: ["Comparable<U>"]
`), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Build(); err == nil {
		t.Fatal("expected error for undeclared parameter name")
	}
}

func TestBuild_RegistrationClosedService(t *testing.T) {
	u := buildUniverse(t, `
types:
  - name: Int
    kind: value
  - name: Repository
    kind: interface
    params:
      - name: T
  - name: IntRepository
    kind: class
    implements: ["Repository<Int>"]
registrations:
  - service: "Repository<Int>"
    types: [IntRepository]
`)
	regs := u.Registrations()
	if !regs[0].Service.IsClosed() {
		t.Error("expected a closed service type")
	}
	if regs[0].Service.String() != "Repository<Int>" {
		t.Errorf("service = %v, want Repository<Int>", regs[0].Service)
	}
}

func TestUniverse_Resolve(t *testing.T) {
	u := buildUniverse(t, `
types:
  - name: Int
    kind: value
  - name: Repository
    kind: interface
    params:
      - name: T
`)

	d, err := u.Resolve("Repository<Int>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "Repository<Int>" || !d.IsClosed() {
		t.Errorf("Resolve() = %v, want closed Repository<Int>", d)
	}

	d, err = u.Resolve("Repository")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsDefinition() {
		t.Errorf("Resolve() = %v, want the open definition", d)
	}

	if _, err := u.Resolve("Missing"); err == nil {
		t.Error("expected error for undeclared type")
	}
	if _, err := u.Resolve("Repository<"); err == nil {
		t.Error("expected error for malformed expression")
	}
}

func TestNewUniverse(t *testing.T) {
	intT := &typedesc.Descriptor{Name: "Int", Kind: typedesc.KValue}
	u, err := NewUniverse([]*typedesc.Descriptor{intT})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d, ok := u.Lookup("Int"); !ok || d != intT {
		t.Error("Lookup(Int) did not return the descriptor")
	}

	_, err = NewUniverse([]*typedesc.Descriptor{intT, {Name: "Int", Kind: typedesc.KClass}})
	if err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestFind(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "universe.yaml")
	content := `
types:
  - name: Int
    kind: value
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := Find(subDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Errorf("found = %q, want %q", found, path)
	}

	otherDir := t.TempDir()
	found, err = Find(otherDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "" {
		t.Errorf("expected empty, got %q", found)
	}
}
