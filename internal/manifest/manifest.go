// Package manifest loads declarative type universes from YAML.
//
// A manifest declares a closed world of named types (interfaces, classes,
// and value types), their generic parameters with variance and constraints,
// and a set of service registrations. Build resolves every textual type
// reference through the expression parser and produces descriptors ready
// for the resolution engine.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File represents a parsed universe manifest before reference resolution.
type File struct {
	// Types lists the type declarations of the universe, in order.
	Types []TypeDecl `yaml:"types"`

	// Registrations maps service types to their candidate implementations.
	Registrations []Registration `yaml:"registrations,omitempty"`
}

// TypeDecl declares a single named type.
type TypeDecl struct {
	// Name is the unique type name (e.g. "Repository").
	Name string `yaml:"name"`

	// Kind is one of "interface", "class", or "value".
	Kind string `yaml:"kind"`

	// Abstract marks a class that cannot be constructed directly.
	// Only valid when Kind is "class".
	Abstract bool `yaml:"abstract,omitempty"`

	// Params declares the generic parameters, making the type a generic
	// definition. Order defines parameter positions.
	Params []ParamDecl `yaml:"params,omitempty"`

	// Base is a type reference naming the base class (e.g. "Entity<T>").
	// Only valid for classes. References may use the type's own parameters.
	Base string `yaml:"base,omitempty"`

	// Implements lists type references for directly implemented interfaces.
	// For interfaces these are the directly extended interfaces.
	Implements []string `yaml:"implements,omitempty"`
}

// ParamDecl declares one generic parameter.
type ParamDecl struct {
	// Name is the parameter name, usable in references within the
	// declaring type (e.g. "T" in "Comparable<T>").
	Name string `yaml:"name"`

	// Variance is "covariant" (or "out"), "contravariant" (or "in"),
	// or "invariant". Defaults to invariant. Only interface parameters
	// may declare variance.
	Variance string `yaml:"variance,omitempty"`

	// Constraints restricts the arguments the parameter accepts.
	Constraints *ConstraintDecl `yaml:"constraints,omitempty"`
}

// ConstraintDecl restricts the type arguments a parameter accepts.
type ConstraintDecl struct {
	// Reference requires the argument to be a class or interface.
	Reference bool `yaml:"reference,omitempty"`

	// Value requires the argument to be a value type.
	Value bool `yaml:"value,omitempty"`

	// New requires the argument to be constructible without arguments.
	// Interfaces and abstract classes fail this constraint.
	New bool `yaml:"new,omitempty"`

	// Implements lists type references the argument must be assignable
	// to. References may use the declaring type's parameters.
	Implements []string `yaml:"implements,omitempty"`
}

// Registration binds a service type to its candidate implementations.
type Registration struct {
	// Service is a type reference for the requested service. A bare
	// generic name (e.g. "Repository") registers the open definition.
	Service string `yaml:"service"`

	// Types lists type references for the candidates, in registration
	// order. Entries may be closed types or open generic definitions.
	Types []string `yaml:"types"`
}

// Load reads and parses a universe manifest file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses manifest content from bytes. Unknown fields are rejected
// so typos surface as errors with their line numbers.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty manifest", path)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

// Find searches for universe.yaml starting from dir and walking up to
// parent directories. Returns the path and nil error if found, or empty
// string and nil error if not found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, "universe.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		// Also check universe.yml (common alternative)
		candidate = filepath.Join(dir, "universe.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// validate checks the declarations for structural errors. Reference
// resolution errors are reported later, by Build.
func (f *File) validate(path string) error {
	if len(f.Types) == 0 {
		return fmt.Errorf("%s: no types defined", path)
	}

	seen := make(map[string]int) // name → declaration index

	for i, t := range f.Types {
		if t.Name == "" {
			return fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if prev, ok := seen[t.Name]; ok {
			return fmt.Errorf("%s: types[%d]: %s already declared at types[%d]", path, i, t.Name, prev)
		}
		seen[t.Name] = i

		switch t.Kind {
		case "interface", "class", "value":
		case "":
			return fmt.Errorf("%s: types[%d] (%s): kind is required", path, i, t.Name)
		default:
			return fmt.Errorf("%s: types[%d] (%s): unknown kind %q (want interface, class, or value)",
				path, i, t.Name, t.Kind)
		}

		if t.Abstract && t.Kind != "class" {
			return fmt.Errorf("%s: types[%d] (%s): abstract is only valid for classes", path, i, t.Name)
		}
		if t.Base != "" && t.Kind != "class" {
			return fmt.Errorf("%s: types[%d] (%s): base is only valid for classes", path, i, t.Name)
		}

		params := make(map[string]bool)
		for j, p := range t.Params {
			if p.Name == "" {
				return fmt.Errorf("%s: types[%d].params[%d] (%s): name is required", path, i, j, t.Name)
			}
			if params[p.Name] {
				return fmt.Errorf("%s: types[%d].params[%d] (%s): duplicate parameter %s",
					path, i, j, t.Name, p.Name)
			}
			params[p.Name] = true

			switch p.Variance {
			case "", "invariant", "covariant", "out", "contravariant", "in":
			default:
				return fmt.Errorf("%s: types[%d].params[%d] (%s): unknown variance %q (want covariant, contravariant, or invariant)",
					path, i, j, t.Name, p.Variance)
			}
			if p.Variance != "" && p.Variance != "invariant" && t.Kind != "interface" {
				return fmt.Errorf("%s: types[%d].params[%d] (%s): variance is only valid on interface parameters",
					path, i, j, t.Name)
			}

			if p.Constraints != nil && p.Constraints.Reference && p.Constraints.Value {
				return fmt.Errorf("%s: types[%d].params[%d] (%s): reference and value constraints are mutually exclusive",
					path, i, j, t.Name)
			}
		}
	}

	for i, r := range f.Registrations {
		if r.Service == "" {
			return fmt.Errorf("%s: registrations[%d]: service is required", path, i)
		}
		if len(r.Types) == 0 {
			return fmt.Errorf("%s: registrations[%d] (%s): types is required", path, i, r.Service)
		}
	}

	return nil
}
