package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/typeforge/genbind/internal/config"
	"github.com/typeforge/genbind/internal/gosrc"
	"github.com/typeforge/genbind/internal/manifest"
	"github.com/typeforge/genbind/internal/resolve"
	"github.com/typeforge/genbind/internal/typedesc"
)

// Run is the command line entry point. It parses arguments, dispatches
// to the selected command, and exits the process on failure.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			// Print stack trace for debugging
			if os.Getenv(config.EnvDebug) == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	// Handle version flag
	if len(os.Args) == 2 {
		switch os.Args[1] {
		case "-v", "-version", "--version":
			fmt.Println(config.ToolName + " " + config.Version)
			return
		}
	}

	opts, rest, err := buildOptions(os.Args[1:])
	if err != nil {
		// go-flags already printed the parse error
		os.Exit(1)
	}
	if opts == nil {
		// help was requested and printed
		return
	}

	setupLogging(opts.Verbose)

	switch {
	case opts.Check != nil:
		handleCheck(opts.Check)
	case opts.Resolve != nil:
		handleResolve(opts.Resolve, rest)
	case opts.Inspect != nil:
		handleInspect(opts.Inspect, rest)
	}
}

// setupLogging installs the default slog handler. Diagnostics go to
// stderr so command output on stdout stays machine-readable.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose || os.Getenv(config.EnvDebug) == "1" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// manifestPath returns the explicit path if given, otherwise walks up
// from the working directory looking for a universe manifest.
func manifestPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
	found, err := manifest.Find(cwd)
	if err != nil || found == "" {
		fmt.Fprintf(os.Stderr, "Error: %s not found (or use -f)\n", config.ManifestFileName)
		os.Exit(1)
	}
	return found
}

func loadUniverse(path string) *manifest.Universe {
	f, err := manifest.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	u, err := f.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return u
}

func handleCheck(cmd *CheckCmd) {
	path := manifestPath(cmd.Manifest)
	u := loadUniverse(path)

	fmt.Printf("Manifest: %s %s\n", path, green("✓"))
	fmt.Printf("Types: %d\n", len(u.Names()))
	for _, name := range u.Names() {
		d, _ := u.Lookup(name)
		slog.Debug("declared", "type", declString(d))
	}

	regs := u.Registrations()
	fmt.Printf("Registrations: %d\n", len(regs))
	for _, sr := range regs {
		if !sr.Service.IsClosed() {
			fmt.Printf("  %s ← %d candidates (open service)\n", sr.Service, len(sr.Types))
			continue
		}
		cands := make([]resolve.Candidate, len(sr.Types))
		for i, t := range sr.Types {
			cands[i] = resolve.Candidate{Type: t}
		}
		selected, err := resolve.SelectClosed(sr.Service, cands, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: service %s: %v\n", sr.Service, err)
			os.Exit(1)
		}
		fmt.Printf("  %s ← %d/%d candidates resolve\n", sr.Service, len(selected), len(cands))
	}

	fmt.Println("\nAll checks passed " + green("✓"))
}

func handleResolve(cmd *ResolveCmd, rest []string) {
	if len(rest) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s resolve [-f %s] [--no-variant] <type>\n", config.ToolName, config.ManifestFileName)
		os.Exit(1)
	}
	path := manifestPath(cmd.Manifest)
	u := loadUniverse(path)

	requested, err := u.Resolve(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !requested.IsClosed() {
		fmt.Fprintf(os.Stderr, "Error: %s is not a closed type\n", requested)
		os.Exit(1)
	}

	includeVariant := !cmd.NoVariant
	total, matched := 0, 0
	for _, sr := range u.Registrations() {
		if !serves(sr.Service, requested, includeVariant) {
			slog.Debug("service does not apply", "service", sr.Service.String())
			continue
		}
		for _, cand := range sr.Types {
			total++
			res, err := resolve.Unify(requested, cand, includeVariant)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: candidate %s: %v\n", cand, err)
				os.Exit(1)
			}
			if res.Satisfied {
				matched++
				fmt.Printf("  %s %s → %s\n", green("✓"), cand, res.Closed)
			} else {
				fmt.Printf("  %s %s: %s\n", red("✗"), cand, res.Failure)
			}
		}
	}

	if total == 0 {
		fmt.Printf("no registrations for %s\n", requested)
		return
	}
	fmt.Printf("\n%d of %d candidates resolve %s\n", matched, total, requested)
}

func handleInspect(cmd *InspectCmd, rest []string) {
	if len(rest) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s inspect [-p pattern] <package-dir>\n", config.ToolName)
		os.Exit(1)
	}
	dir := rest[0]
	slog.Debug("loading packages", "dir", dir, "patterns", cmd.Pattern)

	u, err := gosrc.Inspect(dir, cmd.Pattern...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var decls []*typedesc.Descriptor
	seeded := 0
	for _, name := range u.Names() {
		if gosrc.Predeclared(name) {
			seeded++
			continue
		}
		d, _ := u.Lookup(name)
		decls = append(decls, d)
	}

	fmt.Printf("Types: %d (+%d predeclared)\n", len(decls), seeded)
	for _, d := range decls {
		fmt.Printf("  %s\n", declString(d))
	}
}

// serves reports whether a registration under service answers a request
// for requested: the service is the request itself, its open definition,
// or a closed type the request accepts through variance.
func serves(service, requested *typedesc.Descriptor, includeVariant bool) bool {
	if service.Equal(requested) {
		return true
	}
	if service.IsDefinition() {
		if def, err := requested.GenericDefinition(); err == nil && def == service {
			return true
		}
	}
	return includeVariant && resolve.AssignableTo(service, requested)
}

// declString renders a descriptor the way a manifest would declare it:
// kind and name, parameter list with variance and constraints, then the
// base class and implemented interfaces.
func declString(d *typedesc.Descriptor) string {
	var b strings.Builder
	if d.Abstract {
		b.WriteString("abstract ")
	}
	b.WriteString(d.Kind.String())
	b.WriteByte(' ')
	b.WriteString(d.Name)
	if len(d.Params) > 0 {
		b.WriteByte('<')
		for i, p := range d.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.Variance != typedesc.Invariant {
				b.WriteString(p.Variance.String())
				b.WriteByte(' ')
			}
			b.WriteString(p.Name)
			if s := constraintString(p.Constraints); s != "" {
				b.WriteString(" : ")
				b.WriteString(s)
			}
		}
		b.WriteByte('>')
	}
	if s := parentString(d); s != "" {
		b.WriteString(" : ")
		b.WriteString(s)
	}
	return b.String()
}

func constraintString(cs []typedesc.Constraint) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		switch c.Kind {
		case typedesc.RefType:
			parts = append(parts, "ref")
		case typedesc.ValType:
			parts = append(parts, "val")
		case typedesc.HasNew:
			parts = append(parts, "new")
		case typedesc.AssignableTo:
			parts = append(parts, c.Target.String())
		}
	}
	return strings.Join(parts, ", ")
}

func parentString(d *typedesc.Descriptor) string {
	parts := make([]string, 0, 1+len(d.Interfaces))
	if d.Base != nil {
		parts = append(parts, d.Base.String())
	}
	for _, it := range d.Interfaces {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, ", ")
}
