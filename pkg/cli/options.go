package cli

import (
	"github.com/jessevdk/go-flags"
)

// Options is the top-level flag set. After parsing, exactly one command
// field is non-nil.
type Options struct {
	Check   *CheckCmd   `command:"check" description:"load and validate a universe manifest"`
	Resolve *ResolveCmd `command:"resolve" description:"resolve a type request against registered candidates"`
	Inspect *InspectCmd `command:"inspect" description:"project exported Go types into a universe"`
	Verbose bool        `long:"verbose" description:"enable debug logging on stderr"`
}

type CheckCmd struct {
	Manifest string `short:"f" long:"file" description:"path to the universe manifest"`
}

type ResolveCmd struct {
	Manifest  string `short:"f" long:"file" description:"path to the universe manifest"`
	NoVariant bool   `long:"no-variant" description:"accept exact candidate matches only"`
}

type InspectCmd struct {
	Pattern []string `short:"p" long:"pattern" description:"package pattern to load (default: all in dir)"`
}

func buildOptions(args []string) (*Options, []string, error) {
	opts := &Options{}
	rest, err := flags.ParseArgs(opts, args)
	if err != nil {
		if flags.WroteHelp(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return opts, rest, nil
}
