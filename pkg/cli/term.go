package cli

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/typeforge/genbind/internal/config"
)

var (
	colorOnce sync.Once
	colorVal  bool
)

func detectColor() bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv(config.EnvNoColor); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func colorEnabled() bool {
	colorOnce.Do(func() {
		colorVal = detectColor()
	})
	return colorVal
}

func ansiWrap(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + "\033[0m"
}

func green(s string) string { return ansiWrap("\033[32m", s) }
func red(s string) string   { return ansiWrap("\033[31m", s) }
