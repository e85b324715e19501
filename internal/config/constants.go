package config

const ToolName = "genbind"

// Version is reported by the -v / -version / --version flags.
const Version = "0.3.0"

// ManifestFileName is the default universe manifest name the CLI looks
// for when no explicit path is given.
const ManifestFileName = "universe.yaml"

// Environment variables honored by the CLI
const (
	EnvDebug   = "GENBIND_DEBUG"
	EnvNoColor = "NO_COLOR"
)
