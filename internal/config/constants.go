package config

// Version is the tool version, printed by `py --version`.
// Can be overridden at build time using: -ldflags "-X .../internal/config.Version=..."
var Version = "1.0.0"

const SourceFileExt = ".go"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".go"}

// Environment variables consumed by the import database.
const (
	PathEnvVar             = "PYFLYBY_PATH"
	KnownImportsEnvVar     = "PYFLYBY_KNOWN_IMPORTS_PATH"
	MandatoryImportsEnvVar = "PYFLYBY_MANDATORY_IMPORTS_PATH"
)

// EmptyPathSentinel disables the import database when assigned to PathEnvVar.
const EmptyPathSentinel = "EMPTY"

// LogPrefix is prepended to every log line on stderr.
const LogPrefix = "[PYFLYBY]"
