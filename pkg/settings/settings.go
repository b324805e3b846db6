// Package settings provides build metadata, per-run configuration and
// context helpers shared by the dtx CLI and its packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "dtx"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// InputSettings says where records come from.
type InputSettings struct {
	// Path is the input file; empty means stdin.
	Path string
	// Format is a loader format name; empty means auto-detect.
	Format string
	// RecordsPath selects the record list inside the document.
	RecordsPath string
}

// Run holds configuration for a single execution of the application.
type Run struct {
	MinLogLevel int8
	// LogFile, when set, receives a rotated copy of the JSON log.
	LogFile     string
	Input       InputSettings
	TablePath   string
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		IsQuiet:     false,
		NoColor:     false,
		ExitOnError: true,
	}
}
