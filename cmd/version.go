package cmd

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/pkg/settings"
)

// versionData is what the version command reports.
type versionData struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
}

// buildVersionData merges the ldflags-provided version information with the
// module build info.
func buildVersionData() versionData {
	vi := settings.VersionInformation
	d := versionData{
		Version:   vi.BuildVersion,
		Commit:    vi.Commit,
		BuildTime: vi.BuildTime,
		GoVersion: runtime.Version(),
		BuildOS:   runtime.GOOS,
		BuildArch: runtime.GOARCH,
	}

	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return d
	}
	if info.GoVersion != "" {
		d.GoVersion = info.GoVersion
	}
	if d.Version == defaultVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		d.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if d.Commit == unknown && len(s.Value) >= 7 {
				d.Commit = s.Value[:7]
			}
		case "vcs.time":
			if d.BuildTime == unknown {
				d.BuildTime = s.Value
			}
		case "GOOS":
			d.BuildOS = s.Value
		case "GOARCH":
			d.BuildArch = s.Value
		}
	}
	return d
}

const (
	defaultVersion = "v0.0.0-nightly"
	unknown        = "unknown"
)

func cliVersionString() string {
	d := buildVersionData()
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		settings.CliBinaryName, d.Version, d.Commit, d.BuildTime, d.GoVersion, d.BuildOS, d.BuildArch)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print dtx version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
			return nil
		},
	}
}
