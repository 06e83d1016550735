package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped with -ldflags "-X github.com/abhisek/quizrag/cmd.version=...".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the quizrag build and the Go toolchain it was built with",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), buildVersion(version, info))
	},
}

// buildVersion prefers the stamped version, then the module version from
// go install, then the VCS revision.
func buildVersion(stamped string, info *debug.BuildInfo) string {
	v := stamped
	var rev string
	if info != nil {
		if v == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				rev = s.Value[:12]
			}
		}
	}
	if v == "" {
		v = "dev"
	}
	if rev != "" {
		v += "+" + rev
	}
	return fmt.Sprintf("quizrag %s (%s %s/%s)", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
