package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build metadata injected by main
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// versionString normalizes the build version. Anything that is not a
// semantic version (a dev build, a bare commit) is reported as is.
func versionString() string {
	parsed, err := semver.ParseTolerant(version)
	if err != nil {
		return version
	}
	return parsed.String()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dexbrowse %s (built %s, %s/%s)\n", versionString(), buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
