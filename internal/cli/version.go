package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			version := "(devel)"
			revision := ""
			modified := false
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}
				for _, setting := range info.Settings {
					switch setting.Key {
					case "vcs.revision":
						revision = setting.Value
					case "vcs.modified":
						modified = setting.Value == "true"
					}
				}
			}

			fmt.Fprintf(out, "scriptdeck %s", version)
			if revision != "" {
				if len(revision) > 12 {
					revision = revision[:12]
				}
				fmt.Fprintf(out, " (%s", revision)
				if modified {
					fmt.Fprint(out, ", dirty")
				}
				fmt.Fprint(out, ")")
			}
			fmt.Fprintf(out, " %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
