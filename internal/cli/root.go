package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// configFlag is the --config path. Empty searches the usual places.
var configFlag string

var rootCmd = &cobra.Command{
	Use:   "livecharts",
	Short: "Live charts of docker container stats",
	Long: `livecharts streams 'docker stats' from a local or remote runtime and
charts CPU, memory, disk and network per container in the terminal.

Examples:
  livecharts watch
  livecharts watch --host box --mode split
  livecharts snapshot --samples 3
  livecharts init`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: .livecharts.yaml, searched upwards)")
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" && strings.HasPrefix(err.Error(), "unknown command") {
			fmt.Fprintf(os.Stderr, "✗ Unknown command '%s'\n", name)
		} else {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		}
		fmt.Fprintln(os.Stderr, "\n  Run 'livecharts --help' to see what's available.")
		os.Exit(2)
	}

	fmt.Fprint(os.Stderr, err.Error())
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the arguments.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "livecharts"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
