package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "formlab",
		Short: "Form action playground with a simulated backend",
		Long: `Formlab exercises async form submissions against a fake server.

It bundles three pieces into one demo:

  • A form validator with declarative per-field rules
  • An async action state machine (idle → pending → resolved/rejected)
  • A simulated backend with fixed latency and injected failures

Run "formlab serve" for the HTTP demo server or "formlab run" for a
batch simulation on the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formlab:", err)
		os.Exit(1)
	}
}

// header opens a command's output with the binary name and subcommand.
func header(command string) {
	fmt.Printf("\nformlab %s — %s\n\n", version, command)
}

// status prints one prefixed line; the helpers below pick the prefix.
func status(prefix, format string, args ...any) {
	fmt.Printf("%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func success(format string, args ...any) { status("\033[32m✓\033[0m", format, args...) }

func info(format string, args ...any) { status(" ", format, args...) }

func warn(format string, args ...any) { status("\033[33m⚠\033[0m", format, args...) }
