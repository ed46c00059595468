package hexward

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagHashDB    string
	flagPatternDB string
	flagCache     string
	flagNoColor   bool
	flagLogLevel  string

	version = "0.1.0"
)

// exitError carries a process exit code through cobra without printing.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// rootCmd is the base Cobra command for the hexward CLI.
var rootCmd = &cobra.Command{
	Use:           "hexward",
	Short:         "Signature-based malware scanner",
	Long:          "hexward walks a directory tree, matches files against hash and hex-pattern signature databases, and can excise matched spans in place.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the hexward CLI. It should be called by the main package.
// Exit codes: 0 clean, 1 infections found, 2 error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHashDB, "hash-db", "", "hash signature database (digest:size:name)")
	rootCmd.PersistentFlags().StringVar(&flagPatternDB, "pattern-db", "", "pattern signature database (ndb)")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "scan cache file")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")

	_ = rootCmd.MarkPersistentFlagFilename("hash-db", "hdb")
	_ = rootCmd.MarkPersistentFlagFilename("pattern-db", "ndb")
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(
		[]string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))
}
