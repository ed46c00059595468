package hexward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hexward/hexward/internal/audit"
	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/engine"
	"github.com/hexward/hexward/internal/redact"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/tui"
)

var (
	flagPath        string
	flagSlow        bool
	flagCut         bool
	flagDenied      bool
	flagJSON        bool
	flagSARIF       bool
	flagText        bool
	flagInteractive bool
	flagInclude     string
	flagExclude     string
	flagMaxBytes    int64
	flagResetCache  bool
	flagNoHistory   bool
)

// scanOptions are the output and remediation choices of one scan run.
type scanOptions struct {
	Cut         bool
	ShowDenied  bool
	JSON        bool
	SARIF       bool
	Text        bool
	Interactive bool
	ResetCache  bool
	NoHistory   bool
	Progress    bool
}

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a directory tree for known malware",
		Args:  cobra.NoArgs,
		RunE:  runScanCmd,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "directory to scan")
	cmd.Flags().BoolVar(&flagSlow, "slow", false, "ignore cached verdicts and rescan every file")
	cmd.Flags().BoolVar(&flagCut, "cut", false, "excise every fixable infection after the scan")
	cmd.Flags().BoolVar(&flagDenied, "denied", false, "list paths that could not be read")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text instead of a table")
	cmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "open the interactive scan window")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (0 = no limit)")
	cmd.Flags().BoolVar(&flagResetCache, "reset-cache", false, "delete the scan cache before scanning")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not append this scan to the history log")
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	root := absDir(flagPath)
	s, err := loadSettings(root)
	if err != nil {
		return err
	}
	if flagSlow {
		s.Slow = true
	}
	if flagInclude != "" {
		s.Include = flagInclude
	}
	if flagExclude != "" {
		s.Exclude = flagExclude
	}
	if flagMaxBytes != 0 {
		s.MaxBytes = flagMaxBytes
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	machine := flagJSON || flagSARIF
	o := scanOptions{
		Cut:         flagCut,
		ShowDenied:  flagDenied,
		JSON:        flagJSON,
		SARIF:       flagSARIF,
		Text:        flagText,
		Interactive: flagInteractive,
		ResetCache:  flagResetCache,
		NoHistory:   flagNoHistory,
		Progress:    !machine && term.IsTerminal(int(os.Stderr.Fd())),
	}
	code, err := runScan(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), root, s, o)
	if err != nil {
		return err
	}
	if code != 0 {
		return exitError{code: code}
	}
	return nil
}

// runScan performs one scan and writes the chosen rendering to stdout. It
// returns 1 when infections remain after any excision.
func runScan(ctx context.Context, stdout, stderr io.Writer, root string, s settings, o scanOptions) (int, error) {
	if o.ResetCache {
		if err := os.Remove(s.CachePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 2, fmt.Errorf("reset cache: %w", err)
		}
	}
	eng, err := engine.New(s.engineConfig())
	if err != nil {
		return 2, err
	}
	if o.Interactive {
		return runInteractive(ctx, eng, root, s)
	}

	if !o.JSON && !o.SARIF {
		_, _ = fmt.Fprintf(stderr, "Scanning %s with %d signatures...\n", root,
			eng.Store().HashCount()+eng.Store().PatternCount())
	}
	opts := engine.Options{Fast: !s.Slow}
	if o.Progress {
		opts.OnFile = func(percent int, path string) bool {
			_, _ = fmt.Fprintf(stderr, "\r\033[K[%3d%%] %s", percent, path)
			return false
		}
	}
	rep, err := eng.Scan(ctx, root, opts)
	if o.Progress {
		_, _ = fmt.Fprint(stderr, "\r\033[K")
	}
	if rep == nil {
		return 2, fmt.Errorf("scan error: %w", err)
	}
	if err != nil {
		// the report is complete; only the cache write failed
		_, _ = fmt.Fprintln(stderr, "warning:", err)
	}

	var fixed []string
	if o.Cut {
		fixed = redact.ExciseAll(rep.Fixable)
	}
	persist(s, rep, o.NoHistory)

	if err := render(stdout, rep, s, o, fixed); err != nil {
		return 2, err
	}
	if rep.Infected()-len(fixed) > 0 {
		return 1, nil
	}
	return 0, nil
}

// persist saves the last report and appends the history record. Failures
// are logged; they never fail the scan.
func persist(s settings, rep *report.Report, noHistory bool) {
	if err := cache.SaveResults(s.CachePath, rep); err != nil {
		slog.Warn("saving last report failed", "error", err)
	}
	if noHistory {
		return
	}
	log := audit.NewAuditLog(audit.HistoryPath(s.CachePath))
	if err := log.LogScan(audit.CreateScanRecord(rep, !s.Slow)); err != nil {
		slog.Warn("writing scan history failed", "error", err)
	}
}

func render(w io.Writer, rep *report.Report, s settings, o scanOptions, fixed []string) error {
	switch {
	case o.SARIF:
		if err := report.WriteSARIF(w, rep, version); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
		return nil
	case o.JSON:
		return report.WriteJSON(w, rep)
	}
	po := report.PrintOptions{NoColor: s.NoColor, ShowDenied: o.ShowDenied, Fixed: fixed}
	if o.Text {
		report.PrintText(w, rep, po)
		return nil
	}
	return report.PrintTable(w, rep, po)
}

func runInteractive(ctx context.Context, eng *engine.Engine, root string, s settings) (int, error) {
	prefs := tui.LoadPrefs()
	if s.Slow {
		prefs.Fast = false
	}
	scan := func(ctx context.Context, opts engine.Options) (*report.Report, error) {
		rep, err := eng.Scan(ctx, root, opts)
		if rep != nil {
			persist(s, rep, false)
		}
		return rep, err
	}
	m, err := tui.Run(ctx, scan, redact.ExciseFixable, prefs)
	if err != nil {
		return 2, err
	}
	rep := m.Report()
	if rep == nil {
		if m.Err() != nil {
			return 2, m.Err()
		}
		return 0, nil
	}
	if rep.Infected()-len(m.Fixed()) > 0 {
		return 1, nil
	}
	return 0, nil
}
