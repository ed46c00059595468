package hexward

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/engine"
	"github.com/hexward/hexward/internal/redact"
	"github.com/hexward/hexward/internal/report"
)

func init() {
	var rescan bool
	var path string
	cmd := &cobra.Command{
		Use:   "fix [file...]",
		Short: "Excise fixable infections found by the last scan",
		Long: "fix removes the matched span from every fixable file in the last saved report, " +
			"or only from the files given as arguments. Unfixable (hash) matches are listed but left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := absDir(path)
			s, err := loadSettings(root)
			if err != nil {
				return err
			}
			return runFix(cmd.Context(), cmd.OutOrStdout(), s, root, rescan, args)
		},
	}
	cmd.Flags().BoolVar(&rescan, "rescan", false, "run a fast scan first instead of using the saved report")
	cmd.Flags().StringVarP(&path, "path", "p", ".", "directory to rescan with --rescan")
	rootCmd.AddCommand(cmd)
}

func runFix(ctx context.Context, w io.Writer, s settings, root string, rescan bool, only []string) error {
	var rep *report.Report
	if rescan {
		eng, err := engine.New(s.engineConfig())
		if err != nil {
			return err
		}
		r, err := eng.Scan(ctx, root, engine.Options{Fast: true})
		if r == nil {
			return fmt.Errorf("scan error: %w", err)
		}
		if r.Aborted {
			return fmt.Errorf("scan was interrupted; nothing excised")
		}
		rep = r
	} else {
		res, err := cache.LoadResults(s.CachePath)
		if err != nil {
			return fmt.Errorf("no saved report (run `hexward scan` first): %w", err)
		}
		rep = res.Report
	}

	targets := selectFixable(rep.Fixable, only)
	if len(targets) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to fix.")
	}
	// A range only applies to the contents it was matched in.
	var current []report.Fixable
	stale := map[string]bool{}
	for _, f := range targets {
		if redact.Current(f) {
			current = append(current, f)
			continue
		}
		stale[f.Path] = true
		_, _ = fmt.Fprintf(w, "stale      %s (changed since the scan)\n", f.Path)
	}
	fixed := redact.ExciseAll(current)
	done := map[string]bool{}
	for _, p := range fixed {
		done[p] = true
		_, _ = fmt.Fprintf(w, "fixed      %s\n", p)
	}
	var remaining []report.Fixable
	for _, f := range rep.Fixable {
		if !done[f.Path] && !stale[f.Path] {
			remaining = append(remaining, f)
		}
	}
	for _, f := range current {
		if !done[f.Path] {
			_, _ = fmt.Fprintf(w, "failed     %s\n", f.Path)
		}
	}
	for _, u := range rep.Unfixable {
		_, _ = fmt.Fprintf(w, "unfixable  %s (%s)\n", u.Path, u.Name)
	}

	// fixed and stale entries must not be excised again
	rep.Fixable = append([]report.Fixable{}, remaining...)
	if err := cache.SaveResults(s.CachePath, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if len(stale) > 0 {
		return fmt.Errorf("%d of %d files changed since the scan; run `hexward scan` again", len(stale), len(targets))
	}
	if failed := len(current) - len(fixed); failed > 0 {
		return fmt.Errorf("%d of %d excisions failed", failed, len(targets))
	}
	return nil
}

// selectFixable keeps the entries whose path is in only, or all of them when
// only is empty.
func selectFixable(all []report.Fixable, only []string) []report.Fixable {
	if len(only) == 0 {
		return all
	}
	want := map[string]bool{}
	for _, p := range only {
		want[absDir(p)] = true
		if resolved, err := filepath.EvalSymlinks(absDir(p)); err == nil {
			want[resolved] = true
		}
	}
	var out []report.Fixable
	for _, f := range all {
		if want[f.Path] {
			out = append(out, f)
		}
	}
	return out
}
