package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type PrintOptions struct {
	NoColor    bool
	ShowDenied bool
	Fixed      []string
}

// PrintTable renders infections as a bordered table followed by a summary
// footer.
func PrintTable(w io.Writer, r *Report, opts PrintOptions) error {
	if r.Infected() == 0 {
		fmt.Fprintln(w, "No infections found ✅")
	} else {
		fixed := map[string]bool{}
		for _, p := range opts.Fixed {
			fixed[p] = true
		}
		rows := make([][]string, 0, r.Infected())
		for _, f := range r.Fixable {
			status := "fixable"
			if fixed[f.Path] {
				status = "fixed"
			}
			start, end := f.Range.Bytes()
			rows = append(rows, []string{colorStatus(status, opts.NoColor), f.Name, f.Path, fmt.Sprintf("%d-%d", start, end)})
		}
		for _, u := range r.Unfixable {
			rows = append(rows, []string{colorStatus("unfixable", opts.NoColor), u.Name, u.Path, "-"})
		}
		table := tablewriter.NewWriter(w)
		table.Header("STATUS", "MALWARE", "PATH", "BYTES")
		if err := table.Bulk(rows); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printDenied(w, r, opts)
	printFooter(w, r)
	return nil
}

// PrintText renders one infection per line without borders.
func PrintText(w io.Writer, r *Report, opts PrintOptions) {
	if r.Infected() == 0 {
		fmt.Fprintln(w, "No infections found ✅")
	} else {
		fmt.Fprintf(w, "Infections: %d\n", r.Infected())
		for _, f := range r.Fixable {
			start, end := f.Range.Bytes()
			fmt.Fprintf(w, "%-9s %s  %s  bytes %d-%d\n", colorStatus("fixable", opts.NoColor), f.Name, f.Path, start, end)
		}
		for _, u := range r.Unfixable {
			fmt.Fprintf(w, "%-9s %s  %s\n", colorStatus("unfixable", opts.NoColor), u.Name, u.Path)
		}
	}
	printDenied(w, r, opts)
	printFooter(w, r)
}

// WriteJSON emits the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func printDenied(w io.Writer, r *Report, opts PrintOptions) {
	if !opts.ShowDenied || len(r.Denied) == 0 {
		return
	}
	fmt.Fprintf(w, "\nAccess denied: %d\n", len(r.Denied))
	for _, p := range r.Denied {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func printFooter(w io.Writer, r *Report) {
	fmt.Fprintln(w)
	if r.Aborted {
		fmt.Fprintln(w, "Scan aborted; results are partial.")
	}
	fmt.Fprintf(w, "Infections: %d (fixable: %d, unfixable: %d)\n", r.Infected(), len(r.Fixable), len(r.Unfixable))
	if r.Stats.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", r.Stats.Duration.Seconds())
	}
	fmt.Fprintf(w, "Files scanned: %d (cached: %d)\n", r.Stats.FilesScanned, r.Stats.CacheHits)
	if n := len(r.Denied); n > 0 {
		fmt.Fprintf(w, "Access denied: %d\n", n)
	}
}

func colorStatus(s string, noColor bool) string {
	if noColor {
		return s
	}
	switch s {
	case "unfixable":
		return "\x1b[31m" + s + "\x1b[0m" // red
	case "fixable":
		return "\x1b[33m" + s + "\x1b[0m" // yellow
	default:
		return "\x1b[32m" + s + "\x1b[0m" // green
	}
}
