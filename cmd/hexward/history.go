package hexward

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/audit"
)

func init() {
	var limit int
	var asJSON bool
	histCmd := &cobra.Command{
		Use:   "history",
		Short: "List previous scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			log := audit.NewAuditLog(audit.HistoryPath(s.CachePath))
			return printHistory(cmd.OutOrStdout(), log, limit, asJSON)
		},
	}
	histCmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many scans (0 = all)")
	histCmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(histCmd)

	histCmd.AddCommand(&cobra.Command{
		Use:   "delete <index>",
		Short: "Delete one record; index 0 is the newest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			if err := audit.NewAuditLog(audit.HistoryPath(s.CachePath)).DeleteRecord(idx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted record", idx)
			return nil
		},
	})
}

func printHistory(w io.Writer, log *audit.AuditLog, limit int, asJSON bool) error {
	records, err := log.LoadHistory()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintln(w, "No scans recorded yet.")
			return nil
		}
		return err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if asJSON {
		if records == nil {
			records = []audit.ScanRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		status := "complete"
		if r.Aborted {
			status = "aborted"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Root,
			strconv.Itoa(r.FilesScanned),
			strconv.Itoa(r.Fixable + r.Unfixable),
			strconv.Itoa(r.Denied),
			r.Duration,
			status,
		})
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "TIME", "ROOT", "FILES", "INFECTED", "DENIED", "DURATION", "STATUS")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
