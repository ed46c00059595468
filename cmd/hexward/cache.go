package hexward

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/engine"
)

func init() {
	cacheCmd := &cobra.Command{Use: "cache", Short: "Inspect and maintain the scan cache"}
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show where the cache lives and how many verdicts it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			return cacheInfo(cmd.OutOrStdout(), s)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop cached verdicts for files that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			return cachePrune(cmd.OutOrStdout(), s)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the cache and the saved last report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			return cacheReset(cmd.OutOrStdout(), s)
		},
	})
}

func cacheInfo(w io.Writer, s settings) error {
	db, err := cache.Load(s.CachePath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Cache:         %s\n", s.CachePath)
	_, _ = fmt.Fprintf(w, "Entries:       %d\n", db.Len())
	if db.Signatures != "" {
		_, _ = fmt.Fprintf(w, "Signature set: %s\n", db.Signatures)
	}
	if res, err := cache.LoadResults(s.CachePath); err == nil {
		_, _ = fmt.Fprintf(w, "Last scan:     %s (%s, %d infected)\n",
			res.Timestamp.Format("2006-01-02 15:04:05"), res.Report.Root, res.Report.Infected())
	}
	return nil
}

func cachePrune(w io.Writer, s settings) error {
	eng, err := engine.New(s.engineConfig())
	if err != nil {
		return err
	}
	n, err := eng.PruneCache()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Pruned %d entries\n", n)
	return nil
}

func cacheReset(w io.Writer, s settings) error {
	for _, p := range []string{s.CachePath, cache.ResultsPath(s.CachePath)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	_, _ = fmt.Fprintln(w, "Removed", s.CachePath)
	return nil
}
