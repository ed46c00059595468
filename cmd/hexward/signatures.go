package hexward

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/signatures"
)

func init() {
	var list bool
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "Load and summarize the signature databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(absDir("."))
			if err != nil {
				return err
			}
			store, err := signatures.Load(s.HashDB, s.PatternDB)
			if err != nil {
				return err
			}
			return printSignatures(cmd.OutOrStdout(), s, store, list)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list every signature name")
	rootCmd.AddCommand(cmd)
}

func printSignatures(w io.Writer, s settings, store *signatures.Store, list bool) error {
	_, _ = fmt.Fprintf(w, "Hash database:    %s (%d signatures)\n", s.HashDB, store.HashCount())
	_, _ = fmt.Fprintf(w, "Pattern database: %s (%d signatures)\n", s.PatternDB, store.PatternCount())
	_, _ = fmt.Fprintf(w, "Signature set:    %s\n", store.ID())
	if !list {
		return nil
	}
	rows := make([][]string, 0, store.HashCount()+store.PatternCount())
	for _, h := range store.Hashes() {
		rows = append(rows, []string{"hash", h.Name, fmt.Sprintf("%s:%d", h.Digest, h.Size)})
	}
	for _, p := range store.Patterns() {
		rows = append(rows, []string{"pattern", p.Name, p.Source})
	}
	table := tablewriter.NewWriter(w)
	table.Header("KIND", "NAME", "SIGNATURE")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
