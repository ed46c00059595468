package hexward

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/ignore"
)

func init() {
	var path string
	cmd := &cobra.Command{
		Use:   "ignore <pattern>...",
		Short: "Add patterns to the .hexwardignore file of a scan root",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addIgnores(cmd.OutOrStdout(), absDir(path), args)
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", ".", "scan root holding the ignore file")
	rootCmd.AddCommand(cmd)
}

func addIgnores(w io.Writer, root string, patterns []string) error {
	for _, p := range patterns {
		if err := ignore.Append(root, p); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Ignoring %s\n", p)
	}
	return nil
}
