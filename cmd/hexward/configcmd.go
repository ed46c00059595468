package hexward

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hexward/hexward/internal/config"
)

var (
	cfgOutput string
	cfgGlobal bool
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .hexward.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cfgOutput
			if cfgGlobal {
				out = config.GlobalPath()
				if out == "" {
					return errors.New("cannot determine the config directory")
				}
			}
			return writeConfigTemplate(cmd.OutOrStdout(), out, cfgForce)
		},
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".hexward.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgGlobal, "global", false, "write the global config instead")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
}

func writeConfigTemplate(w io.Writer, out string, force bool) error {
	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(config.Template), 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "Wrote", out)
	return nil
}
