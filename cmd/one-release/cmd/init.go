package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/one-release/internal/config"
	"github.com/oshokin/one-release/internal/domain/release"
)

var errConfigExists = errors.New("configuration file already exists, use --overwrite to replace it")

var (
	// overwrite allows init to replace an existing configuration file.
	overwrite bool

	// initLayout is the layout written into the new configuration file.
	initLayout string

	// initCmd writes the default configuration file.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default " + config.DefaultConfigFilename + " into the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			layout, err := release.ParseLayout(initLayout)
			if err != nil {
				return err
			}

			path := filepath.Join(options.ProjectRoot, config.DefaultConfigFilename)

			return writeDefaultConfig(path, layout, overwrite, cmd)
		},
	}
)

func writeDefaultConfig(path string, layout release.Layout, overwrite bool, cmd *cobra.Command) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}

	cfg := config.Default()
	cfg.Layout = layout

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing configuration file")
	initCmd.Flags().StringVar(&initLayout, "layout", string(release.LayoutFlat), "asset layout: flat or nested")
}
