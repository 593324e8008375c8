package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/one-release/internal/config"
	"github.com/oshokin/one-release/internal/logger"
	"github.com/oshokin/one-release/internal/service/packager"
	"github.com/oshokin/one-release/internal/version"
)

var (
	// options collects the flags passed to the packager.
	options packager.Options

	// logLevel is the minimum level of printed messages.
	logLevel string

	// rootCmd builds the application and assembles the release directory.
	rootCmd = &cobra.Command{
		Use:   "one-release",
		Short: "Build one_server and assemble a clean release directory",
		Long: "Build the server in release mode, then recreate the release directory with the executable, " +
			"cfg.json and the launcher script. Paths and layout come from " + config.DefaultConfigFilename +
			" in the project root when present.",
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			_, err := packager.Run(ctx, &options)

			return err
		},
	}
)

// Execute runs the one-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+" in the project root, if present)")
	flags.StringVar(&options.Layout, "layout", "", "override the asset layout: flat or nested")
	flags.BoolVar(&options.SkipBuild, "skip-build", false, "package the executable left by a previous build")
	flags.BoolVar(&options.Force, "force", false, "package even if the executable is running")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&options.ProjectRoot, "dir", "C", ".", "project root all configured paths are relative to")
	persistent.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(initCmd)
}
