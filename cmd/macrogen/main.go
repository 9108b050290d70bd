// macrogen generates a Klipper macro configuration from a machine profile.
//
// Usage:
//
//	macrogen generate -p printer.yaml -o macros.cfg [--backup]
//	macrogen validate -p printer.yaml
//	macrogen lint macros.cfg
//	macrogen preview -p printer.yaml -o preview.svg
//	macrogen materials
//	macrogen serve --addr :8080
//	macrogen watch -p printer.yaml -o macros.cfg
//
// Profile fields can be overridden with flags (--material, --archetype,
// --print-temp, ...); without -p the built-in defaults are used.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kanrog/kanrog.github.io/pkg/log"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	verbose   bool

	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "macrogen",
		Short: "Generate Klipper macro configurations from a machine profile",
		Long: `macrogen turns a machine profile (kinematics, bed size, material,
probe and feature switches) into a ready to include macros.cfg.

Profiles are YAML or JSON files; every field can also be set with a flag.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New("macrogen")
			logger.SetWriter(cmd.ErrOrStderr())
			log.ConfigureFromEnv(logger)
			if opts.logLevel != "" {
				logger.SetLevel(log.ParseLevel(opts.logLevel))
			}
			if opts.verbose {
				logger.SetLevel(log.DEBUG)
			}
			switch opts.logFormat {
			case "":
			case "json":
				logger.SetFormat(log.FormatJSON)
			case "text":
				logger.SetFormat(log.FormatText)
			default:
				return fmt.Errorf("unknown log format %q", opts.logFormat)
			}
			log.SetDefaultLogger(logger)
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newMaterialsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
