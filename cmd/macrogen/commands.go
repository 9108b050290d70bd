package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/log"
	"github.com/Kanrog/kanrog.github.io/pkg/macro"
	"github.com/Kanrog/kanrog.github.io/pkg/metrics"
	"github.com/Kanrog/kanrog.github.io/pkg/preview"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
	"github.com/Kanrog/kanrog.github.io/pkg/server"
	"github.com/Kanrog/kanrog.github.io/pkg/watch"
)

// stdout is the output name that writes to standard output.
const stdout = "-"

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == stdout {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	var (
		output string
		backup bool
		pf     *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Validate a profile and write its macro configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pf.load()
			if err != nil {
				return err
			}

			doc, res, err := macro.Generate(p)
			if len(res.Violations) > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), renderReport(p, res))
			}
			if err != nil {
				return err
			}

			if output == stdout {
				_, err := io.WriteString(cmd.OutOrStdout(), doc.String())
				return err
			}
			backupPath, err := macro.WriteFile(output, doc, backup)
			if err != nil {
				return err
			}

			fields := log.Fields{"output": output, "sections": len(doc.Blocks)}
			if backupPath != "" {
				fields["backup"] = backupPath
			}
			log.GetLogger("generate").WithFields(fields).Info("macros written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			if backupPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "previous version saved as %s\n", backupPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", macro.Filename, "Output file, - for stdout")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a timestamped copy of a replaced output file")
	pf = addProfileFlags(cmd)
	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		asJSON bool
		pf     *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a profile and report blocking and advisory violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pf.load()
			if err != nil {
				return err
			}
			res := resolve.Validate(p)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				out := struct {
					Valid      bool                `json:"valid"`
					Violations []resolve.Violation `json:"violations"`
				}{res.Valid(), res.Violations}
				if out.Violations == nil {
					out.Violations = []resolve.Violation{}
				}
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(p, res))
			}

			if blocking := res.Blocking(); len(blocking) > 0 {
				return errors.ValidationBlockedError(len(blocking), blocking[0].String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	pf = addProfileFlags(cmd)
	return cmd
}

func newLintCmd() *cobra.Command {
	var pf *profileFlags
	cmd := &cobra.Command{
		Use:   "lint [macros.cfg]",
		Short: "Check a macro configuration for structural problems",
		Long: `Lint parses a macro configuration and checks that every macro has a
gcode body, template blocks balance, variables are declared and every
command is known. Without a file argument the profile's generated
document is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return errors.Wrap(err, errors.ErrConfigParse, "read macro file").SetFile(args[0])
				}
				text = string(data)
			} else {
				p, err := pf.load()
				if err != nil {
					return err
				}
				doc, _, err := macro.Generate(p)
				if err != nil {
					return err
				}
				text = doc.String()
			}

			issues := macro.Lint(text)
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("no issues"))
				return nil
			}
			renderIssues(cmd.OutOrStdout(), issues)
			return macro.LintError(issues)
		},
	}
	pf = addProfileFlags(cmd)
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var (
		output string
		pf     *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Draw the bed, safe zone, home point and purge line as SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pf.load()
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, preview.Render(p))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "preview.svg", "Output file, - for stdout")
	pf = addProfileFlags(cmd)
	return cmd
}

func newMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the material temperature presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), renderMaterials())
		},
	}
}

func newServeCmd() *cobra.Command {
	cfg := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator HTTP API and live editor socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.MetricsPassword == "" {
				cfg.MetricsPassword = os.Getenv("MACROGEN_METRICS_PASSWORD")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, metrics.GlobalMetrics())
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	f.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP read timeout")
	f.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "HTTP write timeout")
	f.StringVar(&cfg.MetricsUser, "metrics-user", "", "Basic auth user for /metrics")
	f.StringVar(&cfg.MetricsPassword, "metrics-password", "", "Basic auth password for /metrics (or MACROGEN_METRICS_PASSWORD)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		output   string
		backup   bool
		debounce time.Duration
		pf       *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the macro file whenever the profile changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pf.path == "" {
				return errors.New(errors.ErrRuntime, "watch needs a profile file (-p)")
			}
			probe := profile.Default()
			if err := pf.apply(&probe); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(watch.Options{
				Profile:  pf.path,
				Output:   output,
				Backup:   backup,
				Debounce: debounce,
				Override: pf.override(),
				Metrics:  metrics.GlobalMetrics(),
			})
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", macro.Filename, "Output file")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a timestamped copy of each replaced output file")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating")
	pf = addProfileFlags(cmd)
	return cmd
}
