package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"qcsuite/internal/app"
	"qcsuite/internal/operations"
	"qcsuite/internal/tools"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   app.AppName,
		Short: "Data quality checks for research study releases",
		Long: `qcsuite runs dictionary-driven checks, release comparisons and
dictionary maintenance tools over per-domain study data, either one tool
at a time or as pipelines declared in config.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default ./config.yaml)")

	load := func(cmd *cobra.Command, fn func(*app.App) error) error {
		a, err := app.Load(configPath, app.WithOutput(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.Close(ctx); err != nil {
				a.Logger.Warn("shutdown_incomplete", slog.String("error", err.Error()))
			}
		}()
		return fn(a)
	}

	root.AddCommand(newListCmd(load), newRunCmd(load), newToolCmd(load))
	return root
}

type loader func(cmd *cobra.Command, fn func(*app.App) error) error

func newListCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:       "list [pipelines|tools]",
		Short:     "List configured pipelines and available tools",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"pipelines", "tools"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := ""
			if len(args) == 1 {
				what = args[0]
			}
			return load(cmd, func(a *app.App) error {
				out := cmd.OutOrStdout()
				if what == "" || what == "pipelines" {
					if err := listPipelines(out, a); err != nil {
						return err
					}
				}
				if what == "" {
					fmt.Fprintln(out)
				}
				if what == "" || what == "tools" {
					listTools(out, a)
				}
				return nil
			})
		},
	}
}

func listPipelines(out io.Writer, a *app.App) error {
	pipelines, err := a.Pipelines()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Pipelines:")
	if len(pipelines) == 0 {
		fmt.Fprintln(out, "  (none configured)")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range a.Config.PipelineNames() {
		p := pipelines[name]
		marker := ""
		if name == a.Config.DefaultPipeline {
			marker = " (default)"
		}
		fmt.Fprintf(w, "  %s%s\t%d steps\t%s\n", name, marker, len(p.Steps), p.Description)
	}
	return w.Flush()
}

func listTools(out io.Writer, a *app.App) {
	fmt.Fprintln(out, "Tools:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, t := range a.Catalog.Tools() {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.Name, t.Category, t.RunMode, t.Description)
	}
	w.Flush()
}

func newRunCmd(load loader) *cobra.Command {
	var (
		opts   operations.RunOptions
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "run [pipeline]",
		Short: "Run a pipeline, or default_pipeline when none is named",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return load(cmd, func(a *app.App) error {
				summary, err := a.RunPipeline(cmd.Context(), name, opts)
				if summary != nil && !opts.DryRun && len(summary.Timings) > 0 {
					summary.Print(cmd.OutOrStdout())
				}
				if err != nil {
					return err
				}
				if strict && summary.Failed() {
					return &stepFailureError{failed: len(summary.Failures())}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "run only steps carrying this tag")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain for single_domain steps")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the plan without running anything")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when any step fails")
	return cmd
}

func newToolCmd(load loader) *cobra.Command {
	var req app.ToolRequest
	cmd := &cobra.Command{
		Use:   "tool <name>",
		Short: "Run a single tool outside any pipeline",
		Long: `Run a single tool. Domain tools run for every configured domain
unless --domain is given. --input and --output override the tool's
default input key and the qc_output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, func(a *app.App) error {
				err := a.RunTool(cmd.Context(), args[0], req)
				var list *operations.ErrorList
				if errors.As(err, &list) {
					return &stepFailureError{failed: len(list.Errors), err: err}
				}
				return err
			})
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return toolNames(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}
	cmd.Flags().StringVar(&req.Domain, "domain", "", "run for this domain only")
	cmd.Flags().StringVar(&req.Input, "input", "", "input file or directory; two comma-separated files for data_content_comparer")
	cmd.Flags().StringVar(&req.Output, "output", "", "output file or directory")
	return cmd
}

// toolNames completes tool names without loading the configuration
func toolNames(prefix string) []string {
	var names []string
	for _, name := range tools.NewCatalog(tools.Deps{}).Names() {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}
