// Package operations runs QC pipelines: ordered lists of steps, each a tool
// function executed per domain, once globally, or in a custom context.
//
// Core components:
//
// Step: one unit of work. It names a StepFunc resolved from the tool
// catalog, the logical input key it reads, the report file it writes, a run
// mode and optional tags.
//
// Pipeline: an ordered list of steps bound to the study configuration. Run
// filters steps by tag and executes them step-major (every domain of step 1,
// then every domain of step 2). A failing step is logged and recorded in
// the Summary; the run continues. The context is checked between steps and
// domains so an interrupt stops the run cleanly.
//
// Factory: BuildPipelines turns the pipelines section of config.yaml into
// Pipeline values, expanding references to other pipelines and rejecting
// cycles and unknown tool names before anything runs.
//
// Example usage:
//
//	pipelines, err := operations.BuildPipelines(cfg, catalog,
//		operations.WithLogger(logger),
//		operations.WithOutput(os.Stdout))
//	if err != nil {
//		return err
//	}
//	summary, err := pipelines["full"].Run(ctx, operations.RunOptions{Tag: "validation"})
//	summary.Print(os.Stdout)
package operations
