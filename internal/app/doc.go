// Package app builds the process-wide context every command runs against:
// configuration, the root logger, the validator and tool registries and the
// telemetry providers. It is constructed once by the CLI and passed down;
// nothing in it is global.
//
// Typical use:
//
//	a, err := app.Load(configPath)
//	if err != nil {
//	    return err
//	}
//	defer a.Close(ctx)
//	summary, err := a.RunPipeline(ctx, "qc", operations.RunOptions{})
package app
