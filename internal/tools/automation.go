package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"qcsuite/internal/autofill"
	"qcsuite/internal/config"
	"qcsuite/internal/operations"
)

// AutofillFilterEnv restricts the autofiller to one subject when set
const AutofillFilterEnv = "RHQ_MED_ID"

var errNoAddresses = errors.New("no address rows to enter")

func (ts *toolset) formAutofiller(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	settings, err := autofill.SettingsFromConfig(cfg.Tools.FormAutofill)
	if err != nil {
		return err
	}
	creds, err := autofill.LoadCredentials()
	if err != nil {
		return err
	}
	if settings.AutoLogin && !creds.Complete() {
		in.Log().Warn("credentials_missing",
			slog.String("hint", "set RHQ_USERNAME and RHQ_PASSWORD, or log in manually"))
	}

	input := in.InputPath
	if input == "" {
		input = cfg.GlobalPaths().Get(config.KeyRHQInputs)
	}
	data, _, err := loadInput(in, input, "address sheet")
	if err != nil {
		return err
	}
	subjects, err := autofill.GroupByMedID(data, os.Getenv(AutofillFilterEnv))
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return errNoAddresses
	}
	in.Log().Info("address_data_loaded", slog.Int("subjects", len(subjects)))

	filler := autofill.NewFiller(settings, creds, in.Log())
	outcomes, runErr := filler.Run(ctx, subjects)

	failed := 0
	records := make([][]string, len(outcomes))
	for i, o := range outcomes {
		records[i] = o.Record()
		if o.Status == autofill.StatusFailed {
			failed++
		}
	}
	ts.deps.Tracer.RecordFlagged(ctx, "form_autofiller", failed)

	if len(outcomes) > 0 {
		out, err := outputFile(in, "form_autofill_results.csv")
		if err != nil {
			return err
		}
		if err := writeReport(in, out, autofill.OutcomeHeaders, records); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d forms failed", failed, len(outcomes))
	}
	return nil
}
