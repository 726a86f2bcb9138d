package autofill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// Page selectors
const (
	SelectorPanel       = `mat-expansion-panel`
	SelectorLoginButton = `//button[contains(text(), 'Login')]`
	SelectorUsername    = `input[name="username"]`
	SelectorPassword    = `input[name="password"]`
	SelectorSave        = `//button[contains(text(), 'Submit') or contains(text(), 'Save')]`
)

// Submission outcomes
const (
	StatusSubmitted = "Submitted"
	StatusFailed    = "Failed"
	StatusSkipped   = "Skipped"
)

// ErrLoginFailed is returned when the session never leaves the login page
var ErrLoginFailed = errors.New("login did not complete")

// Outcome is the result of filling one subject's form
type Outcome struct {
	MedID    string
	Status   string
	Blocks   int
	Duration time.Duration
	Err      error
}

// Record renders the outcome as a report row
func (o Outcome) Record() []string {
	detail := ""
	if o.Err != nil {
		detail = o.Err.Error()
	}
	return []string{o.MedID, o.Status, fmt.Sprint(o.Blocks), fmt.Sprintf("%.2f", o.Duration.Seconds()), detail}
}

// OutcomeHeaders is the autofill report header
var OutcomeHeaders = []string{"Med_ID", "Status", "Blocks", "Seconds", "Detail"}

// Filler drives one browser session
type Filler struct {
	settings Settings
	creds    Credentials
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewFiller creates a filler; submissions are limited to SubmitsPerMinute
func NewFiller(settings Settings, creds Credentials, logger *slog.Logger) *Filler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filler{
		settings: settings,
		creds:    creds,
		limiter:  rate.NewLimiter(SubmitRate(settings.SubmitsPerMinute), 1),
		logger:   logger,
	}
}

// SubmitRate converts a per-minute budget into a limiter rate
func SubmitRate(perMinute float64) rate.Limit {
	if perMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Duration(float64(time.Minute) / perMinute))
}

// Run opens a browser, logs in if needed and fills each subject's form.
// A subject that fails is recorded and the run moves on; cancellation stops
// the run and returns the outcomes so far.
func (f *Filler) Run(ctx context.Context, subjects []Subject) ([]Outcome, error) {
	if len(subjects) == 0 {
		return nil, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", f.settings.Headless))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	acceptDialogs(browserCtx)

	if err := f.login(browserCtx, subjects[0].MedID); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(subjects))
	for _, s := range subjects {
		if err := f.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}
		outcome := f.fill(browserCtx, s)
		outcomes = append(outcomes, outcome)
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}
	return outcomes, nil
}

// acceptDialogs confirms any JavaScript dialog raised by a save
func acceptDialogs(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				c := chromedp.FromContext(ctx)
				if c == nil || c.Target == nil {
					return
				}
				_ = page.HandleJavaScriptDialog(true).Do(cdp.WithExecutor(ctx, c.Target))
			}()
		}
	})
}

func (f *Filler) login(ctx context.Context, firstMedID string) error {
	start := f.settings.LoginURL
	if start == "" {
		start = f.settings.FormURL(firstMedID)
	}

	attempts := f.settings.LoginRetries
	if attempts < 1 || !f.settings.AutoLogin || !f.creds.Complete() {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		f.logger.InfoContext(ctx, "login_attempt",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Bool("auto_login", f.settings.AutoLogin))

		lastErr = f.loginOnce(ctx, start)
		if lastErr == nil {
			f.logger.InfoContext(ctx, "login_confirmed")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.WarnContext(ctx, "login_attempt_failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrLoginFailed, attempts, lastErr)
}

// loginOnce navigates to the start page and, when auto login is enabled,
// submits the credentials. It then waits up to BrowserTimeout for the
// browser to leave the login page, which covers manual login as well.
func (f *Filler) loginOnce(ctx context.Context, start string) error {
	navCtx, cancel := context.WithTimeout(ctx, f.settings.FormWaitTime)
	err := chromedp.Run(navCtx, chromedp.Navigate(start), chromedp.Reload())
	cancel()
	if err != nil {
		return fmt.Errorf("open %s: %w", start, err)
	}

	if f.settings.AutoLogin && f.creds.Complete() {
		formCtx, cancel := context.WithTimeout(ctx, f.settings.FormWaitTime)
		err := chromedp.Run(formCtx,
			chromedp.Click(SelectorLoginButton, chromedp.BySearch),
			chromedp.WaitVisible(SelectorUsername, chromedp.ByQuery),
			chromedp.SendKeys(SelectorUsername, f.creds.Username, chromedp.ByQuery),
			chromedp.SendKeys(SelectorPassword, f.creds.Password+"\r", chromedp.ByQuery),
		)
		cancel()
		if err != nil {
			return fmt.Errorf("submit credentials: %w", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.settings.BrowserTimeout)
	defer cancel()
	for {
		var location string
		if err := chromedp.Run(waitCtx, chromedp.Location(&location)); err != nil {
			return fmt.Errorf("read location: %w", err)
		}
		if !strings.Contains(strings.ToLower(location), "login") {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("still on login page after %s", f.settings.BrowserTimeout)
		case <-time.After(time.Second):
		}
	}
}

// fill opens one subject's form, enters every panel and saves
func (f *Filler) fill(ctx context.Context, s Subject) Outcome {
	start := time.Now()
	outcome := Outcome{MedID: s.MedID, Blocks: s.Blocks()}
	logger := f.logger.With(slog.String("med_id", s.MedID))

	if outcome.Blocks == 0 {
		outcome.Status = StatusSkipped
		return outcome
	}

	formCtx, cancel := context.WithTimeout(ctx, f.settings.FormWaitTime)
	err := chromedp.Run(formCtx,
		chromedp.Navigate(f.settings.FormURL(s.MedID)),
		chromedp.WaitVisible(SelectorPanel, chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		return f.failed(ctx, logger, outcome, start, fmt.Errorf("form did not load: %w", err))
	}

	for panel, blocks := range s.Panels {
		if len(blocks) == 0 {
			continue
		}
		panelCtx, cancel := context.WithTimeout(ctx, f.settings.FormWaitTime)
		err := chromedp.Run(panelCtx, panelActions(panel, blocks))
		cancel()
		if err != nil {
			return f.failed(ctx, logger, outcome, start, fmt.Errorf("panel %d: %w", panel, err))
		}
		logger.DebugContext(ctx, "panel_filled",
			slog.Int("panel", panel),
			slog.Int("blocks", len(blocks)))
	}

	saveCtx, cancel := context.WithTimeout(ctx, f.settings.FormWaitTime)
	err = chromedp.Run(saveCtx,
		chromedp.WaitEnabled(SelectorSave, chromedp.BySearch),
		chromedp.Click(SelectorSave, chromedp.BySearch),
	)
	cancel()
	if err != nil {
		return f.failed(ctx, logger, outcome, start, fmt.Errorf("save: %w", err))
	}

	outcome.Status = StatusSubmitted
	outcome.Duration = time.Since(start)
	logger.InfoContext(ctx, "form_submitted",
		slog.Int("blocks", outcome.Blocks),
		slog.Duration("duration", outcome.Duration))
	return outcome
}

func (f *Filler) failed(ctx context.Context, logger *slog.Logger, o Outcome, start time.Time, err error) Outcome {
	o.Status = StatusFailed
	o.Err = err
	o.Duration = time.Since(start)
	logger.ErrorContext(ctx, "form_failed",
		slog.Duration("duration", o.Duration),
		slog.String("error", err.Error()))
	return o
}

// panelActions expands a panel and types each block into its row of controls
func panelActions(panel int, blocks []Block) chromedp.Tasks {
	header := PanelSelector(panel) + ` mat-expansion-panel-header`
	tasks := chromedp.Tasks{
		chromedp.Click(header, chromedp.ByQuery),
		chromedp.WaitVisible(PanelSelector(panel)+` input`, chromedp.ByQuery),
	}
	for i, block := range blocks {
		for _, control := range sortedControls(block) {
			sel := ControlSelector(panel, i, control)
			tasks = append(tasks,
				chromedp.SetValue(sel, "", chromedp.ByQuery),
				chromedp.SendKeys(sel, block[control], chromedp.ByQuery),
			)
		}
	}
	return tasks
}

// PanelSelector addresses the expansion panel at index, zero based
func PanelSelector(panel int) string {
	return fmt.Sprintf("%s:nth-of-type(%d)", SelectorPanel, panel+1)
}

// ControlSelector addresses the control of the block-th address row in a panel
func ControlSelector(panel, block int, control string) string {
	return fmt.Sprintf(`%s [formcontrolname="%s"]:nth-of-type(%d)`, PanelSelector(panel), control, block+1)
}
