package autofill

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"qcsuite/internal/config"
)

// EnvPrefix is the prefix of the legacy environment fallbacks
const EnvPrefix = "RHQ"

// MedIDPlaceholder is replaced by the subject ID in URL templates
const MedIDPlaceholder = "{med_id}"

// ErrNoURLTemplate is returned when neither config nor environment sets a form URL
var ErrNoURLTemplate = errors.New("form url_template not configured")

// Settings control a browser session
type Settings struct {
	URLTemplate      string
	LoginURL         string
	BrowserTimeout   time.Duration
	FormWaitTime     time.Duration
	LoginRetries     int
	AutoLogin        bool
	Headless         bool
	SubmitsPerMinute float64
}

// envFallback mirrors the RHQ_* variables honoured when config leaves a field empty
type envFallback struct {
	URLTemplate    string        `envconfig:"URL_TEMPLATE"`
	BrowserTimeout time.Duration `envconfig:"BROWSER_TIMEOUT"`
	FormWaitTime   time.Duration `envconfig:"FORM_WAIT_TIME"`
	AutoLogin      string        `envconfig:"AUTO_LOGIN"`
}

// Credentials are read from RHQ_USERNAME and RHQ_PASSWORD
type Credentials struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// Complete reports whether both username and password are set
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// LoadCredentials reads credentials from the environment
func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	return c, nil
}

// SettingsFromConfig builds settings from the form_autofill section, filling
// empty or zero fields from RHQ_URL_TEMPLATE, RHQ_BROWSER_TIMEOUT,
// RHQ_FORM_WAIT_TIME and RHQ_AUTO_LOGIN.
func SettingsFromConfig(cfg config.FormAutofillConfig) (Settings, error) {
	s := Settings{
		URLTemplate:      cfg.URLTemplate,
		LoginURL:         cfg.LoginURL,
		BrowserTimeout:   cfg.BrowserTimeout,
		FormWaitTime:     cfg.FormWaitTime,
		LoginRetries:     cfg.LoginRetryAttempts,
		AutoLogin:        cfg.AutoLogin,
		Headless:         cfg.Headless,
		SubmitsPerMinute: cfg.SubmitsPerMinute,
	}

	var env envFallback
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Settings{}, fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	if s.URLTemplate == "" {
		s.URLTemplate = env.URLTemplate
	}
	if s.BrowserTimeout <= 0 {
		s.BrowserTimeout = env.BrowserTimeout
	}
	if s.FormWaitTime <= 0 {
		s.FormWaitTime = env.FormWaitTime
	}
	if !s.AutoLogin && env.AutoLogin != "" {
		s.AutoLogin = isTrue(env.AutoLogin)
	}
	return s, s.Validate()
}

// Validate checks that the settings can drive a session
func (s Settings) Validate() error {
	if s.URLTemplate == "" {
		return ErrNoURLTemplate
	}
	if !strings.Contains(s.URLTemplate, MedIDPlaceholder) {
		return fmt.Errorf("url_template %q lacks %s", s.URLTemplate, MedIDPlaceholder)
	}
	if s.BrowserTimeout <= 0 || s.FormWaitTime <= 0 {
		return fmt.Errorf("browser_timeout and form_wait_time must be positive")
	}
	if s.SubmitsPerMinute <= 0 {
		return fmt.Errorf("submits_per_minute must be positive")
	}
	return nil
}

// FormURL returns the form address of one subject
func (s Settings) FormURL(medID string) string {
	return strings.ReplaceAll(s.URLTemplate, MedIDPlaceholder, medID)
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
