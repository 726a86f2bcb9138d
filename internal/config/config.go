package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	StudyName         string                  `yaml:"study_name" envconfig:"STUDY_NAME" default:"HABS"`
	DefaultPipeline   string                  `yaml:"default_pipeline" envconfig:"DEFAULT_PIPELINE"`
	IDColumns         []string                `yaml:"id_columns" envconfig:"ID_COLUMNS" default:"Med_ID,Visit_ID" validate:"min=1,dive,required"`
	Domains           []string                `yaml:"domains" envconfig:"DOMAINS" validate:"dive,required"`
	Paths             PathsConfig             `yaml:"paths" envconfig:"PATHS"`
	Logging           LoggingConfig           `yaml:"logging" envconfig:"LOGGING"`
	Telemetry         TelemetryConfig         `yaml:"telemetry" envconfig:"TELEMETRY"`
	DictionaryChecker DictionaryCheckerConfig `yaml:"dictionary_checker" envconfig:"DICTIONARY_CHECKER"`
	Tools             ToolsConfig             `yaml:"tools" envconfig:"TOOLS"`
	Pipelines         map[string]PipelineDef  `yaml:"pipelines" ignored:"true" validate:"dive"`

	// source is the file the configuration was read from, empty for env-only
	source string
}

// PathsConfig describes the on-disk layout of the study
type PathsConfig struct {
	ProjectRoot  string            `yaml:"project_root" envconfig:"PROJECT_ROOT"`
	DomainsDir   string            `yaml:"domains_dir" envconfig:"DOMAINS_DIR" default:"domains"`
	DomainLayout map[string]string `yaml:"domain_layout" envconfig:"DOMAIN_LAYOUT"`
	Global       map[string]string `yaml:"global" envconfig:"GLOBAL"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/qcsuite.log"`
}

// TelemetryConfig controls span and metric export for pipeline runs
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	TraceFile   string  `yaml:"trace_file" envconfig:"TRACE_FILE" default:"logs/traces.json"`
	MetricsFile string  `yaml:"metrics_file" envconfig:"METRICS_FILE" default:"logs/qcsuite.prom"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0" validate:"gte=0,lte=1"`
}

// DictionaryCheckerConfig holds validator settings for the dictionary-driven checker
type DictionaryCheckerConfig struct {
	OutlierMethod string  `yaml:"outlier_method" envconfig:"OUTLIER_METHOD" default:"IQR" validate:"oneof=IQR STD"`
	STDThreshold  float64 `yaml:"std_threshold" envconfig:"STD_THRESHOLD" default:"3.0" validate:"gt=0"`
	RareThreshold int     `yaml:"rare_threshold" envconfig:"RARE_THRESHOLD" default:"2" validate:"gte=1"`
	DateFormat    string  `yaml:"date_format" envconfig:"DATE_FORMAT" default:"%m/%Y" validate:"required"`
	MinRange      float64 `yaml:"min_range" envconfig:"MIN_RANGE" default:"1.0" validate:"gte=0"`
	// Plugins holds per-validator overrides keyed by validator name
	Plugins map[string]map[string]interface{} `yaml:"plugins" ignored:"true"`
}

// ToolsConfig groups the settings of the individual tools
type ToolsConfig struct {
	ScoreTotals        ScoreTotalsConfig        `yaml:"score_totals" envconfig:"SCORE_TOTALS"`
	FeatureChange      FeatureChangeConfig      `yaml:"feature_change" envconfig:"FEATURE_CHANGE"`
	ReleaseConsistency ReleaseConsistencyConfig `yaml:"release_consistency" envconfig:"RELEASE_CONSISTENCY"`
	DateStandardizer   DateStandardizerConfig   `yaml:"date_standardizer" envconfig:"DATE_STANDARDIZER"`
	Supplements        SupplementsConfig        `yaml:"supplements" envconfig:"SUPPLEMENTS"`
	FormAutofill       FormAutofillConfig       `yaml:"form_autofill" envconfig:"FORM_AUTOFILL"`
}

// ScoreTotalsConfig configures the score totals checker
type ScoreTotalsConfig struct {
	Tolerance float64 `yaml:"tolerance" envconfig:"TOLERANCE" default:"0.000001" validate:"gte=0"`
	// Totals maps a total column to its component columns; empty means auto-detect
	Totals map[string][]string `yaml:"totals" ignored:"true"`
}

// FeatureChangeConfig configures the feature change checker
type FeatureChangeConfig struct {
	Feature    string `yaml:"feature" envconfig:"FEATURE" default:"CDX_Cog" validate:"required"`
	Categorize bool   `yaml:"categorize" envconfig:"CATEGORIZE" default:"true"`
}

// ReleaseConsistencyConfig configures release comparison
type ReleaseConsistencyConfig struct {
	Mode         string   `yaml:"mode" envconfig:"MODE" default:"standard" validate:"oneof=standard old_only"`
	MissingCodes []string `yaml:"missing_codes" envconfig:"MISSING_CODES" default:"-9999"`
}

// DateStandardizerConfig configures the date format standardizer
type DateStandardizerConfig struct {
	TargetFormat string `yaml:"target_format" envconfig:"TARGET_FORMAT" default:"%Y-%m-%d" validate:"required"`
}

// SupplementsConfig configures the supplement tools
type SupplementsConfig struct {
	UpdateExisting bool   `yaml:"update_existing" envconfig:"UPDATE_EXISTING" default:"false"`
	MissingCode    string `yaml:"missing_code" envconfig:"MISSING_CODE" default:"-9999"`
	LeftoverName   string `yaml:"leftover_name" envconfig:"LEFTOVER_NAME" default:"Leftover"`
}

// FormAutofillConfig configures the browser form autofiller
type FormAutofillConfig struct {
	URLTemplate        string        `yaml:"url_template" envconfig:"URL_TEMPLATE"`
	LoginURL           string        `yaml:"login_url" envconfig:"LOGIN_URL"`
	BrowserTimeout     time.Duration `yaml:"browser_timeout" envconfig:"BROWSER_TIMEOUT" default:"60s"`
	FormWaitTime       time.Duration `yaml:"form_wait_time" envconfig:"FORM_WAIT_TIME" default:"10s"`
	LoginRetryAttempts int           `yaml:"login_retry_attempts" envconfig:"LOGIN_RETRY_ATTEMPTS" default:"3" validate:"gte=0"`
	AutoLogin          bool          `yaml:"auto_login" envconfig:"AUTO_LOGIN" default:"false"`
	Headless           bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	SubmitsPerMinute   float64       `yaml:"submits_per_minute" envconfig:"SUBMITS_PER_MINUTE" default:"20" validate:"gt=0"`
}

// ErrNoConfigFile is returned by Load when an explicit config path does not exist
var ErrNoConfigFile = errors.New("config file not found")

// Load loads configuration from environment variables and the YAML file.
// An empty path means DefaultConfigFile in the working directory; if that
// file is absent the environment alone is used.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case os.IsNotExist(err) && !explicit:
		data = nil
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrNoConfigFile, path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	source := ""
	if data != nil {
		source = path
	}
	return parse(data, source)
}

// Parse builds a Config from env defaults overlaid with YAML data, then validates it.
// Nil data yields an environment-only configuration. Relative paths are
// anchored on the working directory.
func Parse(data []byte) (*Config, error) {
	return parse(data, "")
}

func parse(data []byte, source string) (*Config, error) {
	cfg := Config{source: source}

	// Environment and tag defaults first, the file overrides whatever it sets
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if len(data) > 0 {
		// Unknown or misplaced keys are rejected rather than ignored
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Paths.DomainLayout == nil {
		c.Paths.DomainLayout = make(map[string]string)
	}
	for key, tmpl := range defaultDomainLayout {
		if _, ok := c.Paths.DomainLayout[key]; !ok {
			c.Paths.DomainLayout[key] = tmpl
		}
	}
	if c.Paths.Global == nil {
		c.Paths.Global = make(map[string]string)
	}
	for key, p := range defaultGlobalPaths {
		if _, ok := c.Paths.Global[key]; !ok {
			c.Paths.Global[key] = p
		}
	}
	if c.Pipelines == nil {
		c.Pipelines = make(map[string]PipelineDef)
	}
	for i := range c.IDColumns {
		c.IDColumns[i] = strings.TrimSpace(c.IDColumns[i])
	}
}

var validate = validator.New()

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		if seen[d] {
			return fmt.Errorf("domain %q listed more than once", d)
		}
		seen[d] = true
	}

	if c.DefaultPipeline != "" {
		if _, ok := c.Pipelines[c.DefaultPipeline]; !ok {
			return fmt.Errorf("default_pipeline %q is not defined", c.DefaultPipeline)
		}
	}
	return nil
}

// resolvePaths anchors a relative project root on the config file location,
// then the log and telemetry files on the project root
func (c *Config) resolvePaths() error {
	root := c.Paths.ProjectRoot
	if root == "" || !filepath.IsAbs(root) {
		base := "."
		if c.source != "" {
			base = filepath.Dir(c.source)
		}
		abs, err := filepath.Abs(filepath.Join(base, root))
		if err != nil {
			return err
		}
		root = abs
	}
	c.Paths.ProjectRoot = root

	c.Logging.FilePath = c.ResolvePath(c.Logging.FilePath)
	c.Telemetry.TraceFile = c.ResolvePath(c.Telemetry.TraceFile)
	c.Telemetry.MetricsFile = c.ResolvePath(c.Telemetry.MetricsFile)
	return nil
}

// Source returns the path of the loaded config file, or "" when env-only
func (c *Config) Source() string {
	return c.source
}

// PipelineNames returns the configured pipeline names in sorted order
func (c *Config) PipelineNames() []string {
	names := make([]string, 0, len(c.Pipelines))
	for name := range c.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
