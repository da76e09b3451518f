// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Submit    SubmitConfig    `mapstructure:"submit" yaml:"submit"`
	Humanoid  HumanoidConfig  `mapstructure:"humanoid" yaml:"humanoid"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Form      FormConfig      `mapstructure:"form" yaml:"form"`
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driven by the session.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableGPU      bool           `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent       string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	Debug           bool           `mapstructure:"debug" yaml:"debug"`
}

// NetworkConfig tunes navigation and the network idle heuristic.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	IdleQuietWindow   time.Duration `mapstructure:"idle_quiet_window" yaml:"idle_quiet_window"`
	IdleMaxInflight   int           `mapstructure:"idle_max_inflight" yaml:"idle_max_inflight"`
}

// TimeoutsConfig bounds every blocking wait of the workflow.
type TimeoutsConfig struct {
	Body          time.Duration `mapstructure:"body" yaml:"body"`
	Element       time.Duration `mapstructure:"element" yaml:"element"`
	SubmitVisible time.Duration `mapstructure:"submit_visible" yaml:"submit_visible"`
	NetworkIdle   time.Duration `mapstructure:"network_idle" yaml:"network_idle"`
	ReadPage      time.Duration `mapstructure:"read_page" yaml:"read_page"`
	Screenshot    time.Duration `mapstructure:"screenshot" yaml:"screenshot"`
}

// SubmitConfig configures the click-with-retry step.
type SubmitConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// RetryDelay of zero re-attempts immediately.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// HumanoidConfig controls the typing cadence.
type HumanoidConfig struct {
	KeyDelayMin time.Duration `mapstructure:"key_delay_min" yaml:"key_delay_min"`
	KeyDelayMax time.Duration `mapstructure:"key_delay_max" yaml:"key_delay_max"`
	// Seed fixes the delay sequence when non-zero.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// Rhythm speeds up common digrams and trigrams.
	Rhythm bool `mapstructure:"rhythm" yaml:"rhythm"`
}

// ArtifactsConfig says where screenshots and run reports go.
type ArtifactsConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	FullPage bool   `mapstructure:"full_page" yaml:"full_page"`
	// Quality below 100 switches full page captures to JPEG.
	Quality     int  `mapstructure:"quality" yaml:"quality"`
	WriteReport bool `mapstructure:"write_report" yaml:"write_report"`
}

// FormConfig describes the single form this tool drives.
type FormConfig struct {
	URL     string          `mapstructure:"url" yaml:"url"`
	Fields  FieldLocators   `mapstructure:"fields" yaml:"fields"`
	Submit  string          `mapstructure:"submit" yaml:"submit"`
	Success SuccessCriteria `mapstructure:"success" yaml:"success"`
}

// FieldLocators maps each field role to a CSS selector.
type FieldLocators struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Email     string `mapstructure:"email" yaml:"email"`
	Phone     string `mapstructure:"phone" yaml:"phone"`
	Company   string `mapstructure:"company" yaml:"company"`
	Employees string `mapstructure:"employees" yaml:"employees"`
}

// SuccessCriteria is the two-stage confirmation configuration.
type SuccessCriteria struct {
	URLFragment   string   `mapstructure:"url_fragment" yaml:"url_fragment"`
	TextFragments []string `mapstructure:"text_fragments" yaml:"text_fragments"`
}

// RunConfig carries the values to submit and the interactive epilogue toggle.
type RunConfig struct {
	Data        RunData `mapstructure:"data" yaml:"data"`
	WaitForExit bool    `mapstructure:"wait_for_exit" yaml:"wait_for_exit"`
}

// RunData holds the caller-supplied field values.
type RunData struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Email     string `mapstructure:"email" yaml:"email"`
	Phone     string `mapstructure:"phone" yaml:"phone"`
	Company   string `mapstructure:"company" yaml:"company"`
	Employees string `mapstructure:"employees" yaml:"employees"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formpilot")
	v.SetDefault("logger.log_file", "logs/formpilot.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1366, "height": 768})

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.idle_quiet_window", "500ms")
	v.SetDefault("network.idle_max_inflight", 2)

	// -- Timeouts --
	v.SetDefault("timeouts.body", "30s")
	v.SetDefault("timeouts.element", "20s")
	v.SetDefault("timeouts.submit_visible", "10s")
	v.SetDefault("timeouts.network_idle", "30s")
	v.SetDefault("timeouts.read_page", "10s")
	v.SetDefault("timeouts.screenshot", "10s")

	// -- Submit --
	v.SetDefault("submit.max_attempts", 3)
	v.SetDefault("submit.retry_delay", "0s")

	// -- Humanoid --
	v.SetDefault("humanoid.key_delay_min", "50ms")
	v.SetDefault("humanoid.key_delay_max", "150ms")
	v.SetDefault("humanoid.seed", 0)
	v.SetDefault("humanoid.rhythm", false)

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "screenshots")
	v.SetDefault("artifacts.full_page", true)
	v.SetDefault("artifacts.quality", 100)
	v.SetDefault("artifacts.write_report", true)

	// -- Form --
	// Empty defaults keep the keys visible to AutomaticEnv.
	v.SetDefault("form.url", "")
	v.SetDefault("form.fields.name", "#name")
	v.SetDefault("form.fields.email", "#email")
	v.SetDefault("form.fields.phone", "#phone")
	v.SetDefault("form.fields.company", "#company")
	v.SetDefault("form.fields.employees", "#employees")
	v.SetDefault("form.submit", "button[type='submit']")
	v.SetDefault("form.success.url_fragment", "thank-you.html")
	v.SetDefault("form.success.text_fragments", []string{"Thank you!", "You'll hear from us soon."})

	// -- Run --
	v.SetDefault("run.wait_for_exit", true)
	for _, field := range []string{"name", "email", "phone", "company", "employees"} {
		v.SetDefault("run.data."+field, "")
	}
}

// Load unmarshals the viper state into a Config, expands paths and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves '~' in user supplied paths.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Artifacts.Dir, &c.Logger.LogFile, &c.Browser.ExecPath} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("could not resolve path '%s': %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Form.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("form: %w", err))
	}
	if c.Submit.MaxAttempts <= 0 {
		errs = append(errs, errors.New("submit.max_attempts must be a positive integer"))
	}
	if c.Submit.RetryDelay < 0 {
		errs = append(errs, errors.New("submit.retry_delay must not be negative"))
	}
	if err := c.Humanoid.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("humanoid: %w", err))
	}
	if err := c.Timeouts.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("timeouts: %w", err))
	}
	if c.Network.IdleMaxInflight < 0 {
		errs = append(errs, errors.New("network.idle_max_inflight must not be negative"))
	}
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		errs = append(errs, errors.New("artifacts.dir is required"))
	}
	return errors.Join(errs...)
}

// Validate checks that the form is fully described.
func (f *FormConfig) Validate() error {
	if strings.TrimSpace(f.URL) == "" {
		return errors.New("url is required (hint: set FORMPILOT_FORM_URL or --url)")
	}
	if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") && !strings.HasPrefix(f.URL, "file://") {
		return fmt.Errorf("url '%s' must use http, https or file scheme", f.URL)
	}
	missing := []string{}
	for name, loc := range map[string]string{
		"fields.name":    f.Fields.Name,
		"fields.email":   f.Fields.Email,
		"fields.phone":   f.Fields.Phone,
		"fields.company": f.Fields.Company,
		"submit":         f.Submit,
	} {
		if strings.TrimSpace(loc) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("locators are required for: %s", strings.Join(missing, ", "))
	}
	if f.Success.URLFragment == "" && len(f.Success.TextFragments) == 0 {
		return errors.New("success.url_fragment or success.text_fragments must be set")
	}
	return nil
}

// Validate checks the typing cadence bounds.
func (h *HumanoidConfig) Validate() error {
	if h.KeyDelayMin < 0 || h.KeyDelayMax < 0 {
		return errors.New("key delays must not be negative")
	}
	if h.KeyDelayMax < h.KeyDelayMin {
		return errors.New("key_delay_max must be greater than or equal to key_delay_min")
	}
	return nil
}

// Validate requires every wait to be bounded.
func (t *TimeoutsConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"body":           t.Body,
		"element":        t.Element,
		"submit_visible": t.SubmitVisible,
		"network_idle":   t.NetworkIdle,
		"read_page":      t.ReadPage,
		"screenshot":     t.Screenshot,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	return nil
}
