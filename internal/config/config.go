/*
Package config loads the report configuration from defaults, an optional YAML
file, an optional .env file and the process environment, in that order.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Timezone string      `yaml:"timezone" envconfig:"ASX_TIMEZONE"`
	Schedule string      `yaml:"schedule" envconfig:"ASX_SCHEDULE"`
	Log      LogConfig   `yaml:"log"`
	Listing  Listing     `yaml:"listing"`
	Prices   Prices      `yaml:"prices"`
	Output   Output      `yaml:"output"`
	Email    EmailConfig `yaml:"email"`
	AI       AIConfig    `yaml:"ai"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT" validate:"oneof=console json"`
}

// Listing configures the announcement listing source.
type Listing struct {
	TodayEndpoint string        `yaml:"today_endpoint" envconfig:"ASX_TODAY_ENDPOINT" validate:"required,url"`
	PriorEndpoint string        `yaml:"prior_endpoint" envconfig:"ASX_PRIOR_ENDPOINT" validate:"required,url"`
	BaseURL       string        `yaml:"base_url" envconfig:"ASX_BASE_URL" validate:"required,url"`
	TableSelector string        `yaml:"table_selector" envconfig:"ASX_TABLE_SELECTOR" validate:"required"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"ASX_TIMEOUT" validate:"gt=0"`
}

// Prices configures the price history source.
type Prices struct {
	BaseURL           string        `yaml:"base_url" envconfig:"PRICES_BASE_URL" validate:"required,url"`
	SymbolSuffix      string        `yaml:"symbol_suffix" envconfig:"PRICES_SYMBOL_SUFFIX"`
	LookupWindowDays  int           `yaml:"lookup_window_days" envconfig:"PRICES_LOOKUP_WINDOW_DAYS" validate:"min=1"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"PRICES_TIMEOUT" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"PRICES_REQUESTS_PER_SECOND" validate:"gte=0"`
	MaxAttempts       int           `yaml:"max_attempts" envconfig:"PRICES_MAX_ATTEMPTS" validate:"min=1"`
	Workers           int           `yaml:"workers" envconfig:"PRICES_WORKERS" validate:"min=1"`
}

type Output struct {
	Dir          string `yaml:"dir" envconfig:"OUTPUT_DIR"`
	PathTemplate string `yaml:"path_template" envconfig:"OUTPUT_PATH_TEMPLATE" validate:"required"`
}

type EmailConfig struct {
	SMTPServer string   `yaml:"smtp_server" envconfig:"SMTP_SERVER"`
	SMTPPort   int      `yaml:"smtp_port" envconfig:"SMTP_PORT" validate:"min=1,max=65535"`
	SMTPUser   string   `yaml:"smtp_user" envconfig:"SMTP_USER"`
	SMTPPass   string   `yaml:"smtp_pass" envconfig:"SMTP_PASS"`
	FromEmail  string   `yaml:"from_email" envconfig:"FROM_EMAIL" validate:"omitempty,email"`
	ToEmails   []string `yaml:"to_emails" envconfig:"TO_EMAILS" validate:"dive,email"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.SMTPUser != "" && e.SMTPPass != "" && len(e.ToEmails) > 0
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`
	Model        string `yaml:"model" envconfig:"GEMINI_MODEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timezone: "Australia/Sydney",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Listing: Listing{
			TodayEndpoint: "https://www.asx.com.au/asx/v2/statistics/todayAnns.do",
			PriorEndpoint: "https://www.asx.com.au/asx/v2/statistics/prevBusDayAnns.do",
			BaseURL:       "https://www.asx.com.au",
			TableSelector: "announcement_data",
			Timeout:       30 * time.Second,
		},
		Prices: Prices{
			BaseURL:           "https://query1.finance.yahoo.com",
			SymbolSuffix:      ".AX",
			LookupWindowDays:  1,
			Timeout:           20 * time.Second,
			RequestsPerSecond: 4,
			MaxAttempts:       3,
			Workers:           1,
		},
		Output: Output{
			Dir:          ".",
			PathTemplate: "asx_announcements_{{.Date}}.csv",
		},
		Email: EmailConfig{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   465,
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used. A missing .env file is ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = cfg.Email.SMTPUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their YAML path.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid time zone name '%s': %w", c.Timezone, err))
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Join(append(errs, err)...)
		}
		for _, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				errs = append(errs, fmt.Errorf("%s fails %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value()))
				continue
			}
			errs = append(errs, fmt.Errorf("%s fails %s, got %q", field, fe.Tag(), fmt.Sprint(fe.Value())))
		}
	}
	return errors.Join(errs...)
}

// Location returns the configured exchange time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
