package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/fsutil"
	"github.com/deploymenttheory/go-workflow-composer/internal/osutil"
	"github.com/deploymenttheory/go-workflow-composer/internal/surveys"
	"github.com/deploymenttheory/go-workflow-composer/internal/urlutil"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "go-workflow-composer"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "WORKFLOW_COMPOSER"
)

// Version is overridden at build time with -ldflags "-X .../internal/config.Version=..."
var Version = "0.1.0"

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Workflow service settings
	Service struct {
		BaseURL   string        `mapstructure:"base_url"`
		UIURL     string        `mapstructure:"ui_url"`
		APIKey    string        `mapstructure:"api_key"`
		Timeout   time.Duration `mapstructure:"timeout"`
		UserAgent string        `mapstructure:"user_agent"`
	} `mapstructure:"service"`

	// TopSurveys workflow parameter defaults
	Survey struct {
		SiteURL            string          `mapstructure:"site_url"`
		Username           string          `mapstructure:"username"`
		Password           string          `mapstructure:"password"`
		Persona            surveys.Persona `mapstructure:"persona"`
		MaxSurveysPerRun   int             `mapstructure:"max_surveys_per_run"`
		SurveyDelaySeconds int             `mapstructure:"survey_delay_seconds"`
	} `mapstructure:"survey"`

	// Local record settings; an empty path disables that record
	Record struct {
		Path      string `mapstructure:"path"`
		HistoryDB string `mapstructure:"history_db"`
	} `mapstructure:"record"`
}

// SurveyOptions returns the survey workflow options the configuration describes
func (c *AppConfig) SurveyOptions() surveys.Options {
	return surveys.Options{
		SiteURL:            c.Survey.SiteURL,
		Username:           c.Survey.Username,
		Password:           c.Survey.Password,
		Persona:            c.Survey.Persona,
		MaxSurveysPerRun:   c.Survey.MaxSurveysPerRun,
		SurveyDelaySeconds: c.Survey.SurveyDelaySeconds,
	}
}

// Validate rejects settings no command can work with
func (c *AppConfig) Validate() error {
	var errs []error

	urls := []struct{ key, value string }{
		{"service.base_url", c.Service.BaseURL},
		{"service.ui_url", c.Service.UIURL},
		{"survey.site_url", c.Survey.SiteURL},
	}
	for _, u := range urls {
		if err := urlutil.ValidateURL(u.value); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", errors.ErrConfigInvalid, u.key, err))
		}
	}
	if c.Service.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: service.timeout must be positive, got %s", errors.ErrConfigInvalid, c.Service.Timeout))
	}
	if c.Survey.MaxSurveysPerRun <= 0 {
		errs = append(errs, fmt.Errorf("%w: survey.max_surveys_per_run must be positive, got %d", errors.ErrConfigInvalid, c.Survey.MaxSurveysPerRun))
	}
	if c.Survey.SurveyDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: survey.survey_delay_seconds must not be negative, got %d", errors.ErrConfigInvalid, c.Survey.SurveyDelaySeconds))
	}
	if c.Survey.Persona.Age <= 0 {
		errs = append(errs, fmt.Errorf("%w: survey.persona.age must be positive, got %d", errors.ErrConfigInvalid, c.Survey.Persona.Age))
	}
	if c.LogFormat != "human" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%w: log_format must be human or json, got %q", errors.ErrConfigInvalid, c.LogFormat))
	}

	return errors.Join(errs...)
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string
)

// FlagBindings maps command-line flag names to configuration keys
var FlagBindings = map[string]string{
	"debug":          "debug",
	"log-format":     "log_format",
	"log-file":       "log_file",
	"base-url":       "service.base_url",
	"ui-url":         "service.ui_url",
	"api-key":        "service.api_key",
	"timeout":        "service.timeout",
	"site-url":       "survey.site_url",
	"username":       "survey.username",
	"password":       "survey.password",
	"persona-name":   "survey.persona.name",
	"persona-age":    "survey.persona.age",
	"persona-gender": "survey.persona.gender",
	"persona-income": "survey.persona.income",
	"education":      "survey.persona.education",
	"employment":     "survey.persona.employment",
	"location":       "survey.persona.location",
	"max-surveys":    "survey.max_surveys_per_run",
	"survey-delay":   "survey.survey_delay_seconds",
	"record-path":    "record.path",
	"history-db":     "record.history_db",
}

// envAliases are accepted alongside the prefixed variable names
var envAliases = map[string][]string{
	"service.api_key":  {"SKYVERN_API_KEY"},
	"service.base_url": {"SKYVERN_BASE_URL"},
}

// Load builds a configuration from flags, environment, config file and
// defaults, highest precedence first. A missing config file is not an
// error; an unreadable or invalid one is.
func Load(cfgFile string, flags *pflag.FlagSet) (*AppConfig, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Load configuration from file if specified
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	// Set up environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrConfigParseError, err)
		}
	}

	if flags != nil {
		for name, key := range FlagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("%w: %v", errors.ErrConfigParseError, err)
				}
			}
		}
	}

	// Read configuration file
	ConfigLoaded, ConfigFile = false, ""
	if readErr := v.ReadInConfig(); readErr != nil {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: error reading config file: %v", errors.ErrConfigParseError, readErr)
		}
	} else {
		ConfigLoaded = true
		ConfigFile = v.ConfigFileUsed()
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigParseError, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Initialize loads the configuration into Instance
func Initialize(cfgFile string, flags *pflag.FlagSet) error {
	cfg, err := Load(cfgFile, flags)
	if err != nil {
		return err
	}
	Instance = *cfg
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")

	// Workflow service
	v.SetDefault("service.base_url", "http://localhost:8000")
	v.SetDefault("service.ui_url", "http://localhost:8080")
	v.SetDefault("service.api_key", "")
	v.SetDefault("service.timeout", 30*time.Second)
	v.SetDefault("service.user_agent", AppName+"/"+Version)

	// Survey workflow
	persona := surveys.DefaultPersona()
	opts := surveys.DefaultOptions()
	v.SetDefault("survey.site_url", opts.SiteURL)
	v.SetDefault("survey.username", "")
	v.SetDefault("survey.password", "")
	v.SetDefault("survey.persona.name", persona.Name)
	v.SetDefault("survey.persona.age", persona.Age)
	v.SetDefault("survey.persona.gender", persona.Gender)
	v.SetDefault("survey.persona.income", persona.Income)
	v.SetDefault("survey.persona.education", persona.Education)
	v.SetDefault("survey.persona.employment", persona.Employment)
	v.SetDefault("survey.persona.location", persona.Location)
	v.SetDefault("survey.max_surveys_per_run", opts.MaxSurveysPerRun)
	v.SetDefault("survey.survey_delay_seconds", opts.SurveyDelaySeconds)

	// Records
	v.SetDefault("record.path", "topsurveys_workflow_info.json")
	dataDir, err := fsutil.GetDataDir(AppName)
	if err == nil {
		v.SetDefault("record.history_db", filepath.Join(dataDir, "history.db"))
	} else {
		v.SetDefault("record.history_db", "history.db")
	}
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	// In CI/Pipeline, only use the current directory
	if osutil.IsRunningInPipeline() {
		return
	}

	if configDir, err := fsutil.GetConfigDir(AppName); err == nil {
		v.AddConfigPath(configDir)
	}

	if systemConfigDir, err := fsutil.GetSystemConfigDir(AppName); err == nil {
		v.AddConfigPath(systemConfigDir)
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
