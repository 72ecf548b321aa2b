package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
)

var validate = validator.New()

// Config holds the application configuration loaded from config files,
// environment variables, .env files and flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string `validate:"omitempty,oneof=table json yaml"`

	// Config file
	ConfigFile string

	// Service connection
	Host        string        `validate:"required"`
	Protocol    string        `validate:"oneof=http https"`
	Method      string        `validate:"oneof=GET POST"`
	Timeout     time.Duration `validate:"gt=0"`
	RetryMax    int           `validate:"min=0"`
	Token       string
	CacheSize   int           `validate:"min=0"`
	MetadataTTL time.Duration `validate:"min=0"`
	Concurrency int           `validate:"min=1,max=32"`

	// Run settings
	Mode     string `validate:"oneof=batch single"`
	PageSize int    `validate:"min=1"`

	// Logging configuration
	LogLevel  string
	LogFormat string `validate:"omitempty,oneof=auto json console pretty"`
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied by cobra on top of this config)
//  2. Environment variables (PERIODO_*)
//  3. .env files
//  4. Config file (~/.periodo-recon.yaml or ./.periodo-recon.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()
	return loadConfig(os.Getenv(constants.EnvPrefix + "_CONFIG"))
}

// loadConfig reads defaults, the environment and an optional config file.
// An explicit configFile must exist; the default search locations may not.
func loadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.WrapConfiguration("config", err)
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Host:        v.GetString("host"),
		Protocol:    v.GetString("protocol"),
		Method:      strings.ToUpper(v.GetString("method")),
		Timeout:     v.GetDuration("timeout"),
		RetryMax:    v.GetInt("retry_max"),
		Token:       v.GetString("token"),
		CacheSize:   v.GetInt("cache_size"),
		MetadataTTL: v.GetDuration("metadata_ttl"),
		Concurrency: v.GetInt("concurrency"),

		Mode:     v.GetString("mode"),
		PageSize: v.GetInt("page_size"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", constants.DefaultHost)
	v.SetDefault("protocol", constants.DefaultProtocol)
	v.SetDefault("method", constants.DefaultMethod)
	v.SetDefault("timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("retry_max", constants.DefaultRetryMax)
	v.SetDefault("cache_size", constants.DefaultCacheSize)
	v.SetDefault("metadata_ttl", constants.MetadataTTL)
	v.SetDefault("concurrency", constants.DefaultConcurrency)
	v.SetDefault("mode", constants.DefaultMode)
	v.SetDefault("page_size", constants.DefaultPageSize)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// UpdateFromFlags updates config with the global output flags.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// MergeUnset copies every setting from other whose flag was not set on the
// command line. It is used when --config names a file after startup.
func (c *Config) MergeUnset(other *Config, changed func(flag string) bool) {
	c.ConfigFile = other.ConfigFile
	if !changed("host") {
		c.Host = other.Host
	}
	if !changed("protocol") {
		c.Protocol = other.Protocol
	}
	if !changed("method") {
		c.Method = other.Method
	}
	if !changed("timeout") {
		c.Timeout = other.Timeout
	}
	if !changed("retries") {
		c.RetryMax = other.RetryMax
	}
	if !changed("token") {
		c.Token = other.Token
	}
	if !changed("cache-size") {
		c.CacheSize = other.CacheSize
	}
	if !changed("concurrency") {
		c.Concurrency = other.Concurrency
	}
	if !changed("mode") {
		c.Mode = other.Mode
	}
	if !changed("format") {
		c.Format = other.Format
	}
	if !changed("log-level") {
		c.LogLevel = other.LogLevel
	}
	c.MetadataTTL = other.MetadataTTL
	c.PageSize = other.PageSize
	c.LogFormat = other.LogFormat
	c.LogOutput = other.LogOutput
}

// Validate checks the configuration after flags are applied.
func (c *Config) Validate() error {
	c.Method = strings.ToUpper(c.Method)
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewConfigurationError(strings.ToLower(fe.Field()),
				fmt.Sprintf("value %v fails %s", fe.Value(), describeTag(fe)))
		}
		return errors.WrapConfiguration("config", err)
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// Load never overrides a variable that is already set, so the
		// first file wins.
		_ = godotenv.Load(envFile)
	}
}
