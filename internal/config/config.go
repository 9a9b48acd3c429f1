package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultFileName   = "rtfcheck.yaml"
	DefaultExtension  = ".rtf"
	DefaultLogFile    = "test_log.log"
	DefaultLoggerName = "rtfcheck"

	EnvDir       = "RTFCHECK_DIR"
	EnvLogFile   = "RTFCHECK_LOG_FILE"
	EnvExtractor = "RTFCHECK_EXTRACTOR"
)

type Config struct {
	Dir            string          `yaml:"dir" validate:"required"`
	Extension      string          `yaml:"extension" validate:"required,startswith=."`
	LogFile        string          `yaml:"log_file" validate:"required"`
	LogFormat      string          `yaml:"log_format" validate:"oneof=text ndjson"`
	LoggerName     string          `yaml:"logger_name" validate:"required"`
	Scenarios      []string        `yaml:"scenarios" validate:"dive,required"`
	CheckSignature bool            `yaml:"check_signature"`
	Extractor      ExtractorConfig `yaml:"extractor"`
}

type ExtractorConfig struct {
	Command    []string `yaml:"command" validate:"dive,required"`
	TimeoutSec int      `yaml:"timeout_sec" validate:"gte=0"`
}

type Paths struct {
	ConfigPath   string
	ConfigSource string
	EnvPath      string
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Extension) == "" {
		c.Extension = DefaultExtension
	}
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = DefaultLogFile
	}
	if strings.TrimSpace(c.LogFormat) == "" {
		c.LogFormat = "text"
	}
	if strings.TrimSpace(c.LoggerName) == "" {
		c.LoggerName = DefaultLoggerName
	}
	if c.Extractor.TimeoutSec <= 0 {
		c.Extractor.TimeoutSec = 30
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fully resolved config, after flags and environment
// overrides have been applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
