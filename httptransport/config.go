package httptransport

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "APIFETCH"
	defaultTimeout = 10 * time.Second
)

// Config holds the remote API settings.
type Config struct {
	APIRoot string            `mapstructure:"api_root"`
	Headers map[string]string `mapstructure:"headers"`
	// Timeout bounds each call through its context; a per-call value may exceed the base one.
	Timeout time.Duration     `mapstructure:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: defaultTimeout,
	}
}

// LoadConfig loads the configuration from the file at path (if not empty)
// and APIFETCH_* environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("api_root", "")
	v.SetDefault("timeout", defaultTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.APIRoot == "" {
		return Config{}, ErrMissingAPIRoot
	}

	return cfg, nil
}

// merge returns c overridden by the non-empty fields of o.
func (c Config) merge(o Config) Config {
	if o.APIRoot != "" {
		c.APIRoot = o.APIRoot
	}

	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}

	if len(o.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(o.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range o.Headers {
			headers[k] = v
		}
		c.Headers = headers
	}

	return c
}
