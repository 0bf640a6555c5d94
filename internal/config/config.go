package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CHATCUBE"

type Config struct {
	ServerURL            string        `mapstructure:"server_url"`
	Username             string        `mapstructure:"username"`
	PingPeriod           time.Duration `mapstructure:"ping_period"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	WriteWait            time.Duration `mapstructure:"write_wait"`
	DialTimeout          time.Duration `mapstructure:"dial_timeout"`
	ReadLimit            int64         `mapstructure:"read_limit"`
	SendBuffer           int           `mapstructure:"send_buffer"`
	SendRateLimit        int           `mapstructure:"send_rate_limit"`
	SendRateInterval     time.Duration `mapstructure:"send_rate_interval"`
	StatusAddr           string        `mapstructure:"status_addr"`
	StatusSecret         string        `mapstructure:"status_secret"`
	Mode                 string        `mapstructure:"mode"`
	LogLevel             string        `mapstructure:"log_level"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default), then the
// CHATCUBE_* environment, then any flags that were set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env), flags)
}

// LoadFrom is Load with an explicit file. A missing file is not an error.
func LoadFrom(fileName string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("server_url", "ws://localhost:8080/ws")
	v.SetDefault("username", "")
	v.SetDefault("ping_period", "30s")
	v.SetDefault("reconnect_delay", "3s")
	v.SetDefault("max_reconnect_attempts", 5)
	v.SetDefault("write_wait", "10s")
	v.SetDefault("dial_timeout", "10s")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("send_buffer", 64)
	v.SetDefault("send_rate_limit", 5)
	v.SetDefault("send_rate_interval", "1s")
	v.SetDefault("status_addr", "")
	v.SetDefault("status_secret", "")
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("server", cfg.ServerURL).
		Str("status_addr", cfg.StatusAddr).
		Str("mode", cfg.Mode).
		Msg("config ready")
	return &cfg, nil
}

// bindFlags maps --status-addr style flags onto status_addr keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if key == "server" {
			key = "server_url"
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.ServerURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("server_url: %w", err))
	case u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("server_url: scheme must be ws or wss, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("server_url: missing host"))
	}
	for name, d := range map[string]time.Duration{
		"ping_period":     c.PingPeriod,
		"reconnect_delay": c.ReconnectDelay,
		"write_wait":      c.WriteWait,
		"dial_timeout":    c.DialTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.MaxReconnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_reconnect_attempts must be at least 1, got %d", c.MaxReconnectAttempts))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("read_limit must be positive, got %d", c.ReadLimit))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer))
	}
	if c.Mode != "release" && c.Mode != "debug" {
		errs = append(errs, fmt.Errorf("mode must be release or debug, got %q", c.Mode))
	}
	return errors.Join(errs...)
}
