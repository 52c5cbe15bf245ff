// Package config loads the smoc host configuration from a YAML file, a .env
// file and SMOC_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvFlowURL      = "SMOC_FLOW_URL"
	EnvLang         = "SMOC_LANG"
	EnvMetricsAddr  = "SMOC_METRICS_ADDR"
	EnvRedisAddr    = "SMOC_REDIS_ADDR"
	EnvRedisChannel = "SMOC_REDIS_CHANNEL"
	EnvLogLevel     = "SMOC_LOG_LEVEL"
	EnvKeepalive    = "SMOC_KEEPALIVE"
)

// DefaultFile is read when it exists and no file is named explicitly.
const DefaultFile = "smoc.yaml"

var ErrInvalidConfig = errors.New("invalid configuration")

type TransportConfig struct {
	Keepalive    time.Duration `mapstructure:"keepalive"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	BackoffMax   time.Duration `mapstructure:"backoff_max"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	// Addr enables the status/metrics HTTP server, e.g. ":9090".
	Addr string `mapstructure:"addr"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Channel  string        `mapstructure:"channel"`
	ClaimTTL time.Duration `mapstructure:"claim_ttl"`
	// MaskPII lists the lead form field patterns masked in published events.
	// Unset means privacy.DefaultPIIPatterns; an empty list masks nothing.
	MaskPII []string `mapstructure:"mask_pii"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the host configuration.
type Config struct {
	FlowURL   string          `mapstructure:"flow_url"`
	Lang      string          `mapstructure:"lang"`
	Transport TransportConfig `mapstructure:"transport"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Transport: TransportConfig{
			Keepalive:    transport.DefaultKeepaliveInterval,
			BackoffBase:  transport.DefaultBaseDelay,
			BackoffMax:   transport.DefaultMaxDelay,
			WriteTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			ClaimTTL: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load returns the defaults overlaid with the file at path and the environment.
// An empty path reads DefaultFile when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the SMOC_* variables lookup finds.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvFlowURL, &cfg.FlowURL)
	set(EnvLang, &cfg.Lang)
	set(EnvMetricsAddr, &cfg.Metrics.Addr)
	set(EnvRedisAddr, &cfg.Redis.Addr)
	set(EnvRedisChannel, &cfg.Redis.Channel)
	set(EnvLogLevel, &cfg.Log.Level)

	if v, ok := lookup(EnvKeepalive); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			if secs, aerr := strconv.Atoi(v); aerr == nil {
				d = time.Duration(secs) * time.Second
			} else {
				return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvKeepalive, v, err)
			}
		}
		cfg.Transport.Keepalive = d
	}
	return nil
}

// Validate checks durations and the language.
func (c Config) Validate() error {
	t := c.Transport
	switch {
	case t.Keepalive <= 0:
		return fmt.Errorf("%w: transport.keepalive must be positive", ErrInvalidConfig)
	case t.BackoffBase <= 0:
		return fmt.Errorf("%w: transport.backoff_base must be positive", ErrInvalidConfig)
	case t.BackoffMax < t.BackoffBase:
		return fmt.Errorf("%w: transport.backoff_max is below backoff_base", ErrInvalidConfig)
	case t.WriteTimeout <= 0:
		return fmt.Errorf("%w: transport.write_timeout must be positive", ErrInvalidConfig)
	case c.Redis.Addr != "" && c.Redis.ClaimTTL < 0:
		return fmt.Errorf("%w: redis.claim_ttl is negative", ErrInvalidConfig)
	}
	return nil
}

// Language returns the configured language, mapped with domain.ToLang.
// The second result is false when no language is configured.
func (c Config) Language() (domain.Lang, bool) {
	if strings.TrimSpace(c.Lang) == "" {
		return domain.DefaultLang, false
	}
	return domain.ToLang(c.Lang), true
}

// TransportOptions converts the transport section into session options.
func (c Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithKeepaliveInterval(c.Transport.Keepalive),
		transport.WithBackoff(c.Transport.BackoffBase, c.Transport.BackoffMax),
		transport.WithWriteTimeout(c.Transport.WriteTimeout),
	}
}
