// Package config loads the rewriter configuration from a YAML file and
// REWRITER_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// MinTokenSecretLength is the shortest accepted admin token secret.
const MinTokenSecretLength = 16

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full service configuration.
type Config struct {
	Listen     string        `yaml:"listen" validate:"required"`
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	LoadPrefix string        `yaml:"load_prefix" validate:"required"`
	Log        LogConfig     `yaml:"log"`
	Store      StoreConfig   `yaml:"store"`
	Content    ContentConfig `yaml:"content"`
	Admin      AdminConfig   `yaml:"admin"`
	Server     ServerConfig  `yaml:"server"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects the route store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver" validate:"oneof=memory file redis"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
	Key      string `yaml:"key"`
}

// ContentConfig points at the content catalog.
type ContentConfig struct {
	Path         string `yaml:"path"`
	StripScripts bool   `yaml:"strip_scripts"`
}

// AdminConfig configures the admin API. The admin API is disabled when no
// users are configured.
type AdminConfig struct {
	Users         map[string]string `yaml:"users"`
	TokenSecret   string            `yaml:"token_secret"`
	TokenLifetime time.Duration     `yaml:"token_lifetime" validate:"gt=0"`
}

// Enabled reports whether the admin API should be mounted.
func (a AdminConfig) Enabled() bool {
	return len(a.Users) > 0
}

// ServerConfig holds HTTP server limits.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"gt=0"`
	Hostname        string        `yaml:"hostname"`

	// TrustedProxies lists peers whose X-Forwarded-* headers are honoured.
	// Empty means private and loopback ranges.
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,cidr|ip"`

	// CompressLevel is the gzip level for responses; zero disables
	// compression.
	CompressLevel int `yaml:"compress_level" validate:"min=0,max=9"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:     ":8080",
		BaseURL:    "http://localhost:8080",
		LoadPrefix: "wp-spa/load",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   "routes.json",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "rewriter:routes",
			},
		},
		Admin: AdminConfig{
			TokenLifetime: 24 * time.Hour,
		},
		Server: ServerConfig{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			HandlerTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			CompressLevel:   5,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks field constraints and the cross-field rules that tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				field, _ := strings.CutPrefix(fe.Namespace(), "Config.")
				msgs = append(msgs, fmt.Sprintf("%s failed %q", field, fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the file driver", ErrInvalid)
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis driver", ErrInvalid)
		}
	}

	if c.Admin.Enabled() && len(c.Admin.TokenSecret) < MinTokenSecretLength {
		return fmt.Errorf("%w: admin.token_secret must be at least %d characters", ErrInvalid, MinTokenSecretLength)
	}

	for user := range c.Admin.Users {
		if user == "" || strings.Contains(user, ":") {
			return fmt.Errorf("%w: admin user %q", ErrInvalid, user)
		}
	}

	return nil
}
