package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REWRITER_"

type envBinding struct {
	name  string
	apply func(c *Config, value string) error
}

func stringVar(get func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*get(c) = v
		return nil
	}
}

func intVar(get func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*get(c) = n
		return nil
	}
}

func int64Var(get func(c *Config) *int64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*get(c) = n
		return nil
	}
}

func boolVar(get func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*get(c) = b
		return nil
	}
}

func durationVar(get func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*get(c) = d
		return nil
	}
}

// parseUsers parses "alice:secret,bob:hunter2".
func listVar(get func(c *Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*get(c) = out
		return nil
	}
}

func parseUsers(c *Config, v string) error {
	users := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, password, ok := strings.Cut(pair, ":")
		if !ok || user == "" {
			return fmt.Errorf("want user:password, got %q", pair)
		}
		users[user] = password
	}
	c.Admin.Users = users
	return nil
}

var envBindings = []envBinding{
	{"LISTEN", stringVar(func(c *Config) *string { return &c.Listen })},
	{"BASE_URL", stringVar(func(c *Config) *string { return &c.BaseURL })},
	{"LOAD_PREFIX", stringVar(func(c *Config) *string { return &c.LoadPrefix })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Log.Format })},
	{"STORE_DRIVER", stringVar(func(c *Config) *string { return &c.Store.Driver })},
	{"STORE_PATH", stringVar(func(c *Config) *string { return &c.Store.Path })},
	{"REDIS_ADDR", stringVar(func(c *Config) *string { return &c.Store.Redis.Addr })},
	{"REDIS_PASSWORD", stringVar(func(c *Config) *string { return &c.Store.Redis.Password })},
	{"REDIS_DB", intVar(func(c *Config) *int { return &c.Store.Redis.DB })},
	{"REDIS_KEY", stringVar(func(c *Config) *string { return &c.Store.Redis.Key })},
	{"CONTENT_PATH", stringVar(func(c *Config) *string { return &c.Content.Path })},
	{"CONTENT_STRIP_SCRIPTS", boolVar(func(c *Config) *bool { return &c.Content.StripScripts })},
	{"ADMIN_USERS", parseUsers},
	{"ADMIN_TOKEN_SECRET", stringVar(func(c *Config) *string { return &c.Admin.TokenSecret })},
	{"ADMIN_TOKEN_LIFETIME", durationVar(func(c *Config) *time.Duration { return &c.Admin.TokenLifetime })},
	{"SERVER_HANDLER_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Server.HandlerTimeout })},
	{"SERVER_MAX_BODY_BYTES", int64Var(func(c *Config) *int64 { return &c.Server.MaxBodyBytes })},
	{"SERVER_HOSTNAME", stringVar(func(c *Config) *string { return &c.Server.Hostname })},
	{"SERVER_TRUSTED_PROXIES", listVar(func(c *Config) *[]string { return &c.Server.TrustedProxies })},
	{"SERVER_COMPRESS_LEVEL", intVar(func(c *Config) *int { return &c.Server.CompressLevel })},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		name := EnvPrefix + b.name
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
	}
	return nil
}
