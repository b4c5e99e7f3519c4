package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvPrefix scopes environment overrides.
const EnvPrefix = "LINKROUTER_"

// LoadFile reads a TOML file and runs it through Load.
func LoadFile(path string, opts ...LoadOption) (Config, error) {
	raw := map[string]any{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return Load(raw, opts...)
}

// ParseTOML decodes TOML source text into a config.
func ParseTOML(src string, opts ...LoadOption) (Config, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(src, &raw); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return Load(raw, opts...)
}

// LookupOS reads overrides from the process environment.
func LookupOS(key string) (string, bool) {
	return os.LookupEnv(key)
}

// ApplyEnv overlays LINKROUTER_* variables on cfg. Unparseable numbers are
// ignored and left to Validate.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("SCHEME", &cfg.App.Scheme)
	if v, ok := lookup(EnvPrefix + "LISTING_DOMAINS"); ok && strings.TrimSpace(v) != "" {
		var domains []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
		cfg.App.ListingDomains = domains
	}
	str("BACKEND_URL", &cfg.Backend.BaseURL)
	num("BACKEND_MAX_RETRIES", &cfg.Backend.MaxRetries)
	num("BUFFER_SIZE", &cfg.Router.BufferSize)
	str("ACTIVITY_WEBHOOK_URL", &cfg.Activity.Webhook.URL)
	str("DB_DRIVER", &cfg.Persistence.Driver)
	str("DB_DSN", &cfg.Persistence.DSN)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("ADDR", &cfg.Server.Addr)
	return cfg
}
