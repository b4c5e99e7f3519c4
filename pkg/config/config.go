package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-linkrouter/pkg/routes"
)

// Config captures the routing module configuration. Each package pulls from
// its nested section.
type Config struct {
	App           AppConfig           `mapstructure:"app" json:"app"`
	Screens       ScreensConfig       `mapstructure:"screens" json:"screens"`
	Router        RouterConfig        `mapstructure:"router" json:"router"`
	Notifications NotificationsConfig `mapstructure:"notifications" json:"notifications"`
	Backend       BackendConfig       `mapstructure:"backend" json:"backend"`
	Persistence   PersistenceConfig   `mapstructure:"persistence" json:"persistence"`
	Activity      ActivityConfig      `mapstructure:"activity" json:"activity"`
	Logging       LoggingConfig       `mapstructure:"logging" json:"logging"`
	Server        ServerConfig        `mapstructure:"server" json:"server"`
}

// AppConfig identifies the app's links.
type AppConfig struct {
	Scheme         string   `mapstructure:"scheme" json:"scheme"`
	ListingDomains []string `mapstructure:"listing_domains" json:"listing_domains"`
}

// ScreensConfig names navigation targets.
type ScreensConfig struct {
	Login   string `mapstructure:"login" json:"login"`
	Signup  string `mapstructure:"signup" json:"signup"`
	Scan    string `mapstructure:"scan" json:"scan"`
	Default string `mapstructure:"default" json:"default"`
}

// RouterConfig bounds buffering and notification dedup.
type RouterConfig struct {
	BufferSize       int  `mapstructure:"buffer_size" json:"buffer_size"`
	DisableDedup     bool `mapstructure:"disable_dedup" json:"disable_dedup"`
	DedupSize        int  `mapstructure:"dedup_size" json:"dedup_size"`
	ObserveDelivered bool `mapstructure:"observe_delivered" json:"observe_delivered"`
}

// NotificationsConfig layers per-type routes over the built-in table.
type NotificationsConfig struct {
	Routes map[string]NotificationRoute `mapstructure:"routes" json:"routes"`
}

// NotificationRoute overrides the screen for one notification type.
type NotificationRoute struct {
	Screen   string   `mapstructure:"screen" json:"screen"`
	Params   []string `mapstructure:"params" json:"params"`
	Require  string   `mapstructure:"require" json:"require"`
	Fallback string   `mapstructure:"fallback" json:"fallback"`
}

// BackendConfig points the verification handler at the API. An empty base
// URL disables verification calls.
type BackendConfig struct {
	BaseURL         string        `mapstructure:"base_url" json:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries" json:"max_retries"`
	BreakerFailures uint32        `mapstructure:"breaker_failures" json:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" json:"breaker_cooldown"`
}

// PersistenceConfig selects the history store.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
	// Retain bounds the memory store.
	Retain int `mapstructure:"retain" json:"retain"`
}

// ActivityConfig selects where route activity events go.
type ActivityConfig struct {
	Console bool          `mapstructure:"console" json:"console"`
	Webhook WebhookConfig `mapstructure:"webhook" json:"webhook"`
}

// WebhookConfig posts activity events to URL when set.
type WebhookConfig struct {
	URL           string            `mapstructure:"url" json:"url"`
	Method        string            `mapstructure:"method" json:"method"`
	Headers       map[string]string `mapstructure:"headers" json:"headers"`
	Timeout       time.Duration     `mapstructure:"timeout" json:"timeout"`
	BasicAuthUser string            `mapstructure:"basic_auth_user" json:"basic_auth_user"`
	BasicAuthPass string            `mapstructure:"basic_auth_pass" json:"basic_auth_pass"`
	DryRun        bool              `mapstructure:"dry_run" json:"dry_run"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
	// AllowAnyOrigin lets websocket shells connect from any origin.
	AllowAnyOrigin bool `mapstructure:"allow_any_origin" json:"allow_any_origin"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		App: AppConfig{Scheme: "bookyolo"},
		Screens: ScreensConfig{
			Login:   "Login",
			Signup:  "Signup",
			Scan:    "Scan",
			Default: "MainTabs",
		},
		Router: RouterConfig{
			BufferSize: 8,
			DedupSize:  64,
		},
		Backend: BackendConfig{
			Timeout:         10 * time.Second,
			MaxRetries:      2,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Persistence: PersistenceConfig{
			Driver: DriverMemory,
			DSN:    "file:linkrouter.db?cache=shared",
			Retain: 1000,
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8089"},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	scheme := strings.TrimSuffix(strings.TrimSpace(c.App.Scheme), ":")
	if scheme == "" {
		return errors.New("app.scheme is required")
	}
	if strings.ContainsAny(scheme, "/?# ") {
		return fmt.Errorf("app.scheme %q is not a valid scheme", c.App.Scheme)
	}
	if c.Router.BufferSize <= 0 {
		return fmt.Errorf("router.buffer_size must be > 0")
	}
	if c.Router.DedupSize < 0 {
		return fmt.Errorf("router.dedup_size must be >= 0")
	}
	for typ, route := range c.Notifications.Routes {
		if strings.TrimSpace(route.Screen) == "" {
			return fmt.Errorf("notifications.routes.%s.screen is required", typ)
		}
	}
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend.base_url %q must be an absolute http(s) url", c.Backend.BaseURL)
		}
	}
	if c.Activity.Webhook.URL != "" {
		u, err := url.Parse(c.Activity.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("activity.webhook.url %q must be an absolute http(s) url", c.Activity.Webhook.URL)
		}
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must be >= 0")
	}
	if c.Backend.Timeout < 0 || c.Backend.BreakerCooldown < 0 {
		return fmt.Errorf("backend durations must be >= 0")
	}
	switch c.Persistence.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("persistence.driver %q is not supported", c.Persistence.Driver)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	if raw, ok := input.(map[string]any); ok {
		normalized, err := normalizeDurations(raw)
		if err != nil {
			return Config{}, err
		}
		input = normalized
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()
	if settings.env != nil {
		cfg = ApplyEnv(cfg, settings.env)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
	env       func(string) (string, bool)
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

// WithEnv applies LINKROUTER_* overrides read through lookup (os.LookupEnv).
func WithEnv(lookup func(string) (string, bool)) LoadOption {
	return func(lo *loadOptions) {
		lo.env = lookup
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.App.Scheme == "" {
		c.App.Scheme = defaults.App.Scheme
	}
	if c.Screens.Login == "" {
		c.Screens.Login = defaults.Screens.Login
	}
	if c.Screens.Signup == "" {
		c.Screens.Signup = defaults.Screens.Signup
	}
	if c.Screens.Scan == "" {
		c.Screens.Scan = defaults.Screens.Scan
	}
	if c.Screens.Default == "" {
		c.Screens.Default = defaults.Screens.Default
	}
	if c.Router.BufferSize == 0 {
		c.Router.BufferSize = defaults.Router.BufferSize
	}
	if c.Router.DedupSize == 0 {
		c.Router.DedupSize = defaults.Router.DedupSize
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaults.Backend.Timeout
	}
	if c.Backend.BreakerFailures == 0 {
		c.Backend.BreakerFailures = defaults.Backend.BreakerFailures
	}
	if c.Backend.BreakerCooldown == 0 {
		c.Backend.BreakerCooldown = defaults.Backend.BreakerCooldown
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Persistence.DSN == "" {
		c.Persistence.DSN = defaults.Persistence.DSN
	}
	if c.Persistence.Retain == 0 {
		c.Persistence.Retain = defaults.Persistence.Retain
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}

// durationKeys are decoded from strings like "5s".
var durationKeys = map[string]bool{
	"timeout":          true,
	"breaker_cooldown": true,
}

// normalizeDurations rewrites duration strings to nanoseconds so the JSON
// decoder can fill time.Duration fields.
func normalizeDurations(input map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch v := value.(type) {
		case map[string]any:
			nested, err := normalizeDurations(v)
			if err != nil {
				return nil, err
			}
			out[key] = nested
		case string:
			if durationKeys[key] {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				out[key] = int64(d)
				continue
			}
			out[key] = v
		default:
			out[key] = v
		}
	}
	return out, nil
}

// RouteOverrides converts the configured notification routes for routes.Build.
func (c Config) RouteOverrides() map[string]routes.Route {
	if len(c.Notifications.Routes) == 0 {
		return nil
	}
	out := make(map[string]routes.Route, len(c.Notifications.Routes))
	for typ, route := range c.Notifications.Routes {
		out[typ] = routes.Route{
			Screen:   route.Screen,
			Params:   append([]string(nil), route.Params...),
			Require:  route.Require,
			Fallback: route.Fallback,
		}
	}
	return out
}
