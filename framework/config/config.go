package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's option store — mirrors Flask's app.config
// dict. Options are string-keyed; an explicitly Set value always wins
// over environment variables, which in turn win over defaults applied
// via SetDefault.
//
// Options are expected to be written during bootstrap only. Reads during
// request handling are cheap and safe; the internal lock exists so that
// extensions attached from tests running in parallel stay race-free.
type Config struct {
	App AppConfig

	mu       sync.RWMutex
	explicit map[string]string // Set / LoadYAML values
	defaults map[string]string // SetDefault values
}

// AppConfig is the typed core section populated from the environment.
type AppConfig struct {
	Name  string
	Env   string // development | production | testing
	Debug bool
	Port  string
}

// Load reads .env files (if present) and builds a Config from the
// environment. Call once at bootstrap:
//
//	cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoFlask"),
			Env:   env("APP_ENV", "development"),
			Debug: envBool("APP_DEBUG", true),
			Port:  env("APP_PORT", "5000"),
		},
		explicit: make(map[string]string),
		defaults: make(map[string]string),
	}
}

// ── Option access ────────────────────────────────────────────────────────────

// Get returns the option value for key, resolving in order: explicit
// Set value, environment variable, SetDefault value, then fallback.
func (c *Config) Get(key string, fallback ...string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.explicit[key]; ok {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := c.defaults[key]; ok {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

// GetInt returns an option parsed as int.
func (c *Config) GetInt(key string, fallback int) int {
	v := c.Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// GetBool returns an option parsed as bool.
func (c *Config) GetBool(key string, fallback bool) bool {
	v := c.Get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetDuration returns an option parsed with time.ParseDuration.
func (c *Config) GetDuration(key string, fallback time.Duration) time.Duration {
	v := c.Get(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Has reports whether the user supplied key explicitly — via Set,
// LoadYAML, or a non-empty environment variable. Defaults recorded
// with SetDefault do not count.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.explicit[key]; ok {
		return true
	}
	return os.Getenv(key) != ""
}

// Set stores an explicit option value, overriding the environment and
// any default.
//
//	// Flask: app.config['SQLITE3_DATABASE'] = '/var/db/app.db'
//	cfg.Set("SQLITE3_DATABASE", "/var/db/app.db")
func (c *Config) Set(key, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explicit[key] = val
}

// SetDefault records a default for key. The default is only observed
// when the user never supplied the option — an explicit Set or a
// non-empty environment variable always wins, and a later Set still
// overrides a default recorded here.
//
//	// Flask: app.config.setdefault('SQLITE3_DATABASE', ':memory:')
//	cfg.SetDefault("SQLITE3_DATABASE", ":memory:")
func (c *Config) SetDefault(key, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defaults[key]; !ok {
		c.defaults[key] = val
	}
}

// ── File loading ─────────────────────────────────────────────────────────────

// LoadYAML merges options from a YAML file of scalar values — the
// counterpart of Flask's app.config.from_file. Loaded values count as
// explicit, so defaults applied later by extensions do not override
// them. Nested mappings are flattened with dots: db.host → "db.host".
func (c *Config) LoadYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	flattenInto(c.explicit, "", doc)
	return nil
}

func flattenInto(dst map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(dst, key, t)
		case nil:
			dst[key] = ""
		default:
			dst[key] = fmt.Sprintf("%v", t)
		}
	}
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
