package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
)

// Config represents the complete pantry configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Favorites FavoritesConfig `yaml:"favorites" json:"favorites"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// IndexConfig configures the upstream recipe index client.
// Durations are Go duration strings ("10s", "250ms").
type IndexConfig struct {
	BaseURL            string `yaml:"base_url" json:"base_url"`
	Timeout            string `yaml:"timeout" json:"timeout"`
	MaxRetries         int    `yaml:"max_retries" json:"max_retries"`
	RetryDelay         string `yaml:"retry_delay" json:"retry_delay"`
	CircuitMaxFailures int    `yaml:"circuit_max_failures" json:"circuit_max_failures"`
	CircuitReset       string `yaml:"circuit_reset" json:"circuit_reset"`
}

// SearchConfig configures the multi-ingredient aggregator.
type SearchConfig struct {
	// VerifyParallelism bounds concurrent detail lookups during verification.
	VerifyParallelism int `yaml:"verify_parallelism" json:"verify_parallelism"`

	// MaxTerms caps the number of ingredients in one search.
	MaxTerms int `yaml:"max_terms" json:"max_terms"`
}

// CacheConfig configures the in-memory LRU in front of the index.
// A size of zero disables caching.
type CacheConfig struct {
	Size int `yaml:"size" json:"size"`
}

// FavoritesConfig selects the favorites store backend.
type FavoritesConfig struct {
	Backend string `yaml:"backend" json:"backend"` // sqlite | file | memory
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// TelemetryConfig configures local search statistics. Nothing leaves the machine.
type TelemetryConfig struct {
	// Enabled is a pointer so a file can turn telemetry off explicitly.
	Enabled *bool  `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// IsEnabled reports whether search statistics are recorded.
func (t TelemetryConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Defaults.
const (
	DefaultBaseURL            = "https://www.themealdb.com/api/json/v1/1"
	DefaultTimeout            = "10s"
	DefaultMaxRetries         = 2
	DefaultRetryDelay         = "250ms"
	DefaultCircuitMaxFailures = 5
	DefaultCircuitReset       = "30s"
	DefaultVerifyParallelism  = 8
	DefaultMaxTerms           = 10
	DefaultCacheSize          = 256
	DefaultFavoritesBackend   = "sqlite"
	DefaultLogLevel           = "info"
	DefaultLogMaxSizeMB       = 10
	DefaultLogMaxFiles        = 5
)

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			BaseURL:            DefaultBaseURL,
			Timeout:            DefaultTimeout,
			MaxRetries:         DefaultMaxRetries,
			RetryDelay:         DefaultRetryDelay,
			CircuitMaxFailures: DefaultCircuitMaxFailures,
			CircuitReset:       DefaultCircuitReset,
		},
		Search: SearchConfig{
			VerifyParallelism: DefaultVerifyParallelism,
			MaxTerms:          DefaultMaxTerms,
		},
		Cache: CacheConfig{
			Size: DefaultCacheSize,
		},
		Favorites: FavoritesConfig{
			Backend: DefaultFavoritesBackend,
			Path:    defaultFavoritesPath(DefaultFavoritesBackend),
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			MaxSizeMB: DefaultLogMaxSizeMB,
			MaxFiles:  DefaultLogMaxFiles,
		},
		Telemetry: TelemetryConfig{
			Enabled: boolPtr(true),
			Path:    filepath.Join(DataDir(), "telemetry.db"),
		},
	}
}

func boolPtr(b bool) *bool { return &b }

// DataDir returns ~/.pantry, falling back to the temp dir without a home.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".pantry")
	}
	return filepath.Join(home, ".pantry")
}

func defaultFavoritesPath(backend string) string {
	switch strings.ToLower(backend) {
	case "file":
		return filepath.Join(DataDir(), "favorites.json")
	case "memory":
		return ""
	default:
		return filepath.Join(DataDir(), "favorites.db")
	}
}

// GetUserConfigPath returns the path to the user config file.
// Respects XDG_CONFIG_HOME, defaulting to ~/.config/pantry/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pantry", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "pantry", "config.yaml")
	}
	return filepath.Join(home, ".config", "pantry", "config.yaml")
}

// GetUserConfigDir returns the directory holding the user config file.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether a user config file is present.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := readYAML(configPath, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// LoadUserConfig returns the defaults merged with the user config file,
// without project or environment overrides.
func LoadUserConfig() (*Config, error) {
	cfg := NewConfig()
	userCfg, err := loadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}
	return cfg, nil
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/pantry/config.yaml)
//  3. Project config (.pantry.yaml or .pantry.yml in dir)
//  4. Environment variables (PANTRY_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, perrors.ConfigError("invalid configuration: "+err.Error(), err).
			WithSuggestion("Fix the setting in the file shown by 'pantry config path' or the PANTRY_* environment")
	}

	return cfg, nil
}

// loadFromFile merges .pantry.yaml, or .pantry.yml when the former is absent.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".pantry.yaml", ".pantry.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	var parsed Config
	if err := readYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func readYAML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return perrors.ConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err), err).
			WithDetail("path", path)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.BaseURL != "" {
		c.Index.BaseURL = other.Index.BaseURL
	}
	if other.Index.Timeout != "" {
		c.Index.Timeout = other.Index.Timeout
	}
	if other.Index.MaxRetries != 0 {
		c.Index.MaxRetries = other.Index.MaxRetries
	}
	if other.Index.RetryDelay != "" {
		c.Index.RetryDelay = other.Index.RetryDelay
	}
	if other.Index.CircuitMaxFailures != 0 {
		c.Index.CircuitMaxFailures = other.Index.CircuitMaxFailures
	}
	if other.Index.CircuitReset != "" {
		c.Index.CircuitReset = other.Index.CircuitReset
	}

	if other.Search.VerifyParallelism != 0 {
		c.Search.VerifyParallelism = other.Search.VerifyParallelism
	}
	if other.Search.MaxTerms != 0 {
		c.Search.MaxTerms = other.Search.MaxTerms
	}

	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}

	// Switching backend without a path moves the path to that backend's default.
	if other.Favorites.Backend != "" {
		if other.Favorites.Backend != c.Favorites.Backend && other.Favorites.Path == "" {
			c.Favorites.Path = defaultFavoritesPath(other.Favorites.Backend)
		}
		c.Favorites.Backend = other.Favorites.Backend
	}
	if other.Favorites.Path != "" {
		c.Favorites.Path = other.Favorites.Path
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Telemetry.Enabled != nil {
		c.Telemetry.Enabled = boolPtr(*other.Telemetry.Enabled)
	}
	if other.Telemetry.Path != "" {
		c.Telemetry.Path = other.Telemetry.Path
	}
}

// applyEnvOverrides applies PANTRY_* variables. Empty or unparsable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PANTRY_BASE_URL"); v != "" {
		c.Index.BaseURL = v
	}
	if v := os.Getenv("PANTRY_TIMEOUT"); v != "" {
		c.Index.Timeout = v
	}
	// Zero is meaningful here: it disables retries.
	if v := os.Getenv("PANTRY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Index.MaxRetries = n
		}
	}
	if v := os.Getenv("PANTRY_VERIFY_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.VerifyParallelism = n
		}
	}
	if v := os.Getenv("PANTRY_MAX_TERMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxTerms = n
		}
	}
	if v := os.Getenv("PANTRY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Cache.Size = n
		}
	}
	if v := os.Getenv("PANTRY_FAVORITES_BACKEND"); v != "" {
		if v != c.Favorites.Backend && os.Getenv("PANTRY_FAVORITES_PATH") == "" {
			c.Favorites.Path = defaultFavoritesPath(v)
		}
		c.Favorites.Backend = v
	}
	if v := os.Getenv("PANTRY_FAVORITES_PATH"); v != "" {
		c.Favorites.Path = v
	}
	if v := os.Getenv("PANTRY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PANTRY_TELEMETRY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = boolPtr(b)
		}
	}
	if v := os.Getenv("PANTRY_TELEMETRY_PATH"); v != "" {
		c.Telemetry.Path = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Index.BaseURL == "" {
		return fmt.Errorf("index.base_url must not be empty")
	}
	if !strings.HasPrefix(c.Index.BaseURL, "http://") && !strings.HasPrefix(c.Index.BaseURL, "https://") {
		return fmt.Errorf("index.base_url must be an http(s) URL, got %s", c.Index.BaseURL)
	}
	for name, v := range map[string]string{
		"index.timeout":       c.Index.Timeout,
		"index.retry_delay":   c.Index.RetryDelay,
		"index.circuit_reset": c.Index.CircuitReset,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration, got %q", name, v)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, v)
		}
	}
	if c.Index.MaxRetries < 0 {
		return fmt.Errorf("index.max_retries must be non-negative, got %d", c.Index.MaxRetries)
	}
	if c.Index.CircuitMaxFailures < 1 {
		return fmt.Errorf("index.circuit_max_failures must be at least 1, got %d", c.Index.CircuitMaxFailures)
	}

	if c.Search.VerifyParallelism < 1 {
		return fmt.Errorf("search.verify_parallelism must be at least 1, got %d", c.Search.VerifyParallelism)
	}
	if c.Search.MaxTerms < 1 {
		return fmt.Errorf("search.max_terms must be at least 1, got %d", c.Search.MaxTerms)
	}

	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must be non-negative, got %d", c.Cache.Size)
	}

	switch strings.ToLower(c.Favorites.Backend) {
	case "sqlite", "file":
		if c.Favorites.Path == "" {
			return fmt.Errorf("favorites.path is required for the %s backend", c.Favorites.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("favorites.backend must be 'sqlite', 'file', or 'memory', got %s", c.Favorites.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_size_mb and logging.max_files must be non-negative")
	}

	if c.Telemetry.IsEnabled() && c.Telemetry.Path == "" {
		return fmt.Errorf("telemetry.path is required when telemetry is enabled")
	}

	return nil
}

// TimeoutDuration returns index.timeout parsed, or the default when invalid.
func (c *IndexConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultTimeout)
}

// RetryDelayDuration returns index.retry_delay parsed, or the default when invalid.
func (c *IndexConfig) RetryDelayDuration() time.Duration {
	return parseDuration(c.RetryDelay, DefaultRetryDelay)
}

// CircuitResetDuration returns index.circuit_reset parsed, or the default when invalid.
func (c *IndexConfig) CircuitResetDuration() time.Duration {
	return parseDuration(c.CircuitReset, DefaultCircuitReset)
}

func parseDuration(v, fallback string) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// WriteYAML writes the configuration to a YAML file, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteTemplate writes a commented YAML template to path after checking it
// parses as a Config.
func WriteTemplate(path, tmpl string) error {
	var parsed Config
	if err := yaml.Unmarshal([]byte(tmpl), &parsed); err != nil {
		return fmt.Errorf("invalid config template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(tmpl), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
