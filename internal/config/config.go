package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

// ProjectFileName is the per-vault configuration file.
const ProjectFileName = ".notelink.yaml"

// projectFileNameAlt is accepted when ProjectFileName is absent.
const projectFileNameAlt = ".notelink.yml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTELINK_"

// Config represents the complete notelink configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Linking LinkingConfig `yaml:"linking" json:"linking"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LinkingConfig configures keyword extraction and connection thresholds.
type LinkingConfig struct {
	// MinSharedKeywords is the number of shared keywords that connects two notes.
	MinSharedKeywords int `yaml:"min_shared_keywords" json:"min_shared_keywords" validate:"gte=1"`
	// KeywordsPerNote is the signature size K.
	KeywordsPerNote int `yaml:"keywords_per_note" json:"keywords_per_note" validate:"gte=1,lte=1000"`
	// Strategy is "pairwise" or "inverted".
	Strategy string `yaml:"strategy" json:"strategy" validate:"oneof=pairwise inverted"`
	// ExtraStopwords are excluded from signatures on top of the English list.
	ExtraStopwords []string `yaml:"extra_stopwords,omitempty" json:"extra_stopwords,omitempty" validate:"dive,required"`
}

// PathsConfig configures which files in a vault are notes.
type PathsConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions" validate:"min=1,dive,startswith=."`
	Exclude    []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// RespectIgnoreFiles enables .gitignore/.notelinkignore parsing. Nil means true.
	RespectIgnoreFiles *bool `yaml:"respect_ignore_files,omitempty" json:"respect_ignore_files,omitempty"`
	// MaxFileSize in bytes; larger notes are reported and left unchanged.
	// Zero selects 10MB.
	MaxFileSize int64 `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty" validate:"gte=0"`
}

// StorageConfig configures the document store.
type StorageConfig struct {
	// Path of the database. Empty selects <vault>/.notelink/notes.db;
	// relative paths resolve against the vault root.
	Path string `yaml:"path" json:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce" validate:"required"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Linking: LinkingConfig{
			MinSharedKeywords: 3,
			KeywordsPerNote:   20,
			Strategy:          "pairwise",
		},
		Paths: PathsConfig{
			Extensions: []string{".md"},
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// IgnoreFilesEnabled reports whether ignore files inside the vault are honored.
func (p PathsConfig) IgnoreFilesEnabled() bool {
	return p.RespectIgnoreFiles == nil || *p.RespectIgnoreFiles
}

// DatabasePath resolves the database location for a vault.
func (s StorageConfig) DatabasePath(vaultRoot string) string {
	switch {
	case s.Path == "":
		return filepath.Join(vaultRoot, ".notelink", "notes.db")
	case filepath.IsAbs(s.Path):
		return s.Path
	default:
		return filepath.Join(vaultRoot, s.Path)
	}
}

// DebounceDuration parses Debounce. Invalid values fall back to 500ms;
// Validate rejects them before this is reached.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetUserConfigPath returns the path to the user configuration file.
// Respects XDG_CONFIG_HOME, defaulting to ~/.config/notelink/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notelink", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "notelink", "config.yaml")
	}
	return filepath.Join(home, ".config", "notelink", "config.yaml")
}

// UserConfigExists returns true if the user config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the vault config file in use, or the default
// location when none exists yet.
func ProjectConfigPath(vaultRoot string) string {
	alt := filepath.Join(vaultRoot, projectFileNameAlt)
	primary := filepath.Join(vaultRoot, ProjectFileName)
	if !fileExists(primary) && fileExists(alt) {
		return alt
	}
	return primary
}

// Load loads configuration for a vault.
// Priority: defaults < user config < vault config < environment.
func Load(vaultRoot string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if vaultRoot != "" {
		if p := ProjectConfigPath(vaultRoot); fileExists(p) {
			if err := cfg.loadYAML(p); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML merges the YAML file at path into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nlerrors.ConfigError("failed to read config file", err).WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nlerrors.ConfigError("failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax or regenerate it with 'notelink config init --force'")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Linking.MinSharedKeywords != 0 {
		c.Linking.MinSharedKeywords = other.Linking.MinSharedKeywords
	}
	if other.Linking.KeywordsPerNote != 0 {
		c.Linking.KeywordsPerNote = other.Linking.KeywordsPerNote
	}
	if other.Linking.Strategy != "" {
		c.Linking.Strategy = other.Linking.Strategy
	}
	if len(other.Linking.ExtraStopwords) > 0 {
		c.Linking.ExtraStopwords = appendUnique(c.Linking.ExtraStopwords, other.Linking.ExtraStopwords...)
	}

	if len(other.Paths.Extensions) > 0 {
		c.Paths.Extensions = other.Paths.Extensions
	}
	// Exclude patterns accumulate across layers.
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = appendUnique(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Paths.RespectIgnoreFiles != nil {
		v := *other.Paths.RespectIgnoreFiles
		c.Paths.RespectIgnoreFiles = &v
	}
	if other.Paths.MaxFileSize != 0 {
		c.Paths.MaxFileSize = other.Paths.MaxFileSize
	}

	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies NOTELINK_* environment variables.
func (c *Config) applyEnvOverrides() error {
	intVar := func(name string, dst *int) error {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nlerrors.ConfigError("invalid environment override", err).
				WithDetail("variable", EnvPrefix+name)
		}
		*dst = n
		return nil
	}

	if err := intVar("MIN_SHARED_KEYWORDS", &c.Linking.MinSharedKeywords); err != nil {
		return err
	}
	if err := intVar("KEYWORDS_PER_NOTE", &c.Linking.KeywordsPerNote); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "STRATEGY"); v != "" {
		c.Linking.Strategy = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvPrefix + "EXTRA_STOPWORDS"); v != "" {
		c.Linking.ExtraStopwords = appendUnique(c.Linking.ExtraStopwords, splitList(v)...)
	}
	if v := os.Getenv(EnvPrefix + "EXCLUDE"); v != "" {
		c.Paths.Exclude = appendUnique(c.Paths.Exclude, splitList(v)...)
	}
	if v := os.Getenv(EnvPrefix + "STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvPrefix + "WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
			}
			return nlerrors.ConfigError("invalid configuration", fmt.Errorf("%s", strings.Join(msgs, "; ")))
		}
		return nlerrors.ConfigError("invalid configuration", err)
	}

	if c.Linking.MinSharedKeywords > c.Linking.KeywordsPerNote {
		return nlerrors.ConfigError("invalid configuration", fmt.Errorf(
			"linking.min_shared_keywords (%d) cannot exceed linking.keywords_per_note (%d)",
			c.Linking.MinSharedKeywords, c.Linking.KeywordsPerNote))
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
		return nlerrors.ConfigError("invalid configuration",
			fmt.Errorf("watch.debounce must be a positive duration, got %q", c.Watch.Debounce))
	}

	for _, w := range c.Linking.ExtraStopwords {
		if strings.Contains(w, ",") {
			return nlerrors.ConfigError("invalid configuration",
				fmt.Errorf("linking.extra_stopwords entry %q contains a comma", w))
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[d] = true
	}
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			dst = append(dst, it)
		}
	}
	return dst
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
