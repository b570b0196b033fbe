// Package config handles configuration loading, validation, and defaults
// for sysinput.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version"`

	// Buffer configuration for the internal text model.
	Buffer BufferConfig `toml:"buffer"`

	// Field configuration for foreign control binding.
	Field FieldConfig `toml:"field"`

	// Engine configuration for the sync engine.
	Engine EngineConfig `toml:"engine"`

	// Verify configuration for post-insertion verification.
	Verify VerifyConfig `toml:"verify"`

	// Insertion configuration for the strategy executors.
	Insertion InsertionConfig `toml:"insertion"`

	// Dictionary configuration for word lists and frequencies.
	Dictionary DictionaryConfig `toml:"dictionary"`

	// Suggest configuration for candidate ranking.
	Suggest SuggestConfig `toml:"suggest"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`
}

// BufferConfig holds text model configuration.
type BufferConfig struct {
	// Capacity is the fixed gap buffer capacity in bytes.
	Capacity int `toml:"capacity"`
}

// FieldConfig holds foreign control binding configuration.
type FieldConfig struct {
	// MaxReadBytes bounds how much text is read out of a foreign field.
	MaxReadBytes int `toml:"max_read_bytes"`

	// ExtraEditableClasses adds window class prefixes to the built-in
	// list of classes treated as text fields. Lowercased prefix match.
	ExtraEditableClasses []string `toml:"extra_editable_classes"`
}

// EngineConfig holds sync engine configuration.
type EngineConfig struct {
	// RetryDelayMs is the pause between insertion attempts.
	RetryDelayMs int `toml:"retry_delay_ms"`

	// RecheckDelayMs is the pause before re-reading the field when the
	// first verification read does not match.
	RecheckDelayMs int `toml:"recheck_delay_ms"`

	// DetectEvery rebinds the focused field after this many keystrokes.
	DetectEvery int `toml:"detect_every"`

	// StrategyOrder overrides the default strategy priority. Names are
	// "clipboard-paste", "key-typing", "direct-replace", "full-rewrite".
	StrategyOrder []string `toml:"strategy_order"`
}

// VerifyConfig holds verification tier thresholds.
type VerifyConfig struct {
	// ShortTextMax is the length at or below which exact comparison is used.
	ShortTextMax int `toml:"short_text_max"`

	// PrefixLen is the prefix length compared when substring search fails.
	PrefixLen int `toml:"prefix_len"`

	// SimilarityThreshold is the minimum similarity accepted by the
	// final tier, in [0,1].
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// InsertionConfig holds executor timing configuration.
type InsertionConfig struct {
	// InterKeyDelayMs is the pause between simulated keystrokes.
	InterKeyDelayMs int `toml:"inter_key_delay_ms"`

	// PasteSettleMs is the pause after a paste chord before verification.
	PasteSettleMs int `toml:"paste_settle_ms"`
}

// DictionaryConfig holds word list configuration.
type DictionaryConfig struct {
	// WordlistPath is the path to the base word list, one word per line.
	// Empty means the embedded list only.
	WordlistPath string `toml:"wordlist_path"`

	// UserWordlistPath is the path to the user's JSON word list.
	UserWordlistPath string `toml:"user_wordlist_path"`

	// FrequencyDBPath is the path to the word frequency database.
	FrequencyDBPath string `toml:"frequency_db_path"`

	// WatchUserWordlist reloads the user word list when the file changes.
	WatchUserWordlist bool `toml:"watch_user_wordlist"`

	// MinPrefixLen is the minimum typed prefix before lookups run.
	MinPrefixLen int `toml:"min_prefix_len"`
}

// SuggestConfig holds candidate ranking configuration.
type SuggestConfig struct {
	// MaxCandidates is the maximum number of suggestions produced.
	MaxCandidates int `toml:"max_candidates"`

	// CacheSize is the number of prefix lookups kept in the LRU cache.
	CacheSize int `toml:"cache_size"`

	// FuzzyThreshold is the minimum Jaro-Winkler score for a fuzzy
	// match to be offered, in [0,1].
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// Output is "stdout", "stderr", "file" or "both".
	Output string `toml:"output"`

	// FilePath is the log file path when Output includes "file".
	FilePath string `toml:"file_path"`

	// RedactContent strips typed text from log records.
	RedactContent bool `toml:"redact_content"`
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path. A missing file is not
// an error; defaults are returned. Values present in the file override the
// defaults, then SYSINPUT_* environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Dictionary.FrequencyDBPath),
		filepath.Dir(c.Dictionary.UserWordlistPath),
		filepath.Dir(c.Logging.FilePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies SYSINPUT_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SYSINPUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SYSINPUT_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("SYSINPUT_WORDLIST_PATH"); v != "" {
		c.Dictionary.WordlistPath = v
	}
	if v := os.Getenv("SYSINPUT_FREQUENCY_DB"); v != "" {
		c.Dictionary.FrequencyDBPath = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Field.ExtraEditableClasses = append([]string{}, c.Field.ExtraEditableClasses...)
	clone.Engine.StrategyOrder = append([]string{}, c.Engine.StrategyOrder...)
	return &clone
}
