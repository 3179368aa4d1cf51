// Package config loads prosecheck settings from a TOML or YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/JackWReid/prosecheck/internal/damage"
	"github.com/JackWReid/prosecheck/internal/logs"
	"github.com/JackWReid/prosecheck/internal/spell"
	"github.com/JackWReid/prosecheck/internal/spelling"
)

// ErrUnknownFormat is returned for a config file that is neither TOML nor
// YAML.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Spelling holds the spell checking settings.
type Spelling struct {
	Enabled                bool              `toml:"enabled" yaml:"enabled"`
	WordBatch              int               `toml:"word_batch" yaml:"word_batch"`
	TickIntervalMS         int               `toml:"tick_interval_ms" yaml:"tick_interval_ms"`
	MaxSuggestions         int               `toml:"max_suggestions" yaml:"max_suggestions"`
	SuggestionDepth        int               `toml:"suggestion_depth" yaml:"suggestion_depth"`
	ScoreGap               int               `toml:"score_gap" yaml:"score_gap"`
	MinWordLength          int               `toml:"min_word_length" yaml:"min_word_length"`
	IgnoreUppercase        bool              `toml:"ignore_uppercase" yaml:"ignore_uppercase"`
	IgnoreWordsWithNumbers bool              `toml:"ignore_words_with_numbers" yaml:"ignore_words_with_numbers"`
	UserDictionary         string            `toml:"user_dictionary" yaml:"user_dictionary"`
	CommitStrategy         string            `toml:"commit_strategy" yaml:"commit_strategy"`
	AutoReplace            map[string]string `toml:"auto_replace" yaml:"auto_replace"`
	ConditionalReplace     map[string]string `toml:"conditional_replace" yaml:"conditional_replace"`
	Abbreviations          []string          `toml:"abbreviations" yaml:"abbreviations"`
}

// Log holds the logging settings.
type Log struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	File   string `toml:"file" yaml:"file"`
}

// Config holds user configuration values.
type Config struct {
	Spelling Spelling `toml:"spelling" yaml:"spelling"`
	Log      Log      `toml:"log" yaml:"log"`
}

// Default returns a Config with the built-in settings.
func Default() *Config {
	return &Config{
		Spelling: Spelling{
			Enabled:                true,
			WordBatch:              30,
			TickIntervalMS:         10,
			MaxSuggestions:         10,
			SuggestionDepth:        2,
			ScoreGap:               20,
			MinWordLength:          3,
			IgnoreUppercase:        true,
			IgnoreWordsWithNumbers: true,
			CommitStrategy:         "word",
			Abbreviations:          append([]string(nil), spell.DefaultAbbreviations...),
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads configuration from path over the defaults. The format follows
// the extension. If the file does not exist, defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the config file looked for when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "prosecheck", "config.toml")
}

// LoadDefault reads the config at DefaultPath.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate reports every setting that is out of range.
func (c *Config) Validate() error {
	var errs []error
	s := c.Spelling
	positive := []struct {
		name string
		v    int
	}{
		{"word_batch", s.WordBatch},
		{"tick_interval_ms", s.TickIntervalMS},
		{"max_suggestions", s.MaxSuggestions},
		{"suggestion_depth", s.SuggestionDepth},
		{"score_gap", s.ScoreGap},
	}
	for _, p := range positive {
		if p.v <= 0 {
			errs = append(errs, fmt.Errorf("spelling.%s must be positive, got %d", p.name, p.v))
		}
	}
	if s.MinWordLength < 0 {
		errs = append(errs, fmt.Errorf("spelling.min_word_length must not be negative, got %d", s.MinWordLength))
	}
	if _, err := damage.ParseStrategy(s.CommitStrategy); err != nil {
		errs = append(errs, fmt.Errorf("spelling.commit_strategy: %w", err))
	}
	if _, err := logs.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if !logs.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}

// TickInterval returns the pause between checking batches.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Spelling.TickIntervalMS) * time.Millisecond
}

// Strategy returns the configured damage commit strategy.
func (c *Config) Strategy() damage.CommitStrategy {
	s, _ := damage.ParseStrategy(c.Spelling.CommitStrategy)
	return s
}

// SpellOptions returns the speller settings.
func (c *Config) SpellOptions() spell.Options {
	s := c.Spelling
	return spell.Options{
		MinWordLength:          s.MinWordLength,
		IgnoreUppercase:        s.IgnoreUppercase,
		IgnoreWordsWithNumbers: s.IgnoreWordsWithNumbers,
		Depth:                  s.SuggestionDepth,
		UserDictionary:         expandHome(s.UserDictionary),
		AutoReplace:            s.AutoReplace,
		ConditionalReplace:     s.ConditionalReplace,
		Abbreviations:          s.Abbreviations,
	}
}

// SessionOptions returns the spelling session settings.
func (c *Config) SessionOptions() spelling.Options {
	s := c.Spelling
	return spelling.Options{
		WordBatch:       s.WordBatch,
		MaxSuggestions:  s.MaxSuggestions,
		SuggestionDepth: s.SuggestionDepth,
		ScoreGap:        s.ScoreGap,
	}
}

// LogOptions returns the logger settings. Validate has checked the level.
func (c *Config) LogOptions() logs.Options {
	level, _ := logs.ParseLevel(c.Log.Level)
	return logs.Options{Level: level, Format: c.Log.Format, File: expandHome(c.Log.File)}
}

// expandHome expands a leading ~ and leaves path alone when the home
// directory is unknown.
func expandHome(path string) string {
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}
