/*
Package config manages TOML config for wordsep.

Values missing from the file keep their defaults. When the file does not
decode into the typed structs, each section is read field by field so that
one bad value only resets itself.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/wordsep/internal/utils"
	"github.com/bastiangx/wordsep/pkg/corpus"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Search SearchConfig `toml:"search"`
	Corpus CorpusConfig `toml:"corpus"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// SearchConfig bounds a single segmentation.
type SearchConfig struct {
	MaxDepth        int  `toml:"max_depth"`
	MaxSteps        int  `toml:"max_steps"`
	TimeoutMs       int  `toml:"timeout_ms"`
	MemoizeDeadEnds bool `toml:"memoize_dead_ends"`
}

// CorpusConfig holds the word filter applied before building a model.
type CorpusConfig struct {
	MinCount          int      `toml:"min_count"`
	SingleLetterWords []string `toml:"single_letter_words"`
	TwoLetterMinCount int      `toml:"two_letter_min_count"`
	ShortWordLength   int      `toml:"short_word_length"`
	ShortWordMinCount int      `toml:"short_word_min_count"`
	ChunkSize         int      `toml:"chunk_size"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxInput  int     `toml:"max_input"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
	Workers   int     `toml:"workers"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	MinLen     int  `toml:"min_len"`
	MaxLen     int  `toml:"max_len"`
	ShowTiming bool `toml:"show_timing"`
}

// Options converts the search section into segmenter options.
func (c SearchConfig) Options() segment.Options {
	return segment.Options{
		MaxDepth:        c.MaxDepth,
		MaxSteps:        c.MaxSteps,
		Timeout:         time.Duration(c.TimeoutMs) * time.Millisecond,
		MemoizeDeadEnds: c.MemoizeDeadEnds,
	}
}

// Policy converts the corpus section into a word filter.
func (c CorpusConfig) Policy() corpus.Policy {
	return corpus.Policy{
		MinCount:          c.MinCount,
		SingleLetterWords: append([]string(nil), c.SingleLetterWords...),
		TwoLetterMinCount: c.TwoLetterMinCount,
		ShortWordLength:   c.ShortWordLength,
		ShortWordMinCount: c.ShortWordMinCount,
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "wordsep")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "wordsep")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordsep/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	opts := segment.DefaultOptions()
	policy := corpus.DefaultPolicy()
	return &Config{
		Search: SearchConfig{
			MaxDepth:        opts.MaxDepth,
			MaxSteps:        opts.MaxSteps,
			TimeoutMs:       int(opts.Timeout / time.Millisecond),
			MemoizeDeadEnds: opts.MemoizeDeadEnds,
		},
		Corpus: CorpusConfig{
			MinCount:          policy.MinCount,
			SingleLetterWords: policy.SingleLetterWords,
			TwoLetterMinCount: policy.TwoLetterMinCount,
			ShortWordLength:   policy.ShortWordLength,
			ShortWordMinCount: policy.ShortWordMinCount,
			ChunkSize:         10000,
		},
		Server: ServerConfig{
			MaxInput:  256,
			RateLimit: 200,
			RateBurst: 50,
			Workers:   4,
		},
		CLI: CliConfig{
			MinLen:     1,
			MaxLen:     256,
			ShowTiming: true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config.sanitize(), nil
}

// tryPartialParse reads each known field on its own, keeping defaults for
// the ones that are missing or mistyped.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "corpus"); ok {
		extractCorpusConfig(section, &config.Corpus)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config.sanitize(), nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "max_depth"); ok {
		search.MaxDepth = val
	}
	if val, ok := utils.ExtractInt64(data, "max_steps"); ok {
		search.MaxSteps = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		search.TimeoutMs = val
	}
	if val, ok := utils.ExtractBool(data, "memoize_dead_ends"); ok {
		search.MemoizeDeadEnds = val
	}
}

func extractCorpusConfig(data map[string]any, c *CorpusConfig) {
	if val, ok := utils.ExtractInt64(data, "min_count"); ok {
		c.MinCount = val
	}
	if val, ok := utils.ExtractStrings(data, "single_letter_words"); ok {
		c.SingleLetterWords = val
	}
	if val, ok := utils.ExtractInt64(data, "two_letter_min_count"); ok {
		c.TwoLetterMinCount = val
	}
	if val, ok := utils.ExtractInt64(data, "short_word_length"); ok {
		c.ShortWordLength = val
	}
	if val, ok := utils.ExtractInt64(data, "short_word_min_count"); ok {
		c.ShortWordMinCount = val
	}
	if val, ok := utils.ExtractInt64(data, "chunk_size"); ok {
		c.ChunkSize = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_input"); ok {
		server.MaxInput = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_limit"); ok {
		server.RateLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "rate_burst"); ok {
		server.RateBurst = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		server.Workers = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "min_len"); ok {
		cli.MinLen = val
	}
	if val, ok := utils.ExtractInt64(data, "max_len"); ok {
		cli.MaxLen = val
	}
	if val, ok := utils.ExtractBool(data, "show_timing"); ok {
		cli.ShowTiming = val
	}
}

// sanitize resets values that cannot work to their defaults.
func (c *Config) sanitize() *Config {
	def := DefaultConfig()
	if c.Search.MaxDepth < 1 {
		log.Warnf("search.max_depth %d is invalid, using %d", c.Search.MaxDepth, def.Search.MaxDepth)
		c.Search.MaxDepth = def.Search.MaxDepth
	}
	if c.Search.MaxSteps < 1 {
		log.Warnf("search.max_steps %d is invalid, using %d", c.Search.MaxSteps, def.Search.MaxSteps)
		c.Search.MaxSteps = def.Search.MaxSteps
	}
	if c.Search.TimeoutMs < 0 {
		c.Search.TimeoutMs = 0
	}
	if c.Corpus.ChunkSize < 1 {
		c.Corpus.ChunkSize = def.Corpus.ChunkSize
	}
	if c.Server.MaxInput < 1 {
		c.Server.MaxInput = def.Server.MaxInput
	}
	if c.Server.RateBurst < 1 {
		c.Server.RateBurst = def.Server.RateBurst
	}
	if c.Server.Workers < 1 {
		c.Server.Workers = def.Server.Workers
	}
	if c.CLI.MinLen < 1 {
		c.CLI.MinLen = def.CLI.MinLen
	}
	if c.CLI.MaxLen < c.CLI.MinLen {
		log.Warnf("cli.max_len %d is below min_len %d, using %d", c.CLI.MaxLen, c.CLI.MinLen, def.CLI.MaxLen)
		c.CLI.MaxLen = max(def.CLI.MaxLen, c.CLI.MinLen)
	}
	return c
}

// RebuildConfigFile force creates a new config.toml at path, or at the
// default location when path is empty.
func RebuildConfigFile(path string) (string, error) {
	if path == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, SaveConfig(DefaultConfig(), path)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
