// Package config provides configuration management for solvent.
// It handles loading, validating and saving the repository list, the installed
// repository location and the solver defaults. The configuration is a YAML
// file; missing values fall back to sensible defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/fsutil"
	"github.com/glorpus-work/solvent/pkg/solver"
)

// Config represents the application configuration.
type Config struct {
	// Repository configuration
	Repositories []*RepositoryConfig `yaml:"repositories"`

	// Installed is the repository file describing the installed packages.
	Installed string `yaml:"installed,omitempty"`

	// General settings
	Settings Settings `yaml:"settings"`

	// baseDir is the directory relative repository paths are resolved against.
	baseDir string
}

// RepositoryConfig represents a single repository configuration.
type RepositoryConfig struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"` // .solv file or YAML testcase repo
	Priority   int    `yaml:"priority"`
	Enabled    bool   `yaml:"enabled"`
	BaseURL    string `yaml:"base_url,omitempty"`
	KeyFile    string `yaml:"key_file,omitempty"`
	Mirrorlist string `yaml:"mirrorlist,omitempty"`
}

// UnmarshalYAML decodes a repository, treating a missing enabled key as true.
func (r *RepositoryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RepositoryConfig
	out := plain{Enabled: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*r = RepositoryConfig(out)
	return nil
}

// SolverSettings are the default solve flags.
type SolverSettings struct {
	AllowUninstall    bool `yaml:"allow_uninstall"`
	ForceBest         bool `yaml:"force_best"`
	WithoutRecommends bool `yaml:"without_recommends"`
	AllowDowngrade    bool `yaml:"allow_downgrade"`
	AllowArchChange   bool `yaml:"allow_archchange"`
	AllowVendorChange bool `yaml:"allow_vendorchange"`
}

// Flags converts the settings to solver flags.
func (s SolverSettings) Flags() solver.Flags {
	var f solver.Flags
	for _, b := range []struct {
		on   bool
		flag solver.Flags
	}{
		{s.AllowUninstall, solver.AllowUninstall},
		{s.ForceBest, solver.ForceBest},
		{s.WithoutRecommends, solver.WithoutRecommends},
		{s.AllowDowngrade, solver.AllowDowngrade},
		{s.AllowArchChange, solver.AllowArchChange},
		{s.AllowVendorChange, solver.AllowVendorChange},
	} {
		if b.on {
			f |= b.flag
		}
	}
	return f
}

// Settings represents general application settings.
type Settings struct {
	// Arch overrides the host architecture. Empty means auto-detect.
	Arch string `yaml:"arch,omitempty"`

	// Installonly names may be installed in several versions at once.
	Installonly []string `yaml:"installonly,omitempty"`

	Solver SolverSettings `yaml:"solver"`

	// Cache settings
	CacheDir string `yaml:"cache_dir,omitempty"`

	// MaxConcurrent bounds how many repository files are decoded in parallel.
	MaxConcurrent int `yaml:"max_concurrent_loads"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json, yaml
	NoColor      bool   `yaml:"no_color"`
	LogLevel     string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultMaxConcurrent is the default number of repositories decoded at once.
	DefaultMaxConcurrent = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultInstallonly are the package names that are never replaced by an update.
var DefaultInstallonly = []string{"kernel", "kernel-core", "kernel-modules", "installonlypkg(kernel)"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}
	return &Config{
		Repositories: []*RepositoryConfig{},
		Settings: Settings{
			Arch:          arch.DetectHost().NativeArch(),
			Installonly:   append([]string(nil), DefaultInstallonly...),
			CacheDir:      cacheDir,
			MaxConcurrent: DefaultMaxConcurrent,
			OutputFormat:  "text",
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.baseDir = filepath.Dir(absPath)
			return cfg, nil
		}
		return nil, errutils.ErrIOWithPath(path, err)
	}
	defer func() { _ = file.Close() }()

	cfg, err := LoadConfigFromReader(file)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(absPath)
	return cfg, nil
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	return fsutil.WriteFileAtomic(absPath, fsutil.FileModeSecure, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(YAMLIndent)
		if err := encoder.Encode(c); err != nil {
			return errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
		}
		return encoder.Close()
	})
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := validateRepositories(c.Repositories); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateRepositories(repos []*RepositoryConfig) error {
	repoNames := make(map[string]bool)
	for i, repo := range repos {
		if repo == nil || repo.Name == "" {
			return errutils.ErrEmptyRepositoryNameWithIndex(i)
		}
		if repo.Path == "" {
			return errutils.ErrRepositoryPathEmptyWithName(repo.Name)
		}
		if repoNames[repo.Name] {
			return errutils.ErrRepositoryExistsWithName(repo.Name)
		}
		repoNames[repo.Name] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.Arch != "" && !arch.Known(s.Arch) {
		return errutils.ErrArchWithName(s.Arch)
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent_loads must be at least 1, got %d", s.MaxConcurrent)
	}
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validFormats[s.OutputFormat] {
		return errutils.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// AddRepository adds a repository to the configuration.
// Returns an error if a repository with the same name already exists.
func (c *Config) AddRepository(name, path string, priority int) error {
	if name == "" {
		return errutils.ErrEmptyRepositoryNameWithIndex(len(c.Repositories))
	}
	if path == "" {
		return errutils.ErrRepositoryPathEmptyWithName(name)
	}
	if c.GetRepository(name) != nil {
		return errutils.ErrRepositoryExistsWithName(name)
	}
	c.Repositories = append(c.Repositories, &RepositoryConfig{
		Name:     name,
		Path:     path,
		Priority: priority,
		Enabled:  true,
	})
	return nil
}

// RemoveRepository removes a repository from the configuration.
func (c *Config) RemoveRepository(name string) bool {
	for i, repo := range c.Repositories {
		if repo.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// GetRepository gets a repository configuration by name.
func (c *Config) GetRepository(name string) *RepositoryConfig {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo
		}
	}
	return nil
}

// EnableRepository enables or disables a repository.
func (c *Config) EnableRepository(name string, enabled bool) error {
	repo := c.GetRepository(name)
	if repo == nil {
		return errutils.ErrRepositoryNotFoundWithName(name)
	}
	repo.Enabled = enabled
	return nil
}

// EnabledRepositories returns the repositories to load, in configuration order.
func (c *Config) EnabledRepositories() []*RepositoryConfig {
	var out []*RepositoryConfig
	for _, repo := range c.Repositories {
		if repo.Enabled {
			out = append(out, repo)
		}
	}
	return out
}

// ResolvePath makes a relative path relative to the directory of the loaded
// configuration file.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// HostInfo returns the host the configuration targets.
func (c *Config) HostInfo() (arch.HostInfo, error) {
	if c.Settings.Arch == "" {
		return arch.DetectHost(), nil
	}
	return arch.NewHostInfo(c.Settings.Arch)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.Arch == "" {
		c.Settings.Arch = defaults.Settings.Arch
	}
	if c.Settings.Installonly == nil {
		c.Settings.Installonly = defaults.Settings.Installonly
	}
	if c.Repositories == nil {
		c.Repositories = []*RepositoryConfig{}
	}
}
