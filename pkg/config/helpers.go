package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
)

func (c *Config) solverBools() map[string]*bool {
	s := &c.Settings.Solver
	return map[string]*bool{
		"solver.allow_uninstall":    &s.AllowUninstall,
		"solver.force_best":         &s.ForceBest,
		"solver.without_recommends": &s.WithoutRecommends,
		"solver.allow_downgrade":    &s.AllowDowngrade,
		"solver.allow_archchange":   &s.AllowArchChange,
		"solver.allow_vendorchange": &s.AllowVendorChange,
	}
}

// SetValue sets a configuration value by key.
// Supported keys:
//   - arch: string - Host architecture
//   - installed: string - Installed repository file
//   - installonly: string - Comma separated installonly names
//   - cache_dir: string - Path to the package cache
//   - max_concurrent_loads: int - Parallel repository decoding
//   - output_format: string - Output format (text, json, yaml)
//   - no_color: bool - Disable colored output
//   - log_level: string - Logging level (debug, info, warn, error)
//   - solver.*: bool - Default solve flags
func (c *Config) SetValue(key, value string) error {
	if ptr, ok := c.solverBools()[key]; ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errutils.Wrapf(errutils.ErrInvalidBoolValue, "%s: %s", key, value)
		}
		*ptr = b
		return nil
	}

	switch key {
	case "arch":
		if value != "" && !arch.Known(value) {
			return errutils.ErrArchWithName(value)
		}
		c.Settings.Arch = value
	case "installed":
		c.Installed = value
	case "installonly":
		var names []string
		for _, n := range strings.Split(value, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		c.Settings.Installonly = names
	case "cache_dir":
		c.Settings.CacheDir = value
	case "max_concurrent_loads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return errutils.Wrapf(errutils.ErrConfigValidation, "%s must be a positive integer: %s", key, value)
		}
		c.Settings.MaxConcurrent = n
	case "output_format":
		if err := validateSettings(withFormat(c.Settings, value)); err != nil {
			return err
		}
		c.Settings.OutputFormat = value
	case "no_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errutils.Wrapf(errutils.ErrInvalidBoolValue, "%s: %s", key, value)
		}
		c.Settings.NoColor = b
	case "log_level":
		if err := validateSettings(withLevel(c.Settings, value)); err != nil {
			return err
		}
		c.Settings.LogLevel = value
	default:
		return errutils.Wrapf(errutils.ErrUnknownConfigKey, "%s", key)
	}
	return nil
}

func withFormat(s Settings, format string) Settings {
	s.OutputFormat = format
	return s
}

func withLevel(s Settings, level string) Settings {
	s.LogLevel = level
	return s
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	if ptr, ok := c.solverBools()[key]; ok {
		return strconv.FormatBool(*ptr), nil
	}

	switch key {
	case "arch":
		return c.Settings.Arch, nil
	case "installed":
		return c.Installed, nil
	case "installonly":
		return strings.Join(c.Settings.Installonly, ","), nil
	case "cache_dir":
		return c.Settings.CacheDir, nil
	case "max_concurrent_loads":
		return strconv.Itoa(c.Settings.MaxConcurrent), nil
	case "output_format":
		return c.Settings.OutputFormat, nil
	case "no_color":
		return strconv.FormatBool(c.Settings.NoColor), nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", errutils.Wrapf(errutils.ErrUnknownConfigKey, "%s", key)
	}
}

// Keys returns every key GetValue and SetValue accept, sorted.
func (c *Config) Keys() []string {
	keys := []string{
		"arch", "installed", "installonly", "cache_dir", "max_concurrent_loads",
		"output_format", "no_color", "log_level",
	}
	for k := range c.solverBools() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap returns every setting keyed like GetValue.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	for _, k := range c.Keys() {
		v, err := c.GetValue(k)
		if err != nil {
			continue
		}
		result[k] = v
	}
	return result
}
