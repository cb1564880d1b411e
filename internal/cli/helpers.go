package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/loader"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/selector"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the configuration and applies the global flags on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.NoColor = true
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogging(cfg)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// LoadConfig reports the empty path.
		return ""
	}
	return defaultPath
}

// openPool loads every configured repository.
func openPool(ctx context.Context, cfg *config.Config) (*pool.Pool, error) {
	if cfg.Installed == "" && len(cfg.EnabledRepositories()) == 0 {
		return nil, errutils.ErrNoRepositories
	}
	return loader.Open(ctx, cfg)
}

// parseTarget turns a command line argument into a request target:
//
//	"name >= 1.0"       packages providing the relation
//	"ker*"              names matching the glob
//	"bash.x86_64"       the name restricted to an arch
//	"bash", "/bin/sh"   the name, or what provides it when no package has that name
func parseTarget(p *pool.Pool, arg string) (request.Target, error) {
	arg = strings.TrimSpace(arg)
	sel := selector.New(p)

	switch {
	case strings.ContainsAny(arg, "<>="):
		if err := sel.Set(selector.KeyProvides, selector.CmpEQ, arg); err != nil {
			return nil, err
		}
	case strings.ContainsAny(arg, "*?["):
		if err := sel.Set(selector.KeyName, selector.CmpGlob, arg); err != nil {
			return nil, err
		}
	default:
		name := arg
		if i := strings.LastIndex(arg, "."); i > 0 && arch.Known(arg[i+1:]) && !hasName(p, arg) {
			name = arg[:i]
			if err := sel.Set(selector.KeyArch, selector.CmpEQ, arg[i+1:]); err != nil {
				return nil, err
			}
		}
		key := selector.KeyName
		if !hasName(p, name) {
			key = selector.KeyProvides
		}
		if err := sel.Set(key, selector.CmpEQ, name); err != nil {
			return nil, err
		}
	}
	return request.Selection(sel), nil
}

func hasName(p *pool.Pool, name string) bool {
	id, ok := p.LookupString(name)
	return ok && len(p.ByName(id)) > 0
}
