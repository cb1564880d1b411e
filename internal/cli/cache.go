package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cache",
		Long:  "Show information about and clean the repodata and package cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all      bool
		repodata bool
		packages bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the cache",
		Long:  "Remove cached files to free up disk space. Without flags everything is removed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(func(op *cache.Operation) error {
				msg, err := op.Clean(all, repodata, packages)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clean all cached files")
	cmd.Flags().BoolVar(&repodata, "repodata", false, "Clean only decoded repository data")
	cmd.Flags().BoolVar(&packages, "packages", false, "Clean only downloaded packages")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(func(op *cache.Operation) error {
				info, err := op.GetInfo()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
				return nil
			})
		},
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(func(op *cache.Operation) error {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), op.GetDirectory())
				return nil
			})
		},
	}
}

func withCache(fn func(*cache.Operation) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var manager *cache.DefaultManager
	if cfg.Settings.CacheDir != "" {
		manager = cache.NewManager(cfg.ResolvePath(cfg.Settings.CacheDir))
	} else if manager, err = cache.NewDefaultManager(); err != nil {
		return err
	}
	logger.Debug("using cache", logger.Fields{"dir": manager.GetDirectory()})
	return fn(cache.NewOperation(manager))
}
