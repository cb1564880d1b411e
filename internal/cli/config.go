package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/fsutil"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify solvent configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration key to a specific value",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured(cfg) {
		return writeStructured(out, cfg.Settings.OutputFormat, cfg)
	}

	table := newTable()
	table.AddRow("SETTING", "VALUE")
	settings := cfg.ToMap()
	for _, key := range cfg.Keys() {
		table.AddRow(key, settings[key])
	}
	_, _ = fmt.Fprintln(out, table)

	_, _ = fmt.Fprintf(out, "\nRepositories (%d):\n", len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		status := "enabled"
		if !repo.Enabled {
			status = "disabled"
		}
		_, _ = fmt.Fprintf(out, "  %s: %s (priority %d, %s)\n", repo.Name, repo.Path, repo.Priority, status)
	}

	return nil
}

func runConfigSet(key, value string) error {
	return editConfig(func(cfg *config.Config) error {
		if err := cfg.SetValue(key, value); err != nil {
			return fmt.Errorf("failed to set configuration value: %w", err)
		}
		logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
		return nil
	})
}

func runConfigGet(cmd *cobra.Command, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return fmt.Errorf("failed to get configuration value: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigInit(force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%w at %s (use --force to overwrite)", errutils.ErrConfigFileExists, configPath)
	}

	cfg := config.DefaultConfig()
	installed, err := fsutil.GetInstalledPath()
	if err != nil {
		return err
	}
	cfg.Installed = installed
	if _, err := os.Stat(installed); os.IsNotExist(err) {
		// An empty installed repository stands for a fresh system.
		err := fsutil.WriteFileAtomic(installed, fsutil.FileModeDefault, func(w io.Writer) error {
			return solvfile.Write(w, nil, solvfile.Options{Compress: true})
		})
		if err != nil {
			return err
		}
	}

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	logger.Success("Configuration file created", logger.Fields{"path": configPath, "installed": installed})
	return nil
}
