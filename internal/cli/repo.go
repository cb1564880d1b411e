package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/loader"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// NewRepoCmd creates the repo command with subcommands.
func NewRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
		Long:  "Add, remove, list and convert repository files",
	}

	cmd.AddCommand(
		newRepoListCmd(),
		newRepoAddCmd(),
		newRepoRemoveCmd(),
		newRepoEnableCmd(true),
		newRepoEnableCmd(false),
		newRepoConvertCmd(),
		newRepoDumpCmd(),
	)

	return cmd
}

func newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepoList(cmd)
		},
	}
}

func newRepoAddCmd() *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "add NAME PATH",
		Short: "Add a repository",
		Long: `Add a repository backed by a solv or YAML file. Relative paths are
resolved against the directory of the configuration file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRepoAdd(args[0], args[1], priority)
		},
	}

	cmd.Flags().IntVar(&priority, "priority", 0, "Repository priority (higher numbers win)")

	return cmd
}

func newRepoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.Config) error {
				if !cfg.RemoveRepository(args[0]) {
					return errutils.ErrRepositoryNotFoundWithName(args[0])
				}
				logger.Success("Repository removed", logger.Fields{"name": args[0]})
				return nil
			})
		},
	}
}

func newRepoEnableCmd(enable bool) *cobra.Command {
	use, short := "enable NAME", "Enable a repository"
	if !enable {
		use, short = "disable NAME", "Disable a repository"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return editConfig(func(cfg *config.Config) error {
				if err := cfg.EnableRepository(args[0], enable); err != nil {
					return err
				}
				logger.Success("Repository updated", logger.Fields{"name": args[0], "enabled": enable})
				return nil
			})
		},
	}
}

func newRepoConvertCmd() *cobra.Command {
	var noCompress bool

	cmd := &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Convert a repository file",
		Long: `Convert between the YAML and solv repository formats. The format of
each file follows its extension: .yaml and .yml are YAML, anything else is
solv.`,
		Example: "  solvent repo convert base.yaml base.solv",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoConvert(cmd.Context(), args[0], args[1], !noCompress)
		},
	}

	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Write solv files without compression")

	return cmd
}

func newRepoDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump NAME|PATH",
		Short: "Print a repository as YAML",
		Long:  "Print the packages of a configured repository, or of a repository file, as YAML.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoDump(cmd, args[0])
		},
	}
}

// editConfig loads the configuration, applies fn and saves it back.
func editConfig(fn func(*config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func runRepoList(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured(cfg) {
		return writeStructured(out, cfg.Settings.OutputFormat, cfg.Repositories)
	}

	if len(cfg.Repositories) == 0 && cfg.Installed == "" {
		_, _ = fmt.Fprintln(out, "No repositories configured")
		return nil
	}

	table := newTable()
	table.AddRow("NAME", "PRIORITY", "STATUS", "PATH")
	if cfg.Installed != "" {
		table.AddRow(loader.InstalledRepoName, "", "installed", cfg.Installed)
	}
	for _, repo := range cfg.Repositories {
		status := green("enabled")
		if !repo.Enabled {
			status = yellow("disabled")
		}
		table.AddRow(repo.Name, strconv.Itoa(repo.Priority), status, repo.Path)
	}
	_, _ = fmt.Fprintln(out, table)
	return nil
}

func runRepoAdd(name, path string, priority int) error {
	if strings.HasPrefix(name, "@") {
		return errutils.ErrOpWithDetails("repository names starting with '@' are reserved")
	}
	return editConfig(func(cfg *config.Config) error {
		if err := cfg.AddRepository(name, path, priority); err != nil {
			return err
		}
		logger.Success("Repository added", logger.Fields{"name": name, "path": path, "priority": priority})
		return nil
	})
}

// loadFile reads one repository file into a fresh pool.
func loadFile(ctx context.Context, cfg *config.Config, path string) (*pool.Repo, error) {
	host, err := cfg.HostInfo()
	if err != nil {
		return nil, err
	}
	p := pool.New(host)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	repos, err := loader.New(p).Load(ctx, []loader.Source{{Name: name, Path: path}})
	if err != nil {
		return nil, err
	}
	return repos[0], nil
}

func runRepoConvert(ctx context.Context, in, out string, compress bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := loadFile(ctx, cfg, in)
	if err != nil {
		return err
	}
	if err := loader.WriteRepo(repo, out, compress); err != nil {
		return err
	}
	logger.Success("Repository converted", logger.Fields{"from": in, "to": out, "packages": repo.Len()})
	return nil
}

func runRepoDump(cmd *cobra.Command, arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := arg
	switch {
	case arg == loader.InstalledRepoName:
		if cfg.Installed == "" {
			return errutils.ErrRepositoryNotFoundWithName(arg)
		}
		path = cfg.ResolvePath(cfg.Installed)
	case cfg.GetRepository(arg) != nil:
		path = cfg.ResolvePath(cfg.GetRepository(arg).Path)
	}

	repo, err := loadFile(cmd.Context(), cfg, path)
	if err != nil {
		return err
	}
	repo.Internalize()
	p := repo.Pool()
	pkgs := make([]solvfile.Package, 0, repo.Len())
	for _, id := range repo.Solvables() {
		pkg, err := p.Export(id)
		if err != nil {
			return err
		}
		pkgs = append(pkgs, pkg)
	}
	return loader.EncodeYAML(cmd.OutOrStdout(), pkgs)
}
