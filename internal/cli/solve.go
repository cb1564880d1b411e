package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/cache"
	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/orchestrator"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/solver"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

// solveOptions collects the jobs and flags of one solve from the command line.
type solveOptions struct {
	install     []string
	erase       []string
	upgrade     []string
	lock        []string
	upgradeAll  bool
	distupgrade bool
	verify      bool

	best      bool
	cleandeps bool
	dryRun    bool

	allowUninstall    bool
	forceBest         bool
	withoutRecommends bool
	allowDowngrade    bool
	allowArchChange   bool
	allowVendorChange bool
}

func (o *solveOptions) addFlagSet(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&o.dryRun, "dry-run", false, "Resolve and print the transaction without recording it")
	f.BoolVar(&o.best, "best", false, "Only accept the best candidate for the packages named on the command line")
	f.BoolVar(&o.allowUninstall, "allow-uninstall", false, "Allow erasing installed packages to resolve conflicts")
	f.BoolVar(&o.forceBest, "force-best", false, "Require the best candidate for every job, including --upgrade-all and --distupgrade")
	f.BoolVar(&o.withoutRecommends, "without-recommends", false, "Ignore weak dependencies")
	f.BoolVar(&o.allowDowngrade, "allow-downgrade", false, "Allow updates to lower versions")
	f.BoolVar(&o.allowArchChange, "allow-archchange", false, "Allow updates to change the architecture")
	f.BoolVar(&o.allowVendorChange, "allow-vendorchange", false, "Allow updates to change the vendor")
}

// flags merges the command line switches into the configured defaults.
func (o *solveOptions) flags(defaults solver.Flags) solver.Flags {
	f := defaults
	for _, b := range []struct {
		on   bool
		flag solver.Flags
	}{
		{o.allowUninstall, solver.AllowUninstall},
		{o.forceBest, solver.ForceBest},
		{o.withoutRecommends, solver.WithoutRecommends},
		{o.allowDowngrade, solver.AllowDowngrade},
		{o.allowArchChange, solver.AllowArchChange},
		{o.allowVendorChange, solver.AllowVendorChange},
	} {
		if b.on {
			f |= b.flag
		}
	}
	return f
}

// NewSolveCmd creates the solve command, which accepts any mix of jobs.
func NewSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Resolve a set of jobs",
		Long: `Resolve install, erase, upgrade and lock jobs against the configured
repositories in one transaction.

Targets are package names, globs ("lib*"), name.arch ("bash.i686") or
relations ("libfoo >= 1.2").`,
		Example: `  solvent solve --install vim --erase nano --dry-run
  solvent solve --upgrade-all --allow-downgrade`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.install, "install", nil, "Install a target (repeatable)")
	f.StringArrayVar(&opts.erase, "erase", nil, "Erase a target (repeatable)")
	f.StringArrayVar(&opts.upgrade, "upgrade", nil, "Upgrade a target (repeatable)")
	f.StringArrayVar(&opts.lock, "lock", nil, "Keep a target in its current state (repeatable)")
	f.BoolVar(&opts.upgradeAll, "upgrade-all", false, "Upgrade every installed package")
	f.BoolVar(&opts.distupgrade, "distupgrade", false, "Synchronize installed packages with the repositories")
	f.BoolVar(&opts.verify, "verify", false, "Repair broken dependencies of installed packages")
	f.BoolVar(&opts.cleandeps, "clean-deps", false, "Also erase dependencies nothing else needs")
	opts.addFlagSet(cmd)

	return cmd
}

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "install PACKAGE...",
		Short: "Install packages",
		Long: `Install one or more packages from the configured repositories.
Dependencies are resolved and installed as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.install = args
			return runSolve(cmd, opts)
		},
	}
	opts.addFlagSet(cmd)

	return cmd
}

// NewEraseCmd creates the erase command.
func NewEraseCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:     "erase PACKAGE...",
		Aliases: []string{"remove", "uninstall"},
		Short:   "Erase installed packages",
		Long: `Erase installed packages. Packages that depend on them are only
erased with --allow-uninstall; --clean-deps also erases dependencies that
were only needed by the erased packages.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.erase = args
			return runSolve(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.cleandeps, "clean-deps", false, "Also erase dependencies nothing else needs")
	opts.addFlagSet(cmd)

	return cmd
}

// NewUpgradeCmd creates the upgrade command.
func NewUpgradeCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:     "upgrade [PACKAGE...]",
		Aliases: []string{"update"},
		Short:   "Upgrade installed packages",
		Long: `Upgrade the named packages, or every installed package when no
name is given. Naming a package that is not installed installs it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.upgrade = args
			opts.upgradeAll = len(args) == 0
			return runSolve(cmd, opts)
		},
	}
	opts.addFlagSet(cmd)

	return cmd
}

// buildRequest queues the jobs of opts.
func buildRequest(p *pool.Pool, opts *solveOptions) (*request.Request, error) {
	req := request.New(p)

	var hints []solver.JobFlags
	if opts.best {
		hints = append(hints, solver.FlagForceBest)
	}
	eraseHints := hints
	if opts.cleandeps {
		eraseHints = append(append([]solver.JobFlags(nil), hints...), solver.FlagCleanDeps)
	}

	jobs := []struct {
		args []string
		add  func(request.Target) error
	}{
		{opts.lock, req.Lock},
		{opts.install, func(t request.Target) error { return req.Install(t, hints...) }},
		{opts.erase, func(t request.Target) error { return req.Erase(t, eraseHints...) }},
		{opts.upgrade, func(t request.Target) error { return req.Upgrade(t, hints...) }},
	}
	for _, job := range jobs {
		for _, arg := range job.args {
			t, err := parseTarget(p, arg)
			if err != nil {
				return nil, err
			}
			if err := job.add(t); err != nil {
				return nil, fmt.Errorf("%s: %w", arg, err)
			}
		}
	}
	if opts.upgradeAll {
		req.UpgradeAll()
	}
	if opts.distupgrade {
		req.DistUpgrade()
	}
	if opts.verify {
		req.Verify()
	}

	if req.Len() == 0 {
		return nil, errutils.ErrOpWithDetails("nothing to do: no jobs given")
	}
	return req, nil
}

func runSolve(cmd *cobra.Command, opts *solveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	p, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}

	req, err := buildRequest(p, opts)
	if err != nil {
		return err
	}
	if cfg.Settings.CacheDir != "" {
		req.SetCache(cache.NewManager(cfg.ResolvePath(cfg.Settings.CacheDir)))
	}

	flags := opts.flags(cfg.Settings.Solver.Flags())
	logger.Debug("solving", logger.Fields{"jobs": req.Strings(), "flags": flags.String()})

	tr, problems, err := req.Solve(flags)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	view := solveView{Jobs: req.Strings()}
	if len(problems) > 0 {
		if view.Problems, err = problemViews(problems); err != nil {
			return err
		}
		if err := printSolve(out, cfg, view, nil); err != nil {
			return err
		}
		return errutils.Wrapf(errutils.ErrUnsolvable, "%d problem(s)", len(problems))
	}

	view.Steps = stepViews(tr)
	view.DownloadSize = tr.DownloadSize()
	view.InstallSizeDelta = tr.InstallSizeDelta()
	if err := printSolve(out, cfg, view, tr); err != nil {
		return err
	}

	if opts.dryRun || tr.Len() == 0 {
		return nil
	}
	return commitTransaction(ctx, cfg, tr)
}

func printSolve(w io.Writer, cfg *config.Config, view solveView, tr *transaction.Transaction) error {
	if structured(cfg) {
		return writeStructured(w, cfg.Settings.OutputFormat, view)
	}
	if len(view.Problems) > 0 {
		renderProblems(w, view.Problems)
		return nil
	}
	renderTransaction(w, tr)
	return nil
}

// commitTransaction records tr in the installed repository file.
func commitTransaction(ctx context.Context, cfg *config.Config, tr *transaction.Transaction) error {
	if cfg.Installed == "" {
		return errutils.ErrOpWithDetails("no installed repository configured: set 'installed' or use --dry-run")
	}
	state, err := orchestrator.NewInstalledState(tr.Pool(), cfg.ResolvePath(cfg.Installed))
	if err != nil {
		return err
	}

	hooks := orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		fields := logger.Fields{"phase": string(e.Phase)}
		if e.ID != "" {
			fields["package"] = e.ID
		}
		if e.Msg != "" {
			fields["msg"] = e.Msg
		}
		logger.Debug("transaction", fields)
	}}
	orch := orchestrator.New(state, nil, hooks)
	if err := orch.Apply(ctx, tr, orchestrator.Options{CacheDir: cfg.ResolvePath(cfg.Settings.CacheDir)}); err != nil {
		return err
	}
	if err := state.Commit(); err != nil {
		return err
	}
	logger.Success("Transaction recorded", logger.Fields{"steps": tr.Len()})
	return nil
}
