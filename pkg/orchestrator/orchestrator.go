package orchestrator

import (
	"context"
	"fmt"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Describe builds the Package of solvable id.
func Describe(p *pool.Pool, id pool.Id) Package {
	s := p.Solvable(id)
	if s == nil {
		return Package{ID: id}
	}
	pkg := Package{
		ID:           id,
		Name:         s.Name(),
		EVR:          s.EVR(),
		Arch:         s.Arch(),
		Location:     s.LookupStr(pool.KeyLocation),
		Checksum:     s.LookupStr(pool.KeyChecksum),
		DownloadSize: s.LookupNum(pool.KeyDownloadSize),
	}
	if r := s.Repo(); r != nil {
		pkg.Repo = r.Name()
	}
	return pkg
}

// Apply runs every step of tr in order. Packages that still need a download
// are handed to the Fetcher first. A failing step stops the walk; the steps
// before it stay applied.
func (o *Orchestrator) Apply(ctx context.Context, tr *transaction.Transaction, opts Options) error {
	if tr == nil {
		return errutils.ErrOpWithDetails("nil transaction")
	}
	p := tr.Pool()
	steps := tr.Steps()

	emit(o.Hooks, Event{Phase: PhasePlanning, Msg: fmt.Sprintf("%d steps", len(steps))})
	for _, st := range steps {
		emit(o.Hooks, Event{Phase: PhasePlanning, ID: Describe(p, st.Solvable).String(), Msg: st.Kind.String()})
	}

	if opts.DryRun {
		emit(o.Hooks, Event{Phase: PhaseDone, Msg: "dry-run"})
		return nil
	}

	if o.Exec == nil {
		return errutils.ErrOpWithDetails("executor is not configured")
	}

	if o.Fetch != nil {
		var fetch []Package
		for _, st := range steps {
			if st.Kind == transaction.KindErase || st.DownloadSize == 0 {
				continue
			}
			fetch = append(fetch, Describe(p, st.Solvable))
		}
		if len(fetch) > 0 {
			emit(o.Hooks, Event{Phase: PhaseDownloading, Msg: fmt.Sprintf("%d packages", len(fetch))})
			if err := o.Fetch.FetchAll(ctx, fetch, opts.CacheDir); err != nil {
				emit(o.Hooks, Event{Phase: PhaseError, Msg: err.Error()})
				return err
			}
		}
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkg := Describe(p, st.Solvable)
		if err := o.step(ctx, p, st, pkg); err != nil {
			emit(o.Hooks, Event{Phase: PhaseError, ID: pkg.String(), Msg: err.Error()})
			return errutils.Wrapf(err, "%s %s", st.Kind, pkg)
		}
		logger.Debug("step applied", logger.Fields{"kind": st.Kind.String(), "package": pkg.String()})
	}
	emit(o.Hooks, Event{Phase: PhaseDone})
	return nil
}

func (o *Orchestrator) step(ctx context.Context, p *pool.Pool, st transaction.Step, pkg Package) error {
	if st.Kind == transaction.KindErase {
		emit(o.Hooks, Event{Phase: PhaseErasing, ID: pkg.String()})
		return o.Exec.Erase(ctx, pkg)
	}

	emit(o.Hooks, Event{Phase: PhaseInstalling, ID: pkg.String(), Msg: st.Kind.String()})
	if len(st.Replaces) == 0 {
		return o.Exec.Install(ctx, pkg)
	}
	old := make([]Package, 0, len(st.Replaces))
	for _, id := range st.Replaces {
		old = append(old, Describe(p, id))
	}
	return o.Exec.Replace(ctx, pkg, old)
}

// New constructs an Orchestrator. fetch may be nil when package files are
// already local.
func New(exec Executor, fetch Fetcher, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Exec:  exec,
		Fetch: fetch,
		Hooks: hooks,
	}
}
