// Package request accumulates install, erase, upgrade and lock intentions into a
// job queue and hands it to the solver.
//
// A Request owns one Solver, so problems returned by a solve stay valid until
// the next call to Solve on the same Request.
package request

import (
	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/selector"
	"github.com/glorpus-work/solvent/pkg/solver"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

// Target is what a job acts on: packages, a relation or a selection.
type Target interface {
	jobs(p *pool.Pool) (solver.Queue, error)
	relation() bool
}

type packageTarget []pool.Id

// Package targets explicit solvables.
func Package(ids ...pool.Id) Target {
	return packageTarget(append([]pool.Id(nil), ids...))
}

func (t packageTarget) jobs(p *pool.Pool) (solver.Queue, error) {
	if len(t) == 0 {
		return nil, errutils.ErrOpWithDetails("package target without packages")
	}
	q := make(solver.Queue, 0, len(t))
	for _, id := range t {
		if id <= pool.SystemSolvable || p.Solvable(id) == nil {
			return nil, errutils.Wrapf(errutils.ErrUnknownSolvable, "solvable %d", id)
		}
		q.Push(solver.SelectSolvable, id)
	}
	return q, nil
}

func (packageTarget) relation() bool { return false }

type relationTarget pool.Id

// Relation targets every package providing dep.
func Relation(dep pool.Id) Target {
	return relationTarget(dep)
}

func (t relationTarget) jobs(p *pool.Pool) (solver.Queue, error) {
	if _, ok := p.Relation(pool.Id(t)); !ok {
		return nil, errutils.Wrapf(errutils.ErrInvalidRelation, "relation %d", pool.Id(t))
	}
	return solver.Queue{{How: solver.SelectProvides, What: pool.Id(t)}}, nil
}

func (relationTarget) relation() bool { return true }

type selectionTarget struct {
	sel *selector.Selector
}

// Selection targets what sel expands to.
func Selection(sel *selector.Selector) Target {
	return selectionTarget{sel: sel}
}

func (t selectionTarget) jobs(*pool.Pool) (solver.Queue, error) {
	if t.sel == nil {
		return nil, errutils.ErrSelectorWithDetails("nil selector")
	}
	return t.sel.ToQueue()
}

func (selectionTarget) relation() bool { return false }

// Request is an ordered job queue bound to a pool.
type Request struct {
	pool   *pool.Pool
	queue  solver.Queue
	solver *solver.Solver
}

// New returns an empty request on p.
func New(p *pool.Pool) *Request {
	return &Request{pool: p, solver: solver.New(p)}
}

// Pool returns the pool the request is bound to.
func (r *Request) Pool() *pool.Pool {
	return r.pool
}

// SetCache is passed on to the solver; cached packages report no download size.
func (r *Request) SetCache(c transaction.Cache) {
	r.solver.SetCache(c)
}

func (r *Request) add(typ solver.JobFlags, t Target, hints []solver.JobFlags) error {
	if t == nil {
		return errutils.ErrOpWithDetails("nil target")
	}
	var hint solver.JobFlags
	for _, h := range hints {
		if h&^solver.FlagMask != 0 {
			return errutils.ErrOpWithDetails("0x%x is not a job hint", uint32(h))
		}
		hint |= h
	}
	q, err := t.jobs(r.pool)
	if err != nil {
		return err
	}
	for _, job := range q {
		r.queue.Push(typ|job.How|hint, job.What)
	}
	return nil
}

// Install asks for t to be installed. Hints such as solver.FlagForceBest or
// solver.FlagNoObsoletes are added to every job.
func (r *Request) Install(t Target, hints ...solver.JobFlags) error {
	return r.add(solver.JobInstall, t, hints)
}

// Erase asks for t to be removed. Relation targets are rejected with ErrOp.
func (r *Request) Erase(t Target, hints ...solver.JobFlags) error {
	if t != nil && t.relation() {
		return errutils.ErrOpWithDetails("erase does not accept a relation target")
	}
	return r.add(solver.JobErase, t, hints)
}

// Upgrade asks for the installed packages matching t to be updated.
func (r *Request) Upgrade(t Target, hints ...solver.JobFlags) error {
	return r.add(solver.JobUpdate, t, hints)
}

// Lock pins installed packages matching t and forbids installing the others.
func (r *Request) Lock(t Target) error {
	return r.add(solver.JobLock, t, nil)
}

// Multiversion lets packages matching t be installed next to each other.
func (r *Request) Multiversion(t Target) error {
	return r.add(solver.JobMultiversion, t, nil)
}

// UpgradeAll updates every installed package.
func (r *Request) UpgradeAll() {
	r.queue.Push(solver.JobUpdate|solver.SelectAll, pool.IdNull)
}

// DistUpgrade synchronizes every installed package with the repositories.
func (r *Request) DistUpgrade() {
	r.queue.Push(solver.JobDistupgrade|solver.SelectAll, pool.IdNull)
}

// Verify checks the dependencies of every installed package.
func (r *Request) Verify() {
	r.queue.Push(solver.JobVerify|solver.SelectAll, pool.IdNull)
}

// Jobs returns a copy of the job queue.
func (r *Request) Jobs() solver.Queue {
	return r.queue.Clone()
}

// Len returns the number of queued jobs.
func (r *Request) Len() int {
	return len(r.queue)
}

// Reset empties the queue.
func (r *Request) Reset() {
	r.queue = nil
}

// Strings renders each job, for example "install A-1-1.x86_64".
func (r *Request) Strings() []string {
	out := make([]string, 0, len(r.queue))
	for _, job := range r.queue {
		out = append(out, solver.JobString(r.pool, job))
	}
	return out
}

// Solve runs the solver on the queue. Problems from an earlier Solve become
// stale.
func (r *Request) Solve(flags solver.Flags) (*transaction.Transaction, []*solver.Problem, error) {
	logger.Debug("solving request", logger.Fields{"jobs": len(r.queue), "flags": flags.String()})
	tr, problems, err := r.solver.Solve(r.queue, flags)
	if err != nil {
		return nil, nil, err
	}
	return tr, problems, nil
}

// ApplySolution rewrites the queue with sol. sol must come from the last Solve.
func (r *Request) ApplySolution(sol *solver.Solution) error {
	if sol == nil {
		return errutils.ErrOpWithDetails("nil solution")
	}
	q, err := sol.Apply(r.queue)
	if err != nil {
		return err
	}
	r.queue = q
	return nil
}

// Stats reports the figures of the last solve.
func (r *Request) Stats() solver.Stats {
	return r.solver.Stats()
}
