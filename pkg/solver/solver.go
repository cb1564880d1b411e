// Package solver turns a job queue into either a transaction or a list of
// problems. Jobs and the pool are encoded as clauses over solvable ids and
// decided by a conflict driven search with a package manager heuristic:
// requested packages first, then keeping or updating installed ones, then
// dependencies, then recommends. Unsatisfiable requests are explained by the
// rules they break, and every explanation comes with ways out.
package solver

import (
	"time"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

// Solver solves job queues against one pool. A Solver can be reused; every
// Solve invalidates the problems of the previous one.
type Solver struct {
	pool  *pool.Pool
	cache transaction.Cache

	gen   int
	flags Flags
	jobs  Queue
	rs    *ruleSet
	nvars int

	installed     []pool.Id
	multiversion  map[pool.Id]bool
	obsoleters    map[pool.Id][]pool.Id
	updates       map[pool.Id][]pool.Id
	updateTargets map[pool.Id]int
	dupAll        bool
	dupTargets    map[pool.Id]bool
	verifyAll     bool
	verify        map[pool.Id]bool
	cleandeps     map[pool.Id]bool
	jobCands      map[int][]pool.Id
	jobDisables   map[int][]int
	jobOrder      []int
	requires      []int

	problems []*Problem
	// disabled holds the rules switched off at the end of the last solve.
	disabled map[int]bool
	weakOff  []int
	result   satResult
}

// New creates a solver for p.
func New(p *pool.Pool) *Solver {
	return &Solver{pool: p}
}

// Pool returns the pool the solver works on.
func (s *Solver) Pool() *pool.Pool {
	return s.pool
}

// SetCache makes transactions report a zero download size for cached packages.
func (s *Solver) SetCache(c transaction.Cache) {
	s.cache = c
}

// Solve resolves q under flags. It returns a transaction when every job can be
// satisfied and the problems otherwise. The error is reserved for invalid jobs
// and internal faults.
func (s *Solver) Solve(q Queue, flags Flags) (*transaction.Transaction, []*Problem, error) {
	start := time.Now()
	defer func() { solveDuration.Observe(time.Since(start).Seconds()) }()

	s.reset(flags)
	s.jobs = s.decorate(q)
	if err := s.analyzeJobs(); err != nil {
		solvesTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}
	s.buildRules()
	solveRules.Observe(float64(len(s.rs.rules)))

	logger.Debug("solving", logger.Fields{
		"jobs":      len(s.jobs),
		"rules":     len(s.rs.rules),
		"installed": len(s.installed),
		"flags":     flags.String(),
	})

	disabled := make(map[int]bool)
	conflicts := 0
	for iter := 0; ; iter++ {
		if iter > len(s.rs.rules)+1 {
			solvesTotal.WithLabelValues("error").Inc()
			return nil, nil, errutils.ErrSolverWithDetails("no progress after %d iterations", iter)
		}
		res, st := s.runSat(disabled)
		conflicts += st.conflicts
		if res.ok {
			s.result = res
			break
		}

		if s.flags&AllowUninstall != 0 {
			if w := s.lowestWeak(res.core, disabled); w >= 0 {
				logger.Debug("dropping weak rule", logger.Fields{"rule": w, "source": s.pool.Solvable(s.rs.rules[w].source).String()})
				disabled[w] = true
				s.weakOff = append(s.weakOff, w)
				continue
			}
		}

		var dis []int
		for _, ri := range res.core {
			if !disabled[ri] && s.rs.rules[ri].kind.disableable() {
				dis = append(dis, s.expandJob(ri)...)
			}
		}
		if len(dis) == 0 {
			solvesTotal.WithLabelValues("error").Inc()
			return nil, nil, errutils.ErrSolverWithDetails("conflict without disableable rules (%d rules involved)", len(res.core))
		}
		prob := s.newProblem(len(s.problems)+1, res.core, dis)
		s.problems = append(s.problems, prob)
		problemsTotal.WithLabelValues(prob.kind.String()).Inc()
		for _, ri := range dis {
			disabled[ri] = true
		}
	}
	s.disabled = disabled
	solveConflicts.Observe(float64(conflicts))

	if len(s.problems) > 0 {
		solvesTotal.WithLabelValues("problems").Inc()
		logger.Debug("solve failed", logger.Fields{"problems": len(s.problems), "duration": time.Since(start).String()})
		return nil, append([]*Problem(nil), s.problems...), nil
	}

	trans := transaction.Build(s.pool, s.selected(s.result), transaction.Options{
		Multiversion: func(id pool.Id) bool { return s.multiversion[id] },
		Cache:        s.cache,
	})
	solvesTotal.WithLabelValues("ok").Inc()
	logger.Debug("solve done", logger.Fields{
		"steps":     trans.Len(),
		"conflicts": conflicts,
		"duration":  time.Since(start).String(),
	})
	return trans, nil, nil
}

func (s *Solver) reset(flags Flags) {
	s.gen++
	s.flags = flags
	s.pool.Prepare()
	s.nvars = s.pool.NumSolvables() - 1
	s.rs = newRuleSet()
	s.installed = nil
	if r := s.pool.Installed(); r != nil && r.Enabled() {
		s.installed = append(s.installed, r.Solvables()...)
	}
	s.multiversion = make(map[pool.Id]bool)
	s.obsoleters = make(map[pool.Id][]pool.Id)
	s.updates = make(map[pool.Id][]pool.Id)
	s.updateTargets = make(map[pool.Id]int)
	s.dupAll = false
	s.dupTargets = make(map[pool.Id]bool)
	s.verifyAll = false
	s.verify = make(map[pool.Id]bool)
	s.cleandeps = make(map[pool.Id]bool)
	s.jobCands = make(map[int][]pool.Id)
	s.jobDisables = make(map[int][]int)
	s.jobOrder = nil
	s.requires = nil
	s.problems = nil
	s.disabled = nil
	s.weakOff = nil
	s.result = satResult{}
}

// decorate returns the queue the rules are built from: the caller's jobs, with
// FlagForceBest added under ForceBest, followed by a multiversion job for each
// installonly name. Job indices of the caller's queue are preserved.
func (s *Solver) decorate(q Queue) Queue {
	jobs := q.Clone()
	if s.flags&ForceBest != 0 {
		for i := range jobs {
			jobs[i].How |= FlagForceBest
		}
	}
	for _, name := range s.pool.Installonly() {
		jobs.Push(JobMultiversion|SelectProvides, s.pool.Intern(name))
	}
	return jobs
}

// runSat searches with the given rules switched off.
func (s *Solver) runSat(disabled map[int]bool) (satResult, *sat) {
	st := newSat(s.rs, s.offSet(disabled), s.nvars)
	return st.run(s.decider()), st
}

// offSet combines explicitly disabled rules with the rules switched off by
// jobs that are still active.
func (s *Solver) offSet(disabled map[int]bool) []bool {
	off := make([]bool, len(s.rs.rules))
	for ri := range disabled {
		off[ri] = true
	}
	for j, rules := range s.jobDisables {
		if s.jobDropped(j, disabled) {
			continue
		}
		for _, ri := range rules {
			off[ri] = true
		}
	}
	return off
}

func (s *Solver) jobDropped(j int, disabled map[int]bool) bool {
	rules := s.rs.jobRules[j]
	return len(rules) > 0 && disabled[rules[0]]
}

// expandJob widens a job rule to every rule of its job. A best rule stays
// on its own so the job can fall back to an older candidate.
func (s *Solver) expandJob(ri int) []int {
	r := s.rs.rules[ri]
	if r.job >= 0 && r.kind != RuleBest {
		if rules, ok := s.rs.jobRules[r.job]; ok {
			return rules
		}
	}
	return []int{ri}
}

// lowestWeak returns the lowest enabled weak rule of core, or -1.
func (s *Solver) lowestWeak(core []int, disabled map[int]bool) int {
	for _, ri := range core {
		if s.rs.rules[ri].weak && !disabled[ri] {
			return ri
		}
	}
	return -1
}

// selected lists the installed solvables of a model in decision order.
func (s *Solver) selected(res satResult) []pool.Id {
	var out []pool.Id
	for _, l := range res.trail {
		if l.positive() && l.v() != pool.SystemSolvable {
			out = append(out, l.v())
		}
	}
	return out
}

// Problems returns the problems of the last solve.
func (s *Solver) Problems() []*Problem {
	return append([]*Problem(nil), s.problems...)
}

// Jobs returns the decorated queue of the last solve.
func (s *Solver) Jobs() Queue {
	return s.jobs.Clone()
}

// Stats describes the last solve.
type Stats struct {
	Rules     int
	Problems  int
	Installed int
}

// Stats reports sizes of the last solve.
func (s *Solver) Stats() Stats {
	st := Stats{Problems: len(s.problems), Installed: len(s.installed)}
	if s.rs != nil {
		st.Rules = len(s.rs.rules)
	}
	return st
}
