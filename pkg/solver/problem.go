package solver

import (
	"fmt"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
)

// Problem explains why some jobs cannot be satisfied together. It is only
// valid until the solver that produced it runs again.
type Problem struct {
	solver *Solver
	gen    int
	id     int

	rules    []int
	disabled []int

	rule   int
	kind   RuleKind
	source pool.Id
	target pool.Id
	dep    pool.Id
	job    int
	text   string

	solutions []*Solution
	computed  bool
}

// newProblem describes the conflict core by its most telling rule: the lowest
// rank wins, ties go to the lowest rule.
func (s *Solver) newProblem(id int, core, disabled []int) *Problem {
	best := core[0]
	for _, ri := range core[1:] {
		if s.rs.rules[ri].kind.rank() < s.rs.rules[best].kind.rank() {
			best = ri
		}
	}
	r := s.rs.rules[best]
	p := &Problem{
		solver:   s,
		gen:      s.gen,
		id:       id,
		rules:    core,
		disabled: disabled,
		rule:     best,
		kind:     r.kind,
		source:   r.source,
		target:   r.target,
		dep:      r.dep,
		job:      r.job,
		text:     s.ruleText(best),
	}
	if p.job < 0 {
		for _, ri := range core {
			if j := s.rs.rules[ri].job; j >= 0 {
				p.job = j
				break
			}
		}
	}
	return p
}

// ID is the 1-based position of the problem in its solve.
func (p *Problem) ID() int { return p.id }

// Kind classifies the problem by its representative rule.
func (p *Problem) Kind() RuleKind { return p.kind }

// Source is the package the problem is about, or IdNull.
func (p *Problem) Source() pool.Id { return p.source }

// Target is the other package involved, or IdNull.
func (p *Problem) Target() pool.Id { return p.target }

// Dep is the dependency involved, or IdNull.
func (p *Problem) Dep() pool.Id { return p.dep }

// Job returns the index and value of the job involved, if any.
func (p *Problem) Job() (int, Job, bool) {
	if p.job < 0 || p.job >= len(p.solver.jobs) {
		return -1, Job{}, false
	}
	return p.job, p.solver.jobs[p.job], true
}

func (p *Problem) String() string { return p.text }

// Details lists one line per rule involved in the problem.
func (p *Problem) Details() []string {
	out := make([]string, 0, len(p.rules))
	for _, ri := range p.rules {
		if p.solver.rs.rules[ri].kind == RuleSystem {
			continue
		}
		out = append(out, p.solver.ruleText(ri))
	}
	return out
}

// Solutions computes the ways to resolve the problem. It fails with
// ErrStaleProblem once the solver has been run again.
func (p *Problem) Solutions() ([]*Solution, error) {
	if p.gen != p.solver.gen {
		return nil, errutils.Wrapf(errutils.ErrStaleProblem, "problem %d", p.id)
	}
	if !p.computed {
		p.solutions = p.solver.solutionsFor(p)
		p.computed = true
	}
	return append([]*Solution(nil), p.solutions...), nil
}

func (s *Solver) name(id pool.Id) string {
	if sv := s.pool.Solvable(id); sv != nil {
		return sv.String()
	}
	return fmt.Sprintf("#%d", id)
}

// ruleText renders one rule the way problems are reported.
func (s *Solver) ruleText(ri int) string {
	r := s.rs.rules[ri]
	dep := s.pool.Dep2Str(r.dep)
	switch r.kind {
	case RuleSystem:
		return "system rule"
	case RuleJob:
		return "conflicting requests"
	case RuleJobNothingProvides:
		return fmt.Sprintf("nothing provides requested %s", dep)
	case RuleJobUnknownPackage:
		return fmt.Sprintf("package %s does not exist", dep)
	case RuleNotInstallable:
		return fmt.Sprintf("package %s is not installable", s.name(r.source))
	case RuleNothingProvides:
		return fmt.Sprintf("nothing provides %s needed by %s", dep, s.name(r.source))
	case RuleRequires:
		return fmt.Sprintf("package %s requires %s, but none of the providers can be installed", s.name(r.source), dep)
	case RuleConflicts:
		return fmt.Sprintf("package %s conflicts with %s provided by %s", s.name(r.source), dep, s.name(r.target))
	case RuleSelfConflict:
		return fmt.Sprintf("package %s conflicts with %s provided by itself", s.name(r.source), dep)
	case RuleObsoletes:
		return fmt.Sprintf("package %s obsoletes %s provided by %s", s.name(r.source), dep, s.name(r.target))
	case RuleInstalledObsoletes:
		return fmt.Sprintf("installed package %s obsoletes %s provided by %s", s.name(r.source), dep, s.name(r.target))
	case RuleSameName:
		return fmt.Sprintf("cannot install both %s and %s", s.name(r.source), s.name(r.target))
	case RuleUpdate:
		return fmt.Sprintf("problem with installed package %s", s.name(r.source))
	case RuleInfArch:
		return fmt.Sprintf("%s has inferior architecture", s.name(r.source))
	case RuleDistupgrade:
		return fmt.Sprintf("%s does not belong to a distupgrade repository", s.name(r.source))
	case RuleBest:
		if r.source == pool.IdNull {
			return "cannot install the best candidate for the job"
		}
		return fmt.Sprintf("cannot install the best update candidate for package %s", s.name(r.source))
	}
	return fmt.Sprintf("%s rule", r.kind)
}
