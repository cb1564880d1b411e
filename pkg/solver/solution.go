package solver

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
)

// ElementKind says what one solution element does to the job queue.
type ElementKind int

const (
	// ElementDropJob removes a job.
	ElementDropJob ElementKind = iota + 1
	// ElementErase allows an installed package to be removed.
	ElementErase
	// ElementReplace allows an installed package to be replaced.
	ElementReplace
	// ElementInfArch accepts a package of an inferior architecture.
	ElementInfArch
	// ElementDistupgrade keeps a package a distupgrade would drop.
	ElementDistupgrade
	// ElementBestJob settles for a candidate older than the best one.
	ElementBestJob
	// ElementBestUpdate keeps an installed package instead of its best update.
	ElementBestUpdate
)

var elementKindNames = map[ElementKind]string{
	ElementDropJob:     "drop-job",
	ElementErase:       "erase",
	ElementReplace:     "replace",
	ElementInfArch:     "inferior-arch",
	ElementDistupgrade: "distupgrade",
	ElementBestJob:     "best-job",
	ElementBestUpdate:  "best-update",
}

func (k ElementKind) String() string {
	if n, ok := elementKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Element is one step of a solution.
type Element struct {
	Kind ElementKind
	// Job is the queue index for ElementDropJob and ElementBestJob, otherwise -1.
	Job         int
	Source      pool.Id
	Replacement pool.Id

	text string
}

func (e Element) String() string { return e.text }

func (e Element) key() string {
	return fmt.Sprintf("%d/%d/%d/%d", e.Kind, e.Job, e.Source, e.Replacement)
}

// Solution is a set of queue edits that resolves one problem.
type Solution struct {
	problem  *Problem
	elements []Element
}

// Elements returns the steps of the solution.
func (sol *Solution) Elements() []Element {
	return append([]Element(nil), sol.elements...)
}

func (sol *Solution) String() string {
	parts := make([]string, len(sol.elements))
	for i, e := range sol.elements {
		parts[i] = e.text
	}
	return strings.Join(parts, ", ")
}

// Apply returns a copy of q with the solution applied. q must be the queue
// the problem was solved from.
func (sol *Solution) Apply(q Queue) (Queue, error) {
	if sol.problem.gen != sol.problem.solver.gen {
		return nil, errutils.Wrapf(errutils.ErrStaleProblem, "problem %d", sol.problem.id)
	}
	drop := make(map[int]bool)
	replace := make(map[int]pool.Id)
	var extra Queue
	for _, e := range sol.elements {
		switch e.Kind {
		case ElementDropJob:
			drop[e.Job] = true
		case ElementBestJob:
			replace[e.Job] = e.Replacement
		case ElementErase:
			extra.Push(JobErase|SelectSolvable, e.Source)
		case ElementReplace, ElementInfArch:
			extra.Push(JobInstall|SelectSolvable, e.Replacement)
		case ElementDistupgrade, ElementBestUpdate:
			extra.Push(JobInstall|SelectSolvable, e.Source)
		}
	}
	out := make(Queue, 0, len(q)+len(extra))
	for i, job := range q {
		if drop[i] {
			continue
		}
		if x, ok := replace[i]; ok {
			job = Job{How: job.How&^(SelectMask|FlagSetEV|FlagSetArch) | SelectSolvable, What: x}
		}
		out = append(out, job)
	}
	return append(out, extra...), nil
}

// maxSolutionRules bounds how many rules one solution may switch off.
const maxSolutionRules = 8

// solutionsFor tries each disableable rule of the problem in turn, with the
// rules of the other problems off, extending the set while the search stays
// unsatisfiable.
func (s *Solver) solutionsFor(p *Problem) []*Solution {
	base := make(map[int]bool)
	for _, ri := range s.weakOff {
		base[ri] = true
	}
	for _, q := range s.problems {
		if q == p {
			continue
		}
		for _, ri := range q.disabled {
			base[ri] = true
		}
	}

	var starts []int
	seenJob := make(map[int]bool)
	for _, ri := range p.rules {
		r := s.rs.rules[ri]
		if !r.kind.disableable() || base[ri] {
			continue
		}
		if r.job >= 0 && r.kind != RuleBest {
			if seenJob[r.job] {
				continue
			}
			seenJob[r.job] = true
		}
		starts = append(starts, ri)
	}

	var out []*Solution
	seen := make(map[string]bool)
	for _, start := range starts {
		dis := make(map[int]bool, len(base)+1)
		for ri := range base {
			dis[ri] = true
		}
		var used []int
		take := func(ri int) {
			for _, x := range s.expandJob(ri) {
				dis[x] = true
			}
			used = append(used, ri)
		}
		take(start)
		for len(used) <= maxSolutionRules {
			res, _ := s.runSat(dis)
			if res.ok {
				sol := s.buildSolution(p, used, res)
				if len(sol.elements) == 0 {
					break
				}
				parts := make([]string, len(sol.elements))
				for i, e := range sol.elements {
					parts[i] = e.key()
				}
				key := strings.Join(parts, ";")
				if !seen[key] {
					seen[key] = true
					out = append(out, sol)
				}
				break
			}
			next := s.extension(res.core, dis, s.rs.rules[start].job >= 0)
			if next < 0 {
				break
			}
			take(next)
		}
	}
	return out
}

// extension picks the next rule to switch off from core. A solution that
// does not start by dropping a job only drops one when nothing else is left.
func (s *Solver) extension(core []int, dis map[int]bool, jobStart bool) int {
	fallback := -1
	for _, ri := range core {
		r := s.rs.rules[ri]
		if dis[ri] || !r.kind.disableable() {
			continue
		}
		if jobStart || r.job < 0 {
			return ri
		}
		if fallback < 0 {
			fallback = ri
		}
	}
	return fallback
}

func (s *Solver) buildSolution(p *Problem, used []int, res satResult) *Solution {
	sol := &Solution{problem: p}
	seen := make(map[string]bool)
	add := func(e Element) {
		if k := e.key(); !seen[k] {
			seen[k] = true
			sol.elements = append(sol.elements, e)
		}
	}
	isTrue := func(id pool.Id) bool { return res.model[id] == 1 }

	for _, ri := range used {
		r := s.rs.rules[ri]
		switch {
		case r.kind == RuleBest && r.source == pool.IdNull:
			x := pool.IdNull
			for _, c := range s.jobCands[r.job] {
				if isTrue(c) {
					x = c
					break
				}
			}
			if x == pool.IdNull {
				add(s.dropJob(r.job))
				continue
			}
			add(Element{Kind: ElementBestJob, Job: r.job, Replacement: x,
				text: fmt.Sprintf("install %s despite the old version", s.name(x))})
		case r.job >= 0:
			add(s.dropJob(r.job))
		case r.kind == RuleUpdate:
			i := r.source
			if isTrue(i) {
				continue
			}
			add(s.replacementOf(i, res))
		case r.kind == RuleInfArch:
			verb := "install"
			if s.pool.Solvable(r.source).Installed() {
				verb = "keep"
			}
			add(Element{Kind: ElementInfArch, Job: -1, Replacement: r.source,
				text: fmt.Sprintf("%s %s despite the inferior architecture", verb, s.name(r.source))})
		case r.kind == RuleDistupgrade:
			text := fmt.Sprintf("keep obsolete %s", s.name(r.source))
			if !s.pool.Solvable(r.source).Installed() {
				text = fmt.Sprintf("install %s from excluded repository", s.name(r.source))
			}
			add(Element{Kind: ElementDistupgrade, Job: -1, Source: r.source, text: text})
		case r.kind == RuleBest:
			add(Element{Kind: ElementBestUpdate, Job: -1, Source: r.source,
				text: fmt.Sprintf("keep old %s", s.name(r.source))})
		}
	}
	return sol
}

func (s *Solver) dropJob(j int) Element {
	return Element{Kind: ElementDropJob, Job: j,
		text: "do not ask to " + JobString(s.pool, s.jobs[j])}
}

// replacementOf describes what happened to installed package i in a model
// where it is gone.
func (s *Solver) replacementOf(i pool.Id, res satResult) Element {
	si := s.pool.Solvable(i)
	for _, l := range res.trail {
		if !l.positive() {
			continue
		}
		c := l.v()
		sc := s.pool.Solvable(c)
		if sc == nil || sc.Installed() || c == pool.SystemSolvable {
			continue
		}
		if sc.NameID() != si.NameID() && !containsID(s.obsoleters[i], c) {
			continue
		}
		text := fmt.Sprintf("allow replacement of %s with %s", s.name(i), s.name(c))
		switch {
		case sc.NameID() == si.NameID() && s.pool.EVRCmp(sc, si) < 0:
			text = fmt.Sprintf("allow downgrade of %s to %s", s.name(i), s.name(c))
		case !archCompatible(si.Arch(), sc.Arch()):
			text = fmt.Sprintf("allow architecture change of %s to %s", s.name(i), s.name(c))
		case !vendorCompatible(si.Vendor(), sc.Vendor()):
			text = fmt.Sprintf("allow vendor change of %s to %s", s.name(i), s.name(c))
		}
		return Element{Kind: ElementReplace, Job: -1, Source: i, Replacement: c, text: text}
	}
	return Element{Kind: ElementErase, Job: -1, Source: i,
		text: fmt.Sprintf("allow deinstallation of %s", s.name(i))}
}
