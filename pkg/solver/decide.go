package solver

import (
	"github.com/glorpus-work/solvent/pkg/pool"
)

// decider returns the decision heuristic for one search. Each call returns the
// next literal to decide, or 0 once every remaining variable may be false.
func (s *Solver) decider() func(*sat) lit {
	sc := &scan{}
	return func(st *sat) lit {
		sc.sync(st)
		if l := s.decideJobs(st); l != 0 {
			return l
		}
		if l := s.decideInstalled(st); l != 0 {
			return l
		}
		if l := s.decideRequires(st); l != 0 {
			return l
		}
		if l := s.decideOpen(st, sc); l != 0 {
			return l
		}
		if s.flags&WithoutRecommends == 0 {
			return s.decideRecommends(st, sc)
		}
		return 0
	}
}

// scan remembers how far the open rule and recommends passes got. Without a
// backjump assignments only grow, so work behind the cursors stays done.
type scan struct {
	backjumps int

	openNext    int
	openPending []int

	trailNext int
}

func (sc *scan) sync(st *sat) {
	if st.backjumps != sc.backjumps {
		*sc = scan{backjumps: st.backjumps, openPending: sc.openPending[:0]}
	}
}

// undecidedPositive returns the unassigned solvables of r's positive literals.
func undecidedPositive(st *sat, r *rule) []pool.Id {
	var out []pool.Id
	for _, l := range r.lits {
		if l.positive() && st.value(l) == 0 {
			out = append(out, l.v())
		}
	}
	return out
}

func (s *Solver) decideJobs(st *sat) lit {
	for _, ri := range s.jobOrder {
		if st.off[ri] {
			continue
		}
		r := st.rules[ri]
		if st.satisfied(r) {
			continue
		}
		if cands := undecidedPositive(st, r); len(cands) > 0 {
			return pos(s.pickBest(cands, true))
		}
	}
	return 0
}

// decideInstalled keeps installed packages, or moves targeted ones to their
// best update candidate. Multiversion packages keep the old version next to
// the new one.
func (s *Solver) decideInstalled(st *sat) lit {
	for _, i := range s.installed {
		if s.cleandeps[i] || st.value(pos(i)) == -1 {
			continue
		}
		_, update := s.updateTargets[i]
		targeted := update || s.dupAll || s.dupTargets[i]
		if !targeted {
			if st.value(pos(i)) == 0 {
				return pos(i)
			}
			continue
		}

		replaced := false
		best := pool.IdNull
		for _, c := range s.updates[i] {
			switch st.value(pos(c)) {
			case 1:
				replaced = true
			case 0:
				if best == pool.IdNull {
					best = c
				}
			}
		}
		upgrade := best != pool.IdNull && s.improves(i, best)
		if st.value(pos(i)) == 0 {
			if upgrade && !replaced {
				return pos(best)
			}
			return pos(i)
		}
		if s.multiversion[i] && upgrade && !replaced {
			return pos(best)
		}
	}
	return 0
}

// improves reports whether moving from installed i to c is an update the
// solver takes on its own.
func (s *Solver) improves(i, c pool.Id) bool {
	si, sc := s.pool.Solvable(i), s.pool.Solvable(c)
	if si.NameID() != sc.NameID() {
		return true
	}
	return s.pool.EVRCmp(sc, si) > 0
}

func (s *Solver) decideRequires(st *sat) lit {
	for _, ri := range s.requires {
		if st.off[ri] {
			continue
		}
		r := st.rules[ri]
		if st.value(pos(r.source)) != 1 || st.satisfied(r) {
			continue
		}
		if cands := undecidedPositive(st, r); len(cands) > 0 {
			return pos(s.pickBest(cands, true))
		}
	}
	return 0
}

// decideOpen handles any remaining rule that setting the rest of the
// variables to false would violate. Rules still waiting on an unassigned
// negative literal are parked in order and revisited first.
func (s *Solver) decideOpen(st *sat, sc *scan) lit {
	var found lit
	pending := sc.openPending[:0]
	for _, ri := range sc.openPending {
		r := st.rules[ri]
		if st.satisfied(r) {
			continue
		}
		pending = append(pending, ri)
		if found == 0 && !hasOpenNegative(st, r) {
			if cands := undecidedPositive(st, r); len(cands) > 0 {
				found = pos(s.pickBest(cands, true))
			}
		}
	}
	sc.openPending = pending
	if found != 0 {
		return found
	}

	for ; sc.openNext < st.nOrig; sc.openNext++ {
		ri := sc.openNext
		if st.off[ri] {
			continue
		}
		r := st.rules[ri]
		if st.satisfied(r) {
			continue
		}
		if hasOpenNegative(st, r) {
			sc.openPending = append(sc.openPending, ri)
			continue
		}
		if cands := undecidedPositive(st, r); len(cands) > 0 {
			return pos(s.pickBest(cands, true))
		}
	}
	return 0
}

func hasOpenNegative(st *sat, r *rule) bool {
	for _, l := range r.lits {
		if !l.positive() && st.value(l) == 0 {
			return true
		}
	}
	return false
}

// decideRecommends installs the best provider of each unmet recommends of an
// installed package. Recommends that fail are given up silently; a provider
// undone by a backjump is tried again.
func (s *Solver) decideRecommends(st *sat, sc *scan) lit {
	for ; sc.trailNext < len(st.trail); sc.trailNext++ {
		l := st.trail[sc.trailNext]
		if !l.positive() || l.v() == pool.SystemSolvable {
			continue
		}
		for _, d := range s.pool.Solvable(l.v()).Recommends() {
			met := false
			var cands []pool.Id
			for _, p := range s.pool.WhatProvides(d) {
				switch {
				case st.value(pos(p)) == 1:
					met = true
				case st.value(pos(p)) == 0 && s.eligible(p):
					cands = append(cands, p)
				}
			}
			if met || len(cands) == 0 {
				continue
			}
			return pos(s.pickBest(cands, true))
		}
	}
	return 0
}
