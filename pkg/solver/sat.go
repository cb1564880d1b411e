package solver

import (
	"sort"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// sat is one CDCL search over the enabled rules of a ruleSet. Learnt rules live
// only as long as the search; the original rules are shared and never mutated
// apart from the order of their literals.
type sat struct {
	rules []*rule
	nOrig int
	off   []bool

	nvars   int
	assign  []int8
	level   []int
	reason  []int
	watches [][]int

	trail    []lit
	trailLim []int
	qhead    int

	rootWhy map[pool.Id][]int
	seen    []bool

	conflicts int
	decisions int
	backjumps int
}

func newSat(rs *ruleSet, off []bool, nvars int) *sat {
	n := len(rs.rules)
	st := &sat{
		rules:   rs.rules[:n:n],
		nOrig:   n,
		off:     off,
		nvars:   nvars,
		assign:  make([]int8, nvars+1),
		level:   make([]int, nvars+1),
		reason:  make([]int, nvars+1),
		watches: make([][]int, 2*(nvars+1)),
		rootWhy: make(map[pool.Id][]int),
		seen:    make([]bool, nvars+1),
	}
	for i := range st.reason {
		st.reason[i] = -1
	}
	return st
}

func watchIndex(l lit) int {
	if l < 0 {
		return 2*int(-l) + 1
	}
	return 2 * int(l)
}

// value returns 1 if l is true, -1 if false and 0 if unassigned.
func (st *sat) value(l lit) int8 {
	v := st.assign[l.v()]
	if l < 0 {
		return -v
	}
	return v
}

func (st *sat) decisionLevel() int {
	return len(st.trailLim)
}

func (st *sat) enqueue(l lit, reason int) {
	v := l.v()
	if l > 0 {
		st.assign[v] = 1
	} else {
		st.assign[v] = -1
	}
	st.level[v] = st.decisionLevel()
	st.reason[v] = reason
	st.trail = append(st.trail, l)
}

func (st *sat) watch(ri int) {
	r := st.rules[ri]
	st.watches[watchIndex(r.lits[0])] = append(st.watches[watchIndex(r.lits[0])], ri)
	st.watches[watchIndex(r.lits[1])] = append(st.watches[watchIndex(r.lits[1])], ri)
}

// initialize installs watches and root units. It returns a conflicting rule
// index, or -1.
func (st *sat) initialize() int {
	var units []int
	for i, r := range st.rules {
		if st.off[i] {
			continue
		}
		switch len(r.lits) {
		case 0:
			return i
		case 1:
			units = append(units, i)
		default:
			st.watch(i)
		}
	}
	for _, i := range units {
		l := st.rules[i].lits[0]
		switch st.value(l) {
		case -1:
			return i
		case 0:
			st.enqueue(l, i)
		}
	}
	return -1
}

// propagate runs unit propagation and returns a conflicting rule index, or -1.
func (st *sat) propagate() int {
	for st.qhead < len(st.trail) {
		p := st.trail[st.qhead]
		st.qhead++
		falseLit := -p
		wi := watchIndex(falseLit)
		ws := st.watches[wi]
		i, j := 0, 0
		for i < len(ws) {
			ri := ws[i]
			i++
			r := st.rules[ri]
			if r.lits[0] == falseLit {
				r.lits[0], r.lits[1] = r.lits[1], r.lits[0]
			}
			if st.value(r.lits[0]) == 1 {
				ws[j] = ri
				j++
				continue
			}
			moved := false
			for k := 2; k < len(r.lits); k++ {
				if st.value(r.lits[k]) != -1 {
					r.lits[1], r.lits[k] = r.lits[k], r.lits[1]
					nw := watchIndex(r.lits[1])
					st.watches[nw] = append(st.watches[nw], ri)
					moved = true
					break
				}
			}
			if moved {
				continue
			}
			ws[j] = ri
			j++
			if st.value(r.lits[0]) == -1 {
				for i < len(ws) {
					ws[j] = ws[i]
					i++
					j++
				}
				st.watches[wi] = ws[:j]
				return ri
			}
			st.enqueue(r.lits[0], ri)
		}
		st.watches[wi] = ws[:j]
	}
	return -1
}

func (st *sat) decide(l lit) {
	st.decisions++
	st.trailLim = append(st.trailLim, len(st.trail))
	st.enqueue(l, -1)
}

func (st *sat) backjump(lvl int) {
	if st.decisionLevel() <= lvl {
		return
	}
	st.backjumps++
	start := st.trailLim[lvl]
	for i := len(st.trail) - 1; i >= start; i-- {
		v := st.trail[i].v()
		st.assign[v] = 0
		st.reason[v] = -1
		st.level[v] = 0
	}
	st.trail = st.trail[:start]
	st.trailLim = st.trailLim[:lvl]
	st.qhead = len(st.trail)
}

// origins adds the original rules behind rule ri to set.
func (st *sat) origins(set map[int]bool, ri int) {
	if ri < st.nOrig {
		set[ri] = true
		return
	}
	for _, w := range st.rules[ri].why {
		set[w] = true
	}
}

// rootDerivation returns the original rules that force the root level
// assignment of v.
func (st *sat) rootDerivation(v pool.Id) []int {
	if why, ok := st.rootWhy[v]; ok {
		return why
	}
	st.rootWhy[v] = nil
	set := make(map[int]bool)
	if ri := st.reason[v]; ri >= 0 {
		st.origins(set, ri)
		for _, q := range st.rules[ri].lits {
			if q.v() == v {
				continue
			}
			for _, w := range st.rootDerivation(q.v()) {
				set[w] = true
			}
		}
	}
	why := sortedSet(set)
	st.rootWhy[v] = why
	return why
}

// rootCore returns the original rules involved in a conflict at root level.
func (st *sat) rootCore(ri int) []int {
	set := make(map[int]bool)
	st.origins(set, ri)
	for _, q := range st.rules[ri].lits {
		if st.assign[q.v()] == 0 {
			continue
		}
		for _, w := range st.rootDerivation(q.v()) {
			set[w] = true
		}
	}
	return sortedSet(set)
}

func (st *sat) maxLevel(ri int) int {
	lvl := 0
	for _, q := range st.rules[ri].lits {
		if l := st.level[q.v()]; l > lvl {
			lvl = l
		}
	}
	return lvl
}

// analyze derives a first-UIP clause from the conflict. It returns the clause,
// with the asserting literal first, the level to jump back to and the original
// rules the clause was derived from.
func (st *sat) analyze(confl int) ([]lit, int, []int) {
	cur := st.decisionLevel()
	learnt := []lit{0}
	why := make(map[int]bool)
	var marked []pool.Id
	pathC := 0
	var p lit
	idx := len(st.trail) - 1
	ri := confl

	for {
		st.origins(why, ri)
		for _, q := range st.rules[ri].lits {
			if p != 0 && q == p {
				continue
			}
			v := q.v()
			if st.seen[v] {
				continue
			}
			st.seen[v] = true
			marked = append(marked, v)
			switch {
			case st.level[v] == 0:
				for _, w := range st.rootDerivation(v) {
					why[w] = true
				}
			case st.level[v] == cur:
				pathC++
			default:
				learnt = append(learnt, q)
			}
		}
		for !st.seen[st.trail[idx].v()] || st.level[st.trail[idx].v()] != cur {
			idx--
		}
		p = st.trail[idx]
		idx--
		ri = st.reason[p.v()]
		pathC--
		if pathC <= 0 {
			break
		}
	}
	learnt[0] = -p

	for _, v := range marked {
		st.seen[v] = false
	}

	back := 0
	for i := 1; i < len(learnt); i++ {
		if l := st.level[learnt[i].v()]; l > back {
			back = l
			learnt[1], learnt[i] = learnt[i], learnt[1]
		}
	}
	return learnt, back, sortedSet(why)
}

// result of a search.
type satResult struct {
	ok    bool
	core  []int
	trail []lit
	model []int8
}

// run searches for a model. next supplies decisions; returning 0 ends the
// search, and every still unassigned variable is set to false.
func (st *sat) run(next func(*sat) lit) satResult {
	if ri := st.initialize(); ri >= 0 {
		return satResult{core: st.rootCore(ri)}
	}
	for {
		if ri := st.propagate(); ri >= 0 {
			st.conflicts++
			lvl := st.maxLevel(ri)
			if lvl == 0 {
				return satResult{core: st.rootCore(ri)}
			}
			if lvl < st.decisionLevel() {
				st.backjump(lvl)
			}
			learnt, back, why := st.analyze(ri)
			st.backjump(back)
			st.rules = append(st.rules, &rule{lits: learnt, kind: RuleLearnt, job: -1, why: why})
			st.off = append(st.off, false)
			li := len(st.rules) - 1
			if len(learnt) > 1 {
				st.watch(li)
			}
			st.enqueue(learnt[0], li)
			continue
		}
		l := next(st)
		if l == 0 {
			break
		}
		st.decide(l)
	}

	st.trailLim = append(st.trailLim, len(st.trail))
	for v := 1; v <= st.nvars; v++ {
		if st.assign[v] == 0 {
			st.enqueue(neg(pool.Id(v)), -1)
		}
	}
	model := append([]int8(nil), st.assign...)
	return satResult{ok: true, trail: append([]lit(nil), st.trail...), model: model}
}

// satisfied reports whether some literal of r is true.
func (st *sat) satisfied(r *rule) bool {
	for _, l := range r.lits {
		if st.value(l) == 1 {
			return true
		}
	}
	return false
}

func sortedSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
