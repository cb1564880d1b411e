package transaction

import (
	"sort"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// order sorts steps topologically: packages are installed after the packages
// of the same transaction they require, and erased after the packages that
// require them were erased or updated away. Ties keep the input order; a cycle
// is broken at its earliest remaining step.
func order(p *pool.Pool, steps []Step) []Step {
	n := len(steps)
	if n < 2 {
		return steps
	}
	index := make(map[pool.Id]int, n)
	for i, st := range steps {
		index[st.Solvable] = i
	}

	succ := make([][]int, n)
	indeg := make([]int, n)
	seen := make(map[[2]int]bool)
	edge := func(from, to int) {
		if from == to || seen[[2]int{from, to}] {
			return
		}
		seen[[2]int{from, to}] = true
		succ[from] = append(succ[from], to)
		indeg[to]++
	}
	provided := func(reqs []pool.Id, id pool.Id) bool {
		for _, d := range reqs {
			for _, prov := range p.WhatProvides(d) {
				if prov == id {
					return true
				}
			}
		}
		return false
	}

	for b, st := range steps {
		s := p.Solvable(st.Solvable)
		if st.Kind == KindErase {
			continue
		}
		for _, d := range s.Requires() {
			for _, prov := range p.WhatProvides(d) {
				if a, ok := index[prov]; ok && steps[a].Kind != KindErase {
					edge(a, b)
				}
			}
		}
	}
	for e, st := range steps {
		if st.Kind != KindErase {
			continue
		}
		for x, other := range steps {
			if x == e {
				continue
			}
			var reqs []pool.Id
			if other.Kind == KindErase {
				reqs = p.Solvable(other.Solvable).Requires()
			} else {
				for _, o := range other.Replaces {
					reqs = append(reqs, p.Solvable(o).Requires()...)
				}
			}
			if len(reqs) > 0 && provided(reqs, st.Solvable) {
				edge(x, e)
			}
		}
	}

	done := make([]bool, n)
	out := make([]Step, 0, n)
	for len(out) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			for i := 0; i < n; i++ {
				if !done[i] {
					next = i
					break
				}
			}
		}
		done[next] = true
		out = append(out, steps[next])
		for _, s := range succ[next] {
			indeg[s]--
		}
	}
	return out
}

func sortIDs(ids []pool.Id) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
