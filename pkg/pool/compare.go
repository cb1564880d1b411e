package pool

import (
	"sort"
	"strings"

	"github.com/glorpus-work/solvent/pkg/evr"
)

// PackageCmp orders two solvables by name, evr, repository priority and name,
// then arch. It returns -1, 0 or 1; the greater solvable is the better candidate.
func (p *Pool) PackageCmp(a, b *Solvable) int {
	if a == b {
		return 0
	}
	if c := strings.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	if c := evr.Compare(a.EVR(), b.EVR()); c != 0 {
		return c
	}
	pa, pb := repoPriority(a), repoPriority(b)
	if pa != pb {
		if pa < pb {
			return -1
		}
		return 1
	}
	if c := strings.Compare(repoName(b), repoName(a)); c != 0 {
		return c
	}
	return strings.Compare(a.Arch(), b.Arch())
}

// EVRCmp compares the evrs of two solvables.
func (p *Pool) EVRCmp(a, b *Solvable) int {
	if a.evr == b.evr {
		return 0
	}
	return evr.Compare(a.EVR(), b.EVR())
}

// SortSolvables sorts ids ascending by PackageCmp, ties broken by id.
func (p *Pool) SortSolvables(ids []Id) {
	sort.SliceStable(ids, func(i, j int) bool {
		if c := p.PackageCmp(p.solvables[ids[i]], p.solvables[ids[j]]); c != 0 {
			return c < 0
		}
		return ids[i] < ids[j]
	})
}

func repoPriority(s *Solvable) int {
	if s.repo == nil {
		return 0
	}
	return s.repo.priority
}

func repoName(s *Solvable) string {
	if s.repo == nil {
		return ""
	}
	return s.repo.name
}

func sortIds(ids []Id) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
