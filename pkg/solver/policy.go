package solver

import (
	"sort"
	"strings"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// better reports whether a is a better pick than b. Installed packages win when
// preferInstalled is set, then repository priority, arch rank, name, evr
// (highest first) and finally the lower id.
func (s *Solver) better(a, b pool.Id, preferInstalled bool) bool {
	sa, sb := s.pool.Solvable(a), s.pool.Solvable(b)
	if preferInstalled {
		if ia, ib := sa.Installed(), sb.Installed(); ia != ib {
			return ia
		}
	}
	if pa, pb := repoPriority(sa), repoPriority(sb); pa != pb {
		return pa > pb
	}
	if ra, rb := s.archRank(sa), s.archRank(sb); ra != rb {
		return ra < rb
	}
	if c := strings.Compare(sa.Name(), sb.Name()); c != 0 {
		return c < 0
	}
	if c := s.pool.EVRCmp(sa, sb); c != 0 {
		return c > 0
	}
	return a < b
}

// sortByPolicy orders ids best first.
func (s *Solver) sortByPolicy(ids []pool.Id, preferInstalled bool) {
	sort.SliceStable(ids, func(i, j int) bool {
		return s.better(ids[i], ids[j], preferInstalled)
	})
}

// pickBest returns the best of ids, which must not be empty.
func (s *Solver) pickBest(ids []pool.Id, preferInstalled bool) pool.Id {
	best := ids[0]
	for _, id := range ids[1:] {
		if s.better(id, best, preferInstalled) {
			best = id
		}
	}
	return best
}

// archRank ranks by host preference. noarch ranks with the native arch.
func (s *Solver) archRank(sv *pool.Solvable) int {
	if sv.Arch() == "noarch" {
		return 0
	}
	return s.pool.ArchScore(sv)
}

func repoPriority(sv *pool.Solvable) int {
	if r := sv.Repo(); r != nil {
		return r.Priority()
	}
	return 0
}

// archCompatible reports whether an update may move from arch a to arch b
// without AllowArchChange.
func archCompatible(a, b string) bool {
	return a == b || a == "noarch" || b == "noarch"
}

// vendorCompatible treats an empty vendor as matching any vendor.
func vendorCompatible(a, b string) bool {
	return a == "" || b == "" || a == b
}

// eligible reports whether id can become installed at all.
func (s *Solver) eligible(id pool.Id) bool {
	sv := s.pool.Solvable(id)
	if sv == nil || !s.pool.Considered(id) {
		return false
	}
	return sv.Installed() || s.pool.Installable(sv)
}

// updateCandidates lists the packages that may replace installed package i,
// best first. dup relaxes every restriction except the name.
func (s *Solver) updateCandidates(i pool.Id, dup bool) []pool.Id {
	si := s.pool.Solvable(i)
	var out []pool.Id
	accept := func(c pool.Id, sameName bool) {
		sc := s.pool.Solvable(c)
		if sc.Installed() || !s.eligible(c) {
			return
		}
		if !dup {
			if sameName {
				cmp := s.pool.EVRCmp(sc, si)
				if cmp == 0 || (cmp < 0 && s.flags&AllowDowngrade == 0) {
					return
				}
			}
			if s.flags&AllowArchChange == 0 && !archCompatible(si.Arch(), sc.Arch()) {
				return
			}
			if s.flags&AllowVendorChange == 0 && !vendorCompatible(si.Vendor(), sc.Vendor()) {
				return
			}
		}
		out = appendID(out, c)
	}
	for _, c := range s.pool.ByName(si.NameID()) {
		accept(c, true)
	}
	for _, c := range s.obsoleters[i] {
		accept(c, false)
	}
	s.sortUpdates(si, out)
	return out
}

// sortUpdates orders update candidates of si, same name first.
func (s *Solver) sortUpdates(si *pool.Solvable, ids []pool.Id) {
	sort.SliceStable(ids, func(a, b int) bool {
		na := s.pool.Solvable(ids[a]).NameID() == si.NameID()
		nb := s.pool.Solvable(ids[b]).NameID() == si.NameID()
		if na != nb {
			return na
		}
		return s.better(ids[a], ids[b], false)
	})
}

// bestSubset keeps the candidates sharing name and evr with the best one.
func (s *Solver) bestSubset(ids []pool.Id) []pool.Id {
	if len(ids) == 0 {
		return nil
	}
	top := s.pool.Solvable(s.pickBest(ids, false))
	var out []pool.Id
	for _, id := range ids {
		sv := s.pool.Solvable(id)
		if sv.NameID() == top.NameID() && s.pool.EVRCmp(sv, top) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// bestUpdateSubset keeps the newest same-name update candidates, or the best
// obsoleter when there is no same-name candidate.
func (s *Solver) bestUpdateSubset(i pool.Id, cands []pool.Id) []pool.Id {
	if len(cands) == 0 {
		return nil
	}
	si := s.pool.Solvable(i)
	var same []pool.Id
	for _, c := range cands {
		if s.pool.Solvable(c).NameID() == si.NameID() {
			same = append(same, c)
		}
	}
	if len(same) == 0 {
		return s.bestSubset(cands)
	}
	var newest []pool.Id
	var top *pool.Solvable
	for _, c := range same {
		sc := s.pool.Solvable(c)
		switch {
		case top == nil || s.pool.EVRCmp(sc, top) > 0:
			top = sc
			newest = []pool.Id{c}
		case s.pool.EVRCmp(sc, top) == 0:
			newest = append(newest, c)
		}
	}
	if s.pool.EVRCmp(top, si) <= 0 {
		return nil
	}
	return newest
}

func appendID(ids []pool.Id, id pool.Id) []pool.Id {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}
