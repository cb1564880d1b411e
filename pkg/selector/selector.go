// Package selector builds job queue entries from name, provides, arch and evr
// filters. A selector is validated as it is built so that a bad filter is
// reported by Set and never at solve time.
package selector

import (
	"path"
	"sort"
	"strings"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solver"
)

// Key names the axis a filter applies to.
type Key int

const (
	KeyName Key = iota + 1
	KeyProvides
	KeyArch
	KeyEVR
)

var keyNames = map[Key]string{
	KeyName:     "name",
	KeyProvides: "provides",
	KeyArch:     "arch",
	KeyEVR:      "evr",
}

func (k Key) String() string {
	if s, ok := keyNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKey maps "name", "provides", "arch" or "evr" to its Key.
func ParseKey(name string) (Key, bool) {
	for k, s := range keyNames {
		if s == strings.ToLower(name) {
			return k, true
		}
	}
	return 0, false
}

// Cmp is the comparison a filter uses.
type Cmp int

const (
	// CmpEQ matches the value exactly.
	CmpEQ Cmp = iota + 1
	// CmpGlob matches a shell pattern. Only names accept it.
	CmpGlob
)

func (c Cmp) String() string {
	switch c {
	case CmpEQ:
		return "="
	case CmpGlob:
		return "glob"
	}
	return "unknown"
}

// Selector accumulates at most one filter per axis. Name and provides are
// mutually exclusive, and setting an axis again replaces the earlier filter.
type Selector struct {
	pool *pool.Pool

	name     string
	nameGlob bool
	provides pool.Id
	arch     pool.Id
	evr      pool.Id
}

// New returns an empty selector over p.
func New(p *pool.Pool) *Selector {
	return &Selector{pool: p}
}

// Set adds or replaces the filter of one axis.
func (s *Selector) Set(key Key, cmp Cmp, value string) error {
	if value == "" {
		return errutils.ErrSelectorWithDetails("empty %s filter", key)
	}
	if cmp != CmpEQ && cmp != CmpGlob {
		return errutils.ErrSelectorWithDetails("unknown comparison %d", cmp)
	}
	if cmp == CmpGlob && key != KeyName {
		return errutils.ErrSelectorWithDetails("%s filter does not accept glob patterns", key)
	}

	switch key {
	case KeyName:
		if s.provides != pool.IdNull {
			return errutils.ErrSelectorWithDetails("name and provides filters are exclusive")
		}
		if cmp == CmpGlob {
			if _, err := path.Match(value, ""); err != nil {
				return errutils.ErrSelectorWithDetails("bad pattern %q: %v", value, err)
			}
		}
		s.name, s.nameGlob = value, cmp == CmpGlob
	case KeyProvides:
		if s.name != "" {
			return errutils.ErrSelectorWithDetails("name and provides filters are exclusive")
		}
		dep, err := s.pool.ParseRelation(value)
		if err != nil {
			return errutils.ErrSelectorWithDetails("provides %q: %v", value, err)
		}
		s.provides = dep
	case KeyArch:
		if !arch.Known(value) {
			return errutils.ErrArchWithName(value)
		}
		s.arch = s.pool.Intern(value)
	case KeyEVR:
		if strings.ContainsAny(value, " \t") {
			return errutils.ErrSelectorWithDetails("bad evr %q", value)
		}
		s.evr = s.pool.Intern(value)
	default:
		return errutils.ErrSelectorWithDetails("unknown key %d", key)
	}
	return nil
}

// Empty reports whether neither a name nor a provides filter is set.
func (s *Selector) Empty() bool {
	return s.name == "" && s.provides == pool.IdNull
}

// String renders the filters, for example "name=A* arch=x86_64".
func (s *Selector) String() string {
	var parts []string
	switch {
	case s.nameGlob:
		parts = append(parts, "name~"+s.name)
	case s.name != "":
		parts = append(parts, "name="+s.name)
	case s.provides != pool.IdNull:
		parts = append(parts, "provides="+s.pool.Dep2Str(s.provides))
	}
	if s.arch != pool.IdNull {
		parts = append(parts, "arch="+s.pool.Str(s.arch))
	}
	if s.evr != pool.IdNull {
		parts = append(parts, "evr="+s.pool.Str(s.evr))
	}
	return strings.Join(parts, " ")
}

// Matches returns the solvables of enabled repositories passing every filter,
// in id order.
func (s *Selector) Matches() []pool.Id {
	var roots []pool.Id
	switch {
	case s.provides != pool.IdNull:
		roots = s.pool.WhatProvides(s.provides)
	case s.nameGlob:
		for _, name := range s.pool.Names() {
			if ok, _ := path.Match(s.name, s.pool.Str(name)); ok {
				roots = append(roots, s.pool.ByName(name)...)
			}
		}
	case s.name != "":
		if name, ok := s.pool.LookupString(s.name); ok {
			roots = s.pool.ByName(name)
		}
	}

	var out []pool.Id
	for _, id := range roots {
		if id == pool.SystemSolvable || !s.keep(s.pool.Solvable(id)) {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Selector) keep(sv *pool.Solvable) bool {
	if s.arch != pool.IdNull && sv.ArchID() != s.arch {
		return false
	}
	if s.evr != pool.IdNull {
		rel, err := s.pool.CreateRelation(sv.NameID(), pool.CmpEQ, s.evr)
		if err != nil || !s.pool.MatchNEVR(sv, rel) {
			return false
		}
	}
	return true
}

// ToQueue expands the selector into job entries without a job type. Name
// selections yield one SelectName entry per distinct matching name, provides
// selections a single SelectProvides entry. Arch and evr filters are folded
// into the target relation and flagged with FlagSetArch and FlagSetEV. When
// nothing matches, a single entry naming the raw value is returned so that
// solving reports the missing package.
func (s *Selector) ToQueue() (solver.Queue, error) {
	if s.Empty() {
		return nil, errutils.ErrSelectorWithDetails("a name or provides filter is required")
	}
	matches := s.Matches()

	if s.provides != pool.IdNull && s.evr == pool.IdNull {
		what, how, err := s.restrict(s.provides, false)
		if err != nil {
			return nil, err
		}
		return solver.Queue{{How: solver.SelectProvides | how, What: what}}, nil
	}

	// Name selections, and provides selections pinned to an evr, are turned
	// into name jobs because an evr only applies to package names.
	var names []pool.Id
	seen := make(map[pool.Id]bool)
	for _, id := range matches {
		name := s.pool.Solvable(id).NameID()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return s.pool.Str(names[i]) < s.pool.Str(names[j])
	})

	if len(names) == 0 {
		raw := s.provides
		sel := solver.SelectProvides
		if s.name != "" {
			raw, sel = s.pool.Intern(s.name), solver.SelectName
		}
		what, how, err := s.restrict(raw, sel == solver.SelectName)
		if err != nil {
			return nil, err
		}
		return solver.Queue{{How: sel | how, What: what}}, nil
	}

	q := make(solver.Queue, 0, len(names))
	for _, name := range names {
		what, how, err := s.restrict(name, true)
		if err != nil {
			return nil, err
		}
		q.Push(solver.SelectName|how, what)
	}
	return q, nil
}

// restrict wraps dep with the evr and arch filters.
func (s *Selector) restrict(dep pool.Id, byName bool) (pool.Id, solver.JobFlags, error) {
	var how solver.JobFlags
	if s.evr != pool.IdNull && byName {
		rel, err := s.pool.CreateRelation(dep, pool.CmpEQ, s.evr)
		if err != nil {
			return pool.IdNull, 0, errutils.ErrSelectorWithDetails("%v", err)
		}
		dep = rel
		how |= solver.FlagSetEV
	}
	if s.arch != pool.IdNull {
		rel, err := s.pool.CreateRelation(dep, pool.CmpArch, s.arch)
		if err != nil {
			return pool.IdNull, 0, errutils.ErrSelectorWithDetails("%v", err)
		}
		dep = rel
		how |= solver.FlagSetArch
	}
	return dep, how, nil
}
