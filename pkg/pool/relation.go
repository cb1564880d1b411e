package pool

import (
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/evr"
)

// Cmp is a relation comparator, a combination of GT, EQ and LT bits.
type Cmp int

const (
	CmpGT Cmp = 1
	CmpEQ Cmp = 2
	CmpLT Cmp = 4
	CmpGE     = CmpGT | CmpEQ
	CmpLE     = CmpLT | CmpEQ

	// CmpArch marks an arch relation "name.arch": the evr slot holds an arch id.
	CmpArch Cmp = 16
)

var cmpStrings = map[Cmp]string{
	CmpGT: ">",
	CmpEQ: "=",
	CmpLT: "<",
	CmpGE: ">=",
	CmpLE: "<=",
}

func (c Cmp) String() string {
	if s, ok := cmpStrings[c]; ok {
		return s
	}
	if c == CmpArch {
		return "."
	}
	return ""
}

// ParseCmp parses a comparator operator.
func ParseCmp(op string) (Cmp, bool) {
	switch op {
	case "=", "==":
		return CmpEQ, true
	case ">":
		return CmpGT, true
	case "<":
		return CmpLT, true
	case ">=", "=>":
		return CmpGE, true
	case "<=", "=<":
		return CmpLE, true
	}
	return 0, false
}

// Relation is an interned (name, comparator, evr) dependency atom.
type Relation struct {
	Name  Id
	Flags Cmp
	EVR   Id
}

// CreateRelation interns the triple and returns its id. A comparator without an
// evr, or an evr without a comparator, is rejected. With neither, the plain name
// id is returned. Only an arch relation may wrap another relation, which lets
// "name = evr" be restricted to one arch.
func (p *Pool) CreateRelation(name Id, cmp Cmp, evrID Id) (Id, error) {
	if name == IdNull || (name.IsRelation() && cmp != CmpArch) {
		return IdNull, errutils.Wrapf(errutils.ErrInvalidRelation, "bad relation name %d", name)
	}
	if cmp == 0 && evrID == IdNull {
		return name, nil
	}
	if cmp == 0 || evrID == IdNull || evrID.IsRelation() {
		return IdNull, errutils.Wrapf(errutils.ErrInvalidRelation,
			"comparator and evr must be given together for %q", p.Str(name))
	}
	if _, ok := cmpStrings[cmp]; !ok && cmp != CmpArch {
		return IdNull, errutils.Wrapf(errutils.ErrInvalidRelation, "bad comparator %d", cmp)
	}
	rel := Relation{Name: name, Flags: cmp, EVR: evrID}
	if id, ok := p.relIndex[rel]; ok {
		return id, nil
	}
	id := Id(len(p.rels)) | relFlag
	p.rels = append(p.rels, rel)
	p.relIndex[rel] = id
	return id, nil
}

// Rel is CreateRelation for string arguments.
func (p *Pool) Rel(name string, cmp Cmp, version string) (Id, error) {
	evrID := IdNull
	if version != "" {
		evrID = p.Intern(version)
	}
	return p.CreateRelation(p.Intern(name), cmp, evrID)
}

// Relation returns the triple behind a relation id. Plain string ids yield a
// relation without comparator.
func (p *Pool) Relation(id Id) (Relation, bool) {
	if !id.IsRelation() {
		if id <= IdNull || int(id) >= len(p.strings) {
			return Relation{}, false
		}
		return Relation{Name: id}, true
	}
	idx := int(id &^ relFlag)
	if idx >= len(p.rels) {
		return Relation{}, false
	}
	return p.rels[idx], true
}

// DepName returns the plain name id of a dependency, unwrapping arch relations.
func (p *Pool) DepName(id Id) Id {
	for id.IsRelation() {
		rel, ok := p.Relation(id)
		if !ok {
			return IdNull
		}
		id = rel.Name
	}
	return id
}

// Dep2Str renders a dependency as "name", "name op evr" or "name.arch".
func (p *Pool) Dep2Str(id Id) string {
	rel, ok := p.Relation(id)
	if !ok {
		return ""
	}
	switch rel.Flags {
	case 0:
		return p.strings[rel.Name]
	case CmpArch:
		inner, _ := p.Relation(rel.Name)
		out := p.strings[inner.Name] + "." + p.strings[rel.EVR]
		if inner.Flags != 0 {
			out += " " + inner.Flags.String() + " " + p.strings[inner.EVR]
		}
		return out
	}
	return p.strings[rel.Name] + " " + rel.Flags.String() + " " + p.strings[rel.EVR]
}

// ParseRelation interns a dependency written as "name" or "name op evr".
func (p *Pool) ParseRelation(s string) (Id, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return p.Intern(fields[0]), nil
	case 3:
		cmp, ok := ParseCmp(fields[1])
		if !ok {
			return IdNull, errutils.Wrapf(errutils.ErrInvalidRelation, "bad operator in %q", s)
		}
		return p.Rel(fields[0], cmp, fields[2])
	}
	return IdNull, errutils.Wrapf(errutils.ErrInvalidRelation, "cannot parse %q", s)
}

// IsRpmlib reports whether dep names a capability of the package manager itself.
func (p *Pool) IsRpmlib(dep Id) bool {
	name := p.DepName(dep)
	if name <= IdNull || int(name) >= len(p.strings) {
		return false
	}
	return strings.HasPrefix(p.strings[name], "rpmlib(")
}

// intersect reports whether the ranges (pf, pe) and (df, de) overlap.
func (p *Pool) intersect(pf Cmp, pe Id, df Cmp, de Id) bool {
	if pf == 0 || df == 0 {
		return true
	}
	if pf == CmpArch || df == CmpArch {
		return false
	}
	if pf == CmpGT|CmpEQ|CmpLT || df == CmpGT|CmpEQ|CmpLT {
		return true
	}
	if pf&df&(CmpLT|CmpGT) != 0 {
		return true
	}
	if pe == de {
		return pf&df&CmpEQ != 0
	}
	switch evr.Match(p.strings[pe], p.strings[de]) {
	case -1:
		return df&CmpLT != 0 || pf&CmpGT != 0
	case 1:
		return df&CmpGT != 0 || pf&CmpLT != 0
	default:
		return pf&df&CmpEQ != 0
	}
}

// MatchDep reports whether the provide prov satisfies the dependency dep.
// An unversioned provide satisfies every version of its name. Arch relations
// never match a provide, use WhatProvides for them.
func (p *Pool) MatchDep(prov, dep Id) bool {
	if prov == dep {
		return true
	}
	pr, ok1 := p.Relation(prov)
	dr, ok2 := p.Relation(dep)
	if !ok1 || !ok2 || pr.Name != dr.Name || pr.Name.IsRelation() {
		return false
	}
	return p.intersect(pr.Flags, pr.EVR, dr.Flags, dr.EVR)
}

// MatchNEVR reports whether the name and evr of solvable s satisfy dep.
// Arch relations compare the solvable arch.
func (p *Pool) MatchNEVR(s *Solvable, dep Id) bool {
	dr, ok := p.Relation(dep)
	if !ok {
		return false
	}
	if dr.Flags == CmpArch {
		return s.arch == dr.EVR && p.MatchNEVR(s, dr.Name)
	}
	if dr.Name != s.name {
		return false
	}
	if dr.Flags == 0 {
		return true
	}
	return p.intersect(CmpEQ, s.evr, dr.Flags, dr.EVR)
}
