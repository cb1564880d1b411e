package solver

import (
	"github.com/glorpus-work/solvent/pkg/pool"
)

// RuleKind tags why a rule exists. Problems are classified by it.
type RuleKind int

const (
	RuleUnknown RuleKind = iota
	// RuleSystem keeps the system solvable installed.
	RuleSystem
	RuleJob
	RuleJobNothingProvides
	RuleJobUnknownPackage
	RuleNotInstallable
	RuleNothingProvides
	RuleRequires
	RuleConflicts
	RuleSelfConflict
	RuleObsoletes
	RuleInstalledObsoletes
	RuleSameName
	RuleUpdate
	RuleInfArch
	RuleDistupgrade
	RuleBest
	RuleLearnt
)

var ruleKindNames = map[RuleKind]string{
	RuleUnknown:            "unknown",
	RuleSystem:             "system",
	RuleJob:                "job",
	RuleJobNothingProvides: "job-nothing-provides",
	RuleJobUnknownPackage:  "job-unknown-package",
	RuleNotInstallable:     "not-installable",
	RuleNothingProvides:    "nothing-provides",
	RuleRequires:           "requires",
	RuleConflicts:          "conflicts",
	RuleSelfConflict:       "self-conflict",
	RuleObsoletes:          "obsoletes",
	RuleInstalledObsoletes: "installed-obsoletes",
	RuleSameName:           "same-name",
	RuleUpdate:             "update",
	RuleInfArch:            "inferior-arch",
	RuleDistupgrade:        "distupgrade",
	RuleBest:               "best",
	RuleLearnt:             "learnt",
}

func (k RuleKind) String() string {
	if n, ok := ruleKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// disableable rules may be switched off to resolve a conflict.
func (k RuleKind) disableable() bool {
	switch k {
	case RuleJob, RuleJobNothingProvides, RuleJobUnknownPackage,
		RuleUpdate, RuleInfArch, RuleDistupgrade, RuleBest:
		return true
	}
	return false
}

// rank orders rule kinds by how well they explain a problem; lower is better.
func (k RuleKind) rank() int {
	switch k {
	case RuleNotInstallable, RuleNothingProvides, RuleSelfConflict,
		RuleJobNothingProvides, RuleJobUnknownPackage:
		return 1
	case RuleInfArch, RuleDistupgrade, RuleBest:
		return 2
	case RuleConflicts, RuleObsoletes, RuleInstalledObsoletes, RuleSameName:
		return 3
	case RuleRequires:
		return 4
	case RuleUpdate:
		return 5
	case RuleJob:
		return 6
	}
	return 7
}

// lit is a literal: +id means the solvable is installed, -id that it is not.
type lit int32

func pos(id pool.Id) lit { return lit(id) }
func neg(id pool.Id) lit { return -lit(id) }

func (l lit) v() pool.Id {
	if l < 0 {
		return pool.Id(-l)
	}
	return pool.Id(l)
}

func (l lit) positive() bool { return l > 0 }

// rule is a clause: at least one literal must hold.
type rule struct {
	lits []lit
	kind RuleKind

	// source, target and dep describe the rule for problem texts.
	source pool.Id
	target pool.Id
	dep    pool.Id
	job    int

	// weak rules are disabled silently when AllowUninstall is set.
	weak bool

	// why lists the original rules a learnt rule was derived from.
	why []int
}

// ruleSet accumulates the rules of one solve.
type ruleSet struct {
	rules []*rule

	// per-solvable indices for solutions and job disabling
	updateRule map[pool.Id]int
	bestRule   map[pool.Id]int
	infarch    map[pool.Id]int
	dupRule    map[pool.Id]int
	jobRules   map[int][]int
}

func newRuleSet() *ruleSet {
	return &ruleSet{
		updateRule: make(map[pool.Id]int),
		bestRule:   make(map[pool.Id]int),
		infarch:    make(map[pool.Id]int),
		dupRule:    make(map[pool.Id]int),
		jobRules:   make(map[int][]int),
	}
}

func (rs *ruleSet) add(r *rule) int {
	r.lits = dedupeLits(r.lits)
	rs.rules = append(rs.rules, r)
	idx := len(rs.rules) - 1
	if r.job >= 0 && (r.kind == RuleJob || r.kind == RuleJobNothingProvides ||
		r.kind == RuleJobUnknownPackage || (r.kind == RuleBest && r.source == pool.IdNull)) {
		rs.jobRules[r.job] = append(rs.jobRules[r.job], idx)
	}
	return idx
}

// dedupeLits drops repeated literals, keeping the first occurrence.
func dedupeLits(lits []lit) []lit {
	if len(lits) < 2 {
		return lits
	}
	seen := make(map[lit]bool, len(lits))
	out := lits[:0]
	for _, l := range lits {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
