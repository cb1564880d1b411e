package solver

import (
	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
)

// candidates expands the selection of a job to solvable ids, in id order.
func (s *Solver) candidates(job Job) []pool.Id {
	switch job.How.Select() {
	case SelectSolvable:
		if s.pool.Considered(job.What) {
			return []pool.Id{job.What}
		}
	case SelectName:
		var out []pool.Id
		for _, id := range s.pool.ByName(s.pool.DepName(job.What)) {
			if s.pool.MatchNEVR(s.pool.Solvable(id), job.What) {
				out = append(out, id)
			}
		}
		return out
	case SelectProvides:
		var out []pool.Id
		for _, id := range s.pool.WhatProvides(job.What) {
			if id != pool.SystemSolvable {
				out = append(out, id)
			}
		}
		return out
	case SelectAll:
		return append([]pool.Id(nil), s.installed...)
	}
	return nil
}

// analyzeJobs validates the queue and records what each job targets.
func (s *Solver) analyzeJobs() error {
	s.computeObsoleters()
	for j, job := range s.jobs {
		typ, sel := job.How.Type(), job.How.Select()
		if typ == JobNoop {
			continue
		}
		if _, ok := jobVerbs[typ]; !ok {
			return errutils.ErrOpWithDetails("job %d: unknown job type 0x%x", j, uint32(typ))
		}
		if sel < SelectSolvable || sel > SelectAll {
			return errutils.ErrOpWithDetails("job %d: unknown selection 0x%x", j, uint32(sel))
		}
		if sel == SelectSolvable && s.pool.Solvable(job.What) == nil {
			return errutils.Wrapf(errutils.ErrUnknownSolvable, "job %d: solvable %d", j, job.What)
		}
		if sel == SelectAll && typ != JobUpdate && typ != JobVerify && typ != JobDistupgrade && typ != JobLock {
			return errutils.ErrOpWithDetails("job %d: %s cannot target all packages", j, jobVerbs[typ])
		}

		cands := s.candidates(job)
		s.jobCands[j] = cands
		switch typ {
		case JobMultiversion:
			for _, c := range cands {
				s.multiversion[c] = true
			}
		case JobInstall:
			if job.How.Has(FlagNoObsoletes) {
				for _, c := range cands {
					s.multiversion[c] = true
				}
			}
		case JobUpdate:
			if job.How.Has(FlagNoObsoletes) {
				for _, c := range cands {
					s.multiversion[c] = true
				}
			}
			for _, c := range cands {
				if s.pool.Solvable(c).Installed() {
					if _, ok := s.updateTargets[c]; !ok {
						s.updateTargets[c] = j
					}
				}
			}
		case JobDistupgrade:
			if sel == SelectAll {
				s.dupAll = true
			}
			for _, c := range cands {
				if s.pool.Solvable(c).Installed() {
					s.dupTargets[c] = true
				}
			}
		case JobVerify:
			if sel == SelectAll {
				s.verifyAll = true
			}
			for _, c := range cands {
				s.verify[c] = true
			}
		case JobErase:
			if job.How.Has(FlagCleanDeps) {
				for id := range s.computeCleandeps(cands) {
					s.cleandeps[id] = true
				}
			}
		}
	}
	return nil
}

// computeObsoleters maps installed packages to the repository packages
// obsoleting them.
func (s *Solver) computeObsoleters() {
	for _, id := range s.pool.ConsideredSolvables() {
		sv := s.pool.Solvable(id)
		if sv.Installed() {
			continue
		}
		for _, d := range sv.Obsoletes() {
			for _, m := range s.pool.ByName(s.pool.DepName(d)) {
				sm := s.pool.Solvable(m)
				if !sm.Installed() || sm.NameID() == sv.NameID() || !s.pool.MatchNEVR(sm, d) {
					continue
				}
				s.obsoleters[m] = appendID(s.obsoleters[m], id)
			}
		}
	}
}

// computeCleandeps returns the installed packages that are only needed by
// targets: reachable through requires and not required by anything kept.
func (s *Solver) computeCleandeps(targets []pool.Id) map[pool.Id]bool {
	erased := make(map[pool.Id]bool)
	for _, t := range targets {
		if s.pool.Solvable(t).Installed() {
			erased[t] = true
		}
	}
	cand := make(map[pool.Id]bool)
	queue := make([]pool.Id, 0, len(erased))
	for _, t := range targets {
		if erased[t] {
			queue = append(queue, t)
		}
	}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, d := range s.pool.Solvable(x).Requires() {
			for _, p := range s.pool.WhatProvides(d) {
				sp := s.pool.Solvable(p)
				if sp == nil || !sp.Installed() || erased[p] || cand[p] {
					continue
				}
				cand[p] = true
				queue = append(queue, p)
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, y := range s.installed {
			if erased[y] || cand[y] {
				continue
			}
			for _, d := range s.pool.Solvable(y).Requires() {
				for _, p := range s.pool.WhatProvides(d) {
					if cand[p] {
						delete(cand, p)
						changed = true
					}
				}
			}
		}
	}
	return cand
}

func (s *Solver) addRule(kind RuleKind, lits []lit, source, target, dep pool.Id) int {
	return s.rs.add(&rule{lits: lits, kind: kind, source: source, target: target, dep: dep, job: -1})
}

func (s *Solver) addJobRule(j int, kind RuleKind, lits []lit, source, dep pool.Id) int {
	return s.rs.add(&rule{lits: lits, kind: kind, source: source, dep: dep, job: j})
}

// buildRules encodes the system solvable, the jobs, the packages reachable
// from installed and requested packages, and the update policy.
func (s *Solver) buildRules() {
	s.addRule(RuleSystem, []lit{pos(pool.SystemSolvable)}, pool.SystemSolvable, pool.IdNull, pool.IdNull)

	visited := make(map[pool.Id]bool)
	var order, queue []pool.Id
	push := func(id pool.Id) {
		if id == pool.SystemSolvable || visited[id] || !s.pool.Considered(id) {
			return
		}
		visited[id] = true
		order = append(order, id)
		queue = append(queue, id)
	}

	for _, i := range s.installed {
		push(i)
	}
	for j := range s.jobs {
		s.addJobRules(j)
		for _, c := range s.jobCands[j] {
			if s.jobs[j].How.Type() != JobErase && s.jobs[j].How.Type() != JobMultiversion {
				push(c)
			}
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		s.addPackageRules(id, push)
	}

	s.addSameNameRules(order)
	s.addUpdateRules()
	s.addInfarchRules(order)
	s.computeJobDisables()
}

// installCandidates drops source packages from name and provides matches. An
// explicitly selected solvable is kept so its problem can be reported.
func (s *Solver) installCandidates(job Job, cands []pool.Id) []pool.Id {
	if job.How.Select() == SelectSolvable {
		return cands
	}
	var out []pool.Id
	for _, c := range cands {
		if !arch.IsSource(s.pool.Solvable(c).Arch()) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Solver) addJobRules(j int) {
	job := s.jobs[j]
	cands := s.jobCands[j]
	switch job.How.Type() {
	case JobInstall:
		s.addInstallRule(j, cands)
	case JobUpdate:
		if job.How.Select() == SelectAll {
			return
		}
		installed := false
		for _, c := range cands {
			if s.pool.Solvable(c).Installed() {
				installed = true
			}
		}
		if !installed || job.How&(FlagSetEV|FlagSetArch) != 0 || s.versioned(job.What) {
			s.addInstallRule(j, cands)
		}
	case JobDistupgrade:
		if job.How.Select() == SelectAll {
			return
		}
		installed := false
		for _, c := range cands {
			if s.pool.Solvable(c).Installed() {
				installed = true
			}
		}
		if !installed {
			s.addInstallRule(j, cands)
		}
	case JobErase:
		for _, c := range cands {
			s.addJobRule(j, RuleJob, []lit{neg(c)}, c, job.What)
		}
	case JobLock:
		for _, c := range cands {
			if s.pool.Solvable(c).Installed() {
				s.addJobRule(j, RuleJob, []lit{pos(c)}, c, job.What)
			} else {
				s.addJobRule(j, RuleJob, []lit{neg(c)}, c, job.What)
			}
		}
	}
}

// versioned reports whether a name selection restricts the evr.
func (s *Solver) versioned(what pool.Id) bool {
	rel, ok := s.pool.Relation(what)
	if !ok || !what.IsRelation() {
		return false
	}
	if rel.Flags == pool.CmpArch {
		return rel.Name.IsRelation()
	}
	return true
}

func (s *Solver) addInstallRule(j int, all []pool.Id) {
	job := s.jobs[j]
	cands := s.installCandidates(job, all)
	if len(cands) == 0 {
		kind := RuleJobNothingProvides
		if sel := job.How.Select(); sel == SelectName || sel == SelectSolvable {
			kind = RuleJobUnknownPackage
		}
		s.addJobRule(j, kind, nil, pool.IdNull, job.What)
		return
	}
	lits := make([]lit, len(cands))
	for i, c := range cands {
		lits[i] = pos(c)
	}
	s.jobOrder = append(s.jobOrder, s.addJobRule(j, RuleJob, lits, pool.IdNull, job.What))

	if !job.How.Has(FlagForceBest) {
		return
	}
	var eligible []pool.Id
	for _, c := range cands {
		if s.eligible(c) {
			eligible = append(eligible, c)
		}
	}
	best := s.bestSubset(eligible)
	if len(best) == 0 || len(best) == len(cands) {
		return
	}
	bl := make([]lit, len(best))
	for i, c := range best {
		bl[i] = pos(c)
	}
	s.jobOrder = append(s.jobOrder, s.addJobRule(j, RuleBest, bl, pool.IdNull, job.What))
}

// addPackageRules encodes the dependencies of one solvable and queues the
// solvables they reach.
func (s *Solver) addPackageRules(id pool.Id, push func(pool.Id)) {
	sv := s.pool.Solvable(id)
	installed := sv.Installed()
	if !installed && !s.pool.Installable(sv) {
		s.addRule(RuleNotInstallable, []lit{neg(id)}, id, pool.IdNull, pool.IdNull)
		return
	}
	verify := s.verifyAll || s.verify[id]

	for _, d := range sv.Requires() {
		if s.pool.IsRpmlib(d) {
			continue
		}
		provs := s.pool.WhatProvides(d)
		if containsID(provs, id) {
			continue
		}
		if installed && !verify && !s.anyInstalled(provs) {
			// already broken on the system, leave it alone
			continue
		}
		if len(provs) == 0 {
			s.addRule(RuleNothingProvides, []lit{neg(id)}, id, pool.IdNull, d)
			continue
		}
		lits := make([]lit, 0, len(provs)+1)
		lits = append(lits, neg(id))
		for _, p := range provs {
			lits = append(lits, pos(p))
			push(p)
		}
		s.requires = append(s.requires, s.addRule(RuleRequires, lits, id, pool.IdNull, d))
	}

	for _, d := range sv.Conflicts() {
		for _, p := range s.pool.WhatProvides(d) {
			if p == id {
				if s.pool.DepName(d) == sv.NameID() {
					continue
				}
				s.addRule(RuleSelfConflict, []lit{neg(id)}, id, id, d)
				continue
			}
			if installed && s.pool.Solvable(p).Installed() && !verify {
				continue
			}
			s.addRule(RuleConflicts, []lit{neg(id), neg(p)}, id, p, d)
		}
	}

	if !s.multiversion[id] {
		for _, d := range sv.Obsoletes() {
			for _, m := range s.pool.ByName(s.pool.DepName(d)) {
				sm := s.pool.Solvable(m)
				if m == id || sm.NameID() == sv.NameID() || !s.pool.MatchNEVR(sm, d) {
					continue
				}
				if (installed && sm.Installed()) || s.multiversion[m] {
					continue
				}
				kind := RuleObsoletes
				if installed {
					kind = RuleInstalledObsoletes
				}
				s.addRule(kind, []lit{neg(id), neg(m)}, id, m, d)
			}
		}
	}

	if s.flags&WithoutRecommends == 0 {
		for _, d := range sv.Recommends() {
			for _, p := range s.pool.WhatProvides(d) {
				push(p)
			}
		}
	}

	if installed {
		cands := s.updateCandidates(id, s.dupAll || s.dupTargets[id])
		s.updates[id] = cands
		for _, c := range cands {
			push(c)
		}
	}
}

// addSameNameRules keeps at most one version of a name installed.
func (s *Solver) addSameNameRules(order []pool.Id) {
	byName := make(map[pool.Id][]pool.Id)
	var names []pool.Id
	for _, id := range order {
		n := s.pool.Solvable(id).NameID()
		if _, ok := byName[n]; !ok {
			names = append(names, n)
		}
		byName[n] = append(byName[n], id)
	}
	for _, n := range names {
		ids := byName[n]
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				x, y := ids[a], ids[b]
				if s.pool.Solvable(x).Installed() && s.pool.Solvable(y).Installed() {
					continue
				}
				if s.multiversion[x] || s.multiversion[y] {
					continue
				}
				s.addRule(RuleSameName, []lit{neg(x), neg(y)}, x, y, pool.IdNull)
			}
		}
	}
}

// addUpdateRules adds, per installed package, the rule to keep it or replace
// it, the distupgrade rule and the best-update rule.
func (s *Solver) addUpdateRules() {
	for _, i := range s.installed {
		cands := s.updates[i]
		lits := make([]lit, 0, len(cands)+1)
		lits = append(lits, pos(i))
		for _, c := range cands {
			lits = append(lits, pos(c))
		}
		ri := s.addRule(RuleUpdate, lits, i, pool.IdNull, pool.IdNull)
		s.rs.rules[ri].weak = s.flags&AllowUninstall != 0
		s.rs.updateRule[i] = ri
	}

	for _, i := range s.installed {
		if !s.dupAll && !s.dupTargets[i] {
			continue
		}
		si := s.pool.Solvable(i)
		var same []pool.Id
		for _, c := range s.pool.ByName(si.NameID()) {
			if !s.pool.Solvable(c).Installed() {
				same = append(same, c)
			}
		}
		if len(same) == 0 && len(s.obsoleters[i]) == 0 {
			continue
		}
		identical := false
		for _, c := range same {
			sc := s.pool.Solvable(c)
			if sc.EVRID() == si.EVRID() && sc.ArchID() == si.ArchID() {
				identical = true
				break
			}
		}
		if identical {
			continue
		}
		s.rs.dupRule[i] = s.addRule(RuleDistupgrade, []lit{neg(i)}, i, pool.IdNull, pool.IdNull)
	}

	for _, i := range s.installed {
		j, ok := s.updateTargets[i]
		if !ok || !s.jobs[j].How.Has(FlagForceBest) {
			continue
		}
		best := s.bestUpdateSubset(i, s.updates[i])
		if len(best) == 0 {
			continue
		}
		lits := make([]lit, len(best))
		for k, c := range best {
			lits[k] = pos(c)
		}
		s.rs.bestRule[i] = s.addRule(RuleBest, lits, i, pool.IdNull, pool.IdNull)
	}
}

// addInfarchRules forbids packages for which the same name exists, at least
// as new, in a better arch.
func (s *Solver) addInfarchRules(order []pool.Id) {
	for _, id := range order {
		sv := s.pool.Solvable(id)
		if sv.Installed() || sv.Arch() == "noarch" || !s.pool.Installable(sv) {
			continue
		}
		rank := s.archRank(sv)
		for _, o := range s.pool.ByName(sv.NameID()) {
			so := s.pool.Solvable(o)
			if o == id || so.Arch() == "noarch" || (!so.Installed() && !s.pool.Installable(so)) {
				continue
			}
			if s.archRank(so) < rank && s.pool.EVRCmp(so, sv) >= 0 {
				s.rs.infarch[id] = s.addRule(RuleInfArch, []lit{neg(id)}, id, o, pool.IdNull)
				break
			}
		}
	}
}

// computeJobDisables records the policy rules each job switches off while it
// is active: an explicit choice overrides updates, best and arch policy.
func (s *Solver) computeJobDisables() {
	add := func(j int, ri int, ok bool) {
		if ok {
			s.jobDisables[j] = append(s.jobDisables[j], ri)
		}
	}
	policyOf := func(j int, i pool.Id) {
		ri, ok := s.rs.updateRule[i]
		add(j, ri, ok)
		ri, ok = s.rs.bestRule[i]
		add(j, ri, ok)
		ri, ok = s.rs.dupRule[i]
		add(j, ri, ok)
	}
	sameNameInstalled := func(j int, c pool.Id) {
		sc := s.pool.Solvable(c)
		if s.multiversion[c] {
			return
		}
		for _, i := range s.installed {
			if s.pool.Solvable(i).NameID() == sc.NameID() {
				policyOf(j, i)
			}
		}
	}

	for j, job := range s.jobs {
		typ := job.How.Type()
		switch {
		case (typ == JobInstall || typ == JobUpdate) && job.How.Select() == SelectSolvable:
			p := job.What
			if s.pool.Solvable(p).Installed() {
				ri, ok := s.rs.bestRule[p]
				add(j, ri, ok)
				ri, ok = s.rs.dupRule[p]
				add(j, ri, ok)
				continue
			}
			ri, ok := s.rs.infarch[p]
			add(j, ri, ok)
			sameNameInstalled(j, p)
		case (typ == JobInstall || typ == JobUpdate) && job.How&(FlagSetEV|FlagSetArch) != 0:
			for _, c := range s.jobCands[j] {
				if s.pool.Solvable(c).Installed() {
					continue
				}
				if job.How.Has(FlagSetArch) {
					ri, ok := s.rs.infarch[c]
					add(j, ri, ok)
				}
				sameNameInstalled(j, c)
			}
		case typ == JobErase:
			for _, c := range s.jobCands[j] {
				if s.pool.Solvable(c).Installed() {
					policyOf(j, c)
				}
			}
			if job.How.Has(FlagCleanDeps) {
				for _, i := range s.installed {
					if s.cleandeps[i] {
						policyOf(j, i)
					}
				}
			}
		}
	}
}

func (s *Solver) anyInstalled(ids []pool.Id) bool {
	for _, id := range ids {
		if sv := s.pool.Solvable(id); sv != nil && sv.Installed() {
			return true
		}
	}
	return false
}

func containsID(ids []pool.Id, id pool.Id) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
