package pool

import (
	"github.com/glorpus-work/solvent/internal/logger"
)

// Repo is a named partition of the pool's solvables.
type Repo struct {
	pool *Pool

	name     string
	priority int
	enabled  bool
	refs     int

	solvables []Id

	BaseURL    string
	KeyFile    string
	MirrorList string

	pending map[Id]*attrStore
}

// CreateRepo returns the repository called name, creating it on first use.
// A second call with the same name returns the same Repo and takes another reference.
func (p *Pool) CreateRepo(name string) *Repo {
	if r, ok := p.repoByName[name]; ok {
		r.refs++
		return r
	}
	r := &Repo{pool: p, name: name, enabled: true, refs: 1}
	p.repos = append(p.repos, r)
	p.repoByName[name] = r
	p.setDirty()
	logger.Debug("repository created", logger.Fields{"repo": name})
	return r
}

// Repo returns the repository called name, or nil.
func (p *Pool) Repo(name string) *Repo {
	return p.repoByName[name]
}

// Repos returns the repositories in creation order.
func (p *Pool) Repos() []*Repo {
	return append([]*Repo(nil), p.repos...)
}

// Free drops one reference. The last reference removes the repository and
// frees its solvables; their ids are not reused.
func (r *Repo) Free() {
	r.refs--
	if r.refs > 0 {
		return
	}
	p := r.pool
	for _, id := range r.solvables {
		p.solvables[id].repo = nil
	}
	r.solvables = nil
	for i, o := range p.repos {
		if o == r {
			p.repos = append(p.repos[:i], p.repos[i+1:]...)
			break
		}
	}
	delete(p.repoByName, r.name)
	if p.installed == r {
		p.installed = nil
	}
	p.setDirty()
}

func (r *Repo) Name() string { return r.name }

func (r *Repo) Pool() *Pool { return r.pool }

func (r *Repo) Priority() int { return r.priority }

// SetPriority sets the tie-break priority; higher wins.
func (r *Repo) SetPriority(priority int) {
	r.priority = priority
}

func (r *Repo) Enabled() bool { return r.enabled }

// SetEnabled toggles whether the repo's solvables are considered. Changing it
// invalidates the pool indices.
func (r *Repo) SetEnabled(enabled bool) {
	if r.enabled == enabled {
		return
	}
	r.enabled = enabled
	r.pool.setDirty()
}

// Solvables returns the ids owned by this repository in insertion order.
func (r *Repo) Solvables() []Id {
	return append([]Id(nil), r.solvables...)
}

// Len returns the number of solvables in the repository.
func (r *Repo) Len() int {
	return len(r.solvables)
}

// IsInstalled reports whether r is the pool's installed repository.
func (r *Repo) IsInstalled() bool {
	return r.pool.installed == r
}

// AddPackage allocates a solvable in this repository and gives it the
// self-provides "name = evr".
func (r *Repo) AddPackage(name, evrStr, archStr string) *Solvable {
	s := r.addSolvable(r.pool.Intern(name), r.pool.Intern(evrStr), r.pool.Intern(archStr))
	self := s.name
	if evrStr != "" {
		self, _ = r.pool.CreateRelation(s.name, CmpEQ, s.evr)
	}
	s.AddDep(DepProvides, self)
	return s
}

// addSolvable allocates a solvable without the self-provides.
func (r *Repo) addSolvable(name, evrID, archID Id) *Solvable {
	p := r.pool
	s := &Solvable{pool: p, repo: r, id: Id(len(p.solvables)), name: name, evr: evrID, arch: archID}
	p.solvables = append(p.solvables, s)
	r.solvables = append(r.solvables, s.id)
	p.setDirty()
	return s
}

func (r *Repo) pendingFor(id Id) *attrStore {
	if r.pending == nil {
		r.pending = make(map[Id]*attrStore)
	}
	st, ok := r.pending[id]
	if !ok {
		st = &attrStore{}
		r.pending[id] = st
	}
	r.pool.setDirty()
	return st
}

// Internalized reports whether there are no pending attribute writes.
func (r *Repo) Internalized() bool {
	return len(r.pending) == 0
}

// Internalize flushes pending attribute writes so lookups see them.
func (r *Repo) Internalize() {
	if len(r.pending) == 0 {
		return
	}
	for id, st := range r.pending {
		r.pool.solvables[id].attrs.merge(st)
	}
	r.pending = nil
}
