package pool

import (
	"sort"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/arch"
)

// Pool owns the string table, the relation table, the solvable arena and the
// repositories of one package universe.
type Pool struct {
	host arch.HostInfo

	strings  []string
	strIndex map[string]Id

	rels     []Relation
	relIndex map[Relation]Id

	solvables []*Solvable

	repos      []*Repo
	repoByName map[string]*Repo
	installed  *Repo

	installonly map[Id]bool

	dirty          bool
	nameIndex      map[Id][]Id
	providesByName map[Id][]Id
	providesByRel  map[Id][]Id
	relCache       map[Id][]Id
}

// New creates an empty pool resolving for host.
func New(host arch.HostInfo) *Pool {
	p := &Pool{
		host:        host,
		strings:     []string{"<NULL>", ""},
		strIndex:    map[string]Id{"": IdEmpty},
		relIndex:    make(map[Relation]Id),
		repoByName:  make(map[string]*Repo),
		installonly: make(map[Id]bool),
		dirty:       true,
	}
	p.solvables = []*Solvable{
		{pool: p, id: IdNull},
		{pool: p, id: SystemSolvable},
	}
	return p
}

// Host returns the host the pool resolves for.
func (p *Pool) Host() arch.HostInfo {
	return p.host
}

// SetHost changes the target host.
func (p *Pool) SetHost(host arch.HostInfo) {
	p.host = host
	p.setDirty()
}

func (p *Pool) setDirty() {
	p.dirty = true
}

// Dirty reports whether the indices must be rebuilt by Prepare.
func (p *Pool) Dirty() bool {
	return p.dirty
}

// SetInstalled marks r as the installed repository; nil clears it.
func (p *Pool) SetInstalled(r *Repo) {
	p.installed = r
	p.setDirty()
}

// Installed returns the installed repository, or nil.
func (p *Pool) Installed() *Repo {
	return p.installed
}

// SetInstallonly replaces the list of names allowed to be installed in several versions.
func (p *Pool) SetInstallonly(names ...string) {
	p.installonly = make(map[Id]bool, len(names))
	for _, n := range names {
		p.installonly[p.Intern(n)] = true
	}
}

// Installonly returns the installonly names.
func (p *Pool) Installonly() []string {
	out := make([]string, 0, len(p.installonly))
	for id := range p.installonly {
		out = append(out, p.strings[id])
	}
	sort.Strings(out)
	return out
}

// IsInstallonlyName reports whether name is in the installonly list.
func (p *Pool) IsInstallonlyName(name Id) bool {
	return p.installonly[name]
}

// IsInstallonly reports whether s may coexist with other versions of its name,
// either by name or by providing an installonly capability.
func (p *Pool) IsInstallonly(s *Solvable) bool {
	if p.installonly[s.name] {
		return true
	}
	for _, prov := range s.deps[DepProvides] {
		if p.installonly[p.DepName(prov)] {
			return true
		}
	}
	return false
}

// Solvable returns the solvable with the given id, or nil.
func (p *Pool) Solvable(id Id) *Solvable {
	if id <= IdNull || int(id) >= len(p.solvables) {
		return nil
	}
	return p.solvables[id]
}

// NumSolvables returns the size of the arena, including reserved and freed slots.
func (p *Pool) NumSolvables() int {
	return len(p.solvables)
}

// Considered reports whether id belongs to an enabled repository.
func (p *Pool) Considered(id Id) bool {
	s := p.Solvable(id)
	return s != nil && s.repo != nil && s.repo.enabled
}

// ConsideredSolvables returns every solvable of an enabled repository in id order.
func (p *Pool) ConsideredSolvables() []Id {
	out := make([]Id, 0, len(p.solvables))
	for id := firstSolvable; int(id) < len(p.solvables); id++ {
		if p.Considered(id) {
			out = append(out, id)
		}
	}
	return out
}

// Installable reports whether the host can install s. Source packages never are.
func (p *Pool) Installable(s *Solvable) bool {
	a := s.Arch()
	if arch.IsSource(a) {
		return false
	}
	if p.host.Arch == "" {
		return true
	}
	return p.host.SupportedByHost(a)
}

// ArchScore ranks s by host arch preference, lower is better.
func (p *Pool) ArchScore(s *Solvable) int {
	score, ok := p.host.Score(s.Arch())
	if !ok {
		return 1 << 16
	}
	return score
}

// Prepare internalizes pending attribute writes and rebuilds the name and
// provides indices over the enabled repositories. It is a no-op when nothing
// changed since the last call.
func (p *Pool) Prepare() {
	if !p.dirty {
		return
	}
	for _, r := range p.repos {
		r.Internalize()
	}

	p.nameIndex = make(map[Id][]Id)
	p.providesByName = make(map[Id][]Id)
	p.providesByRel = make(map[Id][]Id)
	p.relCache = make(map[Id][]Id)

	ids := p.ConsideredSolvables()
	fileDeps := p.collectFileDeps(ids)

	for _, id := range ids {
		s := p.solvables[id]
		p.nameIndex[s.name] = append(p.nameIndex[s.name], id)
		for _, prov := range s.deps[DepProvides] {
			p.providesByRel[prov] = appendUnique(p.providesByRel[prov], id)
			name := p.DepName(prov)
			p.providesByName[name] = appendUnique(p.providesByName[name], id)
		}
		for _, f := range s.attrs.files {
			fid, ok := p.strIndex[f]
			if !ok || !fileDeps[fid] {
				continue
			}
			p.providesByRel[fid] = appendUnique(p.providesByRel[fid], id)
			p.providesByName[fid] = appendUnique(p.providesByName[fid], id)
		}
	}
	p.dirty = false

	logger.Debug("pool prepared", logger.Fields{
		"solvables": len(ids),
		"names":     len(p.nameIndex),
		"provides":  len(p.providesByName),
		"file_deps": len(fileDeps),
		"repos":     len(p.repos),
	})
}

// collectFileDeps gathers every path used as a non-provides dependency.
func (p *Pool) collectFileDeps(ids []Id) map[Id]bool {
	out := make(map[Id]bool)
	for _, id := range ids {
		s := p.solvables[id]
		for kind := DepRequires; kind < numDepKinds; kind++ {
			for _, d := range s.deps[kind] {
				name := p.DepName(d)
				if str := p.strings[name]; len(str) > 0 && str[0] == '/' {
					out[name] = true
				}
			}
		}
	}
	return out
}

func appendUnique(ids []Id, id Id) []Id {
	if n := len(ids); n > 0 && ids[n-1] == id {
		return ids
	}
	return append(ids, id)
}
