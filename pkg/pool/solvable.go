package pool

import (
	"github.com/glorpus-work/solvent/pkg/errutils"
)

// Solvable is one concrete package. It lives in the pool's arena and is
// addressed by its Id; the owning Repo only records that id.
type Solvable struct {
	pool *Pool
	repo *Repo
	id   Id

	name Id
	evr  Id
	arch Id

	deps  [numDepKinds][]Id
	attrs attrStore
}

// ID returns the stable arena id.
func (s *Solvable) ID() Id { return s.id }

// Repo returns the owning repository, nil for the system solvable or a freed slot.
func (s *Solvable) Repo() *Repo { return s.repo }

// NameID returns the interned name.
func (s *Solvable) NameID() Id { return s.name }

// EVRID returns the interned epoch:version-release.
func (s *Solvable) EVRID() Id { return s.evr }

// ArchID returns the interned architecture.
func (s *Solvable) ArchID() Id { return s.arch }

func (s *Solvable) Name() string { return s.pool.strings[s.name] }

func (s *Solvable) EVR() string { return s.pool.strings[s.evr] }

func (s *Solvable) Arch() string { return s.pool.strings[s.arch] }

// String renders the solvable as name-evr.arch.
func (s *Solvable) String() string {
	if s.id == SystemSolvable {
		return "system"
	}
	out := s.Name()
	if e := s.EVR(); e != "" {
		out += "-" + e
	}
	if a := s.Arch(); a != "" {
		out += "." + a
	}
	return out
}

// Installed reports whether the solvable belongs to the pool's installed repo.
func (s *Solvable) Installed() bool {
	return s.repo != nil && s.repo == s.pool.installed
}

// Deps returns the dependency list of the given kind. The slice must not be modified.
func (s *Solvable) Deps(kind DepKind) []Id {
	return s.deps[kind]
}

func (s *Solvable) Provides() []Id   { return s.deps[DepProvides] }
func (s *Solvable) Requires() []Id   { return s.deps[DepRequires] }
func (s *Solvable) Conflicts() []Id  { return s.deps[DepConflicts] }
func (s *Solvable) Obsoletes() []Id  { return s.deps[DepObsoletes] }
func (s *Solvable) Recommends() []Id { return s.deps[DepRecommends] }
func (s *Solvable) Suggests() []Id   { return s.deps[DepSuggests] }

// AddDep appends dep to the list of the given kind. Duplicates are ignored.
func (s *Solvable) AddDep(kind DepKind, dep Id) {
	for _, d := range s.deps[kind] {
		if d == dep {
			return
		}
	}
	s.deps[kind] = append(s.deps[kind], dep)
	s.pool.setDirty()
}

// AddDepString parses dep with ParseRelation and appends it.
func (s *Solvable) AddDepString(kind DepKind, dep string) error {
	id, err := s.pool.ParseRelation(dep)
	if err != nil {
		return errutils.Wrapf(err, "%s of %s", kind, s)
	}
	s.AddDep(kind, id)
	return nil
}

// SetAttrStr queues a string attribute write. It becomes visible after the
// repository is internalized.
func (s *Solvable) SetAttrStr(key Key, value string) {
	s.pendingStore().setStr(key, value)
}

// SetAttrNum queues a numeric attribute write.
func (s *Solvable) SetAttrNum(key Key, value uint64) {
	s.pendingStore().setNum(key, value)
}

// AddFile queues a file path for the file list.
func (s *Solvable) AddFile(path string) {
	st := s.pendingStore()
	st.files = append(st.files, path)
}

func (s *Solvable) pendingStore() *attrStore {
	if s.repo == nil {
		return &s.attrs
	}
	return s.repo.pendingFor(s.id)
}

// LookupStr returns an internalized string attribute. The name, evr and arch
// keys are answered from the solvable itself.
func (s *Solvable) LookupStr(key Key) string {
	switch key {
	case KeyName:
		return s.Name()
	case KeyEVR:
		return s.EVR()
	case KeyArch:
		return s.Arch()
	}
	return s.attrs.strs[key]
}

// LookupNum returns an internalized numeric attribute, or 0.
func (s *Solvable) LookupNum(key Key) uint64 {
	return s.attrs.nums[key]
}

// Files returns the internalized file list.
func (s *Solvable) Files() []string {
	return s.attrs.files
}

// Vendor is LookupStr(KeyVendor).
func (s *Solvable) Vendor() string {
	return s.attrs.strs[KeyVendor]
}

// StrAttrs returns a copy of the internalized string attributes.
func (s *Solvable) StrAttrs() map[Key]string {
	out := make(map[Key]string, len(s.attrs.strs))
	for k, v := range s.attrs.strs {
		out[k] = v
	}
	return out
}

// NumAttrs returns a copy of the internalized numeric attributes.
func (s *Solvable) NumAttrs() map[Key]uint64 {
	out := make(map[Key]uint64, len(s.attrs.nums))
	for k, v := range s.attrs.nums {
		out[k] = v
	}
	return out
}
