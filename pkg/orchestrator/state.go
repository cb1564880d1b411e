package orchestrator

import (
	"context"
	"io"
	"sync"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/fsutil"
	"github.com/glorpus-work/solvent/pkg/loader"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// InstalledState is an Executor that records steps in the installed
// repository file instead of changing the system. Nothing is written until
// Commit.
type InstalledState struct {
	pool *pool.Pool
	path string

	mu    sync.Mutex
	order []string
	pkgs  map[string]solvfile.Package
}

// NewInstalledState starts from the packages of the pool's installed repository.
func NewInstalledState(p *pool.Pool, path string) (*InstalledState, error) {
	st := &InstalledState{pool: p, path: path, pkgs: make(map[string]solvfile.Package)}
	p.Prepare()
	if repo := p.Installed(); repo != nil {
		for _, id := range repo.Solvables() {
			if err := st.add(id); err != nil {
				return nil, err
			}
		}
	}
	return st, nil
}

func (s *InstalledState) add(id pool.Id) error {
	pkg, err := s.pool.Export(id)
	if err != nil {
		return err
	}
	key := s.pool.Solvable(id).String()
	if _, ok := s.pkgs[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pkgs[key] = pkg
	return nil
}

func (s *InstalledState) remove(key string) error {
	if _, ok := s.pkgs[key]; !ok {
		return errutils.Wrapf(errutils.ErrUnknownSolvable, "%s is not installed", key)
	}
	delete(s.pkgs, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Install implements Executor.
func (s *InstalledState) Install(_ context.Context, pkg Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(pkg.ID)
}

// Replace implements Executor.
func (s *InstalledState) Replace(_ context.Context, pkg Package, old []Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range old {
		if err := s.remove(o.String()); err != nil {
			return err
		}
	}
	return s.add(pkg.ID)
}

// Erase implements Executor.
func (s *InstalledState) Erase(_ context.Context, pkg Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(pkg.String())
}

// Packages returns the recorded packages as name-evr.arch, in install order.
func (s *InstalledState) Packages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Commit writes the recorded packages to the installed repository file, as
// YAML or solv depending on its extension.
func (s *InstalledState) Commit() error {
	s.mu.Lock()
	pkgs := make([]solvfile.Package, 0, len(s.order))
	for _, k := range s.order {
		pkgs = append(pkgs, s.pkgs[k])
	}
	s.mu.Unlock()

	err := fsutil.WriteFileAtomic(s.path, fsutil.FileModeDefault, func(w io.Writer) error {
		if loader.FormatOf(s.path) == loader.FormatYAML {
			return loader.EncodeYAML(w, pkgs)
		}
		return solvfile.Write(w, pkgs, solvfile.Options{Compress: true})
	})
	if err != nil {
		return err
	}
	logger.Info("installed repository updated", logger.Fields{"path": s.path, "packages": len(pkgs)})
	return nil
}

var _ Executor = (*InstalledState)(nil)
