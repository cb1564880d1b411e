// Package testcase reads YAML solver scenarios: a set of repositories, a list
// of jobs, solve flags and the expected transaction or problems. Scenarios are
// used by the solver tests and by the testcase command.
//
// A minimal testcase:
//
//	arch: x86_64
//	repos:
//	  - name: "@System"
//	    installed: true
//	    packages:
//	      - {name: A, evr: 1-1, arch: x86_64}
//	  - name: base
//	    packages:
//	      - {name: A, evr: 2-1, arch: x86_64}
//	jobs:
//	  - update name A
//	result:
//	  transaction:
//	    - upgrade A-2-1.x86_64
package testcase

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/loader"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solver"
)

// Repo is one repository of a testcase. Packages are either listed inline or
// read from Path, a solv or YAML repository file relative to the testcase.
type Repo struct {
	Name      string               `yaml:"name"`
	Installed bool                 `yaml:"installed,omitempty"`
	Priority  int                  `yaml:"priority,omitempty"`
	Path      string               `yaml:"path,omitempty"`
	Packages  []loader.PackageSpec `yaml:"packages,omitempty"`
}

// Result is the expected outcome. A nil Transaction is not checked; an empty
// one expects a solve that changes nothing.
type Result struct {
	Transaction []string `yaml:"transaction"`
	Problems    []string `yaml:"problems,omitempty"`
}

// Testcase is a complete scenario.
type Testcase struct {
	Name        string   `yaml:"name,omitempty"`
	Arch        string   `yaml:"arch,omitempty"`
	Installonly []string `yaml:"installonly,omitempty"`
	Repos       []Repo   `yaml:"repos"`
	Jobs        []string `yaml:"jobs"`
	Flags       []string `yaml:"flags,omitempty"`
	Result      *Result  `yaml:"result,omitempty"`

	dir string
}

// Decode reads a testcase. Relative repository paths resolve against the
// working directory.
func Decode(r io.Reader) (*Testcase, error) {
	var tc Testcase
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tc); err != nil {
		return nil, errutils.ErrTestcaseWithDetails("%v", err)
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return &tc, nil
}

// Load reads the testcase at path. Relative repository paths resolve against
// the directory of path, and the name defaults to the file name.
func Load(path string) (*Testcase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutils.ErrIOWithPath(path, err)
	}
	defer f.Close()

	tc, err := Decode(f)
	if err != nil {
		return nil, errutils.Wrapf(err, "testcase %s", path)
	}
	tc.dir = filepath.Dir(path)
	if tc.Name == "" {
		tc.Name = filepath.Base(path)
	}
	return tc, nil
}

// Validate checks the static parts of the testcase. Jobs are checked when
// they are added to a request because they need the pool.
func (tc *Testcase) Validate() error {
	if tc.Arch != "" && !arch.Known(tc.Arch) {
		return errutils.ErrArchWithName(tc.Arch)
	}
	seen := make(map[string]bool, len(tc.Repos))
	installed := 0
	for i, r := range tc.Repos {
		if r.Name == "" {
			return errutils.ErrEmptyRepositoryNameWithIndex(i)
		}
		if seen[r.Name] {
			return errutils.ErrRepositoryExistsWithName(r.Name)
		}
		seen[r.Name] = true
		if r.Path != "" && len(r.Packages) > 0 {
			return errutils.ErrTestcaseWithDetails("repository %s has both a path and packages", r.Name)
		}
		if r.Installed {
			installed++
		}
	}
	if installed > 1 {
		return errutils.ErrTestcaseWithDetails("%d installed repositories", installed)
	}
	if _, err := tc.SolveFlags(); err != nil {
		return err
	}
	return nil
}

// SolveFlags parses Flags, for example "allow-uninstall" or "force_best".
func (tc *Testcase) SolveFlags() (solver.Flags, error) {
	var flags solver.Flags
	for _, name := range tc.Flags {
		f, ok := solver.ParseFlag(name)
		if !ok {
			return 0, errutils.ErrTestcaseWithDetails("unknown solver flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

func (tc *Testcase) resolve(path string) string {
	if filepath.IsAbs(path) || tc.dir == "" {
		return path
	}
	return filepath.Join(tc.dir, path)
}

// Pool builds the pool the testcase describes. Repositories are created in
// the order they are listed. The host arch defaults to x86_64 so that a
// testcase solves the same way everywhere.
func (tc *Testcase) Pool(ctx context.Context) (*pool.Pool, error) {
	name := tc.Arch
	if name == "" {
		name = arch.X86_64
	}
	host, err := arch.NewHostInfo(name)
	if err != nil {
		return nil, err
	}
	p := pool.New(host)
	p.SetInstallonly(tc.Installonly...)

	for _, r := range tc.Repos {
		if r.Path != "" {
			src := loader.Source{Name: r.Name, Path: tc.resolve(r.Path), Priority: r.Priority, Installed: r.Installed}
			if _, err := loader.New(p).Load(ctx, []loader.Source{src}); err != nil {
				return nil, err
			}
			continue
		}
		pkgs, err := loader.SpecsToSolv(r.Packages)
		if err != nil {
			return nil, errutils.Wrapf(err, "repository %s", r.Name)
		}
		repo := p.CreateRepo(r.Name)
		repo.SetPriority(r.Priority)
		if err := repo.Import(pkgs); err != nil {
			return nil, err
		}
		if r.Installed {
			p.SetInstalled(repo)
		}
	}
	p.Prepare()
	return p, nil
}
