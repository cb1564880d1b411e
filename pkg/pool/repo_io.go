package pool

import (
	"context"
	"io"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// Write serializes the repository's solvables in solv format. Pending
// attribute writes are internalized first.
func (r *Repo) Write(w io.Writer, opts solvfile.Options) error {
	r.Internalize()
	pkgs := make([]solvfile.Package, 0, len(r.solvables))
	for _, id := range r.solvables {
		pkgs = append(pkgs, r.pool.exportSolvable(r.pool.solvables[id]))
	}
	return solvfile.Write(w, pkgs, opts)
}

// Read appends the solvables stored in a solv file to the repository. The
// file already carries the self-provides, so none is added. On error the
// repository is left unchanged.
func (r *Repo) Read(ctx context.Context, in io.Reader) error {
	pkgs, err := solvfile.Read(ctx, in)
	if err != nil {
		return errutils.Wrapf(err, "repository %s", r.name)
	}
	return r.Import(pkgs)
}

// Import appends already decoded packages. Every dependency is parsed before
// the first solvable is allocated, so a bad package leaves the repository
// unchanged.
func (r *Repo) Import(pkgs []solvfile.Package) error {
	type parsed struct {
		deps  [numDepKinds][]Id
		strs  map[Key]string
		nums  map[Key]uint64
		files []string
	}
	all := make([]parsed, len(pkgs))
	for i, pkg := range pkgs {
		if pkg.Name == "" {
			return errutils.ErrPkgInvalidWithDetails("repository %s: package %d has no name", r.name, i)
		}
		for k, deps := range pkg.Deps {
			for _, d := range deps {
				id, err := r.pool.ParseRelation(d)
				if err != nil {
					return errutils.ErrPkgInvalidWithDetails("repository %s: %s: %v", r.name, pkg.Name, err)
				}
				all[i].deps[k] = append(all[i].deps[k], id)
			}
		}
		all[i].strs = make(map[Key]string, len(pkg.Strs))
		for k, v := range pkg.Strs {
			if key, ok := ParseKey(k); ok {
				all[i].strs[key] = v
			}
		}
		all[i].nums = make(map[Key]uint64, len(pkg.Nums))
		for k, v := range pkg.Nums {
			if key, ok := ParseKey(k); ok {
				all[i].nums[key] = v
			}
		}
		all[i].files = pkg.Files
	}

	for i, pkg := range pkgs {
		s := r.addSolvable(r.pool.Intern(pkg.Name), r.pool.Intern(pkg.EVR), r.pool.Intern(pkg.Arch))
		s.deps = all[i].deps
		for k, v := range all[i].strs {
			s.SetAttrStr(k, v)
		}
		for k, v := range all[i].nums {
			s.SetAttrNum(k, v)
		}
		for _, f := range all[i].files {
			s.AddFile(f)
		}
	}
	r.Internalize()
	return nil
}

func (p *Pool) exportSolvable(s *Solvable) solvfile.Package {
	pkg := solvfile.Package{
		Name:  s.Name(),
		EVR:   s.EVR(),
		Arch:  s.Arch(),
		Files: append([]string(nil), s.attrs.files...),
	}
	for k, deps := range s.deps {
		for _, d := range deps {
			pkg.Deps[k] = append(pkg.Deps[k], p.Dep2Str(d))
		}
	}
	if len(s.attrs.strs) > 0 {
		pkg.Strs = make(map[string]string, len(s.attrs.strs))
		for k, v := range s.attrs.strs {
			pkg.Strs[k.String()] = v
		}
	}
	if len(s.attrs.nums) > 0 {
		pkg.Nums = make(map[string]uint64, len(s.attrs.nums))
		for k, v := range s.attrs.nums {
			pkg.Nums[k.String()] = v
		}
	}
	return pkg
}

// Export returns the serialized form of the solvable, as written by Repo.Write.
func (p *Pool) Export(id Id) (solvfile.Package, error) {
	s := p.Solvable(id)
	if s == nil {
		return solvfile.Package{}, errutils.Wrapf(errutils.ErrUnknownSolvable, "id %d", id)
	}
	return p.exportSolvable(s), nil
}
