// Package loader populates a pool from repository files. Files are decoded
// concurrently and then committed to the pool one after the other, in the
// order they were given, so ids stay deterministic.
package loader

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/cache"
	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/fsutil"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// InstalledRepoName is the name given to the installed repository.
const InstalledRepoName = "@System"

// Source describes one repository file.
type Source struct {
	Name      string
	Path      string
	Priority  int
	Installed bool
}

// Format is the encoding of a repository file.
type Format int

const (
	FormatSolv Format = iota
	FormatYAML
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatSolv
}

// Loader reads repository files into a pool.
type Loader struct {
	pool          *pool.Pool
	cache         *cache.DefaultManager
	maxConcurrent int
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache keeps solv copies of YAML repositories in the cache's repodata
// directory and reads them instead while they are newer than the YAML file.
func WithCache(c *cache.DefaultManager) Option {
	return func(l *Loader) { l.cache = c }
}

// WithMaxConcurrent bounds how many files are decoded at once.
func WithMaxConcurrent(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxConcurrent = n
		}
	}
}

// New returns a loader for p.
func New(p *pool.Pool, opts ...Option) *Loader {
	l := &Loader{pool: p, maxConcurrent: config.DefaultMaxConcurrent}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes every source and adds one repository per source to the pool.
// When any source fails nothing is added.
func (l *Loader) Load(ctx context.Context, sources []Source) ([]*pool.Repo, error) {
	seen := make(map[string]bool, len(sources))
	installed := 0
	for _, src := range sources {
		if src.Name == "" {
			return nil, errutils.ErrEmptyRepositoryName
		}
		if seen[src.Name] || l.pool.Repo(src.Name) != nil {
			return nil, errutils.ErrRepositoryExistsWithName(src.Name)
		}
		seen[src.Name] = true
		if src.Installed {
			installed++
		}
	}
	if installed > 1 {
		return nil, errutils.ErrOpWithDetails("%d installed repositories given, at most one is allowed", installed)
	}

	decoded := make([][]solvfile.Package, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxConcurrent)
	for i, src := range sources {
		g.Go(func() error {
			pkgs, err := l.decode(gctx, src)
			if err != nil {
				return errutils.Wrapf(err, "repository %s", src.Name)
			}
			decoded[i] = pkgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repos := make([]*pool.Repo, 0, len(sources))
	for i, src := range sources {
		repo := l.pool.CreateRepo(src.Name)
		repo.SetPriority(src.Priority)
		if err := repo.Import(decoded[i]); err != nil {
			repo.Free()
			for _, r := range repos {
				r.Free()
			}
			return nil, err
		}
		if src.Installed {
			l.pool.SetInstalled(repo)
		}
		repos = append(repos, repo)
		logger.Info("loaded repository", logger.Fields{
			"name":      src.Name,
			"packages":  repo.Len(),
			"priority":  src.Priority,
			"installed": src.Installed,
		})
	}
	return repos, nil
}

func (l *Loader) decode(ctx context.Context, src Source) ([]solvfile.Package, error) {
	if FormatOf(src.Path) == FormatYAML {
		return l.decodeYAML(ctx, src)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, errutils.ErrIOWithPath(src.Path, err)
	}
	defer f.Close()
	return solvfile.Read(ctx, f)
}

func (l *Loader) decodeYAML(ctx context.Context, src Source) ([]solvfile.Package, error) {
	st, err := os.Stat(src.Path)
	if err != nil {
		return nil, errutils.ErrIOWithPath(src.Path, err)
	}

	var cached string
	if l.cache != nil {
		cached = l.cache.RepodataPath(src.Name)
		if cst, err := os.Stat(cached); err == nil && !cst.ModTime().Before(st.ModTime()) {
			if pkgs, err := readSolvFile(ctx, cached); err == nil {
				logger.Debug("using cached repodata", logger.Fields{"name": src.Name, "path": cached})
				return pkgs, nil
			}
			logger.Warn("ignoring unreadable cached repodata", logger.Fields{"name": src.Name, "path": cached})
		}
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, errutils.ErrIOWithPath(src.Path, err)
	}
	pkgs, err := DecodeYAML(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if cached != "" {
		err := fsutil.WriteFileAtomic(cached, fsutil.FileModeDefault, func(w io.Writer) error {
			return solvfile.Write(w, pkgs, solvfile.Options{Compress: true})
		})
		if err != nil {
			logger.Warn("failed to cache repodata", logger.Fields{"name": src.Name, "error": err.Error()})
		}
	}
	return pkgs, nil
}

func readSolvFile(ctx context.Context, path string) ([]solvfile.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutils.ErrIOWithPath(path, err)
	}
	defer f.Close()
	return solvfile.Read(ctx, f)
}

// Sources lists the installed repository and the enabled repositories of cfg,
// with paths resolved against the configuration file.
func Sources(cfg *config.Config) []Source {
	var out []Source
	if cfg.Installed != "" {
		out = append(out, Source{Name: InstalledRepoName, Path: cfg.ResolvePath(cfg.Installed), Installed: true})
	}
	for _, repo := range cfg.EnabledRepositories() {
		out = append(out, Source{Name: repo.Name, Path: cfg.ResolvePath(repo.Path), Priority: repo.Priority})
	}
	return out
}

// Open builds a pool for cfg: host arch, installonly names and every
// configured repository.
func Open(ctx context.Context, cfg *config.Config) (*pool.Pool, error) {
	host, err := cfg.HostInfo()
	if err != nil {
		return nil, err
	}
	p := pool.New(host)
	p.SetInstallonly(cfg.Settings.Installonly...)

	opts := []Option{WithMaxConcurrent(cfg.Settings.MaxConcurrent)}
	if cfg.Settings.CacheDir != "" {
		opts = append(opts, WithCache(cache.NewManager(cfg.ResolvePath(cfg.Settings.CacheDir))))
	}
	if _, err := New(p, opts...).Load(ctx, Sources(cfg)); err != nil {
		return nil, err
	}
	p.Prepare()
	return p, nil
}

// WriteRepo writes the solvables of repo to path, as solv or YAML depending
// on the extension.
func WriteRepo(repo *pool.Repo, path string, compress bool) error {
	return fsutil.WriteFileAtomic(path, fsutil.FileModeDefault, func(w io.Writer) error {
		if FormatOf(path) == FormatSolv {
			return repo.Write(w, solvfile.Options{Compress: compress})
		}
		p := repo.Pool()
		repo.Internalize()
		pkgs := make([]solvfile.Package, 0, repo.Len())
		for _, id := range repo.Solvables() {
			pkg, err := p.Export(id)
			if err != nil {
				return err
			}
			pkgs = append(pkgs, pkg)
		}
		return EncodeYAML(w, pkgs)
	})
}
