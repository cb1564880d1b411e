package loader

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

// PackageSpec is the YAML form of one package.
type PackageSpec struct {
	Name       string   `yaml:"name"`
	EVR        string   `yaml:"evr"`
	Arch       string   `yaml:"arch"`
	Provides   []string `yaml:"provides,omitempty"`
	Requires   []string `yaml:"requires,omitempty"`
	Conflicts  []string `yaml:"conflicts,omitempty"`
	Obsoletes  []string `yaml:"obsoletes,omitempty"`
	Recommends []string `yaml:"recommends,omitempty"`
	Suggests   []string `yaml:"suggests,omitempty"`
	Files      []string `yaml:"files,omitempty"`

	Summary      string `yaml:"summary,omitempty"`
	Description  string `yaml:"description,omitempty"`
	License      string `yaml:"license,omitempty"`
	URL          string `yaml:"url,omitempty"`
	Vendor       string `yaml:"vendor,omitempty"`
	Location     string `yaml:"location,omitempty"`
	Checksum     string `yaml:"checksum,omitempty"`
	DownloadSize uint64 `yaml:"downloadsize,omitempty"`
	InstallSize  uint64 `yaml:"installsize,omitempty"`
	BuildTime    uint64 `yaml:"buildtime,omitempty"`
}

// RepoFile is a YAML repository: a list of packages.
type RepoFile struct {
	Packages []PackageSpec `yaml:"packages"`
}

// ToSolv converts the entry to its serialized form, adding the
// self-provides "name = evr" unless it is listed already.
func (ps PackageSpec) ToSolv() (solvfile.Package, error) {
	if ps.Name == "" || ps.Arch == "" {
		return solvfile.Package{}, errutils.ErrPkgInvalidWithDetails("package %q needs a name and an arch", ps.Name)
	}
	pkg := solvfile.Package{Name: ps.Name, EVR: ps.EVR, Arch: ps.Arch, Files: ps.Files}

	self := ps.Name
	if ps.EVR != "" {
		self = ps.Name + " = " + ps.EVR
	}
	provides := ps.Provides
	if !contains(provides, self) {
		provides = append([]string{self}, provides...)
	}
	lists := map[pool.DepKind][]string{
		pool.DepProvides:   provides,
		pool.DepRequires:   ps.Requires,
		pool.DepConflicts:  ps.Conflicts,
		pool.DepObsoletes:  ps.Obsoletes,
		pool.DepRecommends: ps.Recommends,
		pool.DepSuggests:   ps.Suggests,
	}
	for kind, deps := range lists {
		pkg.Deps[kind] = append([]string(nil), deps...)
	}

	strs := map[pool.Key]string{
		pool.KeySummary:     ps.Summary,
		pool.KeyDescription: ps.Description,
		pool.KeyLicense:     ps.License,
		pool.KeyURL:         ps.URL,
		pool.KeyVendor:      ps.Vendor,
		pool.KeyLocation:    ps.Location,
		pool.KeyChecksum:    ps.Checksum,
	}
	for k, v := range strs {
		if v == "" {
			continue
		}
		if pkg.Strs == nil {
			pkg.Strs = make(map[string]string)
		}
		pkg.Strs[k.String()] = v
	}
	nums := map[pool.Key]uint64{
		pool.KeyDownloadSize: ps.DownloadSize,
		pool.KeyInstallSize:  ps.InstallSize,
		pool.KeyBuildTime:    ps.BuildTime,
	}
	for k, v := range nums {
		if v == 0 {
			continue
		}
		if pkg.Nums == nil {
			pkg.Nums = make(map[string]uint64)
		}
		pkg.Nums[k.String()] = v
	}
	return pkg, nil
}

// SpecFromSolv is the inverse of ToSolv. The self-provides is dropped.
func SpecFromSolv(pkg solvfile.Package) PackageSpec {
	ps := PackageSpec{Name: pkg.Name, EVR: pkg.EVR, Arch: pkg.Arch, Files: pkg.Files}
	self := pkg.Name
	if pkg.EVR != "" {
		self = pkg.Name + " = " + pkg.EVR
	}
	for _, d := range pkg.Deps[pool.DepProvides] {
		if d != self {
			ps.Provides = append(ps.Provides, d)
		}
	}
	ps.Requires = pkg.Deps[pool.DepRequires]
	ps.Conflicts = pkg.Deps[pool.DepConflicts]
	ps.Obsoletes = pkg.Deps[pool.DepObsoletes]
	ps.Recommends = pkg.Deps[pool.DepRecommends]
	ps.Suggests = pkg.Deps[pool.DepSuggests]

	str := func(k pool.Key) string { return pkg.Strs[k.String()] }
	num := func(k pool.Key) uint64 { return pkg.Nums[k.String()] }
	ps.Summary = str(pool.KeySummary)
	ps.Description = str(pool.KeyDescription)
	ps.License = str(pool.KeyLicense)
	ps.URL = str(pool.KeyURL)
	ps.Vendor = str(pool.KeyVendor)
	ps.Location = str(pool.KeyLocation)
	ps.Checksum = str(pool.KeyChecksum)
	ps.DownloadSize = num(pool.KeyDownloadSize)
	ps.InstallSize = num(pool.KeyInstallSize)
	ps.BuildTime = num(pool.KeyBuildTime)
	return ps
}

// SpecsToSolv converts a list of specs, failing on the first bad one.
func SpecsToSolv(specs []PackageSpec) ([]solvfile.Package, error) {
	out := make([]solvfile.Package, 0, len(specs))
	for i, ps := range specs {
		pkg, err := ps.ToSolv()
		if err != nil {
			return nil, errutils.Wrapf(err, "package %d", i)
		}
		out = append(out, pkg)
	}
	return out, nil
}

// DecodeYAML reads a YAML repository.
func DecodeYAML(r io.Reader) ([]solvfile.Package, error) {
	var rf RepoFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && err != io.EOF {
		return nil, errutils.ErrPkgInvalidWithDetails("yaml repository: %v", err)
	}
	return SpecsToSolv(rf.Packages)
}

// EncodeYAML writes packages as a YAML repository, sorted by name, evr and arch.
func EncodeYAML(w io.Writer, pkgs []solvfile.Package) error {
	rf := RepoFile{Packages: make([]PackageSpec, 0, len(pkgs))}
	for _, pkg := range pkgs {
		rf.Packages = append(rf.Packages, SpecFromSolv(pkg))
	}
	sort.SliceStable(rf.Packages, func(i, j int) bool {
		a, b := rf.Packages[i], rf.Packages[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.EVR != b.EVR {
			return a.EVR < b.EVR
		}
		return a.Arch < b.Arch
	})
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rf); err != nil {
		return errutils.ErrIOWithPath("yaml repository", err)
	}
	return enc.Close()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
