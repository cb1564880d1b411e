package pool

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/solvfile"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	host, err := arch.NewHostInfo(arch.X86_64)
	require.NoError(t, err)
	return New(host)
}

func names(ss []*Solvable) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

func TestIntern(t *testing.T) {
	p := newTestPool(t)
	words := []string{"bash", "glibc", "", "1.0-1", "bash"}
	ids := make(map[string]Id)
	for _, w := range words {
		id := p.Intern(w)
		assert.Equal(t, id, p.Intern(w), "interning twice must yield the same id")
		if prev, ok := ids[w]; ok {
			assert.Equal(t, prev, id)
		}
		ids[w] = id
		assert.Equal(t, w, p.Str(id))
	}
	assert.NotEqual(t, ids["bash"], ids["glibc"])
	assert.Equal(t, IdEmpty, ids[""])

	_, ok := p.LookupString("zsh")
	assert.False(t, ok)
}

func TestCreateRelation(t *testing.T) {
	p := newTestPool(t)
	name := p.Intern("glibc")
	version := p.Intern("2.38")

	bare, err := p.CreateRelation(name, 0, IdNull)
	require.NoError(t, err)
	assert.Equal(t, name, bare)

	ge, err := p.CreateRelation(name, CmpGE, version)
	require.NoError(t, err)
	assert.True(t, ge.IsRelation())
	assert.NotEqual(t, name, ge)

	again, err := p.CreateRelation(name, CmpGE, version)
	require.NoError(t, err)
	assert.Equal(t, ge, again, "identical relations collapse")

	lt, err := p.CreateRelation(name, CmpLT, version)
	require.NoError(t, err)
	assert.NotEqual(t, ge, lt)

	assert.Equal(t, "glibc >= 2.38", p.Dep2Str(ge))

	_, err = p.CreateRelation(name, CmpEQ, IdNull)
	assert.ErrorIs(t, err, errutils.ErrInvalidRelation)
	_, err = p.CreateRelation(name, 0, version)
	assert.ErrorIs(t, err, errutils.ErrInvalidRelation)
	_, err = p.CreateRelation(ge, CmpEQ, version)
	assert.ErrorIs(t, err, errutils.ErrInvalidRelation)
}

func TestParseRelation(t *testing.T) {
	p := newTestPool(t)
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"bash", "bash", false},
		{"bash >= 5.0", "bash >= 5.0", false},
		{"bash == 1:5.0-1", "bash = 1:5.0-1", false},
		{"bash => 5", "bash >= 5", false},
		{"bash ~ 5", "", true},
		{"bash >=", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := p.ParseRelation(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, errutils.ErrInvalidRelation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Dep2Str(id))
		})
	}
}

func TestMatchDep(t *testing.T) {
	p := newTestPool(t)
	rel := func(s string) Id {
		id, err := p.ParseRelation(s)
		require.NoError(t, err)
		return id
	}
	tests := []struct {
		prov, dep string
		want      bool
	}{
		{"A = 1.0-1", "A", true},
		{"A", "A >= 2", true},
		{"A = 1.0-1", "A >= 1.0", true},
		{"A = 1.0-1", "A > 1.0", false},
		{"A = 1.0-1", "A < 2", true},
		{"A = 2.0", "A = 2.0-5", true},
		{"A = 1.0-1", "A = 1.0-2", false},
		{"A >= 3", "A < 2", false},
		{"A >= 3", "A > 5", true},
		{"A <= 3", "A >= 3", true},
		{"A = 1.0", "B", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.prov, tt.dep), func(t *testing.T) {
			assert.Equal(t, tt.want, p.MatchDep(rel(tt.prov), rel(tt.dep)))
		})
	}
}

func TestCreateRepoIsIdempotent(t *testing.T) {
	p := newTestPool(t)
	r1 := p.CreateRepo("base")
	r1.SetPriority(10)
	r2 := p.CreateRepo("base")
	assert.Same(t, r1, r2)
	assert.Equal(t, 10, r2.Priority())
	assert.Len(t, p.Repos(), 1)

	r1.AddPackage("A", "1", "noarch")
	r2.Free()
	assert.NotNil(t, p.Repo("base"), "one reference remains")
	r1.Free()
	assert.Nil(t, p.Repo("base"))
	assert.Empty(t, p.ConsideredSolvables())
}

func TestAddPackageSelfProvides(t *testing.T) {
	p := newTestPool(t)
	s := p.CreateRepo("base").AddPackage("A", "1.0-1", "x86_64")

	require.Len(t, s.Provides(), 1)
	assert.Equal(t, "A = 1.0-1", p.Dep2Str(s.Provides()[0]))
	assert.Equal(t, "A-1.0-1.x86_64", s.String())

	dep, err := p.ParseRelation("A = 1.0-1")
	require.NoError(t, err)
	assert.Equal(t, []Id{s.ID()}, p.WhatProvides(dep))
}

func TestPrepareIndexesEnabledRepos(t *testing.T) {
	p := newTestPool(t)
	base := p.CreateRepo("base")
	extra := p.CreateRepo("extra")
	a := base.AddPackage("A", "1", "x86_64")
	b := extra.AddPackage("B", "1", "x86_64")
	require.NoError(t, b.AddDepString(DepProvides, "virtual-b"))

	p.Prepare()
	assert.False(t, p.Dirty())
	for _, id := range p.ConsideredSolvables() {
		s := p.Solvable(id)
		for _, prov := range s.Provides() {
			assert.Contains(t, p.ProvidersOfRelation(prov), id)
		}
	}
	assert.Equal(t, []Id{b.ID()}, p.WhatProvides(p.Intern("virtual-b")))

	extra.SetEnabled(false)
	assert.True(t, p.Dirty())
	assert.Empty(t, p.WhatProvides(p.Intern("virtual-b")))
	assert.Equal(t, []Id{a.ID()}, p.ByName(p.Intern("A")))

	extra.SetEnabled(true)
	assert.Equal(t, []Id{b.ID()}, p.WhatProvides(p.Intern("virtual-b")))
}

func TestWhatProvidesVersioned(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	v1 := repo.AddPackage("A", "1.0-1", "x86_64")
	v2 := repo.AddPackage("A", "2.0-1", "x86_64")
	v3 := repo.AddPackage("A", "3.0-1", "i686")

	ge2, err := p.Rel("A", CmpGE, "2.0")
	require.NoError(t, err)
	assert.Equal(t, []Id{v2.ID(), v3.ID()}, p.WhatProvides(ge2))

	lt2, err := p.Rel("A", CmpLT, "2.0")
	require.NoError(t, err)
	assert.Equal(t, []Id{v1.ID()}, p.WhatProvides(lt2))

	archRel, err := p.CreateRelation(p.Intern("A"), CmpArch, p.Intern("i686"))
	require.NoError(t, err)
	assert.Equal(t, []Id{v3.ID()}, p.WhatProvides(archRel))
	assert.Equal(t, "A.i686", p.Dep2Str(archRel))
}

func TestRpmlibAndFileProvides(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	sh := repo.AddPackage("bash", "5", "x86_64")
	sh.AddFile("/bin/sh")
	sh.AddFile("/usr/share/doc/bash/README")
	user := repo.AddPackage("script", "1", "noarch")
	require.NoError(t, user.AddDepString(DepRequires, "/bin/sh"))
	require.NoError(t, user.AddDepString(DepRequires, "rpmlib(PayloadIsZstd) <= 5.4.18-1"))

	assert.Equal(t, []Id{sh.ID()}, p.WhatProvides(p.Intern("/bin/sh")))
	assert.Empty(t, p.WhatProvides(p.Intern("/usr/share/doc/bash/README")), "only used paths are synthesized")
	assert.Equal(t, []Id{SystemSolvable}, p.WhatProvides(user.Requires()[1]))
	assert.Len(t, sh.Provides(), 1, "file provides do not change the provides list")
}

func TestAttributesNeedInternalize(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	s := repo.AddPackage("A", "1", "x86_64")
	s.SetAttrStr(KeySummary, "the A package")
	s.SetAttrNum(KeyInstallSize, 1024)

	assert.Equal(t, "", s.LookupStr(KeySummary))
	assert.False(t, repo.Internalized())

	p.Prepare()
	assert.True(t, repo.Internalized())
	assert.Equal(t, "the A package", s.LookupStr(KeySummary))
	assert.Equal(t, uint64(1024), s.LookupNum(KeyInstallSize))
	assert.Equal(t, "A", s.LookupStr(KeyName))
}

func TestSearch(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	vim := repo.AddPackage("vim-enhanced", "9.1", "x86_64")
	vim.SetAttrStr(KeySummary, "A version of the VIM editor")
	vim.AddFile("/usr/bin/vim")
	nano := repo.AddPackage("nano", "7.2", "x86_64")
	nano.SetAttrStr(KeySummary, "A small text editor")
	nano.AddFile("/usr/bin/nano")

	tests := []struct {
		name    string
		pattern string
		flags   MatchFlags
		key     Key
		want    []string
	}{
		{"substring all keys", "editor", 0, KeyNone, []string{"vim-enhanced-9.1.x86_64", "nano-7.2.x86_64"}},
		{"exact name", "nano", MatchExact, KeyName, []string{"nano-7.2.x86_64"}},
		{"glob name", "vim*", MatchGlob, KeyName, []string{"vim-enhanced-9.1.x86_64"}},
		{"regex", "^n.n", MatchRegex, KeyName, []string{"nano-7.2.x86_64"}},
		{"nocase", "VIM-ENH", MatchNoCase, KeyName, []string{"vim-enhanced-9.1.x86_64"}},
		{"case sensitive", "VIM-ENH", 0, KeyName, []string{}},
		{"files", "/usr/bin/nano", SearchFiles | MatchExact, KeyNone, []string{"nano-7.2.x86_64"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Search(tt.pattern, tt.flags, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}

	_, err := p.Search("(", MatchRegex, KeyNone)
	assert.ErrorIs(t, err, errutils.ErrOp)
}

func TestPackageCmp(t *testing.T) {
	p := newTestPool(t)
	low := p.CreateRepo("low")
	high := p.CreateRepo("high")
	high.SetPriority(5)

	a1 := low.AddPackage("A", "1", "x86_64")
	a2 := low.AddPackage("A", "2", "x86_64")
	a2high := high.AddPackage("A", "2", "x86_64")
	b := low.AddPackage("B", "0.1", "x86_64")

	assert.Equal(t, -1, p.PackageCmp(a1, a2))
	assert.Equal(t, -1, p.PackageCmp(a2, a2high), "priority breaks evr ties")
	assert.Equal(t, -1, p.PackageCmp(a2high, b), "name first")
	assert.Equal(t, 0, p.PackageCmp(a1, a1))

	ids := []Id{b.ID(), a2high.ID(), a1.ID(), a2.ID()}
	p.SortSolvables(ids)
	assert.Equal(t, []Id{a1.ID(), a2.ID(), a2high.ID(), b.ID()}, ids)
}

func TestInstallonly(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	kernel := repo.AddPackage("kernel", "6.8", "x86_64")
	modules := repo.AddPackage("kernel-modules", "6.8", "x86_64")
	require.NoError(t, modules.AddDepString(DepProvides, "installonlypkg(kernel)"))
	bash := repo.AddPackage("bash", "5", "x86_64")

	p.SetInstallonly("kernel", "installonlypkg(kernel)")
	assert.Equal(t, []string{"installonlypkg(kernel)", "kernel"}, p.Installonly())
	assert.True(t, p.IsInstallonly(kernel))
	assert.True(t, p.IsInstallonly(modules))
	assert.False(t, p.IsInstallonly(bash))
}

func TestInstallable(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	assert.True(t, p.Installable(repo.AddPackage("A", "1", "i686")))
	assert.True(t, p.Installable(repo.AddPackage("A", "1", "noarch")))
	assert.False(t, p.Installable(repo.AddPackage("A", "1", "aarch64")))
	assert.False(t, p.Installable(repo.AddPackage("A", "1", "src")))
}

func TestRepoRoundTrip(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	a := repo.AddPackage("A", "1:2.0-3", "x86_64")
	require.NoError(t, a.AddDepString(DepProvides, "libA.so.1()(64bit)"))
	require.NoError(t, a.AddDepString(DepRequires, "B >= 1.0"))
	require.NoError(t, a.AddDepString(DepConflicts, "C < 2"))
	require.NoError(t, a.AddDepString(DepObsoletes, "A-old"))
	require.NoError(t, a.AddDepString(DepRecommends, "D"))
	require.NoError(t, a.AddDepString(DepSuggests, "E"))
	a.SetAttrStr(KeyVendor, "Acme")
	a.SetAttrNum(KeyDownloadSize, 42)
	a.AddFile("/usr/lib64/libA.so.1")
	repo.AddPackage("B", "1.0-1", "noarch")

	for _, compress := range []bool{false, true} {
		buf := &bytes.Buffer{}
		require.NoError(t, repo.Write(buf, solvfile.Options{Compress: compress}))

		fresh := newTestPool(t)
		copyRepo := fresh.CreateRepo("copy")
		require.NoError(t, copyRepo.Read(context.Background(), buf))
		require.Equal(t, repo.Len(), copyRepo.Len())

		for i, id := range repo.Solvables() {
			orig, err := p.Export(id)
			require.NoError(t, err)
			got, err := fresh.Export(copyRepo.Solvables()[i])
			require.NoError(t, err)
			assert.Equal(t, orig, got)
		}
		first := fresh.Solvable(copyRepo.Solvables()[0])
		assert.Len(t, first.Provides(), 2, "self-provides is not added twice")
		assert.Equal(t, "Acme", first.Vendor())
	}
}

func TestRepoReadLeavesRepoUnchangedOnError(t *testing.T) {
	p := newTestPool(t)
	repo := p.CreateRepo("base")
	err := repo.Read(context.Background(), bytes.NewReader([]byte("garbage that is not a solv file at all")))
	assert.ErrorIs(t, err, errutils.ErrSolvNotSolv)
	assert.Equal(t, 0, repo.Len())
}
