package testcase

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/solver"
)

func TestTestdata(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			tc, err := Load(file)
			require.NoError(t, err)
			_, err = tc.RunAndCheck(context.Background())
			assert.NoError(t, err)
		})
	}
}

const universe = `
repos:
  - name: "@System"
    installed: true
    packages:
      - {name: A, evr: 1-1, arch: x86_64}
  - name: base
    packages:
      - {name: A, evr: 2-1, arch: x86_64}
      - {name: A, evr: 2-1, arch: i686}
      - {name: B, evr: 1-1, arch: x86_64, provides: [lib = 1.5]}
jobs: []
`

func TestAddJob(t *testing.T) {
	tc, err := Decode(strings.NewReader(universe))
	require.NoError(t, err)
	p, err := tc.Pool(context.Background())
	require.NoError(t, err)

	tests := []struct {
		line    string
		want    string
		wantErr error
	}{
		{line: "install name A", want: "install A"},
		{line: "install name A = 2-1", want: "install A = 2-1"},
		{line: "erase pkg A-1-1.x86_64@@System [cleandeps]", want: "delete A-1-1.x86_64 [cleandeps]"},
		{line: "install provides lib >= 1 [best]", want: "install a package providing lib >= 1 [best]"},
		{line: "update all", want: "update all packages"},
		{line: "distupgrade all", want: "distupgrade all packages"},
		{line: "lock name A", want: "lock A"},
		{line: "install select name~A* arch=i686", want: "install A.i686"},
		{line: "install pkg A-2-1.x86_64 [best,noobsoletes]", want: "install A-2-1.x86_64 [best,noobsoletes]"},

		{line: "install", wantErr: errutils.ErrTestcase},
		{line: "install all", wantErr: errutils.ErrTestcase},
		{line: "update all [best]", wantErr: errutils.ErrTestcase},
		{line: "frobnicate name A", wantErr: errutils.ErrTestcase},
		{line: "install name A [fast]", wantErr: errutils.ErrTestcase},
		{line: "install name A >= 2", wantErr: errutils.ErrTestcase},
		{line: "install pkg A-9-9.x86_64", wantErr: errutils.ErrUnknownSolvable},
		{line: "install pkg A-1-1.x86_64@nowhere", wantErr: errutils.ErrRepositoryNotFound},
		{line: "install select colour=red", wantErr: errutils.ErrSelector},
		{line: "install select arch=vax name=A", wantErr: errutils.ErrArch},
		{line: "install select name=A provides=lib", wantErr: errutils.ErrSelector},
		{line: "lock name A [best]", wantErr: errutils.ErrTestcase},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			req := request.New(p)
			err := AddJob(req, tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, req.Len(), "a rejected job adds nothing")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, req.Strings())
		})
	}
}

func TestFindPackageAmbiguous(t *testing.T) {
	tc, err := Decode(strings.NewReader(`
repos:
  - name: one
    packages: [{name: A, evr: "1", arch: noarch}]
  - name: two
    packages: [{name: A, evr: "1", arch: noarch}]
jobs: []
`))
	require.NoError(t, err)
	p, err := tc.Pool(context.Background())
	require.NoError(t, err)

	_, err = findPackage(p, "A-1.noarch")
	assert.ErrorIs(t, err, errutils.ErrTestcase)

	id, err := findPackage(p, "A-1.noarch@two")
	require.NoError(t, err)
	assert.Equal(t, "two", p.Solvable(id).Repo().Name())
}

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown field", "repos: []\njobs: []\nextra: 1\n", errutils.ErrTestcase},
		{"unknown arch", "arch: vax\nrepos: []\n", errutils.ErrArch},
		{"unnamed repo", "repos:\n  - packages: []\n", errutils.ErrEmptyRepositoryName},
		{"duplicate repo", "repos:\n  - {name: a}\n  - {name: a}\n", errutils.ErrRepositoryExists},
		{"two installed", "repos:\n  - {name: a, installed: true}\n  - {name: b, installed: true}\n", errutils.ErrTestcase},
		{"path and packages", "repos:\n  - name: a\n    path: a.solv\n    packages: [{name: A, arch: noarch}]\n", errutils.ErrTestcase},
		{"unknown flag", "repos: []\nflags: [be-fast]\n", errutils.ErrTestcase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSolveFlags(t *testing.T) {
	tc := &Testcase{Flags: []string{"allow-uninstall", "force_best"}}
	flags, err := tc.SolveFlags()
	require.NoError(t, err)
	assert.Equal(t, solver.AllowUninstall|solver.ForceBest, flags)
}

func TestRunReportsSolutions(t *testing.T) {
	tc, err := Decode(strings.NewReader(`
repos:
  - name: "@System"
    installed: true
    packages:
      - {name: A, evr: 1-1, arch: x86_64}
      - {name: B, evr: 1-1, arch: x86_64, requires: [A]}
jobs:
  - erase name A
result:
  transaction: []
`))
	require.NoError(t, err)

	out, err := tc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete A"}, out.Jobs)
	assert.Nil(t, out.Plan())
	require.Len(t, out.Problems, 1)
	assert.Equal(t, "package B-1-1.x86_64 requires A, but none of the providers can be installed", out.Problems[0].Problem)
	assert.Equal(t, []string{"do not ask to delete A", "allow deinstallation of B-1-1.x86_64"}, out.Problems[0].Solutions)

	err = tc.Check(out)
	require.ErrorIs(t, err, errutils.ErrTestcaseFailed)
	assert.Contains(t, err.Error(), "+ package B-1-1.x86_64 requires A")
}

func TestLockKeepsEverything(t *testing.T) {
	tc, err := Decode(strings.NewReader(`
repos:
  - name: "@System"
    installed: true
    packages:
      - {name: A, evr: 1-1, arch: x86_64}
  - name: base
    packages:
      - {name: A, evr: 2-1, arch: x86_64}
      - {name: B, evr: 1-1, arch: x86_64}
jobs:
  - lock name A
  - lock pkg B-1-1.x86_64
  - update all
result:
  transaction: []
`))
	require.NoError(t, err)
	out, err := tc.RunAndCheck(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Plan())
	assert.Zero(t, out.Plan().Len())
}
