package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/selector"
	"github.com/glorpus-work/solvent/pkg/solver"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

type fixture struct {
	pool      *pool.Pool
	system    *pool.Repo
	available *pool.Repo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host, err := arch.NewHostInfo(arch.X86_64)
	require.NoError(t, err)
	p := pool.New(host)
	f := &fixture{pool: p, system: p.CreateRepo("@System"), available: p.CreateRepo("available")}
	p.SetInstalled(f.system)
	return f
}

func (f *fixture) add(t *testing.T, r *pool.Repo, name, evr string, requires ...string) pool.Id {
	t.Helper()
	s := r.AddPackage(name, evr, "x86_64")
	for _, dep := range requires {
		require.NoError(t, s.AddDepString(pool.DepRequires, dep))
	}
	return s.ID()
}

func (f *fixture) steps(tr *transaction.Transaction) []string {
	var out []string
	for _, st := range tr.Steps() {
		out = append(out, st.Kind.String()+" "+f.pool.Solvable(st.Solvable).String())
	}
	return out
}

func TestInstallPackage(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, f.available, "A", "1-1")

	req := New(f.pool)
	require.NoError(t, req.Install(Package(a)))
	tr, problems, err := req.Solve(0)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, []string{"install A-1-1.x86_64"}, f.steps(tr))
}

func TestTargetValidation(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, f.system, "A", "1-1")
	rel, err := f.pool.Rel("A", pool.CmpGE, "1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    func(r *Request) error
		wantErr error
	}{
		{
			name:    "erase with relation",
			call:    func(r *Request) error { return r.Erase(Relation(rel)) },
			wantErr: errutils.ErrOp,
		},
		{
			name:    "unknown solvable",
			call:    func(r *Request) error { return r.Install(Package(a, 999)) },
			wantErr: errutils.ErrUnknownSolvable,
		},
		{
			name:    "system solvable",
			call:    func(r *Request) error { return r.Install(Package(pool.SystemSolvable)) },
			wantErr: errutils.ErrUnknownSolvable,
		},
		{
			name:    "empty package target",
			call:    func(r *Request) error { return r.Lock(Package()) },
			wantErr: errutils.ErrOp,
		},
		{
			name:    "job type as hint",
			call:    func(r *Request) error { return r.Install(Package(a), solver.JobErase) },
			wantErr: errutils.ErrOp,
		},
		{
			name:    "nil target",
			call:    func(r *Request) error { return r.Upgrade(nil) },
			wantErr: errutils.ErrOp,
		},
		{
			name:    "nil selector",
			call:    func(r *Request) error { return r.Install(Selection(nil)) },
			wantErr: errutils.ErrSelector,
		},
		{
			name:    "selector without root",
			call:    func(r *Request) error { return r.Install(Selection(selector.New(f.pool))) },
			wantErr: errutils.ErrSelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := New(f.pool)
			err := tt.call(req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, req.Len(), "a rejected call leaves the queue untouched")
		})
	}
}

func TestJobStrings(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, f.available, "A", "1-1")
	f.add(t, f.system, "B", "1-1")
	rel, err := f.pool.Rel("C", pool.CmpGE, "1")
	require.NoError(t, err)
	sel := selector.New(f.pool)
	require.NoError(t, sel.Set(selector.KeyName, selector.CmpEQ, "B"))

	req := New(f.pool)
	require.NoError(t, req.Install(Package(a), solver.FlagForceBest))
	require.NoError(t, req.Install(Relation(rel)))
	require.NoError(t, req.Erase(Selection(sel), solver.FlagCleanDeps))
	require.NoError(t, req.Lock(Selection(sel)))
	req.UpgradeAll()
	req.DistUpgrade()
	req.Verify()

	assert.Equal(t, []string{
		"install A-1-1.x86_64 [best]",
		"install a package providing C >= 1",
		"delete B [cleandeps]",
		"lock B",
		"update all packages",
		"distupgrade all packages",
		"verify all packages",
	}, req.Strings())

	jobs := req.Jobs()
	jobs[0].What = pool.IdNull
	assert.Equal(t, a, req.Jobs()[0].What, "Jobs returns a copy")

	req.Reset()
	assert.Zero(t, req.Len())
}

func TestInstallSelection(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.available, "lib", "1-1")
	f.add(t, f.available, "lib", "2-1")
	f.add(t, f.available, "app", "1-1", "lib")

	sel := selector.New(f.pool)
	require.NoError(t, sel.Set(selector.KeyName, selector.CmpEQ, "app"))
	req := New(f.pool)
	require.NoError(t, req.Install(Selection(sel)))

	tr, problems, err := req.Solve(0)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, []string{"install lib-2-1.x86_64", "install app-1-1.x86_64"}, f.steps(tr))
}

func TestUpgradeAll(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.system, "A", "1-1")
	f.add(t, f.available, "A", "2-1")

	req := New(f.pool)
	req.UpgradeAll()
	tr, problems, err := req.Solve(0)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, []string{"upgrade A-2-1.x86_64"}, f.steps(tr))
	assert.Equal(t, 1, req.Stats().Installed)
}

func TestApplySolutionLoop(t *testing.T) {
	f := newFixture(t)
	a1 := f.add(t, f.available, "A", "1-1")
	a2 := f.add(t, f.available, "A", "2-1")

	req := New(f.pool)
	require.NoError(t, req.Install(Package(a1, a2)))

	tr, problems, err := req.Solve(0)
	require.NoError(t, err)
	assert.Nil(t, tr)
	require.Len(t, problems, 1)
	sols, err := problems[0].Solutions()
	require.NoError(t, err)
	require.NotEmpty(t, sols)

	require.NoError(t, req.ApplySolution(sols[0]))
	assert.Equal(t, []string{"install A-2-1.x86_64"}, req.Strings())

	tr, problems, err = req.Solve(0)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, []string{"install A-2-1.x86_64"}, f.steps(tr))

	_, err = sols[0].Apply(req.Jobs())
	assert.ErrorIs(t, err, errutils.ErrStaleProblem)
	assert.ErrorIs(t, req.ApplySolution(nil), errutils.ErrOp)
}

func TestEraseWithDependents(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, f.system, "A", "1-1")
	f.add(t, f.system, "B", "1-1", "A")

	req := New(f.pool)
	require.NoError(t, req.Erase(Package(a)))

	_, problems, err := req.Solve(0)
	require.NoError(t, err)
	require.Len(t, problems, 1)

	tr, problems, err := req.Solve(solver.AllowUninstall)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, []string{"erase B-1-1.x86_64", "erase A-1-1.x86_64"}, f.steps(tr))
}

type cacheSet map[string]bool

func (c cacheSet) Contains(name string) bool { return c[name] }

func TestSetCache(t *testing.T) {
	f := newFixture(t)
	s := f.available.AddPackage("A", "1-1", "x86_64")
	s.SetAttrStr(pool.KeyLocation, "Packages/A-1-1.x86_64.rpm")
	s.SetAttrNum(pool.KeyDownloadSize, 4096)

	req := New(f.pool)
	require.NoError(t, req.Install(Package(s.ID())))
	tr, _, err := req.Solve(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), tr.DownloadSize())

	req.SetCache(cacheSet{"A-1-1.x86_64.rpm": true})
	tr, _, err = req.Solve(0)
	require.NoError(t, err)
	assert.Zero(t, tr.DownloadSize())
}
