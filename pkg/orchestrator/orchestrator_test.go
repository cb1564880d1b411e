package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/orchestrator"
	ocmocks "github.com/glorpus-work/solvent/pkg/orchestrator/mocks"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

type fixture struct {
	pool *pool.Pool
	a1   pool.Id
	a2   pool.Id
	b    pool.Id
	c    pool.Id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host, err := arch.NewHostInfo(arch.X86_64)
	require.NoError(t, err)
	p := pool.New(host)
	system := p.CreateRepo("@System")
	p.SetInstalled(system)
	base := p.CreateRepo("base")

	f := &fixture{pool: p}
	f.a1 = system.AddPackage("A", "1-1", "x86_64").ID()
	f.c = system.AddPackage("C", "1-1", "noarch").ID()
	a2 := base.AddPackage("A", "2-1", "x86_64")
	a2.SetAttrStr(pool.KeyLocation, "Packages/A-2-1.x86_64.rpm")
	a2.SetAttrNum(pool.KeyDownloadSize, 100)
	f.a2 = a2.ID()
	f.b = base.AddPackage("B", "1-1", "x86_64").ID()
	return f
}

func (f *fixture) solve(t *testing.T, build func(*request.Request)) *transaction.Transaction {
	t.Helper()
	req := request.New(f.pool)
	build(req)
	tr, problems, err := req.Solve(0)
	require.NoError(t, err)
	require.Empty(t, problems)
	return tr
}

func (f *fixture) upgradeAndInstall(t *testing.T) *transaction.Transaction {
	return f.solve(t, func(req *request.Request) {
		req.UpgradeAll()
		require.NoError(t, req.Install(request.Package(f.b)))
	})
}

func hasName(name string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		pkg, ok := x.(orchestrator.Package)
		return ok && pkg.String() == name
	})
}

func TestApply_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	tr := f.upgradeAndInstall(t)

	exec := ocmocks.NewMockExecutor(ctrl)
	fetch := ocmocks.NewMockFetcher(ctrl)

	var events []orchestrator.Event
	orch := orchestrator.New(exec, fetch, orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		events = append(events, e)
	}})

	require.NoError(t, orch.Apply(context.Background(), tr, orchestrator.Options{DryRun: true}))
	require.Len(t, events, 4)
	assert.Equal(t, orchestrator.PhasePlanning, events[0].Phase)
	assert.Equal(t, "2 steps", events[0].Msg)
	assert.Equal(t, orchestrator.PhaseDone, events[3].Phase)
	assert.Equal(t, "dry-run", events[3].Msg)
}

func TestApply_FetchAndInstall(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	tr := f.upgradeAndInstall(t)

	exec := ocmocks.NewMockExecutor(ctrl)
	fetch := ocmocks.NewMockFetcher(ctrl)
	cacheDir := t.TempDir()

	fetch.EXPECT().FetchAll(gomock.Any(), gomock.Any(), cacheDir).DoAndReturn(
		func(_ context.Context, pkgs []orchestrator.Package, _ string) error {
			require.Len(t, pkgs, 1, "only packages with a download size are fetched")
			assert.Equal(t, "A-2-1.x86_64", pkgs[0].String())
			assert.Equal(t, "Packages/A-2-1.x86_64.rpm", pkgs[0].Location)
			assert.Equal(t, "base", pkgs[0].Repo)
			return nil
		},
	).Times(1)
	exec.EXPECT().Replace(gomock.Any(), hasName("A-2-1.x86_64"), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ orchestrator.Package, old []orchestrator.Package) error {
			require.Len(t, old, 1)
			assert.Equal(t, f.a1, old[0].ID)
			return nil
		},
	).Times(1)
	exec.EXPECT().Install(gomock.Any(), hasName("B-1-1.x86_64")).Return(nil).Times(1)

	var phases []orchestrator.Phase
	orch := orchestrator.New(exec, fetch, orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		phases = append(phases, e.Phase)
	}})
	require.NoError(t, orch.Apply(context.Background(), tr, orchestrator.Options{CacheDir: cacheDir}))

	assert.Contains(t, phases, orchestrator.PhaseDownloading)
	assert.Contains(t, phases, orchestrator.PhaseInstalling)
	assert.Equal(t, orchestrator.PhaseDone, phases[len(phases)-1])
}

func TestApply_StopsAtFailingStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	tr := f.solve(t, func(req *request.Request) {
		require.NoError(t, req.Erase(request.Package(f.c)))
	})

	boom := errors.New("disk full")
	exec := ocmocks.NewMockExecutor(ctrl)
	exec.EXPECT().Erase(gomock.Any(), hasName("C-1-1.noarch")).Return(boom).Times(1)

	var last orchestrator.Event
	orch := orchestrator.New(exec, nil, orchestrator.Hooks{OnEvent: func(e orchestrator.Event) { last = e }})
	err := orch.Apply(context.Background(), tr, orchestrator.Options{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "erase C-1-1.noarch")
	assert.Equal(t, orchestrator.PhaseError, last.Phase)
	assert.Equal(t, "C-1-1.noarch", last.ID)
}

func TestApply_Misuse(t *testing.T) {
	f := newFixture(t)
	tr := f.upgradeAndInstall(t)

	orch := orchestrator.New(nil, nil, orchestrator.Hooks{})
	assert.ErrorIs(t, orch.Apply(context.Background(), nil, orchestrator.Options{}), errutils.ErrOp)
	assert.ErrorIs(t, orch.Apply(context.Background(), tr, orchestrator.Options{}), errutils.ErrOp)
	assert.NoError(t, orch.Apply(context.Background(), tr, orchestrator.Options{DryRun: true}), "a dry run needs no executor")
}

func TestApply_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	tr := f.upgradeAndInstall(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	orch := orchestrator.New(ocmocks.NewMockExecutor(ctrl), nil, orchestrator.Hooks{})
	assert.ErrorIs(t, orch.Apply(ctx, tr, orchestrator.Options{}), context.Canceled)
}

func TestDescribe(t *testing.T) {
	f := newFixture(t)
	f.pool.Prepare()

	pkg := orchestrator.Describe(f.pool, f.a2)
	assert.Equal(t, orchestrator.Package{
		ID:           f.a2,
		Name:         "A",
		EVR:          "2-1",
		Arch:         "x86_64",
		Repo:         "base",
		Location:     "Packages/A-2-1.x86_64.rpm",
		DownloadSize: 100,
	}, pkg)

	assert.Equal(t, orchestrator.Package{ID: 9999}, orchestrator.Describe(f.pool, 9999))
}
