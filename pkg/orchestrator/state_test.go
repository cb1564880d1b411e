package orchestrator_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/loader"
	"github.com/glorpus-work/solvent/pkg/orchestrator"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/request"
)

func TestInstalledStateRecordsTransaction(t *testing.T) {
	for _, name := range []string{"installed.yaml", "installed.solv"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			tr := f.solve(t, func(req *request.Request) {
				req.UpgradeAll()
				require.NoError(t, req.Install(request.Package(f.b)))
				require.NoError(t, req.Erase(request.Package(f.c)))
			})

			path := filepath.Join(t.TempDir(), name)
			state, err := orchestrator.NewInstalledState(f.pool, path)
			require.NoError(t, err)
			assert.Equal(t, []string{"A-1-1.x86_64", "C-1-1.noarch"}, state.Packages())

			require.NoError(t, orchestrator.New(state, nil, orchestrator.Hooks{}).Apply(context.Background(), tr, orchestrator.Options{}))
			assert.ElementsMatch(t, []string{"A-2-1.x86_64", "B-1-1.x86_64"}, state.Packages())
			require.NoError(t, state.Commit())

			host, err := arch.NewHostInfo(arch.X86_64)
			require.NoError(t, err)
			p := pool.New(host)
			repos, err := loader.New(p).Load(context.Background(), []loader.Source{
				{Name: loader.InstalledRepoName, Path: path, Installed: true},
			})
			require.NoError(t, err)
			var got []string
			for _, id := range repos[0].Solvables() {
				got = append(got, p.Solvable(id).String())
			}
			assert.ElementsMatch(t, []string{"A-2-1.x86_64", "B-1-1.x86_64"}, got)

			a := p.Solvable(repos[0].Solvables()[0])
			if a.Name() != "A" {
				a = p.Solvable(repos[0].Solvables()[1])
			}
			assert.Equal(t, "Packages/A-2-1.x86_64.rpm", a.LookupStr(pool.KeyLocation))
		})
	}
}

func TestInstalledStateEraseUnknown(t *testing.T) {
	f := newFixture(t)
	state, err := orchestrator.NewInstalledState(f.pool, filepath.Join(t.TempDir(), "installed.solv"))
	require.NoError(t, err)

	err = state.Erase(context.Background(), orchestrator.Describe(f.pool, f.b))
	assert.ErrorIs(t, err, errutils.ErrUnknownSolvable)

	err = state.Replace(context.Background(), orchestrator.Describe(f.pool, f.a2), []orchestrator.Package{orchestrator.Describe(f.pool, f.b)})
	assert.ErrorIs(t, err, errutils.ErrUnknownSolvable)
	assert.Equal(t, []string{"A-1-1.x86_64", "C-1-1.noarch"}, state.Packages(), "a failed replace changes nothing")
}
