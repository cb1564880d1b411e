package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solver"
)

func fixturePool(t *testing.T) *pool.Pool {
	t.Helper()
	host, err := arch.NewHostInfo(arch.X86_64)
	require.NoError(t, err)
	p := pool.New(host)
	r := p.CreateRepo("available")
	r.AddPackage("alpha", "1.0-1", "x86_64")
	r.AddPackage("alpha", "2.0-1", "x86_64")
	r.AddPackage("alpha", "2.0-1", "i686")
	r.AddPackage("alpine", "3.1-1", "noarch")
	beta := r.AddPackage("beta", "1.0-1", "x86_64")
	require.NoError(t, beta.AddDepString(pool.DepProvides, "webserver = 2"))
	gamma := r.AddPackage("gamma", "4.0-1", "x86_64")
	require.NoError(t, gamma.AddDepString(pool.DepProvides, "webserver = 3"))
	return p
}

func jobStrings(p *pool.Pool, q solver.Queue) []string {
	out := make([]string, 0, len(q))
	for _, job := range q {
		out = append(out, solver.JobString(p, solver.Job{How: solver.JobInstall | job.How, What: job.What}))
	}
	return out
}

func TestSetValidation(t *testing.T) {
	p := fixturePool(t)

	tests := []struct {
		name    string
		setup   func(s *Selector) error
		wantErr error
	}{
		{
			name:  "exact name",
			setup: func(s *Selector) error { return s.Set(KeyName, CmpEQ, "alpha") },
		},
		{
			name:  "glob name",
			setup: func(s *Selector) error { return s.Set(KeyName, CmpGlob, "al*") },
		},
		{
			name:    "bad glob",
			setup:   func(s *Selector) error { return s.Set(KeyName, CmpGlob, "al[") },
			wantErr: errutils.ErrSelector,
		},
		{
			name:    "glob provides",
			setup:   func(s *Selector) error { return s.Set(KeyProvides, CmpGlob, "web*") },
			wantErr: errutils.ErrSelector,
		},
		{
			name: "name then provides",
			setup: func(s *Selector) error {
				require.NoError(t, s.Set(KeyName, CmpEQ, "alpha"))
				return s.Set(KeyProvides, CmpEQ, "webserver")
			},
			wantErr: errutils.ErrSelector,
		},
		{
			name: "provides then name",
			setup: func(s *Selector) error {
				require.NoError(t, s.Set(KeyProvides, CmpEQ, "webserver"))
				return s.Set(KeyName, CmpEQ, "alpha")
			},
			wantErr: errutils.ErrSelector,
		},
		{
			name:    "bad provides relation",
			setup:   func(s *Selector) error { return s.Set(KeyProvides, CmpEQ, "webserver ~ 2") },
			wantErr: errutils.ErrSelector,
		},
		{
			name:    "unknown arch",
			setup:   func(s *Selector) error { return s.Set(KeyArch, CmpEQ, "vax") },
			wantErr: errutils.ErrArch,
		},
		{
			name:    "empty value",
			setup:   func(s *Selector) error { return s.Set(KeyEVR, CmpEQ, "") },
			wantErr: errutils.ErrSelector,
		},
		{
			name:    "unknown key",
			setup:   func(s *Selector) error { return s.Set(Key(42), CmpEQ, "x") },
			wantErr: errutils.ErrSelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(New(p))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestToQueue(t *testing.T) {
	p := fixturePool(t)

	tests := []struct {
		name    string
		filters [][3]string
		want    []string
		flags   []solver.JobFlags
	}{
		{
			name:    "exact name",
			filters: [][3]string{{"name", "=", "alpha"}},
			want:    []string{"install alpha"},
			flags:   []solver.JobFlags{solver.SelectName},
		},
		{
			name:    "glob expands to distinct names",
			filters: [][3]string{{"name", "glob", "alp*"}},
			want:    []string{"install alpha", "install alpine"},
			flags:   []solver.JobFlags{solver.SelectName, solver.SelectName},
		},
		{
			name:    "arch and evr",
			filters: [][3]string{{"name", "=", "alpha"}, {"arch", "=", "i686"}, {"evr", "=", "2.0-1"}},
			want:    []string{"install alpha.i686 = 2.0-1"},
			flags:   []solver.JobFlags{solver.SelectName | solver.FlagSetArch | solver.FlagSetEV},
		},
		{
			name:    "glob filtered by arch",
			filters: [][3]string{{"name", "glob", "alp*"}, {"arch", "=", "noarch"}},
			want:    []string{"install alpine.noarch"},
			flags:   []solver.JobFlags{solver.SelectName | solver.FlagSetArch},
		},
		{
			name:    "provides",
			filters: [][3]string{{"provides", "=", "webserver >= 2"}},
			want:    []string{"install a package providing webserver >= 2"},
			flags:   []solver.JobFlags{solver.SelectProvides},
		},
		{
			name:    "provides pinned to evr becomes name jobs",
			filters: [][3]string{{"provides", "=", "webserver"}, {"evr", "=", "4.0-1"}},
			want:    []string{"install gamma = 4.0-1"},
			flags:   []solver.JobFlags{solver.SelectName | solver.FlagSetEV},
		},
		{
			name:    "unmatched name keeps raw value",
			filters: [][3]string{{"name", "glob", "zeta*"}},
			want:    []string{"install zeta*"},
			flags:   []solver.JobFlags{solver.SelectName},
		},
		{
			name:    "replacing an axis",
			filters: [][3]string{{"name", "=", "alpha"}, {"name", "=", "beta"}},
			want:    []string{"install beta"},
			flags:   []solver.JobFlags{solver.SelectName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := New(p)
			for _, f := range tt.filters {
				key, ok := ParseKey(f[0])
				require.True(t, ok)
				cmp := CmpEQ
				if f[1] == "glob" {
					cmp = CmpGlob
				}
				require.NoError(t, sel.Set(key, cmp, f[2]))
			}
			q, err := sel.ToQueue()
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobStrings(p, q))
			var flags []solver.JobFlags
			for _, job := range q {
				flags = append(flags, job.How)
			}
			assert.Equal(t, tt.flags, flags)
		})
	}
}

func TestToQueueWithoutRoot(t *testing.T) {
	p := fixturePool(t)
	sel := New(p)
	require.NoError(t, sel.Set(KeyArch, CmpEQ, "x86_64"))
	_, err := sel.ToQueue()
	assert.ErrorIs(t, err, errutils.ErrSelector)
}

func TestMatches(t *testing.T) {
	p := fixturePool(t)
	sel := New(p)
	require.NoError(t, sel.Set(KeyName, CmpEQ, "alpha"))
	require.NoError(t, sel.Set(KeyEVR, CmpEQ, "2.0-1"))

	var got []string
	for _, id := range sel.Matches() {
		got = append(got, p.Solvable(id).String())
	}
	assert.Equal(t, []string{"alpha-2.0-1.x86_64", "alpha-2.0-1.i686"}, got)
	assert.Equal(t, "name=alpha evr=2.0-1", sel.String())
}

func TestSolveWithSelection(t *testing.T) {
	p := fixturePool(t)
	sel := New(p)
	require.NoError(t, sel.Set(KeyName, CmpEQ, "alpha"))
	require.NoError(t, sel.Set(KeyEVR, CmpEQ, "1.0"))
	q, err := sel.ToQueue()
	require.NoError(t, err)
	for i := range q {
		q[i].How |= solver.JobInstall
	}

	tr, problems, err := solver.New(p).Solve(q, 0)
	require.NoError(t, err)
	require.Empty(t, problems)
	steps := tr.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "alpha-1.0-1.x86_64", p.Solvable(steps[0].Solvable).String())
}
