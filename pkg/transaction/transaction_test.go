package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/pool"
)

type fixture struct {
	t         *testing.T
	pool      *pool.Pool
	system    *pool.Repo
	available *pool.Repo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host, err := arch.NewHostInfo(arch.X86_64)
	require.NoError(t, err)
	p := pool.New(host)
	f := &fixture{t: t, pool: p, system: p.CreateRepo("@System"), available: p.CreateRepo("available")}
	p.SetInstalled(f.system)
	return f
}

func (f *fixture) add(r *pool.Repo, name, evr string, requires ...string) pool.Id {
	f.t.Helper()
	s := r.AddPackage(name, evr, "x86_64")
	for _, d := range requires {
		require.NoError(f.t, s.AddDepString(pool.DepRequires, d))
	}
	return s.ID()
}

func (f *fixture) names(steps []Step) []string {
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = st.Kind.String() + " " + f.pool.Solvable(st.Solvable).String()
	}
	return out
}

type fakeCache map[string]bool

func (c fakeCache) Contains(name string) bool { return c[name] }

func TestBuildClassifiesSteps(t *testing.T) {
	f := newFixture(t)
	oldA := f.add(f.system, "A", "1.0-1")
	oldB := f.add(f.system, "B", "2.0-1")
	oldC := f.add(f.system, "C", "1.0-1")
	keep := f.add(f.system, "D", "1.0-1")
	newA := f.add(f.available, "A", "2.0-1")
	newB := f.add(f.available, "B", "1.0-1")
	newE := f.add(f.available, "E", "1.0-1")

	tr := Build(f.pool, []pool.Id{keep, newA, newB, newE}, Options{})

	assert.Equal(t, []string{
		"upgrade A-2.0-1.x86_64",
		"downgrade B-1.0-1.x86_64",
		"install E-1.0-1.x86_64",
		"erase C-1.0-1.x86_64",
	}, f.names(tr.Steps()))

	k, ok := tr.Classify(oldA)
	assert.True(t, ok)
	assert.Equal(t, KindIgnore, k)
	k, _ = tr.Classify(newB)
	assert.Equal(t, KindDowngrade, k)
	k, _ = tr.Classify(oldC)
	assert.Equal(t, KindErase, k)
	_, ok = tr.Classify(keep)
	assert.False(t, ok, "untouched packages are not classified")

	assert.Equal(t, []pool.Id{oldA, oldB}, tr.Ignored())
	by, ok := tr.ReplacedBy(oldB)
	assert.True(t, ok)
	assert.Equal(t, newB, by)
	assert.Equal(t, map[Kind]int{KindUpgrade: 1, KindDowngrade: 1, KindInstall: 1, KindErase: 1}, tr.Count())
}

func TestBuildObsoletesAndMultiversion(t *testing.T) {
	f := newFixture(t)
	old := f.add(f.system, "foo", "1.0-1")
	kernel := f.add(f.system, "kernel", "6.8-1")
	ng := f.available.AddPackage("foo-ng", "1.0-1", "x86_64")
	require.NoError(t, ng.AddDepString(pool.DepObsoletes, "foo < 2"))
	newKernel := f.add(f.available, "kernel", "6.9-1")

	mv := func(id pool.Id) bool { return id == newKernel }
	tr := Build(f.pool, []pool.Id{kernel, ng.ID(), newKernel}, Options{Multiversion: mv})

	steps := tr.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, KindUpgrade, steps[0].Kind, "an obsoleting package upgrades what it obsoletes")
	assert.Equal(t, []pool.Id{old}, steps[0].Replaces)
	assert.Equal(t, KindInstall, steps[1].Kind, "multiversion packages install next to the old version")
	assert.Empty(t, steps[1].Replaces)
}

func TestBuildReinstallIsInstall(t *testing.T) {
	f := newFixture(t)
	old := f.add(f.system, "A", "1.0-1")
	again := f.add(f.available, "A", "1.0-1")

	tr := Build(f.pool, []pool.Id{again}, Options{})
	steps := tr.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, KindInstall, steps[0].Kind)
	assert.Equal(t, []pool.Id{old}, steps[0].Replaces)
}

func TestOrderInstallsProvidersFirst(t *testing.T) {
	f := newFixture(t)
	p := f.add(f.available, "P", "1-1", "Q")
	q := f.add(f.available, "Q", "1-1", "R >= 1")
	r := f.add(f.available, "R", "1-1")

	tr := Build(f.pool, []pool.Id{p, q, r}, Options{})
	assert.Equal(t, []string{
		"install R-1-1.x86_64",
		"install Q-1-1.x86_64",
		"install P-1-1.x86_64",
	}, f.names(tr.Steps()))
}

func TestOrderErasesDependentsFirst(t *testing.T) {
	f := newFixture(t)
	f.add(f.system, "lib", "1-1")
	f.add(f.system, "app", "1-1", "lib")
	f.add(f.system, "plugin", "1-1", "app")

	tr := Build(f.pool, nil, Options{})
	assert.Equal(t, []string{
		"erase plugin-1-1.x86_64",
		"erase app-1-1.x86_64",
		"erase lib-1-1.x86_64",
	}, f.names(tr.Steps()))
}

func TestOrderUpgradeAwayBeforeErase(t *testing.T) {
	f := newFixture(t)
	f.add(f.system, "old-lib", "1-1")
	f.add(f.system, "app", "1-1", "old-lib")
	newApp := f.add(f.available, "app", "2-1")

	tr := Build(f.pool, []pool.Id{newApp}, Options{})
	assert.Equal(t, []string{
		"upgrade app-2-1.x86_64",
		"erase old-lib-1-1.x86_64",
	}, f.names(tr.Steps()))
}

func TestOrderBreaksCycles(t *testing.T) {
	f := newFixture(t)
	a := f.add(f.available, "A", "1-1", "B")
	b := f.add(f.available, "B", "1-1", "A")
	c := f.add(f.available, "C", "1-1")

	tr := Build(f.pool, []pool.Id{a, b, c}, Options{})
	assert.Equal(t, []string{
		"install C-1-1.x86_64",
		"install A-1-1.x86_64",
		"install B-1-1.x86_64",
	}, f.names(tr.Steps()))
}

func TestSizes(t *testing.T) {
	f := newFixture(t)
	old := f.system.AddPackage("A", "1-1", "x86_64")
	old.SetAttrNum(pool.KeyInstallSize, 1000)
	gone := f.system.AddPackage("B", "1-1", "x86_64")
	gone.SetAttrNum(pool.KeyInstallSize, 300)

	up := f.available.AddPackage("A", "2-1", "x86_64")
	up.SetAttrNum(pool.KeyInstallSize, 1500)
	up.SetAttrNum(pool.KeyDownloadSize, 400)
	up.SetAttrStr(pool.KeyLocation, "Packages/A-2-1.x86_64.rpm")
	fresh := f.available.AddPackage("C", "1-1", "x86_64")
	fresh.SetAttrNum(pool.KeyInstallSize, 50)
	fresh.SetAttrNum(pool.KeyDownloadSize, 20)
	fresh.SetAttrStr(pool.KeyLocation, "Packages/C-1-1.x86_64.rpm")
	f.pool.Prepare()

	tr := Build(f.pool, []pool.Id{up.ID(), fresh.ID()}, Options{})
	assert.Equal(t, uint64(420), tr.DownloadSize())
	assert.Equal(t, int64(500+50-300), tr.InstallSizeDelta())

	cached := Build(f.pool, []pool.Id{up.ID(), fresh.ID()}, Options{Cache: fakeCache{"A-2-1.x86_64.rpm": true}})
	assert.Equal(t, uint64(20), cached.DownloadSize())
	for _, st := range cached.Steps() {
		if st.Kind == KindErase {
			assert.Zero(t, st.DownloadSize)
			assert.Equal(t, int64(-300), st.InstallSizeDelta)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := newFixture(t)
	f.add(f.system, "A", "1-1")
	newA := f.add(f.available, "A", "2-1")

	tr := Build(f.pool, []pool.Id{newA}, Options{})
	c := tr.Clone()
	steps := c.Steps()
	steps[0].Replaces[0] = 0
	assert.Equal(t, tr.Steps(), c.Steps())
	assert.Equal(t, tr.Ignored(), c.Ignored())
	assert.Equal(t, 1, c.Len())
}
