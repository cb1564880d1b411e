// Package transaction turns the set of packages a solve selected into an
// ordered list of steps: what to install, upgrade, downgrade and erase, with
// download and install size figures.
package transaction

import (
	"path"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// Kind is the action a step performs.
type Kind int

const (
	// KindIgnore marks installed packages replaced by another step. They never
	// appear as steps of their own.
	KindIgnore Kind = iota
	KindInstall
	KindErase
	KindUpgrade
	KindDowngrade
)

var kindNames = [...]string{
	KindIgnore:    "ignore",
	KindInstall:   "install",
	KindErase:     "erase",
	KindUpgrade:   "upgrade",
	KindDowngrade: "downgrade",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Cache reports whether a package file is already downloaded.
type Cache interface {
	Contains(filename string) bool
}

// Options tune Build.
type Options struct {
	// Multiversion reports packages installed next to other versions of their
	// name instead of replacing them.
	Multiversion func(pool.Id) bool
	// Cache, if set, zeroes the download size of cached packages.
	Cache Cache
}

// Step is one action of a transaction.
type Step struct {
	Kind     Kind
	Solvable pool.Id
	// Replaces lists the installed packages this step supersedes.
	Replaces         []pool.Id
	DownloadSize     uint64
	InstallSizeDelta int64
}

// Transaction is an ordered plan. It does not reference the solver or
// request that produced it.
type Transaction struct {
	pool    *pool.Pool
	steps   []Step
	ignored map[pool.Id]pool.Id
	kinds   map[pool.Id]Kind
}

// Build classifies the change from the installed repository to selected and
// orders the steps. selected lists every package of the solution, installed
// ones included, in the order the solver decided them.
func Build(p *pool.Pool, selected []pool.Id, opts Options) *Transaction {
	p.Prepare()
	mv := opts.Multiversion
	if mv == nil {
		mv = func(pool.Id) bool { return false }
	}
	chosen := make(map[pool.Id]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	var installed []pool.Id
	if r := p.Installed(); r != nil && r.Enabled() {
		installed = r.Solvables()
	}
	var erased []pool.Id
	for _, id := range installed {
		if !chosen[id] {
			erased = append(erased, id)
		}
	}

	t := &Transaction{
		pool:    p,
		ignored: make(map[pool.Id]pool.Id),
		kinds:   make(map[pool.Id]Kind),
	}
	var steps []Step
	for _, id := range selected {
		sn := p.Solvable(id)
		if sn == nil || sn.Installed() {
			continue
		}
		step := Step{Kind: KindInstall, Solvable: id}
		var sameName *pool.Solvable
		for _, o := range erased {
			if _, done := t.ignored[o]; done {
				continue
			}
			so := p.Solvable(o)
			same := so.NameID() == sn.NameID() && !mv(id)
			if !same && !obsoletes(p, sn, so) {
				continue
			}
			step.Replaces = append(step.Replaces, o)
			t.ignored[o] = id
			if same && sameName == nil {
				sameName = so
			}
		}
		switch {
		case sameName != nil:
			if c := p.EVRCmp(sn, sameName); c > 0 {
				step.Kind = KindUpgrade
			} else if c < 0 {
				step.Kind = KindDowngrade
			}
		case len(step.Replaces) > 0:
			step.Kind = KindUpgrade
		}
		steps = append(steps, step)
	}
	for _, o := range erased {
		if _, done := t.ignored[o]; !done {
			steps = append(steps, Step{Kind: KindErase, Solvable: o})
		}
	}

	for i := range steps {
		sizeStep(p, &steps[i], opts.Cache)
	}
	t.steps = order(p, steps)
	for _, st := range t.steps {
		t.kinds[st.Solvable] = st.Kind
	}
	for o := range t.ignored {
		t.kinds[o] = KindIgnore
	}
	return t
}

// obsoletes reports whether sn obsoletes so by name.
func obsoletes(p *pool.Pool, sn, so *pool.Solvable) bool {
	for _, d := range sn.Obsoletes() {
		if p.DepName(d) == so.NameID() && p.MatchNEVR(so, d) {
			return true
		}
	}
	return false
}

func sizeStep(p *pool.Pool, st *Step, cache Cache) {
	s := p.Solvable(st.Solvable)
	size := int64(s.LookupNum(pool.KeyInstallSize))
	switch st.Kind {
	case KindErase:
		st.InstallSizeDelta = -size
		return
	case KindInstall:
		st.InstallSizeDelta = size
	default:
		st.InstallSizeDelta = size
		for _, o := range st.Replaces {
			st.InstallSizeDelta -= int64(p.Solvable(o).LookupNum(pool.KeyInstallSize))
		}
	}
	st.DownloadSize = s.LookupNum(pool.KeyDownloadSize)
	if cache != nil {
		if loc := s.LookupStr(pool.KeyLocation); loc != "" && cache.Contains(path.Base(loc)) {
			st.DownloadSize = 0
		}
	}
}

// Steps returns the ordered steps.
func (t *Transaction) Steps() []Step {
	out := make([]Step, len(t.steps))
	for i, st := range t.steps {
		out[i] = st
		out[i].Replaces = append([]pool.Id(nil), st.Replaces...)
	}
	return out
}

// Len returns the number of steps.
func (t *Transaction) Len() int {
	return len(t.steps)
}

// Classify returns the kind of change for id. Replaced packages are
// KindIgnore; ok is false for packages the transaction does not touch.
func (t *Transaction) Classify(id pool.Id) (Kind, bool) {
	k, ok := t.kinds[id]
	return k, ok
}

// Ignored returns the installed packages replaced by other steps, in id order.
func (t *Transaction) Ignored() []pool.Id {
	out := make([]pool.Id, 0, len(t.ignored))
	for id := range t.ignored {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

// ReplacedBy returns the step package replacing installed package id.
func (t *Transaction) ReplacedBy(id pool.Id) (pool.Id, bool) {
	n, ok := t.ignored[id]
	return n, ok
}

// DownloadSize sums the download sizes of all steps.
func (t *Transaction) DownloadSize() uint64 {
	var total uint64
	for _, st := range t.steps {
		total += st.DownloadSize
	}
	return total
}

// InstallSizeDelta sums the install size changes of all steps.
func (t *Transaction) InstallSizeDelta() int64 {
	var total int64
	for _, st := range t.steps {
		total += st.InstallSizeDelta
	}
	return total
}

// Count returns the number of steps per kind.
func (t *Transaction) Count() map[Kind]int {
	out := make(map[Kind]int)
	for _, st := range t.steps {
		out[st.Kind]++
	}
	return out
}

// Pool returns the pool the step ids refer to.
func (t *Transaction) Pool() *pool.Pool {
	return t.pool
}

// Clone returns a deep copy.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{
		pool:    t.pool,
		steps:   t.Steps(),
		ignored: make(map[pool.Id]pool.Id, len(t.ignored)),
		kinds:   make(map[pool.Id]Kind, len(t.kinds)),
	}
	for k, v := range t.ignored {
		c.ignored[k] = v
	}
	for k, v := range t.kinds {
		c.kinds[k] = v
	}
	return c
}
