package solver

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// JobFlags combine a job type, a selection kind and hint bits.
type JobFlags uint32

// Selection kinds say how Job.What is interpreted.
const (
	// SelectSolvable targets one solvable id.
	SelectSolvable JobFlags = 0x01
	// SelectName targets solvables by name. What may be a relation to restrict
	// the evr or arch.
	SelectName JobFlags = 0x02
	// SelectProvides targets every solvable providing a dependency.
	SelectProvides JobFlags = 0x03
	// SelectAll targets every installed solvable.
	SelectAll JobFlags = 0x04

	SelectMask JobFlags = 0xff
)

// Job types.
const (
	JobNoop         JobFlags = 0x0000
	JobInstall      JobFlags = 0x0100
	JobErase        JobFlags = 0x0200
	JobUpdate       JobFlags = 0x0300
	JobLock         JobFlags = 0x0400
	JobVerify       JobFlags = 0x0500
	JobDistupgrade  JobFlags = 0x0600
	JobMultiversion JobFlags = 0x0700

	JobMask JobFlags = 0xff00
)

// Hints modify how a job is solved.
const (
	// FlagForceBest requires the best candidate, failing instead of falling back.
	FlagForceBest JobFlags = 0x010000
	// FlagCleanDeps also erases installed dependencies nothing else needs.
	FlagCleanDeps JobFlags = 0x020000
	// FlagNoObsoletes installs the targets without obsoleting installed packages.
	FlagNoObsoletes JobFlags = 0x040000
	// FlagSetArch marks a selection with an arch filter.
	FlagSetArch JobFlags = 0x100000
	// FlagSetEV marks a selection with an evr filter.
	FlagSetEV JobFlags = 0x200000

	FlagMask JobFlags = 0xff0000
)

// Type returns the job type bits.
func (f JobFlags) Type() JobFlags { return f & JobMask }

// Select returns the selection kind bits.
func (f JobFlags) Select() JobFlags { return f & SelectMask }

// Has reports whether every bit of h is set.
func (f JobFlags) Has(h JobFlags) bool { return f&h == h }

// Job is one (flags, target) entry of a job queue.
type Job struct {
	How  JobFlags
	What pool.Id
}

// Queue is an ordered job list. The solver never modifies a caller's queue.
type Queue []Job

// Clone returns an independent copy.
func (q Queue) Clone() Queue {
	return append(Queue(nil), q...)
}

// Push appends a job.
func (q *Queue) Push(how JobFlags, what pool.Id) {
	*q = append(*q, Job{How: how, What: what})
}

var jobVerbs = map[JobFlags]string{
	JobNoop:         "do nothing",
	JobInstall:      "install",
	JobErase:        "delete",
	JobUpdate:       "update",
	JobLock:         "lock",
	JobVerify:       "verify",
	JobDistupgrade:  "distupgrade",
	JobMultiversion: "allow multiple versions of",
}

// JobString renders a job for problem and solution texts, for example
// "install A-1.0-1.x86_64" or "delete a package providing B".
func JobString(p *pool.Pool, job Job) string {
	verb, ok := jobVerbs[job.How.Type()]
	if !ok {
		verb = fmt.Sprintf("job 0x%x", uint32(job.How.Type()))
	}
	var target string
	switch job.How.Select() {
	case SelectSolvable:
		if s := p.Solvable(job.What); s != nil {
			target = s.String()
		}
	case SelectName:
		target = p.Dep2Str(job.What)
	case SelectProvides:
		target = "a package providing " + p.Dep2Str(job.What)
	case SelectAll:
		target = "all packages"
	}
	var hints []string
	if job.How.Has(FlagForceBest) {
		hints = append(hints, "best")
	}
	if job.How.Has(FlagCleanDeps) {
		hints = append(hints, "cleandeps")
	}
	if job.How.Has(FlagNoObsoletes) {
		hints = append(hints, "noobsoletes")
	}
	out := strings.TrimSpace(verb + " " + target)
	if len(hints) > 0 {
		out += " [" + strings.Join(hints, ",") + "]"
	}
	return out
}

// Flags are the per-solve policy switches.
type Flags uint32

const (
	// AllowUninstall lets the solver erase installed packages to resolve conflicts.
	AllowUninstall Flags = 1 << iota
	// ForceBest adds FlagForceBest to every job.
	ForceBest
	// WithoutRecommends ignores recommends.
	WithoutRecommends
	// AllowArchChange lets updates switch the package arch.
	AllowArchChange
	// AllowDowngrade lets updates move to a lower evr.
	AllowDowngrade
	// AllowVendorChange lets updates switch the package vendor.
	AllowVendorChange
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{AllowUninstall, "allow-uninstall"},
	{ForceBest, "force-best"},
	{WithoutRecommends, "without-recommends"},
	{AllowArchChange, "allow-archchange"},
	{AllowDowngrade, "allow-downgrade"},
	{AllowVendorChange, "allow-vendorchange"},
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseFlag maps a flag name such as "allow-uninstall" to its value.
func ParseFlag(name string) (Flags, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}
