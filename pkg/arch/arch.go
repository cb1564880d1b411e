package arch

import (
	"runtime"
	"sort"
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
)

// Lookup returns the table row for name.
func Lookup(name string) (Info, bool) {
	info, ok := table[name]
	return info, ok
}

// Known reports whether name is in the arch table.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns every architecture in the table, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCompatible reports whether a host of arch host can run packages built for
// candidate. The relation is neither symmetric nor transitive beyond the table.
func IsCompatible(host, candidate string) bool {
	if host == candidate {
		return true
	}
	info, ok := table[host]
	if !ok {
		return false
	}
	for _, c := range info.Compatible {
		if c == candidate {
			return true
		}
	}
	return false
}

// Score ranks candidate for host: 0 for the host arch itself, increasing along
// the compatibility list. ok is false when the host cannot run candidate.
func Score(host, candidate string) (score int, ok bool) {
	if host == candidate {
		return 0, true
	}
	info, found := table[host]
	if !found {
		return 0, false
	}
	for i, c := range info.Compatible {
		if c == candidate {
			return i + 1, true
		}
	}
	return 0, false
}

// IsSource reports whether name denotes a source package arch.
func IsSource(name string) bool {
	return name == Src || name == Nosrc
}

// NormalizeArch maps Go architecture names to rpm names. Names that are already
// rpm names, or unknown to both tables, are returned lower-cased and unchanged.
func NormalizeArch(name string) string {
	name = strings.ToLower(name)
	if rpm, ok := goArchNames[name]; ok {
		return rpm
	}
	return name
}

// HostInfo describes the machine packages are resolved for.
// It is passed explicitly to the pool instead of being cached globally.
type HostInfo struct {
	Arch string `yaml:"arch" json:"arch"`
	OS   string `yaml:"os" json:"os"`
}

// DetectHost builds a HostInfo for the running process.
func DetectHost() HostInfo {
	goos := runtime.GOOS
	if goos == "" {
		goos = "unknown"
	}
	return HostInfo{
		Arch: NormalizeArch(runtime.GOARCH),
		OS:   goos,
	}
}

// NewHostInfo validates name against the arch table.
func NewHostInfo(name string) (HostInfo, error) {
	name = NormalizeArch(name)
	info, ok := table[name]
	if !ok || info.Family == FamilySource || info.Family == FamilyNoarch {
		return HostInfo{}, errutils.ErrArchWithName(name)
	}
	return HostInfo{Arch: name, OS: runtime.GOOS}, nil
}

// NativeArch returns the host architecture.
func (h HostInfo) NativeArch() string {
	return h.Arch
}

// SupportedByHost reports whether packages of arch name can be installed on h.
// Source arches are never installable.
func (h HostInfo) SupportedByHost(name string) bool {
	if IsSource(name) {
		return false
	}
	return IsCompatible(h.Arch, name)
}

// Score ranks name for this host, see Score.
func (h HostInfo) Score(name string) (int, bool) {
	if IsSource(name) {
		return 0, false
	}
	return Score(h.Arch, name)
}

// Family returns the family of the host arch, or "" if the arch is unknown.
func (h HostInfo) Family() Family {
	return table[h.Arch].Family
}
