// Package arch provides the static architecture table used to decide which
// packages a host can install.
package arch

// Family groups architectures that share an instruction set lineage.
type Family string

const (
	FamilyX86    Family = "x86"
	FamilyARM    Family = "arm"
	FamilyPower  Family = "power"
	FamilyS390   Family = "s390"
	FamilyRISCV  Family = "riscv"
	FamilyNoarch Family = "noarch"
	FamilySource Family = "source"
)

const (
	// Noarch packages run on every host.
	Noarch = "noarch"
	// Src and Nosrc mark source packages, which are never installable.
	Src    = "src"
	Nosrc  = "nosrc"

	X86_64 = "x86_64"
	Athlon = "athlon"
	I686   = "i686"
	I586   = "i586"
	I486   = "i486"
	I386   = "i386"

	Aarch64   = "aarch64"
	Armv7hl   = "armv7hl"
	Armv7l    = "armv7l"
	Armv6hl   = "armv6hl"
	Armv6l    = "armv6l"
	Armv5tejl = "armv5tejl"
	Armv5tel  = "armv5tel"

	Ppc64le = "ppc64le"
	Ppc64   = "ppc64"
	Ppc     = "ppc"
	S390x   = "s390x"
	S390    = "s390"
	Riscv64 = "riscv64"
)

// Info is one row of the arch table. Compatible lists, best first, the other
// architectures a host of this arch can run. The list is explicit and complete:
// no chaining through other rows takes place.
type Info struct {
	Name       string
	Family     Family
	Compatible []string
}

var table = map[string]Info{
	X86_64:    {X86_64, FamilyX86, []string{Athlon, I686, I586, I486, I386, Noarch}},
	Athlon:    {Athlon, FamilyX86, []string{I686, I586, I486, I386, Noarch}},
	I686:      {I686, FamilyX86, []string{I586, I486, I386, Noarch}},
	I586:      {I586, FamilyX86, []string{I486, I386, Noarch}},
	I486:      {I486, FamilyX86, []string{I386, Noarch}},
	I386:      {I386, FamilyX86, []string{Noarch}},
	Aarch64:   {Aarch64, FamilyARM, []string{Noarch}},
	Armv7hl:   {Armv7hl, FamilyARM, []string{Armv7l, Armv6l, Armv5tejl, Armv5tel, Noarch}},
	Armv7l:    {Armv7l, FamilyARM, []string{Armv6l, Armv5tejl, Armv5tel, Noarch}},
	Armv6hl:   {Armv6hl, FamilyARM, []string{Armv6l, Armv5tejl, Armv5tel, Noarch}},
	Armv6l:    {Armv6l, FamilyARM, []string{Armv5tejl, Armv5tel, Noarch}},
	Armv5tejl: {Armv5tejl, FamilyARM, []string{Armv5tel, Noarch}},
	Armv5tel:  {Armv5tel, FamilyARM, []string{Noarch}},
	Ppc64le:   {Ppc64le, FamilyPower, []string{Noarch}},
	Ppc64:     {Ppc64, FamilyPower, []string{Ppc, Noarch}},
	Ppc:       {Ppc, FamilyPower, []string{Noarch}},
	S390x:     {S390x, FamilyS390, []string{S390, Noarch}},
	S390:      {S390, FamilyS390, []string{Noarch}},
	Riscv64:   {Riscv64, FamilyRISCV, []string{Noarch}},
	Noarch:    {Noarch, FamilyNoarch, nil},
	Src:       {Src, FamilySource, nil},
	Nosrc:     {Nosrc, FamilySource, nil},
}

// goArchNames maps GOARCH values to their rpm names.
var goArchNames = map[string]string{
	"amd64":   X86_64,
	"386":     I686,
	"arm64":   Aarch64,
	"arm":     Armv7hl,
	"ppc64le": Ppc64le,
	"ppc64":   Ppc64,
	"s390x":   S390x,
	"riscv64": Riscv64,
}
