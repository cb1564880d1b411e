// Package pool holds the package universe: interned strings and relations,
// the solvable arena, repositories and the lookup indices built by Prepare.
//
// The pool exclusively owns every Solvable. Repos only record which ids belong
// to them. Pool mutation, Prepare and queries must be serialized by the caller.
package pool

// Id is an interned string, relation or solvable id. String and relation ids
// share one id space; relation ids carry relFlag.
type Id int32

const (
	// IdNull is the zero id, it never names a string, relation or solvable.
	IdNull Id = 0
	// IdEmpty is the interned empty string.
	IdEmpty Id = 1

	// SystemSolvable is the always installed pseudo package that provides
	// dependencies satisfied by the package manager itself.
	SystemSolvable Id = 1

	firstSolvable Id = 2

	relFlag Id = 1 << 30
)

// IsRelation reports whether id names a versioned or arch relation rather than a plain string.
func (id Id) IsRelation() bool {
	return id&relFlag != 0
}

// DepKind selects one of the six dependency lists of a solvable.
type DepKind int

const (
	DepProvides DepKind = iota
	DepRequires
	DepConflicts
	DepObsoletes
	DepRecommends
	DepSuggests

	numDepKinds
)

// DepKinds lists every dependency kind in storage order.
var DepKinds = []DepKind{DepProvides, DepRequires, DepConflicts, DepObsoletes, DepRecommends, DepSuggests}

var depKindNames = [...]string{"provides", "requires", "conflicts", "obsoletes", "recommends", "suggests"}

func (k DepKind) String() string {
	if k < 0 || k >= numDepKinds {
		return "unknown"
	}
	return depKindNames[k]
}

// ParseDepKind maps a name such as "requires" to its DepKind.
func ParseDepKind(name string) (DepKind, bool) {
	for i, n := range depKindNames {
		if n == name {
			return DepKind(i), true
		}
	}
	return 0, false
}
