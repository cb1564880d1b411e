package pool

import (
	"path"
	"regexp"
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
)

// MatchFlags select how Search compares values.
type MatchFlags int

const (
	// MatchExact requires the whole value to equal the pattern.
	MatchExact MatchFlags = 1 << iota
	// MatchSubstring matches anywhere in the value. It is the default.
	MatchSubstring
	// MatchGlob uses shell glob syntax.
	MatchGlob
	// MatchRegex uses Go regular expressions.
	MatchRegex
	// MatchNoCase folds case before matching.
	MatchNoCase
	// SearchFiles matches against file lists instead of attributes.
	SearchFiles
)

type matcher func(string) bool

func newMatcher(pattern string, flags MatchFlags) (matcher, error) {
	nocase := flags&MatchNoCase != 0
	if nocase {
		pattern = strings.ToLower(pattern)
	}
	fold := func(s string) string {
		if nocase {
			return strings.ToLower(s)
		}
		return s
	}

	switch {
	case flags&MatchRegex != 0:
		if nocase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errutils.Wrapf(errutils.ErrOp, "bad search pattern %q: %v", pattern, err)
		}
		return re.MatchString, nil
	case flags&MatchGlob != 0:
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, errutils.Wrapf(errutils.ErrOp, "bad search pattern %q: %v", pattern, err)
		}
		return func(s string) bool {
			ok, _ := path.Match(pattern, fold(s))
			return ok
		}, nil
	case flags&MatchExact != 0:
		return func(s string) bool { return fold(s) == pattern }, nil
	default:
		return func(s string) bool { return strings.Contains(fold(s), pattern) }, nil
	}
}

// Search returns the solvables of enabled repositories with an attribute
// matching pattern. key restricts the search to one attribute; KeyNone searches
// every string attribute. With SearchFiles the file lists are searched.
func (p *Pool) Search(pattern string, flags MatchFlags, key Key) ([]*Solvable, error) {
	match, err := newMatcher(pattern, flags)
	if err != nil {
		return nil, err
	}
	p.Prepare()

	keys := StringKeys
	if key != KeyNone {
		keys = []Key{key}
	}

	var out []*Solvable
	for _, id := range p.ConsideredSolvables() {
		s := p.solvables[id]
		if flags&SearchFiles != 0 {
			for _, f := range s.attrs.files {
				if match(f) {
					out = append(out, s)
					break
				}
			}
			continue
		}
		for _, k := range keys {
			if v := s.LookupStr(k); v != "" && match(v) {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}
