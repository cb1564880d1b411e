// Package evr parses and orders epoch:version-release strings the way rpm does.
//
// Versions are split into maximal runs of digits or letters. Digit runs compare
// numerically with leading zeros ignored, letter runs compare ASCII-wise, and a
// digit run is always newer than a letter run. A '~' sorts before anything,
// including the end of the string, and a '^' sorts after the end of the string
// but before any other segment.
package evr

import (
	"strconv"
	"strings"
)

// EVR is a parsed epoch:version-release triple.
type EVR struct {
	Epoch   uint64
	Version string
	Release string

	hasEpoch bool
}

// Parse splits s into epoch, version and release. A leading run of digits
// followed by ':' is the epoch, everything after the last '-' is the release.
func Parse(s string) EVR {
	var e EVR
	if i := strings.IndexByte(s, ':'); i > 0 && isAllDigits(s[:i]) {
		e.Epoch, _ = strconv.ParseUint(s[:i], 10, 64)
		e.hasEpoch = true
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		e.Version = s[:i]
		e.Release = s[i+1:]
	} else {
		e.Version = s
	}
	return e
}

// String renders the triple, omitting an absent epoch and release.
func (e EVR) String() string {
	var b strings.Builder
	if e.hasEpoch || e.Epoch != 0 {
		b.WriteString(strconv.FormatUint(e.Epoch, 10))
		b.WriteByte(':')
	}
	b.WriteString(e.Version)
	if e.Release != "" {
		b.WriteByte('-')
		b.WriteString(e.Release)
	}
	return b.String()
}

// Compare orders two evr strings and returns -1, 0 or 1.
// A missing release is older than any release.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	return CompareEVR(Parse(a), Parse(b))
}

// CompareEVR orders two parsed triples. Missing epochs count as 0.
func CompareEVR(a, b EVR) int {
	if a.Epoch != b.Epoch {
		if a.Epoch < b.Epoch {
			return -1
		}
		return 1
	}
	if c := Vercmp(a.Version, b.Version); c != 0 {
		return c
	}
	switch {
	case a.Release == "" && b.Release == "":
		return 0
	case a.Release == "":
		return -1
	case b.Release == "":
		return 1
	}
	return Vercmp(a.Release, b.Release)
}

// Match compares two evrs for dependency matching. When either side omits
// the release, releases are not compared.
func Match(a, b string) int {
	if a == b {
		return 0
	}
	pa, pb := Parse(a), Parse(b)
	if pa.Release == "" || pb.Release == "" {
		pa.Release, pb.Release = "", ""
	}
	return CompareEVR(pa, pb)
}

// Vercmp compares two version or release strings segment by segment.
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' && a[i] != '^' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' && b[j] != '^' {
			j++
		}

		// tilde sorts before everything
		if (i < len(a) && a[i] == '~') || (j < len(b) && b[j] == '~') {
			if i >= len(a) || a[i] != '~' {
				return 1
			}
			if j >= len(b) || b[j] != '~' {
				return -1
			}
			i++
			j++
			continue
		}

		// caret sorts after the end but before any other segment
		if (i < len(a) && a[i] == '^') || (j < len(b) && b[j] == '^') {
			if i >= len(a) {
				return -1
			}
			if j >= len(b) {
				return 1
			}
			if a[i] != '^' {
				return 1
			}
			if b[j] != '^' {
				return -1
			}
			i++
			j++
			continue
		}

		if i >= len(a) || j >= len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}
		segA, segB := a[si:i], b[sj:j]

		// segments of different type: numeric is newer
		if segB == "" {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
	}

	switch {
	case i >= len(a) && j >= len(b):
		return 0
	case i < len(a):
		return 1
	default:
		return -1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
