package errutils

import (
	"errors"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			msg:      "additional context",
			expected: "additional context: original error",
		},
		{
			name:     "wrap with empty message",
			err:      errors.New("original error"),
			msg:      "",
			expected: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrSolvCorrupted, "repository %s", "base")
	if !errors.Is(err, ErrSolvCorrupted) {
		t.Fatalf("Expected errors.Is to match ErrSolvCorrupted")
	}
	if err.Error() != "repository base: corrupted solv file" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if Wrapf(nil, "ignored %d", 1) != nil {
		t.Errorf("Expected nil for nil error")
	}
}

func TestDetailedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     error
		contains string
	}{
		{"op", ErrOpWithDetails("erase of relation %q", "foo"), ErrOp, `erase of relation "foo"`},
		{"selector", ErrSelectorWithDetails("name and provides"), ErrSelector, "name and provides"},
		{"arch", ErrArchWithName("sparc"), ErrArch, `"sparc"`},
		{"solver", ErrSolverWithDetails("rule %d", 4), ErrSolver, "rule 4"},
		{"corrupted", ErrSolvCorruptedWithDetails("bad checksum"), ErrSolvCorrupted, "bad checksum"},
		{"pkg", ErrPkgInvalidWithDetails("missing name"), ErrPkgInvalid, "missing name"},
		{"repo exists", ErrRepositoryExistsWithName("base"), ErrRepositoryExists, "'base'"},
		{"repo path", ErrRepositoryPathEmptyWithName("base"), ErrRepositoryPathEmpty, "'base'"},
		{"repo index", ErrEmptyRepositoryNameWithIndex(2), ErrEmptyRepositoryName, "repository 2"},
		{"repo missing", ErrRepositoryNotFoundWithName("x"), ErrRepositoryNotFound, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("Expected %v to match its kind", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Expected %q to contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestErrIOWithPath(t *testing.T) {
	cause := errors.New("permission denied")
	err := ErrIOWithPath("/var/cache/base.solv", cause)
	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected cause to be kept")
	}
}
