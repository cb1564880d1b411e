// Package errutils provides the error kinds shared by the solvent packages.
// It defines sentinel errors for each failure category, wrapping helpers that add
// context while keeping errors.Is working, and constructors for the most common
// detailed errors.
//
// The package includes:
// - Resolution core error kinds (caller misuse, selectors, architectures, solver faults)
// - Loader error kinds (invalid packages, solv file errors, I/O)
// - Testcase errors
// - Configuration and repository errors
// - Error wrapping utilities for adding context
package errutils

import (
	"fmt"
)

// Resolution core errors.
// Construction-time misuse is rejected synchronously and never leaves partial state behind.
var (
	// ErrOp is returned on caller misuse, such as an erase job with a relation target.
	ErrOp = fmt.Errorf("invalid operation")

	// ErrSelector is returned when a selector is ill-formed. It is raised by Set,
	// never deferred to solve time.
	ErrSelector = fmt.Errorf("invalid selector")

	// ErrArch is returned when an architecture name is not in the arch table.
	ErrArch = fmt.Errorf("unknown architecture")

	// ErrSolver is an internal fault of the constraint engine. It is distinct from
	// "no solution found", which is reported through problems.
	ErrSolver = fmt.Errorf("internal solver error")

	// ErrStaleProblem is returned when a problem is used after the solver that
	// produced it was run again.
	ErrStaleProblem = fmt.Errorf("problem belongs to an earlier solve")

	// ErrUnsolvable is returned by front ends when a solve reported problems.
	ErrUnsolvable = fmt.Errorf("request cannot be satisfied")

	// ErrUnknownSolvable is returned when an id does not name a solvable of the pool.
	ErrUnknownSolvable = fmt.Errorf("unknown solvable")

	// ErrInvalidRelation is returned when a relation string or triple is malformed.
	ErrInvalidRelation = fmt.Errorf("invalid relation")
)

// Loader errors are propagated unchanged to the caller.
var (
	// ErrPkgInvalid is returned when package metadata is incomplete or inconsistent.
	ErrPkgInvalid = fmt.Errorf("invalid package")

	// ErrSolvNotSolv is returned when a file is not a solv file.
	ErrSolvNotSolv = fmt.Errorf("not a solv file")

	// ErrSolvUnsupported is returned for solv files written by an incompatible format version.
	ErrSolvUnsupported = fmt.Errorf("unsupported solv file version")

	// ErrSolvCorrupted is returned when a solv file fails its checksum or cannot be decoded.
	ErrSolvCorrupted = fmt.Errorf("corrupted solv file")

	// ErrIO is returned when reading or writing package metadata fails.
	ErrIO = fmt.Errorf("i/o error")
)

// Testcase errors.
var (
	// ErrTestcase is returned when a testcase file is malformed.
	ErrTestcase = fmt.Errorf("invalid testcase")

	// ErrTestcaseFailed is returned when a solve does not produce the expected result.
	ErrTestcaseFailed = fmt.Errorf("testcase result mismatch")
)

// Config errors are related to configuration file operations and validation.
var (
	ErrEmptyConfigPath = fmt.Errorf(
		"config file path cannot be empty") // When config file path is empty

	ErrConfigParse = fmt.Errorf(
		"failed to parse config") // When config file cannot be parsed

	// ErrConfigValidation is returned when configuration values fail validation.
	ErrConfigValidation = fmt.Errorf(
		"invalid configuration")

	ErrConfigDirectory = fmt.Errorf(
		"failed to create config directory") // When config dir cannot be created

	// ErrConfigMarshal is returned when marshaling the config to YAML fails.
	ErrConfigMarshal = fmt.Errorf("failed to marshal config to YAML")

	// ErrConfigFileExists is returned by config init when the file is already there.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists")

	// ErrInvalidOutputFormat is returned when an invalid output format is specified.
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrInvalidBoolValue is returned when an invalid boolean value is provided in the configuration.
	ErrInvalidBoolValue = fmt.Errorf("invalid boolean value")

	// ErrUnknownConfigKey is returned when an unknown configuration key is encountered.
	ErrUnknownConfigKey = fmt.Errorf("unknown configuration key")
)

// Repository errors are related to repository configuration.
var (
	// ErrEmptyRepositoryName is returned when a repository configuration is missing a name.
	ErrEmptyRepositoryName = fmt.Errorf("repository name cannot be empty")

	// ErrRepositoryPathEmpty is returned when a repository configuration is missing a path.
	ErrRepositoryPathEmpty = fmt.Errorf("repository path cannot be empty")

	// ErrRepositoryExists is returned when two repositories share a name.
	ErrRepositoryExists = fmt.Errorf("repository already exists")

	// ErrRepositoryNotFound is returned when a repository with the given name is not found.
	ErrRepositoryNotFound = fmt.Errorf("repository not found")

	// ErrNoRepositories is returned when no repositories are configured
	// and an operation requires at least one.
	ErrNoRepositories = fmt.Errorf("no repositories configured")
)

// Wrap wraps an error with additional context.
// This is useful for adding context to errors as they propagate up the call stack.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := repo.Read(r); err != nil {
//	    return errutils.Wrap(err, "failed to load repository")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrOpWithDetails creates an ErrOp error describing the rejected call.
func ErrOpWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrOp, fmt.Sprintf(format, args...))
}

// ErrSelectorWithDetails creates an ErrSelector error describing the rejected filter.
func ErrSelectorWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSelector, fmt.Sprintf(format, args...))
}

// ErrArchWithName creates an ErrArch error for the given architecture name.
func ErrArchWithName(name string) error {
	return fmt.Errorf("%w: %q", ErrArch, name)
}

// ErrSolverWithDetails creates an ErrSolver error.
func ErrSolverWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSolver, fmt.Sprintf(format, args...))
}

// ErrSolvCorruptedWithDetails creates an ErrSolvCorrupted error.
func ErrSolvCorruptedWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSolvCorrupted, fmt.Sprintf(format, args...))
}

// ErrPkgInvalidWithDetails creates an ErrPkgInvalid error.
func ErrPkgInvalidWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPkgInvalid, fmt.Sprintf(format, args...))
}

// ErrTestcaseWithDetails creates an ErrTestcase error.
func ErrTestcaseWithDetails(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTestcase, fmt.Sprintf(format, args...))
}

// ErrIOWithPath wraps an I/O failure on path as ErrIO while keeping the cause.
func ErrIOWithPath(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, path, cause)
}

// ErrEmptyRepositoryNameWithIndex is a helper to create a wrapped error with the repository index.
func ErrEmptyRepositoryNameWithIndex(i int) error {
	return fmt.Errorf("repository %d: %w", i, ErrEmptyRepositoryName)
}

// ErrRepositoryPathEmptyWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryPathEmptyWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryPathEmpty)
}

// ErrRepositoryExistsWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryExistsWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryExists)
}

// ErrRepositoryNotFoundWithName creates an error for when a repository with the given name is not found.
func ErrRepositoryNotFoundWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: json, text, yaml", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}
