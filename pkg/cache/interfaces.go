// Package cache manages the local cache directory: downloaded package files
// under packages/ and converted repository metadata under repodata/.
package cache

import (
	"errors"
	"time"
)

// ErrCacheDirectory is returned when the cache directory is not usable.
var ErrCacheDirectory = errors.New("invalid cache directory")

// Subdirectories of the cache directory.
const (
	PackagesDir = "packages"
	RepodataDir = "repodata"
)

// Manager defines the interface for cache management operations.
type Manager interface {
	Contains(filename string) bool
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the cache.
type CleanOptions struct {
	All      bool
	Repodata bool
	Packages bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed    int64
	RepodataFreed int64
	PackageFreed  int64
}

// Info represents cache information.
type Info struct {
	Directory     string
	TotalSize     int64
	RepodataSize  int64
	RepodataFiles int
	PackageSize   int64
	PackageFiles  int
	LastModified  time.Time
}
