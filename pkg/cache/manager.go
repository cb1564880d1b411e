package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/fsutil"
)

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a new cache manager with default directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to get user cache directory")
	}

	if err := os.MkdirAll(cacheDir, fsutil.DirModePrivate); err != nil {
		return nil, errutils.ErrIOWithPath(cacheDir, err)
	}

	return NewManager(cacheDir), nil
}

// Contains reports whether the package file filename is in the cache. It
// lets transactions skip the download size of cached packages.
func (cm *DefaultManager) Contains(filename string) bool {
	if filename == "" || strings.ContainsAny(filename, `/\`) || cm.directory == "" {
		return false
	}
	info, err := os.Stat(cm.PackagePath(filename))
	return err == nil && info.Mode().IsRegular()
}

// PackagePath returns where the package file filename is cached.
func (cm *DefaultManager) PackagePath(filename string) string {
	return filepath.Join(cm.directory, PackagesDir, filename)
}

// RepodataPath returns where the converted metadata of repository name is kept.
func (cm *DefaultManager) RepodataPath(name string) string {
	return filepath.Join(cm.directory, RepodataDir, name+".solv")
}

// Clean removes cached files according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	// Default to cleaning all if no specific flags are set
	if !options.Repodata && !options.Packages {
		options.All = true
	}

	if options.All || options.Repodata {
		size, err := cleanDirectory(filepath.Join(cm.directory, RepodataDir))
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to clean repodata cache")
		}
		result.RepodataFreed = size
		result.TotalFreed += size
	}

	if options.All || options.Packages {
		size, err := cleanDirectory(filepath.Join(cm.directory, PackagesDir))
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to clean package cache")
		}
		result.PackageFreed = size
		result.TotalFreed += size
	}

	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}

	var err error
	info.RepodataSize, info.RepodataFiles, err = fsutil.DirSize(filepath.Join(cm.directory, RepodataDir))
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to get repodata cache info")
	}
	info.PackageSize, info.PackageFiles, err = fsutil.DirSize(filepath.Join(cm.directory, PackagesDir))
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to get package cache info")
	}
	info.TotalSize = info.RepodataSize + info.PackageSize

	if st, err := os.Stat(cm.directory); err == nil {
		info.LastModified = st.ModTime()
	}
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// cleanDirectory removes a directory, recreates it empty and returns the
// bytes freed.
func cleanDirectory(dir string) (int64, error) {
	size, _, err := fsutil.DirSize(dir)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, errutils.ErrIOWithPath(dir, err)
	}
	if err := os.MkdirAll(dir, fsutil.DirModePrivate); err != nil {
		return size, errutils.ErrIOWithPath(dir, err)
	}
	return size, nil
}

var _ Manager = (*DefaultManager)(nil)
