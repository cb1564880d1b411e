package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/glorpus-work/solvent/internal/logger"
)

// Operation renders cache management results for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{
		manager: manager,
	}
}

// Clean cleans the cache based on the provided options.
func (op *Operation) Clean(all, repodata, packages bool) (string, error) {
	options := CleanOptions{
		All:      all,
		Repodata: repodata,
		Packages: packages,
	}

	logger.Debug("Cleaning cache", logger.Fields{
		"all":      options.All,
		"repodata": options.Repodata,
		"packages": options.Packages,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.TotalFreed == 0 {
		return "No files were removed from the cache.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully cleaned cache. Freed %s of disk space.", units.BytesSize(float64(result.TotalFreed)))
	if result.RepodataFreed > 0 {
		fmt.Fprintf(&b, "\n- Repodata: %s", units.BytesSize(float64(result.RepodataFreed)))
	}
	if result.PackageFreed > 0 {
		fmt.Fprintf(&b, "\n- Packages: %s", units.BytesSize(float64(result.PackageFreed)))
	}
	return b.String(), nil
}

// GetInfo returns information about the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	modified := "never"
	if !info.LastModified.IsZero() {
		modified = units.HumanDuration(time.Since(info.LastModified)) + " ago"
	}

	return fmt.Sprintf(`Cache Information:
  Directory:     %s
  Total Size:    %s
  Repodata:      %s (%d files)
  Packages:      %s (%d files)
  Last Modified: %s`,
		info.Directory,
		units.BytesSize(float64(info.TotalSize)),
		units.BytesSize(float64(info.RepodataSize)),
		info.RepodataFiles,
		units.BytesSize(float64(info.PackageSize)),
		info.PackageFiles,
		modified,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}
