//go:generate mockgen -destination=./mocks/orchestrator.go . Executor,Fetcher

package orchestrator

import (
	"context"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// Package describes the solvable a step acts on.
type Package struct {
	ID           pool.Id
	Name         string
	EVR          string
	Arch         string
	Repo         string
	Location     string
	Checksum     string
	DownloadSize uint64
}

// String renders the package as name-evr.arch.
func (p Package) String() string {
	out := p.Name
	if p.EVR != "" {
		out += "-" + p.EVR
	}
	if p.Arch != "" {
		out += "." + p.Arch
	}
	return out
}

// Executor applies single steps to the system.
type Executor interface {
	Install(ctx context.Context, pkg Package) error
	// Replace installs pkg in place of the installed packages in old. It is
	// used for upgrades, downgrades and installs that obsolete something.
	Replace(ctx context.Context, pkg Package, old []Package) error
	Erase(ctx context.Context, pkg Package) error
}

// Fetcher makes package files available before the first step runs.
type Fetcher interface {
	FetchAll(ctx context.Context, pkgs []Package, dir string) error
}

// Orchestrator walks a transaction in order through an Executor.
type Orchestrator struct {
	Exec  Executor
	Fetch Fetcher
	Hooks Hooks // Hooks for progress and event notifications
}

// Phase names an orchestrator event.
type Phase string

const (
	PhasePlanning    Phase = "planning"
	PhaseDownloading Phase = "downloading"
	PhaseInstalling  Phase = "installing"
	PhaseErasing     Phase = "erasing"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
)

// Event represents a simple progress notification.
type Event struct {
	Phase Phase
	ID    string // package name-evr.arch
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control orchestrator execution.
type Options struct {
	CacheDir string
	DryRun   bool
}
