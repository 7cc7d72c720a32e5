// Package engine provides the core logic for discord-loader operations.
//
// The engine is the orchestration layer between CLI commands and the lower
// level packages. It owns one host installation and coordinates the loader
// tree, the patching of every release, and the launch handoff.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Install/Update: Extracts the loader tree and patches every release
//   - Uninstall: Removes the loader tree and unpatches releases
//   - Launch: Validates the profile, claims the session and spawns the host
//   - Status: Reports install state, patch state and invoker drift
package engine

import (
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/discord-loader/internal/asar"
	"github.com/danieljhkim/discord-loader/internal/clock"
	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/hash"
	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/patcher"
	"github.com/danieljhkim/discord-loader/internal/resource"
	"github.com/danieljhkim/discord-loader/internal/session"
)

// Options are the dependencies of an Engine. Only HostDir and Provider are
// required; the rest default to the real implementations.
type Options struct {
	HostDir  string
	Provider resource.Provider
	Archive  asar.Reader
	FS       fsops.FS
	Hasher   hash.Hasher
	Clock    clock.Clock
	Spawner  Spawner
	Logger   *log.Logger

	// GOOS selects the launch target. Defaults to runtime.GOOS.
	GOOS string
}

// Engine orchestrates all discord-loader operations on one installation.
// It is the main API surface called by the CLI.
type Engine struct {
	install  *host.Installation
	layout   config.Layout
	provider resource.Provider
	archive  asar.Reader
	fs       fsops.FS
	hasher   hash.Hasher
	clock    clock.Clock
	spawner  Spawner
	sessions *session.FileStore
	logger   *log.Logger
	goos     string
}

// New validates the host directory and creates an Engine for it.
func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("engine requires a resource provider")
	}

	install, err := host.Open(opts.HostDir)
	if err != nil {
		return nil, err
	}

	if opts.Archive == nil {
		opts.Archive = asar.FileReader{}
	}
	if opts.FS == nil {
		opts.FS = fsops.NewRealFS()
	}
	if opts.Hasher == nil {
		opts.Hasher = hash.NewSHA256Hasher()
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Spawner == nil {
		opts.Spawner = &ExecSpawner{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}

	layout := config.NewLayout(install.Dir)
	return &Engine{
		install:  install,
		layout:   layout,
		provider: opts.Provider,
		archive:  opts.Archive,
		fs:       opts.FS,
		hasher:   opts.Hasher,
		clock:    opts.Clock,
		spawner:  opts.Spawner,
		sessions: session.NewFileStore(opts.FS, layout.SessionFile, layout.LastSessionFile),
		logger:   opts.Logger,
		goos:     opts.GOOS,
	}, nil
}

// Layout returns the loader layout of the installation.
func (e *Engine) Layout() config.Layout {
	return e.layout
}

// Installed reports whether the loader tree exists.
func (e *Engine) Installed() (bool, error) {
	exists, err := e.fs.Exists(e.layout.Loader)
	if err != nil {
		return false, fmt.Errorf("failed to check loader directory: %w", err)
	}
	return exists, nil
}

func (e *Engine) patcher() *patcher.Patcher {
	return patcher.New(e.provider, e.archive, e.fs, e.layout.Invoker, e.logger)
}

// releases re-reads the release list, picking up releases the host's
// updater added since the engine was created.
func (e *Engine) releases() ([]host.Release, error) {
	if err := e.install.Refresh(); err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	return e.install.Releases, nil
}
