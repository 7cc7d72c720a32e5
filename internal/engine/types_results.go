package engine

import (
	"github.com/opencontainers/go-digest"

	"github.com/danieljhkim/discord-loader/internal/patcher"
	"github.com/danieljhkim/discord-loader/internal/session"
)

// InstallResult represents the result of install or update.
type InstallResult struct {
	// Mode is "install" or "update"
	Mode string

	// Patched lists the releases that were patched
	Patched []patcher.Result

	// Skipped lists releases without an app archive
	Skipped []string
}

// UninstallResult represents the result of uninstall.
type UninstallResult struct {
	// Removed is the list of loader directories that were removed
	Removed []string

	// Unpatched lists the releases that were restored
	Unpatched []string

	// Skipped lists releases that were not patched
	Skipped []string
}

// LaunchResult represents a started host process.
type LaunchResult struct {
	// Session is the session handed to the process
	Session session.Session

	// Command is what was spawned
	Command Command

	// Process is the running host process; waiting on it is the caller's job
	Process Process
}

// StatusResult represents the state of the installation.
type StatusResult struct {
	// HostDir is the host installation root
	HostDir string

	// Installed indicates whether the loader tree exists
	Installed bool

	// Releases lists every release, newest first
	Releases []ReleaseStatus

	// Latest is the newest release name, empty if there is none
	Latest string

	// Profiles lists the profile directories that exist
	Profiles []string

	// Drift lists invoker files that differ from the packaged resources
	Drift []DriftEntry

	// PendingSession is set while session.json exists
	PendingSession *session.Session
}

// ReleaseStatus describes one release.
type ReleaseStatus struct {
	Name    string
	Version string
	State   patcher.State
}

// DriftEntry describes one invoker file that differs from its resource.
type DriftEntry struct {
	// File is the path relative to the invoker directory
	File string

	Expected digest.Digest

	// Actual is empty when the file is missing
	Actual digest.Digest
}

// Missing reports whether the installed file is absent.
func (d DriftEntry) Missing() bool {
	return d.Actual == ""
}
