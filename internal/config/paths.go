// Package config manages discord-loader configuration and filesystem paths.
//
// Two kinds of configuration live here: the Layout of the loader tree that is
// installed next to the host application (derived purely from the host
// directory), and the user Settings (appdir, profile, debug, ...) resolved by
// viper from flags, DLOADER_* environment variables and an optional TOML file.
package config

import (
	"path/filepath"
)

const (
	loaderDirName   = "loader"
	invokerDirName  = "invoker"
	userDirName     = "user"
	profilesDirName = "profiles"
	tempDirName     = "temp"

	sessionFileName     = "session.json"
	lastSessionFileName = "lastsession.json"
)

// Layout contains every path of the loader tree under a host installation.
type Layout struct {
	// HostDir is the host application's installation root.
	HostDir string

	// Loader is <host>/loader, the root of everything discord-loader owns.
	Loader string

	// Invoker holds the core loader scripts, refreshed on every update.
	Invoker string

	// User holds user customization, written once and never overwritten.
	User string

	// Profiles is the per-profile app data root.
	Profiles string

	// Temp is scratch space for the session handoff.
	Temp string

	// SessionFile is written at launch and consumed by the loader process.
	SessionFile string

	// LastSessionFile is written on clean exit so a host self-relaunch can
	// recover the session.
	LastSessionFile string
}

// NewLayout derives the loader layout from the host directory.
func NewLayout(hostDir string) Layout {
	hostDir = filepath.Clean(hostDir)
	loader := filepath.Join(hostDir, loaderDirName)
	temp := filepath.Join(loader, tempDirName)

	return Layout{
		HostDir:         hostDir,
		Loader:          loader,
		Invoker:         filepath.Join(loader, invokerDirName),
		User:            filepath.Join(loader, userDirName),
		Profiles:        filepath.Join(loader, profilesDirName),
		Temp:            temp,
		SessionFile:     filepath.Join(temp, sessionFileName),
		LastSessionFile: filepath.Join(temp, lastSessionFileName),
	}
}

// LayoutFromInvoker recovers the layout from the invoker directory, which is
// the only location the loader process knows before a session is loaded.
func LayoutFromInvoker(invokerDir string) Layout {
	return NewLayout(filepath.Dir(filepath.Dir(filepath.Clean(invokerDir))))
}

// ProfileDir returns the app data directory of one profile.
func (l Layout) ProfileDir(profile string) string {
	return filepath.Join(l.Profiles, profile)
}
