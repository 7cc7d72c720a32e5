package engine

// UninstallRequest represents a request to remove the loader.
type UninstallRequest struct {
	// KeepUser keeps loader/user (user customization)
	KeepUser bool

	// KeepProfiles keeps loader/profiles (per-profile app data)
	KeepProfiles bool
}

// LaunchRequest represents a request to launch the host application.
type LaunchRequest struct {
	// Profile is the profile to boot into
	Profile string

	// Debug launches the latest release directly instead of through the updater
	Debug bool
}
