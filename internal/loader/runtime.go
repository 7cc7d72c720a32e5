// Package loader bootstraps the host application inside a patched release.
//
// The GUI runtime is reached only through the Runtime and Window interfaces,
// so everything the loader decides (which session to boot, where profile data
// lives, how l-data:// URLs map to files, when to inject the main page
// script) is plain Go that runs the same against a fake runtime in tests.
package loader

// PathKind names a runtime path override.
type PathKind string

const (
	PathAppData  PathKind = "appData"
	PathUserData PathKind = "userData"
	PathTemp     PathKind = "temp"
)

// FileHandler maps a request URL to a file the runtime serves.
type FileHandler func(url string) (string, error)

// RedirectHandler maps a request URL to the URL the runtime fetches instead.
type RedirectHandler func(url string) (string, error)

// Runtime is the GUI runtime hosting the application.
type Runtime interface {
	// OnReady registers fn to run once the runtime finished bootstrapping.
	OnReady(fn func())

	// RegisterStandardScheme must be called before ready so relative
	// requests under the scheme resolve like http URLs.
	RegisterStandardScheme(scheme string)

	RegisterFileProtocol(scheme string, handler FileHandler) error
	RegisterRedirectProtocol(scheme string, handler RedirectHandler) error

	// Windows lists every open window.
	Windows() []Window

	SetPath(kind PathKind, path string)
	Name() string
	SetName(name string)
	SetAppPath(path string)

	// Require loads a script module from disk.
	Require(path string) error

	// LoadApp boots the packaged application archive.
	LoadApp(archive string) error
}

// NavigationEvents is implemented by runtimes that report navigations.
// The injector prefers it to polling.
type NavigationEvents interface {
	OnNavigated(fn func(w Window, url string))
}

// Window is one open browser window.
type Window interface {
	// ID is stable for the lifetime of the window.
	ID() int
	URL() string

	// ExecuteScript asks the window to run script. It may return before the
	// script has run.
	ExecuteScript(script string) error
}
