package loader

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/session"
)

const (
	// Scheme is the virtual resource scheme used by injected code.
	Scheme = "l-data"

	// InternalScheme serves the resolved files.
	InternalScheme = Scheme + "-int"

	// ProfilePlaceholder is replaced with the session's profile.
	ProfilePlaceholder = "~PROFILE~"

	HostUser    = "user"
	HostInvoker = "invoker"
)

// ErrResolveFailed means a virtual resource request maps to no file.
var ErrResolveFailed = errors.New("virtual resource not found")

var (
	schemePrefix = regexp.MustCompile(`^[^:]+:[./\\]*`)
	hostAndFile  = regexp.MustCompile(`^(.*?)(?:/(.*))?$`)
)

// Request is a parsed virtual resource request.
type Request struct {
	Host string
	File string
}

// Resolver maps l-data:// requests to files under the user and invoker
// directories of one session.
type Resolver struct {
	profile string
	dirs    map[string]string
	logger  *log.Logger
}

// NewResolver creates a resolver for the session's directories.
func NewResolver(s session.Session, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		profile: s.Profile,
		dirs: map[string]string{
			HostUser:    s.UserDir,
			HostInvoker: s.InvokerDir,
		},
		logger: logger,
	}
}

// Parse splits a request URL into host and file. The scheme, leading
// separators, query and fragment are dropped. The profile placeholder is
// substituted into the decoded file, so the profile name is never unescaped.
func (r *Resolver) Parse(rawURL string) (Request, error) {
	rest := schemePrefix.ReplaceAllString(rawURL, "")
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	m := hostAndFile.FindStringSubmatch(rest)
	if m == nil || m[1] == "" || m[2] == "" {
		return Request{}, fmt.Errorf("%w: %s", ErrResolveFailed, rawURL)
	}
	if _, ok := r.dirs[m[1]]; !ok {
		return Request{}, fmt.Errorf("%w: unknown host %q in %s", ErrResolveFailed, m[1], rawURL)
	}

	file, err := url.PathUnescape(m[2])
	if err != nil {
		return Request{}, fmt.Errorf("%w: %s: %v", ErrResolveFailed, rawURL, err)
	}

	file = strings.ReplaceAll(file, ProfilePlaceholder, r.profile)

	return Request{Host: m[1], File: file}, nil
}

// ResolveRequest redirects an l-data:// request to the internal scheme.
func (r *Resolver) ResolveRequest(rawURL string) (string, error) {
	req, err := r.Parse(rawURL)
	if err != nil {
		return "", err
	}
	escaped := (&url.URL{Path: req.File}).EscapedPath()
	return InternalScheme + "://" + req.Host + "/" + escaped, nil
}

// ResolveFile maps an internal request to a path inside the host's directory.
// Requests that would leave that directory fail.
func (r *Resolver) ResolveFile(rawURL string) (string, error) {
	req, err := r.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if err := fsops.ValidateRelPath(req.File); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}
	return filepath.Join(r.dirs[req.Host], filepath.FromSlash(req.File)), nil
}

// Resolve runs both steps a runtime performs for one request.
func (r *Resolver) Resolve(rawURL string) (string, error) {
	internal, err := r.ResolveRequest(rawURL)
	if err != nil {
		return "", err
	}
	return r.ResolveFile(internal)
}

// Register installs the scheme. The scheme must be declared before the
// runtime is ready; the protocol handlers are registered once it is.
func (r *Resolver) Register(rt Runtime) {
	rt.RegisterStandardScheme(Scheme)

	rt.OnReady(func() {
		if err := rt.RegisterFileProtocol(InternalScheme, r.logged(r.ResolveFile)); err != nil {
			r.logger.Error("failed to register protocol", "scheme", InternalScheme, "err", err)
		}
		if err := rt.RegisterRedirectProtocol(Scheme, r.logged(r.ResolveRequest)); err != nil {
			r.logger.Error("failed to register protocol", "scheme", Scheme, "err", err)
		}
	})
}

func (r *Resolver) logged(fn func(string) (string, error)) func(string) (string, error) {
	return func(rawURL string) (string, error) {
		out, err := fn(rawURL)
		if err != nil {
			r.logger.Warn("unresolved request", "url", rawURL, "err", err)
			return "", err
		}
		r.logger.Debug("resolved request", "url", rawURL, "to", out)
		return out, nil
	}
}
