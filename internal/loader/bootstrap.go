package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/discord-loader/internal/asar"
	"github.com/danieljhkim/discord-loader/internal/clock"
	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/session"
)

// ErrNoProfile means the handed-off session names no profile.
var ErrNoProfile = errors.New("session has no profile")

// Info is what user scripts learn about the launch.
type Info struct {
	Profile string
	Session session.Session
}

// InfoRegistry holds the launch info of the current loader process.
var InfoRegistry = session.NewCell[Info](nil)

// Options configures a Bootstrap.
type Options struct {
	// InvokerDir is the only location known before a session is loaded.
	InvokerDir string

	Runtime Runtime
	FS      fsops.FS
	Archive asar.Reader
	Clock   clock.Clock
	Logger  *log.Logger

	// Getenv and Unsetenv default to the process environment.
	Getenv   func(string) string
	Unsetenv func(string) error

	// Sessions and Info default to the process-wide registries.
	Sessions *session.Cell[session.Session]
	Info     *session.Cell[Info]
}

// Bootstrap boots the host application for one session.
type Bootstrap struct {
	opts   Options
	layout config.Layout
	store  *session.FileStore
	logger *log.Logger

	session  session.Session
	injector *Injector
}

// New creates a Bootstrap, filling unset options with process defaults.
func New(opts Options) *Bootstrap {
	if opts.FS == nil {
		opts.FS = fsops.NewRealFS()
	}
	if opts.Archive == nil {
		opts.Archive = asar.FileReader{}
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Unsetenv == nil {
		opts.Unsetenv = os.Unsetenv
	}
	if opts.Sessions == nil {
		opts.Sessions = session.Registry
	}
	if opts.Info == nil {
		opts.Info = InfoRegistry
	}

	layout := config.LayoutFromInvoker(opts.InvokerDir)
	return &Bootstrap{
		opts:   opts,
		layout: layout,
		store:  session.NewFileStore(opts.FS, layout.SessionFile, layout.LastSessionFile),
		logger: opts.Logger,
	}
}

// LoadSession finds the handed-off session: the environment variable first,
// then session.json, then lastsession.json. Every source is consumed. When
// the environment carries the session, session.json is deleted too so it
// cannot be replayed by a later relaunch.
func (b *Bootstrap) LoadSession() (session.Session, error) {
	if raw := b.opts.Getenv(session.EnvVar); raw != "" {
		s, err := session.Decode(raw)
		if err != nil {
			return session.Session{}, err
		}
		if err := b.opts.Unsetenv(session.EnvVar); err != nil {
			b.logger.Warn("failed to clear session variable", "err", err)
		}
		if _, err := b.store.Take(b.layout.SessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("failed to discard session file", "path", b.layout.SessionFile, "err", err)
		}
		b.logger.Debug("loaded session", "source", "env", "id", s.ID)
		return s, nil
	}

	for _, path := range []string{b.layout.SessionFile, b.layout.LastSessionFile} {
		s, err := b.store.Take(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return session.Session{}, err
		}
		b.logger.Debug("loaded session", "source", path, "id", s.ID)
		return s, nil
	}

	return session.Session{}, fmt.Errorf("%w: checked %s, %s and %s",
		session.ErrSessionHandoffMissing, session.EnvVar, b.layout.SessionFile, b.layout.LastSessionFile)
}

// Start loads the session and publishes it in the session registry.
func (b *Bootstrap) Start() (session.Session, error) {
	s, err := b.LoadSession()
	if err != nil {
		return session.Session{}, err
	}
	if !b.opts.Sessions.Initialize(s) {
		b.logger.Warn("session registry already initialized")
		s, _ = b.opts.Sessions.Acquire()
	}
	b.session = s
	return s, nil
}

// Run boots the application whose rewritten manifest is packageJSON:
// profile paths, info registry, resolver and user before script, the
// original app archive, then the injector and user after script.
func (b *Bootstrap) Run(ctx context.Context, packageJSON string) error {
	s := b.session
	if s.Profile == "" {
		return ErrNoProfile
	}
	rt := b.opts.Runtime

	archive := filepath.Join(filepath.Dir(filepath.Dir(packageJSON)), "app.asar")

	appData := s.ProfileDir()
	rt.SetPath(PathAppData, appData)
	rt.SetPath(PathUserData, filepath.Join(appData, b.packageName(archive)))
	rt.SetPath(PathTemp, filepath.Join(s.TempDir, s.Profile))
	rt.SetName(fmt.Sprintf("%s (%s)", rt.Name(), s.Profile))
	rt.SetAppPath(archive)

	b.opts.Info.Initialize(Info{Profile: s.Profile, Session: s})

	NewResolver(s, b.logger).Register(rt)
	if err := b.requireUser("before.js"); err != nil {
		return err
	}

	if err := rt.LoadApp(archive); err != nil {
		return fmt.Errorf("failed to load %s: %w", archive, err)
	}

	b.injector = NewInjector(rt, b.opts.Clock, filepath.Join(s.InvokerDir, "mainpage.js"), b.logger)
	b.injector.Start(ctx)

	return b.requireUser("after.js")
}

// Exit saves the session for a relaunch the host performs on its own.
func (b *Bootstrap) Exit() error {
	if b.session.Profile == "" {
		return nil
	}
	return b.store.SaveLast(b.session)
}

// Injector returns the running injector, or nil before Run.
func (b *Bootstrap) Injector() *Injector {
	return b.injector
}

func (b *Bootstrap) packageName(archive string) string {
	raw, err := b.opts.Archive.ExtractFile(archive, "package.json")
	if err != nil {
		b.logger.Warn("failed to read packaged manifest", "archive", archive, "err", err)
		return "app"
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &pkg); err != nil || pkg.Name == "" {
		return "app"
	}
	return pkg.Name
}

// requireUser loads a user hook script. A missing script is skipped.
func (b *Bootstrap) requireUser(name string) error {
	path := filepath.Join(b.session.UserDir, name)
	exists, err := b.opts.FS.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		b.logger.Debug("user script not present", "path", path)
		return nil
	}
	if err := b.opts.Runtime.Require(path); err != nil {
		return fmt.Errorf("failed to run %s: %w", path, err)
	}
	return nil
}
