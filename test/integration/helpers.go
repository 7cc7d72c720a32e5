package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/asar"
	"github.com/danieljhkim/discord-loader/internal/clock"
	"github.com/danieljhkim/discord-loader/internal/engine"
	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/loader"
	"github.com/danieljhkim/discord-loader/internal/resource"
	"github.com/danieljhkim/discord-loader/internal/session"
)

const packagedManifest = `{"name":"discord","main":"app_bootstrap/index.js","version":"1.0.0"}`

// newHost builds a Discord installation with one patchable release per name.
func newHost(t *testing.T, releases ...string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.IconMarker), []byte("ico"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, host.PackagesMarker), 0755))
	for _, name := range releases {
		addRelease(t, dir, name)
	}
	return dir
}

func addRelease(t *testing.T, hostDir, name string) string {
	t.Helper()

	resources := filepath.Join(hostDir, name, "resources")
	require.NoError(t, os.MkdirAll(resources, 0755))
	data, err := asar.Pack(map[string][]byte{
		"package.json":           []byte(packagedManifest),
		"app_bootstrap/index.js": []byte("// bootstrap"),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(resources, "app.asar"), data, 0644))
	return filepath.Join(hostDir, name)
}

// recordingSpawner stands in for the host process.
type recordingSpawner struct {
	mu       sync.Mutex
	commands []engine.Command
}

type exitedProcess struct{ code int }

func (p *exitedProcess) Pid() int           { return 1234 }
func (p *exitedProcess) Wait() (int, error) { return p.code, nil }

func (s *recordingSpawner) Spawn(ctx context.Context, cmd engine.Command) (engine.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return &exitedProcess{}, nil
}

func (s *recordingSpawner) last(t *testing.T) engine.Command {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.commands)
	return s.commands[len(s.commands)-1]
}

func newEngine(t *testing.T, hostDir string, spawner engine.Spawner) *engine.Engine {
	t.Helper()

	fs := fsops.NewRealFS()
	provider, err := resource.NewEmbeddedProvider(fs)
	require.NoError(t, err)

	eng, err := engine.New(engine.Options{
		HostDir:  hostDir,
		Provider: provider,
		FS:       fs,
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)),
		Spawner:  spawner,
		GOOS:     "windows",
	})
	require.NoError(t, err)
	return eng
}

// envLookup returns a Getenv over a spawned command's environment, with
// unset support so the loader can clear the handoff variable.
func envLookup(env []string) (func(string) string, func(string) error) {
	vars := map[string]string{}
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	var mu sync.Mutex
	get := func(k string) string {
		mu.Lock()
		defer mu.Unlock()
		return vars[k]
	}
	unset := func(k string) error {
		mu.Lock()
		defer mu.Unlock()
		delete(vars, k)
		return nil
	}
	return get, unset
}

// bootLoader starts a loader process for the release the host would run.
func bootLoader(t *testing.T, invokerDir string, env []string, rt loader.Runtime) *loader.Bootstrap {
	t.Helper()

	getenv, unsetenv := envLookup(env)
	return loader.New(loader.Options{
		InvokerDir: invokerDir,
		Runtime:    rt,
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 1, 0, time.UTC)),
		Getenv:     getenv,
		Unsetenv:   unsetenv,
		Sessions:   session.NewCell[session.Session](nil),
		Info:       session.NewCell[loader.Info](nil),
	})
}

type window struct {
	mu      sync.Mutex
	id      int
	url     string
	scripts []string
}

func (w *window) ID() int { return w.id }

func (w *window) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *window) ExecuteScript(script string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scripts = append(w.scripts, script)
	return nil
}

func (w *window) executed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.scripts...)
}

// hostRuntime records what the loader asks of the GUI runtime.
type hostRuntime struct {
	mu        sync.Mutex
	name      string
	ready     []func()
	files     map[string]loader.FileHandler
	redirects map[string]loader.RedirectHandler
	windows   []loader.Window
	paths     map[loader.PathKind]string
	required  []string
	loaded    []string
}

func newHostRuntime() *hostRuntime {
	return &hostRuntime{
		name:      "Discord",
		files:     map[string]loader.FileHandler{},
		redirects: map[string]loader.RedirectHandler{},
		paths:     map[loader.PathKind]string{},
	}
}

func (r *hostRuntime) OnReady(fn func())                   { r.ready = append(r.ready, fn) }
func (r *hostRuntime) RegisterStandardScheme(scheme string) {}

func (r *hostRuntime) RegisterFileProtocol(scheme string, h loader.FileHandler) error {
	r.files[scheme] = h
	return nil
}

func (r *hostRuntime) RegisterRedirectProtocol(scheme string, h loader.RedirectHandler) error {
	r.redirects[scheme] = h
	return nil
}

func (r *hostRuntime) Windows() []loader.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]loader.Window(nil), r.windows...)
}

func (r *hostRuntime) open(w *window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
}

func (r *hostRuntime) SetPath(kind loader.PathKind, path string) { r.paths[kind] = path }
func (r *hostRuntime) Name() string                              { return r.name }
func (r *hostRuntime) SetName(name string)                       { r.name = name }
func (r *hostRuntime) SetAppPath(path string)                    {}

func (r *hostRuntime) Require(path string) error {
	r.required = append(r.required, path)
	return nil
}

func (r *hostRuntime) LoadApp(archive string) error {
	r.loaded = append(r.loaded, archive)
	return nil
}

// fetch resolves url the way the runtime does: redirect, then file.
func (r *hostRuntime) fetch(url string) (string, error) {
	internal, err := r.redirects[loader.Scheme](url)
	if err != nil {
		return "", err
	}
	return r.files[loader.InternalScheme](internal)
}

func (r *hostRuntime) fireReady() {
	for _, fn := range r.ready {
		fn()
	}
}
