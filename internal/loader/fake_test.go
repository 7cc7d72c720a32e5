package loader

import (
	"sync"
)

type fakeWindow struct {
	mu      sync.Mutex
	id      int
	url     string
	scripts []string
	fail    error
}

func (w *fakeWindow) ID() int { return w.id }

func (w *fakeWindow) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *fakeWindow) navigate(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.url = url
}

func (w *fakeWindow) ExecuteScript(script string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.scripts = append(w.scripts, script)
	return nil
}

func (w *fakeWindow) executed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.scripts)
}

type fakeRuntime struct {
	mu        sync.Mutex
	name      string
	ready     []func()
	standard  []string
	files     map[string]FileHandler
	redirects map[string]RedirectHandler
	windows   []Window
	paths     map[PathKind]string
	appPath   string
	required  []string
	loaded    []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		name:      "Discord",
		files:     map[string]FileHandler{},
		redirects: map[string]RedirectHandler{},
		paths:     map[PathKind]string{},
	}
}

func (r *fakeRuntime) OnReady(fn func()) { r.ready = append(r.ready, fn) }

func (r *fakeRuntime) fireReady() {
	for _, fn := range r.ready {
		fn()
	}
}

func (r *fakeRuntime) RegisterStandardScheme(scheme string) {
	r.standard = append(r.standard, scheme)
}

func (r *fakeRuntime) RegisterFileProtocol(scheme string, handler FileHandler) error {
	r.files[scheme] = handler
	return nil
}

func (r *fakeRuntime) RegisterRedirectProtocol(scheme string, handler RedirectHandler) error {
	r.redirects[scheme] = handler
	return nil
}

func (r *fakeRuntime) Windows() []Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Window(nil), r.windows...)
}

func (r *fakeRuntime) open(w *fakeWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
}

func (r *fakeRuntime) SetPath(kind PathKind, path string) { r.paths[kind] = path }
func (r *fakeRuntime) Name() string                       { return r.name }
func (r *fakeRuntime) SetName(name string)                { r.name = name }
func (r *fakeRuntime) SetAppPath(path string)             { r.appPath = path }

func (r *fakeRuntime) Require(path string) error {
	r.required = append(r.required, path)
	return nil
}

func (r *fakeRuntime) LoadApp(archive string) error {
	r.loaded = append(r.loaded, archive)
	return nil
}

// eventRuntime also reports navigations.
type eventRuntime struct {
	*fakeRuntime
	listeners []func(Window, string)
}

func (r *eventRuntime) OnNavigated(fn func(w Window, url string)) {
	r.listeners = append(r.listeners, fn)
}

func (r *eventRuntime) navigate(w *fakeWindow, url string) {
	w.navigate(url)
	for _, fn := range r.listeners {
		fn(w, url)
	}
}
