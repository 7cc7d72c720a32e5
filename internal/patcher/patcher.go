// Package patcher redirects a release's entry point through the loader.
//
// A release ships its application as resources/app.asar. The host runtime
// prefers an unpacked resources/app directory when one exists, so patching
// writes resources/app/package.json (the packaged manifest with "main"
// rewritten) and resources/app/loader.js (a stub generated from the
// loader-template.js resource that requires the invoker and hands it the
// manifest path). Unpatching removes resources/app again.
package patcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/discord-loader/internal/asar"
	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/resource"
)

var (
	// ErrNotPatchable means the release has no app archive to redirect.
	ErrNotPatchable = errors.New("release is not patchable")

	// ErrPatchFailure wraps I/O failures while patching one release.
	ErrPatchFailure = errors.New("patch failed")

	// ErrNotPatched means there is nothing to unpatch.
	ErrNotPatched = errors.New("release is not patched")
)

const (
	manifestName = "package.json"
	stubName     = "loader.js"
)

var (
	invokerPlaceholder  = regexp.MustCompile(`["']?<INVOKER>["']?`)
	manifestPlaceholder = regexp.MustCompile(`["']?<PACKAGE_JSON>["']?`)
)

// State describes a release's patch state.
type State string

const (
	StatePatched      State = "patched"
	StateUnpatched    State = "unpatched"
	StateNotPatchable State = "not patchable"
)

// Paths are the files involved in patching one release.
type Paths struct {
	Resources string
	Archive   string
	AppDir    string
	Manifest  string
	Stub      string
}

// ReleasePaths computes the patch paths of a release directory.
func ReleasePaths(releaseDir string) Paths {
	resources := filepath.Join(releaseDir, "resources")
	appDir := filepath.Join(resources, "app")
	return Paths{
		Resources: resources,
		Archive:   filepath.Join(resources, "app.asar"),
		AppDir:    appDir,
		Manifest:  filepath.Join(appDir, manifestName),
		Stub:      filepath.Join(appDir, stubName),
	}
}

// Result reports what Patch wrote.
type Result struct {
	Release string
	Main    string
	Invoker string
}

// Patcher patches releases against one invoker directory.
type Patcher struct {
	provider   resource.Provider
	archive    asar.Reader
	fs         fsops.FS
	invokerDir string
	logger     *log.Logger
}

// New creates a Patcher. A nil logger discards output.
func New(provider resource.Provider, archive asar.Reader, fs fsops.FS, invokerDir string, logger *log.Logger) *Patcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Patcher{
		provider:   provider,
		archive:    archive,
		fs:         fs,
		invokerDir: invokerDir,
		logger:     logger,
	}
}

// Patch rewrites the release's manifest and writes the loader stub.
// Every path is computed from the release layout and the invoker directory,
// never from a previously written manifest, so patching twice is harmless.
func (p *Patcher) Patch(releaseDir string) (*Result, error) {
	paths := ReleasePaths(releaseDir)
	name := filepath.Base(releaseDir)

	exists, err := p.fs.Exists(paths.Archive)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotPatchable, name, paths.Archive)
	}

	raw, err := p.archive.ExtractFile(paths.Archive, manifestName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read packaged manifest: %v", ErrPatchFailure, name, err)
	}

	m, err := parseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}

	main, err := slashRel(paths.AppDir, paths.Stub)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}
	if err := m.set("main", main); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}

	encoded, err := m.encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}

	if err := p.fs.MkdirAll(paths.AppDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}
	if err := p.fs.AtomicWrite(paths.Manifest, encoded, 0644); err != nil {
		return nil, fmt.Errorf("%w: %s: write manifest: %v", ErrPatchFailure, name, err)
	}

	stub, invokerRel, err := p.renderStub(paths)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPatchFailure, name, err)
	}
	if err := p.fs.AtomicWrite(paths.Stub, stub, 0644); err != nil {
		return nil, fmt.Errorf("%w: %s: write stub: %v", ErrPatchFailure, name, err)
	}

	p.logger.Debug("patched release", "release", name, "main", main, "invoker", invokerRel)

	return &Result{Release: name, Main: main, Invoker: invokerRel}, nil
}

// renderStub fills the template with the stub-relative invoker directory
// (with a trailing slash, it is used as a require root) and manifest path.
func (p *Patcher) renderStub(paths Paths) ([]byte, string, error) {
	tmpl, err := p.provider.ReadResource(resource.LoaderTemplate)
	if err != nil {
		return nil, "", err
	}

	stubDir := filepath.Dir(paths.Stub)
	invokerRel, err := slashRel(stubDir, p.invokerDir)
	if err != nil {
		return nil, "", err
	}
	invokerRel += "/"

	manifestRel, err := slashRel(stubDir, paths.Manifest)
	if err != nil {
		return nil, "", err
	}

	invokerLit, err := jsString(invokerRel)
	if err != nil {
		return nil, "", err
	}
	manifestLit, err := jsString(manifestRel)
	if err != nil {
		return nil, "", err
	}

	out := invokerPlaceholder.ReplaceAllLiteral(tmpl, invokerLit)
	out = manifestPlaceholder.ReplaceAllLiteral(out, manifestLit)
	return out, invokerRel, nil
}

// Unpatch removes the unpacked app directory written by Patch.
func (p *Patcher) Unpatch(releaseDir string) error {
	paths := ReleasePaths(releaseDir)

	exists, err := p.fs.Exists(paths.AppDir)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", paths.AppDir, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotPatched, filepath.Base(releaseDir))
	}

	if err := p.fs.RemoveAll(paths.AppDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", paths.AppDir, err)
	}

	p.logger.Debug("unpatched release", "release", filepath.Base(releaseDir))
	return nil
}

// Inspect reports the release's patch state.
func (p *Patcher) Inspect(releaseDir string) (State, error) {
	paths := ReleasePaths(releaseDir)

	hasArchive, err := p.fs.Exists(paths.Archive)
	if err != nil {
		return "", err
	}
	if !hasArchive {
		return StateNotPatchable, nil
	}

	data, err := p.fs.ReadFile(paths.Manifest)
	if err != nil {
		return StateUnpatched, nil
	}
	m, err := parseManifest(data)
	if err != nil {
		return StateUnpatched, nil
	}

	target := filepath.Join(paths.AppDir, filepath.FromSlash(m.getString("main")))
	if filepath.Clean(target) != paths.Stub {
		return StateUnpatched, nil
	}
	if ok, err := p.fs.Exists(paths.Stub); err != nil || !ok {
		return StateUnpatched, nil
	}
	return StatePatched, nil
}

func slashRel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// jsString renders s as a JSON string literal, which is also a valid
// JavaScript string literal. Invalid UTF-8 would be rewritten to U+FFFD and
// name a different path, so it is rejected.
func jsString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("path %q is not valid UTF-8", s)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", s, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
