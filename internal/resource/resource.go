// Package resource resolves logical resource paths ("root/invoker/index.js",
// "loader-template.js") to bytes and extracts resource subtrees onto disk.
//
// Two providers implement the same contract: EmbeddedProvider serves the
// assets compiled into the binary, DirProvider serves a loose directory tree
// (a checkout of the assets, handy while editing the loader scripts). Select
// picks one at startup and the choice is injected into every consumer.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

// ErrResourceNotFound means the logical path has no resource behind it.
var ErrResourceNotFound = errors.New("resource not found")

// Well-known logical paths.
const (
	RootPrefix     = "root"
	InvokerPrefix  = "root/invoker"
	UserPrefix     = "root/user"
	LoaderTemplate = "loader-template.js"
)

// Provider resolves logical resource paths.
type Provider interface {
	// ReadResource returns the content of one logical resource.
	ReadResource(name string) ([]byte, error)

	// List returns the logical paths of every file under prefix, sorted.
	List(prefix string) ([]string, error)

	// ExtractTree copies every resource under prefix into dest, preserving
	// relative structure and overwriting existing files.
	ExtractTree(prefix, dest string) error
}

// Select returns a DirProvider when dir is set and the embedded provider otherwise.
func Select(dir string, fsys fsops.FS) (Provider, error) {
	if dir == "" {
		return NewEmbeddedProvider(fsys)
	}

	ok, err := fsys.Exists(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check resource directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: resource directory %s does not exist", ErrResourceNotFound, dir)
	}
	return NewDirProvider(dir, fsys), nil
}

// cleanName normalizes a logical path and rejects anything that could
// escape the resource root.
func cleanName(name string) (string, error) {
	clean := path.Clean(strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/"))
	if clean == "" || !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: invalid logical path %q", ErrResourceNotFound, name)
	}
	return clean, nil
}

// relativeTo returns name relative to prefix, or false if name is outside it.
func relativeTo(prefix, name string) (string, bool) {
	if prefix == "." {
		return name, true
	}
	if !strings.HasPrefix(name, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(name, prefix+"/"), true
}
