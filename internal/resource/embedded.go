package resource

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

//go:embed assets
var assets embed.FS

// EmbeddedProvider serves resources compiled into the binary.
type EmbeddedProvider struct {
	files fs.FS
	fs    fsops.FS
}

// NewEmbeddedProvider returns a provider over the embedded assets.
func NewEmbeddedProvider(fsys fsops.FS) (*EmbeddedProvider, error) {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded resources: %w", err)
	}
	return NewFSProvider(sub, fsys), nil
}

// NewFSProvider serves resources from an arbitrary fs.FS; tests use fstest.MapFS.
func NewFSProvider(files fs.FS, fsys fsops.FS) *EmbeddedProvider {
	return &EmbeddedProvider{files: files, fs: fsys}
}

func (p *EmbeddedProvider) ReadResource(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(p.files, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
		}
		return nil, fmt.Errorf("failed to read resource %s: %w", name, err)
	}
	return data, nil
}

func (p *EmbeddedProvider) List(prefix string) ([]string, error) {
	clean, err := cleanName(prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	err = fs.WalkDir(p.files, clean, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, prefix)
		}
		return nil, fmt.Errorf("failed to list resources under %s: %w", prefix, err)
	}

	sort.Strings(names)
	return names, nil
}

// ExtractTree writes each resource under prefix to dest.
func (p *EmbeddedProvider) ExtractTree(prefix, dest string) error {
	clean, err := cleanName(prefix)
	if err != nil {
		return err
	}

	names, err := p.List(clean)
	if err != nil {
		return err
	}

	for _, name := range names {
		rel, ok := relativeTo(clean, name)
		if !ok {
			// prefix named a single file
			rel = filepath.Base(name)
		}

		data, err := fs.ReadFile(p.files, name)
		if err != nil {
			return fmt.Errorf("failed to read resource %s: %w", name, err)
		}
		if err := p.fs.WriteFile(filepath.Join(dest, filepath.FromSlash(rel)), data, 0644); err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}

	return nil
}
