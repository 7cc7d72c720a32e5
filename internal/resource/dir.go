package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

// DirProvider serves resources from a loose directory tree.
type DirProvider struct {
	root string
	fs   fsops.FS
}

// NewDirProvider returns a provider rooted at root.
func NewDirProvider(root string, fsys fsops.FS) *DirProvider {
	return &DirProvider{root: root, fs: fsys}
}

func (p *DirProvider) path(clean string) string {
	return filepath.Join(p.root, filepath.FromSlash(clean))
}

func (p *DirProvider) ReadResource(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	full := p.path(clean)
	info, err := p.fs.Stat(full)
	if err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrResourceNotFound, name)
	}

	data, err := p.fs.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
		}
		return nil, fmt.Errorf("failed to read resource %s: %w", name, err)
	}
	return data, nil
}

func (p *DirProvider) List(prefix string) ([]string, error) {
	clean, err := cleanName(prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	err = filepath.WalkDir(p.path(clean), func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.root, full)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
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

// ExtractTree copies the subtree with the clobbering fsops copy.
func (p *DirProvider) ExtractTree(prefix, dest string) error {
	clean, err := cleanName(prefix)
	if err != nil {
		return err
	}

	src := p.path(clean)
	exists, err := p.fs.Exists(src)
	if err != nil {
		return fmt.Errorf("failed to check resource %s: %w", prefix, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, prefix)
	}

	info, err := p.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat resource %s: %w", prefix, err)
	}
	if !info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}

	if err := p.fs.Copy(src, dest); err != nil {
		return fmt.Errorf("failed to extract %s: %w", prefix, err)
	}
	return nil
}
