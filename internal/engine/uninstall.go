package engine

import (
	"context"
	"errors"
	"fmt"
)

// Uninstall removes the invoker and temp directories, optionally the user
// and profiles directories, and unpatches every release it can. Releases
// that were never patched are skipped.
func (e *Engine) Uninstall(ctx context.Context, req *UninstallRequest) (*UninstallResult, error) {
	result := &UninstallResult{}

	targets := []string{e.layout.Invoker, e.layout.Temp}
	if !req.KeepUser {
		targets = append(targets, e.layout.User)
	}
	if !req.KeepProfiles {
		targets = append(targets, e.layout.Profiles)
	}

	for _, dir := range targets {
		exists, err := e.fs.Exists(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", dir, err)
		}
		if !exists {
			continue
		}
		if err := e.fs.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		result.Removed = append(result.Removed, dir)
	}

	// Drop the loader root once nothing is kept inside it.
	if entries, err := e.fs.ReadDir(e.layout.Loader); err == nil && len(entries) == 0 {
		if err := e.fs.Remove(e.layout.Loader); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", e.layout.Loader, err)
		}
		result.Removed = append(result.Removed, e.layout.Loader)
	}

	releases, err := e.releases()
	if err != nil {
		return result, err
	}

	p := e.patcher()
	var failures []*PatchError
	for _, r := range releases {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := p.Unpatch(r.Dir)
		switch {
		case err == nil:
			result.Unpatched = append(result.Unpatched, r.Name)
			e.logger.Info("unpatched release", "release", r.Name)
		case errors.Is(err, ErrNotPatched):
			result.Skipped = append(result.Skipped, r.Name)
		default:
			failures = append(failures, &PatchError{Release: r.Name, Err: err})
			e.logger.Error("failed to unpatch release", "release", r.Name, "err", err)
		}
	}

	if len(failures) > 0 {
		return result, &BatchError{Op: "unpatch", Failures: failures}
	}
	return result, nil
}
