package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/discord-loader/internal/resource"
)

// InstallOrUpdate updates an existing loader tree or installs a new one.
func (e *Engine) InstallOrUpdate(ctx context.Context) (*InstallResult, error) {
	installed, err := e.Installed()
	if err != nil {
		return nil, err
	}
	if installed {
		return e.Update(ctx)
	}
	return e.Install(ctx)
}

// Install extracts the loader tree, creates the profile and temp
// directories, and patches every release. An existing user directory is
// left alone.
func (e *Engine) Install(ctx context.Context) (*InstallResult, error) {
	if err := e.provider.ExtractTree(resource.InvokerPrefix, e.layout.Invoker); err != nil {
		return nil, fmt.Errorf("failed to extract invoker: %w", err)
	}

	if err := e.ensureUser(); err != nil {
		return nil, err
	}
	if err := e.ensureDirs(); err != nil {
		return nil, err
	}

	e.logger.Info("installed loader", "dir", e.layout.Loader)
	return e.patchAll(ctx, "install")
}

// Update refreshes the invoker files and patches every release, including
// releases added since the last run. Existing user files are never touched;
// a missing user directory is restored from the packaged defaults.
func (e *Engine) Update(ctx context.Context) (*InstallResult, error) {
	if err := e.provider.ExtractTree(resource.InvokerPrefix, e.layout.Invoker); err != nil {
		return nil, fmt.Errorf("failed to extract invoker: %w", err)
	}

	if err := e.ensureUser(); err != nil {
		return nil, err
	}
	if err := e.ensureDirs(); err != nil {
		return nil, err
	}

	e.logger.Info("updated loader", "dir", e.layout.Invoker)
	return e.patchAll(ctx, "update")
}

// ensureUser extracts the default user files when loader/user is absent.
// Uninstalling with only the profiles kept leaves the loader root behind, so
// both install and update paths can find the user directory missing.
func (e *Engine) ensureUser() error {
	hasUser, err := e.fs.Exists(e.layout.User)
	if err != nil {
		return fmt.Errorf("failed to check user directory: %w", err)
	}
	if hasUser {
		return nil
	}
	if err := e.provider.ExtractTree(resource.UserPrefix, e.layout.User); err != nil {
		return fmt.Errorf("failed to extract user files: %w", err)
	}
	return nil
}

func (e *Engine) ensureDirs() error {
	for _, dir := range []string{e.layout.Profiles, e.layout.Temp} {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// patchAll patches every release. Releases without an archive are skipped
// and patch failures are collected so one broken release does not stop the
// others; any other error aborts the batch.
func (e *Engine) patchAll(ctx context.Context, mode string) (*InstallResult, error) {
	releases, err := e.releases()
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		e.logger.Warn("no releases to patch", "dir", e.layout.HostDir)
	}

	p := e.patcher()
	result := &InstallResult{Mode: mode}
	var failures []*PatchError

	for _, r := range releases {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		patched, err := p.Patch(r.Dir)
		switch {
		case err == nil:
			result.Patched = append(result.Patched, *patched)
			e.logger.Info("patched release", "release", r.Name)
		case errors.Is(err, ErrNotPatchable):
			result.Skipped = append(result.Skipped, r.Name)
			e.logger.Debug("skipped release", "release", r.Name, "reason", err)
		case errors.Is(err, ErrPatchFailure):
			failures = append(failures, &PatchError{Release: r.Name, Err: err})
			e.logger.Error("failed to patch release", "release", r.Name, "err", err)
		default:
			return result, err
		}
	}

	if len(failures) > 0 {
		return result, &BatchError{Op: "patch", Failures: failures}
	}
	return result, nil
}
