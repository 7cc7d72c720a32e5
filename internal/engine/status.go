package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/resource"
)

// Status returns the current state of the installation.
func (e *Engine) Status(ctx context.Context) (*StatusResult, error) {
	installed, err := e.Installed()
	if err != nil {
		return nil, err
	}

	releases, err := e.releases()
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		HostDir:   e.layout.HostDir,
		Installed: installed,
		Releases:  []ReleaseStatus{},
		Profiles:  []string{},
		Drift:     []DriftEntry{},
	}

	p := e.patcher()
	for _, r := range releases {
		state, err := p.Inspect(r.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", r.Name, err)
		}
		result.Releases = append(result.Releases, ReleaseStatus{
			Name:    r.Name,
			Version: r.Version.String(),
			State:   state,
		})
	}
	if latest, ok := host.Latest(releases); ok {
		result.Latest = latest.Name
	}

	if !installed {
		return result, nil
	}

	// Profiles directory may not exist yet
	entries, err := e.fs.ReadDir(e.layout.Profiles)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			result.Profiles = append(result.Profiles, entry.Name())
		}
	}
	sort.Strings(result.Profiles)

	drift, err := e.invokerDrift()
	if err != nil {
		return nil, err
	}
	result.Drift = drift

	pending, err := e.sessions.Peek(e.layout.SessionFile)
	if err == nil {
		result.PendingSession = &pending
	} else if !errors.Is(err, os.ErrNotExist) {
		e.logger.Warn("unreadable session file", "path", e.layout.SessionFile, "err", err)
	}

	return result, nil
}

// invokerDrift compares installed invoker files with the packaged resources.
func (e *Engine) invokerDrift() ([]DriftEntry, error) {
	names, err := e.provider.List(resource.InvokerPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoker resources: %w", err)
	}

	drift := []DriftEntry{}
	for _, name := range names {
		data, err := e.provider.ReadResource(name)
		if err != nil {
			return nil, err
		}
		expected := e.hasher.HashBytes(data)

		rel := strings.TrimPrefix(name, resource.InvokerPrefix+"/")
		installed := filepath.Join(e.layout.Invoker, filepath.FromSlash(rel))

		actual, err := e.hasher.HashFile(installed)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				drift = append(drift, DriftEntry{File: rel, Expected: expected})
				continue
			}
			return nil, fmt.Errorf("failed to hash %s: %w", installed, err)
		}
		if actual != expected {
			drift = append(drift, DriftEntry{File: rel, Expected: expected, Actual: actual})
		}
	}
	return drift, nil
}
