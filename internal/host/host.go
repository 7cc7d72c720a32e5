// Package host locates and inspects a host application installation: the
// root directory holding the marker files and the versioned release
// directories ("app-1.0.9003") installed beneath it.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"syscall"

	"github.com/Masterminds/semver/v3"
)

const (
	// IconMarker is the application icon present at the host root.
	IconMarker = "app.ico"

	// PackagesMarker is the updater's package cache at the host root.
	PackagesMarker = "packages"

	// ReleasePrefix prefixes every release directory name.
	ReleasePrefix = "app-"
)

var (
	// ErrInvalidHostDir means the marker files are absent.
	ErrInvalidHostDir = errors.New("invalid host directory")

	// ErrNoReleaseFound means no versioned release directory exists.
	ErrNoReleaseFound = errors.New("no release directory found")

	// ErrIOFailure wraps filesystem errors other than "not found".
	ErrIOFailure = errors.New("host directory I/O failure")
)

var releasePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(ReleasePrefix) + `(\d+)\.(\d+)\.(\d+)`)

// Release is one versioned installation of the host application.
type Release struct {
	// Name is the directory name, e.g. "app-1.0.9003".
	Name string

	// Dir is the absolute directory path.
	Dir string

	// Version is the parsed major.minor.patch triple.
	Version *semver.Version
}

// Installation is a validated host root with its releases.
type Installation struct {
	Dir      string
	Releases []Release
}

// ParseRelease parses a release directory name. ok is false for names that
// do not carry a version triple.
func ParseRelease(name string) (*semver.Version, bool) {
	m := releasePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, false
	}

	parts := make([]uint64, 3)
	for i := range parts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return nil, false
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", ""), true
}

// Validate reports whether dir holds both marker paths. Missing markers are
// not an error; other stat failures are returned wrapped in ErrIOFailure.
func Validate(dir string) (bool, error) {
	for _, marker := range []string{IconMarker, PackagesMarker} {
		_, err := os.Stat(filepath.Join(dir, marker))
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return true, nil
}

// Open validates dir and lists its releases.
func Open(dir string) (*Installation, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve host directory: %w", err)
	}

	ok, err := Validate(abs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s must contain %s and %s", ErrInvalidHostDir, abs, IconMarker, PackagesMarker)
	}

	releases, err := ListReleases(abs)
	if err != nil {
		return nil, err
	}

	return &Installation{Dir: abs, Releases: releases}, nil
}

// ListReleases returns the release directories directly under dir, newest
// first. Entries whose names do not parse are skipped. Releases with equal
// versions keep their directory listing order.
func ListReleases(dir string) ([]Release, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	var releases []Release
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, ok := ParseRelease(entry.Name())
		if !ok {
			continue
		}
		releases = append(releases, Release{
			Name:    entry.Name(),
			Dir:     filepath.Join(dir, entry.Name()),
			Version: v,
		})
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Version.GreaterThan(releases[j].Version)
	})

	return releases, nil
}

// Latest returns the release with the highest version. On ties the first
// encountered release wins, so the result depends on the input order.
func Latest(releases []Release) (Release, bool) {
	if len(releases) == 0 {
		return Release{}, false
	}

	best := releases[0]
	for _, r := range releases[1:] {
		if r.Version.GreaterThan(best.Version) {
			best = r
		}
	}
	return best, true
}

// Latest returns the newest release of the installation or ErrNoReleaseFound.
func (i *Installation) Latest() (Release, error) {
	r, ok := Latest(i.Releases)
	if !ok {
		return Release{}, fmt.Errorf("%w in %s", ErrNoReleaseFound, i.Dir)
	}
	return r, nil
}

// Refresh re-reads the release list; releases may appear between runs when
// the host updates itself.
func (i *Installation) Refresh() error {
	releases, err := ListReleases(i.Dir)
	if err != nil {
		return err
	}
	i.Releases = releases
	return nil
}
