package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/patcher"
	"github.com/danieljhkim/discord-loader/internal/resource"
	"github.com/danieljhkim/discord-loader/internal/session"
)

var (
	// ErrInvalidHostDir indicates the host directory lacks its marker files.
	ErrInvalidHostDir = host.ErrInvalidHostDir

	// ErrNoReleaseFound indicates no release directory exists where one is required.
	ErrNoReleaseFound = host.ErrNoReleaseFound

	// ErrUnsupportedPlatform indicates launching is not supported on this OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidProfile indicates a profile name that could escape the profiles directory.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrResourceNotFound indicates a missing loader resource.
	ErrResourceNotFound = resource.ErrResourceNotFound

	// ErrPatchFailure indicates an I/O failure while patching one release.
	ErrPatchFailure = patcher.ErrPatchFailure

	// ErrNotPatched indicates an unpatch of a release that was never patched.
	ErrNotPatched = patcher.ErrNotPatched

	// ErrNotPatchable indicates a release without an app archive.
	ErrNotPatchable = patcher.ErrNotPatchable

	// ErrSessionHandoffMissing indicates the loader found no session.
	ErrSessionHandoffMissing = session.ErrSessionHandoffMissing

	// ErrSessionInProgress indicates session.json exists from another launch.
	ErrSessionInProgress = session.ErrSessionInProgress
)

// PatchError is the failure of one release within a batch.
type PatchError struct {
	Release string
	Err     error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Release, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// BatchError collects the per-release failures of a patch or unpatch batch.
// Releases that did not fail were still processed.
type BatchError struct {
	Op       string
	Failures []*PatchError
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s failed for %d release(s): %s", e.Op, len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
