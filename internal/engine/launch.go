package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/danieljhkim/discord-loader/internal/session"
)

const (
	updaterExe = "Update.exe"
	appExe     = "Discord.exe"
)

var invalidProfile = regexp.MustCompile(`^\.+$|\.$|[/\\]`)

// IsValidProfile reports whether p is safe to use as a directory name under
// the profiles directory: it must not consist only of dots, end in a dot or
// contain a path separator.
func IsValidProfile(p string) bool {
	return !invalidProfile.MatchString(p)
}

// Launch starts the host application booting into req.Profile.
//
// session.json is claimed before the process starts and is left for the
// loader to consume; if it already exists the launch is refused with
// ErrSessionInProgress.
func (e *Engine) Launch(ctx context.Context, req *LaunchRequest) (*LaunchResult, error) {
	if req.Profile == "" || !IsValidProfile(req.Profile) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, req.Profile)
	}

	sess := session.New(e.layout, req.Profile, req.Debug, e.clock.Now())

	cmd, err := e.launchCommand(req.Debug)
	if err != nil {
		return nil, err
	}

	encoded, err := session.Encode(sess)
	if err != nil {
		return nil, err
	}
	cmd.Env = []string{session.EnvVar + "=" + encoded}

	if err := e.fs.MkdirAll(e.layout.Temp, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", e.layout.Temp, err)
	}
	if err := e.sessions.Claim(sess); err != nil {
		return nil, err
	}

	proc, err := e.spawner.Spawn(ctx, cmd)
	if err != nil {
		if releaseErr := e.sessions.Release(); releaseErr != nil {
			e.logger.Warn("failed to release session", "err", releaseErr)
		}
		return nil, err
	}

	e.logger.Info("launched", "profile", req.Profile, "debug", req.Debug, "pid", proc.Pid(), "session", sess.ID)
	return &LaunchResult{Session: sess, Command: cmd, Process: proc}, nil
}

// launchCommand picks the process to start. Normally the host's updater
// starts the app; debug mode runs the latest release directly so its
// console output is not swallowed.
func (e *Engine) launchCommand(debug bool) (Command, error) {
	if e.goos != "windows" {
		return Command{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, e.goos)
	}

	if !debug {
		return Command{
			Path: filepath.Join(e.layout.HostDir, updaterExe),
			Args: []string{"-processStart", appExe},
			Dir:  e.layout.HostDir,
		}, nil
	}

	if _, err := e.releases(); err != nil {
		return Command{}, err
	}
	latest, err := e.install.Latest()
	if err != nil {
		return Command{}, err
	}
	return Command{
		Path: filepath.Join(latest.Dir, appExe),
		Dir:  latest.Dir,
	}, nil
}
