package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/discord-loader/internal/config"
)

// EnvVar is the environment variable carrying the encoded session.
const EnvVar = "DISCORD_LOADER_SESSION"

var (
	// ErrSessionHandoffMissing means no transport carried a session.
	ErrSessionHandoffMissing = errors.New("no session was handed off to the loader")

	// ErrSessionInProgress means session.json already exists.
	ErrSessionInProgress = errors.New("a launch is already in progress")
)

// Session is the configuration of one launch.
type Session struct {
	// ID identifies the launch in logs and in the single-instance message.
	ID uuid.UUID `json:"id"`

	// Profile is empty when the session carries no profile.
	Profile string `json:"profile"`

	Debug bool `json:"debug"`

	DiscordDir  string `json:"discordDir"`
	InvokerDir  string `json:"invokerDir"`
	ProfilesDir string `json:"profilesDir"`
	TempDir     string `json:"tempDir"`
	UserDir     string `json:"userDir"`

	LaunchedAt time.Time `json:"launchedAt"`
}

// New builds a session for a launch from the loader layout.
func New(layout config.Layout, profile string, debug bool, now time.Time) Session {
	return Session{
		ID:          uuid.New(),
		Profile:     profile,
		Debug:       debug,
		DiscordDir:  layout.HostDir,
		InvokerDir:  layout.Invoker,
		ProfilesDir: layout.Profiles,
		TempDir:     layout.Temp,
		UserDir:     layout.User,
		LaunchedAt:  now,
	}
}

// Encode renders the session in its environment variable form.
func Encode(s Session) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return string(data), nil
}

// Decode parses the environment variable form.
func Decode(raw string) (Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

// Layout recovers the loader layout the session was built from.
func (s Session) Layout() config.Layout {
	return config.NewLayout(s.DiscordDir)
}

// ProfileDir is the app data directory of the session's profile.
func (s Session) ProfileDir() string {
	return s.Layout().ProfileDir(s.Profile)
}
