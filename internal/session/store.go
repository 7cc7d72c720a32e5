package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

// Store persists sessions for the file transports.
type Store interface {
	// Claim writes the launch session file. It fails with
	// ErrSessionInProgress if the file already exists.
	Claim(s Session) error

	// Take reads a session file and deletes it.
	// Returns os.ErrNotExist if the file doesn't exist.
	Take(path string) (Session, error)

	// SaveLast writes the last-session file atomically.
	SaveLast(s Session) error

	// Peek reads a session file without consuming it.
	Peek(path string) (Session, error)
}

// FileStore implements Store using JSON files on disk.
type FileStore struct {
	fs              fsops.FS
	sessionFile     string
	lastSessionFile string
}

// NewFileStore creates a new FileStore.
func NewFileStore(fs fsops.FS, sessionFile, lastSessionFile string) *FileStore {
	return &FileStore{
		fs:              fs,
		sessionFile:     sessionFile,
		lastSessionFile: lastSessionFile,
	}
}

// SessionFile returns the launch session file path.
func (s *FileStore) SessionFile() string { return s.sessionFile }

// LastSessionFile returns the last-session file path.
func (s *FileStore) LastSessionFile() string { return s.lastSessionFile }

// Claim writes session.json with exclusive-create semantics. The file doubles
// as an advisory single-instance guard; it is not a real lock.
func (s *FileStore) Claim(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.fs.CreateExclusive(s.sessionFile, data, 0644)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if stale, peekErr := s.Peek(s.sessionFile); peekErr == nil {
		return fmt.Errorf("%w: session %s started %s; if Discord is not running, delete %s",
			ErrSessionInProgress, stale.ID, stale.LaunchedAt.Format("2006-01-02 15:04:05"), s.sessionFile)
	}
	return fmt.Errorf("%w: if Discord is not running, delete %s", ErrSessionInProgress, s.sessionFile)
}

// Take reads a session file and deletes it. The file is removed even when it
// does not decode, so a corrupt handoff is not retried forever.
func (s *FileStore) Take(path string) (Session, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, os.ErrNotExist
		}
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return Session{}, fmt.Errorf("failed to delete consumed session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// Peek reads a session file without deleting it.
func (s *FileStore) Peek(path string) (Session, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, os.ErrNotExist
		}
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// SaveLast writes lastsession.json atomically.
func (s *FileStore) SaveLast(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.fs.AtomicWrite(s.lastSessionFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write last session: %w", err)
	}
	return nil
}

// Release deletes session.json if it exists.
func (s *FileStore) Release() error {
	if err := s.fs.Remove(s.sessionFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
