package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

func TestNewLayout(t *testing.T) {
	host := filepath.Join("opt", "Discord")
	l := NewLayout(host + string(filepath.Separator))

	assert.Equal(t, host, l.HostDir)
	assert.Equal(t, filepath.Join(host, "loader"), l.Loader)
	assert.Equal(t, filepath.Join(host, "loader", "invoker"), l.Invoker)
	assert.Equal(t, filepath.Join(host, "loader", "user"), l.User)
	assert.Equal(t, filepath.Join(host, "loader", "profiles"), l.Profiles)
	assert.Equal(t, filepath.Join(host, "loader", "temp"), l.Temp)
	assert.Equal(t, filepath.Join(host, "loader", "temp", "session.json"), l.SessionFile)
	assert.Equal(t, filepath.Join(host, "loader", "temp", "lastsession.json"), l.LastSessionFile)
	assert.Equal(t, filepath.Join(host, "loader", "profiles", "work"), l.ProfileDir("work"))
}

func TestLayoutFromInvoker(t *testing.T) {
	host := filepath.Join(t.TempDir(), "Discord")
	want := NewLayout(host)

	assert.Equal(t, want, LayoutFromInvoker(want.Invoker))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DLOADER_PROFILE", "")
	t.Setenv("DLOADER_APPDIR", "")

	s, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProfile, s.Profile)
	assert.False(t, s.Debug)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.ConfigFile)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteFile(fsops.NewRealFS(), path, Settings{
		AppDir:   "/opt/Discord",
		Profile:  "work",
		Debug:    true,
		LogLevel: "debug",
	}, false))

	s, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/Discord", s.AppDir)
	assert.Equal(t, "work", s.Profile)
	assert.True(t, s.Debug)
	assert.Equal(t, path, s.ConfigFile)

	t.Setenv("DLOADER_PROFILE", "play")
	s, err = Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "play", s.Profile)
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 99\nprofile = \"x\"\n"), 0644))

	_, err := Load(NewViper(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version 99")
}

func TestWriteFile_RefusesOverwriteWithoutForce(t *testing.T) {
	fs := fsops.NewRealFS()
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, WriteFile(fs, path, Settings{Profile: "a"}, false))

	err := WriteFile(fs, path, Settings{Profile: "b"}, false)
	assert.True(t, errors.Is(err, ErrConfigExists))

	require.NoError(t, WriteFile(fs, path, Settings{Profile: "b"}, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `profile = ['"]b['"]`, string(data))
	assert.Contains(t, string(data), "version = 1")
}
