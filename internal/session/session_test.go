package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/fsops"
)

func testSession(t *testing.T) Session {
	t.Helper()
	layout := config.NewLayout(filepath.Join(t.TempDir(), "Discord"))
	return New(layout, "alpha", true, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))
}

func TestNew_ThreadsLayout(t *testing.T) {
	layout := config.NewLayout(filepath.Join("C:", "Discord"))
	s := New(layout, "work", false, time.Unix(0, 0).UTC())

	assert.Equal(t, "work", s.Profile)
	assert.Equal(t, layout.HostDir, s.DiscordDir)
	assert.Equal(t, layout.Invoker, s.InvokerDir)
	assert.Equal(t, layout.Profiles, s.ProfilesDir)
	assert.Equal(t, layout.Temp, s.TempDir)
	assert.Equal(t, layout.User, s.UserDir)
	assert.NotEqual(t, s.ID, New(layout, "work", false, time.Unix(0, 0).UTC()).ID)
	assert.Equal(t, filepath.Join(layout.Profiles, "work"), s.ProfileDir())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := testSession(t)

	raw, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, raw, `"profile":"alpha"`)
	assert.Contains(t, raw, `"invokerDir"`)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("{not json")
	assert.Error(t, err)
}

func TestCell_InitializeOnce(t *testing.T) {
	c := NewCell[Session](nil)

	_, ok := c.Acquire()
	assert.False(t, ok)

	first := Session{Profile: "first"}
	assert.True(t, c.Initialize(first))
	assert.False(t, c.Initialize(Session{Profile: "second"}))

	got, ok := c.Acquire()
	require.True(t, ok)
	assert.Equal(t, "first", got.Profile)
}

func TestCell_AcquireReturnsCopy(t *testing.T) {
	c := NewCell(func(v []string) []string {
		return append([]string(nil), v...)
	})

	original := []string{"a", "b"}
	require.True(t, c.Initialize(original))
	original[0] = "changed by initializer"

	got, ok := c.Acquire()
	require.True(t, ok)
	got[1] = "changed by holder"

	again, _ := c.Acquire()
	assert.Equal(t, []string{"a", "b"}, again)
}

func newStore(t *testing.T) (*FileStore, config.Layout) {
	t.Helper()
	layout := config.NewLayout(t.TempDir())
	return NewFileStore(fsops.NewRealFS(), layout.SessionFile, layout.LastSessionFile), layout
}

func TestFileStore_ClaimIsExclusive(t *testing.T) {
	store, layout := newStore(t)
	s := testSession(t)

	require.NoError(t, store.Claim(s))
	_, err := os.Stat(layout.SessionFile)
	require.NoError(t, err)

	err = store.Claim(testSession(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionInProgress))
	assert.Contains(t, err.Error(), s.ID.String())
	assert.Contains(t, err.Error(), layout.SessionFile)

	require.NoError(t, store.Release())
	assert.NoError(t, store.Claim(testSession(t)))
}

func TestFileStore_TakeConsumesOnce(t *testing.T) {
	store, layout := newStore(t)
	s := testSession(t)

	require.NoError(t, store.SaveLast(s))

	got, err := store.Take(layout.LastSessionFile)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = store.Take(layout.LastSessionFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStore_TakeDeletesCorruptFile(t *testing.T) {
	store, layout := newStore(t)
	require.NoError(t, os.MkdirAll(layout.Temp, 0755))
	require.NoError(t, os.WriteFile(layout.SessionFile, []byte("garbage"), 0644))

	_, err := store.Take(layout.SessionFile)
	assert.Error(t, err)

	_, statErr := os.Stat(layout.SessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_PeekKeepsFile(t *testing.T) {
	store, layout := newStore(t)
	s := testSession(t)
	require.NoError(t, store.Claim(s))

	got, err := store.Peek(layout.SessionFile)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = os.Stat(layout.SessionFile)
	assert.NoError(t, err)
}
