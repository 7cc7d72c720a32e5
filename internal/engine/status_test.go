package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/patcher"
)

func TestStatus_NotInstalled(t *testing.T) {
	hostDir := makeHost(t, "app-1.0.0")
	eng := newTestEngine(t, hostDir, &fakeSpawner{})

	result, err := eng.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Installed)
	assert.Equal(t, "app-1.0.0", result.Latest)
	require.Len(t, result.Releases, 1)
	assert.Equal(t, patcher.StateUnpatched, result.Releases[0].State)
	assert.Equal(t, "1.0.0", result.Releases[0].Version)
	assert.Empty(t, result.Drift)
}

func TestStatus_Installed(t *testing.T) {
	// Setup
	hostDir := makeHost(t, "app-1.0.0", "app-1.2.0")
	require.NoError(t, os.MkdirAll(filepath.Join(hostDir, "app-0.1.0"), 0755))
	eng := newTestEngine(t, hostDir, &fakeSpawner{})
	layout := eng.Layout()

	_, err := eng.Install(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(layout.ProfileDir("work"), 0755))
	require.NoError(t, os.MkdirAll(layout.ProfileDir("default"), 0755))

	// Execute
	result, err := eng.Status(context.Background())

	// Verify
	require.NoError(t, err)
	assert.True(t, result.Installed)
	assert.Equal(t, "app-1.2.0", result.Latest)
	assert.Equal(t, []string{"default", "work"}, result.Profiles)
	assert.Empty(t, result.Drift)
	assert.Nil(t, result.PendingSession)

	states := map[string]patcher.State{}
	for _, r := range result.Releases {
		states[r.Name] = r.State
	}
	assert.Equal(t, map[string]patcher.State{
		"app-1.2.0": patcher.StatePatched,
		"app-1.0.0": patcher.StatePatched,
		"app-0.1.0": patcher.StateNotPatchable,
	}, states)
}

func TestStatus_ReportsDriftAndPendingSession(t *testing.T) {
	hostDir := makeHost(t, "app-1.0.0")
	eng := newTestEngine(t, hostDir, &fakeSpawner{})
	layout := eng.Layout()

	_, err := eng.Install(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(layout.Invoker, "index.js"), []byte("edited"), 0644))
	require.NoError(t, os.Remove(filepath.Join(layout.Invoker, "after.js")))

	launched, err := eng.Launch(context.Background(), &LaunchRequest{Profile: "work"})
	require.NoError(t, err)

	result, err := eng.Status(context.Background())
	require.NoError(t, err)

	drift := map[string]DriftEntry{}
	for _, d := range result.Drift {
		drift[d.File] = d
	}
	require.Len(t, drift, 2)
	assert.False(t, drift["index.js"].Missing())
	assert.NotEqual(t, drift["index.js"].Expected, drift["index.js"].Actual)
	assert.True(t, drift["after.js"].Missing())

	require.NotNil(t, result.PendingSession)
	assert.Equal(t, launched.Session.ID, result.PendingSession.ID)
}
