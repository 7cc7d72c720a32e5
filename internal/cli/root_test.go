package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/engine"
	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/loader"
)

// resetFlags restores every flag to its default; cobra keeps flag state
// between Execute calls on the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command and captures everything it prints.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv(config.ConfigEnvVar, filepath.Join(t.TempDir(), "config.toml"))
	resetFlags(rootCmd)
	jsonOutput = false
	configPath = ""

	var buf bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &buf, &buf
	t.Cleanup(func() {
		stdout, stderr = prevOut, prevErr
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

func makeHostDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.IconMarker), []byte("ico"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, host.PackagesMarker), 0755))
	return dir
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "discord-loader")
	assert.Contains(t, out, "Loader Lifecycle:")
	assert.Contains(t, out, "Launching:")
	assert.Contains(t, out, "--appdir")
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	SetVersion("2.0.0")
	SetVersion("")
	assert.Equal(t, "2.0.0", rootCmd.Version)
	SetVersion("dev")
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{
		"install", "update", "uninstall", "launch", "status", "resolve", "config", "version",
	}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestResolveCommand(t *testing.T) {
	dir := makeHostDir(t)

	out, err := execute(t, "resolve", "--appdir", dir, "--profile", "work", "l-data://user/~PROFILE~/theme.css")
	require.NoError(t, err)

	want := filepath.Join(dir, "loader", "user", "work", "theme.css")
	assert.Equal(t, want+"\n", out)
}

func TestResolveCommand_Traversal(t *testing.T) {
	dir := makeHostDir(t)

	_, err := execute(t, "resolve", "--appdir", dir, "l-data://user/../../secret")
	assert.ErrorIs(t, err, loader.ErrResolveFailed)
}

func TestInvalidAppDir(t *testing.T) {
	_, err := execute(t, "status", "--appdir", t.TempDir())
	assert.ErrorIs(t, err, engine.ErrInvalidHostDir)
}

func TestInstallStatusUninstall(t *testing.T) {
	// Setup
	dir := makeHostDir(t)

	// Execute
	_, err := execute(t, "install", "--appdir", dir)
	require.NoError(t, err)

	out, err := execute(t, "status", "--appdir", dir, "--json")
	require.NoError(t, err)

	// Verify
	var status engine.StatusResult
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Installed)
	assert.Empty(t, status.Drift)
	assert.DirExists(t, filepath.Join(dir, "loader", "invoker"))

	_, err = execute(t, "uninstall", "--appdir", dir)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "loader"))
}

func TestUninstall_KeepUser(t *testing.T) {
	dir := makeHostDir(t)
	_, err := execute(t, "install", "--appdir", dir)
	require.NoError(t, err)

	_, err = execute(t, "uninstall", "--appdir", dir, "--keep-user")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dir, "loader", "user"))
	assert.NoDirExists(t, filepath.Join(dir, "loader", "invoker"))
}

func TestLaunch_NotInstalled(t *testing.T) {
	dir := makeHostDir(t)

	_, err := execute(t, "launch", "--appdir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestLaunch_InvalidProfile(t *testing.T) {
	dir := makeHostDir(t)
	_, err := execute(t, "install", "--appdir", dir)
	require.NoError(t, err)

	_, err = execute(t, "launch", "--appdir", dir, "--profile", "..")
	assert.ErrorIs(t, err, engine.ErrInvalidProfile)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discord-loader.toml")

	out, err := execute(t, "config", "init", "--config", path, "--profile", "work")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Regexp(t, `profile = .work.`, out)
}
