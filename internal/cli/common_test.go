package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/patcher"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out, &errOut
}

func TestFormatJSON(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"simple map", map[string]string{"key": "value"}, "{\n  \"key\": \"value\"\n}"},
		{"empty map", map[string]string{}, "{}"},
		{"array", []string{"a", "b"}, "[\n  \"a\",\n  \"b\"\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatError(t *testing.T) {
	got := formatError(os.ErrNotExist)
	assert.Contains(t, got, "Error:")
	assert.Contains(t, got, os.ErrNotExist.Error())
}

func TestOutputJSON(t *testing.T) {
	out, _ := captureOutput(t)

	require.NoError(t, outputJSON(map[string]string{"test": "value"}))

	var v map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, "value", v["test"])
}

func TestPrintFunctions(t *testing.T) {
	out, errOut := captureOutput(t)

	PrintSuccess("Success message")
	PrintWarning("Warning message")
	PrintError("Error message")
	PrintInfo("Info message")

	assert.Contains(t, out.String(), "Success message")
	assert.Contains(t, out.String(), "Info message")
	assert.NotContains(t, out.String(), "Error message")
	assert.Contains(t, errOut.String(), "Error message")
}

func TestPrintTable(t *testing.T) {
	out, _ := captureOutput(t)

	PrintTable([]string{"RELEASE", "STATE"}, [][]string{
		{"app-1.0.9001", "patched"},
		{"app-1.0.9000", "unpatched"},
	})

	assert.Contains(t, out.String(), "RELEASE")
	assert.Contains(t, out.String(), "app-1.0.9001")
	assert.Contains(t, out.String(), "------------")
}

func TestPrintCount(t *testing.T) {
	assert.Equal(t, "1 release", PrintCount(1, "release", "releases"))
	assert.Equal(t, "3 releases", PrintCount(3, "release", "releases"))
}

func TestStateLabel(t *testing.T) {
	assert.Contains(t, stateLabel(patcher.StatePatched), "patched")
	assert.Contains(t, stateLabel(patcher.StateNotPatchable), "not patchable")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(os.ErrNotExist))
	assert.Equal(t, 3, ExitCode(&ExitError{Code: 3}))
	assert.Equal(t, 7, ExitCode(fmt.Errorf("wrapped: %w", &ExitError{Code: 7})))
}

func TestNewLogger_Level(t *testing.T) {
	logger := newLogger(config.Settings{LogLevel: "warn"})
	assert.Equal(t, "warn", logger.GetLevel().String())

	logger = newLogger(config.Settings{LogLevel: "bogus"})
	assert.Equal(t, "info", logger.GetLevel().String())

	logger = newLogger(config.Settings{LogLevel: "error", Debug: true})
	assert.Equal(t, "debug", logger.GetLevel().String())
}

func TestResolveAppDir_Explicit(t *testing.T) {
	dir, err := resolveAppDir(config.Settings{AppDir: "/opt/discord"})
	require.NoError(t, err)
	assert.Equal(t, "/opt/discord", dir)
}
