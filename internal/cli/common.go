package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/clock"
	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/engine"
	"github.com/danieljhkim/discord-loader/internal/fsops"
	"github.com/danieljhkim/discord-loader/internal/hash"
	"github.com/danieljhkim/discord-loader/internal/host"
	"github.com/danieljhkim/discord-loader/internal/resource"
)

// ExitError carries the exit code of the host process out of Execute.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exited with status %d", e.Code)
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// loadSettings merges flags, DLOADER_* environment and the config file.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	v := config.NewViper()

	flags := cmd.Flags()
	for key, name := range map[string]string{
		config.KeyAppDir:    "appdir",
		config.KeyProfile:   "profile",
		config.KeyDebug:     "debug",
		config.KeyResources: "resources",
		config.KeyLogLevel:  "log-level",
	} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Settings{}, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	path, err := configFile()
	if err != nil {
		return config.Settings{}, err
	}
	return config.Load(v, path)
}

// configFile returns --config, or the default location.
func configFile() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultConfigFile()
}

// newLogger creates the charmbracelet logger for the settings.
func newLogger(s config.Settings) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "discord-loader",
	})

	level, err := log.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	if s.Debug {
		level = log.DebugLevel
		logger.SetReportTimestamp(true)
	}
	logger.SetLevel(level)
	return logger
}

// resolveAppDir returns the configured host directory, or auto-detects it
// from the executable location and the platform install location.
func resolveAppDir(s config.Settings) (string, error) {
	if s.AppDir != "" {
		return s.AppDir, nil
	}

	var exeDir string
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}

	candidates := host.FindCandidates(runtime.GOOS, os.Getenv, exeDir)
	if dir := host.Detect(candidates); dir != "" {
		return dir, nil
	}
	return "", fmt.Errorf("%w: pass --appdir; none of [%s] is a Discord installation",
		engine.ErrInvalidHostDir, strings.Join(candidates, ", "))
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(cmd *cobra.Command) (*engine.Engine, config.Settings, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, s, err
	}

	appDir, err := resolveAppDir(s)
	if err != nil {
		return nil, s, err
	}

	fs := fsops.NewRealFS()
	provider, err := resource.Select(s.Resources, fs)
	if err != nil {
		return nil, s, err
	}

	eng, err := engine.New(engine.Options{
		HostDir:  appDir,
		Provider: provider,
		FS:       fs,
		Hasher:   hash.NewSHA256Hasher(),
		Clock:    &clock.RealClock{},
		Spawner:  &engine.ExecSpawner{Stdout: os.Stdout, Stderr: os.Stderr},
		Logger:   newLogger(s),
	})
	if err != nil {
		return nil, s, err
	}
	return eng, s, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
