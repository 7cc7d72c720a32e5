package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

// CurrentFileVersion is the schema version written into config files.
const CurrentFileVersion = 1

// ErrConfigExists is returned by WriteFile when the target exists and force is off.
var ErrConfigExists = errors.New("config file already exists")

type fileSchema struct {
	Version   int    `toml:"version"`
	AppDir    string `toml:"appdir"`
	Profile   string `toml:"profile"`
	Debug     bool   `toml:"debug"`
	Resources string `toml:"resources,omitempty"`
	LogLevel  string `toml:"log_level"`
}

// Encode renders settings as a versioned TOML document.
func Encode(s Settings) ([]byte, error) {
	data, err := toml.Marshal(fileSchema{
		Version:   CurrentFileVersion,
		AppDir:    s.AppDir,
		Profile:   s.Profile,
		Debug:     s.Debug,
		Resources: s.Resources,
		LogLevel:  s.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("encode config file: %w", err)
	}
	return data, nil
}

// WriteFile writes settings to path. An existing file is only replaced when force is set.
func WriteFile(fs fsops.FS, path string, s Settings, force bool) error {
	exists, err := fs.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}
	if exists && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := Encode(s)
	if err != nil {
		return err
	}

	if err := fs.AtomicWrite(path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
