package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by viper.
	EnvPrefix = "DLOADER"

	// ConfigEnvVar overrides the location of the config file.
	ConfigEnvVar = "DLOADER_CONFIG"

	// DefaultProfile is used when no profile is configured.
	DefaultProfile = "default"

	configDirName  = "discord-loader"
	configFileName = "config.toml"
	configType     = "toml"
)

// Setting keys, shared by flags, environment and the config file.
const (
	KeyVersion   = "version"
	KeyAppDir    = "appdir"
	KeyProfile   = "profile"
	KeyDebug     = "debug"
	KeyResources = "resources"
	KeyLogLevel  = "log_level"
)

// Settings is the effective user configuration.
type Settings struct {
	// AppDir is the host installation root; empty means auto-detect.
	AppDir string

	// Profile is the profile to launch.
	Profile string

	// Debug bypasses the host updater and enables verbose logging.
	Debug bool

	// Resources points at a loose resource tree; empty means embedded resources.
	Resources string

	// LogLevel is a charmbracelet/log level name.
	LogLevel string

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string
}

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyProfile, DefaultProfile)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAppDir, "")
	v.SetDefault(KeyResources, "")

	return v
}

// DefaultConfigFile returns the config file location, honoring DLOADER_CONFIG.
func DefaultConfigFile() (string, error) {
	if path := os.Getenv(ConfigEnvVar); path != "" {
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load reads the optional config file into v and returns the effective settings.
// A missing config file is not an error.
func Load(v *viper.Viper, configFile string) (Settings, error) {
	var used string
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType(configType)

		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			used = configFile
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		default:
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if version := v.GetInt(KeyVersion); version > CurrentFileVersion {
		return Settings{}, fmt.Errorf("unsupported config version %d (current %d)", version, CurrentFileVersion)
	}

	s := Settings{
		AppDir:     v.GetString(KeyAppDir),
		Profile:    v.GetString(KeyProfile),
		Debug:      v.GetBool(KeyDebug),
		Resources:  v.GetString(KeyResources),
		LogLevel:   v.GetString(KeyLogLevel),
		ConfigFile: used,
	}

	return s, nil
}
