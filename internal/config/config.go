// Package config loads tool-level settings: paths to the external
// compiler and archiver, output locations, and a game override.
// Project-level settings come from the .ppj descriptor itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "pyrite"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "pyrite"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

// Config holds tool-level settings. Keys map one-to-one to pyrite.toml
// entries and PYRITE_* environment variables; command-line flags
// override whatever is loaded here.
type Config struct {
	CompilerPath  string `mapstructure:"compiler_path"`
	ArchiverPath  string `mapstructure:"archiver_path"`
	Game          string `mapstructure:"game"`
	OutputDir     string `mapstructure:"output_dir"`
	PackageOutput string `mapstructure:"package_output"`
	ZipOutput     string `mapstructure:"zip_output"`
	TempDir       string `mapstructure:"temp_dir"`
}

// Default returns the built-in settings used when nothing overrides
// them. Tool paths have no sensible default and stay empty until
// configured.
func Default() Config {
	return Config{
		OutputDir:     "out",
		PackageOutput: "dist",
		ZipOutput:     "dist",
		TempDir:       filepath.Join(os.TempDir(), AppName),
	}
}

// Load reads settings with precedence: environment (PYRITE_*) over
// config file over defaults. An explicit path must exist. With no
// explicit path, pyrite.toml is searched in the working directory and
// the user config directory, and absence is not an error.
func Load(path string) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("compiler_path", defaults.CompilerPath)
	v.SetDefault("archiver_path", defaults.ArchiverPath)
	v.SetDefault("game", defaults.Game)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("package_output", defaults.PackageOutput)
	v.SetDefault("zip_output", defaults.ZipOutput)
	v.SetDefault("temp_dir", defaults.TempDir)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config file %q: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}
	return &cfg, v.ConfigFileUsed(), nil
}
