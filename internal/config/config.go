// Package config registers framesync's defaults and loads overrides from file and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/spf13/viper"
)

// Name is used for the config file name, the config directory and the env prefix.
const Name = "framesync"

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup installs defaults, binds environment variables and reads framesync.toml if present.
func Setup() error {
	viper.SetConfigName(Name)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, Name))
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(Name)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}
