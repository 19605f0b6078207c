package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is everything needed to reach the remote service. Environment
// variables win over the config file, so CI and scripts can inject
// credentials without writing one.
type Config struct {
	Organization string
	Project      string
	PAT          string
	Database     string // saved-query database path
}

// LoadConfig reads configuration from QUARRY_* environment variables
// and, optionally, a YAML config file ($HOME/.quarry.yaml unless a
// path is given). A missing config file is not an error; a missing PAT
// only matters to commands that talk to the service, which check for
// themselves.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUARRY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("database", "quarry.db")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName(".quarry")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return Config{
		Organization: v.GetString("org"),
		Project:      v.GetString("project"),
		PAT:          v.GetString("pat"),
		Database:     v.GetString("database"),
	}, nil
}

// requireRemote validates the fields needed to call the service.
func (c Config) requireRemote() error {
	if c.Organization == "" {
		return NewExitError(ExitCommandError, "no organization configured (set QUARRY_ORG)")
	}
	if c.PAT == "" {
		return NewExitError(ExitCommandError, "no personal access token configured (set QUARRY_PAT)")
	}
	return nil
}
