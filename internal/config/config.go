package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/torfstack/zenremote/internal/logging"
	"github.com/torfstack/zenremote/internal/util"
)

const AccessTokenEnv = "ZENODO_ACCESS_TOKEN"

var (
	configFilePath  = filepath.Join(util.ConfigDir, "config.toml")
	defaultLocalDir = "."
)

type Config struct {
	AccessToken string `toml:"access_token"`
	Sandbox     bool   `toml:"sandbox"`
	// Deposition pins an existing deposition. Zero lets zenremote reuse the
	// deposition it remembers for the endpoint, or create one.
	Deposition int64  `toml:"deposition"`
	LocalDir   string `toml:"local_dir"`
}

func Get() (Config, error) {
	return get(false)
}

func GetInteractive() (Config, error) {
	return get(true)
}

func Path() string {
	return configFilePath
}

func get(interactive bool) (Config, error) {
	c := Config{}
	f, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c, err = initConfig(interactive)
		if err != nil {
			return c, err
		}
		return c.withEnv(), nil
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %w", configFilePath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logging.Debugf("Could not close config file: %s", err)
		}
	}(f)

	_, err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %w", configFilePath, err)
	}
	return c.withEnv(), nil
}

// withEnv lets the environment supply the access token so it does not have to
// be written to disk.
func (c Config) withEnv() Config {
	if token := os.Getenv(AccessTokenEnv); token != "" {
		c.AccessToken = token
	}
	return c
}

func initConfig(interactive bool) (Config, error) {
	c := initialConfig()
	if interactive {
		err := guidedInitialization(&c)
		if err != nil {
			return c, fmt.Errorf("could not initialize config interactively: %w", err)
		}
	}
	return c, c.Persist()
}

func (c *Config) Persist() error {
	f, err := util.OpenWithParents(configFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", configFilePath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logging.Debugf("Could not close config file: %s", err)
		}
	}(f)

	logging.Debugf("Persisting config file to '%s'", configFilePath)
	err = toml.NewEncoder(f).Encode(c)
	if err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", configFilePath, err)
	}

	return nil
}

func initialConfig() Config {
	return Config{LocalDir: defaultLocalDir}
}
