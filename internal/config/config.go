// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// EnvConfigJSON names the environment variable whose JSON content overrides
// the file configuration.
const EnvConfigJSON = "FLOWBOARD_CONFIG_JSON"

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to merge config from environment")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for flowboard.
// Required LDAP keys are checked here, once, so a broken directory
// configuration surfaces at startup and not per login attempt.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if !c.Auth.LocalDB.Enabled && !c.Auth.LDAP.Enabled {
		return errors.Wrap(ErrNoAuthBackend, invalidErrMessage)
	}

	if c.Auth.LDAP.Enabled {
		if err := validateLDAP(&c.Auth.LDAP); err != nil {
			return err
		}
	}

	return nil
}

// validateLDAP enforces the required/optional split of the [auth.ldap]
// section: required keys must be present and non-empty, optional keys fall
// back to their defaults.
func validateLDAP(l *LDAP) error {
	required := []struct {
		key   string
		value string
	}{
		{"uri", l.URI},
		{"bind_user", l.BindUser},
		{"bind_password", l.BindPassword},
		{"basedn", l.BaseDN},
		{"user_filter", l.UserFilter},
		{"user_name_attr", l.UserNameAttr},
	}

	for _, r := range required {
		if r.value == "" {
			return &MissingKeyError{Section: "auth.ldap", Key: r.key}
		}
	}

	l.ApplyDefaults()

	return nil
}
