package config

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrNoAuthBackend error if neither local nor LDAP authentication is enabled.
	ErrNoAuthBackend = errors.New("toml config auth: at least one of auth.localdb or auth.ldap must be enabled")
)

// MissingKeyError reports a required configuration key that is absent.
// Required keys are validated once at startup so that a broken deployment
// fails fast instead of failing every login.
type MissingKeyError struct {
	Section string
	Key     string
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("toml config %s.%s is required but not set", e.Section, e.Key)
}

// IsMissingKey reports whether err is a MissingKeyError.
func IsMissingKey(err error) bool {
	var mk *MissingKeyError
	return errors.As(err, &mk)
}
