package config

import (
	"time"

	"github.com/flowboard/flowboard/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// Auth groups the authentication backends.
type Auth struct {
	LocalDB LocalDBAuth `toml:"localdb"`
	LDAP    LDAP        `toml:"ldap"`
}

// LocalDBAuth enables username/password authentication against the local database.
type LocalDBAuth struct {
	Enabled bool `toml:"enabled"`
}

// DB holds the sqlite database settings.
type DB struct {
	Path   string // path to the sqlite database file
	Extras string // extra DSN parameters, e.g. "_pragma=busy_timeout(5000)"
}
