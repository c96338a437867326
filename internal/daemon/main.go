package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	sessionsqlite "github.com/gofiber/storage/sqlite3/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/db/dsn"
	"github.com/flowboard/flowboard/internal/db/models"
	"github.com/flowboard/flowboard/internal/web"
	"github.com/flowboard/flowboard/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service has shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(dsn.Create(cfg)), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	// Initialize fiber session store in the same sqlite database
	sessionStorage := sessionsqlite.New(sessionsqlite.Config{
		Database: dsn.Create(cfg),
		Table:    "sessions",
	})

	session.Init(sessionStorage)

	webService, err := web.New(cfg, db)
	if err != nil {
		// a misconfigured auth backend must stop the process at startup
		log.Fatal().Err(err).Msg("failed to initialize web service")
		return nil
	}

	return &Daemon{
		cfg:        cfg,
		webService: webService,
	}
}
