package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// Seed initial data if user table is empty

	var count int64
	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		// Create default local admin user as bootstrap fallback
		db.Create(
			&models.User{
				Username:   "admin",
				Password:   models.HashPassword("changeme"),
				Active:     true,
				AuthSource: models.AuthSourceLocal,
			},
		)

		log.Warn().Msg("seeded default admin user with password 'changeme', change it immediately")
	}
}
