// Package dashboard provides the landing endpoint for authenticated users.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/web/handler"
	authmw "github.com/flowboard/flowboard/internal/web/middleware/auth"
)

// Path is the path to the dashboard endpoint.
const Path = handler.RootPath + "dashboard"

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get reports who the authenticated user is, which capabilities were
// resolved at login and the directory groups they belong to.
func (s *Service) Get(c *fiber.Ctx) error {
	data := authmw.Current(c)
	if data == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "not authenticated",
		})
	}

	groups := data.Groups
	if groups == nil {
		groups = []string{}
	}

	return c.JSON(fiber.Map{
		"id":            data.User.GetID(),
		"username":      data.User.Username,
		"auth_source":   data.User.AuthSource,
		"superuser":     data.Superuser,
		"data_profiler": data.DataProfiler,
		"groups":        groups,
	})
}
