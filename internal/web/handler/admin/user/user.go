// Package user provides the superuser-only user administration endpoints.
package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/db/models"
	"github.com/flowboard/flowboard/internal/web/handler"
	authmw "github.com/flowboard/flowboard/internal/web/middleware/auth"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/user"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
)

// Service provides user administration endpoints.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	store *auth.UserStore
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. All of them require the superuser capability.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.store = auth.NewUserStore(db)

	app.Get(Path, authmw.RequireSuperuser, s.List)
	app.Post(Path+"/:id/active", authmw.RequireSuperuser, s.SetActive)
}

// userView is the JSON shape of a user record in the admin listing.
type userView struct {
	ID         uint64            `json:"id"`
	Username   string            `json:"username"`
	Email      string            `json:"email"`
	Active     bool              `json:"active"`
	AuthSource models.AuthSource `json:"auth_source"`
}

// List shows users with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPageSize
	}

	search := c.Query("search", "")

	var (
		users      []models.User
		totalCount int64
		tx         = s.db.Model(&models.User{})
	)

	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("username LIKE ? OR email LIKE ?", like, like)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list users"})
	}

	err := tx.Order("username").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list users"})
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, userView{
			ID:         users[i].ID,
			Username:   users[i].Username,
			Email:      users[i].Email,
			Active:     users[i].Active,
			AuthSource: users[i].AuthSource,
		})
	}

	return c.JSON(fiber.Map{
		"users":    views,
		"page":     page,
		"pageSize": pageSize,
		"total":    totalCount,
	})
}

// setActiveForm is the payload for activating or deactivating an account.
type setActiveForm struct {
	Active bool `form:"active" json:"active"`
}

// SetActive activates or deactivates a user account. A deactivated
// directory account cannot log in even with valid directory credentials.
func (s *Service) SetActive(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	form := new(setActiveForm)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid form data"})
	}

	// superusers cannot deactivate themselves
	if current := authmw.Current(c); current != nil && current.User.ID == id && !form.Active {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot deactivate your own account"})
	}

	user, err := s.store.FindByID(id)
	if errors.Is(err, auth.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	if err != nil {
		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update user"})
	}

	user.Active = form.Active

	if err := s.store.Persist(user); err != nil {
		log.Error().Err(err).Uint64("user_id", id).Msg("failed to update user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update user"})
	}

	return c.JSON(fiber.Map{"id": user.GetID(), "active": user.Active})
}
