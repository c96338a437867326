package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/db/models"
)

// UserStore persists user records. The web layer uses it to look up or
// create the record behind a successfully authenticated directory login.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore on top of db.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByID retrieves a user by id. Returns ErrUserNotFound when no record
// exists.
func (s *UserStore) FindByID(id uint64) (*models.User, error) {
	var user models.User

	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// FindByUsername retrieves a user by username. Returns ErrUserNotFound when
// no record exists.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	var user models.User

	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// CreateUser creates an active directory-backed user record for username.
func (s *UserStore) CreateUser(username string) (*models.User, error) {
	user := models.User{
		Active:     true,
		Username:   username,
		AuthSource: models.AuthSourceLDAP,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Persist saves changes to an existing user record.
func (s *UserStore) Persist(user *models.User) error {
	user.UpdatedAt = time.Now()

	if err := s.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
