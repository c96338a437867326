package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/db/models"
)

// Service persists group memberships resolved at login time.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetUserGroups retrieves all groups a user belongs to.
func (s *Service) GetUserGroups(userID uint64) ([]models.Group, error) {
	var groups []models.Group

	err := s.db.Table("groups").
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	return groups, nil
}

// SyncUserGroups replaces a user's memberships for the given source with
// the groups the directory reported at login. Groups that do not exist yet
// are created.
func (s *Service) SyncUserGroups(userID uint64, externalGroups []string, source models.GroupSource) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var groupIDs []uint

		for _, externalGroup := range externalGroups {
			var group models.Group

			err := tx.Where("external_id = ? AND source = ?", externalGroup, source).
				FirstOrCreate(&group, models.Group{
					Name:       externalGroup,
					ExternalID: externalGroup,
					Source:     source,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to create/get group %s: %w", externalGroup, err)
			}

			groupIDs = append(groupIDs, group.ID)
		}

		// drop stale memberships for this source before re-adding
		if err := tx.Where("user_id = ?", userID).
			Where("group_id IN (SELECT id FROM groups WHERE source = ?)", source).
			Delete(&models.UserGroup{}).Error; err != nil {
			return fmt.Errorf("failed to remove old group memberships: %w", err)
		}

		for _, groupID := range groupIDs {
			if err := tx.Create(&models.UserGroup{
				UserID:  userID,
				GroupID: groupID,
			}).Error; err != nil {
				return fmt.Errorf("failed to add group membership: %w", err)
			}
		}

		return nil
	})
}
