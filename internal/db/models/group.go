package models

import "time"

// GroupSource represents the origin of a user group.
type GroupSource string

const (
	// GroupSourceLocal indicates the group is locally managed within the application.
	GroupSourceLocal GroupSource = "local"
	// GroupSourceLDAP indicates the group is synchronized from an LDAP or Active Directory server.
	GroupSourceLDAP GroupSource = "ldap"
)

// Group represents a user group. Directory groups are created automatically
// from the CNs found in a user's membership attribute and refreshed on each
// login.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the group (the CN for directory groups).
	Name string `gorm:"size:100;not null"`
	// ExternalID is the external identifier for the group.
	// Combined with Source, this forms a unique constraint.
	ExternalID string `gorm:"size:255;uniqueIndex:idx_source_external"`
	// Source indicates where the group originates from (local or ldap).
	Source GroupSource `gorm:"type:varchar(20);not null;uniqueIndex:idx_source_external"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
