package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board membership roles.
const (
	BoardRoleEditor = "editor"
	BoardRoleViewer = "viewer"
)

// BoardMembership grants a project member access to a single board. ProjectID
// is denormalized so that removing a project member can cascade over every
// board of the project in one query.
type BoardMembership struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID      `json:"projectId" gorm:"type:uuid;index;not null"`
	BoardID   uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Role      string         `json:"role" gorm:"not null;default:'viewer'"` // editor, viewer
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations (for preloading)
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (bm *BoardMembership) BeforeCreate(tx *gorm.DB) error {
	if bm.ID == uuid.Nil {
		bm.ID = uuid.New()
	}
	return nil
}
