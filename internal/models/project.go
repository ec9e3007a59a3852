package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project types accepted at creation.
const (
	ProjectTypePrivate = "private"
	ProjectTypeShared  = "shared"
)

// Project is the top-level container boards live in. A nil
// OwnerProjectManagerID marks a team project (flat shared ownership); a
// non-nil one points at the manager record of the single current owner.
type Project struct {
	ID                    uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name                  string     `json:"name" gorm:"not null"`
	OwnerProjectManagerID *uuid.UUID `json:"ownerProjectManagerId" gorm:"type:uuid"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	DeletedAt             gorm.DeletedAt `json:"-" gorm:"index"`

	Boards []Board `json:"boards,omitempty" gorm:"foreignKey:ProjectID"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTeamProject reports whether the project has no single owner.
func (p *Project) IsTeamProject() bool {
	return p.OwnerProjectManagerID == nil
}

// ProjectManager is the legacy binary manager record, kept in lockstep with
// ProjectMembership for backward compatibility with clients that predate the
// fine-grained permission model.
type ProjectManager struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID      `json:"projectId" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (pmgr *ProjectManager) BeforeCreate(tx *gorm.DB) error {
	if pmgr.ID == uuid.Nil {
		pmgr.ID = uuid.New()
	}
	return nil
}

// Project DTOs
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
}

type TransferOwnershipRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}
