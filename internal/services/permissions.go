package services

import (
	"errors"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleAdmin marks the permission vector returned for system administrators
// who hold no membership in the project.
const RoleAdmin = "admin"

// ProjectPermissions is the effective capability vector of a user within a
// project, plus the role it was derived from.
type ProjectPermissions struct {
	Role string `json:"role"`
	models.Capabilities
}

// ResolveProjectPermissions computes the effective permission vector for a
// user in a project. Overrides stored on the membership win over role
// defaults. A system administrator without a membership resolves to the full
// vector with role "admin". A nil result with a nil error means no access;
// callers treat that as "not a member", not a failure.
func ResolveProjectPermissions(userID, projectID uuid.UUID) (*ProjectPermissions, error) {
	return resolveProjectPermissions(database.DB, userID, projectID)
}

func resolveProjectPermissions(db *gorm.DB, userID, projectID uuid.UUID) (*ProjectPermissions, error) {
	var membership models.ProjectMembership
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err == nil {
		return &ProjectPermissions{
			Role:         membership.Role,
			Capabilities: membership.EffectiveCapabilities(),
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	err = db.First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.IsAdmin {
		return &ProjectPermissions{
			Role:         RoleAdmin,
			Capabilities: models.FullCapabilities(),
		}, nil
	}

	return nil, nil
}

// CanManageProjectMembers reports whether the user may add, change or remove
// memberships in the project. Users without a membership fall back to the
// legacy manager record, which predates per-capability permissions.
func CanManageProjectMembers(userID, projectID uuid.UUID) (bool, error) {
	return canManageProjectMembers(database.DB, userID, projectID)
}

func canManageProjectMembers(db *gorm.DB, userID, projectID uuid.UUID) (bool, error) {
	var membership models.ProjectMembership
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err == nil {
		return membership.EffectiveCapabilities().CanManageMembers, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return legacyManagerOrAdmin(db, userID, projectID)
}

// CanCreateBoard reports whether the user may create boards in the project,
// with the same legacy manager fallback as CanManageProjectMembers.
func CanCreateBoard(userID, projectID uuid.UUID) (bool, error) {
	return canCreateBoard(database.DB, userID, projectID)
}

func canCreateBoard(db *gorm.DB, userID, projectID uuid.UUID) (bool, error) {
	var membership models.ProjectMembership
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err == nil {
		return membership.EffectiveCapabilities().CanCreateBoards, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return legacyManagerOrAdmin(db, userID, projectID)
}

// legacyManagerOrAdmin covers the two non-membership access paths: the
// backward-compatibility ProjectManager record (implicit manager-level
// access) and the system administrator override.
func legacyManagerOrAdmin(db *gorm.DB, userID, projectID uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.ProjectManager{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	var user models.User
	err := db.First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}
