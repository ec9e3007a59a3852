package services

import (
	"errors"
	"sort"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/realtime"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateMembership grants a user access to a project. The membership row, the
// legacy manager record and any cascaded board memberships are written in one
// transaction; the change event goes out only after commit.
//
// Capabilities supplied in the request are stored as explicit overrides;
// everything else stays NULL and defers to the role default.
func CreateMembership(actorID, projectID uuid.UUID, req models.CreateMembershipRequest) (*models.ProjectMembership, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	var (
		project    models.Project
		target     models.User
		membership models.ProjectMembership
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		allowed, err := canManageProjectMembers(tx, actorID, projectID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotEnoughRights
		}

		if err := tx.First(&target, "id = ?", req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var existing models.ProjectMembership
		err = tx.Where("project_id = ? AND user_id = ?", projectID, req.UserID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		membership = models.ProjectMembership{
			ProjectID: projectID,
			UserID:    req.UserID,
			Role:      role,
		}
		req.CapabilityOverrides.Apply(&membership)

		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		// Legacy manager record, created for every role so that old clients
		// keep seeing the member at all.
		manager := models.ProjectManager{
			ProjectID: projectID,
			UserID:    req.UserID,
		}
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}

		// Team projects grant implicit minimal board visibility on join.
		if project.IsTeamProject() {
			var boards []models.Board
			if err := tx.Where("project_id = ?", projectID).Find(&boards).Error; err != nil {
				return err
			}
			for _, board := range boards {
				bm := models.BoardMembership{
					ProjectID: projectID,
					BoardID:   board.ID,
					UserID:    req.UserID,
					Role:      models.BoardRoleViewer,
				}
				if err := tx.Create(&bm).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	membership.User = target

	realtime.Broadcast(target.ID, realtime.Event{
		Type: realtime.EventMembershipCreate,
		Item: membership,
		Included: map[string]interface{}{
			"projects": []models.Project{project},
			"users":    []models.UserSummary{target.Summary()},
		},
	})
	Notify(target.ID, "membership_created", "Added to project",
		"You were added to "+project.Name, map[string]interface{}{
			"projectId": projectID.String(),
		})

	return &membership, nil
}

// UpdateMembership changes a membership's role and/or capability overrides.
// A role change first clears all fourteen overrides (back to role defaults),
// then overrides supplied in the same call are re-applied on top.
//
// Guard order: not found, rights, own-role, last-manager. The self guard wins
// when several would trigger.
func UpdateMembership(actorID, membershipID uuid.UUID, req models.UpdateMembershipRequest) (*models.ProjectMembership, error) {
	var (
		membership models.ProjectMembership
		project    models.Project
		target     models.User
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&membership, "id = ?", membershipID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}

		allowed, err := canManageProjectMembers(tx, actorID, membership.ProjectID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotEnoughRights
		}

		if req.Role != nil {
			if membership.UserID == actorID {
				return ErrCannotChangeOwnRole
			}

			// Demoting below the manager tier must leave at least one
			// manager-tier membership behind.
			if membership.ManagerTier() && models.RoleTier(*req.Role) != 0 {
				managers, err := countManagerTier(tx, membership.ProjectID)
				if err != nil {
					return err
				}
				if managers <= 1 {
					return ErrCannotDemoteLastManager
				}
			}

			membership.Role = *req.Role
			membership.ClearCapabilities()
		}

		req.CapabilityOverrides.Apply(&membership)

		return tx.Save(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	database.DB.First(&project, "id = ?", membership.ProjectID)
	database.DB.First(&target, "id = ?", membership.UserID)
	membership.User = target

	realtime.Broadcast(membership.UserID, realtime.Event{
		Type: realtime.EventMembershipUpdate,
		Item: membership,
		Included: map[string]interface{}{
			"projects": []models.Project{project},
			"users":    []models.UserSummary{target.Summary()},
		},
	})
	Notify(membership.UserID, "membership_updated", "Project role updated",
		"Your access to "+project.Name+" changed", map[string]interface{}{
			"projectId": membership.ProjectID.String(),
		})

	return &membership, nil
}

// DeleteMembership removes a user from a project, cascading over the legacy
// manager record and every board membership the user holds in the project.
//
// Guard order: not found, rights, self-removal, last-manager. An actor who is
// the sole manager removing themselves gets ErrCannotRemoveSelf.
func DeleteMembership(actorID, membershipID uuid.UUID) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&membership, "id = ?", membershipID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}

		allowed, err := canManageProjectMembers(tx, actorID, membership.ProjectID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotEnoughRights
		}

		if membership.UserID == actorID {
			return ErrCannotRemoveSelf
		}

		if membership.ManagerTier() {
			managers, err := countManagerTier(tx, membership.ProjectID)
			if err != nil {
				return err
			}
			if managers <= 1 {
				return ErrCannotRemoveLastManager
			}
		}

		if err := tx.Delete(&membership).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ? AND user_id = ?", membership.ProjectID, membership.UserID).
			Delete(&models.ProjectManager{}).Error; err != nil {
			return err
		}

		// A removed project member retains no board access in the project.
		return tx.Where("project_id = ? AND user_id = ?", membership.ProjectID, membership.UserID).
			Delete(&models.BoardMembership{}).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.Broadcast(membership.UserID, realtime.Event{
		Type: realtime.EventMembershipDelete,
		Item: membership,
	})
	Notify(membership.UserID, "membership_deleted", "Removed from project", "",
		map[string]interface{}{
			"projectId": membership.ProjectID.String(),
		})

	return &membership, nil
}

// MembershipListMeta is the summary returned with a project's member listing.
type MembershipListMeta struct {
	ProjectID            uuid.UUID  `json:"projectId"`
	ProjectName          string     `json:"projectName"`
	IsTeamProject        bool       `json:"isTeamProject"`
	OwnerID              *uuid.UUID `json:"ownerId"`
	CurrentUserCanManage bool       `json:"currentUserCanManage"`
}

// ListProjectMemberships returns a project's memberships with user records
// preloaded, sorted by role tier, then creation time, then id. Visible to
// project members, legacy managers, holders of any board membership in the
// project, and admins; everyone else gets ErrProjectNotFound.
func ListProjectMemberships(actorID, projectID uuid.UUID) ([]models.ProjectMembership, *MembershipListMeta, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, err
	}

	visible, err := canViewProject(db, actorID, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !visible {
		return nil, nil, ErrProjectNotFound
	}

	var memberships []models.ProjectMembership
	if err := db.Where("project_id = ?", projectID).
		Preload("User").
		Find(&memberships).Error; err != nil {
		return nil, nil, err
	}

	sort.Slice(memberships, func(i, j int) bool {
		ti, tj := models.RoleTier(memberships[i].Role), models.RoleTier(memberships[j].Role)
		if ti != tj {
			return ti < tj
		}
		if !memberships[i].CreatedAt.Equal(memberships[j].CreatedAt) {
			return memberships[i].CreatedAt.Before(memberships[j].CreatedAt)
		}
		return memberships[i].ID.String() < memberships[j].ID.String()
	})

	meta := &MembershipListMeta{
		ProjectID:     projectID,
		ProjectName:   project.Name,
		IsTeamProject: project.IsTeamProject(),
	}

	if project.OwnerProjectManagerID != nil {
		var owner models.ProjectManager
		if err := db.First(&owner, "id = ?", *project.OwnerProjectManagerID).Error; err == nil {
			meta.OwnerID = &owner.UserID
		}
	}

	canManage, err := canManageProjectMembers(db, actorID, projectID)
	if err != nil {
		return nil, nil, err
	}
	meta.CurrentUserCanManage = canManage

	return memberships, meta, nil
}

// canViewProject reports whether a user may see a project's member list:
// membership, legacy manager record, any board membership, or admin.
func canViewProject(db *gorm.DB, userID, projectID uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&models.BoardMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	return legacyManagerOrAdmin(db, userID, projectID)
}

func countManagerTier(tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND role IN ?", projectID, []string{models.RoleOwner, models.RoleManager}).
		Count(&count).Error
	return count, err
}
