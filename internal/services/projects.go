package services

import (
	"errors"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/realtime"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectCreation is everything seeded when a project is created.
type ProjectCreation struct {
	Project        models.Project            `json:"project"`
	ProjectManager models.ProjectManager     `json:"projectManager"`
	Membership     models.ProjectMembership  `json:"membership"`
	Boards         []models.Board            `json:"boards"`
}

// CreateProject creates a project and its initial membership set in one
// transaction.
//
// A private project gets an owner reference pointing at the creator's manager
// record and a single owner-role membership with every capability explicitly
// granted. A shared (team) project keeps the owner reference unset and seeds
// a membership for every user in the system: the creator as manager, everyone
// else as viewer with read-only access, plus legacy manager records for all
// of them (transitional, scheduled for removal).
func CreateProject(creatorID uuid.UUID, name, projType string) (*ProjectCreation, error) {
	var (
		project    models.Project
		manager    models.ProjectManager
		membership models.ProjectMembership
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.First(&creator, "id = ?", creatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		project = models.Project{Name: name}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		// The creator's manager record comes first: private projects hang
		// their owner reference off it.
		manager = models.ProjectManager{
			ProjectID: project.ID,
			UserID:    creatorID,
		}
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}

		if projType == models.ProjectTypePrivate {
			project.OwnerProjectManagerID = &manager.ID
			if err := tx.Save(&project).Error; err != nil {
				return err
			}

			membership = models.ProjectMembership{
				ProjectID: project.ID,
				UserID:    creatorID,
				Role:      models.RoleOwner,
			}
			membership.SetCapabilities(models.FullCapabilities())
			return tx.Create(&membership).Error
		}

		// Team project: seed a membership for every user in the system.
		var users []models.User
		if err := tx.Find(&users).Error; err != nil {
			return err
		}

		for _, u := range users {
			role := models.RoleViewer
			if u.ID == creatorID {
				role = models.RoleManager
			}
			pm := models.ProjectMembership{
				ProjectID: project.ID,
				UserID:    u.ID,
				Role:      role,
			}
			pm.SetCapabilities(models.RoleDefaults[role])
			if err := tx.Create(&pm).Error; err != nil {
				return err
			}
			if u.ID == creatorID {
				membership = pm
			}

			// Back-fill legacy manager records for everyone else too, so
			// old clients keep seeing team members. Will be phased out.
			if u.ID != creatorID {
				legacy := models.ProjectManager{
					ProjectID: project.ID,
					UserID:    u.ID,
				}
				if err := tx.Create(&legacy).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ProjectCreation{
		Project:        project,
		ProjectManager: manager,
		Membership:     membership,
		Boards:         []models.Board{},
	}, nil
}

// TransferOwnership moves a private project's owner reference from the
// current owner to another user, inside one transaction.
//
// The new owner's membership is created or upgraded in place to manager with
// every capability granted, never downgraded. The previous owner is demoted
// to manager but keeps project access. Transferring to the current owner is
// a no-op: the project is returned unchanged and no manager record is
// duplicated.
func TransferOwnership(actorID, projectID, newOwnerUserID uuid.UUID) (*models.Project, *models.User, error) {
	var (
		project   models.Project
		newOwner  models.User
		memberIDs []uuid.UUID
		noop      bool
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		if project.OwnerProjectManagerID == nil {
			return ErrCannotTransferTeamProject
		}

		// Ownership is resolved through the owner reference -> manager
		// record -> user chain, not the membership role string.
		var ownerManager models.ProjectManager
		err := tx.First(&ownerManager, "id = ?", *project.OwnerProjectManagerID).Error
		if err != nil || ownerManager.UserID != actorID {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return ErrNotEnoughRights
		}

		if err := tx.First(&newOwner, "id = ?", newOwnerUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if newOwnerUserID == actorID {
			noop = true
			return nil
		}

		var targetMembership models.ProjectMembership
		err = tx.Where("project_id = ? AND user_id = ?", projectID, newOwnerUserID).
			First(&targetMembership).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			targetMembership = models.ProjectMembership{
				ProjectID: projectID,
				UserID:    newOwnerUserID,
				Role:      models.RoleManager,
			}
			targetMembership.SetCapabilities(models.FullCapabilities())
			if err := tx.Create(&targetMembership).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			targetMembership.Role = models.RoleManager
			targetMembership.SetCapabilities(models.FullCapabilities())
			if err := tx.Save(&targetMembership).Error; err != nil {
				return err
			}
		}

		var targetManager models.ProjectManager
		err = tx.Where("project_id = ? AND user_id = ?", projectID, newOwnerUserID).
			First(&targetManager).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			targetManager = models.ProjectManager{
				ProjectID: projectID,
				UserID:    newOwnerUserID,
			}
			if err := tx.Create(&targetManager).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// The pivot: repoint the owner reference, then demote the previous
		// owner. Both happen inside this transaction so a replay can never
		// observe two plausible owners.
		project.OwnerProjectManagerID = &targetManager.ID
		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		var previousMembership models.ProjectMembership
		err = tx.Where("project_id = ? AND user_id = ?", projectID, actorID).
			First(&previousMembership).Error
		if err == nil {
			previousMembership.Role = models.RoleManager
			if err := tx.Save(&previousMembership).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var memberships []models.ProjectMembership
		if err := tx.Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
			return err
		}
		for _, pm := range memberships {
			memberIDs = append(memberIDs, pm.UserID)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if noop {
		return &project, &newOwner, nil
	}

	for _, memberID := range memberIDs {
		realtime.Broadcast(memberID, realtime.Event{
			Type: realtime.EventOwnershipTransfer,
			Item: project,
			Data: map[string]interface{}{
				"newOwnerId":      newOwnerUserID.String(),
				"previousOwnerId": actorID.String(),
			},
		})
	}
	Notify(newOwnerUserID, "ownership_transferred", "Project ownership",
		"You are now the owner of "+project.Name, map[string]interface{}{
			"projectId": projectID.String(),
		})

	return &project, &newOwner, nil
}

// GetProject returns a project visible to the user, hiding its existence from
// everyone else.
func GetProject(actorID, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	visible, err := canViewProject(database.DB, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrProjectNotFound
	}

	return &project, nil
}

// ListUserProjects returns every project the user belongs to, through either
// a membership or a legacy manager record.
func ListUserProjects(userID uuid.UUID) ([]models.Project, error) {
	db := database.DB

	ids := map[uuid.UUID]bool{}

	var memberships []models.ProjectMembership
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	for _, pm := range memberships {
		ids[pm.ProjectID] = true
	}

	var managers []models.ProjectManager
	if err := db.Where("user_id = ?", userID).Find(&managers).Error; err != nil {
		return nil, err
	}
	for _, m := range managers {
		ids[m.ProjectID] = true
	}

	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	projectIDs := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		projectIDs = append(projectIDs, id)
	}

	var projects []models.Project
	if err := db.Where("id IN ?", projectIDs).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}
