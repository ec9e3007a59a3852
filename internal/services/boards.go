package services

import (
	"errors"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/realtime"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoardCreation is a new board plus the memberships seeded with it.
type BoardCreation struct {
	Board       models.Board             `json:"board"`
	Memberships []models.BoardMembership `json:"memberships"`
}

// CreateBoard creates a board and seeds its memberships in one transaction.
//
// On a team project every project member above the viewer/guest tier gets a
// board membership: the creator as editor, everyone else as viewer. On a
// private project only the creator is added; other members join boards only
// at board-creation time.
func CreateBoard(actorID, projectID uuid.UUID, name string) (*BoardCreation, error) {
	var (
		board       models.Board
		memberships []models.BoardMembership
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		allowed, err := canCreateBoard(tx, actorID, projectID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotEnoughRights
		}

		var position int64
		if err := tx.Model(&models.Board{}).Where("project_id = ?", projectID).Count(&position).Error; err != nil {
			return err
		}

		board = models.Board{
			ProjectID: projectID,
			Name:      name,
			Position:  int(position),
		}
		if err := tx.Create(&board).Error; err != nil {
			return err
		}

		if project.IsTeamProject() {
			var projectMemberships []models.ProjectMembership
			if err := tx.Where("project_id = ?", projectID).Find(&projectMemberships).Error; err != nil {
				return err
			}

			for _, pm := range projectMemberships {
				// Viewers and guests see the project but don't get board
				// access automatically.
				if pm.Role == models.RoleViewer || pm.Role == models.RoleGuest {
					continue
				}
				role := models.BoardRoleViewer
				if pm.UserID == actorID {
					role = models.BoardRoleEditor
				}
				bm := models.BoardMembership{
					ProjectID: projectID,
					BoardID:   board.ID,
					UserID:    pm.UserID,
					Role:      role,
				}
				if err := tx.Create(&bm).Error; err != nil {
					return err
				}
				memberships = append(memberships, bm)
			}
			return nil
		}

		bm := models.BoardMembership{
			ProjectID: projectID,
			BoardID:   board.ID,
			UserID:    actorID,
			Role:      models.BoardRoleEditor,
		}
		if err := tx.Create(&bm).Error; err != nil {
			return err
		}
		memberships = append(memberships, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, bm := range memberships {
		if bm.UserID == actorID {
			continue
		}
		realtime.Broadcast(bm.UserID, realtime.Event{
			Type: realtime.EventBoardCreate,
			Item: board,
		})
	}

	return &BoardCreation{Board: board, Memberships: memberships}, nil
}

// ListProjectBoards returns a project's boards, subject to the same
// visibility rule as the member listing.
func ListProjectBoards(actorID, projectID uuid.UUID) ([]models.Board, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	visible, err := canViewProject(db, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrProjectNotFound
	}

	var boards []models.Board
	if err := db.Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&boards).Error; err != nil {
		return nil, err
	}

	return boards, nil
}
