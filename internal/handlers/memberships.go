package handlers

import (
	"github.com/darren/kanbo-api/internal/middleware"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// membershipItem is the membership plus the denormalized user snapshot.
type membershipItem struct {
	models.ProjectMembership
	UserSummary models.UserSummary `json:"userSummary"`
}

// GetProjectMembers lists a project's memberships with user summaries.
func GetProjectMembers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	memberships, meta, err := services.ListProjectMemberships(userID, projectID)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]membershipItem, len(memberships))
	for i, pm := range memberships {
		items[i] = membershipItem{ProjectMembership: pm, UserSummary: pm.User.Summary()}
	}

	return c.JSON(fiber.Map{
		"items": items,
		"meta":  meta,
	})
}

// CreateProjectMembership adds a user to a project.
func CreateProjectMembership(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var req models.CreateMembershipRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	if req.Role != "" && !models.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role",
		})
	}

	membership, err := services.CreateMembership(userID, projectID, req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item": membership,
		"included": fiber.Map{
			"users": []models.UserSummary{membership.User.Summary()},
		},
	})
}

// UpdateProjectMembership changes a membership's role or overrides.
func UpdateProjectMembership(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	membershipID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid membership ID",
		})
	}

	var req models.UpdateMembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Role != nil && !models.IsValidRole(*req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role",
		})
	}

	membership, err := services.UpdateMembership(userID, membershipID, req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"item": membership,
	})
}

// DeleteProjectMembership removes a member from a project.
func DeleteProjectMembership(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	membershipID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid membership ID",
		})
	}

	membership, err := services.DeleteMembership(userID, membershipID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"item": membership,
	})
}

// GetProjectPermissions exposes the effective permission vector so other
// clients can gate unrelated actions on it.
func GetProjectPermissions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	perms, err := services.ResolveProjectPermissions(userID, projectID)
	if err != nil {
		return serviceError(c, err)
	}
	if perms == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No access to this project",
		})
	}

	return c.JSON(perms)
}
