package handlers

import (
	"github.com/darren/kanbo-api/internal/middleware"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func CreateProject(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	if req.Type == "" {
		req.Type = models.ProjectTypePrivate
	}
	if req.Type != models.ProjectTypePrivate && req.Type != models.ProjectTypeShared {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Type must be private or shared",
		})
	}

	creation, err := services.CreateProject(userID, req.Name, req.Type)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(creation)
}

func GetProjects(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	projects, err := services.ListUserProjects(userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(projects)
}

func GetProject(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	project, err := services.GetProject(userID, projectID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(project)
}

func TransferOwnership(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var req models.TransferOwnershipRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	project, newOwner, err := services.TransferOwnership(userID, projectID, req.UserID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"item": project,
		"included": fiber.Map{
			"users": []models.UserSummary{newOwner.Summary()},
		},
	})
}
