package handlers

import (
	"github.com/darren/kanbo-api/internal/middleware"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/darren/kanbo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func CreateBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var req models.CreateBoardRequest
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

	creation, err := services.CreateBoard(userID, projectID, req.Name)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(creation)
}

func GetBoards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	boards, err := services.ListProjectBoards(userID, projectID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(boards)
}
