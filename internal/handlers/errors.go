package handlers

import (
	"errors"

	"github.com/darren/kanbo-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

// serviceError maps a service-layer error to an HTTP response. Not-found
// hides existence, rights failures are 403, duplicates 409, and invariant
// violations (last manager, self checks, team transfer) are 422.
func serviceError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrMembershipNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrBoardNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrNotEnoughRights):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrAlreadyMember):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrCannotRemoveSelf),
		errors.Is(err, services.ErrCannotChangeOwnRole),
		errors.Is(err, services.ErrCannotRemoveLastManager),
		errors.Is(err, services.ErrCannotDemoteLastManager),
		errors.Is(err, services.ErrCannotTransferTeamProject):
		status = fiber.StatusUnprocessableEntity
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
