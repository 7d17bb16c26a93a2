package handler

import (
	"errors"

	"go-pharmacy-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// actorFromCtx builds the audit actor from the identity RequireAuth stashed
// in the request context.
func actorFromCtx(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: "system", Name: "System"}
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		actor.ID = id
	}
	if name, ok := c.Locals("user_name").(string); ok && name != "" {
		actor.Name = name
	}
	return actor
}

// statusForError maps service sentinel errors onto HTTP status codes. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, service.ErrMedicineNotFound),
		errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoleNotFound):
		return 404
	case errors.Is(err, service.ErrDuplicateBatch),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrPhoneExists):
		return 409
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicateMedicine),
		errors.Is(err, service.ErrPriceMismatch),
		errors.Is(err, service.ErrNotDraft),
		errors.Is(err, service.ErrIllegalDraftReversion),
		errors.Is(err, service.ErrNotExpired),
		errors.Is(err, service.ErrInsufficientQuantity),
		errors.Is(err, service.ErrNothingToDiscard):
		return 400
	default:
		return 500
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == 500 {
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
