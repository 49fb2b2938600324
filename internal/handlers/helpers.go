package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pinly/pinly-api/internal/chat"
)

// Chat is the conversation service behind the chat, message and
// notification handlers. Gate vets user text in the routine handlers.
var (
	Chat *chat.Service
	Gate chat.SafetyGate
)

var validate = validator.New()

// Init wires the handler package to its collaborators. Called once from main.
func Init(service *chat.Service, gate chat.SafetyGate) {
	Chat = service
	Gate = gate
}

func isSafe(c *fiber.Ctx, text string) bool {
	if Gate == nil {
		return true
	}
	return Gate.IsSafe(c.Context(), text)
}

// respondError maps service failures to HTTP. Forbidden collapses into the
// same 404 as NotFound so a non-member cannot tell a conversation they may
// not touch from one that does not exist.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, chat.ErrForbidden):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, chat.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request",
		})
	case errors.Is(err, chat.ErrContentRejected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Your content contains inappropriate language. Please rephrase.",
		})
	case errors.Is(err, chat.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Conflict with current state",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}
}
