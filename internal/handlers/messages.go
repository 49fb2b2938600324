package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/middleware"
	"github.com/pinly/pinly-api/internal/models"
)

func SendMessage(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	var req models.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	msg, err := Chat.SendMessage(c.Context(), actor, conversationID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func EditMessage(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid message ID",
		})
	}

	var req models.EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	msg, err := Chat.EditMessage(c.Context(), actor, messageID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

func DeleteMessage(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid message ID",
		})
	}

	if err := Chat.DeleteMessage(c.Context(), actor, messageID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
