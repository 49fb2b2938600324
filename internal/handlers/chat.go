package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/middleware"
	"github.com/pinly/pinly-api/internal/models"
)

// CreateGroup creates a group conversation owned by the caller.
func CreateGroup(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)

	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Group name is required",
		})
	}

	conv, err := Chat.CreateGroup(c.Context(), actor, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// CreateDirect finds or creates the DM between the caller and the target.
func CreateDirect(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)

	var req models.CreateDirectRequest
	if err := c.BodyParser(&req); err != nil || req.TargetID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Target user is required",
		})
	}

	conv, err := Chat.CreateDirect(c.Context(), actor, req.TargetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conv)
}

func GetConversations(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)

	summaries, err := Chat.ListConversations(c.Context(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries)
}

func GetDiscoverable(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)

	groups, err := Chat.ListDiscoverable(c.Context(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

func GetConversation(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	view, err := Chat.GetConversation(c.Context(), actor, conversationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// JoinConversation files a join request against a discoverable group.
func JoinConversation(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	if err := Chat.Join(c.Context(), actor, conversationID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request sent. Waiting for approval."})
}

func AcceptMember(c *fiber.Ctx) error {
	return resolveJoin(c, true)
}

func DeclineMember(c *fiber.Ctx) error {
	return resolveJoin(c, false)
}

func resolveJoin(c *fiber.Ctx, accept bool) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if accept {
		err = Chat.AcceptJoin(c.Context(), actor, conversationID, targetID)
	} else {
		err = Chat.DeclineJoin(c.Context(), actor, conversationID, targetID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AddMember adds a user by username to a private group.
func AddMember(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	var req models.AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	if err := Chat.AddMember(c.Context(), actor, conversationID, req.Username); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// RemoveMember kicks a member; removing yourself is the same as leaving.
func RemoveMember(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if err := Chat.RemoveMember(c.Context(), actor, conversationID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func LeaveConversation(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	if err := Chat.Leave(c.Context(), actor, conversationID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleModerator grants or revokes delegated moderation (owner only).
func ToggleModerator(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if err := Chat.ToggleModerator(c.Context(), actor, conversationID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ToggleBlock flips the caller's block flag on a direct conversation.
func ToggleBlock(c *fiber.Ctx) error {
	actor := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid conversation ID",
		})
	}

	if err := Chat.ToggleBlock(c.Context(), actor, conversationID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
