package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/database"
	"github.com/pinly/pinly-api/internal/middleware"
	"github.com/pinly/pinly-api/internal/models"
)

// FollowUser follows a user. Private accounts get a pending follow plus a
// request notification the target answers through the respond flow; public
// accounts accept immediately.
func FollowUser(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if targetID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot follow yourself",
		})
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var existing models.Follow
	if err := database.DB.Where("follower_id = ? AND followee_id = ?", userID, targetID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Already following or request pending",
		})
	}

	follow := models.Follow{
		FollowerID: userID,
		FolloweeID: targetID,
		IsAccepted: !target.IsPrivate,
	}
	if err := database.DB.Create(&follow).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to follow user",
		})
	}

	var follower models.User
	database.DB.First(&follower, "id = ?", userID)

	notif := models.Notification{
		SenderID:    userID,
		RecipientID: targetID,
	}
	if target.IsPrivate {
		notif.Kind = models.NotifFollowRequest
		notif.Text = "wants to follow you"
		Chat.Notify(c.Context(), &notif, "Follow request", follower.Name()+" wants to follow you")
	} else {
		notif.Kind = models.NotifFollow
		notif.Text = "started following you"
		Chat.Notify(c.Context(), &notif, "New follower", follower.Name()+" started following you")
	}

	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser removes a follow (accepted or pending).
func UnfollowUser(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	result := database.DB.Where("follower_id = ? AND followee_id = ?", userID, targetID).Delete(&models.Follow{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You are not following this user",
		})
	}

	// A withdrawn request leaves no stale notification behind.
	database.DB.Delete(&models.Notification{},
		"sender_id = ? AND recipient_id = ? AND kind IN ?",
		userID, targetID, []string{models.NotifFollow, models.NotifFollowRequest})

	return c.SendStatus(fiber.StatusNoContent)
}
