package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/database"
	"github.com/pinly/pinly-api/internal/middleware"
	"github.com/pinly/pinly-api/internal/models"
)

func GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(user)
}

func UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		if !isSafe(c, *req.Bio) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Your content contains inappropriate language. Please rephrase.",
			})
		}
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update profile",
			})
		}
	}

	var user models.User
	database.DB.First(&user, "id = ?", userID)
	return c.JSON(user)
}

// SearchUsers finds users by username fragment for the add-member flow.
// The caller, administrators and existing members of the given
// conversation are excluded.
func SearchUsers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	term := c.Query("q")

	query := database.DB.Model(&models.User{}).
		Where("id != ?", userID).
		Where("is_admin = ?", false)

	if conversationID, err := uuid.Parse(c.Query("conversationId")); err == nil {
		memberIDs := database.DB.Model(&models.Membership{}).
			Select("user_id").
			Where("conversation_id = ?", conversationID)
		query = query.Where("id NOT IN (?)", memberIDs)
	}

	if term != "" {
		query = query.Where("username LIKE ?", "%"+term+"%")
	}

	var users []models.UserSummary
	if err := query.Select("id", "username", "avatar_url").Limit(5).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(users)
}
