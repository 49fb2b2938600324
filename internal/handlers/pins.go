package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/database"
	"github.com/pinly/pinly-api/internal/middleware"
	"github.com/pinly/pinly-api/internal/models"
)

// CreatePin creates a pin. Title and description go through the safety
// gate; the image itself is uploaded elsewhere and referenced by URL.
func CreatePin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreatePinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title and image URL are required",
		})
	}

	if !isSafe(c, req.Title) || !isSafe(c, req.Description) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Your content contains inappropriate language. Please rephrase.",
		})
	}

	pin := models.Pin{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := database.DB.Create(&pin).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create pin",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(pin)
}

func GetPins(c *fiber.Ctx) error {
	var pins []models.Pin
	if err := database.DB.Preload("User").Order("created_at DESC").Limit(50).Find(&pins).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load pins",
		})
	}
	return c.JSON(pins)
}

func GetPin(c *fiber.Ctx) error {
	pinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pin ID",
		})
	}

	var pin models.Pin
	if err := database.DB.Preload("User").Preload("Comments.User").First(&pin, "id = ?", pinID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Pin not found",
		})
	}

	var likes int64
	database.DB.Model(&models.PinLike{}).Where("pin_id = ?", pinID).Count(&likes)

	return c.JSON(fiber.Map{
		"pin":   pin,
		"likes": likes,
	})
}

// LikePin toggles the caller's like on a pin and notifies the author.
func LikePin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pin ID",
		})
	}

	var pin models.Pin
	if err := database.DB.First(&pin, "id = ?", pinID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Pin not found",
		})
	}

	var existing models.PinLike
	if err := database.DB.Where("pin_id = ? AND user_id = ?", pinID, userID).First(&existing).Error; err == nil {
		database.DB.Delete(&existing)
		return c.JSON(fiber.Map{"liked": false})
	}

	like := models.PinLike{PinID: pinID, UserID: userID}
	if err := database.DB.Create(&like).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to like pin",
		})
	}

	if pin.UserID != userID {
		var liker models.User
		database.DB.First(&liker, "id = ?", userID)
		notif := models.Notification{
			SenderID:    userID,
			RecipientID: pin.UserID,
			Kind:        models.NotifPinLiked,
			Text:        "liked your pin \"" + pin.Title + "\"",
			PinID:       &pin.ID,
		}
		Chat.Notify(c.Context(), &notif, "New like", liker.Name()+" liked \""+pin.Title+"\"")
	}

	return c.JSON(fiber.Map{"liked": true})
}

// AddComment comments on a pin (safety-gated) and notifies the pin author.
func AddComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pin ID",
		})
	}

	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment content is required",
		})
	}

	if !isSafe(c, req.Content) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Your content contains inappropriate language. Please rephrase.",
		})
	}

	var pin models.Pin
	if err := database.DB.First(&pin, "id = ?", pinID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Pin not found",
		})
	}

	comment := models.Comment{
		PinID:   pinID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add comment",
		})
	}
	database.DB.Preload("User").First(&comment, "id = ?", comment.ID)

	if pin.UserID != userID {
		notif := models.Notification{
			SenderID:    userID,
			RecipientID: pin.UserID,
			Kind:        models.NotifCommentPosted,
			Text:        "commented on \"" + pin.Title + "\"",
			PinID:       &pin.ID,
		}
		Chat.Notify(c.Context(), &notif, "New comment", comment.User.Name()+" commented on \""+pin.Title+"\"")
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// LikeComment toggles a like on a comment and notifies its author.
func LikeComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid comment ID",
		})
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	var existing models.CommentLike
	if err := database.DB.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error; err == nil {
		database.DB.Delete(&existing)
		return c.JSON(fiber.Map{"liked": false})
	}

	like := models.CommentLike{CommentID: commentID, UserID: userID}
	if err := database.DB.Create(&like).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to like comment",
		})
	}

	if comment.UserID != userID {
		var liker models.User
		database.DB.First(&liker, "id = ?", userID)
		notif := models.Notification{
			SenderID:    userID,
			RecipientID: comment.UserID,
			Kind:        models.NotifCommentLiked,
			Text:        "liked your comment",
			PinID:       &comment.PinID,
		}
		Chat.Notify(c.Context(), &notif, "New like", liker.Name()+" liked your comment")
	}

	return c.JSON(fiber.Map{"liked": true})
}

// DeleteComment deletes a comment (only by the comment author)
func DeleteComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid comment ID",
		})
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	if comment.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only delete your own comments",
		})
	}

	database.DB.Delete(&comment)
	return c.JSON(fiber.Map{"success": true})
}
