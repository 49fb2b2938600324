package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pinly/pinly-api/internal/handlers"
	"github.com/pinly/pinly-api/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)
	protected.Get("/users/search", handlers.SearchUsers)
	protected.Post("/users/:id/follow", handlers.FollowUser)
	protected.Delete("/users/:id/follow", handlers.UnfollowUser)

	conversations := protected.Group("/conversations")
	conversations.Get("/", handlers.GetConversations)
	conversations.Post("/", handlers.CreateGroup)
	conversations.Get("/discoverable", handlers.GetDiscoverable)
	conversations.Post("/direct", handlers.CreateDirect)
	conversations.Get("/:id", handlers.GetConversation)
	conversations.Post("/:id/join", handlers.JoinConversation)
	conversations.Post("/:id/members", handlers.AddMember)
	conversations.Post("/:id/members/:userId/accept", handlers.AcceptMember)
	conversations.Post("/:id/members/:userId/decline", handlers.DeclineMember)
	conversations.Delete("/:id/members/:userId", handlers.RemoveMember)
	conversations.Post("/:id/members/:userId/moderator", handlers.ToggleModerator)
	conversations.Post("/:id/leave", handlers.LeaveConversation)
	conversations.Post("/:id/block", handlers.ToggleBlock)
	conversations.Post("/:id/messages", handlers.SendMessage)

	messages := protected.Group("/messages")
	messages.Put("/:id", handlers.EditMessage)
	messages.Delete("/:id", handlers.DeleteMessage)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)
	notifications.Post("/:id/respond", handlers.RespondToRequest)

	// Pins & comments
	pins := protected.Group("/pins")
	pins.Get("/", handlers.GetPins)
	pins.Post("/", handlers.CreatePin)
	pins.Get("/:id", handlers.GetPin)
	pins.Post("/:id/like", handlers.LikePin)
	pins.Post("/:id/comments", handlers.AddComment)

	comments := protected.Group("/comments")
	comments.Post("/:id/like", handlers.LikeComment)
	comments.Delete("/:id", handlers.DeleteComment)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)
}
