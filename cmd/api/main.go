package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/pinly/pinly-api/internal/chat"
	"github.com/pinly/pinly-api/internal/config"
	"github.com/pinly/pinly-api/internal/database"
	"github.com/pinly/pinly-api/internal/handlers"
	"github.com/pinly/pinly-api/internal/routes"
	"github.com/pinly/pinly-api/internal/services"
)

func main() {
	// .env is optional; real deployments set env vars directly
	godotenv.Load()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
		log.Fatalf("Failed to initialize push service: %v", err)
	}

	gate := services.NewSafetyGate(cfg.HuggingFaceAPIKey)
	handlers.Init(chat.New(database.DB, gate, services.Push), gate)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Setup(app)

	log.Printf("Listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
