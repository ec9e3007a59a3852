package main

import (
	"log"

	"github.com/darren/kanbo-api/internal/config"
	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/routes"
	"github.com/darren/kanbo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	godotenv.Load()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitPush(cfg.FCMServiceAccount)

	app := fiber.New(fiber.Config{
		AppName: "kanbo-api",
	})

	routes.Setup(app)

	log.Printf("Listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
