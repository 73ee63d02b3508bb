package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/directory"
	"github.com/taskhub-dev/taskhub/internal/handlers"
	"github.com/taskhub-dev/taskhub/internal/repository"
	"github.com/taskhub-dev/taskhub/internal/router"
	"github.com/taskhub-dev/taskhub/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}

	auth.InitBlocklist()

	handlers.InitTaskService(services.NewTaskService(
		repository.NewGormTaskStore(db.DB),
		directory.NewGormDirectory(db.DB),
		services.NewSMTPMailerFromEnv(),
	))

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "8000"
		log.Println("PORT not set, defaulting to 8000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
