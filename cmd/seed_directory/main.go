package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"virtual-office-backend/internal/config"
	"virtual-office-backend/internal/database"
	"virtual-office-backend/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadDatabase()

	// Connect to database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Database connected. Seeding AI assistants...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := service.NewDirectoryService(db).SeedAssistants(ctx)
	if err != nil {
		log.Fatalf("Failed to seed assistants: %v", err)
	}

	log.Printf("Directory seeded: %d assistant(s) created, %d already present.", created, len(service.DefaultAssistants())-created)
}
