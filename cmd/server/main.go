package main

import (
	"log"

	"github.com/joho/godotenv"

	"toolcheck/internal/app"
)

func main() {
	// Optional .env for local runs; real deployments set env vars.
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
