package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads the local .env file if one exists. Deployed environments
// provide real environment variables instead, so a missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
}
