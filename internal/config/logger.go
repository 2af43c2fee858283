package config

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the process-wide structured logger. Production mode is
// selected with APP_ENV=production; anything else gets the human-readable
// development encoder.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
