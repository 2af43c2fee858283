// Command seedadmin upserts the default administrator account. It is an
// explicit, idempotent deployment step and deliberately not part of the
// request-serving startup: run it once per environment, rerun freely.
package main

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"ProjectHub/internal/auth"
	"ProjectHub/internal/bootstrap"
	"ProjectHub/internal/config"
)

func main() {
	bootstrap.LoadEnv()

	logger, err := config.NewLogger()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	mongoCfg, err := config.NewMongoConfig()
	if err != nil {
		logger.Fatal("invalid Mongo configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := config.DialMongo(ctx, mongoCfg)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	collection := client.Database(mongoCfg.Database).Collection("accounts")
	if err := config.EnsureAccountIndexes(ctx, collection); err != nil {
		logger.Fatal("failed to ensure account indexes", zap.Error(err))
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		logger.Fatal("failed to hash admin password", zap.Error(err))
	}

	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":            primitive.NewObjectID(),
			"student_code":   "ADMIN01",
			"name":           name,
			"email":          email,
			"password_hash":  passwordHash,
			"role":           auth.RoleAdmin,
			"email_verified": true,
			"created_at":     now,
			"updated_at":     now,
		},
	}
	res, err := collection.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		logger.Fatal("failed to seed administrator", zap.Error(err))
	}
	if res.UpsertedCount > 0 {
		logger.Info("administrator account created", zap.String("email", email))
	} else {
		logger.Info("administrator account already present, nothing to do", zap.String("email", email))
	}
}
