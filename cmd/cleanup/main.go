package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-bms/internal/config"
)

// One-shot maintenance pass: deactivates every role assignment whose
// validity window has passed. The API process runs the same sweep on a
// schedule; this exists for operators who want to force it.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.DBName)
	now := time.Now().UTC()

	res, err := db.Collection("role_assignments").UpdateMany(ctx,
		bson.M{
			"is_active":   true,
			"valid_until": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": now}})
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	fmt.Printf("Deactivated %d expired role assignments\n", res.ModifiedCount)
}
