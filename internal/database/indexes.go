package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	barcodeIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "barcode", Value: 1}},
		Options: options.Index().
			SetName("barcode_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"barcode": bson.M{"$type": "string"},
			}),
	}

	log.Println("EnsureProductIndexes: creating barcode_unique index")
	if _, err := indexes.CreateOne(ctx, barcodeIndex); err != nil {
		log.Println("EnsureProductIndexes: barcode index error:", err)
		return err
	}
	return nil
}

// EnsureSaleIndexes makes the sales store the final arbiter of saleId
// uniqueness: a colliding insert fails with a duplicate-key error and the
// engine retries with a fresh id. The createdAt index backs the
// newest-first reporting queries.
func EnsureSaleIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("sales").Indexes()

	saleIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "saleId", Value: 1}},
		Options: options.Index().
			SetName("saleId_unique").
			SetUnique(true),
	}
	createdAtIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	}

	log.Println("EnsureSaleIndexes: creating saleId_unique and createdAt_desc indexes")
	if _, err := indexes.CreateMany(ctx, []mongo.IndexModel{saleIDIndex, createdAtIndex}); err != nil {
		log.Println("EnsureSaleIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	if _, err := indexes.CreateOne(ctx, emailIndex); err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}
