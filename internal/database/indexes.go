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

	activeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("active_createdAt"),
	}

	log.Println("EnsureProductIndexes: creating active_createdAt index")
	if _, err := indexes.CreateOne(ctx, activeIndex); err != nil {
		log.Println("EnsureProductIndexes: active index error:", err)
		return err
	}
	return nil
}

// EnsureOrderIndexes creates the indexes the checkout relies on. The unique
// fingerprint index is what makes two racing writers end up with one order.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetName("fingerprint_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "stripePid", Value: 1}},
			Options: options.Index().SetName("stripePid_index"),
		},
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, orderIndexes); err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}

	lineItemIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetName("orderId_index"),
	}

	log.Println("EnsureOrderIndexes: creating orderId_index index")
	if _, err := db.Collection("order_line_items").Indexes().CreateOne(ctx, lineItemIndex); err != nil {
		log.Println("EnsureOrderIndexes: line item index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}
