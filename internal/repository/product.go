package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	SaleEnabled bool               `bson:"saleEnabled"`
	SalePrice   float64            `bson:"salePrice"`
	HasSizes    bool               `bson:"hasSizes"`
	Description string             `bson:"description,omitempty"`
	ImagePath   string             `bson:"imagePath,omitempty"`
	IsActive    bool               `bson:"isActive"`
	IsDeleted   bool               `bson:"isDeleted"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d productDocument) toModel() models.Product {
	p := models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       decimal.NewFromFloat(d.Price).Round(2),
		SaleEnabled: d.SaleEnabled,
		SalePrice:   decimal.NewFromFloat(d.SalePrice).Round(2),
		HasSizes:    d.HasSizes,
		Description: d.Description,
		ImagePath:   d.ImagePath,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
	}
	p.IsOnSale = models.IsOnSale(p.Price, p.SaleEnabled, p.SalePrice)
	return p
}

type MongoCatalog struct {
	products *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{products: db.Collection("products")}
}

func (c *MongoCatalog) GetByID(ctx context.Context, id string) (models.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return models.Product{}, ErrProductNotFound
	}

	var doc productDocument
	err = c.products.FindOne(ctx, bson.M{
		"_id":       objectID,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("%w: find product: %w", ErrPersistence, err)
	}
	return doc.toModel(), nil
}

func (c *MongoCatalog) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{
		"isActive":  bson.M{"$ne": false},
		"isDeleted": bson.M{"$ne": true},
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["name"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Page > 0 && filter.Limit > 0 {
		findOptions.SetSkip((filter.Page - 1) * filter.Limit).SetLimit(filter.Limit)
	}

	cursor, err := c.products.Find(ctx, query, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode product: %w", ErrPersistence, err)
		}
		products = append(products, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %w", ErrPersistence, err)
	}
	return products, nil
}

// MemoryCatalog serves products from memory, keyed by their string id.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewMemoryCatalog(products ...models.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]models.Product, len(products))}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// LoadMemoryCatalog reads a JSON array of products from path.
func LoadMemoryCatalog(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewMemoryCatalog(products...), nil
}

func (c *MemoryCatalog) Put(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p.IsOnSale = models.IsOnSale(p.Price, p.SaleEnabled, p.SalePrice)
	c.products[p.ID] = p
}

func (c *MemoryCatalog) GetByID(_ context.Context, id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[strings.TrimSpace(id)]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (c *MemoryCatalog) List(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	products := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	if filter.Page > 0 && filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start >= int64(len(products)) {
			return []models.Product{}, nil
		}
		end := start + filter.Limit
		if end > int64(len(products)) {
			end = int64(len(products))
		}
		products = products[start:end]
	}
	return products, nil
}
