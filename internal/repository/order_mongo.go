package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type orderDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	OrderNumber string               `bson:"orderNumber"`
	FullName    string               `bson:"fullName"`
	Email       string               `bson:"email"`
	PhoneNumber string               `bson:"phoneNumber"`
	Country     string               `bson:"country"`
	Postcode    string               `bson:"postcode"`
	TownOrCity  string               `bson:"townOrCity"`
	Street1     string               `bson:"streetAddress1"`
	Street2     *string              `bson:"streetAddress2"`
	County      *string              `bson:"county"`
	GrandTotal  primitive.Decimal128 `bson:"grandTotal"`
	OriginalBag string               `bson:"originalBag"`
	StripePID   string               `bson:"stripePid"`
	Fingerprint string               `bson:"fingerprint"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

type lineItemDocument struct {
	ID            string               `bson:"_id"`
	OrderID       primitive.ObjectID   `bson:"orderId"`
	ProductID     string               `bson:"productId"`
	ProductSize   *string              `bson:"productSize"`
	Quantity      int                  `bson:"quantity"`
	LineItemTotal primitive.Decimal128 `bson:"lineItemTotal"`
}

// caseInsensitive makes string equality ignore case, like an iexact lookup.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type MongoOrders struct {
	orders    *mongo.Collection
	lineItems *mongo.Collection
}

func NewMongoOrders(db *mongo.Database) *MongoOrders {
	return &MongoOrders{
		orders:    db.Collection("orders"),
		lineItems: db.Collection("order_line_items"),
	}
}

func (r *MongoOrders) FindExact(ctx context.Context, criteria models.OrderCriteria) (models.Order, error) {
	total, err := toDecimal128(criteria.GrandTotal)
	if err != nil {
		return models.Order{}, err
	}

	filter := bson.M{
		"fullName":       criteria.FullName,
		"email":          criteria.Email,
		"phoneNumber":    criteria.PhoneNumber,
		"country":        criteria.Country,
		"postcode":       criteria.Postcode,
		"townOrCity":     criteria.TownOrCity,
		"streetAddress1": criteria.Street1,
		"streetAddress2": criteria.Street2,
		"county":         criteria.County,
		"grandTotal":     total,
		"originalBag":    criteria.OriginalBag,
		"stripePid":      criteria.StripePID,
	}

	cursor, err := r.orders.Find(ctx, filter, options.Find().SetCollation(caseInsensitive))
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: find order: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	// The collation also folds the bag and pid, which must match exactly.
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return models.Order{}, fmt.Errorf("%w: decode order: %w", ErrPersistence, err)
		}
		if doc.OriginalBag == criteria.OriginalBag && doc.StripePID == criteria.StripePID {
			return doc.toModel()
		}
	}
	if err := cursor.Err(); err != nil {
		return models.Order{}, fmt.Errorf("%w: find order: %w", ErrPersistence, err)
	}

	return models.Order{}, ErrOrderNotFound
}

func (r *MongoOrders) Create(ctx context.Context, order models.Order) (models.Order, error) {
	total, err := toDecimal128(order.GrandTotal)
	if err != nil {
		return models.Order{}, err
	}

	order.OrderNumber = newOrderNumber()
	order.CreatedAt = time.Now().UTC()

	doc := orderDocument{
		OrderNumber: order.OrderNumber,
		FullName:    order.Contact.FullName,
		Email:       order.Contact.Email,
		PhoneNumber: order.Contact.PhoneNumber,
		Country:     order.Contact.Country,
		Postcode:    order.Contact.Postcode,
		TownOrCity:  order.Contact.TownOrCity,
		Street1:     order.Contact.Street1,
		Street2:     order.Contact.Street2,
		County:      order.Contact.County,
		GrandTotal:  total,
		OriginalBag: order.OriginalBag,
		StripePID:   order.StripePID,
		Fingerprint: order.Criteria().Fingerprint(),
		CreatedAt:   order.CreatedAt,
	}

	res, err := r.orders.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return models.Order{}, ErrDuplicateOrder
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: insert order: %w", ErrPersistence, err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id.Hex()
	}
	order.LineItems = nil
	return order, nil
}

func (r *MongoOrders) AddLineItem(ctx context.Context, item models.OrderLineItem) (models.OrderLineItem, error) {
	orderID, err := primitive.ObjectIDFromHex(item.OrderID)
	if err != nil {
		return models.OrderLineItem{}, fmt.Errorf("%w: invalid order id %q", ErrPersistence, item.OrderID)
	}
	total, err := toDecimal128(item.LineItemTotal)
	if err != nil {
		return models.OrderLineItem{}, err
	}

	item.ID = uuid.NewString()
	doc := lineItemDocument{
		ID:            item.ID,
		OrderID:       orderID,
		ProductID:     item.ProductID,
		ProductSize:   item.ProductSize,
		Quantity:      item.Quantity,
		LineItemTotal: total,
	}

	if _, err := r.lineItems.InsertOne(ctx, doc); err != nil {
		return models.OrderLineItem{}, fmt.Errorf("%w: insert line item: %w", ErrPersistence, err)
	}
	return item, nil
}

func (r *MongoOrders) Delete(ctx context.Context, id string) error {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOrderNotFound
	}

	if _, err := r.lineItems.DeleteMany(ctx, bson.M{"orderId": orderID}); err != nil {
		return fmt.Errorf("%w: delete line items: %w", ErrPersistence, err)
	}

	res, err := r.orders.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return fmt.Errorf("%w: delete order: %w", ErrPersistence, err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *MongoOrders) GetByNumber(ctx context.Context, orderNumber string) (models.Order, error) {
	var doc orderDocument
	err := r.orders.FindOne(ctx, bson.M{"orderNumber": orderNumber}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: find order: %w", ErrPersistence, err)
	}

	order, err := doc.toModel()
	if err != nil {
		return models.Order{}, err
	}

	order.LineItems, err = r.lineItemsFor(ctx, doc.ID)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (r *MongoOrders) List(ctx context.Context, page, limit int64) ([]models.Order, int64, error) {
	total, err := r.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count orders: %w", ErrPersistence, err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.orders.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list orders: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%w: decode orders: %w", ErrPersistence, err)
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toModel()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, nil
}

func (r *MongoOrders) lineItemsFor(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderLineItem, error) {
	cursor, err := r.lineItems.Find(ctx, bson.M{"orderId": orderID},
		options.Find().SetSort(bson.D{{Key: "productId", Value: 1}, {Key: "productSize", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: find line items: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []lineItemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode line items: %w", ErrPersistence, err)
	}

	items := make([]models.OrderLineItem, 0, len(docs))
	for _, doc := range docs {
		total, err := fromDecimal128(doc.LineItemTotal)
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderLineItem{
			ID:            doc.ID,
			OrderID:       doc.OrderID.Hex(),
			ProductID:     doc.ProductID,
			ProductSize:   doc.ProductSize,
			Quantity:      doc.Quantity,
			LineItemTotal: total,
		})
	}
	return items, nil
}

func (d orderDocument) toModel() (models.Order, error) {
	total, err := fromDecimal128(d.GrandTotal)
	if err != nil {
		return models.Order{}, err
	}
	return models.Order{
		ID:          d.ID.Hex(),
		OrderNumber: d.OrderNumber,
		Contact: models.Contact{
			FullName:    d.FullName,
			Email:       d.Email,
			PhoneNumber: d.PhoneNumber,
			Country:     d.Country,
			Postcode:    d.Postcode,
			TownOrCity:  d.TownOrCity,
			Street1:     d.Street1,
			Street2:     d.Street2,
			County:      d.County,
		},
		GrandTotal:  total,
		OriginalBag: d.OriginalBag,
		StripePID:   d.StripePID,
		CreatedAt:   d.CreatedAt,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.StringFixed(2))
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: amount %s: %w", ErrPersistence, d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %s: %w", ErrPersistence, v, err)
	}
	return d, nil
}
