package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mongoOrdersFor(mt *mtest.T) *MongoOrders {
	return &MongoOrders{
		orders:    mt.Coll,
		lineItems: mt.DB.Collection("order_line_items"),
	}
}

func storedOrder(t testing.TB, id primitive.ObjectID, bag, pid string) bson.D {
	t.Helper()
	total, err := toDecimal128(sampleOrder().GrandTotal)
	if err != nil {
		t.Fatalf("toDecimal128 returned error: %v", err)
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "orderNumber", Value: "ABCDEF0123456789ABCDEF0123456789"},
		{Key: "fullName", Value: "Jane Doe"},
		{Key: "email", Value: "jane@example.com"},
		{Key: "phoneNumber", Value: "0123456"},
		{Key: "country", Value: "GB"},
		{Key: "postcode", Value: "AB1 2CD"},
		{Key: "townOrCity", Value: "London"},
		{Key: "streetAddress1", Value: "1 High St"},
		{Key: "streetAddress2", Value: nil},
		{Key: "county", Value: nil},
		{Key: "grandTotal", Value: total},
		{Key: "originalBag", Value: bag},
		{Key: "stripePid", Value: pid},
		{Key: "createdAt", Value: time.Now().UTC()},
	}
}

func TestMongoOrdersFindExact(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matches case-insensitively through collation", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch,
			storedOrder(mt, id, `{"42":2}`, "pi_123")))

		criteria := sampleOrder().Criteria()
		criteria.FullName = "JANE DOE"

		found, err := mongoOrdersFor(mt).FindExact(context.Background(), criteria)
		if err != nil {
			mt.Fatalf("FindExact returned error: %v", err)
		}
		if found.ID != id.Hex() || found.Contact.FullName != "Jane Doe" {
			mt.Fatalf("unexpected order %+v", found)
		}
		if !found.GrandTotal.Equal(sampleOrder().GrandTotal) {
			mt.Fatalf("expected total %s, got %s", sampleOrder().GrandTotal, found.GrandTotal)
		}

		cmd := mt.GetStartedEvent().Command
		if locale := cmd.Lookup("collation", "locale").StringValue(); locale != "en" {
			mt.Fatalf("expected en collation, got %q", locale)
		}
		if strength := cmd.Lookup("collation", "strength").Int32(); strength != 2 {
			mt.Fatalf("expected collation strength 2, got %d", strength)
		}
		if name := cmd.Lookup("filter", "fullName").StringValue(); name != "JANE DOE" {
			mt.Fatalf("expected filter on given name, got %q", name)
		}
		for _, field := range []string{"streetAddress2", "county"} {
			if typ := cmd.Lookup("filter", field).Type; typ != bson.TypeNull {
				mt.Fatalf("expected %s to match only null, got %s", field, typ)
			}
		}
	})

	mt.Run("rechecks bag and pid exactly", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch,
			storedOrder(mt, primitive.NewObjectID(), `{"42":2}`, "PI_123")))

		_, err := mongoOrdersFor(mt).FindExact(context.Background(), sampleOrder().Criteria())
		if !errors.Is(err, ErrOrderNotFound) {
			mt.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	mt.Run("wraps server errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		_, err := mongoOrdersFor(mt).FindExact(context.Background(), sampleOrder().Criteria())
		if !errors.Is(err, ErrPersistence) {
			mt.Fatalf("expected ErrPersistence, got %v", err)
		}
	})
}

func TestMongoOrdersCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stores the fingerprint", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		order, err := mongoOrdersFor(mt).Create(context.Background(), sampleOrder())
		if err != nil {
			mt.Fatalf("Create returned error: %v", err)
		}
		if len(order.OrderNumber) != 32 || order.ID == "" {
			mt.Fatalf("expected id and 32 char order number, got %+v", order)
		}

		cmd := mt.GetStartedEvent().Command
		stored := cmd.Lookup("documents", "0", "fingerprint").StringValue()
		if stored != sampleOrder().Criteria().Fingerprint() {
			mt.Fatalf("unexpected fingerprint %q", stored)
		}
	})

	mt.Run("maps duplicate key to ErrDuplicateOrder", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: storefront.orders index: fingerprint_unique",
		}))

		_, err := mongoOrdersFor(mt).Create(context.Background(), sampleOrder())
		if !errors.Is(err, ErrDuplicateOrder) {
			mt.Fatalf("expected ErrDuplicateOrder, got %v", err)
		}
	})

	mt.Run("wraps other write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		_, err := mongoOrdersFor(mt).Create(context.Background(), sampleOrder())
		if !errors.Is(err, ErrPersistence) || errors.Is(err, ErrDuplicateOrder) {
			mt.Fatalf("expected ErrPersistence, got %v", err)
		}
	})
}
