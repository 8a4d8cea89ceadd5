package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vwv/backend/internal/models"
	"vwv/backend/internal/store"
)

const (
	productsCollection = "products"
	salesCollection    = "sales"
)

// Store implements store.Store on a MongoDB database. Atomicity is provided
// by Mongo multi-document transactions; concurrent oversell is prevented by
// the stock >= qty guard on the decrement inside the session.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.SaleTx) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, &saleTx{db: s.db})
	})
	return err
}

// saleTx issues its reads and writes with the session context handed to it,
// so everything lands inside the surrounding transaction.
type saleTx struct {
	db *mongo.Database
}

func (t *saleTx) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var product models.Product
	err = t.db.Collection(productsCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (t *saleTx) DecrementStock(ctx context.Context, id string, qty int, actorID string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	filter := bson.M{
		"_id":   objectID,
		"stock": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{
			"updatedAt": time.Now(),
			"updatedBy": actorID,
		},
	}

	res, err := t.db.Collection(productsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *saleTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	res, err := t.db.Collection(salesCollection).InsertOne(ctx, sale)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateSaleID
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		sale.ID = id
	}
	return nil
}

func (s *Store) QuerySales(ctx context.Context, filter store.SaleFilter) ([]models.Sale, int64, error) {
	conditions := []bson.M{}

	if filter.Branch != "" {
		conditions = append(conditions, bson.M{"branch": filter.Branch})
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		dateCond := bson.M{}
		if filter.StartDate != nil {
			dateCond["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			dateCond["$lte"] = *filter.EndDate
		}
		conditions = append(conditions, bson.M{"createdAt": dateCond})
	}
	if filter.PaymentType != "" {
		conditions = append(conditions, bson.M{"paymentType": filter.PaymentType})
	}
	if filter.Status != "" {
		conditions = append(conditions, bson.M{"status": filter.Status})
	}
	if filter.Cashier != "" {
		conditions = append(conditions, bson.M{"cashier": regexCond(filter.Cashier)})
	}
	if filter.CustomerName != "" {
		conditions = append(conditions, bson.M{"customer.name": regexCond(filter.CustomerName)})
	}
	if filter.SaleID != "" {
		conditions = append(conditions, bson.M{"saleId": regexCond(filter.SaleID)})
	}
	if filter.Phone != "" {
		conditions = append(conditions, bson.M{"customer.phone": regexCond(filter.Phone)})
	}
	if filter.Search != "" {
		search := regexCond(filter.Search)
		conditions = append(conditions, bson.M{"$or": []bson.M{
			{"saleId": search},
			{"customer.name": search},
			{"customer.phone": search},
			{"cashier": search},
			{"items.productName": search},
		}})
	}

	query := bson.M{}
	if len(conditions) > 0 {
		query = bson.M{"$and": conditions}
	}

	coll := s.db.Collection(salesCollection)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	sales := make([]models.Sale, 0)
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (s *Store) SaleBySaleID(ctx context.Context, saleID string) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.Collection(salesCollection).FindOne(ctx, bson.M{"saleId": saleID}).Decode(&sale)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) UpdateSaleStatus(ctx context.Context, saleID, status, actorID string) error {
	res, err := s.db.Collection(salesCollection).UpdateOne(
		ctx,
		bson.M{"saleId": saleID},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
			"updatedBy": actorID,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID string) error {
	res, err := s.db.Collection(salesCollection).DeleteOne(ctx, bson.M{"saleId": saleID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// regexCond builds a case-insensitive substring match. The value is quoted
// so user input cannot inject regex operators.
func regexCond(value string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"}
}
