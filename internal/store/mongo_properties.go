package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/keyhaven/backend/internal/models"
	"github.com/keyhaven/backend/internal/property"
)

// PropertyStore handles listing documents in the properties collection.
type PropertyStore struct {
	col *mongo.Collection
}

func NewPropertyStore(db *mongo.Database) *PropertyStore {
	return &PropertyStore{col: db.Collection("properties")}
}

// EnsureIndexes creates the compound search index on location and price.
func (s *PropertyStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: 1}, {Key: "price", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("store: property indexes: %w", err)
	}
	return nil
}

// Insert writes a new listing and fills in its id and timestamps. It
// participates in any transaction carried by ctx.
func (s *PropertyStore) Insert(ctx context.Context, p *models.Property) error {
	now := nowUTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("store: insert property: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *PropertyStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var p models.Property
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, property.ErrNotFound
		}
		return nil, fmt.Errorf("store: find property: %w", err)
	}
	return &p, nil
}

// Update applies a $set document and returns the listing as updated.
func (s *PropertyStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Property, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Property
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, property.ErrNotFound
		}
		return nil, fmt.Errorf("store: update property: %w", err)
	}
	return &p, nil
}

// List runs the filtered, sorted, paginated query plus a matching count.
func (s *PropertyStore) List(ctx context.Context, q property.ListQuery) ([]models.Property, int64, error) {
	filter := buildPropertyFilter(q)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("store: count properties: %w", err)
	}

	dir := -1
	if q.Order == "asc" {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortBy, Value: dir}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list properties: %w", err)
	}
	defer cur.Close(ctx)

	var items []models.Property
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("store: decode properties: %w", err)
	}
	return items, total, nil
}

func (s *PropertyStore) CountByAgent(ctx context.Context, agentID primitive.ObjectID) (int64, error) {
	total, err := s.col.CountDocuments(ctx, bson.M{"agent": agentID})
	if err != nil {
		return 0, fmt.Errorf("store: count by agent: %w", err)
	}
	return total, nil
}

// buildPropertyFilter translates a normalized ListQuery into a Mongo filter.
// The location substring is escaped so user input can never smuggle regex
// operators into the query.
func buildPropertyFilter(q property.ListQuery) bson.M {
	filter := bson.M{}

	if !q.Agent.IsZero() {
		filter["agent"] = q.Agent
	}
	if q.Location != "" {
		filter["location"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Location), Options: "i"}
	}
	switch len(q.Types) {
	case 0:
	case 1:
		filter["type"] = q.Types[0]
	default:
		filter["type"] = bson.M{"$in": q.Types}
	}
	switch len(q.Statuses) {
	case 0:
	case 1:
		filter["status"] = q.Statuses[0]
	default:
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	if q.IsFeatured != nil {
		filter["isFeatured"] = *q.IsFeatured
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		rng := bson.M{}
		if q.MinPrice != nil {
			rng["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			rng["$lte"] = *q.MaxPrice
		}
		filter["price"] = rng
	}
	if q.Bedrooms != nil {
		filter["bedrooms"] = *q.Bedrooms
	}
	if q.Bathrooms != nil {
		filter["bathrooms"] = *q.Bathrooms
	}
	return filter
}
