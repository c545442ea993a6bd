package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/models"
)

// UserStore handles identity records in the users collection. Emails are
// lowercased at write time so lookups stay case-insensitive without a
// collation-aware index.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index that backs duplicate
// detection on signup.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("store: user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user with an already-hashed credential. The returned
// user never carries the hash.
func (s *UserStore) Create(ctx context.Context, params auth.CreateUserParams) (*models.User, error) {
	now := nowUTC()
	user := &models.User{
		FullName:       params.FullName,
		Email:          strings.ToLower(params.Email),
		Password:       params.PasswordHash,
		Role:           params.Role,
		ProfilePicture: params.ProfilePicture,
		Listings:       []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := s.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, auth.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("store: create user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	user.Password = ""
	return user, nil
}

// FindByEmailWithPassword is the explicit credential-including query path
// used solely for login comparison.
func (s *UserStore) FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("store: find user by email: %w", err)
	}
	return &user, nil
}

// FindByID retrieves a user without the credential hash.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, auth.ErrUserNotFound
	}

	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	var user models.User
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("store: find user by id: %w", err)
	}
	return &user, nil
}

// AppendListing pushes a listing reference onto the owner's index. $push is
// atomic on the server, so concurrent creates never lose a reference. It
// participates in any transaction carried by ctx.
func (s *UserStore) AppendListing(ctx context.Context, ownerID, listingID primitive.ObjectID) error {
	res, err := s.col.UpdateByID(ctx, ownerID, bson.M{
		"$push": bson.M{"listings": listingID},
		"$set":  bson.M{"updatedAt": nowUTC()},
	})
	if err != nil {
		return fmt.Errorf("store: append listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// AgentSummary loads the owner projection attached to property reads.
func (s *UserStore) AgentSummary(ctx context.Context, id primitive.ObjectID) (*models.AgentSummary, error) {
	opts := options.FindOne().SetProjection(bson.M{"fullName": 1, "email": 1, "role": 1})
	var summary models.AgentSummary
	if err := s.col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&summary); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("store: agent summary: %w", err)
	}
	return &summary, nil
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
