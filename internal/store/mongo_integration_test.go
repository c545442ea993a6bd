package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/models"
	"github.com/keyhaven/backend/internal/property"
)

// testDatabase connects to the instance named by MONGO_TEST_URI and hands
// back a throwaway database. Tests are skipped when the variable is unset so
// the suite stays runnable without infrastructure.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}

	db := client.Database(fmt.Sprintf("keyhaven_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})
	return db
}

func TestUserStoreIntegration(t *testing.T) {
	db := testDatabase(t)
	users := NewUserStore(db)
	ctx := context.Background()

	if err := users.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	params := auth.CreateUserParams{
		FullName:     "Alice Agent",
		Email:        "Alice@Example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         models.RoleAgent,
	}
	created, err := users.Create(ctx, params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("email must be stored lowercased, got %q", created.Email)
	}
	if created.Password != "" {
		t.Fatal("create must not return the hash")
	}

	if _, err := users.Create(ctx, params); !errors.Is(err, auth.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail on reinsert, got %v", err)
	}

	withHash, err := users.FindByEmailWithPassword(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if withHash.Password == "" {
		t.Fatal("credential path must include the hash")
	}

	byID, err := users.FindByID(ctx, created.ID.Hex())
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Password != "" {
		t.Fatal("default read path must project the hash away")
	}

	if _, err := users.FindByID(ctx, "not-a-hex-id"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for malformed id, got %v", err)
	}
}

func TestPropertyStoreIntegration(t *testing.T) {
	db := testDatabase(t)
	users := NewUserStore(db)
	props := NewPropertyStore(db)
	ctx := context.Background()

	owner, err := users.Create(ctx, auth.CreateUserParams{
		FullName:     "Bob Broker",
		Email:        "bob@example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         models.RoleAgent,
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	prices := []float64{90000, 150000, 400000}
	for i, price := range prices {
		p := &models.Property{
			Title:       fmt.Sprintf("Listing %d", i),
			Description: "Integration fixture",
			Price:       price,
			Location:    "Mesa (AZ)",
			Type:        models.TypeHouse,
			Status:      models.StatusAvailable,
			Images:      []string{},
			Agent:       owner.ID,
		}
		if err := props.Insert(ctx, p); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if p.ID.IsZero() || p.CreatedAt.IsZero() {
			t.Fatalf("insert must fill id and timestamps, got %+v", p)
		}
		if err := users.AppendListing(ctx, owner.ID, p.ID); err != nil {
			t.Fatalf("append listing %d: %v", i, err)
		}
	}

	refreshed, err := users.FindByID(ctx, owner.ID.Hex())
	if err != nil {
		t.Fatalf("refetch owner: %v", err)
	}
	if len(refreshed.Listings) != len(prices) {
		t.Fatalf("expected %d listing refs, got %d", len(prices), len(refreshed.Listings))
	}

	// Location regex must match case-insensitively and treat the
	// parenthesized input literally.
	min := 100000.0
	items, total, err := props.List(ctx, normalizedQuery(property.ListQuery{
		Location: "mesa (az)",
		MinPrice: &min,
		SortBy:   "price",
		Order:    "asc",
	}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", total, len(items))
	}
	if items[0].Price > items[1].Price {
		t.Fatalf("expected ascending prices, got %v then %v", items[0].Price, items[1].Price)
	}

	count, err := props.CountByAgent(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count by agent: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 owned listings, got %d", count)
	}

	summary, err := users.AgentSummary(ctx, owner.ID)
	if err != nil {
		t.Fatalf("agent summary: %v", err)
	}
	if summary.FullName != "Bob Broker" || summary.Role != models.RoleAgent {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

// normalizedQuery applies the same clamping the service does before queries
// reach the store.
func normalizedQuery(q property.ListQuery) property.ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = property.DefaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.Order == "" {
		q.Order = "desc"
	}
	return q
}
