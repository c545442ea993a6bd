package property

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/keyhaven/backend/internal/models"
)

const (
	// DefaultPageSize applies when the caller gives no limit.
	DefaultPageSize = 10
	// MaxPageSize is the hard ceiling for a single page.
	MaxPageSize = 100
)

// sortFields is the allow-list for sortBy; anything else falls back to
// createdAt.
var sortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"price":     true,
	"bedrooms":  true,
	"bathrooms": true,
	"title":     true,
}

// ListQuery captures the read-path filters, pagination, and sort. Pointer
// fields are nil when the caller did not filter on them.
type ListQuery struct {
	Location   string
	Types      []models.PropertyType
	Statuses   []models.PropertyStatus
	IsFeatured *bool
	MinPrice   *float64
	MaxPrice   *float64
	Bedrooms   *int
	Bathrooms  *int

	// Agent scopes the query to one owner; zero means all owners.
	Agent primitive.ObjectID

	Page   int
	Limit  int
	SortBy string
	Order  string
}

// validate rejects enum filter values outside the known sets.
func (q *ListQuery) validate() error {
	for _, t := range q.Types {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown property type %q", ErrInvalidFilter, string(t))
		}
	}
	for _, s := range q.Statuses {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown property status %q", ErrInvalidFilter, string(s))
		}
	}
	return nil
}

// normalize clamps pagination and falls back to the default sort. Invalid
// values are corrected, never rejected.
func (q *ListQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if !sortFields[q.SortBy] {
		q.SortBy = "createdAt"
	}
	if q.Order != "asc" && q.Order != "desc" {
		q.Order = "desc"
	}
}

// Skip returns the number of documents to skip for the current page.
func (q *ListQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}
