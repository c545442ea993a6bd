package property

import (
	"errors"
	"testing"

	"github.com/keyhaven/backend/internal/models"
)

func TestListQuery_NormalizeClamps(t *testing.T) {
	cases := []struct {
		name      string
		in        ListQuery
		wantPage  int
		wantLimit int
	}{
		{"defaults", ListQuery{}, 1, DefaultPageSize},
		{"negative page", ListQuery{Page: -3, Limit: 20}, 1, 20},
		{"zero limit", ListQuery{Page: 2}, 2, DefaultPageSize},
		{"limit above ceiling", ListQuery{Page: 1, Limit: 500}, 1, MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.normalize()
			if tc.in.Page != tc.wantPage || tc.in.Limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d",
					tc.in.Page, tc.in.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestListQuery_NormalizeSortFallback(t *testing.T) {
	q := ListQuery{SortBy: "password", Order: "sideways"}
	q.normalize()
	if q.SortBy != "createdAt" {
		t.Fatalf("unknown sort field must fall back to createdAt, got %q", q.SortBy)
	}
	if q.Order != "desc" {
		t.Fatalf("unknown order must fall back to desc, got %q", q.Order)
	}

	q = ListQuery{SortBy: "price", Order: "asc"}
	q.normalize()
	if q.SortBy != "price" || q.Order != "asc" {
		t.Fatalf("valid sort must be kept, got %q %q", q.SortBy, q.Order)
	}
}

func TestListQuery_Skip(t *testing.T) {
	q := ListQuery{Page: 3, Limit: 10}
	q.normalize()
	if got := q.Skip(); got != 20 {
		t.Fatalf("page 3 limit 10: expected skip 20, got %d", got)
	}

	q = ListQuery{}
	q.normalize()
	if got := q.Skip(); got != 0 {
		t.Fatalf("first page must not skip, got %d", got)
	}
}

func TestListQuery_ValidateEnums(t *testing.T) {
	q := ListQuery{Types: []models.PropertyType{models.TypeHouse, "Castle"}}
	if err := q.validate(); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for unknown type, got %v", err)
	}

	q = ListQuery{Statuses: []models.PropertyStatus{"Haunted"}}
	if err := q.validate(); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for unknown status, got %v", err)
	}

	q = ListQuery{
		Types:    []models.PropertyType{models.TypeHouse, models.TypeApartment},
		Statuses: []models.PropertyStatus{models.StatusAvailable},
	}
	if err := q.validate(); err != nil {
		t.Fatalf("valid enums must pass, got %v", err)
	}
}
