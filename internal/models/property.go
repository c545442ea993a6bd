package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyType classifies the kind of real-estate unit.
type PropertyType string

const (
	TypeHouse      PropertyType = "House"
	TypeApartment  PropertyType = "Apartment"
	TypeLand       PropertyType = "Land"
	TypeCommercial PropertyType = "Commercial"
	TypeOther      PropertyType = "Other"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeHouse, TypeApartment, TypeLand, TypeCommercial, TypeOther:
		return true
	default:
		return false
	}
}

// PropertyStatus tracks where a listing is in its sales cycle.
type PropertyStatus string

const (
	StatusAvailable     PropertyStatus = "Available"
	StatusUnderContract PropertyStatus = "Under Contract"
	StatusSold          PropertyStatus = "Sold"
	StatusRented        PropertyStatus = "Rented"
)

// Valid reports whether s is a known property status.
func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusUnderContract, StatusSold, StatusRented:
		return true
	default:
		return false
	}
}

// MaxImagesPerProperty caps the image list on a listing.
const MaxImagesPerProperty = 10

// Property is a single real-estate listing stored in MongoDB. Agent is the
// owning user's id; AgentInfo is populated on reads and never persisted.
type Property struct {
	ID            primitive.ObjectID `json:"id"                  bson:"_id,omitempty"`
	Title         string             `json:"title"               bson:"title"`
	Description   string             `json:"description"         bson:"description"`
	Price         float64            `json:"price"               bson:"price"`
	Location      string             `json:"location"            bson:"location"`
	Bedrooms      int                `json:"bedrooms"            bson:"bedrooms"`
	Bathrooms     int                `json:"bathrooms"           bson:"bathrooms"`
	SquareFootage float64            `json:"squareFootage"       bson:"squareFootage"`
	Type          PropertyType       `json:"type"                bson:"type"`
	Status        PropertyStatus     `json:"status"              bson:"status"`
	Images        []string           `json:"images"              bson:"images"`
	IsFeatured    bool               `json:"isFeatured"          bson:"isFeatured"`
	Agent         primitive.ObjectID `json:"agent"               bson:"agent"`
	AgentInfo     *AgentSummary      `json:"agentInfo,omitempty" bson:"-"`
	CreatedAt     time.Time          `json:"createdAt"           bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"           bson:"updatedAt"`
}
