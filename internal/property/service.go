package property

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/models"
)

// UploadFile is a raw image payload read from a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Repository is the property collection access the service needs.
type Repository interface {
	Insert(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	// Update applies a validated $set document and returns the updated listing.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Property, error)
	List(ctx context.Context, q ListQuery) ([]models.Property, int64, error)
	CountByAgent(ctx context.Context, agentID primitive.ObjectID) (int64, error)
}

// OwnerStore is the slice of the user collection the pipeline touches: the
// owner's listing index and the owner summary attached to reads.
type OwnerStore interface {
	// AppendListing must be an atomic append so concurrent creates by the
	// same agent cannot lose references.
	AppendListing(ctx context.Context, ownerID, listingID primitive.ObjectID) error
	AgentSummary(ctx context.Context, id primitive.ObjectID) (*models.AgentSummary, error)
}

// AssetStore uploads and deletes listing images in the object store.
type AssetStore interface {
	UploadBatch(ctx context.Context, files []UploadFile) ([]string, error)
	Remove(ctx context.Context, url string) error
}

// TxRunner scopes a function to one atomic transaction: every store call made
// with the derived context commits or aborts together.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher emits fire-and-forget domain events.
type EventPublisher interface {
	ListingCreated(ctx context.Context, p *models.Property)
}

// Service orchestrates validated, atomic creation and update of listings.
type Service struct {
	repo   Repository
	owners OwnerStore
	assets AssetStore
	tx     TxRunner
	events EventPublisher
}

// NewService wires the mutation pipeline. events may be nil.
func NewService(repo Repository, owners OwnerStore, assets AssetStore, tx TxRunner, events EventPublisher) *Service {
	return &Service{repo: repo, owners: owners, assets: assets, tx: tx, events: events}
}

// CreateInput carries the raw multipart form fields for a create. Numeric
// fields arrive as strings and are coerced during validation.
type CreateInput struct {
	Title         string
	Description   string
	Price         string
	Location      string
	Type          string
	Status        string
	Bedrooms      string
	Bathrooms     string
	SquareFootage string
	IsFeatured    string
	Images        []UploadFile
}

// Create validates the input, then performs the image upload, the property
// insert, and the owner-index append inside one transaction. On any failure
// the transaction aborts and neither document changes.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*models.Property, error) {
	title, err := requireText("Title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	description, err := requireText("Description", in.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	location, err := requireText("Location", in.Location, maxTitleLen)
	if err != nil {
		return nil, err
	}
	ptype, err := parsePropertyType(in.Type)
	if err != nil {
		return nil, err
	}
	status, err := parsePropertyStatus(in.Status)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	bedrooms, err := parseCount("Bedrooms", in.Bedrooms)
	if err != nil {
		return nil, err
	}
	bathrooms, err := parseCount("Bathrooms", in.Bathrooms)
	if err != nil {
		return nil, err
	}
	squareFootage, err := parseSquareFootage(in.SquareFootage)
	if err != nil {
		return nil, err
	}
	if err := validateImages(in.Images, 0); err != nil {
		return nil, err
	}

	ownerID, err := primitive.ObjectIDFromHex(caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("property: caller id: %w", err)
	}

	p := &models.Property{
		Title:         title,
		Description:   description,
		Price:         price,
		Location:      location,
		Bedrooms:      bedrooms,
		Bathrooms:     bathrooms,
		SquareFootage: squareFootage,
		Type:          ptype,
		Status:        status,
		Images:        []string{},
		IsFeatured:    parseBool(in.IsFeatured),
		Agent:         ownerID,
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if len(in.Images) > 0 {
			urls, err := s.assets.UploadBatch(txCtx, in.Images)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrAssetUpload, err)
			}
			if len(urls) != len(in.Images) {
				return fmt.Errorf("%w: stored %d of %d images", ErrAssetUpload, len(urls), len(in.Images))
			}
			p.Images = urls
		}
		if err := s.repo.Insert(txCtx, p); err != nil {
			return err
		}
		return s.owners.AppendListing(txCtx, ownerID, p.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.ListingCreated(ctx, p)
	}
	return p, nil
}

// UpdateInput carries a partial field set; nil pointers mean "not supplied".
// Fields outside this allow-list are never written.
type UpdateInput struct {
	Title         *string
	Description   *string
	Price         *string
	Location      *string
	Type          *string
	Status        *string
	Bedrooms      *string
	Bathrooms     *string
	SquareFootage *string
	IsFeatured    *string
	NewImages     []UploadFile
	RemoveImages  []string
}

// Update applies a validated partial update. Only the owning agent or an
// admin may touch a listing. New images are appended up to the cap; removed
// images are deleted from the asset store only after the document save, and
// a deletion failure never fails the update.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id string, in UpdateInput) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin && existing.Agent.Hex() != caller.UserID {
		return nil, ErrForbidden
	}

	set := bson.M{}
	if in.Title != nil {
		v, err := requireText("Title", *in.Title, maxTitleLen)
		if err != nil {
			return nil, err
		}
		set["title"] = v
	}
	if in.Description != nil {
		v, err := requireText("Description", *in.Description, maxDescriptionLen)
		if err != nil {
			return nil, err
		}
		set["description"] = v
	}
	if in.Location != nil {
		v, err := requireText("Location", *in.Location, maxTitleLen)
		if err != nil {
			return nil, err
		}
		set["location"] = v
	}
	if in.Type != nil {
		v, err := parsePropertyType(*in.Type)
		if err != nil {
			return nil, err
		}
		set["type"] = v
	}
	if in.Status != nil {
		v, err := parsePropertyStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		set["status"] = v
	}
	if in.Price != nil {
		v, err := parsePrice(*in.Price)
		if err != nil {
			return nil, err
		}
		set["price"] = v
	}
	if in.Bedrooms != nil {
		v, err := parseCount("Bedrooms", *in.Bedrooms)
		if err != nil {
			return nil, err
		}
		set["bedrooms"] = v
	}
	if in.Bathrooms != nil {
		v, err := parseCount("Bathrooms", *in.Bathrooms)
		if err != nil {
			return nil, err
		}
		set["bathrooms"] = v
	}
	if in.SquareFootage != nil {
		v, err := parseSquareFootage(*in.SquareFootage)
		if err != nil {
			return nil, err
		}
		set["squareFootage"] = v
	}
	if in.IsFeatured != nil {
		set["isFeatured"] = parseBool(*in.IsFeatured)
	}

	// Reconcile images: drop requested removals that actually exist, keep
	// order, then check the cap before uploading anything.
	removeSet := make(map[string]bool, len(in.RemoveImages))
	for _, url := range in.RemoveImages {
		removeSet[url] = true
	}
	kept := make([]string, 0, len(existing.Images))
	var removed []string
	for _, url := range existing.Images {
		if removeSet[url] {
			removed = append(removed, url)
		} else {
			kept = append(kept, url)
		}
	}

	if err := validateImages(in.NewImages, len(kept)); err != nil {
		return nil, err
	}

	imagesChanged := len(removed) > 0 || len(in.NewImages) > 0
	if len(in.NewImages) > 0 {
		urls, err := s.assets.UploadBatch(ctx, in.NewImages)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetUpload, err)
		}
		if len(urls) != len(in.NewImages) {
			return nil, fmt.Errorf("%w: stored %d of %d images", ErrAssetUpload, len(urls), len(in.NewImages))
		}
		kept = append(kept, urls...)
	}
	if imagesChanged {
		set["images"] = kept
	}

	updated := existing
	if len(set) > 0 {
		set["updatedAt"] = time.Now().UTC()
		updated, err = s.repo.Update(ctx, oid, set)
		if err != nil {
			return nil, err
		}
	}

	// The document save already succeeded; asset cleanup is best-effort.
	for _, url := range removed {
		if err := s.assets.Remove(ctx, url); err != nil {
			log.Printf("property: remove image %s: %v", url, err)
		}
	}

	s.populateOwner(ctx, updated)
	return updated, nil
}

// GetByID returns a single listing with its owner summary.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	s.populateOwner(ctx, p)
	return p, nil
}

// ListResult is a filtered page of listings. OwnerTotal is only populated by
// ListByOwner and counts the owner's listings before filters.
type ListResult struct {
	Items      []models.Property
	Total      int64
	Page       int
	Limit      int
	OwnerTotal int64
}

// List returns a filtered, paginated, sorted page of listings. An empty
// result set is a normal outcome, never an error.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	q.normalize()

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Property{}
	}
	return &ListResult{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// ListByOwner scopes List to one owner and additionally reports the owner's
// unfiltered listing count, so callers can tell "no listings" apart from
// "no matches".
func (s *Service) ListByOwner(ctx context.Context, ownerID string, q ListQuery) (*ListResult, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, ErrInvalidID
	}
	q.Agent = oid

	res, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}
	ownerTotal, err := s.repo.CountByAgent(ctx, oid)
	if err != nil {
		return nil, err
	}
	res.OwnerTotal = ownerTotal
	return res, nil
}

func (s *Service) populateOwner(ctx context.Context, p *models.Property) {
	summary, err := s.owners.AgentSummary(ctx, p.Agent)
	if err != nil {
		log.Printf("property: owner summary for %s: %v", p.Agent.Hex(), err)
		return
	}
	p.AgentInfo = summary
}
