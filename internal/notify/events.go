package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/keyhaven/backend/internal/models"
)

const (
	userRegisteredQueue = "user.registered"
	listingCreatedQueue = "listing.created"
)

// UserRegisteredEvent is published when a signup completes.
type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}

// ListingCreatedEvent is published when a listing commits. It carries enough
// for downstream consumers to notify or index without hitting the database.
type ListingCreatedEvent struct {
	ListingID  string  `json:"listing_id"`
	AgentID    string  `json:"agent_id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Location   string  `json:"location"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	ImageCount int     `json:"image_count"`
	CreatedAt  string  `json:"created_at"`
}

// Publisher writes domain events to RabbitMQ. A nil *Publisher is a valid
// no-op, so callers never guard event emission.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher dials the broker and declares the durable event queues.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("notify: open channel: %w", err)
	}
	for _, q := range []string{userRegisteredQueue, listingCreatedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("notify: declare %s: %w", q, err)
		}
	}
	return &Publisher{ch: ch}, nil
}

// UserRegistered publishes a user.registered event.
func (p *Publisher) UserRegistered(ctx context.Context, user *models.User) {
	if p == nil {
		return
	}
	p.publish(ctx, userRegisteredQueue, UserRegisteredEvent{
		UserID:       user.ID.Hex(),
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         string(user.Role),
		RegisteredAt: user.CreatedAt.Format(time.RFC3339),
	})
}

// ListingCreated publishes a listing.created event.
func (p *Publisher) ListingCreated(ctx context.Context, listing *models.Property) {
	if p == nil {
		return
	}
	p.publish(ctx, listingCreatedQueue, ListingCreatedEvent{
		ListingID:  listing.ID.Hex(),
		AgentID:    listing.Agent.Hex(),
		Title:      listing.Title,
		Price:      listing.Price,
		Location:   listing.Location,
		Type:       string(listing.Type),
		Status:     string(listing.Status),
		ImageCount: len(listing.Images),
		CreatedAt:  listing.CreatedAt.Format(time.RFC3339),
	})
}

func (p *Publisher) publish(ctx context.Context, queue string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("notify: marshal %s event: %v", queue, err)
		return
	}
	err = p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("notify: publish %s: %v", queue, err)
	}
}
