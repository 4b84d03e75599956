package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

const orderEventsCollection = "order_events"

// orderEventDoc is the stored shape of one audit entry.
type orderEventDoc struct {
	OrderID      string    `bson:"order_id"`
	UserID       string    `bson:"user_id"`
	RestaurantID string    `bson:"restaurant_id"`
	From         string    `bson:"from,omitempty"`
	To           string    `bson:"to"`
	ActorID      string    `bson:"actor_id"`
	Trigger      string    `bson:"trigger"`
	At           time.Time `bson:"at"`
	RecordedAt   time.Time `bson:"recorded_at"`
}

// AuditRepository implements ports.AuditLog using MongoDB.
type AuditRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewAuditRepository creates a new AuditRepository. Each call is bounded by timeout.
func NewAuditRepository(db *mongo.Database, timeout time.Duration) *AuditRepository {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &AuditRepository{coll: db.Collection(orderEventsCollection), timeout: timeout}
}

var _ ports.AuditLog = (*AuditRepository)(nil)

// EnsureIndexes creates the lookup index on (order_id, at).
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create order_events index: %w", err)
	}
	return nil
}

// Append persists one status change to the order_events collection.
func (r *AuditRepository) Append(ctx context.Context, ev *domain.OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, toEventDoc(ev, time.Now().UTC()))
	return err
}

// ListByOrder returns the trail of one order, oldest first.
func (r *AuditRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []orderEventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.OrderEvent, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func toEventDoc(ev *domain.OrderEvent, recordedAt time.Time) orderEventDoc {
	return orderEventDoc{
		OrderID:      ev.OrderID,
		UserID:       ev.UserID,
		RestaurantID: ev.RestaurantID,
		From:         string(ev.From),
		To:           string(ev.To),
		ActorID:      ev.ActorID,
		Trigger:      ev.Trigger,
		At:           ev.At.UTC(),
		RecordedAt:   recordedAt,
	}
}

func (d *orderEventDoc) toDomain() *domain.OrderEvent {
	return &domain.OrderEvent{
		OrderID:      d.OrderID,
		UserID:       d.UserID,
		RestaurantID: d.RestaurantID,
		From:         domain.OrderStatus(d.From),
		To:           domain.OrderStatus(d.To),
		ActorID:      d.ActorID,
		Trigger:      d.Trigger,
		At:           d.At,
	}
}
