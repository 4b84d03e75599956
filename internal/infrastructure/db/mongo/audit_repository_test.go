package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

func TestOrderEventDoc_BSONRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)
	ev := &domain.OrderEvent{
		OrderID:      "o_1",
		UserID:       "u_1",
		RestaurantID: "r_1",
		From:         domain.StatusAccepted,
		To:           domain.StatusReady,
		ActorID:      "u_owner",
		Trigger:      "restaurant",
		At:           at,
	}

	raw, err := bson.Marshal(toEventDoc(ev, at))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fields["order_id"] != "o_1" || fields["to"] != "READY" {
		t.Fatalf("unexpected stored fields: %v", fields)
	}

	var doc orderEventDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal doc: %v", err)
	}
	got := doc.toDomain()
	if got.From != domain.StatusAccepted || got.To != domain.StatusReady || !got.At.Equal(at) {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestOrderEventDoc_PlacementOmitsFrom(t *testing.T) {
	raw, err := bson.Marshal(toEventDoc(&domain.OrderEvent{OrderID: "o_1", To: domain.StatusPending}, time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields bson.M
	_ = bson.Unmarshal(raw, &fields)
	if _, ok := fields["from"]; ok {
		t.Fatalf("placement event should not store a from status")
	}
}
