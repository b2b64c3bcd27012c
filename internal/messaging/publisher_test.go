package messaging

import (
	"context"
	"testing"
)

func TestDisabledRabbitIsNoop(t *testing.T) {
	r, err := NewRabbit("", "stock.notifications")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil publisher when url is empty")
	}
	if err := r.Publish(context.Background(), "item.depleted", map[string]int{"item_id": 1}); err != nil {
		t.Fatalf("nil publisher should not fail: %v", err)
	}
	r.Close()
}
