package availability

import (
	"context"
	"testing"

	kafkax "github.com/ariefcatur/go-rental-stock.git/internal/kafka"
	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	kafkago "github.com/segmentio/kafka-go"
)

// Event dengan tipe lain harus di-skip sebelum menyentuh Redis/ledger.
func TestHandlers_IgnoreOtherEventTypes(t *testing.T) {
	t.Parallel()

	svc := &Service{} // tanpa Redis/Stock: akan panic kalau sampai dipakai

	env := rental.Envelope{EventID: "e1", EventType: "SomethingElse", EventVersion: 1}
	m := kafkago.Message{Value: kafkax.MustMarshal(env)}

	if err := svc.HandleRentalCreated(context.Background(), m); err != nil {
		t.Fatalf("expected nil for foreign event, got %v", err)
	}
	if err := svc.HandleRentalRejected(context.Background(), m); err != nil {
		t.Fatalf("expected nil for foreign event, got %v", err)
	}
}

func TestHandlers_BadEnvelope(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	m := kafkago.Message{Value: []byte(`{"event_id":`)}
	if err := svc.HandleRentalCreated(context.Background(), m); err == nil {
		t.Fatalf("expected decode error")
	}
}

// Kunci dedup harus per-consumer-group supaya dua worker tidak saling
// menelan event satu sama lain.
func TestDedupKey_UsesServiceName(t *testing.T) {
	t.Parallel()

	svc := &Service{ServiceName: "rental-api-worker"}
	if got := svc.dedupKey("e1"); got != "dedup:rental-api-worker:e1" {
		t.Fatalf("unexpected key: %q", got)
	}

	fallback := &Service{}
	if got := fallback.dedupKey("e1"); got != "dedup:availability:e1" {
		t.Fatalf("unexpected fallback key: %q", got)
	}
}

func TestUniq(t *testing.T) {
	t.Parallel()

	got := uniq([]string{"a", "b", "a", "", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected: %v", got)
	}
}
