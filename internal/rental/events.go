package rental

import (
	"encoding/json"
	"time"
)

const (
	EventRentalCreated  = "RentalCreated"
	EventRentalRejected = "RentalRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "rental-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya customer_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type RentalCreatedPayload struct {
	RentalID   string    `json:"rental_id"`
	CustomerID string    `json:"customer_id"`
	MovieIDs   []string  `json:"movie_ids"` // satu entry per unit, urutan request
	DateOut    time.Time `json:"date_out"`
}

type RentalRejectedPayload struct {
	CustomerID string   `json:"customer_id"`
	Reason     string   `json:"reason"` // UNKNOWN_TITLES | OUT_OF_STOCK
	Titles     []string `json:"titles,omitempty"`
}
