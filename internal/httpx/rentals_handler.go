package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-rental-stock.git/internal/kafka"
	"github.com/ariefcatur/go-rental-stock.git/internal/redisx"
	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Reserver is what the handler needs from the reservation coordinator.
type Reserver interface {
	Reserve(ctx context.Context, customerID string, requested []string) (rental.RentalRecord, error)
}

type RentalFinder interface {
	Find(ctx context.Context, f rental.Filter) ([]rental.RentalRecord, error)
	Get(ctx context.Context, id string) (rental.RentalRecord, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// compile-time: producer kafka memenuhi Publisher
var _ Publisher = (*kafkax.Producer)(nil)

type RentalsHandler struct {
	Coordinator Reserver
	Rentals     RentalFinder
	Redis       *redis.Client
	Created     Publisher // rental.created
	Rejected    Publisher // rental.rejected
	Service     string
}

type CreateRentalReq struct {
	CustomerID  string   `json:"customer_id"`
	MovieTitles []string `json:"movie_titles"`
}

func (h *RentalsHandler) Register(r *chi.Mux) {
	r.Post("/rentals", h.createRental)
	r.Get("/rentals", h.listRentals)
	r.Get("/rentals/{id}", h.getRental)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *RentalsHandler) createRental(w http.ResponseWriter, r *http.Request) {
	var req CreateRentalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CustomerID == "" || len(req.MovieTitles) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Coordinator.Reserve(ctx, req.CustomerID, req.MovieTitles)
	if err != nil {
		h.reserveError(ctx, w, r, req, err)
		return
	}

	// Cache record agar GET /rentals/{id} cepat
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyRental, rec.ID)
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(rec), redisx.TTLRentalCache).Err()
	}

	h.publish(h.Created, r, rental.EventRentalCreated, req.CustomerID, rental.RentalCreatedPayload{
		RentalID:   rec.ID,
		CustomerID: rec.Customer.ID,
		MovieIDs:   movieIDs(rec.Movies),
		DateOut:    rec.DateOut,
	})

	writeJSON(w, http.StatusCreated, rec)
}

// reserveError: caller error -> 400 + event rejected; rollback gagal -> 500
// dengan pesan tersendiri (inventory bisa drift, jangan disamarkan).
func (h *RentalsHandler) reserveError(ctx context.Context, w http.ResponseWriter, r *http.Request, req CreateRentalReq, err error) {
	var unknown *rental.UnknownTitlesError
	var oos *rental.OutOfStockError
	var rollback *rental.RollbackError

	switch {
	case errors.As(err, &unknown):
		h.publish(h.Rejected, r, rental.EventRentalRejected, req.CustomerID, rental.RentalRejectedPayload{
			CustomerID: req.CustomerID, Reason: "UNKNOWN_TITLES", Titles: unknown.Titles,
		})
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &rollback):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	case errors.As(err, &oos):
		h.publish(h.Rejected, r, rental.EventRentalRejected, req.CustomerID, rental.RentalRejectedPayload{
			CustomerID: req.CustomerID, Reason: "OUT_OF_STOCK", Titles: oos.Titles,
		})
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, rental.ErrCustomerNotFound):
		writeJSON(w, http.StatusBadRequest,
			map[string]string{"error": fmt.Sprintf("provided customer id %q is not valid", req.CustomerID)})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *RentalsHandler) publish(p Publisher, r *http.Request, eventType, customerID string, payload any) {
	if p == nil {
		return
	}
	ev := rental.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: customerID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(rental.PartitionKey(customerID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *RentalsHandler) listRentals(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Rentals.Find(ctx, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []rental.RentalRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// parseFilter: semua param opsional; tanggal ISO-8601 atau epoch millis.
func parseFilter(r *http.Request) (rental.Filter, error) {
	q := r.URL.Query()
	f := rental.Filter{
		ID:         q.Get("id"),
		CustomerID: q.Get("customerId"),
	}
	if v := q.Get("movieTitles"); v != "" {
		f.Titles = rental.ParseTitles(v)
	}
	if v := q.Get("from"); v != "" {
		t, err := rental.ParseDate(v)
		if err != nil {
			return rental.Filter{}, err
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := rental.ParseDate(v)
		if err != nil {
			return rental.Filter{}, err
		}
		f.To = &t
	}
	return f, nil
}

func (h *RentalsHandler) getRental(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyRental, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback DB + isi cache
	rec, err := h.Rentals.Get(ctx, id)
	if errors.Is(err, rental.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(rec), redisx.TTLRentalCache).Err()
	}
	writeJSON(w, http.StatusOK, rec)
}

func movieIDs(ms []rental.MovieSnapshot) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}
