package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	kafkago "github.com/segmentio/kafka-go"
)

type fakeReserver struct {
	rec rental.RentalRecord
	err error

	gotCustomer string
	gotTitles   []string
}

func (f *fakeReserver) Reserve(_ context.Context, customerID string, requested []string) (rental.RentalRecord, error) {
	f.gotCustomer = customerID
	f.gotTitles = requested
	if f.err != nil {
		return rental.RentalRecord{}, f.err
	}
	return f.rec, nil
}

type fakeFinder struct {
	recs    []rental.RentalRecord
	findErr error

	gotFilter rental.Filter
}

func (f *fakeFinder) Find(_ context.Context, filter rental.Filter) ([]rental.RentalRecord, error) {
	f.gotFilter = filter
	return f.recs, f.findErr
}

func (f *fakeFinder) Get(_ context.Context, id string) (rental.RentalRecord, error) {
	for _, r := range f.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return rental.RentalRecord{}, rental.ErrNotFound
}

type fakePublisher struct {
	envelopes []rental.Envelope
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	var env rental.Envelope
	_ = json.Unmarshal(value, &env)
	f.envelopes = append(f.envelopes, env)
}

func newHandler(res *fakeReserver, fin *fakeFinder) (*RentalsHandler, *fakePublisher, *fakePublisher) {
	created := &fakePublisher{}
	rejected := &fakePublisher{}
	h := &RentalsHandler{
		Coordinator: res,
		Rentals:     fin,
		Created:     created,
		Rejected:    rejected,
		Service:     "rental-api-test",
	}
	return h, created, rejected
}

func do(h *RentalsHandler, method, target, body string) *httptest.ResponseRecorder {
	router := NewRouter()
	h.Register(router)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateRental(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	committed := rental.RentalRecord{
		ID:       "r-1",
		Customer: rental.CustomerSnapshot{ID: "c1", Name: "Ana"},
		Movies:   []rental.MovieSnapshot{{ID: "m1", Title: "home alone"}},
		DateOut:  now,
	}

	t.Run("created", func(t *testing.T) {
		res := &fakeReserver{rec: committed}
		h, created, rejected := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":["Home Alone"]}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		if res.gotCustomer != "c1" || len(res.gotTitles) != 1 {
			t.Fatalf("coordinator got %q %v", res.gotCustomer, res.gotTitles)
		}
		if !strings.Contains(rr.Body.String(), `"id":"r-1"`) {
			t.Fatalf("expected record in body, got %s", rr.Body.String())
		}
		if len(created.envelopes) != 1 || created.envelopes[0].EventType != rental.EventRentalCreated {
			t.Fatalf("expected one RentalCreated event, got %+v", created.envelopes)
		}
		if len(rejected.envelopes) != 0 {
			t.Fatalf("expected no rejected event, got %+v", rejected.envelopes)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _, _ := newHandler(&fakeReserver{}, &fakeFinder{})
		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		h, _, _ := newHandler(&fakeReserver{}, &fakeFinder{})
		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":[]}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("unknown titles -> 400 naming titles + rejected event", func(t *testing.T) {
		res := &fakeReserver{err: &rental.UnknownTitlesError{Titles: []string{"Nope"}}}
		h, created, rejected := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":["Nope"]}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Nope") {
			t.Fatalf("expected offending title in body, got %s", rr.Body.String())
		}
		if len(rejected.envelopes) != 1 || rejected.envelopes[0].EventType != rental.EventRentalRejected {
			t.Fatalf("expected one RentalRejected event, got %+v", rejected.envelopes)
		}
		if len(created.envelopes) != 0 {
			t.Fatalf("expected no created event")
		}
	})

	t.Run("out of stock -> 400 naming title + rejected event", func(t *testing.T) {
		res := &fakeReserver{err: &rental.OutOfStockError{Titles: []string{"home alone"}}}
		h, _, rejected := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":["Home Alone"]}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "home alone") {
			t.Fatalf("expected title in body, got %s", rr.Body.String())
		}
		if len(rejected.envelopes) != 1 {
			t.Fatalf("expected one rejected event, got %d", len(rejected.envelopes))
		}
	})

	t.Run("unknown customer -> 400", func(t *testing.T) {
		res := &fakeReserver{err: rental.ErrCustomerNotFound}
		h, _, rejected := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"ghost","movie_titles":["x"]}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "ghost") {
			t.Fatalf("expected customer id in body, got %s", rr.Body.String())
		}
		if len(rejected.envelopes) != 0 {
			t.Fatalf("expected no rejected event for customer error")
		}
	})

	t.Run("rollback failure -> 500, no rejected event", func(t *testing.T) {
		res := &fakeReserver{err: &rental.RollbackError{
			StockIDs: []string{"m1"},
			Cause:    &rental.OutOfStockError{Titles: []string{"heat"}},
			Err:      errors.New("increment refused"),
		}}
		h, _, rejected := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":["heat"]}`)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "rollback") {
			t.Fatalf("expected rollback message, got %s", rr.Body.String())
		}
		if len(rejected.envelopes) != 0 {
			t.Fatalf("rollback failure must not look like a plain rejection")
		}
	})

	t.Run("persistence failure -> 500", func(t *testing.T) {
		res := &fakeReserver{err: &rental.PersistenceError{Err: errors.New("db down")}}
		h, _, _ := newHandler(res, &fakeFinder{})

		rr := do(h, http.MethodPost, "/rentals", `{"customer_id":"c1","movie_titles":["x"]}`)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})
}

func TestListRentals(t *testing.T) {
	t.Parallel()

	t.Run("filters parsed and passed through", func(t *testing.T) {
		fin := &fakeFinder{recs: []rental.RentalRecord{{ID: "r1"}}}
		h, _, _ := newHandler(&fakeReserver{}, fin)

		rr := do(h, http.MethodGet,
			"/rentals?customerId=c1&movieTitles=Home%20Alone,Heat&from=2021-10-01&to=2021-12-31", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		f := fin.gotFilter
		if f.CustomerID != "c1" {
			t.Fatalf("expected customer filter, got %+v", f)
		}
		if len(f.Titles) != 2 || f.Titles[0] != "Home Alone" || f.Titles[1] != "Heat" {
			t.Fatalf("unexpected titles: %v", f.Titles)
		}
		if f.From == nil || f.To == nil {
			t.Fatalf("expected date range, got %+v", f)
		}
	})

	t.Run("no filters matches everything", func(t *testing.T) {
		fin := &fakeFinder{}
		h, _, _ := newHandler(&fakeReserver{}, fin)

		rr := do(h, http.MethodGet, "/rentals", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !reflect.DeepEqual(fin.gotFilter, rental.Filter{}) {
			t.Fatalf("expected zero filter, got %+v", fin.gotFilter)
		}
		if strings.TrimSpace(rr.Body.String()) != "[]" {
			t.Fatalf("expected empty array, got %s", rr.Body.String())
		}
	})

	t.Run("malformed date -> 400", func(t *testing.T) {
		h, _, _ := newHandler(&fakeReserver{}, &fakeFinder{})
		rr := do(h, http.MethodGet, "/rentals?from=yesterday", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("epoch millis accepted", func(t *testing.T) {
		fin := &fakeFinder{}
		h, _, _ := newHandler(&fakeReserver{}, fin)
		rr := do(h, http.MethodGet, "/rentals?from=1633046400000", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		want := time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)
		if fin.gotFilter.From == nil || !fin.gotFilter.From.Equal(want) {
			t.Fatalf("expected from %v, got %+v", want, fin.gotFilter.From)
		}
	})

	t.Run("store failure -> 500", func(t *testing.T) {
		fin := &fakeFinder{findErr: errors.New("db down")}
		h, _, _ := newHandler(&fakeReserver{}, fin)
		rr := do(h, http.MethodGet, "/rentals", "")
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})
}

func TestGetRental(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		fin := &fakeFinder{recs: []rental.RentalRecord{{ID: "r1", Customer: rental.CustomerSnapshot{ID: "c1"}}}}
		h, _, _ := newHandler(&fakeReserver{}, fin)
		rr := do(h, http.MethodGet, "/rentals/r1", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"id":"r1"`) {
			t.Fatalf("expected record body, got %s", rr.Body.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		h, _, _ := newHandler(&fakeReserver{}, &fakeFinder{})
		rr := do(h, http.MethodGet, "/rentals/missing", "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}
