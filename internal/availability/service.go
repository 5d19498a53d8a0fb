package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	kafkax "github.com/ariefcatur/go-rental-stock.git/internal/kafka"
	"github.com/ariefcatur/go-rental-stock.git/internal/redisx"
	"github.com/ariefcatur/go-rental-stock.git/internal/rental"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// StockReader: akses read-only ke ledger untuk refresh cache.
type StockReader interface {
	Count(ctx context.Context, id string) (int, error)
}

// Service maintains the availability read-model in Redis off the rental
// event stream. It never mutates stock itself.
type Service struct {
	Stock       StockReader
	Redis       *redis.Client
	ServiceName string
}

// HandleRentalCreated: dipasang sebagai handler consumer rental.created.
// Refresh cache availability utk setiap movie yang tersentuh reservasi.
func (s *Service) HandleRentalCreated(ctx context.Context, m kafkago.Message) error {
	var env rental.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != rental.EventRentalCreated {
		return nil
	} // ignore

	if dup, err := s.dedup(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[rental.RentalCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, id := range uniq(p.MovieIDs) {
		n, err := s.Stock.Count(ctx, id)
		if errors.Is(err, rental.ErrNotFound) {
			log.Printf("availability: movie %s gone, skip", id)
			continue
		}
		if err != nil {
			return err
		}
		key := fmt.Sprintf(redisx.KeyStockAvail, id)
		if err := s.Redis.Set(ctx, key, n, redisx.TTLStockAvail).Err(); err != nil {
			return err
		}
	}
	return nil
}

// HandleRentalRejected: hitung penolakan per title sebagai sinyal demand.
func (s *Service) HandleRentalRejected(ctx context.Context, m kafkago.Message) error {
	var env rental.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != rental.EventRentalRejected {
		return nil
	}

	if dup, err := s.dedup(ctx, env.EventID); err != nil || dup {
		return err
	}

	p, err := kafkax.UnwrapPayload[rental.RentalRejectedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.Reason != "OUT_OF_STOCK" {
		return nil
	}
	for _, t := range uniq(p.Titles) {
		key := fmt.Sprintf(redisx.KeyRejectCount, strings.ToLower(t))
		if err := s.Redis.Incr(ctx, key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// dedup via Redis pakai event_id.
func (s *Service) dedupKey(eventID string) string {
	svc := s.ServiceName
	if svc == "" {
		svc = "availability"
	}
	return fmt.Sprintf(redisx.KeyDedup, svc, eventID)
}

func (s *Service) dedup(ctx context.Context, eventID string) (bool, error) {
	dkey := s.dedupKey(eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return true, nil
	}
	return false, s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
