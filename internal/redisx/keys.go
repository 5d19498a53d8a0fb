package redisx

import "time"

const (
	// Cache rental record by id: rental:{rental_id} -> JSON RentalRecord
	KeyRental = "rental:%s"

	// Cache availability per movie: stock:avail:{movie_id} -> count
	KeyStockAvail = "stock:avail:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Counter penolakan per title: stock:rejects:{title} -> n (sinyal demand)
	KeyRejectCount = "stock:rejects:%s"
)

var (
	TTLRentalCache = 5 * time.Minute
	TTLStockAvail  = 1 * time.Minute
	TTLDedup       = 48 * time.Hour
)
