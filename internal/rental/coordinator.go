package rental

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-rental-stock.git/internal/clock"
	"github.com/google/uuid"
)

// Coordinator: resolve -> cek stok -> decrement satu-satu -> simpan record.
// Ledger cuma punya op atomik per-id, jadi tiap decrement dicatat dan
// di-undo terbalik kalau step berikutnya gagal.
type Coordinator struct {
	Catalog   CatalogResolver
	Customers CustomerLookup
	Ledger    StockLedger
	Records   RecordStore
	Clock     clock.Clock
	DateFloor time.Time // date_out minimum
}

// Reserve menyewakan judul-judul yang diminta. Error berarti tidak ada
// decrement tersisa, kecuali *RollbackError (kompensasi gagal, count drift).
func (c *Coordinator) Reserve(ctx context.Context, customerID string, requested []string) (RentalRecord, error) {
	if len(requested) == 0 {
		return RentalRecord{}, errors.New("no movie titles requested")
	}

	// 1) resolve: all or nothing
	resolved, unresolved, err := c.Catalog.Resolve(ctx, requested)
	if err != nil {
		return RentalRecord{}, err
	}
	if len(unresolved) > 0 {
		return RentalRecord{}, &UnknownTitlesError{Titles: unresolved}
	}

	// 2) snapshot customer di awal; record harus tetap valid walau row berubah
	cust, err := c.Customers.FindCustomer(ctx, customerID)
	if err != nil {
		return RentalRecord{}, err
	}

	// 3) cek advisory saja; decrement atomik di bawah yang jadi otoritas
	if depleted := depletedTitles(resolved); len(depleted) > 0 {
		return RentalRecord{}, &OutOfStockError{Titles: depleted}
	}

	// 4) decrement urut sesuai request, catat yang sudah applied
	var applied []StockItem
	for _, it := range resolved {
		if _, err := c.Ledger.Decrement(ctx, it.ID); err != nil {
			abort := err
			if errors.Is(err, ErrOutOfStock) {
				abort = &OutOfStockError{Titles: []string{it.Title}}
			}
			return RentalRecord{}, c.abort(ctx, applied, abort)
		}
		applied = append(applied, it)
	}

	// 5) persist; rollback penuh kalau store menolak
	rec := RentalRecord{
		ID:       uuid.NewString(),
		Customer: cust,
		Movies:   snapshots(resolved),
		DateOut:  c.now(),
	}
	if !c.DateFloor.IsZero() && rec.DateOut.Before(c.DateFloor) {
		err := fmt.Errorf("date out %s is before floor %s",
			rec.DateOut.Format(time.RFC3339), c.DateFloor.Format(time.RFC3339))
		return RentalRecord{}, c.abort(ctx, applied, &PersistenceError{Err: err})
	}
	if err := c.Records.Create(ctx, rec); err != nil {
		abort := error(&PersistenceError{Err: err})
		// store bisa saja menulis sebagian; bersihkan record-nya.
		// gagal delete tidak membatalkan kompensasi ledger.
		delErr := c.Records.Delete(ctx, rec.ID)
		if delErr != nil {
			log.Printf("CRITICAL: deleting partial rental failed: rental=%s: %v", rec.ID, delErr)
		}
		dirty, incErr := c.compensate(ctx, applied)
		if delErr != nil || incErr != nil {
			rbErr := incErr
			switch {
			case rbErr == nil:
				rbErr = delErr
			case delErr != nil:
				rbErr = fmt.Errorf("%v; delete record: %w", incErr, delErr)
			}
			return RentalRecord{}, &RollbackError{StockIDs: dirty, Cause: abort, Err: rbErr}
		}
		return RentalRecord{}, abort
	}

	return rec, nil
}

// abort: undo decrement yang sudah applied, balikan cause (atau
// *RollbackError kalau kompensasinya sendiri gagal).
func (c *Coordinator) abort(ctx context.Context, applied []StockItem, cause error) error {
	dirty, err := c.compensate(ctx, applied)
	if err != nil {
		return &RollbackError{StockIDs: dirty, Cause: cause, Err: err}
	}
	return cause
}

// compensate: re-increment terbalik (LIFO). Hanya item yang decrement-nya
// confirmed yang masuk sini. Increment gagal tidak menghentikan sisanya;
// semua id yang masih dirty dilaporkan.
func (c *Coordinator) compensate(ctx context.Context, applied []StockItem) (dirty []string, err error) {
	for i := len(applied) - 1; i >= 0; i-- {
		it := applied[i]
		if _, incErr := c.Ledger.Increment(ctx, it.ID); incErr != nil {
			log.Printf("CRITICAL: compensating increment failed: stock=%s: %v", it.ID, incErr)
			dirty = append(dirty, it.ID)
			err = incErr
		}
	}
	return dirty, err
}

func (c *Coordinator) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now()
	}
	return time.Now().UTC()
}

// judul yang sudah nol, masing-masing sekali.
func depletedTitles(items []StockItem) []string {
	var out []string
	seen := map[string]bool{}
	for _, it := range items {
		if it.AvailableCount == 0 && !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it.Title)
		}
	}
	return out
}

func snapshots(items []StockItem) []MovieSnapshot {
	out := make([]MovieSnapshot, 0, len(items))
	for _, it := range items {
		out = append(out, MovieSnapshot{ID: it.ID, Title: it.Title})
	}
	return out
}
