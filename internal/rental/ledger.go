package rental

import "context"

// StockLedger satu-satunya yang boleh mengubah available_count.
// Kedua op harus atomik per id: rebutan unit terakhir tidak boleh
// dua-duanya dapat, dan count tidak pernah di bawah nol.
type StockLedger interface {
	// ErrOutOfStock kalau count sudah nol; record tidak disentuh.
	Decrement(ctx context.Context, id string) (int, error)
	// Mengembalikan satu unit, clamp di MaxStock.
	Increment(ctx context.Context, id string) (int, error)
}

// CatalogResolver: map judul/id request ke stock item, read-only.
// resolved mempertahankan urutan request termasuk duplikat.
type CatalogResolver interface {
	Resolve(ctx context.Context, requested []string) (resolved []StockItem, unresolved []string, err error)
}

type CustomerLookup interface {
	// ErrCustomerNotFound untuk id yang tidak dikenal.
	FindCustomer(ctx context.Context, id string) (CustomerSnapshot, error)
}

// RecordStore menyimpan reservasi yang sudah committed.
type RecordStore interface {
	Create(ctx context.Context, rec RentalRecord) error
	// no-op untuk id yang tidak pernah tersimpan
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, f Filter) ([]RentalRecord, error)
	Get(ctx context.Context, id string) (RentalRecord, error)
}
