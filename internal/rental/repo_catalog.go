package rental

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepo: movie/customer lookup + stock ledger di Postgres.
type CatalogRepo struct {
	DB *pgxpool.Pool
	// Cap: batas atas available_count; 0 berarti MaxStock.
	Cap int
}

func (r *CatalogRepo) cap() int {
	if r.Cap > 0 {
		return r.Cap
	}
	return MaxStock
}

// Resolve: per elemen coba id dulu, fallback exact match lowercase title.
// Urutan & duplikat dipertahankan; elemen tanpa match masuk unresolved.
func (r *CatalogRepo) Resolve(ctx context.Context, requested []string) ([]StockItem, []string, error) {
	resolved := make([]StockItem, 0, len(requested))
	var unresolved []string
	for _, q := range requested {
		it, err := r.findMovie(ctx, q)
		if errors.Is(err, pgx.ErrNoRows) {
			unresolved = append(unresolved, q)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, it)
	}
	return resolved, unresolved, nil
}

func (r *CatalogRepo) findMovie(ctx context.Context, q string) (StockItem, error) {
	const cols = `SELECT id, title, available_count, created_at, updated_at FROM movies`
	var it StockItem
	err := r.DB.QueryRow(ctx, cols+` WHERE id = $1`, q).
		Scan(&it.ID, &it.Title, &it.AvailableCount, &it.CreatedAt, &it.UpdatedAt)
	if err == nil || !errors.Is(err, pgx.ErrNoRows) {
		return it, err
	}
	err = r.DB.QueryRow(ctx, cols+` WHERE title = lower($1)`, strings.TrimSpace(q)).
		Scan(&it.ID, &it.Title, &it.AvailableCount, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// Decrement: satu statement kondisional; linearizable per id tanpa FOR UPDATE
// karena cek & update terjadi atomik di row yang sama.
func (r *CatalogRepo) Decrement(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		UPDATE movies SET available_count = available_count - 1, updated_at = now()
		WHERE id = $1 AND available_count > 0
		RETURNING available_count`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		// row tidak ketemu atau stok sudah nol; bedakan keduanya
		var exists bool
		if err2 := r.DB.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`, id).Scan(&exists); err2 != nil {
			return 0, err2
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrOutOfStock
	}
	return n, err
}

// Increment: kompensasi; clamp di MaxStock, tidak pernah melewati cap.
func (r *CatalogRepo) Increment(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		UPDATE movies SET available_count = LEAST(available_count + 1, $2), updated_at = now()
		WHERE id = $1
		RETURNING available_count`, id, r.cap()).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

// Count: read-only, dipakai worker untuk refresh cache availability.
func (r *CatalogRepo) Count(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT available_count FROM movies WHERE id = $1`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

func (r *CatalogRepo) FindCustomer(ctx context.Context, id string) (CustomerSnapshot, error) {
	var c CustomerSnapshot
	err := r.DB.QueryRow(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerSnapshot{}, ErrCustomerNotFound
	}
	return c, err
}
