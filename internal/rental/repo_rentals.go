package rental

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RentalRepo: durable store untuk rental record + movie snapshots.
type RentalRepo struct{ DB *pgxpool.Pool }

// Create: insert record + snapshots dalam satu tx, urutan unit disimpan di idx.
func (r *RentalRepo) Create(ctx context.Context, rec RentalRecord) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO rentals(id, customer_id, customer_name, date_out, return_date, rental_fee)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Customer.ID, rec.Customer.Name, rec.DateOut, rec.ReturnDate, rec.RentalFee)
	if err != nil {
		return err
	}
	for i, m := range rec.Movies {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rental_movies(rental_id, idx, movie_id, title)
			VALUES ($1, $2, $3, $4)`, rec.ID, i, m.ID, m.Title); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete: no-op kalau id tidak pernah tersimpan.
func (r *RentalRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM rental_movies WHERE rental_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rentals WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *RentalRepo) Get(ctx context.Context, id string) (RentalRecord, error) {
	var rec RentalRecord
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, customer_name, date_out, return_date, rental_fee
		FROM rentals WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Customer.ID, &rec.Customer.Name, &rec.DateOut, &rec.ReturnDate, &rec.RentalFee)
	if errors.Is(err, pgx.ErrNoRows) {
		return RentalRecord{}, ErrNotFound
	}
	if err != nil {
		return RentalRecord{}, err
	}
	if rec.Movies, err = r.movies(ctx, rec.ID); err != nil {
		return RentalRecord{}, err
	}
	return rec, nil
}

// Find: WHERE dibangun dinamis dari filter; semua kondisi AND.
func (r *RentalRepo) Find(ctx context.Context, f Filter) ([]RentalRecord, error) {
	q := `SELECT id, customer_id, customer_name, date_out, return_date, rental_fee FROM rentals`
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ID != "" {
		add(`id = $%d`, f.ID)
	}
	if f.CustomerID != "" {
		add(`customer_id = $%d`, f.CustomerID)
	}
	if f.From != nil {
		add(`date_out >= $%d`, *f.From)
	}
	if f.To != nil {
		add(`date_out <= $%d`, *f.To)
	}
	if len(f.Titles) > 0 {
		lowered := make([]string, 0, len(f.Titles))
		for _, t := range f.Titles {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(t)))
		}
		add(`EXISTS (SELECT 1 FROM rental_movies rm
			WHERE rm.rental_id = rentals.id AND lower(rm.title) = ANY($%d))`, lowered)
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY date_out, id`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RentalRecord
	for rows.Next() {
		var rec RentalRecord
		if err := rows.Scan(&rec.ID, &rec.Customer.ID, &rec.Customer.Name,
			&rec.DateOut, &rec.ReturnDate, &rec.RentalFee); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Movies, err = r.movies(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *RentalRepo) movies(ctx context.Context, rentalID string) ([]MovieSnapshot, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT movie_id, title FROM rental_movies
		WHERE rental_id = $1 ORDER BY idx`, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MovieSnapshot
	for rows.Next() {
		var m MovieSnapshot
		if err := rows.Scan(&m.ID, &m.Title); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
