package rental

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("rental not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOutOfStock       = errors.New("out of stock")
)

// UnknownTitlesError: ada judul/id yang tidak ketemu; seluruh request ditolak.
type UnknownTitlesError struct {
	Titles []string
}

func (e *UnknownTitlesError) Error() string {
	return fmt.Sprintf("could not find movies: %q", strings.Join(e.Titles, ", "))
}

// OutOfStockError menyebut semua judul yang habis.
type OutOfStockError struct {
	Titles []string
}

func (e *OutOfStockError) Error() string {
	if len(e.Titles) == 1 {
		return fmt.Sprintf("out of stock movie: %q", e.Titles[0])
	}
	return fmt.Sprintf("out of stock movies: %q", strings.Join(e.Titles, ", "))
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// PersistenceError: store menolak write. Server-side.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist rental: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// RollbackError: kompensasi increment atau delete record-nya sendiri gagal.
// Fatal, jangan pernah disamarkan jadi sukses atau jadi cause aslinya.
type RollbackError struct {
	StockIDs []string // id yang kompensasinya gagal
	Cause    error    // abort yang memicu rollback
	Err      error    // kegagalan rollback-nya sendiri
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed for stock %v (aborting on: %v): %v", e.StockIDs, e.Cause, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }
