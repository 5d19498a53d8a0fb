package rental

import "time"

// MaxStock is the hard cap on a title's available units.
// Increment never pushes a count past it.
const MaxStock = 100

type StockItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"` // stored lowercase, alternate lookup key
	AvailableCount int       `json:"available_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomerSnapshot is a point-in-time copy embedded in a rental record;
// later edits to the customer row never touch it.
type CustomerSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MovieSnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type RentalRecord struct {
	ID       string           `json:"id"`
	Customer CustomerSnapshot `json:"customer"`
	// Movies keeps request order, one entry per reserved unit (duplicates allowed).
	Movies     []MovieSnapshot `json:"movies"`
	DateOut    time.Time       `json:"date_out"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	RentalFee  float64         `json:"rental_fee"`
}
