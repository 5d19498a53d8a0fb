package rental

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter narrows a rental query. Set fields combine with AND; zero fields
// impose nothing, so the zero Filter matches every record.
type Filter struct {
	ID         string
	CustomerID string
	// Titles matches a record when any of its movie snapshots equals any
	// requested title, case-insensitively.
	Titles []string
	// From/To are inclusive bounds on DateOut.
	From *time.Time
	To   *time.Time
}

func (f Filter) Match(rec RentalRecord) bool {
	if f.ID != "" && rec.ID != f.ID {
		return false
	}
	if f.CustomerID != "" && rec.Customer.ID != f.CustomerID {
		return false
	}
	if len(f.Titles) > 0 && !f.anyTitle(rec) {
		return false
	}
	if f.From != nil && rec.DateOut.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.DateOut.After(*f.To) {
		return false
	}
	return true
}

func (f Filter) anyTitle(rec RentalRecord) bool {
	for _, m := range rec.Movies {
		for _, t := range f.Titles {
			if strings.EqualFold(m.Title, t) {
				return true
			}
		}
	}
	return false
}

// ParseDate accepts an ISO-8601 date ("2021-10-01"), an RFC3339 timestamp, or
// integer epoch milliseconds, normalized to UTC. Anything else is an error,
// never a silent no-match.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want ISO-8601 or epoch milliseconds", s)
}

// ParseTitles splits a comma-separated title list, dropping empties.
func ParseTitles(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
