package clock

import "time"

// Clock lets services take time as a dependency instead of calling time.Now,
// so date_out is deterministic under test.
type Clock interface {
	Now() time.Time
}

type system struct{}

func System() Clock { return system{} }

func (system) Now() time.Time { return time.Now().UTC() }

type fixed struct{ t time.Time }

// Fixed always returns the same instant.
func Fixed(t time.Time) Clock { return fixed{t: t.UTC()} }

func (f fixed) Now() time.Time { return f.t }
