package contracts

import "context"

// CounterStore persists the last allocated reference number.
type CounterStore interface {
	// Load returns the last persisted value, or ErrCounterStateMissing when nothing
	// was ever saved. Any other error means the stored state is unreadable.
	Load(ctx context.Context) (int64, error)

	// Save overwrites the persisted value.
	Save(ctx context.Context, value int64) error
}

// CounterIncrementer is implemented by stores that can advance the counter in a
// single atomic step, so that several processes sharing the store never hand out
// the same number.
type CounterIncrementer interface {
	// Increment seeds missing or unreadable state with seed, adds one and
	// returns the new value.
	Increment(ctx context.Context, seed int64) (int64, error)
}
