package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/submission"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/logging"
)

// DefaultReferenceSeed is the counter value assumed when no state was ever persisted.
const DefaultReferenceSeed int64 = 10000

// ReferenceAllocator hands out strictly increasing reference numbers.
// Read, increment and persist happen under one mutex; a number is only
// returned once its value has been saved.
type ReferenceAllocator struct {
	store   contracts.CounterStore
	seed    int64
	metrics *metrics.Recorder
	logger  *logging.Logger

	mu      sync.Mutex
	loaded  bool
	current int64
}

// NewReferenceAllocator creates an allocator over store. State is read lazily on first use.
func NewReferenceAllocator(store contracts.CounterStore, seed int64, rec *metrics.Recorder) *ReferenceAllocator {
	if seed < 0 {
		seed = DefaultReferenceSeed
	}
	return &ReferenceAllocator{
		store:   store,
		seed:    seed,
		metrics: rec,
		logger:  logging.Default().WithComponent("reference_allocator"),
	}
}

// Next allocates the next reference number. Stores that increment atomically
// are asked for the number directly; other stores are re-read first so that
// values saved by another allocator are never handed out again.
func (a *ReferenceAllocator) Next(ctx context.Context) (submission.ReferenceNumber, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var next int64
	if inc, ok := a.store.(contracts.CounterIncrementer); ok {
		value, err := inc.Increment(ctx, a.seed)
		if err != nil {
			return 0, fmt.Errorf("persist reference counter: %w", err)
		}
		next = value
	} else {
		a.refresh(ctx)
		next = a.current + 1
		if err := a.store.Save(ctx, next); err != nil {
			return 0, fmt.Errorf("persist reference counter: %w", err)
		}
	}
	a.current = next
	a.loaded = true
	a.metrics.ReferenceAllocated()

	ref := submission.ReferenceNumber(next)
	a.logger.WithContext(ctx).Debug("Reference number allocated", "reference_number", ref.String())
	return ref, nil
}

// Peek returns the last allocated value without advancing the counter.
func (a *ReferenceAllocator) Peek(ctx context.Context) submission.ReferenceNumber {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.refresh(ctx)
	return submission.ReferenceNumber(a.current)
}

// refresh reads the persisted value; mu must be held. The first read decides
// the starting point. Later reads only ever move the counter forward.
func (a *ReferenceAllocator) refresh(ctx context.Context) {
	log := a.logger.WithContext(ctx)
	value, err := a.store.Load(ctx)

	switch {
	case err == nil:
		if !a.loaded {
			log.Info("Reference counter loaded", "last_reference_number", value)
			a.current = value
		} else if value > a.current {
			log.Info("Reference counter advanced elsewhere", "last_reference_number", value, "previous", a.current)
			a.current = value
		}
	case errors.Is(err, apperrors.ErrCounterStateMissing):
		if !a.loaded {
			log.Info("No reference counter state, starting from seed", "seed", a.seed)
			a.current = a.seed
		}
	case !a.loaded:
		log.Error("Reference counter state unreadable, starting from seed",
			"seed", a.seed,
			"error", err.Error())
		a.current = a.seed
	default:
		log.Warn("Reference counter reload failed, continuing from memory",
			"last_reference_number", a.current,
			"error", err.Error())
	}
	a.loaded = true
}
