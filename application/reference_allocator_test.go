package application

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nhbrcforms/database"
	"nhbrcforms/domain/submission"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/infrastructure/repositories"
	"nhbrcforms/test/helpers"
	"nhbrcforms/test/mocks"
)

func TestReferenceAllocator_SequentialFromSeed(t *testing.T) {
	store := helpers.NewMemoryCounterStore(nil)
	allocator := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	var got []submission.ReferenceNumber
	for i := 0; i < 5; i++ {
		ref, err := allocator.Next(ctx)
		require.NoError(t, err)
		got = append(got, ref)
	}

	assert.Equal(t, []submission.ReferenceNumber{10001, 10002, 10003, 10004, 10005}, got)
	assert.Equal(t, "NHBRC10001", got[0].String())
	assert.Equal(t, []int64{10001, 10002, 10003, 10004, 10005}, store.Saves)
}

func TestReferenceAllocator_ContinuesAfterRestart(t *testing.T) {
	store := helpers.NewMemoryCounterStore(nil)
	ctx := context.Background()

	first := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	for i := 0; i < 3; i++ {
		_, err := first.Next(ctx)
		require.NoError(t, err)
	}

	restarted := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ref, err := restarted.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, submission.ReferenceNumber(10004), ref)
}

func TestReferenceAllocator_CorruptStateFallsBackToSeed(t *testing.T) {
	initial := int64(55555)
	store := helpers.NewMemoryCounterStore(&initial)
	store.LoadErr = errors.New("invalid character 'x' looking for beginning of value")

	ref, err := NewReferenceAllocator(store, DefaultReferenceSeed, nil).Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, submission.ReferenceNumber(10001), ref)
}

func TestReferenceAllocator_PersistFailureRollsBack(t *testing.T) {
	store := helpers.NewMemoryCounterStore(nil)
	allocator := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	store.SaveErr = errors.New("disk full")
	_, err := allocator.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, submission.ReferenceNumber(10000), allocator.Peek(ctx))

	store.SaveErr = nil
	ref, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, submission.ReferenceNumber(10001), ref)
}

func TestReferenceAllocator_ConcurrentCallsNeverCollide(t *testing.T) {
	store := helpers.NewMemoryCounterStore(nil)
	allocator := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	const workers = 50
	refs := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := allocator.Next(ctx)
			assert.NoError(t, err)
			refs[i] = int(ref)
		}(i)
	}
	wg.Wait()

	sort.Ints(refs)
	for i, ref := range refs {
		assert.Equal(t, 10001+i, ref)
	}
	assert.Equal(t, int64(10000+workers), store.Value())
}

func TestReferenceAllocator_PeekDoesNotAdvance(t *testing.T) {
	initial := int64(10041)
	store := helpers.NewMemoryCounterStore(&initial)
	allocator := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	assert.Equal(t, submission.ReferenceNumber(10041), allocator.Peek(ctx))
	assert.Equal(t, submission.ReferenceNumber(10041), allocator.Peek(ctx))
	assert.Empty(t, store.Saves)
}

func TestReferenceAllocator_RecordsMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	allocator := NewReferenceAllocator(helpers.NewMemoryCounterStore(nil), DefaultReferenceSeed, metrics.NewRecorder(reg))

	_, err := allocator.Next(context.Background())
	require.NoError(t, err)

	expected := `
# HELP nhbrcforms_reference_numbers_allocated_total Reference numbers handed out since process start
# TYPE nhbrcforms_reference_numbers_allocated_total counter
nhbrcforms_reference_numbers_allocated_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nhbrcforms_reference_numbers_allocated_total"))
}

func TestReferenceAllocator_SharedStoreNeverRepeats(t *testing.T) {
	store := helpers.NewMemoryCounterStore(nil)
	server := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	cli := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	var got []submission.ReferenceNumber
	for _, a := range []*ReferenceAllocator{server, cli, server, cli, server} {
		ref, err := a.Next(ctx)
		require.NoError(t, err)
		got = append(got, ref)
	}

	assert.Equal(t, []submission.ReferenceNumber{10001, 10002, 10003, 10004, 10005}, got)
	assert.Equal(t, submission.ReferenceNumber(10005), cli.Peek(ctx))
}

// openSharedDatabase opens path the way a separate process would: its own
// read pool and write connection.
func openSharedDatabase(t *testing.T, path string) *database.Database {
	t.Helper()
	db, err := database.New(database.DefaultConfig(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReferenceAllocator_SharedSqliteDatabaseNeverRepeats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.db")
	server := NewReferenceAllocator(repositories.NewSqliteCounterStore(openSharedDatabase(t, path)), DefaultReferenceSeed, nil)
	cli := NewReferenceAllocator(repositories.NewSqliteCounterStore(openSharedDatabase(t, path)), DefaultReferenceSeed, nil)
	ctx := context.Background()

	var got []submission.ReferenceNumber
	for _, a := range []*ReferenceAllocator{server, cli, server} {
		ref, err := a.Next(ctx)
		require.NoError(t, err)
		got = append(got, ref)
	}
	assert.Equal(t, []submission.ReferenceNumber{10001, 10002, 10003}, got)

	const perAllocator = 20
	seen := make(chan submission.ReferenceNumber, 2*perAllocator)
	var wg sync.WaitGroup
	for _, a := range []*ReferenceAllocator{server, cli} {
		for i := 0; i < perAllocator; i++ {
			wg.Add(1)
			go func(a *ReferenceAllocator) {
				defer wg.Done()
				ref, err := a.Next(ctx)
				assert.NoError(t, err)
				seen <- ref
			}(a)
		}
	}
	wg.Wait()
	close(seen)

	var refs []int
	for ref := range seen {
		refs = append(refs, int(ref))
	}
	sort.Ints(refs)
	require.Len(t, refs, 2*perAllocator)
	for i, ref := range refs {
		assert.Equal(t, 10004+i, ref)
	}
	assert.Equal(t, submission.ReferenceNumber(10003+2*perAllocator), server.Peek(ctx))
}

func TestReferenceAllocator_ReloadFailureKeepsMemoryValue(t *testing.T) {
	store := &mocks.MockCounterStore{}
	store.On("Load", mock.Anything).Return(int64(10010), nil).Once()
	store.On("Load", mock.Anything).Return(int64(0), errors.New("read counter: i/o error"))
	store.On("Save", mock.Anything, int64(10011)).Return(nil).Once()
	store.On("Save", mock.Anything, int64(10012)).Return(nil).Once()

	allocator := NewReferenceAllocator(store, DefaultReferenceSeed, nil)
	ctx := context.Background()

	first, err := allocator.Next(ctx)
	require.NoError(t, err)
	second, err := allocator.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, submission.ReferenceNumber(10011), first)
	assert.Equal(t, submission.ReferenceNumber(10012), second)
	store.AssertExpectations(t)
}
