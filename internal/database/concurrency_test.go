package database

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	space := seedSpace(t, db)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	type outcome struct {
		created bool
		err     error
	}
	results := make(chan outcome, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			booking := newBooking(t, space, int64(id+1), "2030-06-11T18:00:00", "2030-06-11T20:00:00")
			res, err := db.CreateBookingWithLock(ctx, booking, nil)
			if err != nil {
				results <- outcome{err: err}
				return
			}
			results <- outcome{created: res.IsAvailable}
		}(i)
	}

	wg.Wait()
	close(results)

	created := 0
	for r := range results {
		require.NoError(t, r.err)
		if r.created {
			created++
		}
	}
	assert.Equal(t, 1, created, "only one overlapping booking may be stored")

	bookings, err := db.GetSpaceBookingsOnDate(ctx, space.ID, "2030-06-11")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}
