package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"spacehub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedSpace creates a facility and a space open every day 08:00-22:00.
func seedSpace(t *testing.T, db *DB) *models.Space {
	t.Helper()
	ctx := context.Background()

	facility := &models.Facility{Name: "Riverside Sports Centre", City: "Leeds", IsActive: true, OwnerID: 1}
	require.NoError(t, db.CreateFacility(ctx, facility))

	space := &models.Space{
		FacilityID: facility.ID,
		Name:       "Pitch A",
		Type:       models.SpaceSportsPitch,
		SportType:  "football",
		Capacity:   22,
		Amenities:  []string{"floodlights", "changing rooms"},
		IsActive:   true,
	}
	require.NoError(t, db.CreateSpace(ctx, space))

	for day := 0; day < 7; day++ {
		require.NoError(t, db.CreateSchedule(ctx, &models.AvailabilitySchedule{
			SpaceID:     space.ID,
			DayOfWeek:   day,
			OpenTime:    "08:00",
			CloseTime:   "22:00",
			IsAvailable: true,
		}))
	}
	return space
}

func newBooking(t *testing.T, space *models.Space, userID int64, start, end string) *models.Booking {
	t.Helper()
	s, err := models.ParseDateTime(start)
	require.NoError(t, err)
	e, err := models.ParseDateTime(end)
	require.NoError(t, err)
	return &models.Booking{
		UserID:        userID,
		SpaceID:       space.ID,
		FacilityID:    space.FacilityID,
		StartTime:     s,
		EndTime:       e,
		Duration:      e.Sub(s).Hours(),
		Participants:  10,
		TotalPrice:    100,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
	}
}

func TestNewDB_InMemory(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.CountFacilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNewDB_Reopen(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "nested", "spacehub.db")

	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	seedSpace(t, db)
	db.Close()

	// миграции идемпотентны
	db, err = NewDB(path, &logger)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.CountFacilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, path, db.Path())
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	_, err = db.GetBooking(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = db.ListBookings(ctx, models.BookingFilter{})
	assert.Error(t, err)

	_, err = db.CreateBookingWithLock(ctx, &models.Booking{StartTime: time.Now(), EndTime: time.Now()}, nil)
	assert.Error(t, err)

	assert.Error(t, db.CreateOutboxTask(ctx, &models.OutboxTask{TaskType: "kafka_publish"}))
	assert.Error(t, db.CreateUser(ctx, &models.User{Name: "x", Email: "x@example.com"}))
}

func TestSchedulesAndBlackouts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	space := seedSpace(t, db)

	schedules, err := db.GetSchedulesBySpace(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 7)
	assert.Equal(t, 0, schedules[0].DayOfWeek)

	err = db.CreateSchedule(ctx, &models.AvailabilitySchedule{SpaceID: space.ID, DayOfWeek: 2, OpenTime: "06:00", CloseTime: "10:00"})
	assert.ErrorIs(t, err, ErrDuplicate)

	sched := schedules[2]
	sched.OpenTime = "10:00"
	sched.IsAvailable = false
	require.NoError(t, db.UpdateSchedule(ctx, sched))

	got, err := db.GetSchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.OpenTime)
	assert.False(t, got.IsAvailable)

	assert.ErrorIs(t, db.UpdateSchedule(ctx, &models.AvailabilitySchedule{ID: 999}), ErrNotFound)

	blackout := &models.BlackoutDate{SpaceID: space.ID, StartDate: "2030-12-24", EndDate: "2030-12-26", Reason: "Holiday closure"}
	require.NoError(t, db.CreateBlackoutDate(ctx, blackout))
	assert.True(t, blackout.IsActive)

	active, err := db.GetActiveBlackoutDates(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Covers("2030-12-25"))

	require.NoError(t, db.DeactivateBlackoutDate(ctx, blackout.ID))
	active, err = db.GetActiveBlackoutDates(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}
