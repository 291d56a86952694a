package service

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/models"
	"spacehub/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testNow is a Monday morning well before every booking used in the tests.
var testNow = time.Date(2030, 6, 3, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishJSON(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type enqueuedTask struct {
	Type      string
	BookingID int64
	Payload   []byte
}

type recordingOutbox struct {
	mu    sync.Mutex
	tasks []enqueuedTask
}

func (o *recordingOutbox) EnqueueTask(_ context.Context, taskType string, bookingID int64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = append(o.tasks, enqueuedTask{Type: taskType, BookingID: bookingID, Payload: data})
	return nil
}

func (o *recordingOutbox) ByType(taskType string) []enqueuedTask {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []enqueuedTask
	for _, t := range o.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

type testEnv struct {
	db       *database.DB
	mr       *miniredis.Miniredis
	facility *models.Facility
	space    *models.Space
	user     *models.User
	rule     *models.PricingRule

	catalog       *CatalogService
	availability  *AvailabilityService
	pricing       *PricingService
	promos        *PromoService
	notifications *NotificationService
	waitlist      *WaitlistService
	bookings      *BookingService
	checkout      *CheckoutService

	events *recordingPublisher
	outbox *recordingOutbox
	drafts *repository.MemoryDraftRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "service.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		db:     db,
		mr:     mr,
		events: &recordingPublisher{},
		outbox: &recordingOutbox{},
		drafts: repository.NewMemoryDraftRepository(),
	}

	env.catalog = NewCatalogService(db, &logger)
	env.availability = NewAvailabilityService(db, repository.NewRedisSlotCache(rdb), time.Minute, &logger)
	env.pricing = NewPricingService(db)
	env.promos = NewPromoService(db, repository.NewRedisDraftRepository(rdb), &logger)
	env.promos.now = func() time.Time { return testNow }
	env.notifications = NewNotificationService(db, db, db, &logger)
	env.notifications.EnablePush(env.outbox)
	env.waitlist = NewWaitlistService(db, db, env.notifications, &logger)
	env.bookings = NewBookingService(db, db, env.pricing, env.promos, 365, &logger).
		WithEvents(env.events).
		WithOutbox(env.outbox).
		WithNotifications(env.notifications).
		WithWaitlist(env.waitlist).
		WithSlotCache(env.availability)
	env.bookings.now = func() time.Time { return testNow }
	env.checkout = NewCheckoutService(env.drafts, env.availability, env.pricing, env.promos, env.bookings, time.Minute, &logger)

	env.facility = &models.Facility{Name: "Riverside Sports Centre", Address: "1 Quay St", City: "Leeds", IsActive: true, OwnerID: 1}
	require.NoError(t, env.catalog.CreateFacility(ctx, env.facility))

	env.space = &models.Space{
		FacilityID: env.facility.ID,
		Name:       "Pitch A",
		Type:       models.SpaceSportsPitch,
		SportType:  "football",
		Capacity:   10,
		IsActive:   true,
	}
	require.NoError(t, env.catalog.CreateSpace(ctx, env.space))

	for day := 0; day < 7; day++ {
		require.NoError(t, env.availability.CreateSchedule(ctx, &models.AvailabilitySchedule{
			SpaceID: env.space.ID, DayOfWeek: day, OpenTime: "08:00", CloseTime: "22:00", IsAvailable: true,
		}))
	}

	peak, offPeak, weekend, maxHours := 60.0, 30.0, 50.0, 4.0
	env.rule = &models.PricingRule{
		SpaceID:            env.space.ID,
		Name:               "Standard",
		BasePrice:          40,
		PeakPrice:          &peak,
		OffPeakPrice:       &offPeak,
		WeekendPrice:       &weekend,
		DepositPercentage:  20,
		MinBookingDuration: 1,
		MaxBookingDuration: &maxHours,
		IsActive:           true,
	}
	require.NoError(t, env.pricing.CreateRule(ctx, env.rule))

	env.user = &models.User{Name: "Alex Doe", Email: "alex@example.com", TelegramChatID: 4242}
	require.NoError(t, env.catalog.CreateUser(ctx, env.user))

	return env
}

func (e *testEnv) newUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Sam Roe", Email: email}
	require.NoError(t, e.catalog.CreateUser(context.Background(), u))
	return u
}

// book creates a booking for the default user and requires it to succeed.
func (e *testEnv) book(t *testing.T, start, end string) *models.Booking {
	t.Helper()
	res, err := e.bookings.Create(context.Background(), CreateBookingRequest{
		UserID:       e.user.ID,
		SpaceID:      e.space.ID,
		StartTime:    start,
		EndTime:      end,
		Participants: 4,
	})
	require.NoError(t, err)
	require.True(t, res.Created(), "booking %s - %s was rejected: %+v", start, end, res.Availability)
	return res.Booking
}
