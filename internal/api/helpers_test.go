package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"spacehub/internal/config"
	"spacehub/internal/database"
	"spacehub/internal/export"
	"spacehub/internal/models"
	"spacehub/internal/pass"
	"spacehub/internal/repository"
	"spacehub/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	db    *database.DB
	svc   *Services
	space *models.Space
	user  *models.User
	date  string
	ts    *httptest.Server
}

// futureWeekday is a weekday two weeks ahead, inside the booking horizon.
func futureWeekday() string {
	d := time.Now().UTC().AddDate(0, 0, 14)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(models.DateLayout)
}

func newAPIEnv(t *testing.T, cfg *config.APIConfig) *apiEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	catalog := service.NewCatalogService(db, &logger)
	availability := service.NewAvailabilityService(db, repository.NewRedisSlotCache(rdb), time.Minute, &logger)
	pricing := service.NewPricingService(db)
	promos := service.NewPromoService(db, repository.NewRedisDraftRepository(rdb), &logger)
	notifications := service.NewNotificationService(db, db, db, &logger)
	waitlist := service.NewWaitlistService(db, db, notifications, &logger)
	bookings := service.NewBookingService(db, db, pricing, promos, 365, &logger).
		WithNotifications(notifications).
		WithWaitlist(waitlist).
		WithSlotCache(availability)
	checkout := service.NewCheckoutService(repository.NewMemoryDraftRepository(), availability, pricing, promos, bookings, time.Minute, &logger)

	env := &apiEnv{
		db:   db,
		date: futureWeekday(),
		svc: &Services{
			Availability:  availability,
			Bookings:      bookings,
			Pricing:       pricing,
			Promos:        promos,
			Catalog:       catalog,
			Waitlist:      waitlist,
			Notifications: notifications,
			Checkout:      checkout,
			Exporter:      export.NewExporter(db, db, t.TempDir(), &logger),
			Passes:        pass.NewIssuer("test-pass-secret"),
			Ready:         func(ctx context.Context) error { return db.PingContext(ctx) },
		},
	}

	facility := &models.Facility{Name: "Harbour Workspace", Address: "2 Dock Rd", City: "Bristol", IsActive: true}
	require.NoError(t, catalog.CreateFacility(ctx, facility))
	env.space = &models.Space{FacilityID: facility.ID, Name: "Board Room", Type: models.SpaceMeetingRoom, Capacity: 8, IsActive: true}
	require.NoError(t, catalog.CreateSpace(ctx, env.space))
	for day := 0; day < 7; day++ {
		require.NoError(t, availability.CreateSchedule(ctx, &models.AvailabilitySchedule{
			SpaceID: env.space.ID, DayOfWeek: day, OpenTime: "08:00", CloseTime: "22:00", IsAvailable: true,
		}))
	}
	require.NoError(t, pricing.CreateRule(ctx, &models.PricingRule{
		SpaceID: env.space.ID, Name: "Flat", BasePrice: 40, DepositPercentage: 25, MinBookingDuration: 1, IsActive: true,
	}))
	env.user = &models.User{Name: "Robin Vale", Email: "robin@example.com"}
	require.NoError(t, catalog.CreateUser(ctx, env.user))

	if cfg == nil {
		cfg = &config.APIConfig{Enabled: false}
	}
	env.ts = httptest.NewServer(NewRouter(env.svc, NewAuth(cfg), &logger))
	t.Cleanup(env.ts.Close)
	return env
}

func (e *apiEnv) at(clock string) string {
	return e.date + "T" + clock
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createBooking books the default space and returns the stored booking.
func (e *apiEnv) createBooking(t *testing.T, start, end string) *models.Booking {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/bookings", service.CreateBookingRequest{
		UserID: e.user.ID, SpaceID: e.space.ID, StartTime: e.at(start), EndTime: e.at(end), Participants: 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decodeBody[service.CreateBookingResult](t, resp)
	require.NotNil(t, res.Booking)
	return res.Booking
}
