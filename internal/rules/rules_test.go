package rules

import (
	"testing"
	"time"

	"spacehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// 2025-06-10 is a Tuesday.
const tuesday = "2025-06-10"

func weekSchedule(open, close string) []*models.AvailabilitySchedule {
	out := make([]*models.AvailabilitySchedule, 0, 7)
	for d := 0; d < 7; d++ {
		out = append(out, &models.AvailabilitySchedule{ID: int64(d + 1), DayOfWeek: d, OpenTime: open, CloseTime: close, IsAvailable: true})
	}
	return out
}

func booking(t *testing.T, id int64, start, end, status string) *models.Booking {
	t.Helper()
	s, err := models.ParseDateTime(start)
	require.NoError(t, err)
	e, err := models.ParseDateTime(end)
	require.NoError(t, err)
	return &models.Booking{ID: id, StartTime: s, EndTime: e, Status: status}
}

func TestCheckAvailability(t *testing.T) {
	schedules := weekSchedule("09:00", "17:00")

	t.Run("NoScheduleRow", func(t *testing.T) {
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "10:00", EndTime: "11:00"}, nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Equal(t, ReasonDayUnavailable, res.Reason)
	})

	t.Run("DayMarkedUnavailable", func(t *testing.T) {
		closed := []*models.AvailabilitySchedule{{DayOfWeek: 2, OpenTime: "09:00", CloseTime: "17:00", IsAvailable: false}}
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "10:00", EndTime: "11:00"}, closed, nil, nil)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Equal(t, ReasonDayUnavailable, res.Reason)
	})

	t.Run("FirstScheduleRowWins", func(t *testing.T) {
		dup := []*models.AvailabilitySchedule{
			{ID: 1, DayOfWeek: 2, OpenTime: "09:00", CloseTime: "12:00", IsAvailable: true},
			{ID: 2, DayOfWeek: 2, OpenTime: "09:00", CloseTime: "20:00", IsAvailable: true},
		}
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "13:00", EndTime: "14:00"}, dup, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, ReasonOutsideHours, res.Reason)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "15:00", EndTime: "10:00"}, schedules, nil, nil)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Equal(t, ReasonOutsideHours, res.Reason)
	})

	t.Run("OutsideHours", func(t *testing.T) {
		for _, tc := range [][2]string{{"08:00", "10:00"}, {"16:00", "18:00"}} {
			res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: tc[0], EndTime: tc[1]}, schedules, nil, nil)
			require.NoError(t, err)
			assert.False(t, res.IsAvailable)
			assert.Equal(t, ReasonOutsideHours, res.Reason)
		}
	})

	t.Run("ExactOperatingHours", func(t *testing.T) {
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "09:00", EndTime: "17:00"}, schedules, nil, nil)
		require.NoError(t, err)
		assert.True(t, res.IsAvailable)
		assert.NotNil(t, res.Schedule)
	})

	t.Run("Blackout", func(t *testing.T) {
		blackouts := []*models.BlackoutDate{
			{StartDate: "2025-06-01", EndDate: "2025-06-05", Reason: "Earlier", IsActive: true},
			{StartDate: "2025-06-09", EndDate: "2025-06-10", Reason: "Pitch maintenance", IsActive: true},
			{StartDate: "2025-06-10", EndDate: "2025-06-10", Reason: "Second", IsActive: true},
		}
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "10:00", EndTime: "11:00"}, schedules, blackouts, nil)
		require.NoError(t, err)
		assert.False(t, res.IsAvailable)
		assert.Equal(t, "Pitch maintenance", res.Reason)
	})

	t.Run("InactiveBlackoutIgnored", func(t *testing.T) {
		blackouts := []*models.BlackoutDate{{StartDate: tuesday, EndDate: tuesday, Reason: "old", IsActive: false}}
		res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: "10:00", EndTime: "11:00"}, schedules, blackouts, nil)
		require.NoError(t, err)
		assert.True(t, res.IsAvailable)
	})

	t.Run("Conflicts", func(t *testing.T) {
		bookings := []*models.Booking{
			booking(t, 1, tuesday+"T10:00:00", tuesday+"T12:00:00", models.StatusConfirmed),
			booking(t, 2, tuesday+"T13:00:00", tuesday+"T14:00:00", models.StatusCancelled),
			booking(t, 3, tuesday+"T14:00:00", tuesday+"T15:00:00", models.StatusPending),
		}

		cases := []struct {
			name      string
			start     string
			end       string
			available bool
			conflicts int
		}{
			{"PartialLeft", "09:00", "10:30", false, 1},
			{"PartialRight", "11:30", "13:00", false, 1},
			{"Containment", "10:15", "11:45", false, 1},
			{"Covering", "09:00", "16:00", false, 2},
			{"Adjacent", "12:00", "14:00", true, 0},
			{"CancelledIgnored", "13:00", "14:00", true, 0},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				res, err := CheckAvailability(AvailabilityRequest{Date: tuesday, StartTime: tc.start, EndTime: tc.end}, schedules, nil, bookings)
				require.NoError(t, err)
				assert.Equal(t, tc.available, res.IsAvailable)
				assert.Len(t, res.ConflictingBookings, tc.conflicts)
				assert.Empty(t, res.Reason)
			})
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		_, err := CheckAvailability(AvailabilityRequest{Date: "2025-13-01", StartTime: "10:00", EndTime: "11:00"}, schedules, nil, nil)
		assert.Error(t, err)
	})
}

func TestDayOfWeek(t *testing.T) {
	dow, err := DayOfWeek("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 0, dow)

	dow, err = DayOfWeek("2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, 6, dow)
}

func TestAvailableSlots(t *testing.T) {
	schedules := weekSchedule("09:00", "17:00")

	t.Run("AllSlots", func(t *testing.T) {
		slots, err := AvailableSlots(tuesday, 2, schedules, nil)
		require.NoError(t, err)
		require.Len(t, slots, 7)
		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, "11:00", slots[0].EndTime)
		assert.Equal(t, "15:00", slots[6].StartTime)
		assert.Equal(t, "17:00", slots[6].EndTime)
		for _, s := range slots {
			assert.True(t, s.IsAvailable)
		}
	})

	t.Run("SkipsConflicts", func(t *testing.T) {
		bookings := []*models.Booking{
			booking(t, 1, tuesday+"T11:00:00", tuesday+"T12:00:00", models.StatusConfirmed),
			booking(t, 2, tuesday+"T15:00:00", tuesday+"T17:00:00", models.StatusCancelled),
			booking(t, 3, "2025-06-11T09:00:00", "2025-06-11T17:00:00", models.StatusConfirmed),
		}
		slots, err := AvailableSlots(tuesday, 2, schedules, bookings)
		require.NoError(t, err)

		starts := make([]string, 0, len(slots))
		for _, s := range slots {
			starts = append(starts, s.StartTime)
		}
		assert.Equal(t, []string{"09:00", "12:00", "13:00", "14:00", "15:00"}, starts)
	})

	t.Run("NoSchedule", func(t *testing.T) {
		slots, err := AvailableSlots(tuesday, 1, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("DurationLongerThanDay", func(t *testing.T) {
		slots, err := AvailableSlots(tuesday, 9, schedules, nil)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		_, err := AvailableSlots(tuesday, 0, schedules, nil)
		assert.Error(t, err)
	})
}

func TestCalculatePrice(t *testing.T) {
	rule := &models.PricingRule{
		BasePrice:         80,
		PeakPrice:         ptr(120),
		OffPeakPrice:      ptr(60),
		WeekendPrice:      ptr(100),
		DepositPercentage: 25,
		IsActive:          true,
	}

	quote := func(start, end string) *models.PriceQuote {
		s, err := models.ParseDateTime(start)
		require.NoError(t, err)
		e, err := models.ParseDateTime(end)
		require.NoError(t, err)
		return CalculatePrice(rule, s, e)
	}

	t.Run("SaturdayUsesWeekend", func(t *testing.T) {
		q := quote("2025-06-14T11:00:00", "2025-06-14T13:00:00")
		assert.Equal(t, 100.0, q.HourlyRate)
		assert.Equal(t, 2.0, q.Duration)
		assert.Equal(t, 200.0, q.TotalPrice)
		assert.Equal(t, 50.0, q.DepositAmount)
		assert.Same(t, rule, q.Pricing)
	})

	t.Run("SundayEveningUsesWeekend", func(t *testing.T) {
		assert.Equal(t, 100.0, quote("2025-06-15T19:00:00", "2025-06-15T20:00:00").HourlyRate)
	})

	t.Run("TuesdayEveningPeak", func(t *testing.T) {
		assert.Equal(t, 120.0, quote(tuesday+"T18:00:00", tuesday+"T19:00:00").HourlyRate)
	})

	t.Run("TuesdayMorningOffPeak", func(t *testing.T) {
		assert.Equal(t, 60.0, quote(tuesday+"T11:00:00", tuesday+"T12:00:00").HourlyRate)
	})

	t.Run("PeakBoundary", func(t *testing.T) {
		assert.Equal(t, 120.0, quote(tuesday+"T09:00:00", tuesday+"T10:00:00").HourlyRate)
		assert.Equal(t, 60.0, quote(tuesday+"T10:00:00", tuesday+"T11:00:00").HourlyRate)
		assert.Equal(t, 60.0, quote(tuesday+"T16:00:00", tuesday+"T17:00:00").HourlyRate)
		assert.Equal(t, 120.0, quote(tuesday+"T17:00:00", tuesday+"T18:00:00").HourlyRate)
	})

	t.Run("FractionalDuration", func(t *testing.T) {
		q := quote(tuesday+"T11:00:00", tuesday+"T12:30:00")
		assert.InDelta(t, 1.5, q.Duration, 1e-9)
		assert.InDelta(t, 90.0, q.TotalPrice, 1e-9)
	})

	t.Run("FallsBackToBase", func(t *testing.T) {
		baseOnly := &models.PricingRule{BasePrice: 80, IsActive: true}
		s, _ := models.ParseDateTime(tuesday + "T10:00:00")
		assert.Equal(t, 80.0, CalculatePrice(baseOnly, s, s.Add(time.Hour)).HourlyRate)

		sat, _ := models.ParseDateTime("2025-06-14T18:00:00")
		peakOnly := &models.PricingRule{BasePrice: 80, PeakPrice: ptr(120), IsActive: true}
		assert.Equal(t, 120.0, CalculatePrice(peakOnly, sat, sat.Add(time.Hour)).HourlyRate)
	})

	t.Run("NoRule", func(t *testing.T) {
		s, _ := models.ParseDateTime(tuesday + "T10:00:00")
		q := CalculatePrice(nil, s, s.Add(time.Hour))
		assert.Equal(t, ReasonNoPricingRule, q.Error)
		assert.Nil(t, q.Pricing)
	})
}

func TestFirstActiveRule(t *testing.T) {
	rules := []*models.PricingRule{{ID: 1, IsActive: false}, {ID: 2, IsActive: true}, {ID: 3, IsActive: true}}
	assert.Equal(t, int64(2), FirstActiveRule(rules).ID)
	assert.Nil(t, FirstActiveRule(nil))
}

func TestDurationWithinBounds(t *testing.T) {
	rule := &models.PricingRule{MinBookingDuration: 1, MaxBookingDuration: ptr(4)}
	assert.True(t, DurationWithinBounds(rule, 1))
	assert.True(t, DurationWithinBounds(rule, 4))
	assert.False(t, DurationWithinBounds(rule, 0.5))
	assert.False(t, DurationWithinBounds(rule, 5))
	assert.True(t, DurationWithinBounds(nil, 100))
}

func TestValidatePromo(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	limit := 3

	active := func() *models.PromoCode {
		return &models.PromoCode{
			ID:            7,
			Code:          "SUMMER",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: 10,
			MaxUses:       &limit,
			CurrentUses:   1,
			ValidFrom:     "2025-06-01T00:00:00.000Z",
			ValidUntil:    "2025-06-30T23:59:59.999Z",
			IsActive:      true,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		res := ValidatePromo(active(), false, 200, now)
		assert.True(t, res.Valid)
		assert.Equal(t, 20.0, res.DiscountAmount)
		assert.NotNil(t, res.PromoCode)
	})

	t.Run("NotFound", func(t *testing.T) {
		assert.Equal(t, ReasonPromoNotFound, ValidatePromo(nil, false, 100, now).Error)
		p := active()
		p.IsActive = false
		assert.Equal(t, ReasonPromoNotFound, ValidatePromo(p, false, 100, now).Error)
	})

	t.Run("Window", func(t *testing.T) {
		p := active()
		p.ValidFrom = "2025-07-01T00:00:00.000Z"
		p.ValidUntil = "2025-07-31T00:00:00.000Z"
		assert.Equal(t, ReasonPromoWindow, ValidatePromo(p, false, 100, now).Error)

		p = active()
		p.ValidUntil = "2025-06-09"
		assert.Equal(t, ReasonPromoWindow, ValidatePromo(p, false, 100, now).Error)
	})

	t.Run("LexicalDateOnlyBound", func(t *testing.T) {
		p := active()
		p.ValidFrom = "2025-06-10"
		assert.True(t, ValidatePromo(p, false, 100, now).Valid, "date prefix sorts before any timestamp of that day")
	})

	t.Run("LimitReached", func(t *testing.T) {
		p := active()
		p.CurrentUses = 3
		res := ValidatePromo(p, false, 100, now)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonPromoLimitReached, res.Error)
	})

	t.Run("AlreadyUsed", func(t *testing.T) {
		res := ValidatePromo(active(), true, 100, now)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonPromoAlreadyUsed, res.Error)
	})
}

func TestDiscount(t *testing.T) {
	fixed := &models.PromoCode{DiscountType: models.DiscountFixed, DiscountValue: 25}
	assert.Equal(t, 25.0, Discount(fixed, 100))
	assert.Equal(t, 10.0, Discount(fixed, 10))

	pct := &models.PromoCode{DiscountType: models.DiscountPercentage, DiscountValue: 15}
	assert.Equal(t, 15.0, Discount(pct, 100))
	assert.InDelta(t, 37.5, Discount(pct, 250), 1e-9)

	assert.Equal(t, "fixed_amount", models.DiscountFixed)
	alias := &models.PromoCode{DiscountType: "fixed", DiscountValue: 25}
	assert.Equal(t, 25.0, Discount(alias, 100))
	unknown := &models.PromoCode{DiscountType: "bogus", DiscountValue: 25}
	assert.Zero(t, Discount(unknown, 100))
}
