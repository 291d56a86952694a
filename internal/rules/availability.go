// Package rules holds the pure booking rules: availability, slot enumeration,
// tiered pricing and promo discounts. Callers load the records; nothing here
// touches storage.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"spacehub/internal/models"
)

const (
	ReasonDayUnavailable = "Space not available on this day"
	ReasonOutsideHours   = "Outside operating hours"
	ReasonMultiDay       = "Booking must start and end on the same day"
)

// AvailabilityRequest is a requested interval on one calendar date.
type AvailabilityRequest struct {
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

// Interval resolves the request into start/end timestamps.
func (r AvailabilityRequest) Interval() (time.Time, time.Time, error) {
	start, err := models.CombineDateClock(r.Date, r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := models.CombineDateClock(r.Date, r.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// DayOfWeek returns 0 for Sunday through 6 for Saturday.
func DayOfWeek(date string) (int, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(d.Weekday()), nil
}

// ScheduleFor returns the first schedule row for the weekday, or nil.
func ScheduleFor(schedules []*models.AvailabilitySchedule, dayOfWeek int) *models.AvailabilitySchedule {
	for _, s := range schedules {
		if s.DayOfWeek == dayOfWeek {
			return s
		}
	}
	return nil
}

// CheckAvailability evaluates a request against the schedules, blackouts and
// bookings of one space.
func CheckAvailability(
	req AvailabilityRequest,
	schedules []*models.AvailabilitySchedule,
	blackouts []*models.BlackoutDate,
	bookings []*models.Booking,
) (*models.AvailabilityResult, error) {
	dow, err := DayOfWeek(req.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := req.Interval()
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return &models.AvailabilityResult{IsAvailable: false, Reason: ReasonOutsideHours}, nil
	}

	schedule := ScheduleFor(schedules, dow)
	if schedule == nil || !schedule.IsAvailable {
		return &models.AvailabilityResult{IsAvailable: false, Reason: ReasonDayUnavailable}, nil
	}

	// Сравнение строк HH:MM, как в расписании
	if req.StartTime < schedule.OpenTime || req.EndTime > schedule.CloseTime {
		return &models.AvailabilityResult{IsAvailable: false, Reason: ReasonOutsideHours}, nil
	}

	for _, b := range blackouts {
		if b.Covers(req.Date) {
			return &models.AvailabilityResult{IsAvailable: false, Reason: b.Reason}, nil
		}
	}

	conflicts := Conflicts(bookings, start, end)
	return &models.AvailabilityResult{
		IsAvailable:         len(conflicts) == 0,
		ConflictingBookings: conflicts,
		Schedule:            schedule,
	}, nil
}

// Conflicts returns the non-cancelled bookings overlapping [start, end).
func Conflicts(bookings []*models.Booking, start, end time.Time) []*models.Booking {
	var out []*models.Booking
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		if b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out
}

// AvailableSlots enumerates whole-hour slots of durationHours anchored at the
// opening hour, dropping any slot that overlaps a non-cancelled booking.
func AvailableSlots(
	date string,
	durationHours int,
	schedules []*models.AvailabilitySchedule,
	bookings []*models.Booking,
) ([]models.Slot, error) {
	if durationHours <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationHours)
	}
	dow, err := DayOfWeek(date)
	if err != nil {
		return nil, err
	}

	slots := []models.Slot{}
	schedule := ScheduleFor(schedules, dow)
	if schedule == nil || !schedule.IsAvailable {
		return slots, nil
	}

	openHour, err := clockHour(schedule.OpenTime)
	if err != nil {
		return nil, err
	}
	closeHour, err := clockHour(schedule.CloseTime)
	if err != nil {
		return nil, err
	}

	dayStart, _ := time.Parse(models.DateLayout, date)
	dayEnd := dayStart.Add(24 * time.Hour)
	sameDay := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		if !b.StartTime.Before(dayStart) && b.StartTime.Before(dayEnd) {
			sameDay = append(sameDay, b)
		}
	}

	for hour := openHour; hour <= closeHour-durationHours; hour++ {
		slotStart := dayStart.Add(time.Duration(hour) * time.Hour)
		slotEnd := slotStart.Add(time.Duration(durationHours) * time.Hour)
		if len(Conflicts(sameDay, slotStart, slotEnd)) > 0 {
			continue
		}
		slots = append(slots, models.Slot{
			StartTime:   fmt.Sprintf("%02d:00", hour),
			EndTime:     fmt.Sprintf("%02d:00", hour+durationHours),
			IsAvailable: true,
		})
	}
	return slots, nil
}

func clockHour(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return hour, nil
}

// SameDay reports whether start and end fall on the same calendar date.
func SameDay(start, end time.Time) bool {
	return start.Format(models.DateLayout) == end.Format(models.DateLayout)
}
