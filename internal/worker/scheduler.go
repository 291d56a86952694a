package worker

import (
	"context"
	"time"

	"spacehub/internal/logging"

	"github.com/rs/zerolog"
)

// ReminderSender creates reminders for bookings on the given day.
type ReminderSender interface {
	SendBookingReminders(ctx context.Context, day time.Time) (int, error)
}

// BookingCompleter closes bookings whose end time has passed.
type BookingCompleter interface {
	CompleteFinishedBookings(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the daily reminder job and the periodic completion sweep.
type Scheduler struct {
	reminders     ReminderSender
	completer     BookingCompleter
	reminderHour  int
	sweepInterval time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

func NewScheduler(reminders ReminderSender, completer BookingCompleter, reminderHour int, sweepInterval time.Duration, logger *zerolog.Logger) *Scheduler {
	if reminderHour < 0 || reminderHour > 23 {
		reminderHour = 9
	}
	if sweepInterval <= 0 {
		sweepInterval = 15 * time.Minute
	}
	l := logging.Component(logger, "scheduler")
	return &Scheduler{
		reminders:     reminders,
		completer:     completer,
		reminderHour:  reminderHour,
		sweepInterval: sweepInterval,
		now:           time.Now,
		logger:        l,
	}
}

// Start launches both loops; they stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s.reminders != nil {
		go s.reminderLoop(ctx)
	}
	if s.completer != nil {
		go s.sweepLoop(ctx)
	}
}

func (s *Scheduler) reminderLoop(ctx context.Context) {
	// сначала ждём ближайший час напоминаний, затем раз в сутки
	timer := time.NewTimer(timeUntilNextHour(s.now(), s.reminderHour))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.RunReminders(ctx)
			timer.Reset(timeUntilNextHour(s.now(), s.reminderHour))
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunSweep(ctx)
		}
	}
}

// RunReminders sends reminders for tomorrow's bookings.
func (s *Scheduler) RunReminders(ctx context.Context) int {
	tomorrow := s.now().AddDate(0, 0, 1)
	n, err := s.reminders.SendBookingReminders(ctx, tomorrow)
	if err != nil {
		s.logger.Error().Err(err).Str("date", tomorrow.Format("2006-01-02")).Msg("reminders failed")
		return n
	}
	s.logger.Info().Int("count", n).Str("date", tomorrow.Format("2006-01-02")).Msg("reminders sent")
	return n
}

// RunSweep completes confirmed bookings that already ended.
func (s *Scheduler) RunSweep(ctx context.Context) int {
	n, err := s.completer.CompleteFinishedBookings(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("completion sweep failed")
		return n
	}
	if n > 0 {
		s.logger.Info().Int("count", n).Msg("bookings completed")
	}
	return n
}

func timeUntilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
