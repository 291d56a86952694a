package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"spacehub/internal/logging"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Бронирования"
	summarySheet  = "Сводка"
)

// BookingSource loads bookings for the report period.
type BookingSource interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// SpaceSource resolves space names.
type SpaceSource interface {
	GetSpace(ctx context.Context, id int64) (*models.Space, error)
}

// Exporter builds Excel booking reports.
type Exporter struct {
	bookings BookingSource
	spaces   SpaceSource
	dir      string
	logger   zerolog.Logger
}

func NewExporter(bookings BookingSource, spaces SpaceSource, dir string, logger *zerolog.Logger) *Exporter {
	l := logging.Component(logger, "export")
	return &Exporter{bookings: bookings, spaces: spaces, dir: dir, logger: l}
}

type spaceSummary struct {
	name      string
	active    int
	cancelled int
	hours     float64
	revenue   float64
}

// BookingsReport builds a workbook with one row per booking and a per-space summary.
func (e *Exporter) BookingsReport(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid period: %s is before %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}

	bookings, err := e.bookings.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []interface{}{"ID", "Площадка", "Объект", "Пользователь", "Начало", "Окончание", "Часы",
		"Участники", "Сумма", "Скидка", "Депозит", "Статус", "Оплата"}
	_ = f.SetSheetRow(bookingsSheet, "A1", &headers)
	_ = f.SetCellStyle(bookingsSheet, "A1", "M1", headerStyle)

	names := make(map[int64]string)
	summaries := make(map[int64]*spaceSummary)

	for i, b := range bookings {
		name := e.spaceName(ctx, names, b.SpaceID)
		row := []interface{}{
			b.ID, name, b.FacilityID, b.UserID,
			b.StartTime.Format("02.01.2006 15:04"), b.EndTime.Format("02.01.2006 15:04"),
			b.Duration, b.Participants, b.TotalPrice, b.DiscountAmount, b.DepositAmount,
			b.Status, b.PaymentStatus,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(bookingsSheet, cell, &row)

		sum, ok := summaries[b.SpaceID]
		if !ok {
			sum = &spaceSummary{name: name}
			summaries[b.SpaceID] = sum
		}
		if b.Status == models.StatusCancelled {
			sum.cancelled++
			continue
		}
		sum.active++
		sum.hours += b.Duration
		sum.revenue += b.TotalPrice
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingsSheet, "B", "B", 25)
	_ = f.SetColWidth(bookingsSheet, "C", "M", 16)

	e.writeSummary(f, summaries, from, to, headerStyle)
	return f, nil
}

func (e *Exporter) writeSummary(f *excelize.File, summaries map[int64]*spaceSummary, from, to time.Time, headerStyle int) {
	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Период: %s - %s", from.Format("02.01.2006"), to.Format("02.01.2006")))
	_ = f.MergeCell(summarySheet, "A1", "E1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)

	headers := []interface{}{"Площадка", "Брони", "Отменено", "Часы", "Выручка"}
	_ = f.SetSheetRow(summarySheet, "A2", &headers)
	_ = f.SetCellStyle(summarySheet, "A2", "E2", headerStyle)

	ids := make([]int64, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	row := 3
	var totalActive, totalCancelled int
	var totalHours, totalRevenue float64
	for _, id := range ids {
		s := summaries[id]
		values := []interface{}{s.name, s.active, s.cancelled, s.hours, s.revenue}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(summarySheet, cell, &values)
		totalActive += s.active
		totalCancelled += s.cancelled
		totalHours += s.hours
		totalRevenue += s.revenue
		row++
	}

	totals := []interface{}{"Итого", totalActive, totalCancelled, totalHours, totalRevenue}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(summarySheet, cell, &totals)
	_ = f.SetColWidth(summarySheet, "A", "A", 25)
	_ = f.SetColWidth(summarySheet, "B", "E", 14)
}

func (e *Exporter) spaceName(ctx context.Context, cache map[int64]string, id int64) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := fmt.Sprintf("#%d", id)
	if e.spaces != nil {
		space, err := e.spaces.GetSpace(ctx, id)
		if err != nil {
			e.logger.Warn().Err(err).Int64("space_id", id).Msg("space lookup failed")
		} else {
			name = space.Name
		}
	}
	cache[id] = name
	return name
}

// WriteBookingsReport streams the workbook to w.
func (e *Exporter) WriteBookingsReport(ctx context.Context, from, to time.Time, w io.Writer) error {
	f, err := e.BookingsReport(ctx, from, to)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveBookingsReport saves the workbook into the export directory.
func (e *Exporter) SaveBookingsReport(ctx context.Context, from, to time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := e.BookingsReport(ctx, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(e.dir, FileName(from, to))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

// FileName returns the attachment name for a report period.
func FileName(from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
}
