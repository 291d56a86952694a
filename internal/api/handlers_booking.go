package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spacehub/internal/export"
	"spacehub/internal/models"
	"spacehub/internal/service"
)

func (h *handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.Availability.CheckAvailability(r.Context(), spaceID, q.Get("date"), q.Get("start"), q.Get("end"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) availableSlots(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	duration, err := queryInt(r, "duration", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Availability.GetAvailableSlots(r.Context(), spaceID, r.URL.Query().Get("date"), duration)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// calculatePrice answers 200 even when no pricing rule exists; the quote then
// carries an error field.
func (h *handler) calculatePrice(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	participants, err := queryInt(r, "participants", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	quote, err := h.svc.Pricing.CalculatePrice(r.Context(), spaceID, q.Get("start"), q.Get("end"), participants)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Bookings.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCreateResult(w, res)
}

func writeCreateResult(w http.ResponseWriter, res *service.CreateBookingResult) {
	if !res.Created() {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		start, end, err := dateRange(from, to)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bookings, err := h.svc.Bookings.GetBookingsByDateRange(r.Context(), start, end)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
		return
	}

	var filter models.BookingFilter
	var err error
	if filter.UserID, err = queryID(r, "user_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.SpaceID, err = queryID(r, "space_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.FacilityID, err = queryID(r, "facility_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := h.svc.Bookings.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func dateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DateLayout, strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q; expected YYYY-MM-DD", from)
	}
	end, err := time.Parse(models.DateLayout, strings.TrimSpace(to))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q; expected YYYY-MM-DD", to)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return start, end, nil
}

func (h *handler) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) updateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd service.BookingUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Bookings.Update(r.Context(), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status    string `json:"status"`
		ChangedBy string `json:"changedBy"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Bookings.UpdateStatus(r.Context(), id, body.Status, body.ChangedBy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		PaymentStatus string `json:"paymentStatus"`
		ChangedBy     string `json:"changedBy"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Bookings.UpdatePaymentStatus(r.Context(), id, body.PaymentStatus, body.ChangedBy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		ChangedBy string `json:"changedBy"`
	}
	if err := decodeOptionalJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Bookings.Cancel(r.Context(), id, body.ChangedBy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) bookingQR(w http.ResponseWriter, r *http.Request) {
	if h.svc.Passes == nil {
		writeError(w, http.StatusServiceUnavailable, "booking passes are disabled")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	size, err := queryInt(r, "size", 256)
	if err != nil || size < 64 || size > 1024 {
		writeError(w, http.StatusBadRequest, "size must be between 64 and 1024")
		return
	}

	b, err := h.svc.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if b.Status == models.StatusCancelled {
		writeError(w, http.StatusConflict, "booking is cancelled")
		return
	}

	png, err := h.svc.Passes.QRCode(b, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type passCheck struct {
	Valid     bool            `json:"valid"`
	Error     string          `json:"error,omitempty"`
	BookingID int64           `json:"bookingId,omitempty"`
	Booking   *models.Booking `json:"booking,omitempty"`
}

// verifyPass reports invalid passes in the body, like promo validation.
func (h *handler) verifyPass(w http.ResponseWriter, r *http.Request) {
	if h.svc.Passes == nil {
		writeError(w, http.StatusServiceUnavailable, "booking passes are disabled")
		return
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	claims, err := h.svc.Passes.Verify(strings.TrimSpace(body.Token))
	if err != nil {
		writeJSON(w, http.StatusOK, passCheck{Error: err.Error()})
		return
	}

	b, err := h.svc.Bookings.GetBooking(r.Context(), claims.BookingID)
	if err != nil {
		if httpStatus(err) == http.StatusNotFound {
			writeJSON(w, http.StatusOK, passCheck{Error: "booking not found", BookingID: claims.BookingID})
			return
		}
		h.fail(w, r, err)
		return
	}
	if b.Status == models.StatusCancelled || b.Status == models.StatusNoShow {
		writeJSON(w, http.StatusOK, passCheck{Error: "booking is " + b.Status, BookingID: b.ID})
		return
	}
	writeJSON(w, http.StatusOK, passCheck{Valid: true, BookingID: b.ID, Booking: b})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) exportBookings(w http.ResponseWriter, r *http.Request) {
	if h.svc.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are disabled")
		return
	}
	q := r.URL.Query()
	from, to, err := dateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.svc.Exporter.BookingsReport(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.log.Error().Err(err).Msg("write export")
	}
}
