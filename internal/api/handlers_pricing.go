package api

import (
	"net/http"

	"spacehub/internal/models"
	"spacehub/internal/service"
)

func (h *handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	schedules, err := h.svc.Availability.GetSchedulesBySpace(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})
}

func (h *handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var s models.AvailabilitySchedule
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ID = 0
	s.SpaceID = spaceID
	if err := h.svc.Availability.CreateSchedule(r.Context(), &s); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd service.ScheduleUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.svc.Availability.UpdateSchedule(r.Context(), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) listBlackouts(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	blackouts, err := h.svc.Availability.GetBlackoutDates(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blackouts": blackouts})
}

func (h *handler) createBlackout(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var b models.BlackoutDate
	if err := decodeJSON(r, &b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = 0
	b.SpaceID = spaceID
	b.IsActive = true
	if err := h.svc.Availability.CreateBlackoutDate(r.Context(), &b); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handler) deactivateBlackout(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "blackoutID")
	if !ok {
		return
	}
	if err := h.svc.Availability.DeactivateBlackoutDate(r.Context(), spaceID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listSpaceRules(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rules, err := h.svc.Pricing.GetRulesBySpace(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Pricing.ListRules(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *handler) createRule(w http.ResponseWriter, r *http.Request) {
	var rule models.PricingRule
	if err := decodeJSON(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = 0
	if err := h.svc.Pricing.CreateRule(r.Context(), &rule); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rule, err := h.svc.Pricing.GetRule(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *handler) updateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd service.PricingRuleUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := h.svc.Pricing.UpdateRule(r.Context(), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// validatePromo returns 200 for rejected codes; the reason is in the body.
func (h *handler) validatePromo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code          string  `json:"code"`
		UserID        int64   `json:"userId"`
		BookingAmount float64 `json:"bookingAmount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Promos.ValidatePromoCode(r.Context(), body.Code, body.UserID, body.BookingAmount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) usePromo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		UserID         int64   `json:"userId"`
		BookingID      int64   `json:"bookingId"`
		DiscountAmount float64 `json:"discountAmount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Promos.UsePromoCode(r.Context(), id, body.UserID, body.BookingID, body.DiscountAmount); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) listPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := h.svc.Promos.ListPromoCodes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promoCodes": promos})
}

func (h *handler) createPromo(w http.ResponseWriter, r *http.Request) {
	var p models.PromoCode
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = 0
	p.CurrentUses = 0
	if err := h.svc.Promos.CreatePromoCode(r.Context(), &p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) getPromo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.Promos.GetPromoCode(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) updatePromo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd service.PromoCodeUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Promos.UpdatePromoCode(r.Context(), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deletePromo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Promos.DeletePromoCode(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
