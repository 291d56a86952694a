package api

import (
	"net/http"
	"strconv"

	"spacehub/internal/models"
	"spacehub/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *handler) userNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var (
		list []*models.Notification
		err  error
	)
	if unread, _ := strconv.ParseBool(r.URL.Query().Get("unread")); unread {
		list, err = h.svc.Notifications.GetUnread(r.Context(), userID)
	} else {
		list, err = h.svc.Notifications.GetUserNotifications(r.Context(), userID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.Notifications.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *handler) createNotification(w http.ResponseWriter, r *http.Request) {
	var n models.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n.ID = 0
	if err := h.svc.Notifications.Create(r.Context(), &n); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *handler) getNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.Notifications.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.MarkAsRead(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	var e models.WaitlistEntry
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.ID = 0
	if err := h.svc.Waitlist.AddToWaitlist(r.Context(), &e); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) getWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.Waitlist.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) updateWaitlistStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Waitlist.UpdateStatus(r.Context(), id, body.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.svc.Waitlist.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) leaveWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Waitlist.Remove(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) spaceWaitlist(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.Waitlist.GetBySpace(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waitlist": entries})
}

func (h *handler) userWaitlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.Waitlist.GetByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waitlist": entries})
}

// createDraft answers 201 with the stored draft, or 200 with the rejection
// when the slot is taken or the promo code is refused.
func (h *handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var req service.DraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Checkout.CreateDraft(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Draft == nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Checkout.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) discardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Checkout.DiscardDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) confirmDraft(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Checkout.ConfirmDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCreateResult(w, res)
}
