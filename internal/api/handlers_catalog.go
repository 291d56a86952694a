package api

import (
	"net/http"
	"strings"

	"spacehub/internal/models"
)

func (h *handler) listFacilities(w http.ResponseWriter, r *http.Request) {
	ownerID, err := queryID(r, "owner_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var facilities []*models.Facility
	if ownerID > 0 {
		facilities, err = h.svc.Catalog.ListFacilitiesByOwner(r.Context(), ownerID)
	} else {
		facilities, err = h.svc.Catalog.ListFacilities(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
}

func (h *handler) createFacility(w http.ResponseWriter, r *http.Request) {
	var f models.Facility
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.ID = 0
	if err := h.svc.Catalog.CreateFacility(r.Context(), &f); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *handler) getFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.svc.Catalog.GetFacility(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// updateFacility decodes the body over the stored record, so omitted fields
// keep their values.
func (h *handler) updateFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.svc.Catalog.GetFacility(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := decodeJSON(r, f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.ID = id
	if err := h.svc.Catalog.UpdateFacility(r.Context(), f); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *handler) deactivateFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeactivateFacility(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listFacilitySpaces(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	spaces, err := h.svc.Catalog.ListSpacesByFacility(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
}

func (h *handler) listSpaces(w http.ResponseWriter, r *http.Request) {
	var (
		spaces []*models.Space
		err    error
	)
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		spaces, err = h.svc.Catalog.ListSpacesByType(r.Context(), typ)
	} else {
		spaces, err = h.svc.Catalog.ListSpaces(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
}

func (h *handler) createSpace(w http.ResponseWriter, r *http.Request) {
	var sp models.Space
	if err := decodeJSON(r, &sp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sp.ID = 0
	if err := h.svc.Catalog.CreateSpace(r.Context(), &sp); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *handler) getSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sp, err := h.svc.Catalog.GetSpace(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *handler) updateSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sp, err := h.svc.Catalog.GetSpace(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := decodeJSON(r, sp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sp.ID = id
	if err := h.svc.Catalog.UpdateSpace(r.Context(), sp); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *handler) deactivateSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeactivateSpace(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		u, err := h.svc.Catalog.GetUserByEmail(r.Context(), email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": []*models.User{u}})
		return
	}
	users, err := h.svc.Catalog.GetAllUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.ID = 0
	if err := h.svc.Catalog.CreateUser(r.Context(), &u); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Catalog.GetUserByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Catalog.GetUserByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := decodeJSON(r, u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.ID = id
	if err := h.svc.Catalog.UpdateUser(r.Context(), u); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) linkTelegram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		ChatID int64 `json:"chatId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ChatID == 0 {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}
	u, err := h.svc.Catalog.LinkTelegram(r.Context(), id, body.ChatID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) listReviews(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviews, err := h.svc.Catalog.GetReviews(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *handler) createReview(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var rev models.Review
	if err := decodeJSON(r, &rev); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rev.ID = 0
	rev.SpaceID = spaceID
	if err := h.svc.Catalog.CreateReview(r.Context(), &rev); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *handler) spaceRating(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.svc.Catalog.GetRating(r.Context(), spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	favs, err := h.svc.Catalog.GetFavorites(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favs})
}

func (h *handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	spaceID, ok := pathID(w, r, "spaceID")
	if !ok {
		return
	}
	fav, err := h.svc.Catalog.AddFavorite(r.Context(), userID, spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

func (h *handler) isFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	spaceID, ok := pathID(w, r, "spaceID")
	if !ok {
		return
	}
	fav, err := h.svc.Catalog.IsFavorite(r.Context(), userID, spaceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": fav})
}

func (h *handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	spaceID, ok := pathID(w, r, "spaceID")
	if !ok {
		return
	}
	if err := h.svc.Catalog.RemoveFavorite(r.Context(), userID, spaceID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
