package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"recurring-planner/internal/api/respond"
	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/service"
)

type handler struct {
	deps Deps
}

func (h *handler) now() time.Time {
	return h.deps.Clock().In(h.deps.Location)
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respond.WriteBadRequest(w, r, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnknownJob):
		respond.WriteNotFound(w, r, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrJobRunning):
		respond.WriteError(w, r, http.StatusConflict, err.Error())
	default:
		respond.WriteInternalError(w, r, err)
	}
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// owner resolves {userId} to a stored user, writing the error response itself
// when it cannot.
func (h *handler) owner(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, ok := pathID(r, "userId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid userId")
		return nil, false
	}
	user, err := h.deps.Users.FindByID(r.Context(), id)
	if err != nil {
		respond.WriteNotFound(w, r, "user not found")
		return nil, false
	}
	return user, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteBadRequest(w, r, "invalid json")
		return false
	}
	return true
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "time": h.now().Format(time.RFC3339)})
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string `json:"name"`
		TelegramID *int64 `json:"telegramId,omitempty"`
	}
	if !decode(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		respond.WriteBadRequest(w, r, "name is required")
		return
	}
	user := model.User{Name: in.Name, TelegramID: in.TelegramID}
	if err := h.deps.Users.Create(r.Context(), &user); err != nil {
		respond.WriteInternalError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusCreated, user)
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}
