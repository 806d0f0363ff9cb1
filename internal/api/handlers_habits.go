package api

import (
	"net/http"

	"recurring-planner/internal/api/respond"
)

func (h *handler) createHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &in) {
		return
	}
	habit, err := h.deps.Habits.CreateHabit(r.Context(), user.ID, in.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusCreated, habit)
}

func (h *handler) logHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	habitID, ok := pathID(r, "habitId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid habitId")
		return
	}
	var in struct {
		Date string `json:"date,omitempty"`
	}
	if !decode(w, r, &in) {
		return
	}
	date, err := parseDate(in.Date)
	if err != nil {
		respond.WriteBadRequest(w, r, "date must be YYYY-MM-DD")
		return
	}

	created, err := h.deps.Habits.LogHabit(r.Context(), user.ID, habitID, date, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, r, status, map[string]bool{"created": created})
}

func (h *handler) habitStreak(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	habitID, ok := pathID(r, "habitId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid habitId")
		return
	}
	streak, err := h.deps.Habits.HabitStreak(r.Context(), user.ID, habitID, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, streak)
}
