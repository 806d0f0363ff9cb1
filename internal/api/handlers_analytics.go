package api

import (
	"net/http"
	"strconv"

	"recurring-planner/internal/analytics"
	"recurring-planner/internal/api/respond"
	"recurring-planner/internal/service"
)

// getAnalytics serves GET /analytics?period=&date=&start=&end=. date picks the
// reference day of a named period; start and end bound a custom one.
func (h *handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	period, err := analytics.ParsePeriod(q.Get("period"))
	if err != nil {
		respond.WriteBadRequest(w, r, err.Error())
		return
	}
	query := service.AnalyticsQuery{Period: period}
	if query.Ref, err = parseDate(q.Get("date")); err != nil {
		respond.WriteBadRequest(w, r, "date must be YYYY-MM-DD")
		return
	}
	if query.First, err = parseDate(q.Get("start")); err != nil {
		respond.WriteBadRequest(w, r, "start must be YYYY-MM-DD")
		return
	}
	if query.Last, err = parseDate(q.Get("end")); err != nil {
		respond.WriteBadRequest(w, r, "end must be YYYY-MM-DD")
		return
	}

	snap, err := h.deps.Analytics.Analytics(r.Context(), user.ID, query, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, snap)
}

func (h *handler) checkbook(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start := h.now()
	if d, err := parseDate(q.Get("start")); err != nil {
		respond.WriteBadRequest(w, r, "start must be YYYY-MM-DD")
		return
	} else if d != nil {
		start = *d
	}
	weeks := 4
	if raw := q.Get("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond.WriteBadRequest(w, r, "weeks must be a number")
			return
		}
		weeks = n
	}

	cb, err := h.deps.Analytics.Checkbook(r.Context(), user.ID, start, weeks)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, cb)
}

func (h *handler) titleStreak(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	title := r.URL.Query().Get("title")
	streak, err := h.deps.Analytics.TitleStreak(r.Context(), user.ID, title, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, map[string]interface{}{"title": title, "streak": streak})
}
