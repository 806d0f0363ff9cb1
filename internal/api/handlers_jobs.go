package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"recurring-planner/internal/api/respond"
)

// runJob triggers a scheduled job once and waits for it to finish.
func (h *handler) runJob(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scheduler == nil {
		respond.WriteError(w, r, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}
	name := mux.Vars(r)["name"]
	if err := h.deps.Scheduler.Trigger(r.Context(), name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, map[string]string{"job": name, "status": "done"})
}
