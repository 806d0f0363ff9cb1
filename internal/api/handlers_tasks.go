package api

import (
	"net/http"

	"recurring-planner/internal/api/respond"
	"recurring-planner/internal/model"
	"recurring-planner/internal/service"
)

type recurrenceRequest struct {
	Type         string `json:"type"`
	IntervalDays *int   `json:"intervalDays,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Upfront      bool   `json:"upfront,omitempty"`
}

type createTaskRequest struct {
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Category         string             `json:"category,omitempty"`
	Priority         model.Priority     `json:"priority,omitempty"`
	Date             string             `json:"date,omitempty"`
	DueDate          string             `json:"dueDate,omitempty"`
	EstimatedMinutes *int               `json:"estimatedMinutes,omitempty"`
	RemindAt         *string            `json:"remindAt,omitempty"`
	Recurrence       *recurrenceRequest `json:"recurrence,omitempty"`
}

func (req createTaskRequest) input() (service.TaskInput, string) {
	in := service.TaskInput{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Priority:         req.Priority,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	var err error
	if in.Date, err = parseDate(req.Date); err != nil {
		return in, "date must be YYYY-MM-DD"
	}
	if in.DueDate, err = parseDate(req.DueDate); err != nil {
		return in, "dueDate must be YYYY-MM-DD"
	}
	if req.RemindAt != nil {
		at, err := parseTimestamp(*req.RemindAt)
		if err != nil {
			return in, "remindAt must be RFC 3339"
		}
		in.RemindAt = &at
	}
	if rec := req.Recurrence; rec != nil {
		end, err := parseDate(rec.EndDate)
		if err != nil {
			return in, "recurrence.endDate must be YYYY-MM-DD"
		}
		in.Recurrence = &service.RecurrenceInput{
			Type:         rec.Type,
			IntervalDays: rec.IntervalDays,
			EndDate:      end,
			Upfront:      rec.Upfront,
		}
	}
	return in, ""
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req createTaskRequest
	if !decode(w, r, &req) {
		return
	}
	in, problem := req.input()
	if problem != "" {
		respond.WriteBadRequest(w, r, problem)
		return
	}
	res, err := h.deps.Tasks.CreateTask(r.Context(), user.ID, in, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusCreated, res)
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respond.WriteBadRequest(w, r, "date must be YYYY-MM-DD")
		return
	}
	var tasks []model.Task
	if day == nil {
		tasks, err = h.deps.Tasks.ListToday(r.Context(), user.ID, h.now())
	} else {
		tasks, err = h.deps.Tasks.ListDay(r.Context(), user.ID, *day)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, tasks)
}

func (h *handler) completeTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid taskId")
		return
	}
	var in struct {
		ActualMinutes *int `json:"actualMinutes,omitempty"`
	}
	if !decode(w, r, &in) {
		return
	}
	res, err := h.deps.Tasks.CompleteTask(r.Context(), user.ID, taskID, in.ActualMinutes, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, res)
}

func (h *handler) reopenTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid taskId")
		return
	}
	task, err := h.deps.Tasks.ReopenTask(r.Context(), user.ID, taskID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, task)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.owner(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(r, "taskId")
	if !ok {
		respond.WriteBadRequest(w, r, "invalid taskId")
		return
	}
	if err := h.deps.Tasks.DeleteTask(r.Context(), user.ID, taskID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
