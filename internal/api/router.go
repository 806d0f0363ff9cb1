package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"recurring-planner/internal/api/recovery"
	"recurring-planner/internal/repository"
	"recurring-planner/internal/service"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Users     *repository.UserRepository
	Tasks     *service.TaskService
	Analytics *service.AnalyticsService
	Habits    *service.HabitService
	Scheduler *service.SchedulerService
	Location  *time.Location
	// Clock defaults to time.Now.
	Clock func() time.Time
	Log   zerolog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	h := &handler{deps: d}

	router := mux.NewRouter()
	router.Use(requestLogger(d.Log))
	router.Use(recovery.Middleware)

	router.HandleFunc("/api/health", h.health).Methods(http.MethodGet)

	router.HandleFunc("/api/users", h.createUser).Methods(http.MethodPost)

	router.HandleFunc("/api/users/{userId:[0-9]+}/tasks", h.createTask).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userId:[0-9]+}/tasks", h.listTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userId:[0-9]+}/tasks/{taskId:[0-9]+}", h.deleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/api/users/{userId:[0-9]+}/tasks/{taskId:[0-9]+}/complete", h.completeTask).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userId:[0-9]+}/tasks/{taskId:[0-9]+}/reopen", h.reopenTask).Methods(http.MethodPost)

	router.HandleFunc("/api/users/{userId:[0-9]+}/analytics", h.getAnalytics).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userId:[0-9]+}/checkbook", h.checkbook).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userId:[0-9]+}/streaks", h.titleStreak).Methods(http.MethodGet)

	router.HandleFunc("/api/users/{userId:[0-9]+}/habits", h.createHabit).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userId:[0-9]+}/habits/{habitId:[0-9]+}/logs", h.logHabit).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userId:[0-9]+}/habits/{habitId:[0-9]+}/streak", h.habitStreak).Methods(http.MethodGet)

	router.HandleFunc("/api/jobs/{name}/run", h.runJob).Methods(http.MethodPost)

	return router
}
