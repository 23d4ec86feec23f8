package stubapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"admitcrm/internal/access"
	"admitcrm/internal/platform/config"
)

// Server is the stub REST API. It serves the exact envelopes the client's
// resource services expect.
type Server struct {
	data   *Dataset
	tokens *TokenService
	log    *slog.Logger
}

func New(cfg config.Stub, log *slog.Logger) (*Server, error) {
	data, err := NewDataset()
	if err != nil {
		return nil, err
	}
	return &Server{
		data:   data,
		tokens: NewTokenService(cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		log:    log,
	}, nil
}

// Handler builds the full router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recovery(s.log))
	r.Use(requestID)
	r.Use(requestLogger(s.log))

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/auth/me", s.handleMe)
		r.Get("/auth/users", s.handleListUsers)
		r.Get("/auth/executives", s.handleExecutives)
		r.With(s.requireAdmin).Post("/auth/users", s.handleCreateUser)
		r.With(s.requireAdmin).Put("/auth/users/{id}", s.handleUpdateUser)
		r.With(s.requireAdmin).Delete("/auth/users/{id}", s.handleDeleteUser)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.handleListLeads)
			r.Get("/kpis", s.handleLeadKPIs)
			r.Get("/stage-distribution", s.handleStageDistribution)
			r.Get("/source-distribution", s.handleSourceDistribution)
			r.Post("/", s.handleCreateLead)
			r.Get("/{id}", s.handleGetLead)
			r.Put("/{id}", s.handleUpdateLead)
			r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteLead)
			r.Patch("/{id}/stage", s.handleChangeLeadStage)
			r.Post("/{id}/convert", s.handleConvertLead)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Get("/pending", s.handlePendingTasks)
			r.Get("/stats", s.handleTaskStats)
			r.Post("/", s.handleCreateTask)
			r.Get("/{id}", s.handleGetTask)
			r.Put("/{id}", s.handleUpdateTask)
			r.Patch("/{id}/complete", s.handleCompleteTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", s.handleListActivities)
			r.Get("/recent", s.handleRecentActivities)
			r.Get("/lead/{id}", s.handleLeadActivities)
			r.Post("/", s.handleCreateActivity)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", s.handleListApplications)
			r.Get("/stats", s.handleApplicationStats)
			r.Get("/{id}", s.handleGetApplication)
			r.Put("/{id}/status", s.handleUpdateApplicationStatus)
			r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteApplication)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(s.requireReports)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/conversion-funnel", s.handleConversionFunnel)
			r.Get("/source-performance", s.handleSourcePerformance)
			r.Get("/lead-trends", s.handleLeadTrends)
			r.Get("/user-performance", s.handleUserPerformance)
			r.Get("/stage-distribution", s.handleStageDistribution)
			r.Get("/application-status", s.handleApplicationStatusRollup)
			r.Get("/recent-activities", s.handleRecentActivities)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/stages", s.handleListStages)
			r.Get("/sources", s.handleListSources)

			r.Group(func(r chi.Router) {
				r.Use(s.requireSettings)
				r.Post("/stages", s.handleCreateStage)
				r.Put("/stages/{id}", s.handleUpdateStage)
				r.Delete("/stages/{id}", s.handleDeleteStage)
				r.Post("/sources", s.handleCreateSource)
				r.Put("/sources/{id}", s.handleUpdateSource)
				r.Delete("/sources/{id}", s.handleDeleteSource)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/workflows", s.handleListWorkflows)
				r.Post("/workflows", s.handleCreateWorkflow)
				r.Put("/workflows/{id}", s.handleUpdateWorkflow)
				r.Delete("/workflows/{id}", s.handleDeleteWorkflow)
				r.Get("/stats", s.handleSystemStats)
			})
		})
	})

	return r
}

// Role gates reuse the client's access predicates so both sides of the wire
// agree on who may do what.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.gate(next, func(c access.Checker) bool { return c.IsAdmin() })
}

func (s *Server) requireSettings(next http.Handler) http.Handler {
	return s.gate(next, func(c access.Checker) bool { return c.CanManageSettings() })
}

func (s *Server) requireReports(next http.Handler) http.Handler {
	return s.gate(next, func(c access.Checker) bool { return c.CanViewReports() })
}

func (s *Server) gate(next http.Handler, allowed func(access.Checker) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if !allowed(access.NewChecker(&user)) {
			writeError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
