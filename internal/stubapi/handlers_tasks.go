package stubapi

import (
	"encoding/json"
	"net/http"

	"admitcrm/internal/crm"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := TaskQuery{
		Status:     crm.TaskStatus(r.URL.Query().Get("status")),
		Priority:   crm.TaskPriority(r.URL.Query().Get("priority")),
		AssignedTo: queryInt(r, "assigned_to"),
		LeadID:     queryInt(r, "lead_id"),
		Overdue:    r.URL.Query().Get("overdue") == "true",
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "per_page"),
	}
	writeJSON(w, http.StatusOK, s.data.Tasks(q))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid task id")
		return
	}
	task, found := s.data.Task(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Task{"task": task})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var form crm.TaskForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	task := s.data.CreateTask(form, currentUser(r).ID)
	writeJSON(w, http.StatusCreated, map[string]crm.Task{"task": task})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid task id")
		return
	}
	var form crm.TaskForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	task, found := s.data.UpdateTask(id, form)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Task{"task": task})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid task id")
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	// An empty body is allowed; notes are optional.
	_ = json.NewDecoder(r.Body).Decode(&body)
	task, found := s.data.CompleteTask(id, currentUser(r).ID, body.Notes)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Task{"task": task})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid task id")
		return
	}
	if !s.data.DeleteTask(id) {
		writeError(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (s *Server) handlePendingTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.data.PendingTasks(currentUser(r).ID)
	writeJSON(w, http.StatusOK, map[string][]crm.Task{"tasks": tasks})
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.TaskStats())
}
