package stubapi

import (
	"encoding/json"
	"net/http"

	"admitcrm/internal/crm"
)

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	q := ActivityQuery{
		LeadID:  queryInt(r, "lead_id"),
		Type:    crm.ActivityType(r.URL.Query().Get("type")),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	writeJSON(w, http.StatusOK, s.data.Activities(q))
}

func (s *Server) handleLeadActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	activities := s.data.LeadActivities(id, queryInt(r, "limit"))
	writeJSON(w, http.StatusOK, map[string][]crm.Activity{"activities": activities})
}

func (s *Server) handleRecentActivities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	if limit == 0 {
		limit = 20
	}
	writeJSON(w, http.StatusOK, map[string][]crm.Activity{"activities": s.data.RecentActivities(limit)})
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LeadID      int              `json:"lead_id"`
		Type        crm.ActivityType `json:"type"`
		Description string           `json:"description"`
		Metadata    map[string]any   `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if body.LeadID == 0 || body.Type == "" || body.Description == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "lead_id, type and description are required")
		return
	}
	if err := crm.ValidateMetadata(body.Metadata); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if _, found := s.data.Lead(body.LeadID); !found {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	activity := s.data.CreateActivity(crm.Activity{
		Type:        body.Type,
		Description: body.Description,
		LeadID:      body.LeadID,
		UserID:      currentUser(r).ID,
		Metadata:    body.Metadata,
	})
	writeJSON(w, http.StatusCreated, map[string]crm.Activity{"activity": activity})
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := ApplicationQuery{
		DocumentStatus:   crm.DocumentStatus(r.URL.Query().Get("document_status")),
		FeeStatus:        crm.FeeStatus(r.URL.Query().Get("fee_status")),
		AdmissionStatus:  crm.AdmissionStatus(r.URL.Query().Get("admission_status")),
		EnrollmentStatus: crm.EnrollmentStatus(r.URL.Query().Get("enrollment_status")),
		OverallStatus:    crm.OverallStatus(r.URL.Query().Get("overall_status")),
		Page:             queryInt(r, "page"),
		PerPage:          queryInt(r, "per_page"),
	}
	writeJSON(w, http.StatusOK, s.data.Applications(q))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid application id")
		return
	}
	app, found := s.data.Application(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "application not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Application{"application": app})
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid application id")
		return
	}
	var update crm.ApplicationStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	app, found := s.data.UpdateApplicationStatus(id, update)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "application not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Application{"application": app})
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid application id")
		return
	}
	if !s.data.DeleteApplication(id) {
		writeError(w, http.StatusNotFound, "not_found", "application not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Application deleted"})
}

func (s *Server) handleApplicationStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.ApplicationStats())
}
