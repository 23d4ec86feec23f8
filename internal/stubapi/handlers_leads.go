package stubapi

import (
	"encoding/json"
	"net/http"

	"admitcrm/internal/access"
	"admitcrm/internal/crm"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := LeadQuery{
		Search:     r.URL.Query().Get("search"),
		StageID:    queryInt(r, "stage_id"),
		SourceID:   queryInt(r, "source_id"),
		AssignedTo: queryInt(r, "assigned_to"),
		Status:     crm.LeadStatus(r.URL.Query().Get("status")),
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "per_page"),
	}
	// Non-privileged roles only ever see their own pipeline.
	user := currentUser(r)
	if user.Role == crm.RoleExecutive || user.Role == crm.RoleConsultant {
		q.AssignedTo = user.ID
	}
	writeJSON(w, http.StatusOK, s.data.Leads(q))
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	lead, found := s.data.Lead(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	user := currentUser(r)
	if !access.NewChecker(&user).CanAccessLead(lead.AssignedTo) {
		writeError(w, http.StatusForbidden, "forbidden", "you do not have access to this lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Lead{"lead": lead})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var form crm.LeadForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.Lead{"lead": s.data.CreateLead(form)})
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	existing, found := s.data.Lead(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	user := currentUser(r)
	if !access.NewChecker(&user).CanEditLead(existing.AssignedTo) {
		writeError(w, http.StatusForbidden, "forbidden", "you cannot edit this lead")
		return
	}
	var form crm.LeadForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	lead, _ := s.data.UpdateLead(id, form)
	writeJSON(w, http.StatusOK, map[string]crm.Lead{"lead": lead})
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	if !s.data.DeleteLead(id) {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead deleted"})
}

func (s *Server) handleChangeLeadStage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	var body struct {
		StageID    int `json:"stage_id"`
		OldStageID int `json:"old_stage_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StageID == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "stage_id is required")
		return
	}
	lead, found := s.data.ChangeLeadStage(id, body.StageID)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Lead{"lead": lead})
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid lead id")
		return
	}
	app, err := s.data.ConvertLead(id)
	if err != nil {
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.Application{"application": app})
}

func (s *Server) handleLeadKPIs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.LeadKPIs())
}

func (s *Server) handleStageDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.StageCount{"distribution": s.data.StageDistribution()})
}

func (s *Server) handleSourceDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.SourceCount{"distribution": s.data.SourceDistribution()})
}
