package stubapi

import (
	"encoding/json"
	"net/http"

	"admitcrm/internal/crm"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.DashboardStats())
}

func (s *Server) handleConversionFunnel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.FunnelStage{"funnel": s.data.ConversionFunnel()})
}

func (s *Server) handleSourcePerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.SourcePerformance{"performance": s.data.SourcePerformance()})
}

func (s *Server) handleLeadTrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.TrendPoint{"trends": s.data.LeadTrends(queryInt(r, "days"))})
}

func (s *Server) handleUserPerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.UserPerformance{"performance": s.data.UserPerformance()})
}

func (s *Server) handleApplicationStatusRollup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.ApplicationStatusRollup())
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.Stage{"stages": s.data.Stages()})
}

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var form crm.StageForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.Stage{"stage": s.data.CreateStage(form)})
}

func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid stage id")
		return
	}
	var form crm.StageForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	stage, found := s.data.UpdateStage(id, form)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "stage not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Stage{"stage": stage})
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid stage id")
		return
	}
	if err := s.data.DeleteStage(id); err != nil {
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stage deleted"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.Source{"sources": s.data.Sources()})
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var form crm.SourceForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.Source{"source": s.data.CreateSource(form)})
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid source id")
		return
	}
	var form crm.SourceForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	source, found := s.data.UpdateSource(id, form)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Source{"source": source})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid source id")
		return
	}
	if !s.data.DeleteSource(id) {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Source deleted"})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.Workflow{"workflows": s.data.Workflows()})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var form crm.WorkflowForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.Workflow{"workflow": s.data.CreateWorkflow(form)})
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid workflow id")
		return
	}
	var form crm.WorkflowForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	wf, found := s.data.UpdateWorkflow(id, form)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.Workflow{"workflow": wf})
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid workflow id")
		return
	}
	if !s.data.DeleteWorkflow(id) {
		writeError(w, http.StatusNotFound, "not_found", "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Workflow deleted"})
}

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.SystemStats())
}
