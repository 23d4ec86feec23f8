package stubapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"admitcrm/internal/crm"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req crm.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	user, ok := s.data.Authenticate(req.Email, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password")
		return
	}
	access, err := s.tokens.MintAccess(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "token minting failed")
		return
	}
	refresh, err := s.tokens.MintRefresh(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, crm.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	})
}

// handleRefresh exchanges a refresh token, presented as the bearer, for a
// new access token plus the current profile.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	} else {
		token = ""
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing refresh token")
		return
	}
	claims, err := s.tokens.Verify(token, tokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		return
	}
	user, ok := s.data.UserByID(claims.UserID)
	if !ok || !user.IsActive {
		writeError(w, http.StatusUnauthorized, "unauthorized", "account disabled")
		return
	}
	access, err := s.tokens.MintAccess(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"user":         user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]crm.User{"user": currentUser(r)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var isActive *bool
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "is_active must be a boolean")
			return
		}
		isActive = &v
	}
	users := s.data.Users(crm.Role(r.URL.Query().Get("role")), isActive)
	writeJSON(w, http.StatusOK, map[string][]crm.User{"users": users})
}

func (s *Server) handleExecutives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]crm.User{"executives": s.data.Executives()})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var form crm.UserForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	user, err := s.data.CreateUser(form)
	if err != nil {
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]crm.User{"user": user})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid user id")
		return
	}
	var patch UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
		return
	}
	user, found := s.data.UpdateUser(id, patch)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]crm.User{"user": user})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid user id")
		return
	}
	if id == currentUser(r).ID {
		writeError(w, http.StatusConflict, "conflict", "cannot delete your own account")
		return
	}
	if !s.data.DeleteUser(id) {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
