// Package auth implements login, logout, the current-user session and the
// admin-facing user directory on top of the gateway and keyring.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"admitcrm/internal/access"
	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/session"
	"admitcrm/pkg/apierror"
)

// Service wires the gateway, the persisted keyring and the in-memory session
// together. Login flows write the keyring first so a crash between steps
// leaves the client recoverable on next start.
type Service struct {
	gw      *gateway.Client
	keyring session.Keyring
	session *session.Session
	notify  notify.Notifier
}

func NewService(gw *gateway.Client, keyring session.Keyring, sess *session.Session, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{gw: gw, keyring: keyring, session: sess, notify: n}
}

// Session exposes the session container for read access.
func (s *Service) Session() *session.Session { return s.session }

// Checker returns an access checker bound to the current user.
func (s *Service) Checker() access.Checker {
	return access.NewChecker(s.session.CurrentUser())
}

// Login authenticates against /auth/login and persists both tokens plus the
// user profile before marking the session authenticated.
func (s *Service) Login(ctx context.Context, req crm.LoginRequest) (*crm.User, error) {
	if err := req.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	s.session.Dispatch(session.LoginStart{})

	var out crm.LoginResponse
	if err := s.gw.Post(ctx, "/auth/login", req, &out); err != nil {
		msg := apierror.Message(err, "Login failed")
		s.session.Dispatch(session.LoginFailure{Message: msg})
		s.notify.Error(msg)
		return nil, err
	}
	if err := s.keyring.SetTokens(out.AccessToken, out.RefreshToken); err != nil {
		s.session.Dispatch(session.LoginFailure{Message: err.Error()})
		return nil, err
	}
	if err := s.keyring.SetUser(&out.User); err != nil {
		s.session.Dispatch(session.LoginFailure{Message: err.Error()})
		return nil, err
	}
	s.session.Dispatch(session.LoginSuccess{User: out.User})
	s.notify.Success("Login successful")
	return &out.User, nil
}

// Logout clears the keyring and resets the session. It is purely local; the
// server keeps no session state beyond token expiry.
func (s *Service) Logout() error {
	if err := s.keyring.Clear(); err != nil {
		return err
	}
	s.session.Dispatch(session.Logout{})
	s.notify.Info("Logged out")
	return nil
}

// RefreshUser re-fetches the profile from /auth/me. Role changes made by an
// admin only become visible to the client through this call.
func (s *Service) RefreshUser(ctx context.Context) (*crm.User, error) {
	var out struct {
		User crm.User `json:"user"`
	}
	if err := s.gw.Get(ctx, "/auth/me", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch profile"))
		return nil, err
	}
	if err := s.keyring.SetUser(&out.User); err != nil {
		return nil, err
	}
	s.session.Dispatch(session.UpdateUser{User: out.User})
	return &out.User, nil
}

// UserFilters narrows the user directory query.
type UserFilters struct {
	Role     crm.Role
	IsActive *bool
}

// Users lists the user directory, optionally filtered by role and active
// flag.
func (s *Service) Users(ctx context.Context, f UserFilters) ([]crm.User, error) {
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", string(f.Role))
	}
	if f.IsActive != nil {
		q.Set("is_active", strconv.FormatBool(*f.IsActive))
	}
	var out struct {
		Users []crm.User `json:"users"`
	}
	if err := s.gw.Get(ctx, "/auth/users", q, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch users"))
		return nil, err
	}
	return out.Users, nil
}

// Executives lists the users leads can be assigned to.
func (s *Service) Executives(ctx context.Context) ([]crm.User, error) {
	var out struct {
		Executives []crm.User `json:"executives"`
	}
	if err := s.gw.Get(ctx, "/auth/executives", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch executives"))
		return nil, err
	}
	return out.Executives, nil
}

func (s *Service) CreateUser(ctx context.Context, form crm.UserForm) (*crm.User, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		User crm.User `json:"user"`
	}
	if err := s.gw.Post(ctx, "/auth/users", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create user"))
		return nil, err
	}
	s.notify.Success("User created successfully")
	return &out.User, nil
}

// UserUpdate carries the fields an admin may change on an existing user.
// Nil and zero-valued fields are left untouched.
type UserUpdate struct {
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Role     crm.Role `json:"role,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

func (s *Service) UpdateUser(ctx context.Context, id int, update UserUpdate) (*crm.User, error) {
	var out struct {
		User crm.User `json:"user"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/auth/users/%d", id), update, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update user"))
		return nil, err
	}
	if cur := s.session.CurrentUser(); cur != nil && cur.ID == id {
		s.session.Dispatch(session.UpdateUser{User: out.User})
		if err := s.keyring.SetUser(&out.User); err != nil {
			return nil, err
		}
	}
	s.notify.Success("User updated successfully")
	return &out.User, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/auth/users/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete user"))
		return err
	}
	s.notify.Success("User deleted successfully")
	return nil
}
