package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/seslikitap/seslikitap-server/internal/http/response"
)

// LoginRequest is the request body for binding a user to the session.
type LoginRequest struct {
	UserID        string `json:"userId" validate:"required"`
	Username      string `json:"username" validate:"required,min=1,max=64"`
	AdminPassword string `json:"adminPassword,omitempty"`
}

// SessionResponse describes the bound session.
type SessionResponse struct {
	UserID        string   `json:"userId"`
	Username      string   `json:"username"`
	Admin         bool     `json:"admin"`
	PlaybackSpeed float64  `json:"playbackSpeed"`
	Favorites     []string `json:"favorites"`
}

// handleLogin binds a user to the playback session, creating their remote
// document on first login. A matching admin password marks the session admin;
// an empty configured password disables admin entirely.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validate.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	admin := s.adminPassword != "" && req.AdminPassword == s.adminPassword
	if req.AdminPassword != "" && !admin {
		response.Unauthorized(w, "invalid admin password", s.logger)
		return
	}

	doc, err := s.engine.Login(r.Context(), req.UserID, req.Username, admin)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, SessionResponse{
		UserID:        req.UserID,
		Username:      doc.Username,
		Admin:         admin,
		PlaybackSpeed: doc.PlaybackSpeed,
		Favorites:     doc.Favorites,
	}, s.logger)
}

// handleLogout clears the session.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.engine.Logout()
	response.NoContent(w)
}

// handleGetSession returns the bound user, or 404 when logged out.
func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	userID, username, bound := s.engine.Session()
	if !bound {
		response.NotFound(w, "no active session", s.logger)
		return
	}

	response.Success(w, SessionResponse{
		UserID:        userID,
		Username:      username,
		Admin:         s.engine.Admin(),
		PlaybackSpeed: s.engine.PlaybackRate(),
		Favorites:     s.engine.Favorites(),
	}, s.logger)
}

// UsernameRequest is the request body for renaming the bound user.
type UsernameRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// handleSetUsername updates the bound user's display name.
func (s *Server) handleSetUsername(w http.ResponseWriter, r *http.Request) {
	var req UsernameRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validate.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if _, _, bound := s.engine.Session(); !bound {
		response.Unauthorized(w, "no active session", s.logger)
		return
	}

	if err := s.engine.SetUsername(r.Context(), req.Username); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{"username": req.Username}, s.logger)
}
