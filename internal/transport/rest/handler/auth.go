package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
)

// MeetingReader is the read surface the auth handler needs to scope tokens.
type MeetingReader interface {
	GetMeeting(ctx context.Context, meetingID string) (*model.Meeting, error)
}

// AuthHandler handles session token issuance
type AuthHandler struct {
	authSvc  *service.AuthService
	meetings MeetingReader
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, meetings MeetingReader) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, meetings: meetings}
}

// CreateSession handles POST /v1/auth/session
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req model.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MeetingID == "" || req.SessionOwner == "" {
		writeError(w, http.StatusBadRequest, "meetingId and sessionOwner are required")
		return
	}

	meeting, err := h.meetings.GetMeeting(r.Context(), req.MeetingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if meeting.SessionOwner != req.SessionOwner {
		writeError(w, http.StatusUnauthorized, "meeting belongs to a different session owner")
		return
	}

	token, err := h.authSvc.IssueSessionToken(req.MeetingID, req.SessionOwner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{
		Token:     token,
		MeetingID: req.MeetingID,
	})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
