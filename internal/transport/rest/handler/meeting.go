package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
)

// MeetingEngine is the state-manager surface the handler dispatches to.
type MeetingEngine interface {
	MeetingReader
	InitializeMeeting(ctx context.Context, cfg *model.MeetingConfig) (*model.Meeting, error)
	Join(ctx context.Context, meetingID string) (*model.MeetingSnapshot, error)
	SubmitPlayerResponse(ctx context.Context, meetingID, topicID, text string) (*model.RespondResponse, error)
	LeaveMeetingEarly(ctx context.Context, meetingID string) (*model.Summary, error)
	GetMessagesSince(ctx context.Context, meetingID, lastMessageID string) ([]model.Message, error)
}

// MeetingHandler handles meeting endpoints
type MeetingHandler struct {
	engine MeetingEngine
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(engine MeetingEngine) *MeetingHandler {
	return &MeetingHandler{engine: engine}
}

// Create handles POST /v1/meetings
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cfg model.MeetingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meeting, err := h.engine.InitializeMeeting(r.Context(), &cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

// Get handles GET /v1/meetings/{id}
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	meeting, err := h.engine.GetMeeting(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

// Join handles POST /v1/meetings/{id}/join
func (h *MeetingHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snapshot, err := h.engine.Join(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Respond handles POST /v1/meetings/{id}/respond
func (h *MeetingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopicID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "topicId and text are required")
		return
	}

	resp, err := h.engine.SubmitPlayerResponse(r.Context(), id, req.TopicID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leave handles POST /v1/meetings/{id}/leave
func (h *MeetingHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, err := h.engine.LeaveMeetingEarly(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Messages handles GET /v1/meetings/{id}/messages?after={messageId}
func (h *MeetingHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	after := r.URL.Query().Get("after")

	messages, err := h.engine.GetMessagesSince(r.Context(), id, after)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMeetingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidMeetingState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownCursor):
		// The client's cursor is gone; it should re-join and re-seed.
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
