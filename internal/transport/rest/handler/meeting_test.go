package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
)

// stubEngine returns canned values and records the arguments it was called
// with.
type stubEngine struct {
	meeting  *model.Meeting
	snapshot *model.MeetingSnapshot
	respond  *model.RespondResponse
	summary  *model.Summary
	messages []model.Message
	err      error

	gotTopicID string
	gotText    string
	gotCursor  string
}

func (s *stubEngine) GetMeeting(ctx context.Context, meetingID string) (*model.Meeting, error) {
	return s.meeting, s.err
}

func (s *stubEngine) InitializeMeeting(ctx context.Context, cfg *model.MeetingConfig) (*model.Meeting, error) {
	return s.meeting, s.err
}

func (s *stubEngine) Join(ctx context.Context, meetingID string) (*model.MeetingSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubEngine) SubmitPlayerResponse(ctx context.Context, meetingID, topicID, text string) (*model.RespondResponse, error) {
	s.gotTopicID = topicID
	s.gotText = text
	return s.respond, s.err
}

func (s *stubEngine) LeaveMeetingEarly(ctx context.Context, meetingID string) (*model.Summary, error) {
	return s.summary, s.err
}

func (s *stubEngine) GetMessagesSince(ctx context.Context, meetingID, lastMessageID string) ([]model.Message, error) {
	s.gotCursor = lastMessageID
	return s.messages, s.err
}

func doRequest(h http.HandlerFunc, method, target string, body []byte, vars map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreateMeeting(t *testing.T) {
	engine := &stubEngine{meeting: &model.Meeting{ID: "m-1", Status: model.MeetingScheduled}}
	h := NewMeetingHandler(engine)

	body, _ := json.Marshal(model.MeetingConfig{
		SessionOwner: "player-1",
		Topics:       []model.Topic{{ID: "t-1", Question: "Q?"}},
		Participants: []model.Participant{{ID: "p-1", Name: "Maya"}},
	})
	rec := doRequest(h.Create, http.MethodPost, "/v1/meetings", body, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got model.Meeting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "m-1", got.ID)
}

func TestCreateMeetingBadBody(t *testing.T) {
	h := NewMeetingHandler(&stubEngine{})
	rec := doRequest(h.Create, http.MethodPost, "/v1/meetings", []byte("{not json"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondValidatesBody(t *testing.T) {
	engine := &stubEngine{respond: &model.RespondResponse{NextTopicIndex: 1}}
	h := NewMeetingHandler(engine)
	vars := map[string]string{"id": "m-1"}

	rec := doRequest(h.Respond, http.MethodPost, "/v1/meetings/m-1/respond", []byte(`{"topicId":"t-1"}`), vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, _ := json.Marshal(model.RespondRequest{TopicID: "t-1", Text: "my answer"})
	rec = doRequest(h.Respond, http.MethodPost, "/v1/meetings/m-1/respond", body, vars)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", engine.gotTopicID)
	assert.Equal(t, "my answer", engine.gotText)
}

func TestMessagesPassesCursor(t *testing.T) {
	engine := &stubEngine{messages: []model.Message{
		{ID: "d", SequenceNumber: 3, Type: model.MessagePlayerResponse},
	}}
	h := NewMeetingHandler(engine)

	rec := doRequest(h.Messages, http.MethodGet, "/v1/meetings/m-1/messages?after=c", nil, map[string]string{"id": "m-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c", engine.gotCursor)

	var got struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 1)
	assert.Equal(t, int64(3), got.Messages[0].SequenceNumber)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrMeetingNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInvalidMeetingState, http.StatusConflict},
		{service.ErrUnknownCursor, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		engine := &stubEngine{err: tc.err}
		h := NewMeetingHandler(engine)

		rec := doRequest(h.Join, http.MethodPost, "/v1/meetings/m-1/join", nil, map[string]string{"id": "m-1"})
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestLeaveReturnsSummary(t *testing.T) {
	engine := &stubEngine{summary: &model.Summary{XPAwarded: 75, GeneratedTasks: []model.TaskStub{}}}
	h := NewMeetingHandler(engine)

	rec := doRequest(h.Leave, http.MethodPost, "/v1/meetings/m-1/leave", nil, map[string]string{"id": "m-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var got model.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 75, got.XPAwarded)
	assert.NotNil(t, got.GeneratedTasks)
	assert.Empty(t, got.GeneratedTasks)
}

func TestCreateSession(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	engine := &stubEngine{meeting: &model.Meeting{ID: "m-1", SessionOwner: "player-1"}}
	h := NewAuthHandler(authSvc, engine)

	body, _ := json.Marshal(model.SessionRequest{MeetingID: "m-1", SessionOwner: "player-1"})
	rec := doRequest(h.CreateSession, http.MethodPost, "/v1/auth/session", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "m-1", got.MeetingID)

	claims, err := authSvc.ValidateSessionToken(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "m-1", claims.MeetingID)
	assert.Equal(t, "player-1", claims.SessionOwner)
}

func TestCreateSessionWrongOwner(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	engine := &stubEngine{meeting: &model.Meeting{ID: "m-1", SessionOwner: "player-1"}}
	h := NewAuthHandler(authSvc, engine)

	body, _ := json.Marshal(model.SessionRequest{MeetingID: "m-1", SessionOwner: "intruder"})
	rec := doRequest(h.CreateSession, http.MethodPost, "/v1/auth/session", body, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSessionMissingMeeting(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	engine := &stubEngine{err: service.ErrMeetingNotFound}
	h := NewAuthHandler(authSvc, engine)

	body, _ := json.Marshal(model.SessionRequest{MeetingID: "m-404", SessionOwner: "player-1"})
	rec := doRequest(h.CreateSession, http.MethodPost, "/v1/auth/session", body, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
