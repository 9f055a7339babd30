package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

func TestClientJoin(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/meetings/m-1/join", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		json.NewEncoder(w).Encode(model.MeetingSnapshot{
			Meeting: &model.Meeting{ID: "m-1", Status: model.MeetingInProgress},
			Messages: []model.Message{
				{ID: "a", SequenceNumber: 0, Type: model.MessageTopicIntro, Content: "Q?"},
			},
			IsPlayerTurn: true,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "session-token")
	snap, err := c.Join(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "m-1", snap.Meeting.ID)
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.IsPlayerTurn)
}

func TestClientRespond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/meetings/m-1/respond", r.URL.Path)

		var req model.RespondRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t-1", req.TopicID)
		assert.Equal(t, "my answer", req.Text)

		json.NewEncoder(w).Encode(model.RespondResponse{
			NextTopicIndex:  1,
			MeetingComplete: false,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	resp, err := c.Respond(context.Background(), "m-1", "t-1", "my answer")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.NextTopicIndex)
	assert.False(t, resp.MeetingComplete)
}

func TestClientMessagesSinceCursor(t *testing.T) {
	var gotAfter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("after")
		json.NewEncoder(w).Encode(map[string][]model.Message{
			"messages": {
				{ID: "d", SequenceNumber: 3, Type: model.MessagePlayerResponse, Content: "hi"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	msgs, err := c.MessagesSince(context.Background(), "m-1", "c")
	require.NoError(t, err)
	assert.Equal(t, "c", gotAfter)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(3), msgs[0].SequenceNumber)
}

func TestClientErrorMapping(t *testing.T) {
	status := http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, status)
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	ctx := context.Background()

	_, err := c.Join(ctx, "m-1")
	assert.ErrorIs(t, err, ErrNotFound)

	status = http.StatusConflict
	_, err = c.Respond(ctx, "m-1", "t-1", "text")
	assert.ErrorIs(t, err, ErrConflict)

	status = http.StatusBadRequest
	_, err = c.MessagesSince(ctx, "m-1", "gone-cursor")
	assert.ErrorIs(t, err, ErrBadCursor)
}

func TestClientLeave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/meetings/m-1/leave", r.URL.Path)
		json.NewEncoder(w).Encode(model.Summary{XPAwarded: 75})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	summary, err := c.Leave(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, 75, summary.XPAwarded)
}
