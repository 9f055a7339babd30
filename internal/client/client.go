// Package client implements the polling meeting client: an HTTP client for
// the meeting API, a reconciler that folds server messages into local view
// state, and a poller that drives the reconciler on a fixed interval.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

var (
	ErrNotFound = errors.New("meeting not found")

	// ErrConflict means the server rejected the call because of concurrent
	// state or a state guard (wrong turn, terminal meeting).
	ErrConflict = errors.New("meeting state conflict")

	// ErrBadCursor means the server no longer recognizes our poll cursor.
	// The caller should re-join and re-seed its view from the snapshot.
	ErrBadCursor = errors.New("poll cursor rejected")
)

// Client is an HTTP client for the meeting API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new meeting API client. The token is the session token
// issued for the meeting being driven.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Join enters the meeting and returns the full snapshot.
func (c *Client) Join(ctx context.Context, meetingID string) (*model.MeetingSnapshot, error) {
	var snap model.MeetingSnapshot
	path := fmt.Sprintf("/v1/meetings/%s/join", meetingID)
	if err := c.do(ctx, http.MethodPost, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Respond submits the player's contribution for a topic.
func (c *Client) Respond(ctx context.Context, meetingID, topicID, text string) (*model.RespondResponse, error) {
	req := model.RespondRequest{TopicID: topicID, Text: text}
	var resp model.RespondResponse
	path := fmt.Sprintf("/v1/meetings/%s/respond", meetingID)
	if err := c.do(ctx, http.MethodPost, path, &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Leave ends the meeting early and returns the reduced summary.
func (c *Client) Leave(ctx context.Context, meetingID string) (*model.Summary, error) {
	var summary model.Summary
	path := fmt.Sprintf("/v1/meetings/%s/leave", meetingID)
	if err := c.do(ctx, http.MethodPost, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// MessagesSince polls for messages appended after the given message id. An
// empty id asks for the log from the beginning.
func (c *Client) MessagesSince(ctx context.Context, meetingID, afterMessageID string) ([]model.Message, error) {
	path := fmt.Sprintf("/v1/meetings/%s/messages", meetingID)
	if afterMessageID != "" {
		path += "?after=" + url.QueryEscape(afterMessageID)
	}

	var resp struct {
		Messages []model.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func statusError(status int, body string) error {
	detail := strings.TrimSpace(body)
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadCursor, detail)
	default:
		return fmt.Errorf("server returned status %d: %s", status, detail)
	}
}
