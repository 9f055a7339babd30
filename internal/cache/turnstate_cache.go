package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// TurnState is the poll fast-path view of a meeting: enough to decide whether
// a poll needs to hit the message log at all. Mongo stays authoritative.
type TurnState struct {
	Status            model.MeetingStatus `json:"status"`
	IsPlayerTurn      bool                `json:"isPlayerTurn"`
	CurrentTopicIndex int                 `json:"currentTopicIndex"`
	LastSeq           int64               `json:"lastSeq"`
}

// TurnStateCache handles Redis operations for per-meeting turn state
type TurnStateCache interface {
	Set(ctx context.Context, meetingID string, state *TurnState) error
	Get(ctx context.Context, meetingID string) (*TurnState, error)
	Delete(ctx context.Context, meetingID string) error
}

type turnStateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTurnStateCache creates a new turn state cache
func NewTurnStateCache(client *redis.Client) TurnStateCache {
	return &turnStateCache{
		client: client,
		ttl:    24 * time.Hour, // meetings never span a day
	}
}

func (c *turnStateCache) key(meetingID string) string {
	return fmt.Sprintf("meeting:turn:%s", meetingID)
}

func (c *turnStateCache) Set(ctx context.Context, meetingID string, state *TurnState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(meetingID), data, c.ttl).Err()
}

func (c *turnStateCache) Get(ctx context.Context, meetingID string) (*TurnState, error) {
	data, err := c.client.Get(ctx, c.key(meetingID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state TurnState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *turnStateCache) Delete(ctx context.Context, meetingID string) error {
	return c.client.Del(ctx, c.key(meetingID)).Err()
}
