package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/oguzkopan/careerrougelike-sub002/internal/cache"
	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
	"github.com/oguzkopan/careerrougelike-sub002/internal/repository"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")

	// ErrInvalidMeetingState covers wrong turn, wrong topic and terminal
	// meetings; the wrapped message says which.
	ErrInvalidMeetingState = errors.New("invalid meeting state")

	// ErrConflict means a concurrent mutation won the race. The caller must
	// re-fetch state before deciding whether to retry; blind retries of a
	// submit can double-append a player response.
	ErrConflict = errors.New("meeting was modified concurrently")

	// ErrUnknownCursor means a poll referenced a message id that is not in
	// the meeting's log; the client should re-join and re-seed its view.
	ErrUnknownCursor = errors.New("unknown message id")
)

// MeetingService is the single authoritative mutator of meeting records. All
// writes go through a compare-and-swap on the record's version token; a stale
// writer fails with ErrConflict instead of silently overwriting.
type MeetingService struct {
	meetingRepo repository.MeetingRepo
	messageRepo repository.MessageRepo
	turnCache   cache.TurnStateCache
	generator   DiscussionGenerator
	scorer      *ScorerService
	broadcaster Broadcaster

	genRetries int
	genBackoff time.Duration
}

// NewMeetingService creates a new meeting service
func NewMeetingService(
	meetingRepo repository.MeetingRepo,
	messageRepo repository.MessageRepo,
	turnCache cache.TurnStateCache,
	generator DiscussionGenerator,
	scorer *ScorerService,
) *MeetingService {
	return &MeetingService{
		meetingRepo: meetingRepo,
		messageRepo: messageRepo,
		turnCache:   turnCache,
		generator:   generator,
		scorer:      scorer,
		genRetries:  3,
		genBackoff:  500 * time.Millisecond,
	}
}

// SetBroadcaster sets the observer broadcaster for WebSocket events
func (s *MeetingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// InitializeMeeting builds a scheduled meeting record with no messages.
func (s *MeetingService) InitializeMeeting(ctx context.Context, cfg *model.MeetingConfig) (*model.Meeting, error) {
	if cfg.SessionOwner == "" {
		return nil, fmt.Errorf("%w: session owner is required", ErrInvalidMeetingState)
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", ErrInvalidMeetingState)
	}
	if len(cfg.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidMeetingState)
	}

	topics := make([]model.Topic, len(cfg.Topics))
	copy(topics, cfg.Topics)
	for i := range topics {
		if topics[i].ID == "" {
			topics[i].ID = uuid.New().String()
		}
	}
	participants := make([]model.Participant, len(cfg.Participants))
	copy(participants, cfg.Participants)
	for i := range participants {
		if participants[i].ID == "" {
			participants[i].ID = uuid.New().String()
		}
	}

	meeting := &model.Meeting{
		ID:                uuid.New().String(),
		SessionOwner:      cfg.SessionOwner,
		Status:            model.MeetingScheduled,
		Topics:            topics,
		Participants:      participants,
		CurrentTopicIndex: 0,
		IsPlayerTurn:      false,
		LastSeq:           -1,
		Version:           0,
		CreatedAt:         time.Now(),
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	return meeting, nil
}

// GetMeeting retrieves a meeting record by id.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID string) (*model.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return meeting, nil
}

// Join starts a scheduled meeting and seeds the first topic's discussion. On
// a meeting that is already in progress it appends nothing and only returns
// the current snapshot.
func (s *MeetingService) Join(ctx context.Context, meetingID string) (*model.MeetingSnapshot, error) {
	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status.Terminal() {
		return nil, fmt.Errorf("%w: meeting already %s", ErrInvalidMeetingState, meeting.Status)
	}
	if meeting.Status == model.MeetingInProgress {
		return s.snapshot(ctx, meeting)
	}

	topic := meeting.CurrentTopic()
	reactions := s.generateWithFallback(ctx, meeting, topic, "")

	batch := newTurnBatch(meeting)
	batch.topicIntro(topic)
	batch.aiResponses(meeting, reactions)
	batch.turnSignal()

	prev := *meeting
	now := time.Now()
	meeting.Status = model.MeetingInProgress
	meeting.StartedAt = &now
	meeting.IsPlayerTurn = true
	batch.stamp(meeting)

	if err := s.commitTurn(ctx, meeting, prev, batch.messages); err != nil {
		return nil, err
	}

	return &model.MeetingSnapshot{
		Meeting:           meeting,
		Messages:          batch.messages,
		CurrentTopicIndex: meeting.CurrentTopicIndex,
		IsPlayerTurn:      meeting.IsPlayerTurn,
	}, nil
}

// SubmitPlayerResponse appends the player's response and the resulting AI
// discussion, then either advances to the next topic or completes the
// meeting if the current topic was the last.
func (s *MeetingService) SubmitPlayerResponse(ctx context.Context, meetingID, topicID, text string) (*model.RespondResponse, error) {
	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != model.MeetingInProgress {
		return nil, fmt.Errorf("%w: meeting is %s", ErrInvalidMeetingState, meeting.Status)
	}
	if !meeting.IsPlayerTurn {
		return nil, fmt.Errorf("%w: not the player's turn", ErrInvalidMeetingState)
	}
	topic := meeting.CurrentTopic()
	if topic == nil || topic.ID != topicID {
		return nil, fmt.Errorf("%w: topic %s is not the current topic", ErrInvalidMeetingState, topicID)
	}

	prev := *meeting
	batch := newTurnBatch(meeting)
	batch.playerResponse(text)
	meeting.IsPlayerTurn = false

	reactions := s.generateWithFallback(ctx, meeting, topic, text)
	batch.aiResponses(meeting, reactions)

	resp := &model.RespondResponse{}

	if meeting.OnLastTopic() {
		now := time.Now()
		meeting.Status = model.MeetingCompleted
		meeting.CompletedAt = &now
		meeting.Summary = s.scorer.CompletionSummary(meeting, s.playerTranscript(ctx, meeting, text))
		resp.NextTopicIndex = meeting.CurrentTopicIndex
		resp.MeetingComplete = true
	} else {
		meeting.CurrentTopicIndex++
		next := meeting.CurrentTopic()
		batch.topicIntro(next)
		opening := s.generateWithFallback(ctx, meeting, next, "")
		batch.aiResponses(meeting, opening)
		batch.turnSignal()
		meeting.IsPlayerTurn = true
		resp.NextTopicIndex = meeting.CurrentTopicIndex
		resp.MeetingComplete = false
	}

	batch.stamp(meeting)
	if err := s.commitTurn(ctx, meeting, prev, batch.messages); err != nil {
		return nil, err
	}

	for _, m := range batch.messages {
		if m.Type == model.MessageAIResponse {
			resp.AIResponses = append(resp.AIResponses, m)
		}
	}
	return resp, nil
}

// LeaveMeetingEarly terminates an in-progress meeting with half rewards. A
// repeat call on an already-left meeting returns the stored summary, so a
// client retry never double-awards.
func (s *MeetingService) LeaveMeetingEarly(ctx context.Context, meetingID string) (*model.Summary, error) {
	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status == model.MeetingLeftEarly && meeting.Summary != nil {
		return meeting.Summary, nil
	}
	if meeting.Status != model.MeetingInProgress {
		return nil, fmt.Errorf("%w: meeting is %s", ErrInvalidMeetingState, meeting.Status)
	}

	prev := *meeting
	now := time.Now()
	meeting.Status = model.MeetingLeftEarly
	meeting.IsPlayerTurn = false
	meeting.CompletedAt = &now
	meeting.Summary = s.scorer.EarlyLeaveSummary(meeting, s.playerTranscript(ctx, meeting, ""))

	if err := s.commitTurn(ctx, meeting, prev, nil); err != nil {
		return nil, err
	}
	return meeting.Summary, nil
}

// GetMessagesSince returns all messages after the one identified by
// lastMessageID (all of them when it is empty), ordered by sequence number.
// Pure read; never mutates.
func (s *MeetingService) GetMessagesSince(ctx context.Context, meetingID, lastMessageID string) ([]model.Message, error) {
	afterSeq := int64(-1)
	if lastMessageID == "" {
		// Even an empty result must distinguish "no messages yet" from
		// "no such meeting".
		if _, err := s.GetMeeting(ctx, meetingID); err != nil {
			return nil, err
		}
	} else {
		cursor, err := s.messageRepo.GetByID(ctx, meetingID, lastMessageID)
		if err != nil {
			if errors.Is(err, repository.ErrMessageNotFound) {
				if _, merr := s.GetMeeting(ctx, meetingID); merr != nil {
					return nil, merr
				}
				return nil, ErrUnknownCursor
			}
			return nil, err
		}
		afterSeq = cursor.SequenceNumber
	}

	// Fast path: skip the log read when the cached cursor says the client
	// is already caught up.
	if state, err := s.turnCache.Get(ctx, meetingID); err == nil && state != nil && afterSeq >= state.LastSeq {
		return []model.Message{}, nil
	}

	return s.messageRepo.ListSince(ctx, meetingID, afterSeq)
}

// snapshot builds the full join view of an in-progress meeting.
func (s *MeetingService) snapshot(ctx context.Context, meeting *model.Meeting) (*model.MeetingSnapshot, error) {
	messages, err := s.messageRepo.ListSince(ctx, meeting.ID, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	return &model.MeetingSnapshot{
		Meeting:           meeting,
		Messages:          messages,
		CurrentTopicIndex: meeting.CurrentTopicIndex,
		IsPlayerTurn:      meeting.IsPlayerTurn,
	}, nil
}

// playerTranscript collects the player's responses so far for scoring.
// extraText is the response being submitted in the current turn, which is
// not yet in the log.
func (s *MeetingService) playerTranscript(ctx context.Context, meeting *model.Meeting, extraText string) []model.Message {
	var responses []model.Message
	messages, err := s.messageRepo.ListSince(ctx, meeting.ID, -1)
	if err != nil {
		log.Printf("[Meeting] failed to load transcript for scoring %s: %v", meeting.ID, err)
	} else {
		for _, m := range messages {
			if m.Type == model.MessagePlayerResponse {
				responses = append(responses, m)
			}
		}
	}
	if extraText != "" {
		responses = append(responses, model.Message{Type: model.MessagePlayerResponse, Content: extraText})
	}
	return responses
}

// generateWithFallback calls the generator with bounded retries and backoff.
// On exhaustion it substitutes a scripted reaction set; generation problems
// never surface to the caller and never leave the meeting without a path
// forward.
func (s *MeetingService) generateWithFallback(ctx context.Context, meeting *model.Meeting, topic *model.Topic, playerText string) []Reaction {
	backoff := s.genBackoff
	var lastErr error
	for attempt := 0; attempt < s.genRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[Meeting] generator retry %d/%d for meeting %s", attempt, s.genRetries-1, meeting.ID)
			time.Sleep(backoff)
			backoff *= 2
		}

		var reactions []Reaction
		var err error
		if playerText == "" {
			reactions, err = s.generator.OpenTopic(ctx, meeting, topic)
		} else {
			reactions, err = s.generator.ContinueTopic(ctx, meeting, topic, playerText)
		}
		if err == nil && len(reactions) > 0 {
			return reactions
		}
		lastErr = err
	}

	log.Printf("[Meeting] generator exhausted retries for meeting %s: %v; using scripted fallback", meeting.ID, lastErr)
	return fallbackReactions(meeting.Participants)
}

var fallbackLines = []string{
	"Let me take that away and come back with details after the meeting.",
	"I agree with the direction so far, no objections from me.",
	"We should make sure this gets captured in the notes.",
	"Nothing to add right now, happy to move on.",
}

// fallbackReactions is the scripted reaction set used when the generator is
// unavailable: one neutral line per participant.
func fallbackReactions(participants []model.Participant) []Reaction {
	reactions := make([]Reaction, 0, len(participants))
	for i, p := range participants {
		reactions = append(reactions, Reaction{
			ParticipantID: p.ID,
			Text:          fallbackLines[i%len(fallbackLines)],
			Sentiment:     model.SentimentNeutral,
		})
	}
	return reactions
}

// commitTurn persists one mutation: CAS update of the meeting record first
// (the serialization point), then the ordered append of the new messages.
// prev is the record as it was before the caller's mutations; if the append
// fails after the CAS succeeded, the record is rolled back to it so the
// cursors never point past messages that were not written.
func (s *MeetingService) commitTurn(ctx context.Context, meeting *model.Meeting, prev model.Meeting, messages []model.Message) error {
	if err := s.meetingRepo.UpdateVersioned(ctx, meeting, prev.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return fmt.Errorf("%w: meeting %s", ErrConflict, meeting.ID)
		}
		return fmt.Errorf("failed to update meeting: %w", err)
	}

	if len(messages) > 0 {
		if err := s.messageRepo.Append(ctx, messages); err != nil {
			restore := prev
			if rerr := s.meetingRepo.UpdateVersioned(ctx, &restore, meeting.Version); rerr != nil {
				log.Printf("[Meeting] failed to roll back record %s after append failure: %v", meeting.ID, rerr)
			}
			return fmt.Errorf("failed to append messages: %w", err)
		}
	}

	if err := s.turnCache.Set(ctx, meeting.ID, &cache.TurnState{
		Status:            meeting.Status,
		IsPlayerTurn:      meeting.IsPlayerTurn,
		CurrentTopicIndex: meeting.CurrentTopicIndex,
		LastSeq:           meeting.LastSeq,
	}); err != nil {
		// Cache is a fast path only; Mongo remains authoritative. A stale
		// LastSeq would make the fast path hide committed messages, so
		// drop the key and let polls fall through to the log.
		log.Printf("[Meeting] failed to refresh turn cache for %s: %v", meeting.ID, err)
		if derr := s.turnCache.Delete(ctx, meeting.ID); derr != nil {
			log.Printf("[Meeting] failed to drop turn cache for %s: %v", meeting.ID, derr)
		}
	}

	if s.broadcaster != nil {
		rendered := make([]model.Message, 0, len(messages))
		for _, m := range messages {
			if m.Renderable() {
				rendered = append(rendered, m)
			}
		}
		if len(rendered) > 0 {
			s.broadcaster.BroadcastMessages(meeting.ID, rendered)
		}
		if meeting.Status.Terminal() {
			s.broadcaster.BroadcastStatus(meeting.ID, meeting.Status)
			s.broadcaster.DisconnectMeeting(meeting.ID)
		}
	}
	return nil
}

// turnBatch assigns gapless sequence numbers to the messages appended by one
// mutating call.
type turnBatch struct {
	meetingID string
	nextSeq   int64
	messages  []model.Message
}

func newTurnBatch(meeting *model.Meeting) *turnBatch {
	return &turnBatch{
		meetingID: meeting.ID,
		nextSeq:   meeting.LastSeq + 1,
	}
}

func (b *turnBatch) add(msg model.Message) {
	msg.ID = uuid.New().String()
	msg.MeetingID = b.meetingID
	msg.SequenceNumber = b.nextSeq
	msg.Timestamp = time.Now()
	b.nextSeq++
	b.messages = append(b.messages, msg)
}

func (b *turnBatch) topicIntro(topic *model.Topic) {
	b.add(model.Message{
		Type:    model.MessageTopicIntro,
		Content: topic.Question,
	})
}

func (b *turnBatch) aiResponses(meeting *model.Meeting, reactions []Reaction) {
	for _, r := range reactions {
		msg := model.Message{
			Type:          model.MessageAIResponse,
			Content:       r.Text,
			ParticipantID: r.ParticipantID,
			Sentiment:     r.Sentiment,
		}
		if p := meeting.ParticipantByID(r.ParticipantID); p != nil {
			msg.ParticipantName = p.Name
			msg.ParticipantRole = p.Role
		}
		b.add(msg)
	}
}

func (b *turnBatch) playerResponse(text string) {
	b.add(model.Message{
		Type:    model.MessagePlayerResponse,
		Content: text,
	})
}

func (b *turnBatch) turnSignal() {
	b.add(model.Message{Type: model.MessageTurnSignal})
}

// stamp writes the batch's resulting cursor back onto the meeting record.
func (b *turnBatch) stamp(meeting *model.Meeting) {
	if len(b.messages) == 0 {
		return
	}
	last := b.messages[len(b.messages)-1]
	meeting.LastSeq = last.SequenceNumber
	ts := last.Timestamp
	meeting.LastMessageTimestamp = &ts
}
