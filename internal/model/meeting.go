package model

import "time"

type MeetingStatus string

const (
	MeetingScheduled  MeetingStatus = "scheduled"
	MeetingInProgress MeetingStatus = "in_progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingLeftEarly  MeetingStatus = "left_early"
)

// Terminal reports whether no further mutation of the meeting is allowed.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingCompleted || s == MeetingLeftEarly
}

// Topic is one discussion item in a meeting's fixed agenda. The expected
// points are consumed only by the discussion generator and the scorer.
type Topic struct {
	ID             string   `json:"id" bson:"id"`
	Question       string   `json:"question" bson:"question"`
	Context        string   `json:"context,omitempty" bson:"context,omitempty"`
	ExpectedPoints []string `json:"expectedPoints,omitempty" bson:"expectedPoints,omitempty"`
}

// Participant is a simulated attendee of a meeting.
type Participant struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Role        string `json:"role" bson:"role"`
	Personality string `json:"personality,omitempty" bson:"personality,omitempty"`
	Color       string `json:"color,omitempty" bson:"color,omitempty"`
}

// Meeting is the authoritative record of one scheduled session. Messages are
// stored separately, keyed by (meetingId, sequenceNumber); the record holds
// only the cursors and the version token used for compare-and-swap updates.
type Meeting struct {
	ID                   string        `json:"id" bson:"_id"`
	SessionOwner         string        `json:"sessionOwner" bson:"sessionOwner"`
	Status               MeetingStatus `json:"status" bson:"status"`
	Topics               []Topic       `json:"topics" bson:"topics"`
	Participants         []Participant `json:"participants" bson:"participants"`
	CurrentTopicIndex    int           `json:"currentTopicIndex" bson:"currentTopicIndex"`
	IsPlayerTurn         bool          `json:"isPlayerTurn" bson:"isPlayerTurn"`
	LastSeq              int64         `json:"lastSeq" bson:"lastSeq"` // -1 until the first append
	LastMessageTimestamp *time.Time    `json:"lastMessageTimestamp,omitempty" bson:"lastMessageTimestamp,omitempty"`
	Summary              *Summary      `json:"summary,omitempty" bson:"summary,omitempty"`
	Version              int64         `json:"-" bson:"version"`
	CreatedAt            time.Time     `json:"createdAt" bson:"createdAt"`
	StartedAt            *time.Time    `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// CurrentTopic returns the topic under discussion, or nil when the index is
// out of range.
func (m *Meeting) CurrentTopic() *Topic {
	if m.CurrentTopicIndex < 0 || m.CurrentTopicIndex >= len(m.Topics) {
		return nil
	}
	return &m.Topics[m.CurrentTopicIndex]
}

// OnLastTopic reports whether the current topic is the final agenda item.
func (m *Meeting) OnLastTopic() bool {
	return m.CurrentTopicIndex == len(m.Topics)-1
}

// ParticipantByID looks up a participant on the roster.
func (m *Meeting) ParticipantByID(id string) *Participant {
	for i := range m.Participants {
		if m.Participants[i].ID == id {
			return &m.Participants[i]
		}
	}
	return nil
}
