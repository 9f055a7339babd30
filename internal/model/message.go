package model

import "time"

// MessageType tags an entry in the meeting's message log.
type MessageType string

const (
	MessageTopicIntro     MessageType = "topic_intro"
	MessageAIResponse     MessageType = "ai_response"
	MessagePlayerResponse MessageType = "player_response"

	// MessageTurnSignal carries no content; it exists only to hand the
	// speaking turn to the human and is excluded from rendered transcripts.
	MessageTurnSignal MessageType = "turn_signal"
)

// Sentiment classifies an AI reaction.
type Sentiment string

const (
	SentimentPositive     Sentiment = "positive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentConstructive Sentiment = "constructive"
	SentimentChallenging  Sentiment = "challenging"
)

// ValidSentiment reports whether s is one of the known sentiment values.
func ValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentConstructive, SentimentChallenging:
		return true
	}
	return false
}

// Message is one immutable entry in a meeting's append-only log. Sequence
// numbers start at 0 and increase by exactly 1 per append within a meeting.
type Message struct {
	ID              string      `json:"id" bson:"id"`
	MeetingID       string      `json:"-" bson:"meetingId"`
	SequenceNumber  int64       `json:"sequenceNumber" bson:"sequenceNumber"`
	Type            MessageType `json:"type" bson:"type"`
	Content         string      `json:"content,omitempty" bson:"content,omitempty"`
	Timestamp       time.Time   `json:"timestamp" bson:"timestamp"`
	ParticipantID   string      `json:"participantId,omitempty" bson:"participantId,omitempty"`
	ParticipantName string      `json:"participantName,omitempty" bson:"participantName,omitempty"`
	ParticipantRole string      `json:"participantRole,omitempty" bson:"participantRole,omitempty"`
	Sentiment       Sentiment   `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
}

// Renderable reports whether the message belongs in a displayed transcript.
func (m *Message) Renderable() bool {
	return m.Type != MessageTurnSignal
}
