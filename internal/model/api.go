package model

// MeetingConfig is the input for scheduling a new meeting.
type MeetingConfig struct {
	SessionOwner string        `json:"sessionOwner"`
	Topics       []Topic       `json:"topics"`
	Participants []Participant `json:"participants"`
}

// MeetingSnapshot is the full view returned on join. Clients seed their
// local beliefs from it exactly once and rely on polling afterwards.
type MeetingSnapshot struct {
	Meeting           *Meeting  `json:"meeting"`
	Messages          []Message `json:"messages"`
	CurrentTopicIndex int       `json:"currentTopicIndex"`
	IsPlayerTurn      bool      `json:"isPlayerTurn"`
}

// RespondRequest is the request body for submitting a player response.
type RespondRequest struct {
	TopicID string `json:"topicId"`
	Text    string `json:"text"`
}

// RespondResponse is returned by a successful submit. AIResponses is
// informational; the canonical transcript is delivered through polling.
type RespondResponse struct {
	AIResponses     []Message `json:"aiResponses"`
	NextTopicIndex  int       `json:"nextTopicIndex"`
	MeetingComplete bool      `json:"meetingComplete"`
}
