package model

// TaskStub is a follow-up work item generated from a completed meeting. The
// stub is picked up by the task pipeline outside this service.
type TaskStub struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Summary is the post-meeting reward computed when a meeting reaches a
// terminal state.
type Summary struct {
	XPAwarded          int        `json:"xpAwarded" bson:"xpAwarded"`
	ParticipationScore int        `json:"participationScore" bson:"participationScore"`
	GeneratedTasks     []TaskStub `json:"generatedTasks" bson:"generatedTasks"`
	KeyDecisions       []string   `json:"keyDecisions,omitempty" bson:"keyDecisions,omitempty"`
	ActionItems        []string   `json:"actionItems,omitempty" bson:"actionItems,omitempty"`
}
