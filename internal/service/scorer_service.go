package service

import (
	"fmt"
	"strings"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// xpPerTopic is the XP value of fully discussing one agenda item.
const xpPerTopic = 50

// ScorerService computes post-meeting rewards
type ScorerService struct{}

// NewScorerService creates a new scorer service
func NewScorerService() *ScorerService {
	return &ScorerService{}
}

// CompletionSummary scores a fully completed meeting: full XP, one follow-up
// task stub per topic, and a participation score from the player's responses.
func (s *ScorerService) CompletionSummary(meeting *model.Meeting, playerResponses []model.Message) *model.Summary {
	tasks := make([]model.TaskStub, 0, len(meeting.Topics))
	decisions := make([]string, 0, len(meeting.Topics))
	actions := make([]string, 0, len(meeting.Topics))
	for _, t := range meeting.Topics {
		tasks = append(tasks, model.TaskStub{
			Title:       fmt.Sprintf("Follow up: %s", t.Question),
			Description: t.Context,
		})
		decisions = append(decisions, fmt.Sprintf("Discussed and closed: %s", t.Question))
		actions = append(actions, fmt.Sprintf("Document the outcome of %q", t.Question))
	}

	return &model.Summary{
		XPAwarded:          xpPerTopic * len(meeting.Topics),
		ParticipationScore: participationScore(playerResponses),
		GeneratedTasks:     tasks,
		KeyDecisions:       decisions,
		ActionItems:        actions,
	}
}

// EarlyLeaveSummary scores an early departure: exactly half the XP of full
// completion over the same topic count, and no follow-up work items.
func (s *ScorerService) EarlyLeaveSummary(meeting *model.Meeting, playerResponses []model.Message) *model.Summary {
	return &model.Summary{
		XPAwarded:          xpPerTopic * len(meeting.Topics) / 2,
		ParticipationScore: participationScore(playerResponses),
		GeneratedTasks:     []model.TaskStub{},
	}
}

// participationScore maps average response length to a 0-100 score. Crude,
// but stable and cheap; anything smarter belongs in the AI grading pipeline.
func participationScore(responses []model.Message) int {
	if len(responses) == 0 {
		return 0
	}
	totalWords := 0
	for _, m := range responses {
		totalWords += len(strings.Fields(m.Content))
	}
	avg := totalWords / len(responses)
	score := avg * 4 // ~25 words per answer reaches full marks
	if score > 100 {
		score = 100
	}
	return score
}
