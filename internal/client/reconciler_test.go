package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

func msg(id string, seq int64, typ model.MessageType, content string) model.Message {
	return model.Message{ID: id, SequenceNumber: seq, Type: typ, Content: content}
}

func seededReconciler() *Reconciler {
	r := NewReconciler()
	r.SeedSnapshot(&model.MeetingSnapshot{
		Meeting: &model.Meeting{ID: "m-1", Status: model.MeetingInProgress},
		Messages: []model.Message{
			msg("a", 0, model.MessageTopicIntro, "First question?"),
			msg("b", 1, model.MessageAIResponse, "An opinion."),
			msg("c", 2, model.MessageTurnSignal, ""),
		},
	})
	return r
}

func TestSeedSnapshotDerivesBeliefs(t *testing.T) {
	r := seededReconciler()

	assert.Equal(t, ViewPlayerTurn, r.State())
	assert.True(t, r.IsPlayerTurn())
	assert.Equal(t, 0, r.CurrentTopicIndex())
	assert.Equal(t, "c", r.Cursor())

	// The turn signal is a control message and never rendered.
	transcript := r.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, model.MessageTopicIntro, transcript[0].Type)
	assert.Equal(t, model.MessageAIResponse, transcript[1].Type)
}

func TestApplyIsIdempotent(t *testing.T) {
	r := seededReconciler()
	before := len(r.Transcript())

	// Replaying the same batch changes nothing.
	r.Apply([]model.Message{
		msg("a", 0, model.MessageTopicIntro, "First question?"),
		msg("b", 1, model.MessageAIResponse, "An opinion."),
		msg("c", 2, model.MessageTurnSignal, ""),
	})

	assert.Len(t, r.Transcript(), before)
	assert.Equal(t, 0, r.CurrentTopicIndex())
	assert.Equal(t, ViewPlayerTurn, r.State())
}

func TestApplyAdvancesTopicOnIntro(t *testing.T) {
	r := seededReconciler()

	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "my answer"),
		msg("e", 4, model.MessageAIResponse, "a reply"),
		msg("f", 5, model.MessageTopicIntro, "Second question?"),
		msg("g", 6, model.MessageAIResponse, "opening take"),
		msg("h", 7, model.MessageTurnSignal, ""),
	})

	assert.Equal(t, 1, r.CurrentTopicIndex())
	assert.True(t, r.IsPlayerTurn())
	assert.Equal(t, ViewPlayerTurn, r.State())
	assert.Equal(t, "h", r.Cursor())
	assert.Len(t, r.Transcript(), 6)
}

func TestApplyOutOfOrderBatchIsSorted(t *testing.T) {
	r := seededReconciler()

	r.Apply([]model.Message{
		msg("f", 5, model.MessageTopicIntro, "Second question?"),
		msg("d", 3, model.MessagePlayerResponse, "my answer"),
		msg("e", 4, model.MessageAIResponse, "a reply"),
	})

	transcript := r.Transcript()
	require.Len(t, transcript, 5)
	for i := 1; i < len(transcript); i++ {
		assert.Less(t, transcript[i-1].SequenceNumber, transcript[i].SequenceNumber)
	}
	assert.Equal(t, 1, r.CurrentTopicIndex())
}

func TestStaleSequenceNeverRegressesBeliefs(t *testing.T) {
	r := seededReconciler()
	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "my answer"),
	})
	assert.False(t, r.IsPlayerTurn())

	// A late duplicate of the turn signal under a fresh id must not hand
	// the turn back.
	r.Apply([]model.Message{
		msg("c2", 2, model.MessageTurnSignal, ""),
	})
	assert.False(t, r.IsPlayerTurn())
	assert.Equal(t, "d", r.Cursor())
}

func TestOptimisticEchoLifecycle(t *testing.T) {
	r := seededReconciler()

	ok := r.SubmitLocal("my answer")
	require.True(t, ok)
	assert.Equal(t, ViewSubmitting, r.State())

	// The echo renders at the tail while the submit is in flight.
	transcript := r.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "my answer", transcript[2].Content)

	r.SubmitAccepted(&model.RespondResponse{NextTopicIndex: 0})
	assert.Equal(t, ViewWaitingForOthers, r.State())

	// The authoritative copy replaces the echo instead of doubling it.
	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "my answer"),
	})
	transcript = r.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "d", transcript[2].ID)
}

func TestSubmitLocalRejectedOffTurn(t *testing.T) {
	r := seededReconciler()
	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "earlier answer"),
	})

	assert.False(t, r.SubmitLocal("too late"))
}

func TestSubmitFailedRollsBackEcho(t *testing.T) {
	r := seededReconciler()
	require.True(t, r.SubmitLocal("my answer"))

	r.SubmitFailed()

	// Echo gone, input re-enabled.
	assert.Equal(t, ViewPlayerTurn, r.State())
	assert.True(t, r.IsPlayerTurn())
	assert.Len(t, r.Transcript(), 2)

	// The player can submit again.
	assert.True(t, r.SubmitLocal("second try"))
}

func TestSubmitAcceptedCompletion(t *testing.T) {
	r := seededReconciler()
	require.True(t, r.SubmitLocal("final answer"))

	r.SubmitAccepted(&model.RespondResponse{MeetingComplete: true})
	assert.Equal(t, ViewCompleted, r.State())
	assert.True(t, r.State().Terminal())
}

func TestFinalTurnRendersAfterCompletion(t *testing.T) {
	r := seededReconciler()
	require.True(t, r.SubmitLocal("final answer"))
	r.SubmitAccepted(&model.RespondResponse{MeetingComplete: true})
	require.Equal(t, ViewCompleted, r.State())

	// The authoritative copy of the last turn arrives by polling after the
	// view already went terminal; it must still render and replace the echo.
	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "final answer"),
		msg("e", 4, model.MessageAIResponse, "closing remark"),
	})

	transcript := r.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, "d", transcript[2].ID)
	assert.Equal(t, "e", transcript[3].ID)
	for _, m := range transcript {
		assert.False(t, strings.HasPrefix(m.ID, "local-"))
	}

	// The view stays terminal and the turn never comes back.
	assert.Equal(t, ViewCompleted, r.State())
	assert.False(t, r.IsPlayerTurn())
}

func TestMarkLeft(t *testing.T) {
	r := seededReconciler()
	summary := &model.Summary{XPAwarded: 75}

	r.MarkLeft(summary)
	assert.Equal(t, ViewLeftEarly, r.State())
	assert.True(t, r.State().Terminal())
}

func TestSeedSnapshotResetsPriorState(t *testing.T) {
	r := seededReconciler()
	r.Apply([]model.Message{
		msg("d", 3, model.MessagePlayerResponse, "my answer"),
		msg("e", 4, model.MessageAIResponse, "a reply"),
		msg("f", 5, model.MessageTopicIntro, "Second question?"),
	})
	require.Equal(t, 1, r.CurrentTopicIndex())

	// Re-seeding replaces everything, as after a rejected cursor.
	r.SeedSnapshot(&model.MeetingSnapshot{
		Meeting: &model.Meeting{ID: "m-1", Status: model.MeetingInProgress},
		Messages: []model.Message{
			msg("a", 0, model.MessageTopicIntro, "First question?"),
			msg("b", 1, model.MessageAIResponse, "An opinion."),
		},
	})

	assert.Equal(t, 0, r.CurrentTopicIndex())
	assert.Equal(t, ViewWaitingForOthers, r.State())
	assert.Len(t, r.Transcript(), 2)
}
