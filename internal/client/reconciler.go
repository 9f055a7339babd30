package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// ViewState is the interaction state the UI renders from.
type ViewState string

const (
	ViewUninitialized    ViewState = "uninitialized"
	ViewLoading          ViewState = "loading"
	ViewWaitingForOthers ViewState = "waiting_for_others"
	ViewPlayerTurn       ViewState = "player_turn"
	ViewSubmitting       ViewState = "submitting"
	ViewCompleted        ViewState = "completed"
	ViewLeftEarly        ViewState = "left_early"
)

// Terminal reports whether the view needs no further polling.
func (s ViewState) Terminal() bool {
	return s == ViewCompleted || s == ViewLeftEarly
}

// Reconciler folds server messages into local view beliefs. The server's
// message log is the single source of truth; every belief here (topic index,
// whose turn it is, the transcript) is derived from messages, so replaying
// the same messages in any interleaving converges to the same view.
type Reconciler struct {
	mu sync.Mutex

	state    ViewState
	meeting  *model.Meeting
	messages []model.Message // applied, ascending by sequence number

	seen          map[string]struct{}
	lastSeq       int64
	lastMsgID     string
	topicIndex    int
	introsApplied bool
	playerTurn    bool

	// pendingEcho is the optimistic local copy of an in-flight player
	// response. It renders at the end of the transcript until the
	// authoritative player_response arrives and replaces it.
	pendingEcho *model.Message

	degraded bool
}

// NewReconciler creates an empty reconciler in the uninitialized state.
func NewReconciler() *Reconciler {
	return &Reconciler{
		state:   ViewUninitialized,
		seen:    make(map[string]struct{}),
		lastSeq: -1,
	}
}

// BeginLoading marks the view as loading while the join call is in flight.
func (r *Reconciler) BeginLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == ViewUninitialized {
		r.state = ViewLoading
	}
}

// SeedSnapshot resets all beliefs from a join snapshot. Any previously
// applied messages are discarded; the snapshot is authoritative.
func (r *Reconciler) SeedSnapshot(snap *model.MeetingSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meeting = snap.Meeting
	r.messages = nil
	r.seen = make(map[string]struct{})
	r.lastSeq = -1
	r.lastMsgID = ""
	r.topicIndex = 0
	r.introsApplied = false
	r.playerTurn = false
	r.pendingEcho = nil

	r.applyLocked(snap.Messages)

	switch snap.Meeting.Status {
	case model.MeetingCompleted:
		r.state = ViewCompleted
	case model.MeetingLeftEarly:
		r.state = ViewLeftEarly
	default:
		if r.playerTurn {
			r.state = ViewPlayerTurn
		} else {
			r.state = ViewWaitingForOthers
		}
	}
}

// Apply merges a batch of polled messages into the view. Duplicates are
// dropped by message id and beliefs only ever move forward in sequence
// order, so overlapping or repeated batches are harmless. Batches are
// accepted in terminal states too: the final turn's authoritative messages
// arrive after the submit response has already completed the view.
func (r *Reconciler) Apply(messages []model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyLocked(messages)
}

func (r *Reconciler) applyLocked(messages []model.Message) {
	batch := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if _, ok := r.seen[m.ID]; ok {
			continue
		}
		if m.SequenceNumber <= r.lastSeq {
			// Already covered by an earlier batch under a different id;
			// the log is append-only so this cannot be new information.
			continue
		}
		batch = append(batch, m)
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].SequenceNumber < batch[j].SequenceNumber
	})

	for _, m := range batch {
		r.seen[m.ID] = struct{}{}
		r.lastSeq = m.SequenceNumber
		r.lastMsgID = m.ID

		switch m.Type {
		case model.MessageTopicIntro:
			// Derived index is intros-seen minus one: the first intro
			// pins it at zero, each later intro advances it.
			if r.introsApplied {
				r.topicIndex++
			}
			r.introsApplied = true
			r.playerTurn = false
			if !r.state.Terminal() {
				r.state = ViewWaitingForOthers
			}
		case model.MessageTurnSignal:
			r.playerTurn = true
			if r.state != ViewSubmitting && !r.state.Terminal() {
				r.state = ViewPlayerTurn
			}
		case model.MessagePlayerResponse:
			// Authoritative copy of our own submission; it supersedes
			// any optimistic echo still pending.
			r.pendingEcho = nil
			r.playerTurn = false
			if r.state != ViewSubmitting && !r.state.Terminal() {
				r.state = ViewWaitingForOthers
			}
		}

		if m.Renderable() {
			r.messages = append(r.messages, m)
		}
	}
}

// SubmitLocal records an optimistic echo for text the player just submitted
// and moves the view to submitting. It returns false when it is not the
// player's turn.
func (r *Reconciler) SubmitLocal(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != ViewPlayerTurn {
		return false
	}
	r.pendingEcho = &model.Message{
		ID:        "local-" + uuid.New().String(),
		Type:      model.MessagePlayerResponse,
		Content:   text,
		Timestamp: time.Now(),
	}
	r.state = ViewSubmitting
	r.playerTurn = false
	return true
}

// SubmitAccepted moves the view on after the server accepted the submit. The
// echo stays until the authoritative player_response arrives via polling.
func (r *Reconciler) SubmitAccepted(resp *model.RespondResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if resp.MeetingComplete {
		r.state = ViewCompleted
		return
	}
	if r.state == ViewSubmitting {
		r.state = ViewWaitingForOthers
	}
}

// SubmitFailed rolls back a rejected submit: the optimistic echo is removed
// and input is re-enabled.
func (r *Reconciler) SubmitFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingEcho = nil
	if r.state == ViewSubmitting {
		r.state = ViewPlayerTurn
		r.playerTurn = true
	}
}

// MarkLeft records a successful early leave.
func (r *Reconciler) MarkLeft(summary *model.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingEcho = nil
	r.state = ViewLeftEarly
	if r.meeting != nil {
		r.meeting.Status = model.MeetingLeftEarly
		r.meeting.Summary = summary
	}
}

// Transcript returns the rendered conversation: applied renderable messages
// in sequence order, with the optimistic echo, if any, at the end.
func (r *Reconciler) Transcript() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Message, len(r.messages), len(r.messages)+1)
	copy(out, r.messages)
	if r.pendingEcho != nil {
		out = append(out, *r.pendingEcho)
	}
	return out
}

// State returns the current view state.
func (r *Reconciler) State() ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentTopicIndex returns the topic index derived from the message log.
func (r *Reconciler) CurrentTopicIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.topicIndex
}

// IsPlayerTurn reports whether the log says the human holds the turn.
func (r *Reconciler) IsPlayerTurn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerTurn
}

// Cursor returns the id of the newest applied message, or "" before any.
func (r *Reconciler) Cursor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMsgID
}

// Degraded reports whether polling has been failing persistently.
func (r *Reconciler) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// SetDegraded flips the degraded flag; the poller owns the policy.
func (r *Reconciler) SetDegraded(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = v
}
