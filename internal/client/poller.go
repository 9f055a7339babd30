package client

import (
	"context"
	"errors"
	"log"
	"time"
)

const (
	defaultPollInterval = 2 * time.Second

	// degradedThreshold is how many consecutive poll failures flip the
	// view into the degraded state.
	degradedThreshold = 3
)

// Poller drives a reconciler by polling the message log on a fixed interval.
// Transient failures are retried on the next tick; after degradedThreshold
// consecutive failures the reconciler is flagged degraded until a poll
// succeeds again. A rejected cursor triggers a full re-join and re-seed.
type Poller struct {
	client    *Client
	rec       *Reconciler
	meetingID string
	interval  time.Duration

	failures int
}

// NewPoller creates a poller with the default interval.
func NewPoller(c *Client, rec *Reconciler, meetingID string) *Poller {
	return &Poller{
		client:    c,
		rec:       rec,
		meetingID: meetingID,
		interval:  defaultPollInterval,
	}
}

// SetInterval overrides the poll interval. Must be called before Run.
func (p *Poller) SetInterval(d time.Duration) {
	p.interval = d
}

// Run polls until the context is cancelled or the meeting reaches a terminal
// state. It blocks; run it in its own goroutine.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.rec.State().Terminal() {
				// A completing submit goes terminal before its own
				// messages have been polled; drain once so the final
				// turn still lands in the transcript.
				p.tick(ctx)
				return nil
			}
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	msgs, err := p.client.MessagesSince(ctx, p.meetingID, p.rec.Cursor())
	if err != nil {
		if errors.Is(err, ErrBadCursor) {
			p.reseed(ctx)
			return
		}
		p.failures++
		log.Printf("[Poller] Poll failed (%d consecutive): %v", p.failures, err)
		if p.failures >= degradedThreshold {
			p.rec.SetDegraded(true)
		}
		return
	}

	p.failures = 0
	p.rec.SetDegraded(false)
	if len(msgs) > 0 {
		p.rec.Apply(msgs)
	}
}

// reseed recovers from a rejected cursor by re-joining and replacing all
// local beliefs with the fresh snapshot.
func (p *Poller) reseed(ctx context.Context) {
	log.Printf("[Poller] Cursor rejected for meeting %s, re-joining", p.meetingID)
	snap, err := p.client.Join(ctx, p.meetingID)
	if err != nil {
		p.failures++
		log.Printf("[Poller] Re-join failed (%d consecutive): %v", p.failures, err)
		if p.failures >= degradedThreshold {
			p.rec.SetDegraded(true)
		}
		return
	}
	p.failures = 0
	p.rec.SetDegraded(false)
	p.rec.SeedSnapshot(snap)
}
