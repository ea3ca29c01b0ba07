// Package scheduler runs scheduled polls on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/qepting91/campsite-watcher/internal/domain"
)

// Poller runs one poll cycle.
type Poller interface {
	RunPoll(ctx context.Context, trigger domain.Trigger, replyTo string) domain.CycleResult
}

// Run polls once immediately, then every interval until ctx is done.
// A slow poll delays the next one; the ticker never queues more than one tick.
func Run(ctx context.Context, p Poller, interval time.Duration) {
	p.RunPoll(ctx, domain.TriggerScheduled, "")

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.RunPoll(ctx, domain.TriggerScheduled, "")
		}
	}
}
