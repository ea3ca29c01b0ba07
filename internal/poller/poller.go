// Package poller runs one availability check across every configured
// campground and month, matches runs, and hands results to the notifier.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/qepting91/campsite-watcher/internal/match"
	"github.com/qepting91/campsite-watcher/internal/notify"
	"github.com/qepting91/campsite-watcher/internal/telegram"
	"golang.org/x/sync/errgroup"
)

const (
	nothingAvailableText = "📭 Nothing available right now\\."
	manualLabel          = "Check"
)

// State holds counters owned by the scheduled poll path.
type State struct {
	pollCount atomic.Int64
}

// PollCount is the number of scheduled polls started so far.
func (s *State) PollCount() int64 {
	return s.pollCount.Load()
}

type Orchestrator struct {
	cfg         domain.PollConfig
	collector   domain.Collector
	notifier    domain.Notifier
	destination string
	state       State
	results     chan<- domain.CycleResult
	logger      *slog.Logger
}

// New builds an orchestrator. destination is the configured chat; when it
// is empty scheduled cycles only log.
func New(cfg domain.PollConfig, collector domain.Collector, notifier domain.Notifier, destination string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		collector:   collector,
		notifier:    notifier,
		destination: destination,
		logger:      logger,
	}
}

// PublishTo makes every finished cycle also go to ch.
func (o *Orchestrator) PublishTo(ch chan<- domain.CycleResult) {
	o.results = ch
}

func (o *Orchestrator) Config() domain.PollConfig { return o.cfg }

func (o *Orchestrator) PollCount() int64 { return o.state.PollCount() }

// RunPoll performs one cycle. Manual triggers reply to replyTo and do not
// advance the poll counter. Manual and scheduled cycles may overlap.
func (o *Orchestrator) RunPoll(ctx context.Context, trigger domain.Trigger, replyTo string) domain.CycleResult {
	label := manualLabel
	if trigger == domain.TriggerScheduled {
		label = fmt.Sprintf("Poll #%d", o.state.pollCount.Add(1))
	}
	result := domain.CycleResult{ID: uuid.NewString(), Label: label, Trigger: trigger}
	log := o.logger.With("cycle_id", result.ID, "poll", label)
	log.Info("Checking availability", "months", len(o.cfg.Months), "requests", o.cfg.Requests())

	o.cycle(ctx, log, trigger, replyTo, &result)

	result.FinishedAt = time.Now()
	o.publish(ctx, result)
	return result
}

func (o *Orchestrator) cycle(ctx context.Context, log *slog.Logger, trigger domain.Trigger, replyTo string, result *domain.CycleResult) {
	records, err := o.fetchAll(ctx)
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err.Error()
		log.Error("Poll failed", "err", err)
		return
	}
	result.Records = records

	if len(records) == 0 {
		result.Outcome = domain.OutcomeEmpty
		log.Info("Nothing available")
		if trigger == domain.TriggerManual {
			o.notifier.NotifyText(ctx, nothingAvailableText, o.replyDestination(trigger, replyTo))
		}
		return
	}

	for _, rec := range records {
		if run := match.FindQualifyingRun(rec.AvailableDates, o.cfg.MinNights, o.cfg.StartDates); run != nil {
			result.Matches = append(result.Matches, domain.MatchedSite{AvailabilityRecord: rec, MatchedRun: run})
		}
	}

	if len(result.Matches) == 0 {
		result.Outcome = domain.OutcomePartial
		summary := o.partialSummary(result.AvailableNights())
		log.Info(summary, "nights", result.AvailableNights(), "sites", len(records))
		if trigger == domain.TriggerManual || o.cfg.NotifyPartial {
			o.notifier.NotifyText(ctx, "ℹ️ *Partial Match*\n"+telegram.Escape(summary), o.replyDestination(trigger, replyTo))
		}
		return
	}

	result.Outcome = domain.OutcomeMatched
	log.Info("Found qualifying sites", "count", len(result.Matches))
	for _, s := range result.Matches {
		log.Info("Site available",
			"campground", s.CampgroundID,
			"site", s.DisplayName(),
			"loop", orDash(s.Loop),
			"type", orDash(s.SiteType),
			"run", strings.Join(s.MatchedRun, " → "),
			"nights", len(s.MatchedRun),
			"available", strings.Join(s.AvailableDates, ", "),
			"book", notify.BookingURL(s.CampgroundID),
		)
	}

	o.notifier.NotifyMatches(ctx, result.Matches, o.replyDestination(trigger, replyTo))
}

// replyDestination is the requesting chat for manual checks and the
// configured chat otherwise. It may be empty; the notifier decides what
// an empty destination means.
func (o *Orchestrator) replyDestination(trigger domain.Trigger, replyTo string) string {
	if trigger == domain.TriggerManual && replyTo != "" {
		return replyTo
	}
	return o.destination
}

// fetchAll issues one fetch per campground x month and waits for all of
// them. Any single failure fails the whole cycle.
func (o *Orchestrator) fetchAll(ctx context.Context) ([]domain.AvailabilityRecord, error) {
	slots := make([][]domain.AvailabilityRecord, o.cfg.Requests())

	var g errgroup.Group
	i := 0
	for _, cg := range o.cfg.CampgroundIDs {
		for _, month := range o.cfg.Months {
			slot, cg, month := i, cg, month
			g.Go(func() error {
				records, err := o.collector.FetchMonth(ctx, cg, month)
				if err != nil {
					return err
				}
				slots[slot] = records
				return nil
			})
			i++
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.AvailabilityRecord
	for _, s := range slots {
		all = append(all, s...)
	}
	return all, nil
}

func (o *Orchestrator) partialSummary(nights int) string {
	starts := "any date"
	if len(o.cfg.StartDates) > 0 {
		starts = strings.Join(o.cfg.StartDates, " or ")
	}
	return fmt.Sprintf("%d night(s) available but none have %d consecutive nights starting on %s.",
		nights, o.cfg.MinNights, starts)
}

func (o *Orchestrator) publish(ctx context.Context, result domain.CycleResult) {
	if o.results == nil {
		return
	}
	select {
	case o.results <- result:
	case <-ctx.Done():
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
