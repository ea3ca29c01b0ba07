// Package listener long-polls the chat transport for commands.
//
// The loop alternates between two states. Idle: between requests. Waiting:
// a getUpdates call is outstanding. Every response, success or error,
// returns the loop to Idle; errors add a backoff first, longer when the
// server reports a conflicting listener (HTTP 409).
//
// Commands, accepted only from the configured chat:
//
//	/check, /poll   run a manual poll and reply to the sender
//	/status         configuration and poll counters
//	/help, /start   command summary
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/qepting91/campsite-watcher/internal/storage"
	"github.com/qepting91/campsite-watcher/internal/telegram"
)

const (
	DefaultPollTimeout     = 30 * time.Second
	DefaultConflictBackoff = 10 * time.Second
	DefaultErrorBackoff    = 5 * time.Second

	manualCheckText = "🔍 *Manual check triggered*\\.\\.\\."
	helpText        = "👋 *Campground Watcher Commands*:\n\n/check \\- Trigger manual poll\n/status \\- View current settings\n/help \\- Show this message"
)

type State int32

const (
	StateIdle State = iota
	StateWaiting
)

func (s State) String() string {
	if s == StateWaiting {
		return "waiting"
	}
	return "idle"
}

// Transport is the subset of the chat client the listener needs.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
}

// Poller is what a /check or /status command talks to.
type Poller interface {
	RunPoll(ctx context.Context, trigger domain.Trigger, replyTo string) domain.CycleResult
	Config() domain.PollConfig
	PollCount() int64
}

type Listener struct {
	transport Transport
	poller    Poller
	chatID    string
	snapshots *storage.SnapshotStore
	logger    *slog.Logger

	PollTimeout     time.Duration
	ConflictBackoff time.Duration
	ErrorBackoff    time.Duration

	state        atomic.Int32
	lastUpdateID atomic.Int64
	checks       sync.WaitGroup
}

// New returns a listener that accepts commands only from chatID.
// snapshots may be nil.
func New(transport Transport, poller Poller, chatID string, snapshots *storage.SnapshotStore, logger *slog.Logger) *Listener {
	return &Listener{
		transport:       transport,
		poller:          poller,
		chatID:          chatID,
		snapshots:       snapshots,
		logger:          logger,
		PollTimeout:     DefaultPollTimeout,
		ConflictBackoff: DefaultConflictBackoff,
		ErrorBackoff:    DefaultErrorBackoff,
	}
}

func (l *Listener) State() State { return State(l.state.Load()) }

// LastUpdateID is the highest update identifier seen so far.
func (l *Listener) LastUpdateID() int64 { return l.lastUpdateID.Load() }

// Run loops until ctx is cancelled, then waits for in-flight /check polls.
func (l *Listener) Run(ctx context.Context) {
	defer l.checks.Wait()
	l.logger.Info("Listening for commands", "commands", "/check, /status")

	for ctx.Err() == nil {
		l.state.Store(int32(StateWaiting))
		updates, err := l.transport.GetUpdates(ctx, l.LastUpdateID()+1, l.PollTimeout)
		l.state.Store(int32(StateIdle))

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.backoff(ctx, err)
			continue
		}
		for _, u := range updates {
			l.handle(ctx, u)
		}
	}
}

func (l *Listener) backoff(ctx context.Context, err error) {
	delay := l.ErrorBackoff
	var conflict *telegram.ConflictError
	if errors.As(err, &conflict) {
		delay = l.ConflictBackoff
		l.logger.Error("Telegram conflict: another instance is likely polling with this token; stop other bot processes", "err", err)
	} else {
		l.logger.Error("Telegram listener error", "err", err, "retry_in", delay)
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (l *Listener) handle(ctx context.Context, u telegram.Update) {
	if u.UpdateID > l.lastUpdateID.Load() {
		l.lastUpdateID.Store(u.UpdateID)
	}
	if u.Message == nil || u.Message.Text == "" || u.ChatID() != l.chatID {
		return
	}

	chat := u.ChatID()
	switch parseCommand(u.Message.Text) {
	case "/check", "/poll":
		l.logger.Info("Manual check requested", "chat", chat)
		l.say(ctx, chat, manualCheckText)
		l.checks.Add(1)
		go func() {
			defer l.checks.Done()
			l.poller.RunPoll(ctx, domain.TriggerManual, chat)
		}()
	case "/status":
		l.say(ctx, chat, l.statusText())
	case "/help", "/start":
		l.say(ctx, chat, helpText)
	}
}

// parseCommand lower-cases the first word and drops an @botname suffix.
func parseCommand(text string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd
}

func (l *Listener) statusText() string {
	cfg := l.poller.Config()
	starts := "any date"
	if len(cfg.StartDates) > 0 {
		starts = strings.Join(cfg.StartDates, ", ")
	}
	lines := []string{
		"ℹ️ *Watcher Status*",
		"📍 Campgrounds: " + telegram.Escape(strings.Join(cfg.CampgroundIDs, ", ")),
		"📅 Months: " + telegram.Escape(strings.Join(cfg.Months, ", ")),
		"⏱ Interval: every " + telegram.Escape(strconv.FormatFloat(cfg.Interval.Minutes(), 'f', -1, 64)) + "m",
		"🌙 Min Nights: " + telegram.Escape(strconv.Itoa(cfg.MinNights)),
		"🗓 Start Dates: " + telegram.Escape(starts),
		"🔢 Poll Count: " + telegram.Escape(strconv.FormatInt(l.poller.PollCount(), 10)),
	}
	if l.snapshots != nil {
		if last := l.snapshots.Snapshot().Latest; last != nil {
			lines = append(lines, "🕑 Last Check: "+telegram.Escape(fmt.Sprintf("%s, %s at %s",
				last.Label, last.Outcome, last.FinishedAt.Format("15:04:05"))))
		}
	}
	return strings.Join(lines, "\n")
}

func (l *Listener) say(ctx context.Context, chat, text string) {
	if err := l.transport.SendMessage(ctx, chat, text); err != nil {
		l.logger.Error("Telegram send failed", "chat", chat, "err", err)
	}
}
