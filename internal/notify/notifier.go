// Package notify turns poll results into chat messages.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/qepting91/campsite-watcher/internal/telegram"
)

const (
	// MaxMessageLength stays under Telegram's 4096 limit. Lengths are
	// counted in bytes, which never undercounts the server's measure.
	MaxMessageLength = 4000

	alertHeader     = "🚨 *SITE ALERT* 🚨\n\n"
	continuedHeader = "🚨 *SITE ALERT \\(continued\\)* 🚨\n\n"

	// room kept free in every chunk for the "(i/n) " marker
	ordinalReserve = 16
)

// BookingURL is the recreation.gov page for a campground.
func BookingURL(campgroundID string) string {
	return "https://www.recreation.gov/camping/campgrounds/" + campgroundID
}

// Sender is the chat transport.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramNotifier sends MarkdownV2 messages through a Sender.
type TelegramNotifier struct {
	sender    Sender
	logger    *slog.Logger
	maxLength int
}

func NewTelegramNotifier(sender Sender, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, logger: logger, maxLength: MaxMessageLength}
}

func (n *TelegramNotifier) NotifyMatches(ctx context.Context, sites []domain.MatchedSite, destination string) {
	if len(sites) == 0 {
		return
	}
	// Chunks go out one at a time so they arrive in order.
	for _, msg := range matchMessages(sites, n.maxLength) {
		n.send(ctx, msg, destination)
	}
}

func (n *TelegramNotifier) NotifyText(ctx context.Context, message, destination string) {
	n.send(ctx, message, destination)
}

func (n *TelegramNotifier) send(ctx context.Context, text, destination string) {
	if destination == "" {
		n.logger.Warn("No chat destination, message dropped", "bytes", len(text))
		return
	}
	if err := n.sender.SendMessage(ctx, destination, text); err != nil {
		n.logger.Error("Telegram send failed", "chat", destination, "err", err)
	}
}

// siteBlock renders one matched site with every interpolated field escaped.
func siteBlock(s domain.MatchedSite) string {
	detail := s.Loop
	if detail == "" {
		detail = s.SiteType
	}
	if detail == "" {
		detail = "—"
	}
	siteInfo := telegram.Escape(fmt.Sprintf("%s (%s)", s.DisplayName(), detail))
	runInfo := telegram.Escape(strings.Join(s.MatchedRun, " → "))
	label := telegram.Escape("Book Site at Campground " + s.CampgroundID)
	link := escapeLinkURL(BookingURL(s.CampgroundID))
	return fmt.Sprintf("🔔 *Site %s*\n📅 %s\n[%s](%s)\n\n", siteInfo, runInfo, label, link)
}

// escapeLinkURL escapes the two characters MarkdownV2 reserves inside (...).
func escapeLinkURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}

// matchMessages packs site blocks into chunks no longer than maxLength.
// A batch that fits in one message goes out unchanged. Otherwise it is
// repacked with room for an escaped "(i/n) " prefix on every chunk.
func matchMessages(sites []domain.MatchedSite, maxLength int) []string {
	chunks := packBlocks(sites, maxLength)
	if len(chunks) == 1 {
		return chunks
	}

	chunks = packBlocks(sites, maxLength-ordinalReserve)
	for i := range chunks {
		chunks[i] = telegram.Escape(fmt.Sprintf("(%d/%d) ", i+1, len(chunks))) + chunks[i]
	}
	return chunks
}

func packBlocks(sites []domain.MatchedSite, limit int) []string {
	var chunks []string
	current := alertHeader
	blocks := 0
	for _, s := range sites {
		block := siteBlock(s)
		// the trailing blank line is trimmed from the last block of a chunk
		if blocks > 0 && len(current)+len(strings.TrimRight(block, "\n")) > limit {
			chunks = append(chunks, strings.TrimSpace(current))
			current = continuedHeader
			blocks = 0
		}
		current += block
		blocks++
	}
	return append(chunks, strings.TrimSpace(current))
}

// LogNotifier is used when no chat credentials are configured. The
// destination is ignored.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyMatches(ctx context.Context, sites []domain.MatchedSite, destination string) {
	for _, s := range sites {
		n.Logger.Info("Notification (not sent)",
			"campground", s.CampgroundID,
			"site", s.DisplayName(),
			"run", strings.Join(s.MatchedRun, " → "),
			"book", BookingURL(s.CampgroundID),
		)
	}
}

func (n LogNotifier) NotifyText(ctx context.Context, message, destination string) {
	n.Logger.Info("Notification (not sent)", "text", message)
}
