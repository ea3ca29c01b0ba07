// Package telegram wraps the Bot API calls the watcher needs: sendMessage
// and long-poll getUpdates.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const DefaultBaseURL = "https://api.telegram.org"

// ConflictError is returned for HTTP 409: another process is long-polling
// with the same token.
type ConflictError struct {
	Description string
}

func (e *ConflictError) Error() string {
	return "telegram conflict (409): " + e.Description
}

// APIError is any other unsuccessful Bot API response.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram HTTP %d: %s", e.StatusCode, e.Description)
}

type Chat struct {
	ID int64
}

type Message struct {
	MessageID int64
	Chat      Chat
	Text      string
}

type Update struct {
	UpdateID int64
	Message  *Message
}

// ChatID renders the sender chat as the string form used in config.
func (u Update) ChatID() string {
	if u.Message == nil {
		return ""
	}
	return strconv.FormatInt(u.Message.Chat.ID, 10)
}

type Client struct {
	httpClient *http.Client
	token      string
	endpoint   string
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// No client-wide timeout: getUpdates deadlines come from the context.
	return &Client{
		httpClient: &http.Client{},
		token:      token,
		endpoint:   strings.TrimRight(baseURL, "/") + "/bot%s/%s",
	}
}

// bot builds a BotAPI bound to ctx. NewBotAPI is avoided because it calls
// getMe before returning.
func (c *Client) bot(ctx context.Context) *tgbotapi.BotAPI {
	api := &tgbotapi.BotAPI{
		Token:  c.token,
		Buffer: 100,
		Client: ctxDoer{ctx: ctx, client: c.httpClient},
	}
	api.SetAPIEndpoint(c.endpoint)
	return api
}

// SendMessage posts MarkdownV2 text to chatID, which is either a numeric
// chat id or an @channel name.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	msg := tgbotapi.MessageConfig{Text: text, ParseMode: tgbotapi.ModeMarkdownV2}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg.ChatID = id
	} else {
		msg.ChannelUsername = chatID
	}

	_, err := c.bot(ctx).Request(msg)
	return classify(err)
}

// GetUpdates long-polls for updates after offset-1, holding the request
// open for up to timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(timeout.Seconds())
	raw, err := c.bot(ctx).GetUpdates(cfg)
	if err != nil {
		return nil, classify(err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, fromAPI(u))
	}
	return updates, nil
}

func fromAPI(u tgbotapi.Update) Update {
	out := Update{UpdateID: int64(u.UpdateID)}
	if m := u.Message; m != nil {
		out.Message = &Message{MessageID: int64(m.MessageID), Text: m.Text}
		if m.Chat != nil {
			out.Message.Chat.ID = m.Chat.ID
		}
	}
	return out
}

// classify maps Bot API failures onto ConflictError and APIError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code == http.StatusConflict {
		return &ConflictError{Description: apiErr.Message}
	}
	return &APIError{StatusCode: apiErr.Code, Description: apiErr.Message}
}

// ctxDoer attaches ctx to every request and strips the URL, which embeds
// the bot token, from transport errors.
type ctxDoer struct {
	ctx    context.Context
	client *http.Client
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req.WithContext(d.ctx))
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("telegram %s: %w", req.Method, err)
	}
	return resp, nil
}
