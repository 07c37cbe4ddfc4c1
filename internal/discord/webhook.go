// Package discord posts, edits and deletes messages through a Discord
// channel webhook.
package discord

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/httpclient"
	"github.com/dawnstudy/attendance/internal/logger"
)

// maxContentLength is Discord's limit for a message body.
const maxContentLength = 2000

// ErrUnknownMessage is returned by Edit and Delete when the message no longer exists.
var ErrUnknownMessage = errors.NewStd("discord: unknown message")

// Webhook is a chat channel addressed by a webhook URL.
// It is safe for concurrent use.
type Webhook struct {
	base     *url.URL
	username string
	client   *httpclient.Client
	log      logger.Logger
}

type messagePayload struct {
	Content         string           `json:"content"`
	Username        string           `json:"username,omitempty"`
	AllowedMentions *allowedMentions `json:"allowed_mentions,omitempty"`
}

// allowedMentions with an empty Parse list stops summaries from pinging members.
type allowedMentions struct {
	Parse []string `json:"parse"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// NewWebhook validates rawURL and returns a webhook bound to client.
// username, when set, overrides the webhook's display name on new messages.
func NewWebhook(rawURL, username string, client *httpclient.Client, log logger.Logger) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid webhook URL").
			Component("discord").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if client == nil {
		client = httpclient.New(nil)
	}
	if log == nil {
		log = logger.Global().Module("discord")
	}
	return &Webhook{base: u, username: username, client: client, log: log}, nil
}

// Send posts content and returns the id of the created message.
func (w *Webhook) Send(ctx context.Context, content string) (string, error) {
	target := w.endpoint("")
	q := target.Query()
	q.Set("wait", "true")
	target.RawQuery = q.Encode()

	payload := messagePayload{
		Content:         truncate(content),
		Username:        w.username,
		AllowedMentions: &allowedMentions{Parse: []string{}},
	}

	start := time.Now()
	var resp messageResponse
	if err := w.client.DoJSON(ctx, http.MethodPost, target.String(), payload, &resp); err != nil {
		return "", w.wrap(err, "send", "", time.Since(start))
	}
	if resp.ID == "" {
		return "", errors.Newf("webhook response carried no message id").
			Component("discord").
			Category(errors.CategoryIntegration).
			Context("operation", "send").
			Build()
	}

	w.log.Debug("message sent", logger.String("message_id", resp.ID), logger.Duration("elapsed", time.Since(start)))
	return resp.ID, nil
}

// Edit replaces the content of a previously sent message.
func (w *Webhook) Edit(ctx context.Context, messageID, content string) error {
	start := time.Now()
	payload := messagePayload{
		Content:         truncate(content),
		AllowedMentions: &allowedMentions{Parse: []string{}},
	}
	if err := w.client.DoJSON(ctx, http.MethodPatch, w.endpoint(messageID).String(), payload, nil); err != nil {
		return w.wrap(err, "edit", messageID, time.Since(start))
	}
	w.log.Debug("message edited", logger.String("message_id", messageID))
	return nil
}

// Delete removes a previously sent message.
func (w *Webhook) Delete(ctx context.Context, messageID string) error {
	start := time.Now()
	if err := w.client.DoJSON(ctx, http.MethodDelete, w.endpoint(messageID).String(), nil, nil); err != nil {
		return w.wrap(err, "delete", messageID, time.Since(start))
	}
	w.log.Debug("message deleted", logger.String("message_id", messageID))
	return nil
}

// endpoint returns the webhook URL, or the URL of one of its messages.
func (w *Webhook) endpoint(messageID string) *url.URL {
	u := *w.base
	if messageID != "" {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/messages/" + url.PathEscape(messageID)
		u.RawPath = ""
	}
	return &u
}

func (w *Webhook) wrap(err error, operation, messageID string, elapsed time.Duration) error {
	category := errors.CategoryNetwork
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		category = errors.CategoryHTTP
		if statusErr.StatusCode == http.StatusNotFound {
			err = errors.Join(ErrUnknownMessage, err)
			category = errors.CategoryNotFound
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	} else if errors.Is(err, context.Canceled) {
		category = errors.CategoryCancellation
	}

	builder := errors.New(err).
		Component("discord").
		Category(category).
		Timing(operation, elapsed)
	if messageID != "" {
		builder = builder.Context("message_id", messageID)
	}
	return builder.Build()
}

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentLength {
		return content
	}
	return string(runes[:maxContentLength-1]) + "…"
}
