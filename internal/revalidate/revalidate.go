// Package revalidate notifies whatever caches the rendered listing view that it is stale.
package revalidate

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ListingPath is the single listing view invalidated after every write.
const ListingPath = "/"

// Notifier is fire-and-forget: implementations log failures and never report them.
type Notifier interface {
	Revalidate(ctx context.Context, path string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, path string)

func (f NotifierFunc) Revalidate(ctx context.Context, path string) { f(ctx, path) }

// Nop ignores every notification.
var Nop Notifier = NotifierFunc(func(context.Context, string) {})

// LogNotifier records revalidation requests at debug level.
type LogNotifier struct{ Log zerolog.Logger }

func (n LogNotifier) Revalidate(_ context.Context, path string) {
	n.Log.Debug().Str("path", path).Msg("listing view revalidated")
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Revalidate(ctx context.Context, path string) {
	for _, n := range m {
		n.Revalidate(ctx, path)
	}
}

// SecretHeader carries the shared secret on webhook calls when one is configured.
const SecretHeader = "X-Revalidate-Secret"

// Webhook posts {"path": ...} to an external revalidation endpoint.
type Webhook struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewWebhook creates a webhook notifier. secret may be empty.
func NewWebhook(url, secret string, log zerolog.Logger) *Webhook {
	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(5 * time.Second)
	if secret != "" {
		c.SetHeader(SecretHeader, secret)
	}
	return &Webhook{client: c, url: url, log: log}
}

func (w *Webhook) Revalidate(ctx context.Context, path string) {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"path": path}).
		Post(w.url)
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Str("url", w.url).Msg("revalidation webhook failed")
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		w.log.Warn().Int("status", resp.StatusCode()).Str("path", path).Str("url", w.url).Msg("revalidation webhook rejected")
	}
}
