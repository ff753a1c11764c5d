package factory

import (
	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/config"
	"github.com/memonote/memo-service/internal/revalidate"
)

// NewNotifier always logs revalidations and also calls the webhook when one is configured.
func NewNotifier(cfg *config.Config, log zerolog.Logger) revalidate.Notifier {
	n := revalidate.Multi{revalidate.LogNotifier{Log: log}}
	if cfg.RevalidateWebhookURL != "" {
		n = append(n, revalidate.NewWebhook(cfg.RevalidateWebhookURL, cfg.RevalidateSecret, log))
	}
	return n
}
