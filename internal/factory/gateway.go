package factory

import (
	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/config"
	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/summarize"
)

// NewSummaryGateway builds the summarization client. A missing key yields a client
// whose calls fail with summarize.ErrMissingCredential rather than a startup error.
func NewSummaryGateway(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) summarize.Gateway {
	return summarize.NewClient(summarize.Config{
		APIKey:  cfg.SummaryAPIKey,
		BaseURL: cfg.SummaryBaseURL,
		Model:   cfg.SummaryModel,
	}, log, m)
}
