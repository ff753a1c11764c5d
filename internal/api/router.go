package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/api/recovery"
	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/summarize"
	"github.com/memonote/memo-service/internal/view"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Repo    MemoRepository
	Gateway summarize.Gateway
	Pages   *view.Pages
	Metrics *metrics.Metrics
	Log     zerolog.Logger

	// IsHealthy and Components back GET /api/health; Components may be nil.
	IsHealthy  func() bool
	Components func() map[string]bool
}

// NewRouter creates the HTTP router with the JSON API, the HTML pages and /metrics.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware(d.Log))
	root.Use(Instrument(d.Log, d.Metrics))

	// Memos
	memos := NewMemoHandler(d.Repo)
	root.HandleFunc("/api/memos", memos.ListMemos).Methods(http.MethodGet)
	root.HandleFunc("/api/memos", memos.CreateMemo).Methods(http.MethodPost)
	root.HandleFunc("/api/memos/{id}", memos.GetMemo).Methods(http.MethodGet)
	root.HandleFunc("/api/memos/{id}", memos.UpdateMemo).Methods(http.MethodPut)
	root.HandleFunc("/api/memos/{id}", memos.DeleteMemo).Methods(http.MethodDelete)

	// Summaries
	sum := NewSummarizeHandler(d.Gateway)
	root.HandleFunc("/api/summarize", sum.Summarize).Methods(http.MethodPost)

	// Health & metrics
	healthHandler := NewHealthHandler(d.IsHealthy, d.Components)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods(http.MethodGet)
	if d.Metrics != nil {
		root.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Pages
	if d.Pages != nil {
		pages := NewPageHandler(d.Repo, d.Gateway, d.Pages, d.Log)
		root.HandleFunc("/", pages.List).Methods(http.MethodGet)
		root.HandleFunc("/memos", pages.Create).Methods(http.MethodPost)
		root.HandleFunc("/memos/new", pages.NewForm).Methods(http.MethodGet)
		root.HandleFunc("/memos/{id}", pages.Detail).Methods(http.MethodGet)
		root.HandleFunc("/memos/{id}/edit", pages.EditForm).Methods(http.MethodGet)
		root.HandleFunc("/memos/{id}/edit", pages.Update).Methods(http.MethodPost)
		root.HandleFunc("/memos/{id}/summary", pages.Summarize).Methods(http.MethodPost)
		root.HandleFunc("/memos/{id}/delete", pages.Delete).Methods(http.MethodPost)
	}
	return root
}
