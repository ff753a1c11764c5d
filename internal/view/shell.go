// Package view holds the presentation shell: the memo detail view-model and the
// server-rendered list and detail pages.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/summarize"
)

var (
	// ErrSummaryInFlight is returned while a summarization for the open memo is pending.
	ErrSummaryInFlight = errors.New("summary already in progress")
	ErrNoMemo          = errors.New("no memo is open")
	// ErrNothingToSummarize is returned for memos with blank content; the gateway is not
	// called and the error state carries the empty-content message.
	ErrNothingToSummarize = errors.New("memo has no content to summarize")
	// ErrSummaryDiscarded means the result arrived after the view moved on and was dropped.
	ErrSummaryDiscarded = errors.New("summary result discarded")
)

// SummaryStatus is the state of the summary panel.
type SummaryStatus int

const (
	SummaryIdle SummaryStatus = iota
	SummaryLoading
	SummaryReady
	SummaryFailed
)

func (s SummaryStatus) String() string {
	switch s {
	case SummaryLoading:
		return "loading"
	case SummaryReady:
		return "summary"
	case SummaryFailed:
		return "error"
	default:
		return "idle"
	}
}

// State is a rendering snapshot of the shell.
type State struct {
	Open    bool
	Memo    model.Memo
	Status  SummaryStatus
	Summary string
	Error   string
}

// Pending reports whether the summarize control should be disabled.
func (s State) Pending() bool { return s.Status == SummaryLoading }

// DetailShell is the view-model behind the memo detail view. It is safe for
// concurrent use; at most one summarization runs per shell.
type DetailShell struct {
	gateway summarize.Gateway
	editor  func(model.Memo)
	confirm func(model.Memo) bool
	remove  func(ctx context.Context, id string) error

	mu      sync.Mutex
	open    bool
	memo    model.Memo
	gen     uint64
	status  SummaryStatus
	summary string
	errMsg  string
}

// ShellOption configures a DetailShell.
type ShellOption func(*DetailShell)

// WithEditor sets the callback receiving the memo when the user asks to edit it.
func WithEditor(fn func(model.Memo)) ShellOption { return func(s *DetailShell) { s.editor = fn } }

// WithConfirm sets the deletion confirmation prompt. Without one, deletes are not confirmed.
func WithConfirm(fn func(model.Memo) bool) ShellOption {
	return func(s *DetailShell) { s.confirm = fn }
}

// WithDelete sets the function that deletes a memo, usually memo.Repository.Delete.
func WithDelete(fn func(ctx context.Context, id string) error) ShellOption {
	return func(s *DetailShell) { s.remove = fn }
}

func NewDetailShell(g summarize.Gateway, opts ...ShellOption) *DetailShell {
	s := &DetailShell{gateway: g}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open displays m and clears any previous summary.
func (s *DetailShell) Open(m model.Memo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.memo = m
	s.reset()
}

// Close hides the view. Pending summaries are dropped when they complete.
func (s *DetailShell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.memo = model.Memo{}
	s.reset()
}

func (s *DetailShell) reset() {
	s.gen++
	s.status = SummaryIdle
	s.summary = ""
	s.errMsg = ""
}

// Summarize asks the gateway for a summary of the open memo and records the outcome.
// Gateway failures are kept as the error state and also returned.
func (s *DetailShell) Summarize(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrNoMemo
	}
	if s.status == SummaryLoading {
		s.mu.Unlock()
		return ErrSummaryInFlight
	}
	if strings.TrimSpace(s.memo.Content) == "" {
		s.status = SummaryFailed
		s.summary = ""
		s.errMsg = summarize.Message(summarize.ErrEmptyContent)
		s.mu.Unlock()
		return ErrNothingToSummarize
	}
	s.status = SummaryLoading
	s.summary = ""
	s.errMsg = ""
	gen := s.gen
	content := s.memo.Content
	s.mu.Unlock()

	text, err := s.gateway.Summarize(ctx, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSummaryDiscarded
	}
	if err != nil {
		s.status = SummaryFailed
		s.errMsg = errorMessage(err)
		return err
	}
	s.status = SummaryReady
	s.summary = text
	return nil
}

func errorMessage(err error) string {
	if ge, ok := summarize.AsGatewayError(err); ok && ge.Message != "" {
		return ge.Message
	}
	return "요약 생성 중 오류가 발생했습니다."
}

// Edit hands the open memo to the editor callback.
func (s *DetailShell) Edit() error {
	s.mu.Lock()
	m, open := s.memo, s.open
	s.mu.Unlock()
	if !open {
		return ErrNoMemo
	}
	if s.editor != nil {
		s.editor(m)
	}
	return nil
}

// Delete removes the open memo after confirmation and closes the view. It reports
// whether the memo was deleted; delete failures are returned unchanged.
func (s *DetailShell) Delete(ctx context.Context) (bool, error) {
	s.mu.Lock()
	m, open := s.memo, s.open
	s.mu.Unlock()
	if !open {
		return false, ErrNoMemo
	}
	if s.confirm != nil && !s.confirm(m) {
		return false, nil
	}
	if s.remove == nil {
		return false, errors.New("no delete function configured")
	}
	if err := s.remove(ctx, m.ID); err != nil {
		return false, err
	}
	s.Close()
	return true, nil
}

// State returns a snapshot for rendering.
func (s *DetailShell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Open: s.open, Memo: s.memo, Status: s.status, Summary: s.summary, Error: s.errMsg}
	st.Memo.Tags = append([]string{}, s.memo.Tags...)
	return st
}
