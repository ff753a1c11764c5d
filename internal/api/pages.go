package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/api/validate"
	"github.com/memonote/memo-service/internal/core/memo"
	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/summarize"
	"github.com/memonote/memo-service/internal/view"
)

// PageHandler serves the server-rendered list, detail and edit pages.
// Each detail request drives its own view.DetailShell.
type PageHandler struct {
	repo    MemoRepository
	gateway summarize.Gateway
	pages   *view.Pages
	log     zerolog.Logger
}

func NewPageHandler(repo MemoRepository, g summarize.Gateway, pages *view.Pages, log zerolog.Logger) *PageHandler {
	return &PageHandler{repo: repo, gateway: g, pages: pages, log: log}
}

// List GET /?category=&q=
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	category, query := r.URL.Query().Get("category"), r.URL.Query().Get("q")
	data := view.ListPage{Category: category, Query: query, Categories: view.CategoryOptions(category, true)}

	memos, err := listMemos(r.Context(), h.repo, category, query)
	if err != nil {
		data.Error = repositoryMessage(err)
		h.render(w, http.StatusInternalServerError, func(b *bytes.Buffer) error { return h.pages.List(b, data) })
		return
	}
	data.Memos = memos
	h.render(w, http.StatusOK, func(b *bytes.Buffer) error { return h.pages.List(b, data) })
}

// Detail GET /memos/{id}
func (h *PageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.openShell(w, r)
	if !ok {
		return
	}
	h.renderDetail(w, http.StatusOK, shell)
}

// Summarize POST /memos/{id}/summary renders the detail page with the summary
// outcome; it is the form fallback of the page's script.
func (h *PageHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.openShell(w, r)
	if !ok {
		return
	}
	if err := shell.Summarize(r.Context()); err != nil {
		h.log.Debug().Err(err).Msg("page summary not produced")
	}
	h.renderDetail(w, http.StatusOK, shell)
}

// Delete POST /memos/{id}/delete; the form carries confirm=yes once the user agreed.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmed := r.PostFormValue("confirm") == "yes"
	shell, ok := h.openShell(w, r,
		view.WithConfirm(func(model.Memo) bool { return confirmed }),
		view.WithDelete(h.repo.Delete),
	)
	if !ok {
		return
	}
	deleted, err := shell.Delete(r.Context())
	if err != nil {
		writeRepositoryPage(w, err)
		return
	}
	if !deleted {
		http.Redirect(w, r, "/memos/"+mux.Vars(r)["id"], http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditForm GET /memos/{id}/edit
func (h *PageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	var page view.EditPage
	shell, ok := h.openShell(w, r, view.WithEditor(func(m model.Memo) { page = view.NewEditPage(m) }))
	if !ok {
		return
	}
	if err := shell.Edit(); err != nil {
		writeRepositoryPage(w, err)
		return
	}
	h.render(w, http.StatusOK, func(b *bytes.Buffer) error { return h.pages.Edit(b, page) })
}

// NewForm GET /memos/new
func (h *PageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, func(b *bytes.Buffer) error { return h.pages.Edit(b, view.NewEditPage(model.Memo{})) })
}

// Create POST /memos
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r, "")
	if !ok {
		return
	}
	m, err := h.repo.Create(r.Context(), form)
	if err != nil {
		writeRepositoryPage(w, err)
		return
	}
	http.Redirect(w, r, "/memos/"+m.ID, http.StatusSeeOther)
}

// Update POST /memos/{id}/edit
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	form, ok := h.parseForm(w, r, id)
	if !ok {
		return
	}
	_, err := h.repo.Update(r.Context(), id, form)
	if memo.IsNotFound(err) {
		http.Error(w, msgMemoNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		writeRepositoryPage(w, err)
		return
	}
	http.Redirect(w, r, "/memos/"+id, http.StatusSeeOther)
}

// parseForm reads and validates a submitted memo form, re-rendering it with the
// error when invalid.
func (h *PageHandler) parseForm(w http.ResponseWriter, r *http.Request, id string) (model.MemoForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return model.MemoForm{}, false
	}
	form := model.MemoForm{
		Title:    r.PostForm.Get("title"),
		Content:  r.PostForm.Get("content"),
		Category: r.PostForm.Get("category"),
		Tags:     validate.SplitTags(r.PostForm.Get("tags")),
	}
	if err := validate.MemoForm(&form); err != nil {
		page := view.NewEditPage(model.Memo{
			ID: id, Title: form.Title, Content: form.Content, Category: form.Category, Tags: form.Tags,
		}, err.Error())
		h.render(w, http.StatusBadRequest, func(b *bytes.Buffer) error { return h.pages.Edit(b, page) })
		return form, false
	}
	return form, true
}

// openShell loads the memo named by the route and opens a shell on it.
func (h *PageHandler) openShell(w http.ResponseWriter, r *http.Request, opts ...view.ShellOption) (*view.DetailShell, bool) {
	m, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepositoryPage(w, err)
		return nil, false
	}
	if m == nil {
		http.Error(w, msgMemoNotFound, http.StatusNotFound)
		return nil, false
	}
	shell := view.NewDetailShell(h.gateway, opts...)
	shell.Open(*m)
	return shell, true
}

func (h *PageHandler) renderDetail(w http.ResponseWriter, status int, shell *view.DetailShell) {
	st := shell.State()
	h.render(w, status, func(b *bytes.Buffer) error { return h.pages.Detail(b, st) })
}

// render buffers the page so template failures still produce a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, status int, exec func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := exec(&buf); err != nil {
		h.log.Error().Stack().Err(err).Msg("render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func repositoryMessage(err error) string {
	var re *memo.RepositoryError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}

func writeRepositoryPage(w http.ResponseWriter, err error) {
	http.Error(w, repositoryMessage(err), http.StatusInternalServerError)
}
