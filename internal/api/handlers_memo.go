package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/memonote/memo-service/internal/api/respond"
	"github.com/memonote/memo-service/internal/api/validate"
	"github.com/memonote/memo-service/internal/core/memo"
	"github.com/memonote/memo-service/internal/model"
)

const maxBodyBytes = 1 << 20

const msgMemoNotFound = "메모를 찾을 수 없습니다."

// MemoRepository is the subset of memo.Repository the handlers use.
type MemoRepository interface {
	ListAll(ctx context.Context) ([]model.Memo, error)
	GetByID(ctx context.Context, id string) (*model.Memo, error)
	Create(ctx context.Context, form model.MemoForm) (*model.Memo, error)
	Update(ctx context.Context, id string, form model.MemoForm) (*model.Memo, error)
	Delete(ctx context.Context, id string) error
	ListByCategory(ctx context.Context, category string) ([]model.Memo, error)
	Search(ctx context.Context, query string) ([]model.Memo, error)
}

type MemoHandler struct {
	repo MemoRepository
}

func NewMemoHandler(repo MemoRepository) *MemoHandler { return &MemoHandler{repo: repo} }

// ListMemos GET /api/memos?category=&q=
// A non-empty q searches and takes precedence over category.
func (h *MemoHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	out, err := listMemos(r.Context(), h.repo, r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memos": out, "count": len(out)})
}

func listMemos(ctx context.Context, repo MemoRepository, category, query string) ([]model.Memo, error) {
	var (
		out []model.Memo
		err error
	)
	switch {
	case query != "":
		out, err = repo.Search(ctx, query)
	case category != "":
		out, err = repo.ListByCategory(ctx, category)
	default:
		out, err = repo.ListAll(ctx)
	}
	if out == nil && err == nil {
		out = []model.Memo{}
	}
	return out, err
}

// GetMemo GET /api/memos/{id}
func (h *MemoHandler) GetMemo(w http.ResponseWriter, r *http.Request) {
	m, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	if m == nil {
		respond.WriteNotFound(w, msgMemoNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// CreateMemo POST /api/memos
func (h *MemoHandler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeMemoForm(w, r)
	if !ok {
		return
	}
	m, err := h.repo.Create(r.Context(), form)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// UpdateMemo PUT /api/memos/{id}
func (h *MemoHandler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeMemoForm(w, r)
	if !ok {
		return
	}
	m, err := h.repo.Update(r.Context(), mux.Vars(r)["id"], form)
	if memo.IsNotFound(err) {
		respond.WriteNotFound(w, msgMemoNotFound)
		return
	}
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// DeleteMemo DELETE /api/memos/{id}
func (h *MemoHandler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeMemoForm(w http.ResponseWriter, r *http.Request) (model.MemoForm, bool) {
	var form model.MemoForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return form, false
	}
	if err := validate.MemoForm(&form); err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
		} else {
			respond.WriteInternalError(w, err.Error())
		}
		return form, false
	}
	return form, true
}

// writeRepositoryError replies 500 with the localized message of a repository failure.
func writeRepositoryError(w http.ResponseWriter, err error) {
	respond.WriteInternalError(w, repositoryMessage(err))
}
