package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonote/memo-service/internal/core/memo"
	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/model"
	"github.com/memonote/memo-service/internal/store/sqlite"
	"github.com/memonote/memo-service/internal/summarize"
	"github.com/memonote/memo-service/internal/view"
)

type testEnv struct {
	srv     *httptest.Server
	repo    *memo.Repository
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, gw summarize.Gateway) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "memos.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	st := sqlite.NewWithDB(db)
	t.Cleanup(func() { _ = st.Close() })

	m := metrics.New()
	repo := memo.NewRepository(st, zerolog.Nop(), memo.WithMetrics(m))
	pages, err := view.NewPages()
	require.NoError(t, err)
	if gw == nil {
		gw = summarize.GatewayFunc(func(_ context.Context, content string) (string, error) {
			return "요약: " + content, nil
		})
	}

	srv := httptest.NewServer(NewRouter(Deps{
		Repo: repo, Gateway: gw, Pages: pages, Metrics: m, Log: zerolog.Nop(),
		IsHealthy: func() bool { return true },
	}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, repo: repo, metrics: m}
}

// noRedirect keeps 303 responses visible to the test.
var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func doJSON(t *testing.T, method, u string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, u, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

type listBody struct {
	Memos []model.Memo `json:"memos"`
	Count int          `json:"count"`
}

func TestMemoLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	base := env.srv.URL + "/api/memos"

	resp, body := doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"memos":[],"count":0}`, string(body))

	resp, body = doJSON(t, http.MethodPost, base, model.MemoForm{Title: "A", Content: "B", Category: "idea", Tags: []string{"x"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[model.Memo](t, body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, []string{"x"}, created.Tags)
	assert.Contains(t, string(body), `"createdAt"`)

	resp, body = doJSON(t, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[model.Memo](t, body))

	resp, body = doJSON(t, http.MethodPut, base+"/"+created.ID, model.MemoForm{Title: "A2", Content: "B2", Category: "work"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	updated := decode[model.Memo](t, body)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)
	assert.Equal(t, []string{}, updated.Tags)

	resp, _ = doJSON(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)

	resp, _ = doJSON(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "deleting a missing memo succeeds")
}

func TestUpdateMissingIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := doJSON(t, http.MethodPut, env.srv.URL+"/api/memos/00000000-0000-0000-0000-000000000000",
		model.MemoForm{Title: "x", Category: "work"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	base := env.srv.URL + "/api/memos"

	for name, body := range map[string]interface{}{
		"invalid json":   "{",
		"missing title":  model.MemoForm{Content: "c", Category: "work"},
		"bad category":   model.MemoForm{Title: "t", Category: "misc"},
		"too long title": model.MemoForm{Title: strings.Repeat("a", 201), Category: "work"},
		"too many tags":  model.MemoForm{Title: "t", Tags: make([]string, 21)},
	} {
		t.Run(name, func(t *testing.T) {
			resp, b := doJSON(t, http.MethodPost, base, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(b), `"error"`)
		})
	}

	resp, b := doJSON(t, http.MethodPost, base, model.MemoForm{Title: "no category"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "other", decode[model.Memo](t, b).Category)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, f := range []model.MemoForm{
		{Title: "Grocery list", Content: "eggs", Category: "personal"},
		{Title: "Sprint plan", Content: "grocery app backlog", Category: "work"},
		{Title: "Paper notes", Content: "read", Category: "study"},
	} {
		_, err := env.repo.Create(ctx, f)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	base := env.srv.URL + "/api/memos"

	_, b := doJSON(t, http.MethodGet, base+"?category=work", nil)
	work := decode[listBody](t, b)
	require.Equal(t, 1, work.Count)
	assert.Equal(t, "Sprint plan", work.Memos[0].Title)

	_, b = doJSON(t, http.MethodGet, base+"?category=all", nil)
	assert.Equal(t, 3, decode[listBody](t, b).Count)

	_, b = doJSON(t, http.MethodGet, base+"?q=GROCERY", nil)
	hits := decode[listBody](t, b)
	require.Equal(t, 2, hits.Count)
	assert.Equal(t, "Sprint plan", hits.Memos[0].Title, "newest first")

	_, b = doJSON(t, http.MethodGet, base+"?q=grocery&category=study", nil)
	assert.Equal(t, 2, decode[listBody](t, b).Count, "q wins over category")
}

func TestSummarizeEndpoint(t *testing.T) {
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"backend exploded","type":"server_error"}}`))
	}))
	defer fake.Close()

	tests := []struct {
		name       string
		gw         summarize.Gateway
		body       interface{}
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			gw:         nil,
			body:       map[string]string{"content": "오늘 할 일"},
			wantStatus: http.StatusOK,
			wantBody:   `{"summary":"요약: 오늘 할 일"}`,
		},
		{
			name:       "empty content",
			gw:         summarize.NewClient(summarize.Config{APIKey: "k", BaseURL: fake.URL}, zerolog.Nop(), nil),
			body:       map[string]string{"content": ""},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"요약할 내용이 제공되지 않았습니다."}`,
		},
		{
			name:       "missing content field",
			gw:         summarize.NewClient(summarize.Config{APIKey: "k", BaseURL: fake.URL}, zerolog.Nop(), nil),
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not json",
			body:       "content=hi",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing credential",
			gw:         summarize.NewClient(summarize.Config{BaseURL: fake.URL}, zerolog.Nop(), nil),
			body:       map[string]string{"content": "hi"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"GEMINI_API_KEY가 설정되지 않았습니다."}`,
		},
		{
			name:       "missing credential wins over bad body",
			gw:         summarize.NewClient(summarize.Config{BaseURL: fake.URL}, zerolog.Nop(), nil),
			body:       "content=hi",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"GEMINI_API_KEY가 설정되지 않았습니다."}`,
		},
		{
			name:       "generation failure",
			gw:         summarize.NewClient(summarize.Config{APIKey: "k", BaseURL: fake.URL}, zerolog.Nop(), nil),
			body:       map[string]string{"content": "hi"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "non gateway error",
			gw: summarize.GatewayFunc(func(context.Context, string) (string, error) {
				return "", errors.New("unexpected")
			}),
			body:       map[string]string{"content": "hi"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"요약 중 오류가 발생했습니다.","details":"unexpected"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.gw)
			resp, b := doJSON(t, http.MethodPost, env.srv.URL+"/api/summarize", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(b))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(b))
			}
		})
	}

	t.Run("generation failure carries details", func(t *testing.T) {
		env := newTestEnv(t, summarize.NewClient(summarize.Config{APIKey: "k", BaseURL: fake.URL}, zerolog.Nop(), nil))
		_, b := doJSON(t, http.MethodPost, env.srv.URL+"/api/summarize", map[string]string{"content": "hi"})
		body := decode[map[string]string](t, b)
		assert.Equal(t, "요약 중 오류가 발생했습니다.", body["error"])
		assert.Contains(t, body["details"], "backend exploded")
	})
}

// brokenRepo fails every call the way the repository reports store outages.
type brokenRepo struct{}

func (brokenRepo) fail(op memo.Op) error {
	return &memo.RepositoryError{Op: op, Message: "메모를 불러오는데 실패했습니다", Err: errors.New("db down")}
}
func (r brokenRepo) ListAll(context.Context) ([]model.Memo, error) { return nil, r.fail(memo.OpListAll) }
func (r brokenRepo) GetByID(context.Context, string) (*model.Memo, error) {
	return nil, r.fail(memo.OpGetByID)
}
func (r brokenRepo) Create(context.Context, model.MemoForm) (*model.Memo, error) {
	return nil, r.fail(memo.OpCreate)
}
func (r brokenRepo) Update(context.Context, string, model.MemoForm) (*model.Memo, error) {
	return nil, r.fail(memo.OpUpdate)
}
func (r brokenRepo) Delete(context.Context, string) error { return r.fail(memo.OpDelete) }
func (r brokenRepo) ListByCategory(context.Context, string) ([]model.Memo, error) {
	return nil, r.fail(memo.OpListByCategory)
}
func (r brokenRepo) Search(context.Context, string) ([]model.Memo, error) {
	return nil, r.fail(memo.OpSearch)
}

func TestRepositoryFailureIs500WithMessage(t *testing.T) {
	srv := httptest.NewServer(NewRouter(Deps{Repo: brokenRepo{}, Log: zerolog.Nop()}))
	defer srv.Close()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/memos"},
		{http.MethodGet, "/api/memos/abc"},
		{http.MethodDelete, "/api/memos/abc"},
	} {
		resp, b := doJSON(t, tc.method, srv.URL+tc.path, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"메모를 불러오는데 실패했습니다"}`, string(b))
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	m, err := env.repo.Create(ctx, model.MemoForm{Title: "장보기", Content: "우유", Category: "personal"})
	require.NoError(t, err)

	get := func(path string) (int, string) {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}
	post := func(path string, form url.Values) *http.Response {
		resp, err := noRedirect.PostForm(env.srv.URL+path, form)
		require.NoError(t, err)
		return resp
	}

	code, html := get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, html, "장보기")

	code, html = get("/?category=work")
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, html, "장보기")

	code, html = get("/memos/" + m.ID)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, html, "요약 생성")

	code, _ = get("/memos/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, code)

	resp := post("/memos/"+m.ID+"/summary", nil)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), "요약: 우유")

	code, html = get("/memos/" + m.ID + "/edit")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, html, `value="장보기"`)

	resp = post("/memos/"+m.ID+"/edit", url.Values{"title": {"장보기 2"}, "content": {"우유, 빵"}, "category": {"personal"}, "tags": {"마트, 주말"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	got, err := env.repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "장보기 2", got.Title)
	assert.Equal(t, []string{"마트", "주말"}, got.Tags)

	resp = post("/memos", url.Values{"title": {""}})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post("/memos", url.Values{"title": {"새 메모"}, "category": {"idea"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/memos/"))

	resp = post("/memos/"+m.ID+"/delete", url.Values{})
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/memos/"+m.ID, resp.Header.Get("Location"), "unconfirmed delete keeps the memo")

	resp = post("/memos/"+m.ID+"/delete", url.Values{"confirm": {"yes"}})
	resp.Body.Close()
	assert.Equal(t, "/", resp.Header.Get("Location"))
	got, err = env.repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPageSummaryOfBlankMemoShowsError(t *testing.T) {
	var calls int
	env := newTestEnv(t, summarize.GatewayFunc(func(context.Context, string) (string, error) {
		calls++
		return "x", nil
	}))
	m, err := env.repo.Create(context.Background(), model.MemoForm{Title: "빈 메모", Content: "", Category: "other"})
	require.NoError(t, err)

	resp, err := noRedirect.PostForm(env.srv.URL+"/memos/"+m.ID+"/summary", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	html := string(b)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, `class="panel error"`)
	assert.Contains(t, html, "요약할 내용이 제공되지 않았습니다.")
	assert.NotContains(t, html, `class="panel idle"`)
	assert.Zero(t, calls)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, b := doJSON(t, http.MethodGet, env.srv.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `"healthy"`)

	_, _ = doJSON(t, http.MethodGet, env.srv.URL+"/api/memos/some-id", nil)

	resp, b = doJSON(t, http.MethodGet, env.srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `memo_service_http_requests_total{code="404",method="GET",route="/api/memos/{id}"} 1`)
	assert.Contains(t, string(b), `memo_service_repository_operations_total{op="get_by_id",status="ok"} 1`)
}
