package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	respond "github.com/memonote/memo-service/internal/api/respond"
	"github.com/memonote/memo-service/internal/model"
)

// apiError is a non-2xx reply from the memo service.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("http %d: %s", e.Status, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

type memoList struct {
	Memos []model.Memo `json:"memos"`
	Count int          `json:"count"`
}

// client talks to the memo service JSON API.
type client struct {
	r *resty.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{r: resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")}
}

func (c *client) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	var e respond.ErrorResponse
	req := c.r.R().SetContext(ctx).SetError(&e).SetQueryParams(query)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode())
		}
		return &apiError{Status: resp.StatusCode(), Message: e.Error, Details: e.Details}
	}
	return nil
}

func (c *client) List(ctx context.Context, category, query string) (memoList, error) {
	params := map[string]string{}
	if category != "" {
		params["category"] = category
	}
	if query != "" {
		params["q"] = query
	}
	var out memoList
	err := c.do(ctx, http.MethodGet, "/api/memos", params, nil, &out)
	return out, err
}

func (c *client) Get(ctx context.Context, id string) (model.Memo, error) {
	var out model.Memo
	err := c.do(ctx, http.MethodGet, "/api/memos/"+id, nil, nil, &out)
	return out, err
}

func (c *client) Create(ctx context.Context, form model.MemoForm) (model.Memo, error) {
	var out model.Memo
	err := c.do(ctx, http.MethodPost, "/api/memos", nil, form, &out)
	return out, err
}

func (c *client) Update(ctx context.Context, id string, form model.MemoForm) (model.Memo, error) {
	var out model.Memo
	err := c.do(ctx, http.MethodPut, "/api/memos/"+id, nil, form, &out)
	return out, err
}

func (c *client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/memos/"+id, nil, nil, nil)
}

func (c *client) Summarize(ctx context.Context, content string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	err := c.do(ctx, http.MethodPost, "/api/summarize", nil, map[string]string{"content": content}, &out)
	return out.Summary, err
}
