package api

import (
	"encoding/json"
	"net/http"

	respond "github.com/memonote/memo-service/internal/api/respond"
	"github.com/memonote/memo-service/internal/summarize"
)

type SummarizeHandler struct {
	gateway summarize.Gateway
}

func NewSummarizeHandler(g summarize.Gateway) *SummarizeHandler { return &SummarizeHandler{gateway: g} }

// Summarize POST /api/summarize
//
// 200 {"summary"}; 400 when content is missing or blank; 500 {"error","details"?}
// when the credential is missing, generation failed or produced no text.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	// The credential is checked before the body is read, so a misconfigured
	// service answers 500 whatever the request looks like.
	if cc, ok := h.gateway.(summarize.CredentialChecker); ok {
		if err := cc.CheckCredential(); err != nil {
			writeGatewayError(w, err)
			return
		}
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	summary, err := h.gateway.Summarize(r.Context(), req.Content)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func writeGatewayError(w http.ResponseWriter, err error) {
	ge, ok := summarize.AsGatewayError(err)
	switch {
	case !ok:
		respond.WriteErrorDetails(w, http.StatusInternalServerError, summarize.Message(summarize.ErrGeneration), err.Error())
	case ge.Kind == summarize.ErrEmptyContent:
		respond.WriteBadRequest(w, ge.Message)
	default:
		respond.WriteErrorDetails(w, http.StatusInternalServerError, ge.Message, ge.Details())
	}
}
