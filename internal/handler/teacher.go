package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/otayori/internal/service"
)

// TeacherHandler serves the teacher's endpoints: rotating the staff access
// token, checking a token, and the audit log.
type TeacherHandler struct {
	tokens        *service.TokenService
	messages      *service.MessageService
	publicBaseURL string // empty: derive from each request
}

// NewTeacherHandler creates a TeacherHandler. Staff links are built on
// publicBaseURL when it is set.
func NewTeacherHandler(tokens *service.TokenService, messages *service.MessageService, publicBaseURL string) *TeacherHandler {
	return &TeacherHandler{
		tokens:        tokens,
		messages:      messages,
		publicBaseURL: publicBaseURL,
	}
}

// tokenResponse keeps both keys present as null when no token exists.
type tokenResponse struct {
	URL   *string `json:"url"`
	Token *string `json:"token"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (h *TeacherHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return requestBaseURL(r)
}

// HandleCurrentToken handles GET /api/teacher/get-current-token.
func (h *TeacherHandler) HandleCurrentToken(w http.ResponseWriter, r *http.Request) {
	info, err := h.tokens.Current(r.Context(), h.baseURL(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	if info == nil {
		writeJSON(w, http.StatusOK, tokenResponse{})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{URL: &info.URL, Token: &info.Token})
}

// HandleGenerateURL handles POST /api/teacher/generate-url.
// Every call invalidates the previous staff link.
func (h *TeacherHandler) HandleGenerateURL(w http.ResponseWriter, r *http.Request) {
	info, err := h.tokens.Issue(r.Context(), h.baseURL(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleVerify handles GET /api/verify-token/{token}.
// A token that does not verify is answered with 401 and {"valid": false}.
func (h *TeacherHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	valid, err := h.tokens.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if !valid {
		writeJSON(w, http.StatusUnauthorized, verifyResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true})
}

// HandleLogs handles GET /api/teacher/logs.
func (h *TeacherHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.messages.ListLogs(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
