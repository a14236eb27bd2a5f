package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/otayori/internal/service"
)

// StaffHandler serves theme management and message review.
type StaffHandler struct {
	themes   *service.ThemeService
	messages *service.MessageService
}

func NewStaffHandler(themes *service.ThemeService, messages *service.MessageService) *StaffHandler {
	return &StaffHandler{themes: themes, messages: messages}
}

// HandleListThemes handles GET /api/staff/themes: every active theme,
// including ones outside their date window.
func (h *StaffHandler) HandleListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.themes.ListForStaff(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

// HandleCreateTheme handles POST /api/staff/themes.
func (h *StaffHandler) HandleCreateTheme(w http.ResponseWriter, r *http.Request) {
	var input service.CreateThemeInput
	if err := decodeJSON(w, r, &input); err != nil {
		WriteError(w, err)
		return
	}

	theme, err := h.themes.Create(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

// HandleDeactivateTheme handles DELETE /api/staff/themes/{id}.
func (h *StaffHandler) HandleDeactivateTheme(w http.ResponseWriter, r *http.Request) {
	if err := h.themes.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// HandleListMessages handles GET /api/staff/messages.
func (h *StaffHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListForStaff(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleMarkRead handles PUT /api/staff/messages/{id}/read.
func (h *StaffHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
