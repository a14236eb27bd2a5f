package handler

import (
	"net/http"

	"github.com/sakif/otayori/internal/service"
)

// submitAck is shown to the student after a successful submission.
const submitAck = "お便りを受け付けました"

// StudentHandler serves the public submission page's API.
type StudentHandler struct {
	themes   *service.ThemeService
	messages *service.MessageService
}

func NewStudentHandler(themes *service.ThemeService, messages *service.MessageService) *StudentHandler {
	return &StudentHandler{themes: themes, messages: messages}
}

type submitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// HandleListThemes handles GET /api/student/themes: only themes open today.
func (h *StudentHandler) HandleListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.themes.ListForStudents(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

// HandleSubmitMessage handles POST /api/student/messages.
// The sender's IP is taken from the request, never from the body.
func (h *StudentHandler) HandleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var input service.SubmitMessageInput
	if err := decodeJSON(w, r, &input); err != nil {
		WriteError(w, err)
		return
	}
	input.IPAddress = clientIP(r)

	id, err := h.messages.Submit(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Success: true, ID: id, Message: submitAck})
}
