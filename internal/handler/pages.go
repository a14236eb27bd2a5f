// Package handler contains the HTTP handlers: one struct per audience
// (student, staff, teacher) plus the page and health endpoints.
//
// A handler only parses the request, calls a service and writes the
// response. Status codes are chosen in one place, WriteError.
package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Page files expected in the web directory.
const (
	studentPage = "index.html"
	teacherPage = "teacher.html"
	staffPage   = "staff.html"
)

// PageHandler serves the three static HTML front-ends.
type PageHandler struct {
	webDir string
}

// NewPageHandler checks that webDir contains every page before the server
// starts, so a bad WEB_DIR fails at boot instead of on first visit.
func NewPageHandler(webDir string) (*PageHandler, error) {
	for _, page := range []string{studentPage, teacherPage, staffPage} {
		if _, err := os.Stat(filepath.Join(webDir, page)); err != nil {
			return nil, fmt.Errorf("page %s: %w", page, err)
		}
	}
	return &PageHandler{webDir: webDir}, nil
}

func (h *PageHandler) serve(page string) http.HandlerFunc {
	path := filepath.Join(h.webDir, page)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeFile(w, r, path)
	}
}

// HandleStudent serves GET /.
func (h *PageHandler) HandleStudent(w http.ResponseWriter, r *http.Request) {
	h.serve(studentPage)(w, r)
}

// HandleTeacher serves GET /teacher.
func (h *PageHandler) HandleTeacher(w http.ResponseWriter, r *http.Request) {
	h.serve(teacherPage)(w, r)
}

// HandleStaff serves GET /staff. The page itself reads ?token= and calls
// /api/verify-token.
func (h *PageHandler) HandleStaff(w http.ResponseWriter, r *http.Request) {
	h.serve(staffPage)(w, r)
}
