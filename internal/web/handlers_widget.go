package web

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/faqdesk/internal/document"
	"github.com/dgallion1/faqdesk/internal/widget"
)

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeView(w, r)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Controller.Type(r.Context(), r.FormValue("message")); s.flowError(w, r, err) {
		return
	}
	s.writeView(w, r)
}

// handleSend is the send button. A message field, when present, is typed
// into the input first.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	var err error
	if _, ok := r.PostForm["message"]; ok {
		err = sess.Controller.Submit(r.Context(), r.PostForm.Get("message"))
	} else {
		err = sess.Controller.Click(r.Context(), widget.ControlSend)
	}
	if s.flowError(w, r, err) {
		return
	}
	s.writeView(w, r)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	key := widget.Key{Name: r.FormValue("key")}
	if key.Name == "" {
		jsonError(w, "key is required", http.StatusBadRequest)
		return
	}
	key.Shift, _ = strconv.ParseBool(r.FormValue("shift"))
	if err := sess.Controller.KeyPress(r.Context(), key); s.flowError(w, r, err) {
		return
	}
	s.writeView(w, r)
}

// handleUpload is the file input's change event.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	// Extra 1MB for form overhead. Oversized files are refused in the chat,
	// never truncated.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.rejectUpload(w, r, document.TooLarge(s.cfg.MaxUploadBytes))
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// Selection cancelled.
		s.writeView(w, r)
		return
	}
	if err != nil {
		jsonError(w, "invalid file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	if int64(len(data)) > s.cfg.MaxUploadBytes {
		s.rejectUpload(w, r, document.TooLarge(s.cfg.MaxUploadBytes))
		return
	}

	f := &widget.File{Name: sanitizeFilename(header.Filename), Data: data}
	if err := sess.Controller.SelectFile(r.Context(), f); s.flowError(w, r, err) {
		return
	}
	s.writeView(w, r)
}

func (s *Server) rejectUpload(w http.ResponseWriter, r *http.Request, reason error) {
	if err := sessionFrom(r).Controller.RejectUpload(r.Context(), reason); s.flowError(w, r, err) {
		return
	}
	s.writeView(w, r)
}

func (s *Server) handleToggleFAQ(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	open, err := sess.Controller.ToggleFAQ(r.Context(), chi.URLParam(r, "itemID"))
	if s.flowError(w, r, err) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"open": open})
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request) {
	v, err := sessionFrom(r).Controller.View(r.Context())
	if s.flowError(w, r, err) {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// flowError writes the response for a failed widget call and reports
// whether it did.
func (s *Server) flowError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, widget.ErrBusy):
		jsonError(w, "request already in flight", http.StatusConflict)
	case errors.Is(err, widget.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, widget.ErrLoopStopped):
		jsonError(w, "session closed", http.StatusGone)
	default:
		s.log.Error("widget call failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
	return true
}

func sanitizeFilename(name string) string {
	// Browsers on some platforms send full client paths.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case "", ".", "/":
		return "unnamed"
	case "..":
		return "_"
	}
	return name
}
