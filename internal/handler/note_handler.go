package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"notes-publisher/internal/domain"
	"notes-publisher/internal/repository"
	"notes-publisher/internal/service"
	"notes-publisher/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const maxSubmissionBytes = 1 << 20

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewNoteHandler(service *service.NoteService, logger *slog.Logger) *NoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	note, err := h.service.Get(r.Context(), noteID, r.UserAgent())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, note)
}

// GetRaw serves the gated content alone as plain text.
func (h *NoteHandler) GetRaw(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	note, err := h.service.Get(r.Context(), noteID, r.UserAgent())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Text(w, http.StatusOK, note.Content)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)

	req, ok := h.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, service.ErrValidation.Error())
		return
	}

	note, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, &domain.CreateNoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		CreatedAt: note.CreatedAt,
	})
}

// decodeCreateRequest accepts JSON and HTML form submissions.
func (h *NoteHandler) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*domain.CreateNoteRequest, bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		response.UnsupportedMediaType(w, "Content-Type must be application/json or a form encoding")
		return nil, false
	}

	var req domain.CreateNoteRequest

	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request payload")
			return nil, false
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxSubmissionBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			response.BadRequest(w, "Invalid form payload")
			return nil, false
		}
		req.Title = r.PostFormValue("title")
		req.Content = r.PostFormValue("content")
		req.Password = r.PostFormValue("password")
	default:
		response.UnsupportedMediaType(w, "Content-Type must be application/json or a form encoding")
		return nil, false
	}

	return &req, true
}

func (h *NoteHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		writeErr *repository.RemoteWriteError
		readErr  *repository.RemoteReadError
	)

	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(w, "Unauthorized")
	case errors.Is(err, service.ErrNoteNotFound):
		response.NotFound(w, "Note not found")
	case errors.Is(err, service.ErrConflict):
		h.logger.Warn("note write conflict", "path", r.URL.Path, "error", err)
		response.Conflict(w, "Notes were modified concurrently, please retry")
	case errors.Is(err, service.ErrCorruptDocument):
		h.logger.Error("notes document is corrupt", "path", r.URL.Path, "error", err)
		response.InternalError(w, "Notes are temporarily unavailable")
	case errors.Is(err, repository.ErrTransient), errors.As(err, &writeErr), errors.As(err, &readErr):
		h.logger.Error("note storage failure", "path", r.URL.Path, "error", err)
		response.BadGateway(w, "Note storage is unavailable")
	default:
		h.logger.Error("unexpected note failure", "path", r.URL.Path, "error", err)
		response.InternalError(w, "Internal server error")
	}
}
