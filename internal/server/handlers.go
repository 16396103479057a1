package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/jobs"
	"github.com/valpere/tarjim/internal/pipeline"
)

type translateRequest struct {
	Text      string `json:"text"`
	Direction string `json:"direction"`
}

type acceptedResponse struct {
	Message   string `json:"message"`
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type statusResponse struct {
	TaskID    string       `json:"task_id"`
	Status    jobs.Status  `json:"status"`
	InputName string       `json:"input_name,omitempty"`
	Result    *jobs.Result `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
}

func (s *Server) decodeTextRequest(w http.ResponseWriter, r *http.Request) (string, internal.Direction, bool) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return "", "", false
	}
	if pipeline.IsBlank(req.Text) {
		writeError(w, http.StatusBadRequest, "No text provided", "")
		return "", "", false
	}
	dir, err := internal.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported direction", err.Error())
		return "", "", false
	}
	return req.Text, dir, true
}

// translateText handles POST /translate/text.
func (s *Server) translateText(w http.ResponseWriter, r *http.Request) {
	text, dir, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	result, err := s.translator.Translate(r.Context(), text, dir)
	if err != nil {
		s.writeTranslateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// translateDocument handles POST /translate/document. The output is one
// string and does not keep line positions.
func (s *Server) translateDocument(w http.ResponseWriter, r *http.Request) {
	text, dir, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	result, err := s.translator.TranslateDocument(r.Context(), text, dir)
	if err != nil {
		s.writeTranslateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeTranslateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, internal.ErrInvalidInput), errors.Is(err, internal.ErrUnsupportedDirection):
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, internal.ErrEngine):
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("translation failed")
		writeError(w, http.StatusBadGateway, "translation failed", err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("translation failed")
		writeError(w, http.StatusInternalServerError, "translation failed", err.Error())
	}
}

// submitDocument handles POST /translate/pdf. The upload is written to a
// temporary file that the job owns from then on.
func (s *Server) submitDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided", err.Error())
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected", "")
		return
	}

	dir, err := internal.ParseDirection(r.FormValue("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported direction", err.Error())
		return
	}

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to store upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload", "")
		return
	}

	id, err := s.jobs.Submit(r.Context(), jobs.Submission{
		InputPath: path,
		InputName: header.Filename,
		Direction: dir,
	})
	switch {
	case errors.Is(err, internal.ErrQueueFull):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "translation queue is full", err.Error())
		return
	case errors.Is(err, internal.ErrInvalidInput), errors.Is(err, internal.ErrUnsupportedDirection):
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("job submission failed")
		writeError(w, http.StatusInternalServerError, "job submission failed", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{
		Message:   "Translation started",
		TaskID:    id,
		StatusURL: "/status/" + id,
	})
}

func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	tmp, err := os.CreateTemp(s.uploadDir, "tarjim-upload-*"+filepath.Ext(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// status handles GET /status/{id}.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := s.jobs.Status(r.Context(), id)
	if errors.Is(err, internal.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found", "")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", id).Msg("status lookup failed")
		writeError(w, http.StatusInternalServerError, "status lookup failed", "")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		TaskID:    job.ID,
		Status:    job.Status,
		InputName: job.InputName,
		Result:    job.Result,
		Error:     job.Error,
	})
}
