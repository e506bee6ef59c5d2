package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/logging"
)

// UploadField is the multipart field carrying the CSV.
const UploadField = "csvfile"

var errNoFile = errors.New("no file provided")

// stagedRow adds the resolved thumbnail to a staged row.
type stagedRow struct {
	core.SessionRow
	Thumbnail string `json:"thumbnail,omitempty"`
}

type sessionResponse struct {
	core.SessionSummary
	Rows []stagedRow `json:"rows"`
}

// stagedRowRequest edits one staged cell, or steps the quantity when
// Delta is set.
type stagedRowRequest struct {
	Field string  `json:"field" validate:"required_without=Delta,excluded_with=Delta"`
	Value *string `json:"value" validate:"required_with=Field"`
	Delta *int    `json:"delta" validate:"omitempty,min=-100000,max=100000"`
}

// openUpload returns the uploaded CSV, bounded by UPLOAD_MAX_FILE_SIZE.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(min(maxSize, 32<<20)); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		return nil, "", errNoFile
	}
	return file, header.Filename, nil
}

func (s *Server) toSessionResponse(sum core.SessionSummary) sessionResponse {
	resp := sessionResponse{SessionSummary: sum, Rows: make([]stagedRow, len(sum.Rows))}
	for i, row := range sum.Rows {
		resp.Rows[i] = stagedRow{SessionRow: row, Thumbnail: s.thumbs.ForRow(row.Row)}
	}
	return resp
}

// handlePreviewUpload parses an uploaded CSV and returns its raw rows.
func (s *Server) handlePreviewUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.openUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	rows, err := s.service.PreviewCSV(r.Context(), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleImport commits a batch of proposed records in one transaction.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	var items []core.NewItem
	if err := decodeJSON(r, &items); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ImportItems(withRequester(r), items)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStageUpload parses an uploaded CSV into a new staging session.
func (s *Server) handleStageUpload(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.openUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	session, err := s.service.StageCSV(withRequester(r), name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toSessionResponse(session.Summary(s.service.PreviewLimit())))
}

// handleReplaceSession swaps a new upload into an open session.
func (s *Server) handleReplaceSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.service.Session(id); err != nil {
		s.respondError(w, r, err)
		return
	}

	file, name, err := s.openUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	session, err := s.service.ReplaceSessionCSV(withRequester(r), id, name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toSessionResponse(session.Summary(s.service.PreviewLimit())))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toSessionResponse(session.Summary(s.service.PreviewLimit())))
}

// handleUpdateStagedRow applies an operator edit to one staged row.
func (s *Server) handleUpdateStagedRow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid row index", errBadRequest))
		return
	}

	var req stagedRowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	var row core.CanonicalRow
	if req.Delta != nil {
		row, err = s.service.AdjustStagedQuantity(id, index, *req.Delta)
	} else {
		row, err = s.service.UpdateStagedCell(id, index, req.Field, *req.Value)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(logging.ContextWithSession(r.Context(), id)).Debug("staged row edited", "index", index)
	writeJSON(w, http.StatusOK, stagedRow{
		SessionRow: core.SessionRow{Index: index, Row: row, Report: coercionReport(row)},
		Thumbnail:  s.thumbs.ForRow(row),
	})
}

func coercionReport(row core.CanonicalRow) core.CoercionReport {
	_, report := core.CoerceRow(row)
	return report
}

// handleCommitSession imports every row of a staging session.
func (s *Server) handleCommitSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.CommitSession(withRequester(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	s.service.DiscardSession(chi.URLParam(r, "sessionID"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}
