package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/logging"
)

type healthResponse struct {
	Status  string                   `json:"status"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Imports: s.service.ImportStatus()})
}

// handleImportStatus reports import slot usage so callers can back off.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ImportStatus())
}

// handleListImages lists one directory of the image database. refresh=true
// drops cached listings first.
func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		s.respondError(w, r, core.ErrNotFound)
		return
	}
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		s.images.Invalidate()
		logging.FromContext(r.Context()).Info("image listing cache cleared")
	}
	listing, err := s.images.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
