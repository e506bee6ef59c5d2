package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

var errBadRequest = errors.New("bad request")

// itemResponse adds the resolved thumbnail to an item.
type itemResponse struct {
	core.Item
	Thumbnail string `json:"thumbnail,omitempty"`
}

type pageResponse struct {
	Items []itemResponse `json:"data"`
	Total int            `json:"total"`
}

type clearRequest struct {
	Confirm string `json:"confirm"`
}

type clearResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}

// parseQuery reads list parameters. Unparseable numbers fall back to the
// defaults applied by core.NormalizeQuery.
func parseQuery(r *http.Request) core.QueryState {
	v := r.URL.Query()
	q := core.QueryState{
		Search:  v.Get("q"),
		SortBy:  v.Get("sortBy"),
		SortDir: core.SortDir(v.Get("sortDir")),
	}
	if q.SortBy == "" {
		q.SortBy = v.Get("sort")
	}
	if q.SortDir == "" {
		q.SortDir = core.SortDir(v.Get("dir"))
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.PageSize, _ = strconv.Atoi(v.Get("limit"))
	return q
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid item id %q", errBadRequest, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) toItemResponse(it core.Item) itemResponse {
	return itemResponse{Item: it, Thumbnail: s.thumbs.ForItem(it)}
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListInventory(r.Context(), parseQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := pageResponse{Items: make([]itemResponse, len(page.Items)), Total: page.Total}
	for i, it := range page.Items {
		resp.Items[i] = s.toItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	item, err := s.service.GetItem(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toItemResponse(item))
}

// handleUpdateItem applies a partial {name?, quantity?, price?} update.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var patch core.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.service.UpdateItem(withRequester(r), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toItemResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.DeleteItem(withRequester(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleClearInventory removes everything when the body carries the
// confirmation token.
func (s *Server) handleClearInventory(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	deleted, err := s.service.ClearInventory(withRequester(r), req.Confirm)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Status: "cleared", Deleted: deleted})
}
