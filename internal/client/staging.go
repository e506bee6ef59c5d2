package client

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// StagedRow is one staged row as returned by the server.
type StagedRow struct {
	core.SessionRow
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Session is a staging session summary.
type Session struct {
	core.SessionSummary
	Rows []StagedRow `json:"rows"`
}

// Stage uploads a CSV and opens a staging session for it.
func (c *Client) Stage(ctx context.Context, fileName string, r io.Reader) (*Session, error) {
	body, ct, err := multipartCSV(fileName, r)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/staging", body, ct, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReplaceSession uploads a new file into an open session, replacing every
// staged row.
func (c *Client) ReplaceSession(ctx context.Context, id, fileName string, r io.Reader) (*Session, error) {
	path, err := sessionPath(id, "")
	if err != nil {
		return nil, err
	}
	body, ct, err := multipartCSV(fileName, r)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.do(ctx, http.MethodPut, path, body, ct, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Session fetches a staging session.
func (c *Client) Session(ctx context.Context, id string) (*Session, error) {
	path, err := sessionPath(id, "")
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateStagedCell edits one cell of a staged row.
func (c *Client) UpdateStagedCell(ctx context.Context, id string, index int, field, value string) (*StagedRow, error) {
	return c.patchRow(ctx, id, index, map[string]any{"field": field, "value": value})
}

// AdjustStagedQuantity steps a staged row's quantity by delta.
func (c *Client) AdjustStagedQuantity(ctx context.Context, id string, index, delta int) (*StagedRow, error) {
	return c.patchRow(ctx, id, index, map[string]any{"delta": delta})
}

func (c *Client) patchRow(ctx context.Context, id string, index int, req map[string]any) (*StagedRow, error) {
	path, err := sessionPath(id, "/rows/"+strconv.Itoa(index))
	if err != nil {
		return nil, err
	}
	var row StagedRow
	if err := c.doJSON(ctx, http.MethodPatch, path, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// CommitSession imports every row of a staging session.
func (c *Client) CommitSession(ctx context.Context, id string) (*core.ImportResult, error) {
	path, err := sessionPath(id, "/commit")
	if err != nil {
		return nil, err
	}
	var result core.ImportResult
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DiscardSession drops a staging session.
func (c *Client) DiscardSession(ctx context.Context, id string) error {
	path, err := sessionPath(id, "")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
