// Package client talks to the inventory server over HTTP. It implements
// core.InventoryClient so the query controller and edit manager can run
// against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/images"
	"github.com/JonMunkholm/cardinventory/internal/logging"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Client is an inventory API client. Each call sends exactly one request;
// failed operations are left for the operator to retry.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

var _ core.InventoryClient = (*Client)(nil)

// errorBody mirrors the server's error response.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

// do sends one request and decodes a JSON response into out. Error bodies
// are turned back into core sentinels.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log := logging.FromContext(ctx)
	log.Debug("inventory request", "method", method, "path", path)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", core.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Debug("inventory request failed", "method", method, "path", path, "status", resp.StatusCode)
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", core.ErrTransport, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &eb); err != nil || eb.Code == "" {
		return fmt.Errorf("%w: server returned %s", core.ErrTransport, resp.Status)
	}

	detail := eb.Error
	if len(eb.Fields) > 0 {
		parts := make([]string, 0, len(eb.Fields))
		for f, msg := range eb.Fields {
			parts = append(parts, f+": "+msg)
		}
		detail = strings.Join(parts, "; ")
	}
	return core.ErrorFromCode(eb.Code, detail)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	ct := ""
	if body != nil {
		ct = "application/json"
	}
	return c.do(ctx, method, path, body, ct, out)
}

// ListInventory fetches one page of inventory.
func (c *Client) ListInventory(ctx context.Context, q core.QueryState) (core.Page, error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sortDir", string(q.SortDir))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("limit", strconv.Itoa(q.PageSize))
	}

	path := "/inventory"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}

	var page core.Page
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return core.Page{}, err
	}
	if page.Items == nil {
		page.Items = []core.Item{}
	}
	return page, nil
}

// GetItem fetches one item.
func (c *Client) GetItem(ctx context.Context, id int64) (core.Item, error) {
	var item core.Item
	err := c.doJSON(ctx, http.MethodGet, itemPath(id), nil, &item)
	return item, err
}

// UpdateItem sends a partial update and returns the stored record.
func (c *Client) UpdateItem(ctx context.Context, id int64, patch core.ItemPatch) (core.Item, error) {
	var item core.Item
	err := c.doJSON(ctx, http.MethodPut, itemPath(id), patch, &item)
	return item, err
}

// DeleteItem removes one item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

// ClearInventory removes every item. confirm must be core.ClearConfirmationToken.
func (c *Client) ClearInventory(ctx context.Context, confirm string) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/inventory/clear", map[string]string{"confirm": confirm}, &resp)
	return resp.Deleted, err
}

// ImportItems commits a batch of proposed records.
func (c *Client) ImportItems(ctx context.Context, items []core.NewItem) (*core.ImportResult, error) {
	var result core.ImportResult
	if err := c.doJSON(ctx, http.MethodPost, "/import", items, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportStatus reports the server's import slot usage.
func (c *Client) ImportStatus(ctx context.Context) (core.ImportLimiterStatus, error) {
	var status core.ImportLimiterStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/import-status", nil, &status)
	return status, err
}

// ListImages lists one directory of the image database. With refresh the
// server rereads the directory instead of serving a cached listing.
func (c *Client) ListImages(ctx context.Context, p string, refresh bool) (images.Listing, error) {
	v := url.Values{"path": {p}}
	if refresh {
		v.Set("refresh", "true")
	}
	var listing images.Listing
	err := c.doJSON(ctx, http.MethodGet, "/api/image-database-list?"+v.Encode(), nil, &listing)
	return listing, err
}

func itemPath(id int64) string {
	return "/inventory/" + strconv.FormatInt(id, 10)
}

// multipartCSV wraps r as the csvfile field of a multipart form.
func multipartCSV(fileName string, r io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("csvfile", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// PreviewCSV uploads a CSV and returns its parsed rows without staging it.
func (c *Client) PreviewCSV(ctx context.Context, fileName string, r io.Reader) ([]core.RawRow, error) {
	body, ct, err := multipartCSV(fileName, r)
	if err != nil {
		return nil, err
	}
	var rows []core.RawRow
	if err := c.do(ctx, http.MethodPost, "/upload/preview", body, ct, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// errNoSession guards against an empty session id in a path.
var errNoSession = errors.New("session id is required")

func sessionPath(id string, suffix string) (string, error) {
	if id == "" {
		return "", errNoSession
	}
	return "/api/staging/" + url.PathEscape(id) + suffix, nil
}
