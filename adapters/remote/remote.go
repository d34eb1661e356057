// Package remote implements the storage adapter contract against a
// resource-oriented grid service: row, column and cell sub-resources under
// a versioned base path, plus a job resource for long-running bulk
// operations. Cell and row operations addressed by position resolve an
// identifier through a local row-identity cache; a miss triggers one
// corrective fetch of the page that should contain the position.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

// Adapter talks to a remote grid service.
type Adapter struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *rowIDCache
	logger  *slog.Logger
}

// New creates a remote adapter with an unauthenticated HTTP client. A nil
// logger falls back to slog.Default.
func New(cfg *Config, logger *slog.Logger) (*Adapter, error) {
	return newAdapter(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
}

// NewWithTokenSource creates a remote adapter whose requests carry bearer
// tokens from ts.
func NewWithTokenSource(ctx context.Context, cfg *Config, ts oauth2.TokenSource, logger *slog.Logger) (*Adapter, error) {
	return newAdapter(cfg, oauth2.NewClient(ctx, ts), logger)
}

// NewWithClient creates a remote adapter over a caller-supplied HTTP
// client, mainly for tests.
func NewWithClient(cfg *Config, client *http.Client, logger *slog.Logger) (*Adapter, error) {
	return newAdapter(cfg, client, logger)
}

func newAdapter(cfg *Config, client *http.Client, logger *slog.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Adapter{
		cfg:     cfg.withDefaults(),
		client:  client,
		limiter: limiter,
		cache:   newRowIDCache(),
		logger:  logger,
	}, nil
}

// httpError reports a non-2xx response.
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func isStatus(err error, status int) bool {
	var he *httpError
	return errors.As(err, &he) && he.Status == status
}

// do issues one request with throttling and bounded retries on transient
// failures, decoding a JSON response body into out when non-nil.
func (a *Adapter) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
	}

	target := fmt.Sprintf("%s/%s/grids/%s%s",
		strings.TrimSuffix(a.cfg.BaseURL, "/"), a.cfg.APIVersion, url.PathEscape(a.cfg.GridID), path)

	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.cfg.RetryInterval << uint(attempt-1)
			if max := 10 * a.cfg.RetryInterval; backoff > max {
				backoff = max
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return 0, err
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return 0, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &httpError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			continue
		}
		if resp.StatusCode >= 400 {
			return resp.StatusCode, &httpError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("decode response: %w", err)
			}
		}
		return resp.StatusCode, nil
	}
	return 0, fmt.Errorf("request failed after %d retries: %w", a.cfg.MaxRetries, lastErr)
}

type fetchResponse struct {
	Columns   []*datagrid.Column `json:"columns"`
	Rows      []*datagrid.Row    `json:"rows"`
	TotalRows int                `json:"totalRows"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
}

// Fetch retrieves one page and feeds the row-identity cache.
func (a *Adapter) Fetch(ctx context.Context, page, pageSize int, sort datagrid.SortState) (*datagrid.Page, error) {
	if pageSize <= 0 {
		pageSize = a.cfg.PageSize
	}
	path := fmt.Sprintf("/rows?page=%d&pageSize=%d", page, pageSize)
	if len(sort) > 0 {
		path += "&sort=" + url.QueryEscape(encodeSort(sort))
	}

	var resp fetchResponse
	if _, err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, len(resp.Rows))
	for i, r := range resp.Rows {
		ids[i] = r.ID
	}
	a.cache.putPage(page, pageSize, ids, resp.TotalRows)

	return &datagrid.Page{
		Columns:   resp.Columns,
		Rows:      resp.Rows,
		TotalRows: resp.TotalRows,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func (a *Adapter) AddRow(ctx context.Context, row datagrid.Row) (*datagrid.Row, error) {
	var out datagrid.Row
	if _, err := a.do(ctx, http.MethodPost, "/rows", row, &out); err != nil {
		return nil, err
	}
	a.cache.invalidate()
	return &out, nil
}

func (a *Adapter) UpdateRow(ctx context.Context, id string, patch datagrid.RowPatch) (*datagrid.Row, error) {
	var out datagrid.Row
	if _, err := a.do(ctx, http.MethodPatch, "/rows/"+url.PathEscape(id), patch, &out); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("row %s: %w", id, datagrid.ErrRowNotFound)
		}
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) DeleteRow(ctx context.Context, id string) error {
	if _, err := a.do(ctx, http.MethodDelete, "/rows/"+url.PathEscape(id), nil, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("row %s: %w", id, datagrid.ErrRowNotFound)
		}
		return err
	}
	a.cache.invalidate()
	return nil
}

type bulkRowsRequest struct {
	Updates []datagrid.RowUpdate `json:"updates"`
}

type bulkRowsResponse struct {
	Rows  []*datagrid.Row `json:"rows"`
	JobID string          `json:"jobId,omitempty"`
}

func (a *Adapter) BulkUpdateRows(ctx context.Context, updates []datagrid.RowUpdate) ([]*datagrid.Row, error) {
	var resp bulkRowsResponse
	status, err := a.do(ctx, http.MethodPost, "/rows/bulk", bulkRowsRequest{Updates: updates}, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusAccepted {
		if err := a.pollJob(ctx, resp.JobID); err != nil {
			return nil, err
		}
	}
	return resp.Rows, nil
}

func (a *Adapter) BulkDeleteRows(ctx context.Context, ids []string) error {
	var resp bulkRowsResponse
	status, err := a.do(ctx, http.MethodPost, "/rows/bulk-delete", map[string][]string{"ids": ids}, &resp)
	if err != nil {
		return err
	}
	if status == http.StatusAccepted {
		if err := a.pollJob(ctx, resp.JobID); err != nil {
			return err
		}
	}
	a.cache.invalidate()
	return nil
}

func (a *Adapter) AddColumn(ctx context.Context, col datagrid.Column) (*datagrid.Column, error) {
	var out datagrid.Column
	if _, err := a.do(ctx, http.MethodPost, "/columns", col, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) UpdateColumn(ctx context.Context, id string, patch datagrid.ColumnPatch) (*datagrid.Column, error) {
	var out datagrid.Column
	if _, err := a.do(ctx, http.MethodPatch, "/columns/"+url.PathEscape(id), patch, &out); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("column %s: %w", id, datagrid.ErrColumnNotFound)
		}
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) DeleteColumn(ctx context.Context, id string) error {
	if _, err := a.do(ctx, http.MethodDelete, "/columns/"+url.PathEscape(id), nil, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("column %s: %w", id, datagrid.ErrColumnNotFound)
		}
		return err
	}
	return nil
}

func (a *Adapter) ReorderColumns(ctx context.Context, ids []string) error {
	_, err := a.do(ctx, http.MethodPost, "/columns/reorder", map[string][]string{"ids": ids}, nil)
	return err
}

func (a *Adapter) ResizeColumn(ctx context.Context, id string, width int) error {
	_, err := a.UpdateColumn(ctx, id, datagrid.ColumnPatch{Width: &width})
	return err
}

func (a *Adapter) HideColumn(ctx context.Context, id string, hidden bool) error {
	_, err := a.UpdateColumn(ctx, id, datagrid.ColumnPatch{Hidden: &hidden})
	return err
}

func (a *Adapter) PinColumn(ctx context.Context, id string, side datagrid.PinSide) error {
	_, err := a.UpdateColumn(ctx, id, datagrid.ColumnPatch{Pinned: &side})
	return err
}

type cellRequest struct {
	Value celltype.Value `json:"value"`
}

// UpdateCell resolves the row identifier for rowPos through the cache and
// writes the cell. On a cache miss the page that should contain rowPos is
// fetched once before retrying the lookup.
func (a *Adapter) UpdateCell(ctx context.Context, rowPos int, columnID string, v celltype.Value) error {
	id, err := a.resolveRowID(ctx, rowPos)
	if err != nil {
		return err
	}
	path := "/rows/" + url.PathEscape(id) + "/cells/" + url.PathEscape(columnID)
	if _, err := a.do(ctx, http.MethodPut, path, cellRequest{Value: v}, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("cell %s/%s: %w", id, columnID, datagrid.ErrRowNotFound)
		}
		return err
	}
	return nil
}

type wireCellUpdate struct {
	RowID    string         `json:"rowId"`
	ColumnID string         `json:"columnId"`
	Value    celltype.Value `json:"value"`
}

type bulkCellsResponse struct {
	JobID string `json:"jobId,omitempty"`
}

// BulkUpdateCells resolves every addressed row (fetching missing pages at
// most once each) and issues a single bulk call. A 202 response carries a
// job to poll.
func (a *Adapter) BulkUpdateCells(ctx context.Context, updates []datagrid.CellUpdate) error {
	wire := make([]wireCellUpdate, 0, len(updates))
	for _, u := range updates {
		id, err := a.resolveRowID(ctx, u.RowPosition)
		if err != nil {
			return fmt.Errorf("resolve row at position %d: %w", u.RowPosition, err)
		}
		wire = append(wire, wireCellUpdate{RowID: id, ColumnID: u.ColumnID, Value: u.Value})
	}

	var resp bulkCellsResponse
	status, err := a.do(ctx, http.MethodPost, "/cells/bulk", map[string][]wireCellUpdate{"updates": wire}, &resp)
	if err != nil {
		return err
	}
	if status == http.StatusAccepted {
		return a.pollJob(ctx, resp.JobID)
	}
	return nil
}

// Sort installs the sort state server-side. Positions shift, so the
// row-identity cache is dropped.
func (a *Adapter) Sort(ctx context.Context, state datagrid.SortState) error {
	if _, err := a.do(ctx, http.MethodPost, "/sort", map[string]datagrid.SortState{"keys": state}, nil); err != nil {
		return err
	}
	a.cache.invalidate()
	return nil
}

func (a *Adapter) ColumnSchema(ctx context.Context) ([]*datagrid.Column, error) {
	var out []*datagrid.Column
	if _, err := a.do(ctx, http.MethodGet, "/columns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) RowCount(ctx context.Context) (int, error) {
	if n := a.cache.rowCount(); n >= 0 {
		return n, nil
	}
	var out struct {
		Count int `json:"count"`
	}
	if _, err := a.do(ctx, http.MethodGet, "/rows/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// resolveRowID maps an external position to a row identifier. The cache is
// advisory: a miss fetches the page that should contain the position, then
// retries exactly once.
func (a *Adapter) resolveRowID(ctx context.Context, pos int) (string, error) {
	if id, ok := a.cache.get(pos); ok {
		return id, nil
	}
	page := pos / a.cfg.PageSize
	a.logger.Debug("row identity cache miss", "position", pos, "page", page)
	if _, err := a.Fetch(ctx, page, a.cfg.PageSize, nil); err != nil {
		return "", fmt.Errorf("corrective fetch for position %d: %w", pos, err)
	}
	if id, ok := a.cache.get(pos); ok {
		return id, nil
	}
	return "", fmt.Errorf("no row at position %d: %w", pos, datagrid.ErrRowNotFound)
}

func encodeSort(state datagrid.SortState) string {
	parts := make([]string, len(state))
	for i, k := range state {
		parts[i] = k.ColumnID + ":" + k.Direction.String()
	}
	return strings.Join(parts, ",")
}
