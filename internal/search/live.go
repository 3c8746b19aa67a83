package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EndpointPath is the live search endpoint on the server.
const EndpointPath = "/_mbr/api/search"

// WireResponse is the JSON body of the live search endpoint.
type WireResponse struct {
	Query        string   `json:"query"`
	TotalMatches int      `json:"total_matches"`
	Results      []Result `json:"results"`
	DurationMs   int64    `json:"duration_ms"`
	Error        string   `json:"error,omitempty"`
}

// Values encodes q as endpoint query parameters.
func (q QueryContext) Values() url.Values {
	v := url.Values{}
	v.Set("q", q.RawQuery)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Scope != "" {
		v.Set("scope", string(q.Scope))
	}
	if q.FolderScope != "" {
		v.Set("folder_scope", string(q.FolderScope))
	}
	if q.FolderScope == FolderCurrent {
		v.Set("folder", q.Folder)
	}
	if q.Filetype != "" {
		v.Set("filetype", string(q.Filetype))
	}
	return v
}

// ParseValues is the inverse of Values.
func ParseValues(v url.Values) (QueryContext, error) {
	q := QueryContext{
		RawQuery:    v.Get("q"),
		Scope:       Scope(v.Get("scope")),
		FolderScope: FolderScope(v.Get("folder_scope")),
		Folder:      v.Get("folder"),
		Filetype:    Filetype(v.Get("filetype")),
		Mode:        ModeLive,
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
		q.Limit = n
	}
	return q, q.Validate()
}

// LiveBackend queries a running server over HTTP.
type LiveBackend struct {
	baseURL string
	client  *http.Client
}

// NewLiveBackend targets the server at baseURL. A nil client uses a default
// with a 30 second timeout.
func NewLiveBackend(baseURL string, client *http.Client) *LiveBackend {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &LiveBackend{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Search issues one request. Cancelling ctx aborts it.
func (b *LiveBackend) Search(ctx context.Context, q QueryContext) (*Response, error) {
	q = q.Normalized()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+EndpointPath+"?"+q.Values().Encode(), nil)
	if err != nil {
		return nil, &QueryError{Mode: ModeLive, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &QueryError{Mode: ModeLive, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &QueryError{Mode: ModeLive, Status: resp.StatusCode, Err: err}
	}

	var wire WireResponse
	decodeErr := json.Unmarshal(body, &wire)

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, &QueryError{Mode: ModeLive, Status: resp.StatusCode, Err: ErrIndexNotBuilt}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := wire.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &QueryError{Mode: ModeLive, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return nil, &QueryError{Mode: ModeLive, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if wire.Error != "" {
		return nil, &QueryError{Mode: ModeLive, Status: resp.StatusCode, Err: errors.New(wire.Error)}
	}

	elapsed := time.Duration(wire.DurationMs) * time.Millisecond
	if wire.DurationMs == 0 {
		elapsed = time.Since(start)
	}
	return &Response{Results: wire.Results, TotalMatches: wire.TotalMatches, Duration: elapsed}, nil
}
