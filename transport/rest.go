package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	gocucm "github.com/rlad78/gocucm"
)

// REST is the default gocucm.RESTTransport for the Unity vmrest API: JSON
// over HTTPS with basic auth. Non-JSON success bodies are wrapped rather
// than rejected, because some vmrest endpoints answer 200 with plain text.
type REST struct {
	BaseURL  string // e.g. https://unity/vmrest/
	Username string
	Password string
	Client   *http.Client
	Log      *slog.Logger
}

// NewREST builds the vmrest transport from session config.
func NewREST(cfg *gocucm.Config) *REST {
	return &REST{
		BaseURL:  cfg.VMRestURL(),
		Username: cfg.Username,
		Password: cfg.Password,
		Client:   newHTTPClient(cfg),
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Do implements gocucm.RESTTransport.
func (t *REST) Do(ctx context.Context, method, path string, query url.Values, body any) (map[string]any, error) {
	full := strings.TrimSuffix(t.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, payload)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if t.Log != nil {
		t.Log.DebugContext(ctx, "rest call", "method", method, "path", path)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", full, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{URL: full, Username: t.Username}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{URL: full, Status: resp.StatusCode}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{
			"status_code": resp.StatusCode,
			"response":    string(data),
		}, nil
	}
	return out, nil
}
