package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocucm "github.com/rlad78/gocucm"
)

// AuthError reports rejected credentials. It is distinct from a generic
// status failure so callers can stop retrying a password that will never
// work.
type AuthError struct {
	URL      string
	Username string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credentials not accepted for %s at %s", e.Username, e.URL)
}

// StatusError reports an unexpected HTTP status with no SOAP fault attached.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP %d from %s", e.Status, e.URL)
}

// SOAP is the default gocucm.Transport: SOAP 1.1 over HTTPS with basic auth.
// Connection-level failures are retried a few times with a short backoff,
// matching how finicky a busy CUCM publisher can be about new connections;
// HTTP and fault responses are never retried here.
type SOAP struct {
	Endpoint  string // full service URL, e.g. https://ucm:8443/axl/
	Namespace string // request namespace; %s expands to the API version
	Action    string // SOAPAction template; %s expands to the API version
	Username  string
	Password  string
	Client    *http.Client
	Attempts  int // connection attempts, default 3
	Log       *slog.Logger
}

// NewAXL builds the SOAP transport for the AXL service from session config.
func NewAXL(cfg *gocucm.Config) *SOAP {
	return &SOAP{
		Endpoint:  cfg.AXLURL(),
		Namespace: "http://www.cisco.com/AXL/API/%s",
		Action:    "CUCM:DB ver=%s",
		Username:  cfg.Username,
		Password:  cfg.Password,
		Client:    newHTTPClient(cfg),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// NewRIS builds the SOAP transport for the RisPort70 service.
func NewRIS(cfg *gocucm.Config) *SOAP {
	return &SOAP{
		Endpoint:  cfg.RisURL(),
		Namespace: "http://schemas.cisco.com/ast/soap",
		Username:  cfg.Username,
		Password:  cfg.Password,
		Client:    newHTTPClient(cfg),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newHTTPClient(cfg *gocucm.Config) *http.Client {
	c := &http.Client{Timeout: 30 * time.Second}
	if cfg.Insecure {
		c.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}

// Send implements gocucm.Transport.
func (t *SOAP) Send(ctx context.Context, operation, version string, payload map[string]any) (map[string]any, error) {
	ns := t.Namespace
	if strings.Contains(ns, "%s") {
		ns = fmt.Sprintf(t.Namespace, version)
	}
	body, err := encodeEnvelope(operation, ns, payload)
	if err != nil {
		return nil, err
	}

	resp, err := t.post(ctx, operation, version, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{URL: t.Endpoint, Username: t.Username}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out, decErr := decodeEnvelope(data)
	if decErr != nil {
		// AXL reports faults with a 500; a decoded Fault beats a bare
		// status error.
		var fault *gocucm.Fault
		if errors.As(decErr, &fault) {
			return nil, fault
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: t.Endpoint, Status: resp.StatusCode}
		}
		return nil, decErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: t.Endpoint, Status: resp.StatusCode}
	}
	return out, nil
}

func (t *SOAP) post(ctx context.Context, operation, version string, body []byte) (*http.Response, error) {
	attempts := t.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if t.Log != nil {
				t.Log.DebugContext(ctx, "retrying connection", "operation", operation, "attempt", i+1)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * 100 * time.Millisecond):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(t.Username, t.Password)
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		if t.Action != "" {
			req.Header.Set("SOAPAction", fmt.Sprintf(t.Action, version)+" "+operation)
		} else {
			req.Header.Set("SOAPAction", operation)
		}

		resp, err := client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("connect to %s: %w", t.Endpoint, lastErr)
}
