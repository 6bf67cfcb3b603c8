// Package uds probes a CUCM cluster through its user data services: which
// version the server runs, whether the URL really is a CUCM server, and
// whether a set of credentials can reach the AXL API. The facades use the
// negotiated version to pick a schema index; the axldebug CLI uses the
// checks to answer "why can't I connect" without packet captures.
package uds

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocucm "github.com/rlad78/gocucm"
)

// SupportedVersions are the AXL schema versions this module ships knowledge
// of, oldest first.
var SupportedVersions = []string{"10.0", "10.5", "11.0", "11.5", "12.0", "12.5", "14.0"}

// NotFoundError: the host did not answer at all.
type NotFoundError struct{ URL string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not locate %s, check that the URL is correct", e.URL)
}

// ConnectionError: the host answered but the conversation failed.
type ConnectionError struct {
	URL   string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.URL, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// NotUCMError: something is listening there, but it is not a CUCM server.
type NotUCMError struct{ URL string }

func (e *NotUCMError) Error() string {
	return fmt.Sprintf("%s does not look like a CUCM server", e.URL)
}

// BadCredentialsError: the AXL service is reachable but rejected the login.
type BadCredentialsError struct {
	URL      string
	Username string
}

func (e *BadCredentialsError) Error() string {
	return fmt.Sprintf("credentials not accepted for %s at %s", e.Username, e.URL)
}

// ParseError: the version endpoint answered with something unparseable.
type ParseError struct {
	URL  string
	Body string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse version response from %s", e.URL)
}

// UnsupportedVersionError: the server runs a release this module has no
// schema for.
type UnsupportedVersionError struct {
	URL     string
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s runs CUCM %s, which is not a supported schema version", e.URL, e.Version)
}

// Client performs the probes. All methods honor the context and classify
// failures into the error types above.
type Client struct {
	cfg  *gocucm.Config
	http *http.Client
	log  *slog.Logger
}

// New builds a probe client from session config.
func New(cfg *gocucm.Config) *Client {
	c := &http.Client{Timeout: 10 * time.Second}
	if cfg.Insecure {
		c.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{cfg: cfg, http: c, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithLogger attaches a structured logger and returns the client for
// chaining.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.log = l
	}
	return c
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// Version asks /cucm-uds/version which release the server runs and reduces
// it to the two-component schema version (for example 14.0.1.10000-2 ->
// 14.0). An unsupported release is an error, not a silent fallback.
func (c *Client) Version(ctx context.Context) (string, error) {
	url := c.cfg.UDSURL() + "/version"
	body, _, err := c.get(ctx, url, false)
	if err != nil {
		return "", err
	}

	var doc struct {
		Version string `xml:"version,attr"`
	}
	if xmlErr := xml.Unmarshal(body, &doc); xmlErr != nil || doc.Version == "" {
		return "", &ParseError{URL: url, Body: string(body)}
	}

	parts := strings.Split(doc.Version, ".")
	if len(parts) < 2 {
		return "", &ParseError{URL: url, Body: doc.Version}
	}
	concise := parts[0] + "." + parts[1]
	for _, v := range SupportedVersions {
		if v == concise {
			c.log.DebugContext(ctx, "version probe", "version", concise)
			return concise, nil
		}
	}
	return "", &UnsupportedVersionError{URL: c.cfg.BaseURL(), Version: concise}
}

// CheckServer verifies the configured host actually fronts a CUCM server by
// looking for the admin page banner.
func (c *Client) CheckServer(ctx context.Context) error {
	url := c.cfg.BaseURL()
	body, status, err := c.get(ctx, url, false)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &NotUCMError{URL: url}
	}
	if !strings.Contains(string(body), "Cisco Unified Communications Manager") {
		return &NotUCMError{URL: url}
	}
	return nil
}

// CheckAXLAuth verifies the AXL service is activated and the configured
// credentials are accepted.
func (c *Client) CheckAXLAuth(ctx context.Context) error {
	url := c.cfg.AXLURL()
	_, status, err := c.get(ctx, url, true)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &BadCredentialsError{URL: url, Username: c.cfg.Username}
	case http.StatusNotFound:
		return &NotFoundError{URL: url}
	default:
		return &ConnectionError{URL: url, Cause: fmt.Errorf("unexpected HTTP %d", status)}
	}
}

func (c *Client) get(ctx context.Context, url string, authed bool) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if authed {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &NotFoundError{URL: url}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &ConnectionError{URL: url, Cause: err}
	}
	return body, resp.StatusCode, nil
}
