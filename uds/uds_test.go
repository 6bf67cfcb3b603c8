package uds_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	gocucm "github.com/rlad78/gocucm"
	"github.com/rlad78/gocucm/uds"
)

// testClient points a probe client at a TLS test server by teaching the
// config the server's host and port.
func testClient(t *testing.T, handler http.Handler) (*uds.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	cfg := &gocucm.Config{Host: u.Hostname(), Port: port, Username: "axladmin", Password: "hunter2"}
	return uds.New(cfg).WithHTTPClient(srv.Client()), srv
}

func TestVersion(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cucm-uds/version" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><versionInformation version="14.0.1.10000-2" uri="/cucm-uds/version"/>`)
	}))

	got, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got != "14.0" {
		t.Errorf("version = %s, want concise two-component form", got)
	}
}

func TestVersionUnsupported(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<versionInformation version="8.6.2.10000-30"/>`)
	}))

	_, err := c.Version(context.Background())
	var ue *uds.UnsupportedVersionError
	if !errors.As(err, &ue) {
		t.Fatalf("want *UnsupportedVersionError, got %T: %v", err, err)
	}
	if ue.Version != "8.6" {
		t.Errorf("version = %s", ue.Version)
	}
}

func TestVersionUnparseable(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>login page</html>`)
	}))

	_, err := c.Version(context.Background())
	var pe *uds.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %T: %v", err, err)
	}
}

func TestVersionHostDown(t *testing.T) {
	cfg := &gocucm.Config{Host: "127.0.0.1", Port: 1, Username: "axladmin", Password: "hunter2"}
	_, err := uds.New(cfg).Version(context.Background())
	var nf *uds.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want *NotFoundError, got %T: %v", err, err)
	}
}

func TestCheckServer(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><title>Cisco Unified Communications Manager Console</title></html>`)
	}))
	if err := c.CheckServer(context.Background()); err != nil {
		t.Fatalf("check server: %v", err)
	}
}

func TestCheckServerNotUCM(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><title>Some Other Appliance</title></html>`)
	}))
	err := c.CheckServer(context.Background())
	var nu *uds.NotUCMError
	if !errors.As(err, &nu) {
		t.Fatalf("want *NotUCMError, got %T: %v", err, err)
	}
}

func TestCheckAXLAuth(t *testing.T) {
	var gotUser string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	if err := c.CheckAXLAuth(context.Background()); err != nil {
		t.Fatalf("check auth: %v", err)
	}
	if gotUser != "axladmin" {
		t.Errorf("credentials were not sent, user = %q", gotUser)
	}
}

func TestCheckAXLAuthRejected(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	err := c.CheckAXLAuth(context.Background())
	var bc *uds.BadCredentialsError
	if !errors.As(err, &bc) {
		t.Fatalf("want *BadCredentialsError, got %T: %v", err, err)
	}
	if bc.Username != "axladmin" {
		t.Errorf("error = %+v", bc)
	}
}

func TestCheckAXLAuthServiceMissing(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	err := c.CheckAXLAuth(context.Background())
	var nf *uds.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want *NotFoundError, got %T: %v", err, err)
	}
}
