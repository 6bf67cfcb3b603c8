package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gocucm "github.com/rlad78/gocucm"
)

const getPhoneResponseBody = `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <ns:getPhoneResponse xmlns:ns="http://www.cisco.com/AXL/API/14.0">
      <return><phone><name>SEP001122334455</name></phone></return>
    </ns:getPhoneResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const faultResponseBody = `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>soapenv:Client</faultcode>
      <faultstring>Item not valid</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

func soapTransport(url string) *SOAP {
	return &SOAP{
		Endpoint:  url,
		Namespace: "http://www.cisco.com/AXL/API/%s",
		Action:    "CUCM:DB ver=%s",
		Username:  "axladmin",
		Password:  "hunter2",
		Attempts:  1,
	}
}

func TestSOAPSend(t *testing.T) {
	var gotAction, gotContentType, gotBody string
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		gotContentType = r.Header.Get("Content-Type")
		gotUser, _, _ = r.BasicAuth()
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		io.WriteString(w, getPhoneResponseBody)
	}))
	defer srv.Close()

	out, err := soapTransport(srv.URL).Send(context.Background(), "getPhone", "14.0",
		map[string]any{"name": "SEP001122334455"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	phone := out["return"].(map[string]any)["phone"].(map[string]any)
	if phone["name"] != "SEP001122334455" {
		t.Errorf("phone = %v", phone)
	}

	if !strings.Contains(gotAction, "CUCM:DB ver=14.0") || !strings.Contains(gotAction, "getPhone") {
		t.Errorf("SOAPAction = %q", gotAction)
	}
	if !strings.HasPrefix(gotContentType, "text/xml") {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotUser != "axladmin" {
		t.Errorf("basic auth user = %q", gotUser)
	}
	if !strings.Contains(gotBody, `xmlns:ns="http://www.cisco.com/AXL/API/14.0"`) {
		t.Errorf("request namespace not versioned:\n%s", gotBody)
	}
}

func TestSOAPSendFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, faultResponseBody)
	}))
	defer srv.Close()

	_, err := soapTransport(srv.URL).Send(context.Background(), "getPhone", "14.0",
		map[string]any{"name": "SEP000000000000"})
	var fault *gocucm.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("a decoded fault beats the bare 500, got %T: %v", err, err)
	}
	if fault.Message != "Item not valid" {
		t.Errorf("fault = %+v", fault)
	}
}

func TestSOAPSendAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := soapTransport(srv.URL).Send(context.Background(), "getPhone", "14.0", nil)
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if ae.Username != "axladmin" {
		t.Errorf("auth error = %+v", ae)
	}
}

func TestSOAPSendBareStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	_, err := soapTransport(srv.URL).Send(context.Background(), "getPhone", "14.0", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want *StatusError, got %T: %v", err, err)
	}
	if se.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", se.Status)
	}
}

func TestSOAPSendRetriesConnections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	tr := soapTransport(srv.URL)
	tr.Attempts = 2
	_, err := tr.Send(context.Background(), "getPhone", "14.0", nil)
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if !strings.Contains(err.Error(), "connect to") {
		t.Errorf("error = %v", err)
	}
}

func TestSOAPSendHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	if _, err := soapTransport(srv.URL).Send(ctx, "getPhone", "14.0", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestNewAXLAndNewRIS(t *testing.T) {
	cfg := &gocucm.Config{Host: "ucm.example.com", Port: 8443, Username: "axladmin", Password: "hunter2"}

	axl := NewAXL(cfg)
	if axl.Endpoint != "https://ucm.example.com:8443/axl/" {
		t.Errorf("axl endpoint = %s", axl.Endpoint)
	}
	if !strings.Contains(axl.Namespace, "%s") {
		t.Errorf("axl namespace must be versioned: %s", axl.Namespace)
	}

	ris := NewRIS(cfg)
	if !strings.HasSuffix(ris.Endpoint, "/realtimeservice2/services/RISService70") {
		t.Errorf("ris endpoint = %s", ris.Endpoint)
	}
	if strings.Contains(ris.Namespace, "%s") {
		t.Errorf("ris namespace is fixed: %s", ris.Namespace)
	}
}
