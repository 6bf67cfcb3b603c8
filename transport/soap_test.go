package transport

import (
	"errors"
	"strings"
	"testing"
	"time"

	gocucm "github.com/rlad78/gocucm"
)

func TestEncodeEnvelope(t *testing.T) {
	payload := map[string]any{
		"name": "SEP001122334455",
		"returnedTags": map[string]any{
			"model": "",
			"name":  "",
		},
	}
	data, err := encodeEnvelope("getPhone", "http://www.cisco.com/AXL/API/14.0", payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`xmlns:ns="http://www.cisco.com/AXL/API/14.0"`,
		"<ns:getPhone>",
		"</ns:getPhone>",
		"<name>SEP001122334455</name>",
		"<returnedTags><model/><name/></returnedTags>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	again, _ := encodeEnvelope("getPhone", "http://www.cisco.com/AXL/API/14.0", payload)
	if string(again) != out {
		t.Error("encoding must be deterministic for the same payload")
	}
}

func TestEncodeScalars(t *testing.T) {
	when := time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC)
	data, err := encodeEnvelope("updatePhone", "ns", map[string]any{
		"active":   true,
		"index":    int64(3),
		"load":     12.5,
		"since":    when,
		"notes":    "a <b> & c",
		"lines":    []any{map[string]any{"dn": "1001"}, map[string]any{"dn": "1002"}},
		"optional": nil,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"<active>true</active>",
		"<index>3</index>",
		"<load>12.5</load>",
		"<since>2023-04-01 12:30:00</since>",
		"<notes>a &lt;b&gt; &amp; c</notes>",
		"<lines><dn>1001</dn></lines><lines><dn>1002</dn></lines>",
		"<optional/>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	if _, err := encodeEnvelope("getPhone", "ns", map[string]any{"bad": struct{}{}}); err == nil {
		t.Fatal("expected encode failure for an unencodable value")
	}
}

func TestDecodeEnvelopeResponse(t *testing.T) {
	body := `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <ns:getPhoneResponse xmlns:ns="http://www.cisco.com/AXL/API/14.0">
      <return>
        <phone uuid="{ABC-123}">
          <name>SEP001122334455</name>
          <lines><directoryNumber>1001</directoryNumber></lines>
          <lines><directoryNumber>1002</directoryNumber></lines>
        </phone>
      </return>
    </ns:getPhoneResponse>
  </soapenv:Body>
</soapenv:Envelope>`

	out, err := decodeEnvelope([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	phone := out["return"].(map[string]any)["phone"].(map[string]any)
	if phone["name"] != "SEP001122334455" {
		t.Errorf("name = %v", phone["name"])
	}
	if phone["uuid"] != "{ABC-123}" {
		t.Errorf("uuid attribute = %v", phone["uuid"])
	}
	lines, ok := phone["lines"].([]any)
	if !ok || len(lines) != 2 {
		t.Errorf("lines = %v", phone["lines"])
	}
}

func TestDecodeEnvelopeFault(t *testing.T) {
	body := `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>soapenv:Client</faultcode>
      <faultstring>Item not valid: The specified SEP000000000000 was not found</faultstring>
      <detail><axlError><axlcode>5007</axlcode></axlError></detail>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

	_, err := decodeEnvelope([]byte(body))
	var fault *gocucm.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("want *Fault, got %T: %v", err, err)
	}
	if fault.Code != "soapenv:Client" {
		t.Errorf("code = %s", fault.Code)
	}
	if !strings.Contains(fault.Message, "not found") {
		t.Errorf("message = %s", fault.Message)
	}
	if !strings.Contains(fault.Detail, "5007") {
		t.Errorf("detail = %s", fault.Detail)
	}
}

func TestDecodeEnvelopeEmptyBody(t *testing.T) {
	body := `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body/></soapenv:Envelope>`
	if _, err := decodeEnvelope([]byte(body)); err == nil {
		t.Fatal("expected failure for an empty body")
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	if _, err := decodeEnvelope([]byte("<html>not soap</html>")); err == nil {
		t.Fatal("expected failure for non-SOAP content")
	}
}
