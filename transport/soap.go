// Package transport provides the default wire implementations for the
// gocucm facades: a SOAP 1.1 codec and HTTP transport for AXL and RisPort,
// and a JSON REST transport for the Unity vmrest API. Everything here is a
// collaborator from the core's point of view; none of it is consulted during
// verification or normalization.
package transport

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	gocucm "github.com/rlad78/gocucm"
)

const (
	nsSoapEnv = "http://schemas.xmlsoap.org/soap/envelope/"

	// axlTimeLayout is the datetime rendering CUCM accepts in requests.
	axlTimeLayout = "2006-01-02 15:04:05"
)

// encodeEnvelope renders one SOAP request. Payload keys are emitted in
// sorted order so requests are byte-stable for a given input.
func encodeEnvelope(operation, namespace string, payload map[string]any) ([]byte, error) {
	b := &strings.Builder{}
	b.WriteString(xml.Header)
	fmt.Fprintf(b, `<soapenv:Envelope xmlns:soapenv=%q xmlns:ns=%q>`, nsSoapEnv, namespace)
	b.WriteString("<soapenv:Header/><soapenv:Body>")
	fmt.Fprintf(b, "<ns:%s>", operation)
	if err := encodeFields(b, payload); err != nil {
		return nil, err
	}
	fmt.Fprintf(b, "</ns:%s>", operation)
	b.WriteString("</soapenv:Body></soapenv:Envelope>")
	return []byte(b.String()), nil
}

func encodeFields(b *strings.Builder, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := encodeField(b, k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func encodeField(b *strings.Builder, name string, v any) error {
	switch t := v.(type) {
	case nil:
		fmt.Fprintf(b, "<%s/>", name)
	case map[string]any:
		fmt.Fprintf(b, "<%s>", name)
		if err := encodeFields(b, t); err != nil {
			return err
		}
		fmt.Fprintf(b, "</%s>", name)
	case []any:
		for _, item := range t {
			if err := encodeField(b, name, item); err != nil {
				return err
			}
		}
	case string:
		writeTextElement(b, name, t)
	case bool:
		if t {
			writeTextElement(b, name, "true")
		} else {
			writeTextElement(b, name, "false")
		}
	case int64:
		writeTextElement(b, name, fmt.Sprintf("%d", t))
	case int:
		writeTextElement(b, name, fmt.Sprintf("%d", t))
	case float64:
		writeTextElement(b, name, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), "."))
	case time.Time:
		writeTextElement(b, name, t.Format(axlTimeLayout))
	default:
		return fmt.Errorf("cannot encode %T for element %q", v, name)
	}
	return nil
}

func writeTextElement(b *strings.Builder, name, text string) {
	if text == "" {
		fmt.Fprintf(b, "<%s/>", name)
		return
	}
	fmt.Fprintf(b, "<%s>", name)
	xml.EscapeText(b, []byte(text))
	fmt.Fprintf(b, "</%s>", name)
}

// soapEnvelope is the decode shape for responses: either a Fault or a single
// operation response element in the body.
type soapEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    soapBody `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

type soapBody struct {
	Fault   *soapFault `xml:"Fault"`
	Content innerXML   `xml:",any"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Actor  string `xml:"faultactor"`
	Detail struct {
		Inner string `xml:",innerxml"`
	} `xml:"detail"`
}

// innerXML captures the raw bytes of the first non-Fault body child for the
// generic map decode.
type innerXML struct {
	XMLName xml.Name
	Raw     []byte `xml:",innerxml"`
}

// decodeEnvelope parses a SOAP response body. A Fault comes back as a
// *gocucm.Fault; anything else is decoded into a generic element map.
func decodeEnvelope(data []byte) (map[string]any, error) {
	var env soapEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed SOAP envelope: %w", err)
	}
	if env.Body.Fault != nil {
		f := env.Body.Fault
		return nil, &gocucm.Fault{
			Code:    f.Code,
			Message: f.String,
			Actor:   f.Actor,
			Detail:  strings.TrimSpace(f.Detail.Inner),
		}
	}
	if env.Body.Content.XMLName.Local == "" {
		return nil, fmt.Errorf("SOAP body is empty")
	}
	return decodeElementMap(env.Body.Content.Raw)
}
