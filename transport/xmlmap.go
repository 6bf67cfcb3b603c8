package transport

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const nsXSI = "http://www.w3.org/2001/XMLSchema-instance"

// decodeElementMap turns a run of sibling XML elements into a generic map:
// nested elements become maps, repeated names accumulate into slices,
// attributes merge in as keys (which is how the uuid attribute surfaces),
// and simple content with attributes lands under the _value_1 key the
// normalizer knows to unwrap. Single-element repeats stay collapsed here;
// lifting them back to sequences is the normalizer's job, guided by the
// schema.
func decodeElementMap(raw []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	out := map[string]any{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		v, err := decodeElement(dec, se)
		if err != nil {
			return nil, err
		}
		merge(out, se.Name.Local, v)
	}
}

func decodeElement(dec *xml.Decoder, se xml.StartElement) (any, error) {
	attrs := map[string]any{}
	for _, a := range se.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		if a.Name.Space == nsXSI && a.Name.Local == "nil" && (a.Value == "true" || a.Value == "1") {
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		attrs[a.Name.Local] = a.Value
	}

	children := map[string]any{}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			merge(children, t.Name.Local, v)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return assemble(attrs, children, strings.TrimSpace(text.String())), nil
		}
	}
}

func assemble(attrs, children map[string]any, text string) any {
	if len(children) > 0 {
		for k, v := range attrs {
			if _, taken := children[k]; !taken {
				children[k] = v
			}
		}
		return children
	}
	if len(attrs) > 0 {
		if text != "" {
			attrs["_value_1"] = text
		}
		return attrs
	}
	return text
}

// merge adds a decoded value under name, accumulating repeats into a slice.
func merge(m map[string]any, name string, v any) {
	existing, ok := m[name]
	if !ok {
		m[name] = v
		return
	}
	if seq, ok := existing.([]any); ok {
		m[name] = append(seq, v)
		return
	}
	m[name] = []any{existing, v}
}
