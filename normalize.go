package gocucm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rlad78/gocucm/schema"
)

// Response is a normalized response body. Every declared field appears:
// coerced to its canonical representation when returned, or as the explicit
// Absent marker when the server elided it. Keys the schema does not know
// about are preserved verbatim, since the server is authoritative for its
// own response surface.
type Response map[string]any

// Normalize sanitizes a raw transport response against the operation's
// response schema. The walk follows the schema, not the raw shape, because
// the wire format elides empty optional nodes and collapses single-element
// repeated groups. Coercions are deterministic per declared type: booleans
// from textual tokens, dateTimes from the AXL text formats, enums checked
// against the declared value set, strings trimmed, repeated fields always
// sequences, braced UUIDs canonicalized to their lowercase hyphenated form.
func Normalize(op *schema.OperationSchema, raw map[string]any) (Response, error) {
	if op.Response == nil {
		return nil, &CallError{
			Operation: op.Name,
			Version:   op.Version,
			Err:       fmt.Errorf("schema declares no response element for %s", op.Name),
		}
	}
	w := &normalizeWalker{}
	if raw == nil {
		raw = map[string]any{}
	}
	out := w.object(op.Response, raw, "")
	if len(w.iss) > 0 {
		return nil, w.iss
	}
	return Response(out), nil
}

type normalizeWalker struct {
	iss Issues
}

func (w *normalizeWalker) issue(path, code, msg string, params map[string]any) {
	w.iss = AppendIssues(w.iss, Issue{Path: path, Code: code, Message: msg, Params: params})
}

func (w *normalizeWalker) object(spec *schema.FieldSpec, raw map[string]any, path string) map[string]any {
	out := make(map[string]any, len(raw))

	for _, c := range spec.Children {
		if c.Kind == schema.KindChoice {
			for _, m := range c.Children {
				w.field(m, raw, out, path)
			}
			continue
		}
		w.field(c, raw, out, path)
	}

	// Undeclared keys pass through untouched. Dropping them would hide
	// server-side additions; erroring would break on every minor release.
	for k, v := range raw {
		if spec.Child(k) == nil {
			out[k] = unwrapValue(v)
		}
	}
	return out
}

func (w *normalizeWalker) field(c *schema.FieldSpec, raw, out map[string]any, path string) {
	p := childPath(path, c.Name)
	val, ok := raw[c.Name]
	if !ok || val == nil || IsAbsent(val) {
		out[c.Name] = Absent
		return
	}
	val = unwrapValue(val)
	if c.Repeated {
		items := asSequence(val)
		seq := make([]any, 0, len(items))
		for i, item := range items {
			seq = append(seq, w.single(c, unwrapValue(item), fmt.Sprintf("%s[%d]", p, i)))
		}
		out[c.Name] = seq
		return
	}
	out[c.Name] = w.single(c, val, p)
}

func (w *normalizeWalker) single(c *schema.FieldSpec, val any, path string) any {
	switch c.Kind {
	case schema.KindObject:
		m, ok := asObject(val)
		if !ok {
			// A bare scalar where the schema declares structure: the XSD
			// anonymous wrapper was already stripped, so surface it as-is.
			return val
		}
		return w.object(c, m, path)
	case schema.KindEnum:
		s, ok := val.(string)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected enum text, got %T", val),
				map[string]any{"allowed": c.Enum})
			return nil
		}
		s = strings.TrimSpace(s)
		if !c.HasEnumValue(s) {
			w.issue(path, CodeUnknownEnumValue,
				fmt.Sprintf("server returned %q, not in the known value set", s),
				map[string]any{"allowed": c.Enum, "got": s})
			return nil
		}
		return s
	case schema.KindBool:
		b, ok := coerceBool(val)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected boolean token, got %v", val), nil)
			return nil
		}
		return b
	case schema.KindInteger:
		n, ok := coerceInt(val)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected integer, got %v", val), nil)
			return nil
		}
		return n
	case schema.KindDecimal:
		f, ok := coerceFloat(val)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected number, got %v", val), nil)
			return nil
		}
		return f
	case schema.KindDateTime:
		ts, ok := coerceTime(val)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected dateTime text, got %v", val), nil)
			return nil
		}
		return ts
	default: // KindString
		if m, ok := val.(map[string]any); ok {
			// Reference element with attributes and no text content, e.g.
			// <callingSearchSpaceName uuid="{...}"/>. The pkid attribute is
			// the only value it carries.
			if s, ok := m["uuid"].(string); ok {
				if u, err := uuid.Parse(strings.Trim(strings.TrimSpace(s), "{}")); err == nil {
					return u.String()
				}
				return strings.TrimSpace(s)
			}
			return ""
		}
		s, ok := val.(string)
		if !ok {
			// Numeric content in a string-typed node is rendered, not
			// rejected; CUCM is loose about numerics in string fields.
			return fmt.Sprintf("%v", val)
		}
		s = strings.TrimSpace(s)
		if isUUIDField(c.Name) {
			if u, err := uuid.Parse(strings.Trim(s, "{}")); err == nil {
				return u.String()
			}
		}
		return s
	}
}

// unwrapValue strips the anonymous XSD wrapper that the wire decode produces
// for simple-content elements ({"uuid": ..., "_value_1": text}): the text
// content wins, attribute baggage is dropped.
func unwrapValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["_value_1"]; ok {
			return inner
		}
	}
	return v
}

// isUUIDField matches the places AXL carries pkid references: the uuid
// attribute itself and foreign-key style fields like ctiControlledDeviceUuid.
func isUUIDField(name string) bool {
	return name == "uuid" || strings.HasSuffix(name, "Uuid") || strings.HasSuffix(name, "UUID")
}
