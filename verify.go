package gocucm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rlad78/gocucm/schema"
)

// Payload is a verified, shape-complete request body. Every field the schema
// declares is present: with the caller's value, the schema default, or the
// explicit Absent marker. Nothing is silently dropped.
type Payload map[string]any

// Wire returns a copy of the payload suitable for handing to a transport:
// Absent markers are removed recursively, since the wire format expresses
// absence by omission.
func (p Payload) Wire() map[string]any {
	return stripAbsent(map[string]any(p)).(map[string]any)
}

func stripAbsent(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsAbsent(val) {
				continue
			}
			out[k] = stripAbsent(val)
		}
		return out
	case Payload:
		return stripAbsent(map[string]any(t))
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, stripAbsent(val))
		}
		return out
	default:
		return v
	}
}

// Verified carries a payload together with per-path presence metadata.
type Verified struct {
	Payload  Payload
	Presence PresenceMap
}

// Verify validates caller-supplied arguments against an operation's request
// schema and produces the normalized payload. It is a pure transform: no
// network traffic happens here, and all findings for the input are reported
// in one pass rather than stopping at the first.
func Verify(op *schema.OperationSchema, args map[string]any) (Payload, error) {
	v, err := VerifyWithMeta(op, args)
	return v.Payload, err
}

// VerifyWithMeta is Verify plus presence metadata (seen / default-applied /
// absent) keyed by dotted field path.
func VerifyWithMeta(op *schema.OperationSchema, args map[string]any) (Verified, error) {
	w := &verifyWalker{pm: make(PresenceMap)}
	if args == nil {
		args = map[string]any{}
	}
	out := w.object(op.Request, args, "")
	if len(w.iss) > 0 {
		return Verified{}, w.iss
	}
	return Verified{Payload: Payload(out), Presence: w.pm}, nil
}

type verifyWalker struct {
	iss Issues
	pm  PresenceMap
}

func (w *verifyWalker) issue(path, code, msg string, params map[string]any) {
	w.iss = AppendIssues(w.iss, Issue{Path: path, Code: code, Message: msg, Params: params})
}

func childPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// object walks one object level in lockstep with the schema: known fields in
// declaration order, then choice groups, then unknown keys in sorted order so
// failures are deterministic.
func (w *verifyWalker) object(spec *schema.FieldSpec, src map[string]any, path string) map[string]any {
	out := make(map[string]any, len(spec.Children))

	for _, c := range spec.Children {
		if c.Kind == schema.KindChoice {
			w.choice(c, src, out, path)
			continue
		}
		w.field(c, src, out, path)
	}

	// Fail closed on keys the schema does not know about.
	var unknown []string
	for k := range src {
		if spec.Child(k) == nil {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		w.issue(childPath(path, k), CodeUnexpectedField,
			fmt.Sprintf("%q is not a valid argument for %s", k, displayPath(path, spec)),
			map[string]any{"known": spec.ChildNames()})
	}
	return out
}

func displayPath(path string, spec *schema.FieldSpec) string {
	if path != "" {
		return path
	}
	if spec.Name != "" {
		return spec.Name
	}
	return "the operation"
}

// field handles one named child: supplied value, declared default, required
// enforcement, or the explicit absent marker.
func (w *verifyWalker) field(c *schema.FieldSpec, src, out map[string]any, path string) {
	p := childPath(path, c.Name)
	val, exists := src[c.Name]
	if exists && val != nil && !IsAbsent(val) {
		w.pm[p] |= PresenceSeen
		out[c.Name] = w.value(c, val, p)
		return
	}
	if c.HasDefault {
		w.pm[p] |= PresenceDefaultApplied
		out[c.Name] = w.defaultValue(c, p)
		return
	}
	if c.Required {
		w.issue(p, CodeMissingField, "required field missing", nil)
		return
	}
	w.pm[p] |= PresenceAbsent
	out[c.Name] = Absent
}

// choice enforces exactly-one-member selection for an exclusive group.
func (w *verifyWalker) choice(c *schema.FieldSpec, src, out map[string]any, path string) {
	var supplied []string
	for _, m := range c.Children {
		if v, ok := src[m.Name]; ok && v != nil && !IsAbsent(v) {
			supplied = append(supplied, m.Name)
		}
	}
	switch {
	case len(supplied) > 1:
		w.issue(displayPath(path, c.Parent()), CodeChoiceConflict,
			fmt.Sprintf("only one of %s may be supplied, got %s",
				strings.Join(c.ChildNames(), ", "), strings.Join(supplied, ", ")),
			map[string]any{"choices": c.ChildNames(), "supplied": supplied})
		return
	case len(supplied) == 0 && c.Required:
		w.issue(displayPath(path, c.Parent()), CodeMissingField,
			"one of "+strings.Join(c.ChildNames(), ", ")+" is required",
			map[string]any{"choices": c.ChildNames()})
		return
	}
	for _, m := range c.Children {
		w.field(m, src, out, path)
	}
}

// value coerces a supplied value to the field's canonical representation.
func (w *verifyWalker) value(c *schema.FieldSpec, val any, path string) any {
	if c.Repeated {
		return w.repeated(c, val, path)
	}
	return w.single(c, val, path)
}

// repeated accepts either a bare value or a sequence; the payload always
// carries a sequence.
func (w *verifyWalker) repeated(c *schema.FieldSpec, val any, path string) []any {
	items := asSequence(val)
	out := make([]any, 0, len(items))
	for i, item := range items {
		out = append(out, w.single(c, item, fmt.Sprintf("%s[%d]", path, i)))
	}
	return out
}

func asSequence(val any) []any {
	switch t := val.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	default:
		return []any{val}
	}
}

func (w *verifyWalker) single(c *schema.FieldSpec, val any, path string) any {
	switch c.Kind {
	case schema.KindObject:
		m, ok := asObject(val)
		if !ok {
			w.issue(path, CodeTypeMismatch,
				fmt.Sprintf("%s takes a nested object, got %T", c.Name, val),
				map[string]any{"fields": c.ChildNames()})
			return nil
		}
		return w.object(c, m, path)
	case schema.KindEnum:
		s, ok := val.(string)
		if !ok {
			w.issue(path, CodeTypeMismatch,
				fmt.Sprintf("expected one of %s, got %T", strings.Join(c.Enum, ", "), val),
				map[string]any{"allowed": c.Enum})
			return nil
		}
		if !c.HasEnumValue(s) {
			w.issue(path, CodeTypeMismatch,
				fmt.Sprintf("%q is not an allowed value; allowed: %s", s, strings.Join(c.Enum, ", ")),
				map[string]any{"allowed": c.Enum})
			return nil
		}
		return s
	case schema.KindBool:
		b, ok := coerceBool(val)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected boolean, got %T", val), nil)
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
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected dateTime, got %v", val), nil)
			return nil
		}
		return ts
	default: // KindString
		s, ok := val.(string)
		if !ok {
			w.issue(path, CodeTypeMismatch, fmt.Sprintf("expected string, got %T", val), nil)
			return nil
		}
		return s
	}
}

func (w *verifyWalker) defaultValue(c *schema.FieldSpec, path string) any {
	v := w.single(c, c.Default, path)
	if c.Repeated {
		return []any{v}
	}
	return v
}

func asObject(val any) (map[string]any, bool) {
	switch t := val.(type) {
	case map[string]any:
		return t, true
	case Payload:
		return map[string]any(t), true
	case Response:
		return map[string]any(t), true
	}
	return nil, false
}

// coerceBool accepts the XSD boolean lexical space only (true|false|1|0);
// anything else is drift worth surfacing, not coercing.
func coerceBool(val any) (bool, bool) {
	switch t := val.(type) {
	case bool:
		return t, true
	case string:
		switch strings.TrimSpace(t) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func coerceInt(val any) (int64, bool) {
	switch t := val.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func coerceFloat(val any) (float64, bool) {
	switch t := val.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// axlTimeLayouts are the datetime renderings CUCM is known to emit or accept.
var axlTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func coerceTime(val any) (time.Time, bool) {
	switch t := val.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range axlTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
