package gocucm

// Presence is the bit flag recorded per field path during verification.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the caller's arguments.
	PresenceDefaultApplied                      // The schema default was applied.
	PresenceAbsent                              // Optional field omitted with no default.
)

// PresenceMap maps dotted field paths to Presence flags.
type PresenceMap map[string]Presence

// AbsentValue is the explicit marker used for optional fields that were
// neither supplied nor defaulted. It lets callers distinguish "not returned"
// from "returned empty" without comparing against missing map keys.
type AbsentValue struct{}

func (AbsentValue) String() string { return "<absent>" }

// Absent is the canonical absent marker instance.
var Absent = AbsentValue{}

// IsAbsent reports whether v is the explicit absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(AbsentValue)
	return ok
}
