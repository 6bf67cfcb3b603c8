// Package schema builds and serves the in-memory index of AXL-style SOAP
// operation signatures. An Index is constructed once from a schema source,
// is immutable afterwards, and may be read concurrently without locking.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the declared type of a FieldSpec node.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInteger
	KindDecimal
	KindDateTime
	KindEnum
	KindObject
	// KindChoice is a structural node: exactly one of its children may be
	// supplied. Choice nodes have no name of their own and do not appear in
	// rendered field paths.
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindDateTime:
		return "dateTime"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindChoice:
		return "choice"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FieldSpec is one node of an operation's request or response shape.
// Children are unique by name within their parent. The parent link exists
// for path rendering only; the Index owns every node.
type FieldSpec struct {
	Name       string
	Kind       Kind
	Required   bool
	Repeated   bool
	HasDefault bool
	Default    string   // declared default, valid when HasDefault
	Enum       []string // allowed values, KindEnum only
	Children   []*FieldSpec

	parent *FieldSpec
}

// Parent returns the owning node, or nil at a root.
func (f *FieldSpec) Parent() *FieldSpec { return f.parent }

// Path renders the dotted path from the root to this node, skipping
// structural choice nodes.
func (f *FieldSpec) Path() string {
	var parts []string
	for n := f; n != nil; n = n.parent {
		if n.Kind == KindChoice || n.Name == "" {
			continue
		}
		parts = append(parts, n.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Child finds a direct child by name, looking through choice groups the way
// the wire format does (choice members address their parent's scope).
func (f *FieldSpec) Child(name string) *FieldSpec {
	for _, c := range f.Children {
		if c.Kind == KindChoice {
			if m := c.Child(name); m != nil {
				return m
			}
			continue
		}
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildNames lists the addressable child names (choice members included) in
// declaration order.
func (f *FieldSpec) ChildNames() []string {
	var names []string
	for _, c := range f.Children {
		if c.Kind == KindChoice {
			names = append(names, c.ChildNames()...)
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// HasEnumValue reports whether v is a member of the node's allowed value set.
func (f *FieldSpec) HasEnumValue(v string) bool {
	for _, e := range f.Enum {
		if e == v {
			return true
		}
	}
	return false
}

// link wires parent pointers below f. Called once at load time.
func (f *FieldSpec) link() {
	for _, c := range f.Children {
		c.parent = f
		c.link()
	}
}

// OperationSchema is the expected shape of one remote call. Request is never
// nil for an indexed operation; Response may be nil when the schema source
// declares no response element.
type OperationSchema struct {
	Name     string
	Version  string
	Request  *FieldSpec
	Response *FieldSpec
}

// UnknownOperationError reports a lookup miss against a loaded Index.
type UnknownOperationError struct {
	Operation string
	Version   string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q for AXL %s", e.Operation, e.Version)
}

// ParseError reports a malformed or unsupported schema source. A failed load
// never leaves a partially populated Index behind.
type ParseError struct {
	Version string
	Reason  string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Version, e.Reason, e.Cause)
	}
	return fmt.Sprintf("schema %s: %s", e.Version, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Index maps operation names to their schemas for one API version. Read-only
// after Load.
type Index struct {
	version string
	ops     map[string]*OperationSchema
}

// Version returns the API version this index was built for.
func (ix *Index) Version() string { return ix.version }

// Lookup resolves an operation by name.
func (ix *Index) Lookup(operation string) (*OperationSchema, error) {
	if op, ok := ix.ops[operation]; ok {
		return op, nil
	}
	return nil, &UnknownOperationError{Operation: operation, Version: ix.version}
}

// Operations lists all indexed operation names in sorted order.
func (ix *Index) Operations() []string {
	names := make([]string, 0, len(ix.ops))
	for k := range ix.ops {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of indexed operations.
func (ix *Index) Len() int { return len(ix.ops) }
