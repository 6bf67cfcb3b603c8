// Package gocucm provides:
//
//   - A schema-driven client core for Cisco CUCM AXL, RisPort, and Unity CUPI
//   - Signature verification of call arguments against the loaded schema index
//     (Verify/VerifyWithMeta), failing closed before any network traffic
//   - Response normalization into canonical shapes (Normalize): repeated fields
//     always sequences, booleans and dateTimes coerced, explicit Absent markers
//   - A stable error model via Issues (dotted path, code, message) plus typed
//     errors for index, transport, and fault failures
//
// Design policy:
//   - Keep only public APIs in the root package; schema parsing and indexing
//     live under schema/, wire concerns under transport/, version probing under
//     uds/, and the CLI under cmd/axldebug.
//   - The schema index is immutable once loaded and shared freely across
//     goroutines; Verify and Normalize are pure per-call transforms.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := schema.NewRegistry(source)
//	idx, err := reg.Index("14.0")
//	axl := gocucm.NewAXLClient(tr, idx)
//	phone, err := axl.GetPhone(ctx, "SEP001122334455", "")
package gocucm
