package gocucm

import (
	"context"
	"log/slog"

	"github.com/rlad78/gocucm/schema"
)

// AXLClient is the facade over the CUCM AXL API: every operation the loaded
// schema index knows about is reachable through Invoke, and the common
// administrative calls have typed convenience methods. The client holds no
// mutable state and is safe for concurrent use.
type AXLClient struct {
	tr  Transport
	idx *schema.Index
	log *slog.Logger
}

// NewAXLClient builds a facade over an immutable schema index and a transport
// collaborator.
func NewAXLClient(tr Transport, idx *schema.Index, opts ...Option) *AXLClient {
	o := newClientOptions(opts)
	return &AXLClient{tr: tr, idx: idx, log: o.log}
}

// Version reports the AXL schema version this client targets.
func (c *AXLClient) Version() string { return c.idx.Version() }

// Operations lists every operation the client can invoke.
func (c *AXLClient) Operations() []string { return c.idx.Operations() }

// Invoke verifies args against the operation's request schema, sends the
// verified payload through the transport, and normalizes the response.
// Validation failures are resolved locally before any network traffic;
// transport failures come back wrapped in a *CallError carrying the
// operation and version, never masked. Invoke does not retry: whether a
// given AXL operation is idempotent is not knowable generically.
func (c *AXLClient) Invoke(ctx context.Context, operation string, args map[string]any) (Response, error) {
	op, err := c.idx.Lookup(operation)
	if err != nil {
		return nil, err
	}
	args, err = c.applyReturnedTags(op, args)
	if err != nil {
		return nil, err
	}
	return invokeSOAP(ctx, c.tr, op, args, c.log)
}

// applyReturnedTags fills or expands the returnedTags element for operations
// that take one: no tags means "everything legal", a flat name list is
// expanded to the nested structure the schema expects.
func (c *AXLClient) applyReturnedTags(op *schema.OperationSchema, args map[string]any) (map[string]any, error) {
	if op.Request.Child("returnedTags") == nil {
		return args, nil
	}
	if args == nil {
		args = map[string]any{}
	}
	switch tags := args["returnedTags"].(type) {
	case nil:
		out := cloneArgs(args)
		out["returnedTags"] = ReturnTagsAll(op)
		return out, nil
	case []string:
		expanded, err := ExpandReturnTags(op, tags)
		if err != nil {
			return nil, err
		}
		out := cloneArgs(args)
		out["returnedTags"] = expanded
		return out, nil
	case []any:
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			s, ok := t.(string)
			if !ok {
				return args, nil // mixed content: let the verifier report it
			}
			names = append(names, s)
		}
		expanded, err := ExpandReturnTags(op, names)
		if err != nil {
			return nil, err
		}
		out := cloneArgs(args)
		out["returnedTags"] = expanded
		return out, nil
	default:
		// Caller supplied the nested structure themselves; the verifier
		// checks it like any other field.
		return args, nil
	}
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	return out
}

// invokeSOAP is the verify -> send -> normalize sequence shared by the SOAP
// facades. Each call is self-contained; no ordering exists across calls.
func invokeSOAP(ctx context.Context, tr Transport, op *schema.OperationSchema, args map[string]any, log *slog.Logger) (Response, error) {
	payload, err := Verify(op, args)
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "soap call", "operation", op.Name, "version", op.Version)
	raw, err := tr.Send(ctx, op.Name, op.Version, payload.Wire())
	if err != nil {
		return nil, &CallError{Operation: op.Name, Version: op.Version, Err: err}
	}
	if op.Response == nil {
		// Schema declares no response element; hand back what came over the
		// wire rather than inventing a shape for it.
		return Response(raw), nil
	}
	return Normalize(op, raw)
}
