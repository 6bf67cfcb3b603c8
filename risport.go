package gocucm

import (
	"context"
	"log/slog"

	"github.com/rlad78/gocucm/schema"
)

// RISClient is the facade over the RisPort70 real-time information service:
// registration status, IP addresses, and active load for devices. It shares
// the verify -> send -> normalize pipeline with the AXL facade but has no
// returnedTags convention.
type RISClient struct {
	tr  Transport
	idx *schema.Index
	log *slog.Logger
}

// NewRISClient builds a facade over a RisPort schema index and a transport
// collaborator.
func NewRISClient(tr Transport, idx *schema.Index, opts ...Option) *RISClient {
	o := newClientOptions(opts)
	return &RISClient{tr: tr, idx: idx, log: o.log}
}

// Version reports the RisPort schema version this client targets.
func (c *RISClient) Version() string { return c.idx.Version() }

// Invoke runs one RisPort operation through the shared pipeline.
func (c *RISClient) Invoke(ctx context.Context, operation string, args map[string]any) (Response, error) {
	op, err := c.idx.Lookup(operation)
	if err != nil {
		return nil, err
	}
	return invokeSOAP(ctx, c.tr, op, args, c.log)
}

// SelectCmDevice queries registration state for the named devices. An empty
// device list asks about every device the server knows.
func (c *RISClient) SelectCmDevice(ctx context.Context, deviceNames []string) (Response, error) {
	items := make([]any, 0, len(deviceNames))
	for _, n := range deviceNames {
		items = append(items, map[string]any{"Item": n})
	}
	criteria := map[string]any{
		"MaxReturnedDevices": int64(1000),
		"DeviceClass":        "Phone",
		"Status":             "Any",
		"SelectBy":           "Name",
	}
	if len(items) > 0 {
		criteria["SelectItems"] = map[string]any{"item": items}
	}
	return c.Invoke(ctx, "selectCmDevice", map[string]any{
		"CmSelectionCriteria": criteria,
	})
}
