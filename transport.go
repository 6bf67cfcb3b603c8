package gocucm

import (
	"context"
	"io"
	"log/slog"
	"net/url"
)

// Transport executes one SOAP operation against a remote server. The core
// never opens connections itself: authentication, TLS, pooling, timeouts and
// retries all belong to the implementation. The transport package provides a
// net/http-backed implementation.
type Transport interface {
	Send(ctx context.Context, operation, version string, payload map[string]any) (map[string]any, error)
}

// RESTTransport executes one REST call for the CUPI facade. Implementations
// return the decoded JSON body as a generic map.
type RESTTransport interface {
	Do(ctx context.Context, method, path string, query url.Values, body any) (map[string]any, error)
}

// Option configures a facade client.
type Option func(*clientOptions)

type clientOptions struct {
	log *slog.Logger
}

// WithLogger attaches a structured logger to the client. Without it, logging
// is discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.log = l
		}
	}
}

func newClientOptions(opts []Option) clientOptions {
	o := clientOptions{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
