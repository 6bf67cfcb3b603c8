package gocucm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// CUPIClient is the facade over the Unity Connection provisioning REST API
// (vmrest). Unlike the SOAP facades there is no published schema to verify
// against; the shape of each call is fixed here and failures rely on the
// server's own validation, surfaced through *CallError.
type CUPIClient struct {
	rt  RESTTransport
	log *slog.Logger
}

// NewCUPIClient builds a facade over a REST transport collaborator rooted at
// the server's /vmrest/ base.
func NewCUPIClient(rt RESTTransport, opts ...Option) *CUPIClient {
	o := newClientOptions(opts)
	return &CUPIClient{rt: rt, log: o.log}
}

// UserNotFoundError reports a lookup for an alias Unity does not know.
type UserNotFoundError struct {
	Alias string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("no Unity user with alias %q", e.Alias)
}

// DNInUseError reports an extension that is already assigned.
type DNInUseError struct {
	DN    string
	Owner string
}

func (e *DNInUseError) Error() string {
	return fmt.Sprintf("extension %s is already assigned to %s", e.DN, e.Owner)
}

// GetUser looks up a voicemail user by alias. Missing users return a
// *UserNotFoundError rather than an empty result, so callers can tell "no
// such user" from a degraded response.
func (c *CUPIClient) GetUser(ctx context.Context, alias string) (Response, error) {
	result, err := c.query(ctx, "users", fmt.Sprintf("(alias is %s)", alias))
	if err != nil {
		return nil, err
	}
	if result.total == 0 {
		return nil, &UserNotFoundError{Alias: alias}
	}
	return result.first("User")
}

// ImportUser imports an LDAP user into Unity with the given extension and
// user template.
func (c *CUPIClient) ImportUser(ctx context.Context, alias, dn, userTemplate string) (Response, error) {
	const uri = "import/users/ldap"
	result, err := c.query(ctx, uri, fmt.Sprintf("(alias is %s)", alias))
	if err != nil {
		return nil, err
	}
	if result.total == 0 {
		return nil, &UserNotFoundError{Alias: alias}
	}
	candidate, err := result.first("ImportUser")
	if err != nil {
		return nil, err
	}

	body := cloneArgs(candidate)
	body["phoneNumber"] = dn
	body["dtmfAccessId"] = dn

	q := url.Values{}
	q.Set("templateAlias", userTemplate)
	resp, err := c.rt.Do(ctx, http.MethodPost, uri, q, body)
	if err != nil {
		return nil, c.wrap("importUser", err)
	}
	return Response(resp), nil
}

// UpdatePIN sets a user's voicemail PIN, optionally forcing a change at next
// sign-in.
func (c *CUPIClient) UpdatePIN(ctx context.Context, alias, pin string, mustChange bool) error {
	user, err := c.GetUser(ctx, alias)
	if err != nil {
		return err
	}
	objectID, _ := user["ObjectId"].(string)
	body := map[string]any{"Credentials": pin, "CredMustChange": mustChange}
	if _, err := c.rt.Do(ctx, http.MethodPut, "users/"+objectID+"/credential/pin", nil, body); err != nil {
		return c.wrap("updatePIN", err)
	}
	return nil
}

// UpdateDN moves a user to a new extension, refusing to steal one that is
// already assigned.
func (c *CUPIClient) UpdateDN(ctx context.Context, alias, dn string) error {
	inUse, err := c.query(ctx, "users", fmt.Sprintf("(DtmfAccessId is %s)", dn))
	if err != nil {
		return err
	}
	if inUse.total > 0 {
		owner := ""
		if u, err := inUse.first("User"); err == nil {
			owner, _ = u["Alias"].(string)
		}
		return &DNInUseError{DN: dn, Owner: owner}
	}

	user, err := c.GetUser(ctx, alias)
	if err != nil {
		return err
	}
	objectID, _ := user["ObjectId"].(string)
	if _, err := c.rt.Do(ctx, http.MethodPut, "users/"+objectID, nil, map[string]any{"DtmfAccessId": dn}); err != nil {
		return c.wrap("updateDN", err)
	}
	return nil
}

func (c *CUPIClient) wrap(operation string, err error) error {
	return &CallError{Operation: operation, Version: "vmrest", Err: err}
}

// queryResult is one vmrest search response: an @total count plus a
// single-or-list entity node.
type queryResult struct {
	operation string
	total     int
	body      map[string]any
}

func (c *CUPIClient) query(ctx context.Context, uri, query string) (*queryResult, error) {
	q := url.Values{}
	q.Set("query", query)
	body, err := c.rt.Do(ctx, http.MethodGet, uri, q, nil)
	if err != nil {
		return nil, c.wrap("query "+uri, err)
	}
	rawTotal, ok := body["@total"]
	if !ok {
		return nil, c.wrap("query "+uri, fmt.Errorf("response missing @total: %v", body))
	}
	total, err := parseTotal(rawTotal)
	if err != nil {
		return nil, c.wrap("query "+uri, err)
	}
	return &queryResult{operation: "query " + uri, total: total, body: body}, nil
}

// first returns the first entity from a search result. vmrest collapses
// single-element results to a bare object, the same ambiguity the SOAP
// normalizer deals with.
func (r *queryResult) first(entity string) (Response, error) {
	v, ok := r.body[entity]
	if !ok {
		return nil, &CallError{Operation: r.operation, Version: "vmrest",
			Err: fmt.Errorf("response missing %q element", entity)}
	}
	seq := asSequence(v)
	if len(seq) == 0 {
		return nil, &CallError{Operation: r.operation, Version: "vmrest",
			Err: fmt.Errorf("empty %q element", entity)}
	}
	m, ok := asObject(seq[0])
	if !ok {
		return nil, &CallError{Operation: r.operation, Version: "vmrest",
			Err: fmt.Errorf("%q element is not structured", entity)}
	}
	return Response(m), nil
}

func parseTotal(v any) (int, error) {
	switch t := v.(type) {
	case string:
		return strconv.Atoi(t)
	case float64:
		return int(t), nil
	case int:
		return t, nil
	}
	return 0, fmt.Errorf("unexpected @total type %T", v)
}
