package gocucm

import (
	"context"
	"fmt"
)

// Typed convenience surface over Invoke for the administrative calls that
// come up constantly. Everything here is sugar: the same operations are
// reachable through Invoke with hand-built arguments.

// GetPhone fetches one phone by device name or pkid uuid. With no
// returnTags, every legal tag is requested.
func (c *AXLClient) GetPhone(ctx context.Context, name, uuid string, returnTags ...string) (Response, error) {
	return c.getOne(ctx, "getPhone", uuidOrName(map[string]any{}, name, uuid), "phone", returnTags)
}

// ListPhones finds phones whose device name matches the given pattern
// (SQL-style, % wildcards).
func (c *AXLClient) ListPhones(ctx context.Context, namePattern string, returnTags ...string) ([]Response, error) {
	args := map[string]any{
		"searchCriteria": map[string]any{"name": namePattern},
	}
	return c.getMany(ctx, "listPhone", args, "phone", returnTags)
}

// AddPhone creates a phone and returns its new pkid uuid.
func (c *AXLClient) AddPhone(ctx context.Context, phone map[string]any) (string, error) {
	return c.mutate(ctx, "addPhone", map[string]any{"phone": phone})
}

// UpdatePhone applies changes to a phone selected by name or uuid.
func (c *AXLClient) UpdatePhone(ctx context.Context, name, uuid string, changes map[string]any) (string, error) {
	args := uuidOrName(cloneArgs(changes), name, uuid)
	return c.mutate(ctx, "updatePhone", args)
}

// RemovePhone deletes a phone selected by name or uuid.
func (c *AXLClient) RemovePhone(ctx context.Context, name, uuid string) (string, error) {
	return c.mutate(ctx, "removePhone", uuidOrName(map[string]any{}, name, uuid))
}

// GetDirectoryNumber fetches one line by pattern and route partition, or by
// uuid.
func (c *AXLClient) GetDirectoryNumber(ctx context.Context, pattern, routePartition, uuid string, returnTags ...string) (Response, error) {
	args := map[string]any{}
	if uuid != "" {
		args["uuid"] = uuid
	} else {
		args["pattern"] = pattern
		if routePartition != "" {
			args["routePartitionName"] = routePartition
		}
	}
	return c.getOne(ctx, "getLine", args, "line", returnTags)
}

// AddDirectoryNumber creates a line and returns its new pkid uuid.
func (c *AXLClient) AddDirectoryNumber(ctx context.Context, line map[string]any) (string, error) {
	return c.mutate(ctx, "addLine", map[string]any{"line": line})
}

// RemoveDirectoryNumber deletes a line by pattern/partition or uuid.
func (c *AXLClient) RemoveDirectoryNumber(ctx context.Context, pattern, routePartition, uuid string) (string, error) {
	args := map[string]any{}
	if uuid != "" {
		args["uuid"] = uuid
	} else {
		args["pattern"] = pattern
		if routePartition != "" {
			args["routePartitionName"] = routePartition
		}
	}
	return c.mutate(ctx, "removeLine", args)
}

// GetUser fetches one end user by userid or uuid.
func (c *AXLClient) GetUser(ctx context.Context, userid, uuid string, returnTags ...string) (Response, error) {
	args := map[string]any{}
	if uuid != "" {
		args["uuid"] = uuid
	} else {
		args["userid"] = userid
	}
	return c.getOne(ctx, "getUser", args, "user", returnTags)
}

// UpdateUser applies changes to an end user selected by userid.
func (c *AXLClient) UpdateUser(ctx context.Context, userid string, changes map[string]any) (string, error) {
	args := cloneArgs(changes)
	args["userid"] = userid
	return c.mutate(ctx, "updateUser", args)
}

// GetDeviceProfile fetches one device profile by name or uuid.
func (c *AXLClient) GetDeviceProfile(ctx context.Context, name, uuid string, returnTags ...string) (Response, error) {
	return c.getOne(ctx, "getDeviceProfile", uuidOrName(map[string]any{}, name, uuid), "deviceProfile", returnTags)
}

// AddDeviceProfile creates a device profile and returns its new pkid uuid.
func (c *AXLClient) AddDeviceProfile(ctx context.Context, profile map[string]any) (string, error) {
	return c.mutate(ctx, "addDeviceProfile", map[string]any{"deviceProfile": profile})
}

// ---- shared plumbing ----

func (c *AXLClient) getOne(ctx context.Context, operation string, args map[string]any, entity string, returnTags []string) (Response, error) {
	if len(returnTags) > 0 {
		args["returnedTags"] = returnTags
	}
	resp, err := c.Invoke(ctx, operation, args)
	if err != nil {
		return nil, err
	}
	return innerObject(resp, operation, c.Version(), "return", entity)
}

func (c *AXLClient) getMany(ctx context.Context, operation string, args map[string]any, entity string, returnTags []string) ([]Response, error) {
	if len(returnTags) > 0 {
		args["returnedTags"] = returnTags
	}
	resp, err := c.Invoke(ctx, operation, args)
	if err != nil {
		return nil, err
	}
	ret, err := innerObject(resp, operation, c.Version(), "return")
	if err != nil {
		return nil, err
	}
	items := ret[entity]
	if items == nil || IsAbsent(items) {
		return nil, nil
	}
	seq := asSequence(items)
	out := make([]Response, 0, len(seq))
	for _, item := range seq {
		if m, ok := asObject(item); ok {
			out = append(out, Response(m))
		}
	}
	return out, nil
}

// mutate runs an add/update/remove style operation whose response is the
// affected row's pkid.
func (c *AXLClient) mutate(ctx context.Context, operation string, args map[string]any) (string, error) {
	resp, err := c.Invoke(ctx, operation, args)
	if err != nil {
		return "", err
	}
	switch ret := resp["return"].(type) {
	case string:
		return ret, nil
	case nil:
		return "", nil
	default:
		if IsAbsent(ret) {
			return "", nil
		}
		return fmt.Sprintf("%v", ret), nil
	}
}

// innerObject drills into nested response objects, erroring with call
// context when the expected structure is not there.
func innerObject(resp Response, operation, version string, keys ...string) (Response, error) {
	cur := map[string]any(resp)
	for _, k := range keys {
		v, ok := cur[k]
		if !ok || v == nil || IsAbsent(v) {
			return nil, &CallError{
				Operation: operation,
				Version:   version,
				Err:       fmt.Errorf("response has no %q element", k),
			}
		}
		m, ok := asObject(v)
		if !ok {
			return nil, &CallError{
				Operation: operation,
				Version:   version,
				Err:       fmt.Errorf("response element %q is not structured", k),
			}
		}
		cur = m
	}
	return Response(cur), nil
}
