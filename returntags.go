package gocucm

import (
	"fmt"
	"strings"

	"github.com/rlad78/gocucm/schema"
)

// ReturnTagsAll builds the full legal returnedTags structure for an
// operation: every addressable tag with empty-element leaves, picking the
// first member of each exclusive choice group the way the server's own
// tooling does. Returns nil when the operation takes no returnedTags.
func ReturnTagsAll(op *schema.OperationSchema) map[string]any {
	rt := op.Request.Child("returnedTags")
	if rt == nil {
		return nil
	}
	out := make(map[string]any, len(rt.Children))
	for _, c := range rt.Children {
		if c.Kind == schema.KindChoice {
			if len(c.Children) > 0 {
				m := c.Children[0]
				out[m.Name] = tagValue(m)
			}
			continue
		}
		out[c.Name] = tagValue(c)
	}
	return out
}

// ExpandReturnTags turns a flat list of tag names into the nested
// returnedTags structure the schema expects. Unknown tags fail closed;
// requesting two members of the same exclusive choice group is a conflict.
// The uuid pseudo-tag is skipped: it rides along as an attribute.
func ExpandReturnTags(op *schema.OperationSchema, tags []string) (map[string]any, error) {
	rt := op.Request.Child("returnedTags")
	if rt == nil {
		return nil, Issues{{
			Path:    "returnedTags",
			Code:    CodeUnexpectedField,
			Message: fmt.Sprintf("%s does not take returnedTags", op.Name),
		}}
	}
	var iss Issues
	out := make(map[string]any, len(tags))
	for _, tag := range tags {
		if tag == "uuid" {
			continue
		}
		found := rt.Child(tag)
		if found == nil {
			iss = AppendIssues(iss, Issue{
				Path:    "returnedTags." + tag,
				Code:    CodeUnexpectedField,
				Message: fmt.Sprintf("%q is not a returnable tag for %s", tag, op.Name),
				Params:  map[string]any{"known": rt.ChildNames()},
			})
			continue
		}
		if p := found.Parent(); p != nil && p.Kind == schema.KindChoice {
			if other := conflictingSibling(p, tag, tags); other != "" {
				iss = AppendIssues(iss, Issue{
					Path:    "returnedTags." + tag,
					Code:    CodeChoiceConflict,
					Message: fmt.Sprintf("tags %q and %q are mutually exclusive", tag, other),
					Params:  map[string]any{"choices": p.ChildNames()},
				})
				continue
			}
		}
		out[tag] = tagValue(found)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func conflictingSibling(choice *schema.FieldSpec, tag string, requested []string) string {
	for _, sib := range choice.ChildNames() {
		if sib == tag {
			continue
		}
		for _, req := range requested {
			if req == sib {
				return sib
			}
		}
	}
	return ""
}

// tagValue renders a returnedTags subtree: empty strings at the leaves,
// nested maps for structured tags. Choice groups contribute their first
// member only.
func tagValue(f *schema.FieldSpec) any {
	if len(f.Children) == 0 {
		return ""
	}
	out := make(map[string]any, len(f.Children))
	for _, c := range f.Children {
		if c.Kind == schema.KindChoice {
			if len(c.Children) > 0 {
				out[c.Children[0].Name] = tagValue(c.Children[0])
			}
			continue
		}
		out[c.Name] = tagValue(c)
	}
	return out
}

// uuidOrName renders a name/uuid selector argument pair, letting exactly one
// through. AXL get/update/remove operations key on either the device name or
// the pkid uuid.
func uuidOrName(args map[string]any, name, uuid string) map[string]any {
	switch {
	case uuid != "":
		args["uuid"] = strings.TrimSpace(uuid)
	case name != "":
		args["name"] = strings.TrimSpace(name)
	}
	return args
}
