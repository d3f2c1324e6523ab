// Package attach implements the managed policy attach pass.
//
// The pass walks a compiled template's resource map and rewrites the
// ManagedPolicyArns property of every AWS::IAM::Role resource so that each
// requested policy ARN is present exactly once, with newly attached
// policies at the front of the list. Resources of other types and
// attachment entries that are intrinsic objects rather than plain strings
// pass through untouched.
package attach

import (
	"fmt"
	"io"
	"os"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/arn"
)

// The two notification lines are fixed operator-facing strings.
const (
	beginLine = "Begin Attach Managed Policies plugin..."
	doneLine  = "Attach Managed Policies plugin done."
)

// Attacher applies managed policy ARNs to the role resources of a
// resource map, in place.
type Attacher struct {
	// Out receives the start and completion notification lines.
	// Defaults to os.Stdout when nil.
	Out io.Writer
}

// Attach inserts each policy ARN at the front of the attachment list of
// every role resource that does not already hold it. Identifiers are
// processed in the order given and validated as they are reached; an
// invalid identifier aborts the whole pass with an *arn.InvalidPolicyARNError,
// leaving earlier mutations in place and emitting no completion line.
//
// When either input is empty the pass returns immediately with no output
// and no mutation.
func (a *Attacher) Attach(policies []string, resources map[string]rolepatch.ResourceDef) error {
	if len(policies) == 0 || len(resources) == 0 {
		return nil
	}

	out := a.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintln(out, beginLine)

	for name, res := range resources {
		if res.Type != rolepatch.RoleResourceType {
			continue
		}

		attached := attachedList(res)
		for _, policy := range policies {
			if err := arn.Validate(policy); err != nil {
				return err
			}
			if containsString(attached, policy) {
				continue
			}
			attached = append([]any{policy}, attached...)
		}

		if res.Properties == nil {
			res.Properties = make(map[string]any)
		}
		res.Properties[rolepatch.ManagedPolicyArnsKey] = attached
		resources[name] = res
	}

	fmt.Fprintln(out, doneLine)
	return nil
}

// attachedList reads a resource's existing attachment list. Absent and
// non-list values decode as empty. []string lists are widened to []any so
// write-back always stores one list shape.
func attachedList(res rolepatch.ResourceDef) []any {
	if res.Properties == nil {
		return []any{}
	}
	switch v := res.Properties[rolepatch.ManagedPolicyArnsKey].(type) {
	case []any:
		return v
	case []string:
		widened := make([]any, len(v))
		for i, s := range v {
			widened[i] = s
		}
		return widened
	default:
		return []any{}
	}
}

// containsString reports whether the list holds s as a plain string entry.
// Intrinsic object entries never match.
func containsString(list []any, s string) bool {
	for _, entry := range list {
		if str, ok := entry.(string); ok && str == s {
			return true
		}
	}
	return false
}
