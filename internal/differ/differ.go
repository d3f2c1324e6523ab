// Package differ provides semantic comparison of CloudFormation templates
// and previews of the changes an attach pass would make.
package differ

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/attach"
	"github.com/rolepatch/rolepatch/internal/template"
)

// Result contains the difference between two templates.
type Result struct {
	Diff    TemplateDiff `json:"diff"`
	Summary Summary      `json:"summary"`
}

// TemplateDiff groups per-resource differences.
type TemplateDiff struct {
	Added    []Entry `json:"added,omitempty"`
	Removed  []Entry `json:"removed,omitempty"`
	Modified []Entry `json:"modified,omitempty"`
}

// Entry describes the difference for a single resource.
type Entry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// Summary counts the differences.
type Summary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// Compare compares two CloudFormation templates and returns differences.
// Attachment lists are order-sensitive on purpose: the position of a
// policy ARN in ManagedPolicyArns is part of the attach contract.
func Compare(before, after *rolepatch.Template) *Result {
	result := &Result{}

	res1 := before.Resources
	res2 := after.Resources

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, Entry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, Entry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, Entry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = Summary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string) (*Result, error) {
	t1, err := template.Load(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := template.Load(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2), nil
}

// Preview reports what an attach pass with the given policies would change,
// without touching tmpl. The pass runs against a deep copy of the resource
// map with its operator output discarded; an invalid policy ARN surfaces
// the same error a real pass would. Both sides of the comparison are
// normalized through the same round trip so Go-typed property values never
// show up as spurious modifications.
func Preview(policies []string, tmpl *rolepatch.Template) (*Result, error) {
	base, err := cloneResources(tmpl.Resources)
	if err != nil {
		return nil, err
	}
	patched, err := cloneResources(tmpl.Resources)
	if err != nil {
		return nil, err
	}

	a := attach.Attacher{Out: io.Discard}
	if err := a.Attach(policies, patched); err != nil {
		return nil, err
	}

	return Compare(&rolepatch.Template{Resources: base}, &rolepatch.Template{Resources: patched}), nil
}

// cloneResources deep-copies a resource map through a JSON round trip,
// which also normalizes property values to the decoded shapes.
func cloneResources(resources map[string]rolepatch.ResourceDef) (map[string]rolepatch.ResourceDef, error) {
	data, err := json.Marshal(resources)
	if err != nil {
		return nil, fmt.Errorf("clone resources: %w", err)
	}
	var clone map[string]rolepatch.ResourceDef
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("clone resources: %w", err)
	}
	return clone, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 rolepatch.ResourceDef) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties(def1.Properties, def2.Properties)...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareProperties compares property maps key by key.
func compareProperties(props1, props2 map[string]any) []string {
	var changes []string

	for key, val2 := range props2 {
		if val1, exists := props1[key]; exists {
			if !reflect.DeepEqual(val1, val2) {
				changes = append(changes, fmt.Sprintf("%s modified", key))
			}
		} else {
			changes = append(changes, fmt.Sprintf("%s added", key))
		}
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", key))
		}
	}

	sort.Strings(changes)
	return changes
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
