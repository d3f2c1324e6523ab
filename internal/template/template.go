// Package template loads, saves, and inspects compiled CloudFormation
// templates.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rolepatch/rolepatch"
)

// Format selects the on-disk template encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a format from the file extension. CloudFormation
// tooling writes .json unless told otherwise, so that is the default.
func DetectFormat(path string) Format {
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a CloudFormation template from a file.
func Load(path string) (*rolepatch.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes template bytes, trying JSON first and falling back to
// YAML. Both decoders produce the same nested map shapes for properties,
// so downstream code never cares which encoding the file used.
func Parse(data []byte) (*rolepatch.Template, error) {
	var t rolepatch.Template
	if err := json.Unmarshal(data, &t); err != nil {
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("not valid JSON or YAML: %w", err)
		}
	}
	return &t, nil
}

// Save writes the template to path in the given format.
func Save(path string, t *rolepatch.Template, format Format) error {
	var data []byte
	var err error
	switch format {
	case FormatYAML:
		data, err = ToYAML(t)
	default:
		data, err = ToJSON(t)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ToJSON serializes the template to indented JSON.
func ToJSON(t *rolepatch.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *rolepatch.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Roles returns the subset of resources whose type is AWS::IAM::Role.
func Roles(t *rolepatch.Template) map[string]rolepatch.ResourceDef {
	roles := make(map[string]rolepatch.ResourceDef)
	if t == nil {
		return roles
	}
	for name, res := range t.Resources {
		if res.Type == rolepatch.RoleResourceType {
			roles[name] = res
		}
	}
	return roles
}

// RoleNames returns the logical IDs of the template's roles, sorted.
func RoleNames(t *rolepatch.Template) []string {
	roles := Roles(t)
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AttachedPolicies returns the plain-string entries of a resource's
// ManagedPolicyArns list, in list order. Intrinsic object entries are
// skipped.
func AttachedPolicies(res rolepatch.ResourceDef) []string {
	list, _ := res.Properties[rolepatch.ManagedPolicyArnsKey].([]any)
	var policies []string
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			policies = append(policies, s)
		}
	}
	return policies
}

// UnresolvedPolicies counts the attachment entries that are intrinsic
// objects rather than plain ARN strings.
func UnresolvedPolicies(res rolepatch.ResourceDef) int {
	list, _ := res.Properties[rolepatch.ManagedPolicyArnsKey].([]any)
	count := 0
	for _, entry := range list {
		if _, ok := entry.(string); !ok {
			count++
		}
	}
	return count
}
