// Package rolepatch provides the shared contract types for the rolepatch
// deploy-time template patcher.
//
// rolepatch attaches managed policy ARNs to every IAM role in a compiled
// CloudFormation template. The deployment config names the policies:
//
//	provider:
//	  name: aws
//	  managedPolicyArns:
//	    - arn:aws:iam::123456789012:policy/team-boundary
//
// and the attach pass rewrites each AWS::IAM::Role resource's
// ManagedPolicyArns property, inserting missing entries at the front of
// the list and leaving entries that are already present untouched.
package rolepatch

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// RoleResourceType is the CloudFormation resource type whose instances
	// receive managed policy attachments. Resources of any other type pass
	// through the attach pass unmodified.
	RoleResourceType = "AWS::IAM::Role"

	// ManagedPolicyArnsKey is the role property that holds the attachment
	// list.
	ManagedPolicyArnsKey = "ManagedPolicyArns"
)

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion,omitempty" yaml:"AWSTemplateFormatVersion,omitempty"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `json:"Type" yaml:"Type"`
	Description   string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
	Export      *struct {
		Name string `json:"Name" yaml:"Name"`
	} `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// StringList is a []string that also accepts a bare string when decoded
// from YAML or JSON. Deployment configs commonly write a single policy as
//
//	managedPolicyArns: arn:aws:iam::123456789012:policy/only-one
//
// and a list otherwise; both forms decode to the same value. It always
// marshals back as a sequence.
type StringList []string

// UnmarshalYAML decodes either a scalar or a sequence node.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("expected a string or a sequence of strings at line %d", value.Line)
	}
}

// UnmarshalJSON decodes either a JSON string or an array of strings.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings: %w", err)
	}
	*s = StringList(many)
	return nil
}

// Service is the deployment configuration rolepatch runs against,
// typically loaded from rolepatch.yml next to the compiled template.
type Service struct {
	Service  string   `json:"service" yaml:"service"`
	Provider Provider `json:"provider" yaml:"provider"`
}

// Provider holds the provider section of the deployment configuration.
// ManagedPolicyArns is the set of policies the attach pass applies; when
// it is empty the pass is a no-op.
type Provider struct {
	Name              string     `json:"name" yaml:"name"`
	Region            string     `json:"region,omitempty" yaml:"region,omitempty"`
	Stage             string     `json:"stage,omitempty" yaml:"stage,omitempty"`
	ManagedPolicyArns StringList `json:"managedPolicyArns,omitempty" yaml:"managedPolicyArns,omitempty"`
}

// ApplyResult summarizes an apply run: what was attached where, and any
// lint errors found afterwards.
type ApplyResult struct {
	Success  bool     `json:"success"`
	Template string   `json:"template"`
	Policies []string `json:"policies,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Attached int      `json:"attached"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `rolepatch validate`.
type ValidateResult struct {
	Success  bool     `json:"success"`
	Roles    int      `json:"roles"`
	Policies int      `json:"policies"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RolesResult is the JSON output from `rolepatch roles`.
type RolesResult struct {
	Roles []RoleInfo `json:"roles"`
}

// RoleInfo is a single role in the roles output.
type RoleInfo struct {
	Name     string   `json:"name"`
	RoleName string   `json:"roleName,omitempty"`
	Policies []string `json:"policies,omitempty"`
	// Unresolved counts attachment entries that are intrinsic objects
	// (Fn::ImportValue and friends) rather than plain ARN strings.
	Unresolved int `json:"unresolved,omitempty"`
}
