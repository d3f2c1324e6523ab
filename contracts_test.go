package rolepatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplate_JSON(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "Test template",
		Resources: map[string]ResourceDef{
			"WorkerRole": {
				Type: RoleResourceType,
				Properties: map[string]any{
					"RoleName": "worker",
					ManagedPolicyArnsKey: []any{
						"arn:aws:iam::123456789012:policy/base",
					},
				},
			},
		},
		Parameters: map[string]Parameter{
			"Environment": {
				Type:          "String",
				Description:   "Deployment environment",
				Default:       "dev",
				AllowedValues: []string{"dev", "staging", "prod"},
			},
		},
		Outputs: map[string]Output{
			"RoleArn": {
				Description: "The worker role ARN",
				Value:       map[string][]string{"Fn::GetAtt": {"WorkerRole", "Arn"}},
			},
		},
	}

	data, err := json.Marshal(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Equal(t, "Test template", parsed["Description"])

	resources := parsed["Resources"].(map[string]any)
	role := resources["WorkerRole"].(map[string]any)
	assert.Equal(t, "AWS::IAM::Role", role["Type"])

	props := role["Properties"].(map[string]any)
	arns := props["ManagedPolicyArns"].([]any)
	assert.Equal(t, "arn:aws:iam::123456789012:policy/base", arns[0])

	params := parsed["Parameters"].(map[string]any)
	env := params["Environment"].(map[string]any)
	assert.Equal(t, "String", env["Type"])

	outputs := parsed["Outputs"].(map[string]any)
	roleArn := outputs["RoleArn"].(map[string]any)
	assert.Equal(t, "The worker role ARN", roleArn["Description"])
}

func TestResourceDef_DependsOn(t *testing.T) {
	resource := ResourceDef{
		Type: "AWS::Lambda::Function",
		Properties: map[string]any{
			"FunctionName": "processor",
		},
		DependsOn: []string{"WorkerRole", "DataBucket"},
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "AWS::Lambda::Function", parsed["Type"])
	dependsOn := parsed["DependsOn"].([]any)
	assert.Len(t, dependsOn, 2)
	assert.Equal(t, "WorkerRole", dependsOn[0])
	assert.Equal(t, "DataBucket", dependsOn[1])
}

func TestStringList_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StringList
	}{
		{
			name:     "scalar",
			input:    `arns: arn:aws:iam::123456789012:policy/only-one`,
			expected: StringList{"arn:aws:iam::123456789012:policy/only-one"},
		},
		{
			name: "sequence",
			input: `arns:
  - arn:aws:iam::123456789012:policy/first
  - arn:aws:iam::123456789012:policy/second`,
			expected: StringList{
				"arn:aws:iam::123456789012:policy/first",
				"arn:aws:iam::123456789012:policy/second",
			},
		},
		{
			name:     "empty sequence",
			input:    `arns: []`,
			expected: StringList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				Arns StringList `yaml:"arns"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.input), &doc))
			assert.Equal(t, tt.expected, doc.Arns)
		})
	}
}

func TestStringList_UnmarshalYAML_Mapping(t *testing.T) {
	var doc struct {
		Arns StringList `yaml:"arns"`
	}
	err := yaml.Unmarshal([]byte("arns:\n  key: value"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string or a sequence")
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StringList
	}{
		{
			name:     "string",
			input:    `"arn:aws:iam::123456789012:policy/only-one"`,
			expected: StringList{"arn:aws:iam::123456789012:policy/only-one"},
		},
		{
			name:     "array",
			input:    `["arn:aws:iam::123456789012:policy/first","arn:aws:iam::123456789012:policy/second"]`,
			expected: StringList{"arn:aws:iam::123456789012:policy/first", "arn:aws:iam::123456789012:policy/second"},
		},
		{
			name:     "empty array",
			input:    `[]`,
			expected: StringList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list StringList
			require.NoError(t, json.Unmarshal([]byte(tt.input), &list))
			assert.Equal(t, tt.expected, list)
		})
	}
}

func TestStringList_MarshalsAsSequence(t *testing.T) {
	list := StringList{"arn:aws:iam::123456789012:policy/only-one"}

	data, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `["arn:aws:iam::123456789012:policy/only-one"]`, string(data))

	out, err := yaml.Marshal(list)
	require.NoError(t, err)
	assert.Equal(t, "- arn:aws:iam::123456789012:policy/only-one\n", string(out))
}

func TestService_YAML(t *testing.T) {
	input := `service: orders
provider:
  name: aws
  region: us-west-2
  stage: prod
  managedPolicyArns:
    - arn:aws:iam::123456789012:policy/team-boundary
    - arn:aws:iam::123456789012:policy/audit
`

	var svc Service
	require.NoError(t, yaml.Unmarshal([]byte(input), &svc))

	assert.Equal(t, "orders", svc.Service)
	assert.Equal(t, "aws", svc.Provider.Name)
	assert.Equal(t, "us-west-2", svc.Provider.Region)
	assert.Equal(t, "prod", svc.Provider.Stage)
	assert.Equal(t, StringList{
		"arn:aws:iam::123456789012:policy/team-boundary",
		"arn:aws:iam::123456789012:policy/audit",
	}, svc.Provider.ManagedPolicyArns)
}

func TestService_YAML_ScalarPolicies(t *testing.T) {
	input := `service: orders
provider:
  name: aws
  managedPolicyArns: arn:aws:iam::123456789012:policy/team-boundary
`

	var svc Service
	require.NoError(t, yaml.Unmarshal([]byte(input), &svc))
	assert.Equal(t, StringList{"arn:aws:iam::123456789012:policy/team-boundary"}, svc.Provider.ManagedPolicyArns)
}

func TestApplyResult_JSON(t *testing.T) {
	result := ApplyResult{
		Success:  true,
		Template: "template.json",
		Policies: []string{"arn:aws:iam::123456789012:policy/team-boundary"},
		Roles:    []string{"WorkerRole"},
		Attached: 1,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.True(t, parsed["success"].(bool))
	assert.Equal(t, "template.json", parsed["template"])
	roles := parsed["roles"].([]any)
	assert.Equal(t, "WorkerRole", roles[0])
	assert.Equal(t, float64(1), parsed["attached"])
}

func TestValidateResult_Error(t *testing.T) {
	result := ValidateResult{
		Success: false,
		Roles:   2,
		Errors:  []string{`"not-an-arn" is not a valid policy ARN.`},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.False(t, parsed["success"].(bool))
	errors := parsed["errors"].([]any)
	assert.Len(t, errors, 1)
	assert.Equal(t, `"not-an-arn" is not a valid policy ARN.`, errors[0])
}

func TestRolesResult_JSON(t *testing.T) {
	result := RolesResult{
		Roles: []RoleInfo{
			{
				Name:       "WorkerRole",
				RoleName:   "worker",
				Policies:   []string{"arn:aws:iam::123456789012:policy/base"},
				Unresolved: 1,
			},
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	roles := parsed["roles"].([]any)
	require.Len(t, roles, 1)
	role := roles[0].(map[string]any)
	assert.Equal(t, "WorkerRole", role["name"])
	assert.Equal(t, "worker", role["roleName"])
	assert.Equal(t, float64(1), role["unresolved"])
}

func TestOutput_WithExport(t *testing.T) {
	output := Output{
		Description: "Role ARN for cross-stack reference",
		Value:       map[string][]string{"Fn::GetAtt": {"WorkerRole", "Arn"}},
		Export: &struct {
			Name string `json:"Name" yaml:"Name"`
		}{
			Name: "MyStack-RoleArn",
		},
	}

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	export := parsed["Export"].(map[string]any)
	assert.Equal(t, "MyStack-RoleArn", export["Name"])
}
