// Package validation runs pre- and post-attach checks.
//
//   - cfn-lint-go: validate CloudFormation templates (library dependency)
//   - policy ARN grammar: collect structural failures for reporting
//   - attachment list shapes: flag values the attach pass would replace
package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/arn"
	"github.com/rolepatch/rolepatch/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
// This uses cfn-lint-go as a library dependency for guaranteed version control.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	// Check if file exists
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	// Create linter and run
	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	// No issues found
	if len(matches) == 0 {
		result.Passed = true
		return result, nil
	}

	// Categorize issues by level
	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Passed if no errors (warnings are acceptable)
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	// Format path if available
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// CheckPolicyARNs returns one message per identifier that fails the policy
// ARN grammar, in input order. Each message matches the error an attach
// pass would abort with, so validate output and a failed run read the same.
func CheckPolicyARNs(policies []string) []string {
	var failures []string
	for _, policy := range policies {
		if err := arn.Validate(policy); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// CheckRoleShapes reports attachment list shape problems per role, in role
// name order. A non-list ManagedPolicyArns value is legal input to the
// attach pass but gets replaced wholesale on write, which is rarely what
// the template author meant.
func CheckRoleShapes(t *rolepatch.Template) []string {
	var warnings []string

	roles := template.Roles(t)
	for _, name := range template.RoleNames(t) {
		raw, ok := roles[name].Properties[rolepatch.ManagedPolicyArnsKey]
		if !ok {
			continue
		}

		switch list := raw.(type) {
		case []any:
			for i, entry := range list {
				switch entry.(type) {
				case string, map[string]any:
				default:
					warnings = append(warnings,
						fmt.Sprintf("%s: ManagedPolicyArns[%d] is neither an ARN string nor an intrinsic object", name, i))
				}
			}
		case []string:
			// already plain ARN strings
		default:
			warnings = append(warnings,
				fmt.Sprintf("%s: ManagedPolicyArns is not a list and will be replaced on apply", name))
		}
	}

	return warnings
}
