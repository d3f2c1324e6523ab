package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/config"
	"github.com/rolepatch/rolepatch/internal/template"
	"github.com/rolepatch/rolepatch/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking a config
// and template without modifying anything.
func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate <template>",
		Short: "Validate config and template",
		Long: `Validate checks the service config and template without writing.

Checks performed:
  - Config parses and names a supported provider
  - Every configured policy ARN matches the managed policy ARN grammar
  - Template parses as CloudFormation JSON or YAML
  - Role attachment lists are flagged when they hold intrinsic objects

Examples:
    rolepatch validate stack.json
    rolepatch validate stack.json --lint
    rolepatch validate stack.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configExplicit = cmd.Flags().Changed("config")
			return runValidate(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", config.DefaultPath, "Service config file")
	cmd.Flags().StringArrayVar(&opts.arns, "arn", nil, "Additional policy ARN to check (repeatable)")
	cmd.Flags().BoolVar(&opts.lint, "lint", false, "Also run cfn-lint on the template")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")

	return cmd
}

type validateOptions struct {
	configFile     string
	configExplicit bool
	arns           []string
	lint           bool
	format         string
}

// runValidate checks the config and template and reports the result.
func runValidate(templatePath string, opts validateOptions) error {
	svc, err := resolveService(opts.configFile, opts.configExplicit, opts.arns)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	policies := []string(svc.Provider.ManagedPolicyArns)
	result := rolepatch.ValidateResult{
		Policies: len(policies),
	}

	result.Errors = append(result.Errors, validation.CheckPolicyARNs(policies)...)

	tmpl, err := template.Load(templatePath)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		roles := template.Roles(tmpl)
		result.Roles = len(roles)

		if result.Roles == 0 {
			result.Warnings = append(result.Warnings, "no IAM roles found")
		}

		for _, name := range template.RoleNames(tmpl) {
			if n := template.UnresolvedPolicies(roles[name]); n > 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: %d attachment entries are not plain ARN strings", name, n))
			}
		}

		result.Warnings = append(result.Warnings, validation.CheckRoleShapes(tmpl)...)

		if opts.lint {
			lintResult, err := validation.RunCfnLint(templatePath)
			if err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			result.Errors = append(result.Errors, lintResult.Errors...)
			result.Warnings = append(result.Warnings, lintResult.Warnings...)
		}
	}

	result.Success = len(result.Errors) == 0

	return outputValidateResult(result, opts.format)
}

func outputValidateResult(result rolepatch.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if result.Success {
			fmt.Printf("Validation passed: %d roles, %d policies OK\n", result.Roles, result.Policies)
			for _, warnMsg := range result.Warnings {
				fmt.Printf("  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Println("Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Printf("  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Printf("  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		os.Exit(1)
	}

	return nil
}
