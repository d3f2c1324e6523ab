package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/attach"
	"github.com/rolepatch/rolepatch/internal/config"
	"github.com/rolepatch/rolepatch/internal/differ"
	"github.com/rolepatch/rolepatch/internal/plugin"
	"github.com/rolepatch/rolepatch/internal/template"
	"github.com/rolepatch/rolepatch/internal/validation"
)

// newApplyCmd creates the "apply" subcommand for patching a template.
func newApplyCmd() *cobra.Command {
	var opts applyOptions

	cmd := &cobra.Command{
		Use:   "apply <template>",
		Short: "Attach configured policies to a template's IAM roles",
		Long: `Apply attaches the configured managed policy ARNs to every
AWS::IAM::Role resource in a CloudFormation template.

Policies come from the service config (managedPolicyArns under provider),
extended by any --arn flags. Each policy is validated and inserted at the
front of the role's ManagedPolicyArns list unless already present.

Examples:
    rolepatch apply stack.json
    rolepatch apply stack.json -c service/rolepatch.yml
    rolepatch apply stack.json --arn arn:aws:iam::123456789012:policy/extra
    rolepatch apply stack.json --dry-run
    rolepatch apply stack.json -o patched.yml -f yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configExplicit = cmd.Flags().Changed("config")
			if opts.dryRun {
				return runApplyPreview(args[0], opts)
			}
			result, err := runApply(args[0], opts)
			if err != nil {
				return err
			}
			printApplyResult(result)
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", config.DefaultPath, "Service config file")
	cmd.Flags().StringArrayVar(&opts.arns, "arn", nil, "Additional policy ARN to attach (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would change without writing")
	cmd.Flags().BoolVar(&opts.lint, "lint", false, "Run cfn-lint on the written template")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: in place)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "auto", "Output format: json, yaml, or auto")

	return cmd
}

type applyOptions struct {
	configFile     string
	configExplicit bool
	arns           []string
	dryRun         bool
	lint           bool
	outputFile     string
	format         string
}

// runApply loads the config and template, runs the attach pass through the
// plugin lifecycle, and writes the patched template.
func runApply(templatePath string, opts applyOptions) (rolepatch.ApplyResult, error) {
	var result rolepatch.ApplyResult

	svc, err := resolveService(opts.configFile, opts.configExplicit, opts.arns)
	if err != nil {
		return result, err
	}

	tmpl, err := template.Load(templatePath)
	if err != nil {
		return result, fmt.Errorf("failed to load template: %w", err)
	}

	policies := []string(svc.Provider.ManagedPolicyArns)

	// Snapshot attachment counts so the summary can report what the pass
	// actually added versus what was already in place.
	before := make(map[string]int)
	for name, res := range template.Roles(tmpl) {
		before[name] = len(template.AttachedPolicies(res))
	}

	mgr := &plugin.Manager{}
	mgr.Register(attach.NewPlugin(svc, tmpl, os.Stdout))
	if err := mgr.Run(plugin.BeforeDeploy); err != nil {
		return result, err
	}

	attached, skipped := 0, 0
	for name, res := range template.Roles(tmpl) {
		delta := len(template.AttachedPolicies(res)) - before[name]
		attached += delta
		skipped += len(policies) - delta
	}

	outPath := opts.outputFile
	if outPath == "" {
		outPath = templatePath
	}

	format, err := resolveFormat(opts.format, outPath)
	if err != nil {
		return result, err
	}

	if err := template.Save(outPath, tmpl, format); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	result = rolepatch.ApplyResult{
		Success:  true,
		Template: outPath,
		Policies: policies,
		Roles:    template.RoleNames(tmpl),
		Attached: attached,
		Skipped:  skipped,
	}

	if opts.lint {
		lintResult, err := validation.RunCfnLint(outPath)
		if err != nil {
			return result, fmt.Errorf("lint failed: %w", err)
		}
		result.Errors = append(result.Errors, lintResult.Errors...)
		if !lintResult.Passed {
			result.Success = false
		}
	}

	return result, nil
}

// runApplyPreview shows the changes an apply would make without writing.
func runApplyPreview(templatePath string, opts applyOptions) error {
	svc, err := resolveService(opts.configFile, opts.configExplicit, opts.arns)
	if err != nil {
		return err
	}

	tmpl, err := template.Load(templatePath)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	result, err := differ.Preview(svc.Provider.ManagedPolicyArns, tmpl)
	if err != nil {
		return err
	}

	fmt.Printf("Dry run, %s not written\n\n", templatePath)
	printDiffResult(result)
	return nil
}

func printApplyResult(result rolepatch.ApplyResult) {
	if len(result.Roles) == 0 {
		fmt.Println("No IAM roles found, nothing to attach")
	} else {
		fmt.Printf("Attached %d policies across %d roles (%d already attached)\n",
			result.Attached, len(result.Roles), result.Skipped)
	}
	fmt.Printf("Wrote %s\n", result.Template)

	for _, errMsg := range result.Errors {
		fmt.Printf("  ERROR: %s\n", errMsg)
	}
}

// resolveService loads the service config and appends any ARNs given on
// the command line. A missing config file is tolerated when the path was
// not set explicitly, since --arn alone is a complete configuration.
func resolveService(configFile string, explicit bool, arns []string) (*rolepatch.Service, error) {
	svc, err := config.Load(configFile)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		svc = &rolepatch.Service{}
		config.ApplyDefaults(svc)
	}

	svc.Provider.ManagedPolicyArns = append(svc.Provider.ManagedPolicyArns, arns...)
	return svc, nil
}

// resolveFormat maps the --format flag to a template encoding. "auto"
// follows the output file's extension.
func resolveFormat(format, path string) (template.Format, error) {
	switch format {
	case "auto":
		return template.DetectFormat(path), nil
	case "json":
		return template.FormatJSON, nil
	case "yaml":
		return template.FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use 'json', 'yaml', or 'auto')", format)
	}
}
