package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/inspect"
)

func newRolesCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "roles <template>",
		Short: "List IAM roles and their attached policies",
		Long: `Roles lists every AWS::IAM::Role in a template with its attached
managed policies.

Attachment entries that are intrinsic objects rather than plain ARN
strings are counted as unresolved.

Examples:
    rolepatch roles stack.json
    rolepatch roles stack.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(args[0], outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runRoles(templatePath, format string) error {
	result, err := inspect.Roles(templatePath)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", templatePath, err)
	}

	return outputRolesResult(result, format)
}

func outputRolesResult(result *rolepatch.RolesResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if len(result.Roles) == 0 {
			fmt.Println("No IAM roles found.")
			return nil
		}

		fmt.Printf("IAM roles (%d):\n\n", len(result.Roles))
		for _, role := range result.Roles {
			if role.RoleName != "" {
				fmt.Printf("  %s (RoleName: %s)\n", role.Name, role.RoleName)
			} else {
				fmt.Printf("  %s\n", role.Name)
			}
			for _, policy := range role.Policies {
				fmt.Printf("    - %s\n", policy)
			}
			if role.Unresolved > 0 {
				fmt.Printf("    (%d unresolved entries)\n", role.Unresolved)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
