// Command rolepatch attaches managed IAM policies to CloudFormation roles.
//
// Usage:
//
//	rolepatch apply stack.json        Attach configured policies
//	rolepatch validate stack.json     Check config and template
//	rolepatch roles stack.json        List IAM roles
//	rolepatch version                 Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rolepatch",
		Short: "Attach managed IAM policies to CloudFormation roles",
		Long: `rolepatch attaches managed policy ARNs to every AWS::IAM::Role in a
CloudFormation template before it is deployed.

Declare the policies once in rolepatch.yml:

    provider:
      name: aws
      managedPolicyArns:
        - arn:aws:iam::123456789012:policy/team-boundary

Then patch the compiled template:

    rolepatch apply stack.json`,
	}

	rootCmd.AddCommand(
		newApplyCmd(),
		newValidateCmd(),
		newRolesCmd(),
		newDiffCmd(),
		newGraphCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rolepatch %s\n", getVersion())
		},
	}
}
