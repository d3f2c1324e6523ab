package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch/internal/config"
	"github.com/rolepatch/rolepatch/internal/graph"
	"github.com/rolepatch/rolepatch/internal/template"
)

func newGraphCmd() *cobra.Command {
	var (
		outputFormat   string
		configFile     string
		arns           []string
		includePending bool
	)

	cmd := &cobra.Command{
		Use:   "graph <template>",
		Short: "Generate DOT graph of role policy attachments",
		Long: `Generate a DOT or Mermaid format graph showing which managed policies
each IAM role holds.

The output can be rendered with Graphviz:
    rolepatch graph stack.json | dot -Tpng -o roles.png

Or used in GitHub markdown (Mermaid format):
    rolepatch graph stack.json -f mermaid

With --pending, policies the config would attach are drawn as dashed
edges so a reviewer can tell them from attachments already in the
template.

Examples:
    rolepatch graph stack.json
    rolepatch graph stack.json -f mermaid
    rolepatch graph stack.json -p -c service/rolepatch.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pending []string
			if includePending {
				svc, err := resolveService(configFile, cmd.Flags().Changed("config"), arns)
				if err != nil {
					return err
				}
				pending = svc.Provider.ManagedPolicyArns
			}
			return runGraph(args[0], outputFormat, pending)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Service config file")
	cmd.Flags().StringArrayVar(&arns, "arn", nil, "Additional policy ARN to include as pending (repeatable)")
	cmd.Flags().BoolVarP(&includePending, "pending", "p", false, "Include configured attachments as dashed edges")

	return cmd
}

func runGraph(templatePath, format string, pending []string) error {
	tmpl, err := template.Load(templatePath)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	if len(template.Roles(tmpl)) == 0 {
		return fmt.Errorf("no IAM roles found in %s", templatePath)
	}

	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}

	gen := &graph.Generator{
		Format:  graphFormat,
		Pending: pending,
	}

	return gen.Generate(tmpl, os.Stdout)
}
