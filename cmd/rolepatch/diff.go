package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch/internal/config"
	"github.com/rolepatch/rolepatch/internal/differ"
	"github.com/rolepatch/rolepatch/internal/template"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		configFile   string
		arns         []string
	)

	cmd := &cobra.Command{
		Use:   "diff <template> [<template2>]",
		Short: "Compare templates or preview an attach pass",
		Long: `Diff compares two template files and reports resource-level changes.

With a single template, diff previews the attach pass instead: it shows
what applying the configured policies would change, without writing.

Attachment lists are compared order-sensitively, since the position of a
policy ARN in ManagedPolicyArns is part of the attach contract. Exits 1
when differences are found.

Examples:
    rolepatch diff stack.json stack.patched.json
    rolepatch diff stack.json stack.patched.json --format json
    rolepatch diff stack.json
    rolepatch diff stack.json --arn arn:aws:iam::123456789012:policy/extra`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return runDiff(args[0], args[1], outputFormat)
			}
			return runDiffPreview(args[0], configFile, cmd.Flags().Changed("config"), arns, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Service config file (single-template mode)")
	cmd.Flags().StringArrayVar(&arns, "arn", nil, "Additional policy ARN to preview (repeatable)")

	return cmd
}

// runDiff compares two template files.
func runDiff(beforePath, afterPath, format string) error {
	result, err := differ.CompareFiles(beforePath, afterPath)
	if err != nil {
		return err
	}
	return outputDiffResult(result, format)
}

// runDiffPreview diffs a template against the result of an attach pass.
func runDiffPreview(templatePath, configFile string, configExplicit bool, arns []string, format string) error {
	svc, err := resolveService(configFile, configExplicit, arns)
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
	return outputDiffResult(result, format)
}

func outputDiffResult(result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		printDiffResult(result)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if result.Summary.Total > 0 {
		os.Exit(1)
	}

	return nil
}

func printDiffResult(result *differ.Result) {
	if result.Summary.Total == 0 {
		fmt.Println("No differences found.")
		return
	}

	if len(result.Diff.Added) > 0 {
		fmt.Printf("Added (%d):\n", len(result.Diff.Added))
		for _, entry := range result.Diff.Added {
			fmt.Printf("  + %s (%s)\n", entry.Resource, entry.Type)
		}
	}

	if len(result.Diff.Removed) > 0 {
		fmt.Printf("Removed (%d):\n", len(result.Diff.Removed))
		for _, entry := range result.Diff.Removed {
			fmt.Printf("  - %s (%s)\n", entry.Resource, entry.Type)
		}
	}

	if len(result.Diff.Modified) > 0 {
		fmt.Printf("Modified (%d):\n", len(result.Diff.Modified))
		for _, entry := range result.Diff.Modified {
			fmt.Printf("  ~ %s (%s)\n", entry.Resource, entry.Type)
			for _, change := range entry.Changes {
				fmt.Printf("      %s\n", change)
			}
		}
	}

	fmt.Printf("\n%d added, %d removed, %d modified\n",
		result.Summary.Added, result.Summary.Removed, result.Summary.Modified)
}
