package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/rolepatch/rolepatch/internal/attach"
	"github.com/rolepatch/rolepatch/internal/config"
	"github.com/rolepatch/rolepatch/internal/differ"
	"github.com/rolepatch/rolepatch/internal/plugin"
	"github.com/rolepatch/rolepatch/internal/template"
)

// newWatchCmd creates the "watch" subcommand for re-applying on file changes.
func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <template>",
		Short: "Re-apply policies when the template or config changes",
		Long: `Watch monitors the template and config files and re-runs the attach
pass on every change.

The watch command:
- Monitors the template file and the service config for changes
- Re-applies the configured policies in place on each change
- Skips the write when the template is already up to date
- Debounces rapid changes to avoid excessive rewrites

Examples:
    rolepatch watch stack.json
    rolepatch watch stack.json --dry-run
    rolepatch watch stack.json --debounce 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", config.DefaultPath, "Service config file")
	cmd.Flags().StringArrayVar(&opts.arns, "arn", nil, "Additional policy ARN to attach (repeatable)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Preview changes instead of writing")

	return cmd
}

type watchOptions struct {
	configFile string
	arns       []string
	debounce   time.Duration
	dryRun     bool
}

// runWatch monitors the template and config and re-applies on changes.
func runWatch(templatePath string, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	absTemplate, err := filepath.Abs(templatePath)
	if err != nil {
		return err
	}
	absConfig, err := filepath.Abs(opts.configFile)
	if err != nil {
		return err
	}

	// Editors often replace files on save, so watch the parent
	// directories and filter events down to the two paths.
	watched := map[string]bool{absTemplate: true, absConfig: true}

	dirs := []string{filepath.Dir(absTemplate)}
	if dir := filepath.Dir(absConfig); dir != dirs[0] {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		fmt.Printf("Watching: %s\n", dir)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initial pass
	fmt.Println("Running initial pass...")
	runWatchPass(templatePath, opts)

	// Debounce timer
	var debounceTimer *time.Timer
	rerunChan := make(chan struct{}, 1)

	fmt.Println("\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !watched[filepath.Clean(event.Name)] {
				continue
			}

			// Only process write/create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rerunChan <- struct{}{}:
				default:
				}
			})

		case <-rerunChan:
			fmt.Printf("\n[%s] Change detected\n", time.Now().Format("15:04:05"))
			runWatchPass(templatePath, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigChan:
			fmt.Println("\nStopping watch...")
			return nil
		}
	}
}

// runWatchPass applies (or previews) once, printing problems instead of
// returning them so the watch loop keeps running.
func runWatchPass(templatePath string, opts watchOptions) {
	svc, err := resolveService(opts.configFile, false, opts.arns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return
	}

	tmpl, err := template.Load(templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Template error: %v\n", err)
		return
	}

	policies := []string(svc.Provider.ManagedPolicyArns)

	if opts.dryRun {
		result, err := differ.Preview(policies, tmpl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Preview error: %v\n", err)
			return
		}
		if result.Summary.Total == 0 {
			fmt.Println("Up to date")
			return
		}
		printDiffResult(result)
		return
	}

	before := make(map[string]int)
	for name, res := range template.Roles(tmpl) {
		before[name] = len(template.AttachedPolicies(res))
	}

	mgr := &plugin.Manager{}
	mgr.Register(attach.NewPlugin(svc, tmpl, os.Stdout))
	if err := mgr.Run(plugin.BeforeDeploy); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	attached := 0
	for name, res := range template.Roles(tmpl) {
		attached += len(template.AttachedPolicies(res)) - before[name]
	}

	// Skip the write when nothing changed so our own save does not
	// retrigger the watcher.
	if attached == 0 {
		fmt.Println("Up to date")
		return
	}

	if err := template.Save(templatePath, tmpl, template.DetectFormat(templatePath)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", templatePath, err)
		return
	}

	fmt.Printf("Attached %d policies, wrote %s\n", attached, templatePath)
}
