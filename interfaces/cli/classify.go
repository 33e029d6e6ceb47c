package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tripwing/tripwing/domain/classify"
)

// classifyOptions holds options for the classify command.
type classifyOptions struct {
	provider   string
	sessionID  string
	jsonOutput bool
	showStats  bool
}

// newClassifyCmd creates the classify command.
func (a *App) newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Classify a task description",
		Long: `Classify a task description through the staged pipeline: work type,
category, and search strategy, each with a confidence score.

Examples:
  # Classify with the configured provider chain
  tripwing classify "find me a cheap flight from JFK to Paris"

  # Pin a single provider
  tripwing classify --provider ollama "summarize this file"

  # Machine-readable output
  tripwing classify --json "book travel for next week"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runClassify(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "Use a single provider instead of the configured chain")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session identifier (generated when empty)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the classification as JSON")
	cmd.Flags().BoolVar(&opts.showStats, "stats", false, "Print fault statistics after the run")

	return cmd
}

// runClassify executes the classification with the given options.
func (a *App) runClassify(ctx context.Context, input string, opts *classifyOptions) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}

	host, err := buildHost(ctx, settings, opts.provider)
	if err != nil {
		return err
	}
	defer func() { _ = host.Shutdown() }()

	result, err := host.Classify(ctx, input, opts.sessionID)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if opts.jsonOutput {
		if err := a.printJSON(classificationOutput(result)); err != nil {
			return err
		}
	} else {
		a.printClassification(result)
	}

	if opts.showStats {
		stats := host.Handler().Stats()
		fmt.Fprintf(a.stdout, "\nFault statistics:\n")
		if err := a.printJSON(stats); err != nil {
			return err
		}
	}
	return nil
}

// classificationOutput shapes a classification for JSON output.
func classificationOutput(c *classify.Classification) map[string]any {
	out := map[string]any{
		"session_id":             c.SessionID,
		"provider":               c.Provider,
		"work_type":              c.WorkType,
		"work_type_confidence":   c.WorkTypeConfidence,
		"category":               c.Category,
		"category_confidence":    c.CategoryConfidence,
		"search_type":            c.SearchType,
		"search_type_confidence": c.SearchTypeConfidence,
		"overall_confidence":     c.OverallConfidence,
	}
	if len(c.Errors) > 0 {
		out["errors"] = c.Errors
	}
	return out
}

// printClassification writes the text rendering of a classification.
func (a *App) printClassification(c *classify.Classification) {
	fmt.Fprintf(a.stdout, "Classification\n")
	fmt.Fprintf(a.stdout, "  Session: %s\n", c.SessionID)
	fmt.Fprintf(a.stdout, "  Provider: %s\n", c.Provider)
	fmt.Fprintf(a.stdout, "  Work type: %s (%.2f)\n", c.WorkType, c.WorkTypeConfidence)
	fmt.Fprintf(a.stdout, "  Category: %s (%.2f)\n", c.Category, c.CategoryConfidence)
	fmt.Fprintf(a.stdout, "  Search type: %s (%.2f)\n", c.SearchType, c.SearchTypeConfidence)
	fmt.Fprintf(a.stdout, "  Overall confidence: %.2f\n", c.OverallConfidence)
	if len(c.Errors) > 0 {
		fmt.Fprintf(a.stdout, "  Errors:\n")
		for _, e := range c.Errors {
			fmt.Fprintf(a.stdout, "    - %s\n", e)
		}
	}
}

// printJSON writes indented JSON to stdout.
func (a *App) printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, strings.TrimSpace(string(raw)))
	return nil
}
