package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"qualityreport/internal/app"
	"qualityreport/internal/config"
	"qualityreport/internal/extract"
	"qualityreport/internal/httpx"
	"qualityreport/internal/inputs"
	"qualityreport/internal/mcptool"
	"qualityreport/internal/storage/sqlite"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "qualityreport",
		Short:        "Build the weekly quality report from copy-pasted tracker exports",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newParseCmd(), newScheduleCmd(), newHistoryCmd(), newMCPCmd())
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// setup loads configuration and opens the archive.
func setup() (config.Config, *sqlite.Store) {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Team=%s Timezone=%s InputDir=%s Provider=%s Narration=%t Salesforce=%t Slack=%t ExternalHTTPTimeout=%s",
		cfg.TeamName,
		cfg.Location,
		cfg.InputDir,
		cfg.LLMProvider,
		cfg.NarrationEnabled(),
		cfg.SalesforceConfigured(),
		cfg.SlackConfigured(),
		appliedHTTPTimeout,
	)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	log.Printf("Archive opened at %s", cfg.DBPath)
	return cfg, store
}

func newGenerateCmd() *cobra.Command {
	var (
		date     string
		noLLM    bool
		noNotify bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the report for the week before --date (default today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store := setup()
			defer store.Close()

			ref, err := parseReportDate(date, cfg.Location)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			res, err := app.NewPipeline(cfg, store).Run(ctx, app.Options{ReportDate: ref, NoLLM: noLLM, NoNotify: noNotify})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\nEmail draft: %s\n", res.Files.Markdown, res.Files.EmailDraft)
			if res.Usage.TotalTokens() > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "LLM tokens: %d in, %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD); the report covers the Monday-Sunday week before it")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip LLM narration")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "do not post the summary to Slack")
	return cmd
}

func parseReportDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func newParseCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "parse --kind <export> <file>",
		Short: "Parse one export file and print its records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ok, err := inputs.ReadText(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("file not found: %s", args[0])
			}
			records, err := extract.DefaultRegistry().Parse(kind, text)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", fmt.Sprintf("export layout, one of %v", extract.DefaultRegistry().Names()))
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Generate the report on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store := setup()
			defer store.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			pipeline := app.NewPipeline(cfg, store)
			return app.RunSchedule(ctx, cfg.ReportSchedule, cfg.Location, pipeline.ScheduledJob)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		record string
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived report runs, or when a record was first archived",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store := setup()
			defer store.Close()

			if record != "" {
				return printFirstSeen(cmd.Context(), cmd.OutOrStdout(), store, extract.Kind(kind), record)
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), store, cfg.TeamName, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	cmd.Flags().StringVar(&record, "record", "", "show the first archived week of this record ID instead of the run list")
	cmd.Flags().StringVar(&kind, "kind", string(extract.KindProblemReport), "record kind used with --record")
	return cmd
}

// printHistory writes one line per archived run with its record counts per kind.
func printHistory(ctx context.Context, w io.Writer, store *sqlite.Store, team string, limit int) error {
	runs, err := store.Runs(ctx, team, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No archived runs.")
		return nil
	}
	for _, r := range runs {
		counts, err := store.RecordCounts(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("record counts for run %s: %w", r.ID, err)
		}
		fmt.Fprintf(w, "%s  %s..%s  %s  %s\n", r.ID, r.PeriodStart, r.PeriodEnd, r.ReportPath, formatCounts(counts))
	}
	return nil
}

func formatCounts(counts map[extract.Kind]int) string {
	if len(counts) == 0 {
		return "no records"
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[extract.Kind(k)])
	}
	return strings.Join(parts, " ")
}

func printFirstSeen(ctx context.Context, w io.Writer, store *sqlite.Store, kind extract.Kind, id string) error {
	start, err := store.FirstSeen(ctx, kind, id)
	if err != nil {
		return err
	}
	if start == "" {
		fmt.Fprintf(w, "%s %s has never been archived.\n", kind, id)
		return nil
	}
	fmt.Fprintf(w, "%s %s first archived in the week starting %s.\n", kind, id, start)
	return nil
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extract_records tool over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return mcptool.Serve(ctx, version)
		},
	}
}
