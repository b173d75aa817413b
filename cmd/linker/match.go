package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/match"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match unresolved records against the target catalog",
		Long: `Run the tiered matching pipeline over every unresolved record.

Each record is resolved through thread inheritance, explicit code
tokens, and learned sender/domain/keyword patterns. The best candidate
is routed by confidence: applied directly, queued for batch or
individual review, or logged for pattern discovery.`,
		RunE: runMatch,
	}

	cmd.Flags().Int("limit", 500, "Maximum number of records to process")
	cmd.Flags().Bool("progress", true, "Show a progress bar")

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	showProgress, _ := cmd.Flags().GetBool("progress")

	ctx := cmd.Context()

	p, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Matching records..."),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		p.engine.OnRecord = func(_ model.Record, _ match.Band) {
			_ = bar.Add(1)
		}
	}

	stats, err := p.engine.ProcessRecords(ctx, limit)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("matching run failed: %w", err)
	}

	fmt.Println(cli.TitleStyle.Render("Matching run complete"))
	fmt.Printf("  %s %d records processed\n", cli.SubtleStyle.Render("total:"), stats.Total)
	fmt.Printf("  %s %d\n", cli.SuccessStyle.Render("auto-applied:"), stats.AutoApplied)
	fmt.Printf("  %s %d\n", cli.WarningStyle.Render("batch review:"), stats.Batched)
	fmt.Printf("  %s %d\n", cli.WarningStyle.Render("individual review:"), stats.Individual)
	fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("log only:"), stats.LogOnly)
	if stats.Errors > 0 {
		fmt.Printf("  %s %d\n", cli.ErrorStyle.Render("errors:"), stats.Errors)
	}
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("duration:"), stats.Duration.Round(timeRounding))

	return nil
}
