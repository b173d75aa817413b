package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/suggest"
)

func batchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Review suggestion batches",
		Long: `Batches group suggestions that share a sender or domain and a
proposed target, so one decision settles the whole group. Members keep
independent outcomes: a single apply failure never blocks its siblings.`,
	}

	cmd.AddCommand(batchesListCmd())
	cmd.AddCommand(batchesApproveCmd())
	cmd.AddCommand(batchesRejectCmd())

	return cmd
}

func batchesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List batches with member counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			summaries, err := p.store.GetBatchSummaries(ctx)
			if err != nil {
				return fmt.Errorf("failed to list batches: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No batches."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Batches (%d)", len(summaries))))
			for _, summary := range summaries {
				fmt.Printf("%s  %s  %s → %s/%s  %d pending / %d total\n",
					cli.StatusStyle(string(summary.Status)).Render(string(summary.Status)),
					summary.Batch.ID,
					summary.Batch.GroupKey,
					summary.Batch.TargetType,
					summary.Batch.TargetID,
					summary.Pending,
					summary.Members)
			}
			return nil
		},
	}
}

func batchesApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <batch-id>",
		Short: "Approve every undecided member of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			results, err := p.manager.ApproveBatch(ctx, args[0])
			if err != nil {
				return err
			}

			printBatchResults(results)
			return nil
		},
	}
}

func batchesRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <batch-id>",
		Short: "Reject every pending member of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			results, err := p.manager.RejectBatch(ctx, args[0])
			if err != nil {
				return err
			}

			printBatchResults(results)
			return nil
		},
	}
}

func printBatchResults(results []suggest.MemberResult) {
	applied, rejected, failed := 0, 0, 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			fmt.Printf("%s  %s  %v\n",
				cli.ErrorStyle.Render("failed"),
				result.Suggestion.ID,
				result.Err)
			continue
		}
		switch {
		case result.Link != nil:
			applied++
		default:
			rejected++
		}
	}

	fmt.Printf("%s %d applied, %d rejected, %d failed\n",
		cli.TitleStyle.Render("Batch settled:"), applied, rejected, failed)
}
