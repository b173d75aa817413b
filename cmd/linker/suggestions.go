package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
)

func suggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "Review pending link suggestions",
	}

	cmd.AddCommand(suggestionsListCmd())
	cmd.AddCommand(suggestionsApproveCmd())
	cmd.AddCommand(suggestionsRejectCmd())

	return cmd
}

func suggestionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending suggestions",
		RunE:  runSuggestionsList,
	}

	cmd.Flags().String("target-type", "", "Filter by target type (proposal, project, contact)")
	cmd.Flags().Int("limit", 50, "Maximum suggestions to show")

	return cmd
}

func runSuggestionsList(cmd *cobra.Command, _ []string) error {
	targetType, _ := cmd.Flags().GetString("target-type")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()

	p, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	filter := service.SuggestionFilter{Limit: limit}
	if targetType != "" {
		tt := model.TargetType(targetType)
		if !tt.Valid() {
			return fmt.Errorf("invalid target type: %s", targetType)
		}
		filter.TargetType = tt
	}

	suggestions, err := p.manager.ListPending(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list suggestions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No pending suggestions."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Pending suggestions (%d)", len(suggestions))))
	for i := range suggestions {
		printSuggestion(&suggestions[i])
	}

	return nil
}

func printSuggestion(s *model.Suggestion) {
	batch := ""
	if s.BatchID != nil {
		batch = fmt.Sprintf("  batch=%s", *s.BatchID)
	}
	fmt.Printf("%s  %s  record=%s → %s/%s  %.2f  %s%s\n",
		cli.StatusStyle(string(s.Status)).Render(string(s.Status)),
		s.ID,
		s.RecordID,
		s.TargetType,
		s.TargetID,
		s.Confidence,
		cli.SubtleStyle.Render(string(s.Method)),
		batch)
	if s.Evidence != "" {
		fmt.Printf("        %s\n", cli.SubtleStyle.Render(s.Evidence))
	}
}

func suggestionsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <suggestion-id>",
		Short: "Approve a suggestion and apply its link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			suggestion, link, err := p.manager.Approve(ctx, args[0])
			if err != nil {
				if suggestion != nil && suggestion.Status == model.SuggestionFailed {
					fmt.Println(cli.ErrorStyle.Render("✗ Apply failed; suggestion settled as failed."))
					fmt.Printf("  %s\n", cli.SubtleStyle.Render(suggestion.Evidence))
				}
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Suggestion applied"))
			if link != nil {
				fmt.Printf("  link=%s  record=%s → %s/%s\n",
					link.ID, link.RecordID, link.TargetType, link.TargetID)
			}
			return nil
		},
	}
}

func suggestionsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <suggestion-id>",
		Short: "Reject a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			suggestion, err := p.manager.Reject(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.WarningStyle.Render("✗ Suggestion rejected"))
			fmt.Printf("  record=%s → %s/%s\n",
				suggestion.RecordID, suggestion.TargetType, suggestion.TargetID)
			return nil
		},
	}
}
