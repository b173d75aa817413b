package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned matching patterns",
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsAddCmd())
	cmd.AddCommand(patternsDeactivateCmd())
	cmd.AddCommand(patternsImportCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active patterns ordered by tier and confidence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			patterns, err := p.store.GetActivePatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			if len(patterns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No active patterns."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Active patterns (%d)", len(patterns))))
			for _, pattern := range patterns {
				fmt.Printf("%6d  %-8s  %-30s → %s/%s  %.2f  used=%d correct=%d\n",
					pattern.ID,
					pattern.Type,
					pattern.Key,
					pattern.TargetType,
					pattern.TargetID,
					pattern.Confidence,
					pattern.TimesUsed,
					pattern.TimesCorrect)
			}
			return nil
		},
	}
}

func patternsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or reactivate a pattern",
		RunE:  runPatternsAdd,
	}

	cmd.Flags().String("type", "", "Pattern type (sender, domain, keyword)")
	cmd.Flags().String("key", "", "Match key (address, domain, or keyword)")
	cmd.Flags().String("target-type", "", "Target type (proposal, project, contact)")
	cmd.Flags().String("target-id", "", "Target identifier")
	cmd.Flags().Float64("confidence", 0, "Initial confidence (defaults to the seed confidence)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("target-type")
	_ = cmd.MarkFlagRequired("target-id")

	return cmd
}

func runPatternsAdd(cmd *cobra.Command, _ []string) error {
	patternType, _ := cmd.Flags().GetString("type")
	key, _ := cmd.Flags().GetString("key")
	targetType, _ := cmd.Flags().GetString("target-type")
	targetID, _ := cmd.Flags().GetString("target-id")
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	ctx := cmd.Context()

	p, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	if confidence <= 0 {
		confidence = p.thresholds.SeedConfidence
	}

	tt := model.TargetType(targetType)
	if !tt.Valid() {
		return fmt.Errorf("invalid target type: %s", targetType)
	}

	pattern := &model.Pattern{
		Type:       model.PatternType(patternType),
		Key:        key,
		TargetType: tt,
		TargetID:   targetID,
		Confidence: model.ClampConfidence(confidence),
	}
	if err := p.store.UpsertPattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Pattern %d saved", pattern.ID)))
	return nil
}

func patternsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <pattern-id>",
		Short: "Deactivate a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pattern id: %s", args[0])
			}

			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeactivatePattern(ctx, id); err != nil {
				return fmt.Errorf("failed to deactivate pattern: %w", err)
			}

			fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("Pattern %d deactivated", id)))
			return nil
		},
	}
}

// patternImport is the YAML shape for bulk pattern seeding.
type patternImport struct {
	Type       string  `yaml:"type"`
	Key        string  `yaml:"key"`
	TargetType string  `yaml:"target_type"`
	TargetID   string  `yaml:"target_id"`
	Confidence float64 `yaml:"confidence"`
}

func patternsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import patterns from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var imports []patternImport
			if err := yaml.Unmarshal(data, &imports); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()

			p, err := initPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			saved := 0
			for _, entry := range imports {
				confidence := entry.Confidence
				if confidence <= 0 {
					confidence = p.thresholds.SeedConfidence
				}
				pattern := &model.Pattern{
					Type:       model.PatternType(entry.Type),
					Key:        entry.Key,
					TargetType: model.TargetType(entry.TargetType),
					TargetID:   entry.TargetID,
					Confidence: model.ClampConfidence(confidence),
				}
				if err := p.store.UpsertPattern(ctx, pattern); err != nil {
					return fmt.Errorf("failed to import pattern %s/%s: %w", entry.Type, entry.Key, err)
				}
				saved++
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d patterns", saved)))
			return nil
		},
	}
}
