package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

func targetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage the target catalog (proposals, projects, contacts)",
	}

	cmd.AddCommand(targetsListCmd())
	cmd.AddCommand(targetsImportCmd())

	return cmd
}

func targetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			targets, err := store.GetAllTargets(ctx)
			if err != nil {
				return fmt.Errorf("failed to list targets: %w", err)
			}

			if len(targets) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No targets."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Targets (%d)", len(targets))))
			for _, target := range targets {
				code := ""
				if target.Code != "" {
					code = "  [" + target.Code + "]"
				}
				status := ""
				if target.Status != "" {
					status = "  " + target.Status
				}
				fmt.Printf("%-9s %s%s  %s%s\n",
					target.Type,
					target.ID,
					cli.SubtleStyle.Render(code),
					target.Name,
					cli.SubtleStyle.Render(status))
			}
			return nil
		},
	}
}

func targetsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import targets from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var targets []model.Target
			if err := yaml.Unmarshal(data, &targets); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i := range targets {
				if err := store.SaveTarget(ctx, &targets[i]); err != nil {
					return fmt.Errorf("failed to import target %s/%s: %w",
						targets[i].Type, targets[i].ID, err)
				}
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d targets", len(targets))))
			return nil
		},
	}
}
