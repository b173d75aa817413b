package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Import and inspect email records",
	}

	cmd.AddCommand(recordsImportCmd())
	cmd.AddCommand(recordsPendingCmd())

	return cmd
}

func recordsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import records from a YAML file",
		Long: `Import email records from a YAML export. Records are keyed by their
message id; re-importing the same file is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var records []model.Record
			if err := yaml.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveRecords(ctx, records); err != nil {
				return fmt.Errorf("failed to import records: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d records", len(records))))
			return nil
		},
	}
}

func recordsPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List unresolved records awaiting a matching run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.GetUnresolvedRecords(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}

			if len(records) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No unresolved records."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Unresolved records (%d)", len(records))))
			for _, record := range records {
				thread := ""
				if record.ThreadID != "" {
					thread = "  thread=" + record.ThreadID
				}
				fmt.Printf("%s  %s  %s%s\n",
					record.ID,
					cli.SubtleStyle.Render(record.Sender),
					record.Subject,
					cli.SubtleStyle.Render(thread))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum records to show")

	return cmd
}
