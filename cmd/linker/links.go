package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/cli"
)

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Inspect and undo applied links",
	}

	cmd.AddCommand(linksShowCmd())
	cmd.AddCommand(linksUnlinkCmd())

	return cmd
}

func linksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show all links for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			links, err := store.GetLinksByRecord(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load links: %w", err)
			}

			if len(links) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No links for record."))
				return nil
			}

			for _, link := range links {
				state := cli.SuccessStyle.Render("active")
				if !link.Active {
					state = cli.SubtleStyle.Render("unlinked")
				}
				fmt.Printf("%s  %s → %s/%s  %.2f  %s  %s\n",
					state,
					link.ID,
					link.TargetType,
					link.TargetID,
					link.Confidence,
					cli.SubtleStyle.Render(string(link.Method)),
					link.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func linksUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <link-id>",
		Short: "Deactivate a link so the record can be re-matched",
		Long: `Unlinking marks the link inactive instead of deleting it, keeping the
audit trail. The record becomes unresolved again and a later matching
run may propose a different target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Unlink(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to unlink: %w", err)
			}

			fmt.Println(cli.WarningStyle.Render("Link deactivated"))
			return nil
		},
	}
}
