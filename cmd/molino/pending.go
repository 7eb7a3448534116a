package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/molino/molino/internal/cli"
	"github.com/molino/molino/internal/model"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Manage the pending classification queue",
		Long:  `Inspect merchants the pipeline could not resolve and drain the queue.`,
	}

	cmd.AddCommand(pendingListCmd())
	cmd.AddCommand(pendingResolveCmd())
	cmd.AddCommand(pendingDismissCmd())

	return cmd
}

func pendingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open pending classifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			items, err := store.GetPending(ctx, model.PendingOpen)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatPendingTable(items))
			return nil
		},
	}
}

func pendingResolveCmd() *cobra.Command {
	var (
		category string
		mcc      string
		entityID int64
	)

	cmd := &cobra.Command{
		Use:   "resolve <id> <canonical-name>",
		Short: "Resolve a pending item into the merchant registry",
		Long: `Assign a pending merchant text to a registry entity. With --entity the
text becomes a variation of an existing merchant; otherwise a new merchant
is created with the text as its first variation.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pending id %q", args[0])
			}
			canonical := args[1]

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			item, err := store.GetPendingByID(ctx, id)
			if err != nil {
				return err
			}
			if item.Status != model.PendingOpen {
				return fmt.Errorf("pending item %d is already %s", id, item.Status)
			}

			if entityID != 0 {
				if err := store.AddVariation(ctx, entityID, item.OriginalText); err != nil {
					return err
				}
			} else {
				entity := model.RegistryEntity{
					RegistryKey:   model.EntityMerchant,
					CanonicalName: canonical,
					Category:      category,
					MCCCode:       mcc,
					Variations:    []string{item.OriginalText},
				}
				if entityID, err = store.AddEntity(ctx, &entity); err != nil {
					return err
				}
			}

			if err := store.SetPendingStatus(ctx, id, model.PendingClassified); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Resolved %q -> %s (entity %d)", item.OriginalText, canonical, entityID)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&entityID, "entity", 0, "add as a variation of this existing entity")
	cmd.Flags().StringVar(&category, "category", "", "merchant category for a new entity")
	cmd.Flags().StringVar(&mcc, "mcc", "", "merchant category code for a new entity")
	return cmd
}

func pendingDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a pending item without classifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pending id %q", args[0])
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetPendingStatus(ctx, id, model.PendingDismissed); err != nil {
				return err
			}

			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Dismissed pending item %d", id)))
			return nil
		},
	}
}
