package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/molino/molino/internal/cli"
	"github.com/molino/molino/internal/model"
)

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage entity registries",
		Long:  `Add and list entities in the merchant, bank, account, and category registries.`,
	}

	cmd.AddCommand(registryListCmd())
	cmd.AddCommand(registryAddCmd())
	cmd.AddCommand(registryAddVariationCmd())

	return cmd
}

func parseRegistryKey(s string) (model.EntityType, error) {
	switch model.EntityType(strings.ToLower(s)) {
	case model.EntityMerchant:
		return model.EntityMerchant, nil
	case model.EntityBank:
		return model.EntityBank, nil
	case model.EntityAccount:
		return model.EntityAccount, nil
	case model.EntityCategory:
		return model.EntityCategory, nil
	default:
		return "", fmt.Errorf("unknown registry %q (merchant, bank, account, category)", s)
	}
}

func registryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <registry>",
		Short: "List entities in a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			key, err := parseRegistryKey(args[0])
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entities, err := store.GetEntities(ctx, key)
			if err != nil {
				return err
			}

			if len(entities) == 0 {
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("No %s entities.", key)))
				return nil
			}

			fmt.Println(cli.HeaderStyle.Render(fmt.Sprintf("%-6s %-30s %-16s %s", "ID", "Canonical", "Category", "Variations")))
			for _, e := range entities {
				fmt.Printf("%-6d %-30s %-16s %s\n",
					e.ID, e.CanonicalName, e.Category, strings.Join(e.Variations, ", "))
			}
			return nil
		},
	}
}

func registryAddCmd() *cobra.Command {
	var (
		category   string
		mcc        string
		network    string
		variations []string
	)

	cmd := &cobra.Command{
		Use:   "add <registry> <canonical-name>",
		Short: "Add an entity to a registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			key, err := parseRegistryKey(args[0])
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			entity := model.RegistryEntity{
				RegistryKey:    key,
				CanonicalName:  args[1],
				Category:       category,
				MCCCode:        mcc,
				PaymentNetwork: network,
				Variations:     variations,
			}

			id, err := store.AddEntity(ctx, &entity)
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added %s %q (entity %d)", key, args[1], id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "entity category")
	cmd.Flags().StringVar(&mcc, "mcc", "", "merchant category code")
	cmd.Flags().StringVar(&network, "network", "", "payment network")
	cmd.Flags().StringSliceVar(&variations, "variation", nil, "textual variation (repeatable)")
	return cmd
}

func registryAddVariationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-variation <entity-id> <variation>",
		Short: "Add a textual variation to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entity id %q", args[0])
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.AddVariation(ctx, id, args[1]); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added variation %q to entity %d", args[1], id)))
			return nil
		},
	}
}
