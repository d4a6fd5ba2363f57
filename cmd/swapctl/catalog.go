package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect food catalog files",
	}
	cmd.AddCommand(newCatalogValidateCommand(), newCatalogListCommand())
	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog YAML file (default: built-in starter catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			catalog, err := loadCatalog(path)
			if err != nil {
				return err
			}
			return writeGroupSummary(cmd.OutOrStdout(), catalog)
		},
	}
}

func newCatalogListCommand() *cobra.Command {
	var (
		path  string
		group string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog foods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(path)
			if err != nil {
				return err
			}
			return writeFoodTable(cmd.OutOrStdout(), catalog, group)
		},
	}

	cmd.Flags().StringVar(&path, "catalog", "", "food catalog YAML (default: built-in starter catalog)")
	cmd.Flags().StringVar(&group, "group", "", "only list foods in this group")
	return cmd
}

func writeGroupSummary(w io.Writer, catalog *nutrition.Catalog) error {
	groups := make(map[string]int)
	for food := range catalog.All() {
		groups[food.FoodGroup]++
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintf(w, "%d foods in %d groups\n", catalog.Len(), len(groups)); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %-12s %d\n", name, groups[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeFoodTable(w io.Writer, catalog *nutrition.Catalog, group string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGROUP\tKCAL/100\tNUTRIENTS")
	for food := range catalog.All() {
		if group != "" && !strings.EqualFold(food.FoodGroup, group) {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%s\n", food.ID, food.Name, food.FoodGroup, food.CaloriesPer100, nutrientList(food))
	}
	return tw.Flush()
}

func nutrientList(food nutrition.FoodItem) string {
	names := make([]string, 0, len(food.Nutrients))
	for name := range food.Nutrients {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, food.Nutrients[name]))
	}
	return strings.Join(parts, " ")
}
