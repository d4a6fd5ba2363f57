package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/domain/swap"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/seed"
)

// mealFile is the YAML layout accepted by --meal
type mealFile struct {
	Name        string                      `yaml:"name"`
	Ingredients []nutrition.IngredientEntry `yaml:"ingredients"`
	Goals       []nutrition.Goal            `yaml:"goals"`
}

type suggestOptions struct {
	catalogPath string
	mealPath    string
	goals       []string
	format      string
}

func newSuggestCommand() *cobra.Command {
	opts := &suggestOptions{}

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest single-ingredient swaps for a meal file",
		Example: `  swapctl suggest --meal dinner.yaml --goal calories:decrease:100
  swapctl suggest --meal dinner.yaml --catalog foods.yaml --goal fiber:increase --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "food catalog YAML (default: built-in starter catalog)")
	cmd.Flags().StringVar(&opts.mealPath, "meal", "", "meal YAML with name, ingredients and optional goals")
	cmd.Flags().StringArrayVarP(&opts.goals, "goal", "g", nil, "goal as nutrient:direction[:target[:intensity]], repeatable")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "text", "output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("meal")

	return cmd
}

func runSuggest(cmd *cobra.Command, opts *suggestOptions) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	catalog, err := loadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}

	meal, err := loadMealFile(opts.mealPath)
	if err != nil {
		return err
	}

	goals := meal.Goals
	for _, raw := range opts.goals {
		goal, err := parseGoal(raw)
		if err != nil {
			return err
		}
		goals = append(goals, goal)
	}
	if len(goals) == 0 {
		return fmt.Errorf("at least one goal is required: pass --goal or list goals in %s", opts.mealPath)
	}

	engine := swap.NewEngine(nil, log)
	suggestions := engine.GenerateSwaps(goals, meal.Ingredients, catalog)

	report := newSuggestReport(meal, suggestions, catalog)
	return writeReport(cmd.OutOrStdout(), opts.format, report)
}

func loadCatalog(path string) (*nutrition.Catalog, error) {
	if path == "" {
		foods, err := seed.Foods()
		if err != nil {
			return nil, err
		}
		return nutrition.NewCatalog(foods...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	foods, err := seed.ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nutrition.NewCatalog(foods...), nil
}

func loadMealFile(path string) (*mealFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meal: %w", err)
	}

	var meal mealFile
	if err := yaml.Unmarshal(data, &meal); err != nil {
		return nil, fmt.Errorf("failed to decode meal %s: %w", path, err)
	}
	if len(meal.Ingredients) == 0 {
		return nil, fmt.Errorf("meal %s has no ingredients", path)
	}
	return &meal, nil
}

// parseGoal reads nutrient:direction[:target[:intensity]]
func parseGoal(raw string) (nutrition.Goal, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return nutrition.Goal{}, fmt.Errorf("invalid goal %q: want nutrient:direction[:target[:intensity]]", raw)
	}

	goal := nutrition.Goal{
		Nutrient:  strings.TrimSpace(parts[0]),
		Direction: strings.TrimSpace(parts[1]),
	}
	if goal.Nutrient == "" || goal.Direction == "" {
		return nutrition.Goal{}, fmt.Errorf("invalid goal %q: nutrient and direction are required", raw)
	}

	if len(parts) > 2 && parts[2] != "" {
		target, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || target < 0 {
			return nutrition.Goal{}, fmt.Errorf("invalid goal %q: target must be a non-negative number", raw)
		}
		goal.TargetAmount = target
	}
	if len(parts) > 3 {
		goal.Intensity = strings.TrimSpace(parts[3])
	}
	return goal, nil
}

type suggestionView struct {
	Nutrient    string  `json:"nutrient" yaml:"nutrient"`
	Direction   string  `json:"direction" yaml:"direction"`
	Original    string  `json:"original" yaml:"original"`
	Replacement string  `json:"replacement" yaml:"replacement"`
	OriginalID  int     `json:"original_id" yaml:"original_id"`
	ReplaceID   int     `json:"replacement_id" yaml:"replacement_id"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Reason      string  `json:"reason" yaml:"reason"`
	Score       float64 `json:"score" yaml:"score"`
}

type suggestReport struct {
	Meal        string             `json:"meal" yaml:"meal"`
	Totals      map[string]float64 `json:"totals" yaml:"totals"`
	Suggestions []suggestionView   `json:"suggestions" yaml:"suggestions"`
}

func newSuggestReport(meal *mealFile, suggestions []nutrition.SwapSuggestion, catalog *nutrition.Catalog) suggestReport {
	report := suggestReport{
		Meal:        meal.Name,
		Totals:      swap.ComputeTotals(meal.Ingredients, catalog),
		Suggestions: make([]suggestionView, 0, len(suggestions)),
	}
	for _, s := range suggestions {
		original, _ := catalog.Lookup(s.Original.FoodID)
		replacement, _ := catalog.Lookup(s.Replacement.FoodID)
		report.Suggestions = append(report.Suggestions, suggestionView{
			Nutrient:    s.Goal.Nutrient,
			Direction:   string(s.Goal.Direction),
			Original:    original.Name,
			Replacement: replacement.Name,
			OriginalID:  s.Original.FoodID,
			ReplaceID:   s.Replacement.FoodID,
			Quantity:    s.Replacement.Quantity,
			Reason:      s.Reason,
			Score:       s.Score,
		})
	}
	return report
}

func writeReport(w io.Writer, format string, report suggestReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return writeText(w, report)
	default:
		return fmt.Errorf("unknown format %q: want text, json or yaml", format)
	}
}

func writeText(w io.Writer, report suggestReport) error {
	name := report.Meal
	if name == "" {
		name = "meal"
	}
	if _, err := fmt.Fprintf(w, "%s\n", name); err != nil {
		return err
	}

	if len(report.Suggestions) == 0 {
		_, err := fmt.Fprintln(w, "  no balanced swaps found")
		return err
	}

	for i, s := range report.Suggestions {
		if _, err := fmt.Fprintf(w, "  %d. [%s %s] %s -> %s (%.0fg, score %.2f)\n     %s\n",
			i+1, s.Direction, s.Nutrient, s.Original, s.Replacement, s.Quantity, s.Score, s.Reason); err != nil {
			return err
		}
	}
	return nil
}
