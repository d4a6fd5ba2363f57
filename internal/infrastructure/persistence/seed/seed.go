// Package seed holds the starter food catalog loaded into empty databases
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
)

//go:embed foods.yaml
var foodsYAML []byte

// CatalogFile is the YAML layout of a food catalog file
type CatalogFile struct {
	Foods []nutrition.FoodItem `yaml:"foods"`
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) ([]nutrition.FoodItem, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i, food := range file.Foods {
		if err := food.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, food.Name, err)
		}
	}

	return file.Foods, nil
}

// Foods returns the starter catalog
func Foods() ([]nutrition.FoodItem, error) {
	return ParseCatalog(foodsYAML)
}

// Load writes the starter catalog through foods when the catalog is empty.
// It returns the number of foods written, zero when foods already existed.
func Load(ctx context.Context, foods outbound.FoodRepository) (int, error) {
	count, err := foods.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	items, err := Foods()
	if err != nil {
		return 0, err
	}

	if err := foods.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("failed to seed foods: %w", err)
	}

	return len(items), nil
}
