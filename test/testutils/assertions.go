// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// SwapAssertions checks the properties every swap suggestion must hold
type SwapAssertions struct {
	t *testing.T
}

// NewSwapAssertions creates a new swap assertions helper
func NewSwapAssertions(t *testing.T) *SwapAssertions {
	return &SwapAssertions{t: t}
}

// ValidSuggestion asserts a suggestion swaps to a different food of the
// same group without resizing the portion.
func (sa *SwapAssertions) ValidSuggestion(s nutrition.SwapSuggestion, catalog *nutrition.Catalog) {
	assert.NotEqual(sa.t, s.Original.FoodID, s.Replacement.FoodID, "Replacement should be a different food")
	assert.Equal(sa.t, s.Original.Quantity, s.Replacement.Quantity, "Quantity should be carried over")
	assert.NotEmpty(sa.t, s.Reason, "Suggestion should carry a reason")

	original, ok := catalog.Lookup(s.Original.FoodID)
	require.True(sa.t, ok, "Original food should be in the catalog")
	replacement, ok := catalog.Lookup(s.Replacement.FoodID)
	require.True(sa.t, ok, "Replacement food should be in the catalog")
	assert.Equal(sa.t, original.FoodGroup, replacement.FoodGroup, "Replacement should share the food group")
}

// MovesToward asserts the replacement moves the goal nutrient strictly in the goal direction
func (sa *SwapAssertions) MovesToward(s nutrition.SwapSuggestion, catalog *nutrition.Catalog) {
	original, _ := catalog.Lookup(s.Original.FoodID)
	replacement, _ := catalog.Lookup(s.Replacement.FoodID)

	before := original.Amount(s.Goal.Nutrient)
	after := replacement.Amount(s.Goal.Nutrient)
	switch s.Goal.Direction {
	case nutrition.DirectionIncrease:
		assert.Greater(sa.t, after, before, "Increase goal should raise %s", s.Goal.Nutrient)
	case nutrition.DirectionDecrease:
		assert.Less(sa.t, after, before, "Decrease goal should lower %s", s.Goal.Nutrient)
	default:
		sa.t.Errorf("unexpected goal direction %q", s.Goal.Direction)
	}
}

// HTTPAssertions provides HTTP response assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSONResponse asserts the status code and decodes the body into target
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, status int, target interface{}) {
	require.Equal(ha.t, status, rec.Code, "Unexpected status, body: %s", rec.Body.String())
	assert.Contains(ha.t, rec.Header().Get("Content-Type"), "application/json")
	if target != nil {
		require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), target))
	}
}
