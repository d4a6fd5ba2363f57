package swap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	domainswap "github.com/alchemorsel/mealswap/internal/domain/swap"
)

// DefaultKeyPrefix is used when no cache key prefix is configured
const DefaultKeyPrefix = "mealswap"

// KeyBuilder builds suggestion cache keys
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a key builder
func NewKeyBuilder(prefix string) KeyBuilder {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return KeyBuilder{prefix: prefix}
}

// SwapsPrefix covers every cached suggestion
func (k KeyBuilder) SwapsPrefix() string {
	return k.prefix + ":swaps:"
}

// MealPrefix covers every cached suggestion for one meal
func (k KeyBuilder) MealPrefix(mealID uuid.UUID) string {
	return k.SwapsPrefix() + mealID.String() + ":"
}

// Suggestions returns the key for a meal version and goal list. Only the
// goals the engine considers take part, in normalized form, so equivalent
// requests share an entry.
func (k KeyBuilder) Suggestions(mealID uuid.UUID, version int64, goals []nutrition.Goal) string {
	return fmt.Sprintf("%sv%d:%s", k.MealPrefix(mealID), version, fingerprint(goals))
}

func fingerprint(goals []nutrition.Goal) string {
	if len(goals) > domainswap.MaxGoals {
		goals = goals[:domainswap.MaxGoals]
	}

	h := sha256.New()
	for _, goal := range goals {
		g := nutrition.NewGoalContext(goal)
		h.Write([]byte(g.Nutrient))
		h.Write([]byte{0})
		h.Write([]byte(g.Direction))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(g.TargetAmount, 'g', -1, 64)))
		h.Write([]byte{0})
		h.Write([]byte(g.Intensity))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
