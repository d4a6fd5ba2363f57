// Package gorm provides GORM model definitions and repositories for foods and meals
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodModel represents the GORM model for catalog foods. Ids come from the
// catalog source and are never generated.
type FoodModel struct {
	ID             int         `gorm:"primaryKey;autoIncrement:false"`
	Name           string      `gorm:"type:varchar(255);not null"`
	FoodGroup      string      `gorm:"type:varchar(100);not null;index"`
	CaloriesPer100 float64     `gorm:"column:calories_per_100;not null;default:0"`
	Nutrients      NutrientMap `gorm:"type:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MealModel represents the GORM model for meals
type MealModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	// Relationships
	Ingredients []MealIngredientModel `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
}

// MealIngredientModel is one ingredient entry of a meal. Position keeps the
// entry order stable across loads.
type MealIngredientModel struct {
	ID       uint      `gorm:"primaryKey"`
	MealID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Position int       `gorm:"not null"`
	FoodID   int       `gorm:"not null;index"`
	Quantity float64   `gorm:"not null"`
}

// NutrientMap stores nutrient amounts as a JSON object
type NutrientMap map[string]float64

// Scan implements the sql.Scanner interface
func (n *NutrientMap) Scan(value interface{}) error {
	if value == nil {
		*n = NutrientMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	default:
		return fmt.Errorf("cannot scan %T into NutrientMap", value)
	}
}

// Value implements the driver.Valuer interface
func (n NutrientMap) Value() (driver.Value, error) {
	if len(n) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for MealModel
func (m *MealModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (FoodModel) TableName() string {
	return "foods"
}

func (MealModel) TableName() string {
	return "meals"
}

func (MealIngredientModel) TableName() string {
	return "meal_ingredients"
}

// AllModels lists the models AutoMigrate must create
func AllModels() []interface{} {
	return []interface{}{
		&FoodModel{},
		&MealModel{},
		&MealIngredientModel{},
	}
}
