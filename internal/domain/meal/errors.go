package meal

import "errors"

// Domain errors for meal operations

var (
	ErrMealNameRequired  = errors.New("meal name is required")
	ErrMealNameTooLong   = errors.New("meal name must not exceed 200 characters")
	ErrMealNotFound      = errors.New("meal not found")
	ErrNoIngredients     = errors.New("meal must have at least one ingredient")
	ErrSameFood          = errors.New("replacement must reference a different food")
	ErrQuantityMismatch  = errors.New("replacement quantity must equal the original quantity")
	ErrSwapNotApplicable = errors.New("no ingredient matches the swap original")
	ErrVersionConflict   = errors.New("meal was modified concurrently")
)
