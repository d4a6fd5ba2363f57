// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/pkg/errors"
)

const maxBodyBytes = 1 << 20

// APIHandlers handles REST API requests
type APIHandlers struct {
	swapService    inbound.SwapService
	catalogService inbound.CatalogService
	validate       *validator.Validate
	version        string
	logger         *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	swapService inbound.SwapService,
	catalogService inbound.CatalogService,
	version string,
	logger *zap.Logger,
) *APIHandlers {
	return &APIHandlers{
		swapService:    swapService,
		catalogService: catalogService,
		validate:       NewValidator(),
		version:        version,
		logger:         logger.Named("api"),
	}
}

// NewValidator returns a validator that reports fields by their JSON names
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListFoods handles GET /api/v1/foods
func (h *APIHandlers) ListFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.catalogService.ListFoods(r.Context(), inbound.FoodQuery{Group: r.URL.Query().Get("group")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    foods,
		Message: fmt.Sprintf("%d foods", len(foods)),
	})
}

// GetFood handles GET /api/v1/foods/{id}
func (h *APIHandlers) GetFood(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.writeError(w, r, errors.NewBadRequestError("food id must be a positive integer"))
		return
	}

	food, err := h.catalogService.GetFood(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: food})
}

// ImportFoods handles POST /api/v1/foods. The body is a JSON array of foods.
func (h *APIHandlers) ImportFoods(w http.ResponseWriter, r *http.Request) {
	var foods []nutrition.FoodItem
	if err := h.decode(w, r, &foods); err != nil {
		h.writeError(w, r, err)
		return
	}

	cmd := inbound.ImportFoodsCommand{Foods: foods}
	if err := h.validateStruct(cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.catalogService.ImportFoods(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
		Message: "Foods imported successfully",
	})
}

// CreateMeal handles POST /api/v1/meals
func (h *APIHandlers) CreateMeal(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateMealCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validateStruct(cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	meal, err := h.swapService.CreateMeal(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/meals/"+meal.ID.String())
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    meal,
		Message: "Meal created successfully",
	})
}

// GetMeal handles GET /api/v1/meals/{id}
func (h *APIHandlers) GetMeal(w http.ResponseWriter, r *http.Request) {
	mealID, err := mealIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	meal, err := h.swapService.GetMeal(r.Context(), mealID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: meal})
}

// AnalyzeMeal handles GET /api/v1/meals/{id}/analysis
func (h *APIHandlers) AnalyzeMeal(w http.ResponseWriter, r *http.Request) {
	mealID, err := mealIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	analysis, err := h.swapService.AnalyzeMeal(r.Context(), mealID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: analysis})
}

// SuggestSwaps handles POST /api/v1/meals/{id}/swaps
func (h *APIHandlers) SuggestSwaps(w http.ResponseWriter, r *http.Request) {
	mealID, err := mealIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var cmd inbound.SuggestSwapsCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.MealID = mealID
	if err := h.validateStruct(cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.swapService.SuggestSwaps(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
		Message: fmt.Sprintf("%d swap suggestions", len(result.Suggestions)),
	})
}

// ApplySwap handles POST /api/v1/meals/{id}/swaps/apply
func (h *APIHandlers) ApplySwap(w http.ResponseWriter, r *http.Request) {
	mealID, err := mealIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var cmd inbound.ApplySwapCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.MealID = mealID

	meal, err := h.swapService.ApplySwap(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    meal,
		Message: "Swap applied successfully",
	})
}

// HealthCheck handles GET /health
func (h *APIHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   h.version,
		},
		Message: "Service is healthy",
	})
}

func mealIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.NewBadRequestError("meal id must be a UUID")
	}
	return id, nil
}

func (h *APIHandlers) decode(w http.ResponseWriter, r *http.Request, target interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewBadRequestError("request body is required")
		}
		return errors.NewBadRequestError("invalid JSON body").WithCause(err)
	}
	return nil
}

func (h *APIHandlers) validateStruct(v interface{}) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}

	details := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, errors.ValidationError{
			Field:   fieldPath(fe),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return errors.NewValidationErrors(details)
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// writeJSON writes a JSON response
func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps err onto its status code and error body
func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.Wrap(err, "Unexpected error")
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}

	h.writeJSON(w, status, errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}
