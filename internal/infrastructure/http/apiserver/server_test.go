package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/infrastructure/config"
	"github.com/alchemorsel/mealswap/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/mealswap/internal/infrastructure/monitoring"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/pkg/errors"
	"github.com/alchemorsel/mealswap/pkg/healthcheck"
	"github.com/alchemorsel/mealswap/test/testutils"
)

type APIServerTestSuite struct {
	suite.Suite
	cfg     *config.Config
	swaps   *testutils.MockSwapService
	catalog *testutils.MockCatalogService
	metrics *monitoring.MetricsCollector
	server  *APIServer
	asserts *testutils.HTTPAssertions
}

func (s *APIServerTestSuite) SetupTest() {
	s.cfg = &config.Config{
		App:    config.AppConfig{Name: "mealswap", Version: "test"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: 5 * time.Second},
	}
	s.buildServer()
}

func (s *APIServerTestSuite) buildServer() {
	s.swaps = &testutils.MockSwapService{}
	s.catalog = &testutils.MockCatalogService{}
	s.metrics = monitoring.NewMetricsCollector()
	s.server = NewAPIServer(s.cfg, zaptest.NewLogger(s.T()), s.swaps, s.catalog, s.metrics, nil)
	s.asserts = testutils.NewHTTPAssertions(s.T())
}

func (s *APIServerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *APIServerTestSuite) errorCode(rec *httptest.ResponseRecorder) errors.ErrorCode {
	var resp errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (s *APIServerTestSuite) TestHealthAndMetrics() {
	s.Run("Health_ShouldReportHealthy", func() {
		var resp handlers.APIResponse
		s.asserts.JSONResponse(s.do(http.MethodGet, "/health", ""), http.StatusOK, &resp)
		s.True(resp.Success)
	})

	s.Run("HealthChecks_FailingDependency_ShouldReturnUnavailable", func() {
		health := healthcheck.New("test", zap.NewNop())
		health.Register("database", healthcheck.CheckFunc(func(context.Context) (healthcheck.Status, string, map[string]any) {
			return healthcheck.StatusUnhealthy, "connection refused", nil
		}))
		server := NewAPIServer(s.cfg, zap.NewNop(), s.swaps, s.catalog, nil, health)

		health503 := httptest.NewRecorder()
		server.Handler().ServeHTTP(health503, httptest.NewRequest(http.MethodGet, "/health", nil))
		live := httptest.NewRecorder()
		server.Handler().ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		ready := httptest.NewRecorder()
		server.Handler().ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		s.Equal(http.StatusServiceUnavailable, health503.Code)
		s.Contains(health503.Body.String(), "connection refused")
		s.Equal(http.StatusOK, live.Code)
		s.Equal(http.StatusServiceUnavailable, ready.Code)
	})

	s.Run("Metrics_ShouldExposeRequestCounters", func() {
		s.do(http.MethodGet, "/health", "")

		rec := s.do(http.MethodGet, "/metrics", "")

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "http_requests_total")
	})

	s.Run("OpenAPI_ShouldServeJSONDocument", func() {
		var doc map[string]interface{}
		s.asserts.JSONResponse(s.do(http.MethodGet, "/api/v1/openapi.json", ""), http.StatusOK, &doc)
		s.Equal("3.0.3", doc["openapi"])
		s.Contains(doc["paths"], "/meals/{id}/swaps")
	})
}

func (s *APIServerTestSuite) TestFoods() {
	s.Run("List_ShouldPassGroupFilter", func() {
		s.SetupTest()

		// Arrange
		foods := []inbound.FoodDTO{{ID: 1, Name: "Beef", FoodGroup: "Meat"}}
		s.catalog.On("ListFoods", mock.Anything, inbound.FoodQuery{Group: "Meat"}).Return(foods, nil)

		// Act
		rec := s.do(http.MethodGet, "/api/v1/foods?group=Meat", "")

		// Assert
		var resp struct {
			Success bool              `json:"success"`
			Data    []inbound.FoodDTO `json:"data"`
		}
		s.asserts.JSONResponse(rec, http.StatusOK, &resp)
		s.Equal(foods, resp.Data)
	})

	s.Run("Get_InvalidID_ShouldReturnBadRequest", func() {
		s.SetupTest()

		rec := s.do(http.MethodGet, "/api/v1/foods/abc", "")

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Equal(errors.CodeBadRequest, s.errorCode(rec))
		s.catalog.AssertNotCalled(s.T(), "GetFood", mock.Anything, mock.Anything)
	})

	s.Run("Get_Unknown_ShouldReturnNotFound", func() {
		s.SetupTest()

		s.catalog.On("GetFood", mock.Anything, 77).Return(nil, errors.NewFoodNotFoundError(77))

		rec := s.do(http.MethodGet, "/api/v1/foods/77", "")

		s.asserts.JSONResponse(rec, http.StatusNotFound, nil)
		s.Equal(errors.CodeFoodNotFound, s.errorCode(rec))
	})

	s.Run("Import_ShouldAcceptArray", func() {
		s.SetupTest()

		// Arrange
		body := `[{"id":20,"name":"Tempeh","food_group":"Legumes","calories_per_100":190,"nutrients":{"Protein":19}}]`
		expected := inbound.ImportFoodsCommand{Foods: []nutrition.FoodItem{{
			ID: 20, Name: "Tempeh", FoodGroup: "Legumes", CaloriesPer100: 190,
			Nutrients: map[string]float64{"Protein": 19},
		}}}
		s.catalog.On("ImportFoods", mock.Anything, expected).Return(&inbound.ImportResultDTO{Imported: 1}, nil)

		// Act
		rec := s.do(http.MethodPost, "/api/v1/foods", body)

		// Assert
		s.asserts.JSONResponse(rec, http.StatusOK, nil)
		s.catalog.AssertExpectations(s.T())
	})

	s.Run("Import_EmptyArray_ShouldFailValidation", func() {
		s.SetupTest()

		rec := s.do(http.MethodPost, "/api/v1/foods", `[]`)

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Equal(errors.CodeValidationFailed, s.errorCode(rec))
	})
}

func (s *APIServerTestSuite) TestMeals() {
	s.Run("Create_ShouldReturnCreatedWithLocation", func() {
		s.SetupTest()

		// Arrange
		id := uuid.New()
		cmd := inbound.CreateMealCommand{Name: "Lunch", Ingredients: []nutrition.IngredientEntry{{FoodID: 1, Quantity: 120}}}
		s.swaps.On("CreateMeal", mock.Anything, cmd).Return(&inbound.MealDTO{ID: id, Name: "Lunch", Version: 1}, nil)

		// Act
		rec := s.do(http.MethodPost, "/api/v1/meals", `{"name":"Lunch","ingredients":[{"food_id":1,"quantity":120}]}`)

		// Assert
		s.asserts.JSONResponse(rec, http.StatusCreated, nil)
		s.Equal("/api/v1/meals/"+id.String(), rec.Header().Get("Location"))
	})

	s.Run("Create_MissingName_ShouldFailValidation", func() {
		s.SetupTest()

		rec := s.do(http.MethodPost, "/api/v1/meals", `{"ingredients":[{"food_id":1,"quantity":120}]}`)

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Equal(errors.CodeValidationFailed, s.errorCode(rec))
		s.Contains(rec.Body.String(), "name is required")
		s.swaps.AssertNotCalled(s.T(), "CreateMeal", mock.Anything, mock.Anything)
	})

	s.Run("Create_UnknownField_ShouldReturnBadRequest", func() {
		s.SetupTest()

		rec := s.do(http.MethodPost, "/api/v1/meals", `{"name":"Lunch","calories":5}`)

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Equal(errors.CodeBadRequest, s.errorCode(rec))
	})

	s.Run("Create_FormBody_ShouldBeUnsupported", func() {
		s.SetupTest()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/meals", strings.NewReader("name=Lunch"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.server.Handler().ServeHTTP(rec, req)

		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})

	s.Run("Get_InvalidUUID_ShouldReturnBadRequest", func() {
		s.SetupTest()

		rec := s.do(http.MethodGet, "/api/v1/meals/42", "")

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
	})

	s.Run("Analysis_ShouldReturnTotals", func() {
		s.SetupTest()

		id := uuid.New()
		s.swaps.On("AnalyzeMeal", mock.Anything, id).Return(&inbound.MealAnalysisDTO{
			MealID: id,
			Totals: map[string]float64{"calories": 300},
		}, nil)

		rec := s.do(http.MethodGet, "/api/v1/meals/"+id.String()+"/analysis", "")

		s.asserts.JSONResponse(rec, http.StatusOK, nil)
		s.Contains(rec.Body.String(), `"calories":300`)
	})
}

func (s *APIServerTestSuite) TestSwaps() {
	s.Run("Suggest_ShouldBindMealIDFromPath", func() {
		s.SetupTest()

		// Arrange
		id := uuid.New()
		cmd := inbound.SuggestSwapsCommand{
			MealID: id,
			Goals:  []inbound.GoalInput{{Nutrient: "Calories", Direction: "decrease", TargetAmount: 50}},
		}
		s.swaps.On("SuggestSwaps", mock.Anything, cmd).Return(&inbound.SwapSuggestionsDTO{
			MealID:      id,
			MealVersion: 1,
			Suggestions: []inbound.SwapSuggestionDTO{{Nutrient: "calories", Reason: "Replace Beef with Chicken"}},
		}, nil)

		// Act
		rec := s.do(http.MethodPost, "/api/v1/meals/"+id.String()+"/swaps",
			`{"goals":[{"nutrient":"Calories","direction":"decrease","target_amount":50}]}`)

		// Assert
		var resp struct {
			Data inbound.SwapSuggestionsDTO `json:"data"`
		}
		s.asserts.JSONResponse(rec, http.StatusOK, &resp)
		s.Len(resp.Data.Suggestions, 1)
		s.swaps.AssertExpectations(s.T())
	})

	s.Run("Suggest_NoGoals_ShouldFailValidation", func() {
		s.SetupTest()

		rec := s.do(http.MethodPost, "/api/v1/meals/"+uuid.NewString()+"/swaps", `{"goals":[]}`)

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Equal(errors.CodeValidationFailed, s.errorCode(rec))
	})

	s.Run("Suggest_NegativeTarget_ShouldFailValidation", func() {
		s.SetupTest()

		rec := s.do(http.MethodPost, "/api/v1/meals/"+uuid.NewString()+"/swaps",
			`{"goals":[{"nutrient":"fat","direction":"decrease","target_amount":-1}]}`)

		s.asserts.JSONResponse(rec, http.StatusBadRequest, nil)
		s.Contains(rec.Body.String(), "goals[0].target_amount")
	})

	s.Run("Apply_NotApplicable_ShouldReturnUnprocessable", func() {
		s.SetupTest()

		s.swaps.On("ApplySwap", mock.Anything, mock.Anything).
			Return(nil, errors.NewSwapNotApplicableError("replacement must be in the same food group"))

		rec := s.do(http.MethodPost, "/api/v1/meals/"+uuid.NewString()+"/swaps/apply",
			`{"original":{"food_id":1,"quantity":100},"replacement":{"food_id":9,"quantity":100}}`)

		s.asserts.JSONResponse(rec, http.StatusUnprocessableEntity, nil)
		s.Equal(errors.CodeSwapNotApplicable, s.errorCode(rec))
	})

	s.Run("Apply_Conflict_ShouldReturnConflict", func() {
		s.SetupTest()

		s.swaps.On("ApplySwap", mock.Anything, mock.Anything).Return(nil, errors.NewConflictError("meal was modified concurrently"))

		rec := s.do(http.MethodPost, "/api/v1/meals/"+uuid.NewString()+"/swaps/apply",
			`{"original":{"food_id":1,"quantity":100},"replacement":{"food_id":2,"quantity":100}}`)

		s.asserts.JSONResponse(rec, http.StatusConflict, nil)
	})
}

func (s *APIServerTestSuite) TestRateLimit_ShouldRejectBurstOverflow() {
	// Arrange
	s.cfg.Server.RateLimitRPS = 0.1
	s.cfg.Server.RateLimitBurst = 1
	s.buildServer()
	s.catalog.On("ListFoods", mock.Anything, mock.Anything).Return([]inbound.FoodDTO{}, nil)

	// Act
	first := s.do(http.MethodGet, "/api/v1/foods", "")
	second := s.do(http.MethodGet, "/api/v1/foods", "")
	health := s.do(http.MethodGet, "/health", "")

	// Assert
	s.Equal(http.StatusOK, first.Code)
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.Equal(http.StatusOK, health.Code)
}

func TestAPIServerTestSuite(t *testing.T) {
	suite.Run(t, new(APIServerTestSuite))
}
