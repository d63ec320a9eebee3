package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/api/handlers"
	"github.com/annuaire-sante/backend/internal/api/middleware"
	"github.com/annuaire-sante/backend/internal/api/routes"
	"github.com/annuaire-sante/backend/internal/domain/entities"
)

const secret = "router-test-secret"

func newTestRouter() http.Handler {
	router := routes.NewRouter(
		routes.Handlers{
			Search:        handlers.NewSearchHandler(nil, nil),
			Structure:     handlers.NewStructureHandler(nil),
			Association:   handlers.NewAssociationHandler(nil),
			Catalog:       handlers.NewCatalogHandler(nil),
			Evaluation:    handlers.NewEvaluationHandler(nil, nil),
			SearchHistory: handlers.NewSearchHistoryHandler(nil),
			Health:        handlers.NewHealthHandler(map[string]handlers.Pinger{}),
		},
		middleware.NewAuthenticator(secret, ""),
		middleware.NewRateLimiter("search", 1, 1),
		[]string{"https://annuaire.example"},
		nil,
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Content-Type"))
}

func TestRouter_MutationsRequireCaller(t *testing.T) {
	handler := newTestRouter()

	tests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/api/structures-sante/1/services"},
		{http.MethodPut, "/api/structures-sante/1/assurances/2"},
		{http.MethodDelete, "/api/structures-sante/1/stocks/3"},
		{http.MethodPost, "/api/structures-sante"},
		{http.MethodPost, "/api/structures-sante/1/evaluations"},
		{http.MethodPost, "/api/services"},
		{http.MethodGet, "/api/search-history"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{}`)))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_InvalidBearerRejectedBeforeRouting(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ValidBearerReachesHandler(t *testing.T) {
	token, err := middleware.NewAuthenticator(secret, "").
		IssueToken(&entities.Caller{ID: 3, Role: entities.RoleUser}, time.Minute)
	require.NoError(t, err)

	// authentication passes; the path id is rejected before any service call
	req := httptest.NewRequest(http.MethodPost, "/api/structures-sante/abc/services", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"id"`)
}

func TestRouter_PreflightAnsweredByCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/structures-sante/1/services", nil)
	req.Header.Set("Origin", "https://annuaire.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, "https://annuaire.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
