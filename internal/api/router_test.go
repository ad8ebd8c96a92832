package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/wealth-tracker/internal/api"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockRegistry(testutil.NewMockProvider("mock")))
	cfg := &config.Config{
		CORS:  config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Price: config.PriceConfig{StaleAfter: 5 * time.Minute},
	}
	return api.NewRouter(api.Services{
		System:       svc.System,
		Accounts:     svc.Accounts,
		Transactions: svc.Transactions,
		Valuation:    svc.Valuation,
		Prices:       svc.Prices,
	}, cfg, nil)
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/api/system/health", "", http.StatusOK},
		{"stats", http.MethodGet, "/api/system/stats", "", http.StatusOK},
		{"list accounts", http.MethodGet, "/api/account", "", http.StatusOK},
		{"create account", http.MethodPost, "/api/account", `{"name":"Router"}`, http.StatusCreated},
		{"account id validated", http.MethodGet, "/api/account/abc", "", http.StatusBadRequest},
		{"unknown account", http.MethodGet, "/api/account/99", "", http.StatusNotFound},
		{"transaction id validated", http.MethodDelete, "/api/transaction/-1", "", http.StatusBadRequest},
		{"summary", http.MethodGet, "/api/portfolio/summary", "", http.StatusOK},
		{"holdings", http.MethodGet, "/api/portfolio/holdings", "", http.StatusOK},
		{"providers", http.MethodGet, "/api/price/providers", "", http.StatusOK},
		{"journal disabled", http.MethodGet, "/api/price/journal", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}
