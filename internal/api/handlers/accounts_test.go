package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/testutil"
)

func TestAccountHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, nil)
	handler := NewAccountHandler(svc.Accounts)

	var created model.Account
	t.Run("creates an account", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateAccount(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/account",
			map[string]string{"name": "Kraken", "type": "exchange", "currency": "eur"}, nil))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		testutil.DecodeJSON(t, w, &created)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "EUR", created.Currency)
	})

	t.Run("rejects invalid bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateAccount(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/account",
			map[string]string{"name": "", "type": "piggybank"}, nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp response.ErrorResponse
		testutil.DecodeJSON(t, w, &resp)
		details, ok := resp.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "name")
		assert.Contains(t, details, "type")

		w = httptest.NewRecorder()
		handler.CreateAccount(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/account",
			map[string]any{"name": "x", "bogus": true}, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreateAccount(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/account",
			map[string]string{"name": "Kraken"}, nil))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	idParam := map[string]string{"accountId": strconv.FormatInt(created.ID, 10)}

	t.Run("updates and reads back", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.UpdateAccount(w, testutil.NewJSONRequest(t, http.MethodPut, "/api/account/1",
			map[string]string{"type": "wallet"}, idParam))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.NewRecorder()
		handler.GetAccount(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/account/1", idParam))
		require.Equal(t, http.StatusOK, w.Code)
		var got model.Account
		testutil.DecodeJSON(t, w, &got)
		assert.Equal(t, model.AccountTypeWallet, got.Type)

		w = httptest.NewRecorder()
		handler.Accounts(w, httptest.NewRequest(http.MethodGet, "/api/account", nil))
		var list []model.Account
		testutil.DecodeJSON(t, w, &list)
		assert.Len(t, list, 1)
	})

	t.Run("deletes", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.DeleteAccount(w, testutil.NewRequestWithURLParams(http.MethodDelete, "/api/account/1", idParam))
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = httptest.NewRecorder()
		handler.GetAccount(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/account/1", idParam))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
