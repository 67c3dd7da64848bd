package farecard_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farekit/transit/farecard"
	"github.com/farekit/transit/farecard/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	router := chi.NewRouter()
	api := farecard.NewAPI(farecard.NewService(farecard.NewRepository(), farecard.DefaultConfig()))
	api.AppendRoutes(router)

	return router
}

func createCard(t *testing.T, router *chi.Mux) string {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/card/create", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Message string `json:"message"`
		CardID  string `json:"card_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Kartu berhasil dibuat", resp.Message)
	require.Regexp(t, `^\d{8}$`, resp.CardID)

	return resp.CardID
}

func postJSON(t *testing.T, router *chi.Mux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	jsonReq, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonReq))
	router.ServeHTTP(w, req)

	return w
}

func getPath(t *testing.T, router *chi.Mux, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	return w
}

func TestCardLifecycle(t *testing.T) {
	router := newTestRouter(t)
	cardID := createCard(t, router)

	t.Run("new card starts at zero balance", func(t *testing.T) {
		w := getPath(t, router, "/card/balance/"+cardID)
		require.Equal(t, http.StatusOK, w.Code)

		card := models.Card{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
		require.Equal(t, cardID, card.CardID)
		require.Equal(t, int64(0), card.Balance)
	})

	t.Run("top up", func(t *testing.T) {
		w := postJSON(t, router, "/card/topup", models.TopUpRequest{CardID: cardID, Amount: 5000})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Message    string `json:"message"`
			NewBalance int64  `json:"new_balance"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "Top-up berhasil", resp.Message)
		require.Equal(t, int64(5000), resp.NewBalance)
	})

	t.Run("pay fare", func(t *testing.T) {
		w := postJSON(t, router, "/card/pay", models.PayRequest{CardID: cardID, Fare: 3000})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Message          string `json:"message"`
			RemainingBalance int64  `json:"remaining_balance"`
			TransactionID    string `json:"transaction_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "Pembayaran berhasil", resp.Message)
		require.Equal(t, int64(2000), resp.RemainingBalance)
		require.NotEmpty(t, resp.TransactionID)
	})

	t.Run("history lists entries in commit order", func(t *testing.T) {
		w := getPath(t, router, "/card/transactions/"+cardID)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []models.LedgerEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		require.Equal(t, int64(5000), entries[0].Amount)
		require.Equal(t, models.DescriptionTopUp, entries[0].Description)
		require.Equal(t, int64(-3000), entries[1].Amount)
		require.Equal(t, models.DescriptionFare, entries[1].Description)
	})

	t.Run("overdraft is rejected with current balance", func(t *testing.T) {
		w := postJSON(t, router, "/card/pay", models.PayRequest{CardID: cardID, Fare: 5000})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Error          string `json:"error"`
			CurrentBalance int64  `json:"current_balance"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "Saldo tidak mencukupi", resp.Error)
		require.Equal(t, int64(2000), resp.CurrentBalance)

		// rejected payment must not change the balance or the history
		w = getPath(t, router, "/card/balance/"+cardID)
		card := models.Card{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
		require.Equal(t, int64(2000), card.Balance)

		w = getPath(t, router, "/card/transactions/"+cardID)
		var entries []models.LedgerEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
	})
}

func TestBalanceValidation(t *testing.T) {
	router := newTestRouter(t)

	t.Run("malformed card id", func(t *testing.T) {
		w := getPath(t, router, "/card/balance/abc")
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "Invalid card ID format")
	})

	t.Run("unknown card", func(t *testing.T) {
		w := getPath(t, router, "/card/balance/00000001")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, w.Body.String(), "Card not found")
	})
}

func TestTopUpValidation(t *testing.T) {
	router := newTestRouter(t)
	cardID := createCard(t, router)

	tests := []struct {
		name   string
		req    models.TopUpRequest
		status int
		field  string
	}{
		{"amount below minimum", models.TopUpRequest{CardID: cardID, Amount: 500}, http.StatusBadRequest, "amount"},
		{"amount above maximum", models.TopUpRequest{CardID: cardID, Amount: 2000000}, http.StatusBadRequest, "amount"},
		{"missing amount", models.TopUpRequest{CardID: cardID}, http.StatusBadRequest, "amount"},
		{"short card id", models.TopUpRequest{CardID: "1234", Amount: 5000}, http.StatusBadRequest, "card_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/card/topup", tt.req)
			require.Equal(t, tt.status, w.Code)

			var resp struct {
				Error   string            `json:"error"`
				Details map[string]string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, "Validation Error", resp.Error)
			require.Contains(t, resp.Details, tt.field)
		})
	}

	t.Run("unknown card", func(t *testing.T) {
		w := postJSON(t, router, "/card/topup", models.TopUpRequest{CardID: "99999998", Amount: 5000})
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, w.Body.String(), "Kartu tidak ditemukan")
	})
}

func TestPayValidation(t *testing.T) {
	router := newTestRouter(t)
	cardID := createCard(t, router)

	t.Run("fare above maximum", func(t *testing.T) {
		w := postJSON(t, router, "/card/pay", models.PayRequest{CardID: cardID, Fare: 200000})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), fmt.Sprintf("at most %d", farecard.MaxFare))
	})

	t.Run("fare below minimum", func(t *testing.T) {
		w := postJSON(t, router, "/card/pay", models.PayRequest{CardID: cardID, Fare: 999})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), fmt.Sprintf("at least %d", farecard.MinFare))
	})

	t.Run("unknown card", func(t *testing.T) {
		w := postJSON(t, router, "/card/pay", models.PayRequest{CardID: "99999998", Fare: 5000})
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, w.Body.String(), "Kartu tidak ditemukan")
	})
}
