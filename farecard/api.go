package farecard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/farekit/transit/farecard/models"
	"github.com/go-chi/chi/v5"
)

// API is a HTTP API for the fare card service
type API struct {
	service *Service
}

func NewAPI(service *Service) *API {
	return &API{
		service: service,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/card", func(r chi.Router) {
		r.Post("/create", a.createCard)
		r.Get("/balance/{cardID}", a.getBalance)
		r.Post("/topup", a.topUp)
		r.Get("/transactions/{cardID}", a.getTransactions)
		r.Post("/pay", a.pay)
	})
}

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	card, err := a.service.OpenAccount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Gagal membuat kartu",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Kartu berhasil dibuat",
		"card_id": card.CardID,
	})
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	card, err := a.service.Balance(r.Context(), cardID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCardID):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid card ID format"})
		case errors.Is(err, models.ErrCardNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Card not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (a *API) topUp(w http.ResponseWriter, r *http.Request) {
	req := models.TopUpRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	res, err := a.service.TopUp(r.Context(), req.CardID, req.Amount)
	if err != nil {
		var validation *models.ValidationError
		switch {
		case errors.As(err, &validation):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Validation Error",
				"details": validation.Details,
			})
		case errors.Is(err, models.ErrCardNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Kartu tidak ditemukan"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Gagal melakukan top up",
				"message": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Top-up berhasil",
		"new_balance": res.NewBalance,
	})
}

func (a *API) getTransactions(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	entries, err := a.service.Transactions(r.Context(), cardID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCardID):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid card ID format"})
		case errors.Is(err, models.ErrCardNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Card not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
		return
	}

	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) pay(w http.ResponseWriter, r *http.Request) {
	req := models.PayRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	res, err := a.service.Pay(r.Context(), req.CardID, req.Fare)
	if err != nil {
		var validation *models.ValidationError
		var insufficient *models.InsufficientFundsError
		switch {
		case errors.As(err, &validation):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Validation Error",
				"details": validation.Details,
			})
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":           "Saldo tidak mencukupi",
				"current_balance": insufficient.Balance,
			})
		case errors.Is(err, models.ErrCardNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Kartu tidak ditemukan"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Gagal melakukan pembayaran",
				"message": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Pembayaran berhasil",
		"remaining_balance": res.NewBalance,
		"transaction_id":    res.EntryID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
