package models

// Card is a stored-value fare card. Balance is kept in minor currency
// units (rupiah) and never goes below zero.
type Card struct {
	CardID  string `json:"card_id"`
	Balance int64  `json:"balance"`
}
