package models

type TopUpRequest struct {
	CardID string `json:"card_id"`
	Amount int64  `json:"amount"`
}

type PayRequest struct {
	CardID string `json:"card_id"`
	Fare   int64  `json:"fare"`
}
