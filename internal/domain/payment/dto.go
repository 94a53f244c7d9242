package payment

// ResultRequest represents POST /reservations/{id}/payment-result body
type ResultRequest struct {
	IntentID string `json:"intent_id" validate:"required"`
	Status   string `json:"status" validate:"required"`
}

// IntentResponse is what the widget needs to collect the payment
type IntentResponse struct {
	IntentID     string  `json:"intent_id"`
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// ResultResponse reports the outcome of a widget callback
type ResultResponse struct {
	ReservaID int64  `json:"reserva_id"`
	Status    string `json:"status"`
	Estado    string `json:"estado,omitempty"`
}
