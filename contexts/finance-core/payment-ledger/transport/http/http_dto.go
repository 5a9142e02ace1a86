package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaymentDTO struct {
	PaymentID   string  `json:"payment_id"`
	Reference   string  `json:"reference"`
	Kind        string  `json:"kind"`
	PolicyID    string  `json:"policy_id,omitempty"`
	ClaimID     string  `json:"claim_id,omitempty"`
	PayerID     string  `json:"payer_id"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Description string  `json:"description,omitempty"`
	RecordedAt  string  `json:"recorded_at"`
}

type RecordPaymentRequest struct {
	PolicyID    string  `json:"policy_id,omitempty"`
	ClaimID     string  `json:"claim_id,omitempty"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Description string  `json:"description,omitempty"`
}

type PaymentResponse struct {
	Status   string     `json:"status"`
	Data     PaymentDTO `json:"data"`
	Replayed bool       `json:"replayed,omitempty"`
}

type PaymentListResponse struct {
	Status string       `json:"status"`
	Data   []PaymentDTO `json:"data"`
}

type RevenueSummaryDTO struct {
	PremiumsCollected float64 `json:"premiums_collected"`
	ClaimsPaidOut     float64 `json:"claims_paid_out"`
	Net               float64 `json:"net"`
	PaymentCount      int     `json:"payment_count"`
}

type RevenueSummaryResponse struct {
	Status string            `json:"status"`
	Data   RevenueSummaryDTO `json:"data"`
}
