package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClaimDTO struct {
	ClaimID         string  `json:"claim_id"`
	ClaimNumber     string  `json:"claim_number"`
	PolicyID        string  `json:"policy_id"`
	CustomerID      string  `json:"customer_id"`
	ProviderID      string  `json:"provider_id,omitempty"`
	ProviderName    string  `json:"provider_name"`
	ServiceDate     string  `json:"service_date"`
	DiagnosisCode   string  `json:"diagnosis_code,omitempty"`
	ProcedureCode   string  `json:"procedure_code,omitempty"`
	Description     string  `json:"description,omitempty"`
	AmountRequested float64 `json:"amount_requested"`
	AmountApproved  float64 `json:"amount_approved,omitempty"`
	DenialReason    string  `json:"denial_reason,omitempty"`
	ReviewerID      string  `json:"reviewer_id,omitempty"`
	ReviewedAt      string  `json:"reviewed_at,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

type FileClaimRequest struct {
	PolicyID      string  `json:"policy_id"`
	ProviderName  string  `json:"provider_name"`
	ServiceDate   string  `json:"service_date"`
	DiagnosisCode string  `json:"diagnosis_code,omitempty"`
	ProcedureCode string  `json:"procedure_code,omitempty"`
	Description   string  `json:"description,omitempty"`
	Amount        float64 `json:"amount"`
}

type ApproveClaimRequest struct {
	Amount float64 `json:"amount,omitempty"`
}

type DenyClaimRequest struct {
	Reason string `json:"reason"`
}

type ClaimResponse struct {
	Status string   `json:"status"`
	Data   ClaimDTO `json:"data"`
}

type ClaimListResponse struct {
	Status string     `json:"status"`
	Data   []ClaimDTO `json:"data"`
}

type ClaimsSummaryDTO struct {
	TotalClaims    int            `json:"total_claims"`
	ByStatus       map[string]int `json:"by_status"`
	TotalRequested float64        `json:"total_requested"`
	TotalApproved  float64        `json:"total_approved"`
}

type ClaimsSummaryResponse struct {
	Status string           `json:"status"`
	Data   ClaimsSummaryDTO `json:"data"`
}
