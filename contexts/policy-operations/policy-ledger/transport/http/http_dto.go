package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CoverageTermsDTO struct {
	CoverageLimit  float64 `json:"coverage_limit"`
	Deductible     float64 `json:"deductible"`
	MonthlyPremium float64 `json:"monthly_premium"`
	AnnualPremium  float64 `json:"annual_premium"`
	CopayPercent   float64 `json:"copay_percent"`
	MaxOutOfPocket float64 `json:"max_out_of_pocket"`
}

type BeneficiaryDTO struct {
	Name     string `json:"name"`
	Relation string `json:"relation,omitempty"`
}

type PolicyDTO struct {
	PolicyID         string           `json:"policy_id"`
	PolicyNumber     string           `json:"policy_number"`
	PlanID           string           `json:"plan_id"`
	CustomerID       string           `json:"customer_id"`
	Status           string           `json:"status"`
	Terms            CoverageTermsDTO `json:"terms"`
	PaymentFrequency string           `json:"payment_frequency"`
	PremiumAmount    float64          `json:"premium_amount"`
	EffectiveDate    string           `json:"effective_date"`
	ExpiryDate       string           `json:"expiry_date"`
	Beneficiaries    []BeneficiaryDTO `json:"beneficiaries,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

type IssuePolicyRequest struct {
	PlanID           string           `json:"plan_id"`
	CustomerID       string           `json:"customer_id"`
	PaymentFrequency string           `json:"payment_frequency"`
	EffectiveDate    string           `json:"effective_date,omitempty"`
	Beneficiaries    []BeneficiaryDTO `json:"beneficiaries,omitempty"`
}

type PolicyResponse struct {
	Status string    `json:"status"`
	Data   PolicyDTO `json:"data"`
}

type PolicyListResponse struct {
	Status string      `json:"status"`
	Data   []PolicyDTO `json:"data"`
}
