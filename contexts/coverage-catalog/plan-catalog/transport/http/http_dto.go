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

type PlanDTO struct {
	PlanID      string           `json:"plan_id"`
	Name        string           `json:"name"`
	PlanType    string           `json:"plan_type"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status"`
	Terms       CoverageTermsDTO `json:"terms"`
	Benefits    []string         `json:"benefits,omitempty"`
	Exclusions  []string         `json:"exclusions,omitempty"`
	OwnerID     string           `json:"owner_id"`
	CreatedAt   string           `json:"created_at"`
}

type CreatePlanRequest struct {
	Name        string           `json:"name"`
	PlanType    string           `json:"plan_type"`
	Description string           `json:"description,omitempty"`
	Terms       CoverageTermsDTO `json:"terms"`
	Benefits    []string         `json:"benefits,omitempty"`
	Exclusions  []string         `json:"exclusions,omitempty"`
}

type PlanResponse struct {
	Status string  `json:"status"`
	Data   PlanDTO `json:"data"`
}

type PlanListResponse struct {
	Status string    `json:"status"`
	Data   []PlanDTO `json:"data"`
}
