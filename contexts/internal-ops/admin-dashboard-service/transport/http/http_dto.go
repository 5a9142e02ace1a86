package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UserStatsDTO struct {
	TotalUsers  int            `json:"total_users"`
	ActiveUsers int            `json:"active_users"`
	ByRole      map[string]int `json:"by_role"`
}

type ClaimsStatsDTO struct {
	TotalClaims    int            `json:"total_claims"`
	ByStatus       map[string]int `json:"by_status"`
	TotalRequested float64        `json:"total_requested"`
	TotalApproved  float64        `json:"total_approved"`
}

type RevenueStatsDTO struct {
	PremiumsCollected float64 `json:"premiums_collected"`
	ClaimsPaidOut     float64 `json:"claims_paid_out"`
	Net               float64 `json:"net"`
	PaymentCount      int     `json:"payment_count"`
}

type OverviewDTO struct {
	Users        *UserStatsDTO    `json:"users,omitempty"`
	PolicyCounts map[string]int   `json:"policy_counts"`
	Claims       ClaimsStatsDTO   `json:"claims"`
	Revenue      *RevenueStatsDTO `json:"revenue,omitempty"`
	GeneratedAt  string           `json:"generated_at"`
}

type OverviewResponse struct {
	Status string      `json:"status"`
	Data   OverviewDTO `json:"data"`
}

type RecordAdminActionRequest struct {
	Action        string `json:"action"`
	TargetID      string `json:"target_id"`
	Justification string `json:"justification"`
	SourceIP      string `json:"source_ip"`
	CorrelationID string `json:"correlation_id"`
}

type AuditLogDTO struct {
	AuditID       string `json:"audit_id"`
	ActorID       string `json:"actor_id"`
	Action        string `json:"action"`
	TargetID      string `json:"target_id,omitempty"`
	Justification string `json:"justification"`
	OccurredAt    string `json:"occurred_at"`
}

type AuditLogResponse struct {
	Status string      `json:"status"`
	Data   AuditLogDTO `json:"data"`
}

type AuditLogListResponse struct {
	Status string        `json:"status"`
	Data   []AuditLogDTO `json:"data"`
}
