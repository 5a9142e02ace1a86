package ports

import (
	"context"
	"time"
)

type Actor struct {
	UserID string
	Role   string
}

type UserStats struct {
	TotalUsers  int
	ActiveUsers int
	ByRole      map[string]int
}

type ClaimsStats struct {
	TotalClaims    int
	ByStatus       map[string]int
	TotalRequested float64
	TotalApproved  float64
}

type RevenueStats struct {
	PremiumsCollected float64
	ClaimsPaidOut     float64
	Net               float64
	PaymentCount      int
}

// Overview is the dashboard payload. User and revenue sections are only
// populated for back-office viewers.
type Overview struct {
	Users        *UserStats
	PolicyCounts map[string]int
	Claims       ClaimsStats
	Revenue      *RevenueStats
	GeneratedAt  time.Time
}

type UserStatsProvider interface {
	UserStats(ctx context.Context) (UserStats, error)
}

// PolicyStatsProvider counts policies per status. An empty customerID means
// the whole book.
type PolicyStatsProvider interface {
	PolicyStatusCounts(ctx context.Context, customerID string) (map[string]int, error)
}

type ClaimStatsProvider interface {
	ClaimsSummary(ctx context.Context, customerID string) (ClaimsStats, error)
}

type RevenueStatsProvider interface {
	RevenueSummary(ctx context.Context) (RevenueStats, error)
}

type AuditLog struct {
	AuditID       string
	ActorID       string
	Action        string
	TargetID      string
	Justification string
	OccurredAt    time.Time
	SourceIP      string
	CorrelationID string
}

type Repository interface {
	AppendAuditLog(ctx context.Context, row AuditLog) error
	ListRecentAuditLogs(ctx context.Context, limit int) ([]AuditLog, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseBody []byte, at time.Time) error
}

type Clock interface {
	Now() time.Time
}
