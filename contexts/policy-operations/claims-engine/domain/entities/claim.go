package entities

import "time"

type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "submitted"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusDenied      ClaimStatus = "denied"
	ClaimStatusPaid        ClaimStatus = "paid"
)

type Claim struct {
	ClaimID         string
	ClaimNumber     string
	PolicyID        string
	CustomerID      string
	ProviderID      string
	ProviderName    string
	ServiceDate     time.Time
	DiagnosisCode   string
	ProcedureCode   string
	Description     string
	AmountRequested float64
	AmountApproved  float64
	DenialReason    string
	ReviewerID      string
	ReviewedAt      *time.Time
	Status          ClaimStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// CanTransition encodes the adjudication lifecycle. Every claim passes
// through review before a decision; denied and paid are terminal.
func (c Claim) CanTransition(to ClaimStatus) bool {
	switch c.Status {
	case ClaimStatusSubmitted:
		return to == ClaimStatusUnderReview
	case ClaimStatusUnderReview:
		return to == ClaimStatusApproved || to == ClaimStatusDenied
	case ClaimStatusApproved:
		return to == ClaimStatusPaid
	default:
		return false
	}
}

// OpenForAdjudication reports whether the claim still blocks cancellation
// of its policy: under review, or approved but not yet paid out.
func (c Claim) OpenForAdjudication() bool {
	return c.Status == ClaimStatusUnderReview || c.Status == ClaimStatusApproved
}

// CountsAgainstCoverage reports whether the claim's approved amount consumes
// the policy's coverage limit.
func (c Claim) CountsAgainstCoverage() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusPaid
}
