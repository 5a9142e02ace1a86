package entities

import (
	"strings"
	"time"
)

type PlanStatus string
type PlanType string

const (
	PlanStatusDraft   PlanStatus = "draft"
	PlanStatusActive  PlanStatus = "active"
	PlanStatusRetired PlanStatus = "retired"

	PlanTypeBasic      PlanType = "basic"
	PlanTypeStandard   PlanType = "standard"
	PlanTypePremium    PlanType = "premium"
	PlanTypeEnterprise PlanType = "enterprise"
)

// CoverageTerms is the financial shape of a plan. Policies take a frozen
// copy at issuance, so later plan edits never change existing policies.
type CoverageTerms struct {
	CoverageLimit  float64
	Deductible     float64
	MonthlyPremium float64
	AnnualPremium  float64
	CopayPercent   float64
	MaxOutOfPocket float64
}

type Plan struct {
	PlanID      string
	Name        string
	PlanType    PlanType
	Description string
	Status      PlanStatus
	Terms       CoverageTerms
	Benefits    []string
	Exclusions  []string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// CanTransition encodes the catalog lifecycle: draft plans activate,
// active plans retire, retirement is terminal.
func (p Plan) CanTransition(to PlanStatus) bool {
	switch p.Status {
	case PlanStatusDraft:
		return to == PlanStatusActive
	case PlanStatusActive:
		return to == PlanStatusRetired
	default:
		return false
	}
}

func IsSupportedPlanType(raw string) (PlanType, bool) {
	switch PlanType(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanTypeBasic:
		return PlanTypeBasic, true
	case PlanTypeStandard:
		return PlanTypeStandard, true
	case PlanTypePremium:
		return PlanTypePremium, true
	case PlanTypeEnterprise:
		return PlanTypeEnterprise, true
	default:
		return "", false
	}
}

func (t CoverageTerms) Valid() bool {
	return t.CoverageLimit > 0 &&
		t.Deductible >= 0 &&
		t.MonthlyPremium > 0 &&
		t.AnnualPremium > 0 &&
		t.CopayPercent >= 0 && t.CopayPercent <= 100 &&
		t.MaxOutOfPocket >= 0
}
