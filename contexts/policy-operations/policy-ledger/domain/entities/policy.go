package entities

import (
	"strings"
	"time"
)

type PolicyStatus string
type PaymentFrequency string

const (
	PolicyStatusPending   PolicyStatus = "pending"
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusExpired   PolicyStatus = "expired"
	PolicyStatusCancelled PolicyStatus = "cancelled"

	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyAnnual  PaymentFrequency = "annual"
)

// policyTermDays is the fixed policy term: one year from the effective date.
const policyTermDays = 365

// CoverageTerms is the frozen copy taken from the plan at issuance.
// Plan edits after issuance never reach an existing policy.
type CoverageTerms struct {
	CoverageLimit  float64
	Deductible     float64
	MonthlyPremium float64
	AnnualPremium  float64
	CopayPercent   float64
	MaxOutOfPocket float64
}

type Beneficiary struct {
	Name     string
	Relation string
}

type Policy struct {
	PolicyID         string
	PolicyNumber     string
	PlanID           string
	CustomerID       string
	Status           PolicyStatus
	Terms            CoverageTerms
	PaymentFrequency PaymentFrequency
	PremiumAmount    float64
	EffectiveDate    time.Time
	ExpiryDate       time.Time
	Beneficiaries    []Beneficiary
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

// CanTransition encodes the policy lifecycle. Expired and cancelled are
// terminal; expiry itself is derived from the clock, not requested.
func (p Policy) CanTransition(to PolicyStatus) bool {
	switch p.Status {
	case PolicyStatusPending:
		return to == PolicyStatusActive || to == PolicyStatusCancelled
	case PolicyStatusActive:
		return to == PolicyStatusExpired || to == PolicyStatusCancelled
	default:
		return false
	}
}

// PastExpiry reports whether an active policy should fold to expired.
func (p Policy) PastExpiry(now time.Time) bool {
	return p.Status == PolicyStatusActive && now.After(p.ExpiryDate)
}

// TermInstallments is the number of premium installments across the term.
func (p Policy) TermInstallments() int {
	if p.PaymentFrequency == FrequencyAnnual {
		return 1
	}
	return 12
}

// InstallmentsDue counts installments that have come due by now. The first
// installment is due immediately; a pending policy owes exactly one.
func (p Policy) InstallmentsDue(now time.Time) int {
	if p.Status == PolicyStatusPending {
		return 1
	}
	if now.Before(p.EffectiveDate) {
		return 1
	}
	due := 1
	if p.PaymentFrequency == FrequencyMonthly {
		elapsed := monthsBetween(p.EffectiveDate, now)
		due += elapsed
	}
	if max := p.TermInstallments(); due > max {
		due = max
	}
	return due
}

// PremiumDueAsOf is the total premium owed to date.
func (p Policy) PremiumDueAsOf(now time.Time) float64 {
	return float64(p.InstallmentsDue(now)) * p.PremiumAmount
}

// ExpiryFor computes the contractual expiry for an effective date.
func ExpiryFor(effective time.Time) time.Time {
	return effective.Add(policyTermDays * 24 * time.Hour)
}

func ParseFrequency(raw string) (PaymentFrequency, bool) {
	switch PaymentFrequency(strings.ToLower(strings.TrimSpace(raw))) {
	case FrequencyMonthly:
		return FrequencyMonthly, true
	case FrequencyAnnual:
		return FrequencyAnnual, true
	default:
		return "", false
	}
}

// PremiumFor picks the installment amount for a billing frequency.
func (t CoverageTerms) PremiumFor(frequency PaymentFrequency) float64 {
	if frequency == FrequencyAnnual {
		return t.AnnualPremium
	}
	return t.MonthlyPremium
}

func monthsBetween(from time.Time, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := int(to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
