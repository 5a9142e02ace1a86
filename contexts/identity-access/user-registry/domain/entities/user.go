package entities

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

// ParseRole maps a raw role string onto the closed role set.
// Unknown values are rejected so authorization stays fail-closed.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleAgent:
		return RoleAgent, true
	case RoleCustomer:
		return RoleCustomer, true
	case RoleProvider:
		return RoleProvider, true
	default:
		return "", false
	}
}

// User is an identity record. Identity fields are immutable after
// registration; role changes and deactivation go through admin operations.
// Users are never hard-deleted.
type User struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Address      string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderRelationship authorizes a provider to act for a customer,
// e.g. filing claims on the customer's policies.
type ProviderRelationship struct {
	RelationshipID string
	ProviderID     string
	CustomerID     string
	Active         bool
	CreatedAt      time.Time
	EndedAt        *time.Time
}

func (u User) CanAuthenticate() bool {
	return u.Active && u.PasswordHash != ""
}
