package entities

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionTransition Action = "transition"
	ActionRecord     Action = "record"
)

type Resource string

const (
	ResourcePlan    Resource = "plan"
	ResourcePolicy  Resource = "policy"
	ResourceClaim   Resource = "claim"
	ResourcePayment Resource = "payment"
	ResourceUser    Resource = "user"
)

// Ownership carries the facts about the actor/resource pairing that the
// rule table needs. It is resolved by the caller; the table itself stays pure.
type Ownership struct {
	// OwnsResource is true when the actor is the resource's owner
	// (e.g. the policy's customer).
	OwnsResource bool
	// ActsForOwner is true when the actor is a provider with an active
	// relationship to the resource's owner.
	ActsForOwner bool
}

// Decision is the gate verdict plus the rule that produced it, kept for
// audit tooling.
type Decision struct {
	Allowed bool
	Rule    string
}

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

func ParseAction(raw string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionCreate:
		return ActionCreate, true
	case ActionRead:
		return ActionRead, true
	case ActionUpdate:
		return ActionUpdate, true
	case ActionTransition:
		return ActionTransition, true
	case ActionRecord:
		return ActionRecord, true
	default:
		return "", false
	}
}

func ParseResource(raw string) (Resource, bool) {
	switch Resource(strings.ToLower(strings.TrimSpace(raw))) {
	case ResourcePlan:
		return ResourcePlan, true
	case ResourcePolicy:
		return ResourcePolicy, true
	case ResourceClaim:
		return ResourceClaim, true
	case ResourcePayment:
		return ResourcePayment, true
	case ResourceUser:
		return ResourceUser, true
	default:
		return "", false
	}
}
