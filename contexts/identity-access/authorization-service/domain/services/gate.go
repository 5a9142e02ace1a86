package services

import "acphealth/contexts/identity-access/authorization-service/domain/entities"

// Decide evaluates the access rule table. Rules run in order and the first
// match wins; anything that falls through every rule is denied.
//
// The function is pure: every fact it needs arrives in its arguments.
func Decide(role entities.Role, action entities.Action, resource entities.Resource, ownership entities.Ownership) entities.Decision {
	// Rule 1: admin may do anything.
	if role == entities.RoleAdmin {
		return entities.Decision{Allowed: true, Rule: "admin_all"}
	}

	// Rule 2: agents manage plans, policies and claims for any owner, and may
	// record and read payments but not mutate them otherwise.
	if role == entities.RoleAgent {
		switch resource {
		case entities.ResourcePlan, entities.ResourcePolicy, entities.ResourceClaim:
			switch action {
			case entities.ActionCreate, entities.ActionRead, entities.ActionUpdate, entities.ActionTransition:
				return entities.Decision{Allowed: true, Rule: "agent_manage"}
			}
		case entities.ResourcePayment:
			switch action {
			case entities.ActionRecord, entities.ActionRead:
				return entities.Decision{Allowed: true, Rule: "agent_record_payment"}
			}
		}
		return entities.Decision{Allowed: false, Rule: "agent_denied"}
	}

	// Rule 3: providers may file claims only when actively linked to the
	// policy's customer, and are read-only elsewhere (own or linked records).
	if role == entities.RoleProvider {
		if resource == entities.ResourceClaim && action == entities.ActionCreate && ownership.ActsForOwner {
			return entities.Decision{Allowed: true, Rule: "provider_file_claim"}
		}
		if action == entities.ActionRead && (ownership.OwnsResource || ownership.ActsForOwner) {
			return entities.Decision{Allowed: true, Rule: "provider_read"}
		}
		return entities.Decision{Allowed: false, Rule: "provider_denied"}
	}

	// Rule 4: customers read their own records, file claims on their own
	// policies, and pay their own dues. All plan and admin actions are denied.
	if role == entities.RoleCustomer {
		if !ownership.OwnsResource {
			return entities.Decision{Allowed: false, Rule: "customer_not_owner"}
		}
		switch resource {
		case entities.ResourcePolicy, entities.ResourcePayment, entities.ResourceUser:
			if action == entities.ActionRead {
				return entities.Decision{Allowed: true, Rule: "customer_read_own"}
			}
		case entities.ResourceClaim:
			switch action {
			case entities.ActionRead, entities.ActionCreate:
				return entities.Decision{Allowed: true, Rule: "customer_own_claim"}
			}
		}
		if resource == entities.ResourcePayment && action == entities.ActionRecord {
			return entities.Decision{Allowed: true, Rule: "customer_pay_own"}
		}
		if resource == entities.ResourcePolicy && action == entities.ActionTransition {
			// Customers may request cancellation of their own policy; the
			// policy ledger still enforces the state preconditions.
			return entities.Decision{Allowed: true, Rule: "customer_cancel_own"}
		}
		return entities.Decision{Allowed: false, Rule: "customer_denied"}
	}

	// Rule 5: unknown roles fail closed.
	return entities.Decision{Allowed: false, Rule: "default_deny"}
}
