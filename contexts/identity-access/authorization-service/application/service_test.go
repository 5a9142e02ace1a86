package application

import (
	"context"
	"errors"
	"testing"

	domainerrors "acphealth/contexts/identity-access/authorization-service/domain/errors"
	"acphealth/contexts/identity-access/authorization-service/ports"
)

type relationshipStub struct {
	links map[string]string
}

func (s relationshipStub) HasActiveProviderRelationship(ctx context.Context, providerID string, customerID string) (bool, error) {
	return s.links[providerID] == customerID, nil
}

func newGate(links map[string]string) Service {
	return Service{Relationships: relationshipStub{links: links}}
}

func TestCheckRuleTable(t *testing.T) {
	gate := newGate(map[string]string{"prov-1": "cust-1"})

	cases := []struct {
		name    string
		input   ports.CheckInput
		allowed bool
		rule    string
	}{
		{
			name:    "admin may do anything",
			input:   ports.CheckInput{ActorID: "adm-1", ActorRole: "admin", Action: "transition", ResourceType: "plan"},
			allowed: true,
			rule:    "admin_all",
		},
		{
			name:    "agent manages policies for any customer",
			input:   ports.CheckInput{ActorID: "agt-1", ActorRole: "agent", Action: "create", ResourceType: "policy", ResourceOwnerID: "cust-9"},
			allowed: true,
			rule:    "agent_manage",
		},
		{
			name:    "agent records payments",
			input:   ports.CheckInput{ActorID: "agt-1", ActorRole: "agent", Action: "record", ResourceType: "payment", ResourceOwnerID: "cust-9"},
			allowed: true,
			rule:    "agent_record_payment",
		},
		{
			name:    "agent cannot touch user records",
			input:   ports.CheckInput{ActorID: "agt-1", ActorRole: "agent", Action: "update", ResourceType: "user", ResourceOwnerID: "cust-9"},
			allowed: false,
			rule:    "agent_denied",
		},
		{
			name:    "linked provider files a claim for the customer",
			input:   ports.CheckInput{ActorID: "prov-1", ActorRole: "provider", Action: "create", ResourceType: "claim", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "provider_file_claim",
		},
		{
			name:    "unlinked provider cannot file",
			input:   ports.CheckInput{ActorID: "prov-1", ActorRole: "provider", Action: "create", ResourceType: "claim", ResourceOwnerID: "cust-2"},
			allowed: false,
			rule:    "provider_denied",
		},
		{
			name:    "linked provider reads customer policy",
			input:   ports.CheckInput{ActorID: "prov-1", ActorRole: "provider", Action: "read", ResourceType: "policy", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "provider_read",
		},
		{
			name:    "customer reads own policy",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "read", ResourceType: "policy", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "customer_read_own",
		},
		{
			name:    "customer cannot read another customer's policy",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "read", ResourceType: "policy", ResourceOwnerID: "cust-2"},
			allowed: false,
			rule:    "customer_not_owner",
		},
		{
			name:    "customer files claim on own policy",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "create", ResourceType: "claim", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "customer_own_claim",
		},
		{
			name:    "customer pays own dues",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "record", ResourceType: "payment", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "customer_pay_own",
		},
		{
			name:    "customer requests cancellation of own policy",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "transition", ResourceType: "policy", ResourceOwnerID: "cust-1"},
			allowed: true,
			rule:    "customer_cancel_own",
		},
		{
			name:    "customer cannot manage plans",
			input:   ports.CheckInput{ActorID: "cust-1", ActorRole: "customer", Action: "create", ResourceType: "plan", ResourceOwnerID: "cust-1"},
			allowed: false,
			rule:    "customer_denied",
		},
		{
			name:    "unknown role fails closed",
			input:   ports.CheckInput{ActorID: "x-1", ActorRole: "auditor", Action: "read", ResourceType: "policy", ResourceOwnerID: "x-1"},
			allowed: false,
			rule:    "default_deny",
		},
		{
			name:    "empty actor fails closed",
			input:   ports.CheckInput{ActorRole: "admin", Action: "read", ResourceType: "policy"},
			allowed: false,
			rule:    "default_deny",
		},
		{
			name:    "garbage action fails closed",
			input:   ports.CheckInput{ActorID: "adm-1", ActorRole: "admin", Action: "obliterate", ResourceType: "policy"},
			allowed: false,
			rule:    "default_deny",
		},
	}

	for _, tc := range cases {
		result, err := gate.Check(context.Background(), tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if result.Allowed != tc.allowed {
			t.Fatalf("%s: allowed=%v, want %v", tc.name, result.Allowed, tc.allowed)
		}
		if result.Rule != tc.rule {
			t.Fatalf("%s: rule=%q, want %q", tc.name, result.Rule, tc.rule)
		}
	}
}

func TestCheckBatchRejectsEmptyInput(t *testing.T) {
	gate := newGate(nil)
	if _, err := gate.CheckBatch(context.Background(), nil); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCheckBatchPreservesOrder(t *testing.T) {
	gate := newGate(nil)
	results, err := gate.CheckBatch(context.Background(), []ports.CheckInput{
		{ActorID: "adm-1", ActorRole: "admin", Action: "read", ResourceType: "plan"},
		{ActorID: "cust-1", ActorRole: "customer", Action: "create", ResourceType: "plan", ResourceOwnerID: "cust-1"},
	})
	if err != nil {
		t.Fatalf("check batch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Allowed || results[1].Allowed {
		t.Fatalf("unexpected verdicts: %+v", results)
	}
}

func TestRequireTurnsDenyIntoForbidden(t *testing.T) {
	gate := newGate(nil)
	err := gate.Require(context.Background(), ports.CheckInput{
		ActorID: "cust-1", ActorRole: "customer", Action: "create", ResourceType: "plan",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
