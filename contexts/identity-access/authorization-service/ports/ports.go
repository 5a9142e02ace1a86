package ports

import "context"

// CheckInput is one authorization question: may this actor perform this
// action on a resource owned by resourceOwnerID?
type CheckInput struct {
	ActorID         string
	ActorRole       string
	Action          string
	ResourceType    string
	ResourceOwnerID string
}

type CheckResult struct {
	Allowed bool
	Rule    string
}

// Relationships answers whether a provider is actively linked to a customer.
// Implemented over the user registry by the composition root.
type Relationships interface {
	HasActiveProviderRelationship(ctx context.Context, providerID string, customerID string) (bool, error)
}
