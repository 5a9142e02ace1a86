package memory

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	"acphealth/contexts/policy-operations/policy-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu       sync.RWMutex
	policies map[string]entities.Policy
	outbox   map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		policies: make(map[string]entities.Policy),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreatePolicy(_ context.Context, policy entities.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(policy.PolicyID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.policies[id]; exists {
		return domainerrors.ErrInvalidInput
	}
	s.policies[id] = policy
	return nil
}

func (s *Store) GetPolicy(_ context.Context, policyID string) (entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[strings.TrimSpace(policyID)]
	if !ok {
		return entities.Policy{}, domainerrors.ErrPolicyNotFound
	}
	return policy, nil
}

func (s *Store) UpdatePolicy(_ context.Context, policy entities.Policy, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(policy.PolicyID)
	current, ok := s.policies[id]
	if !ok {
		return domainerrors.ErrPolicyNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	s.policies[id] = policy
	return nil
}

func (s *Store) ListPolicies(_ context.Context, filter ports.PolicyFilter) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Policy, 0)
	for _, policy := range s.policies {
		if filter.CustomerID != "" && policy.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && policy.Status != filter.Status {
			continue
		}
		items = append(items, policy)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []entities.Policy{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]entities.Policy(nil), items[filter.Offset:end]...), nil
}

func (s *Store) CountPoliciesByStatus(_ context.Context) (map[entities.PolicyStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entities.PolicyStatus]int)
	for _, policy := range s.policies {
		counts[policy.Status]++
	}
	return counts, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) NewNumber(_ context.Context, prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%010d", strings.TrimSpace(prefix), n.Int64()), nil
}
