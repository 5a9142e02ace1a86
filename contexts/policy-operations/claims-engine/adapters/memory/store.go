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

	domainerrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
	"acphealth/contexts/policy-operations/claims-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu     sync.RWMutex
	claims map[string]entities.Claim
	outbox map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		claims: make(map[string]entities.Claim),
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) CreateClaim(_ context.Context, claim entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(claim.ClaimID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.claims[id]; exists {
		return domainerrors.ErrInvalidInput
	}
	s.claims[id] = claim
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[strings.TrimSpace(claimID)]
	if !ok {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) UpdateClaim(_ context.Context, claim entities.Claim, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(claim.ClaimID)
	current, ok := s.claims[id]
	if !ok {
		return domainerrors.ErrClaimNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	s.claims[id] = claim
	return nil
}

func (s *Store) ListClaims(_ context.Context, filter ports.ClaimFilter) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Claim, 0)
	for _, claim := range s.claims {
		if filter.PolicyID != "" && claim.PolicyID != filter.PolicyID {
			continue
		}
		if filter.CustomerID != "" && claim.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		items = append(items, claim)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []entities.Claim{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]entities.Claim(nil), items[filter.Offset:end]...), nil
}

func (s *Store) SumApprovedByPolicy(_ context.Context, policyID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, claim := range s.claims {
		if claim.PolicyID != strings.TrimSpace(policyID) {
			continue
		}
		if claim.CountsAgainstCoverage() {
			total += claim.AmountApproved
		}
	}
	return total, nil
}

func (s *Store) HasOpenClaims(_ context.Context, policyID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, claim := range s.claims {
		if claim.PolicyID == strings.TrimSpace(policyID) && claim.OpenForAdjudication() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) BuildClaimsSummary(_ context.Context, customerID string) (ports.ClaimsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := ports.ClaimsSummary{ByStatus: make(map[entities.ClaimStatus]int)}
	for _, claim := range s.claims {
		if customerID != "" && claim.CustomerID != customerID {
			continue
		}
		summary.TotalClaims++
		summary.ByStatus[claim.Status]++
		summary.TotalRequested += claim.AmountRequested
		summary.TotalApproved += claim.AmountApproved
	}
	return summary, nil
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
