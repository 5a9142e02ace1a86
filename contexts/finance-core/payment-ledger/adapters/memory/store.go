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

	domainerrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
	"acphealth/contexts/finance-core/payment-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu          sync.RWMutex
	payments    map[string]entities.Payment
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		payments:    make(map[string]entities.Payment),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreatePayment(_ context.Context, payment entities.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(payment.PaymentID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.payments[id]; exists {
		return domainerrors.ErrInvalidInput
	}
	s.payments[id] = payment
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (entities.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, ok := s.payments[strings.TrimSpace(paymentID)]
	if !ok {
		return entities.Payment{}, domainerrors.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Store) ListPayments(_ context.Context, filter ports.PaymentFilter) ([]entities.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Payment, 0)
	for _, payment := range s.payments {
		if filter.PolicyID != "" && payment.PolicyID != filter.PolicyID {
			continue
		}
		if filter.ClaimID != "" && payment.ClaimID != filter.ClaimID {
			continue
		}
		if filter.PayerID != "" && payment.PayerID != filter.PayerID {
			continue
		}
		if filter.Kind != "" && payment.Kind != filter.Kind {
			continue
		}
		items = append(items, payment)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Offset >= len(items) {
		return []entities.Payment{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]entities.Payment(nil), items[filter.Offset:end]...), nil
}

func (s *Store) SumPremiumsByPolicy(_ context.Context, policyID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, payment := range s.payments {
		if payment.Kind == entities.KindPremium && payment.PolicyID == strings.TrimSpace(policyID) {
			total += payment.Amount
		}
	}
	return total, nil
}

func (s *Store) SumPayoutsByClaim(_ context.Context, claimID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, payment := range s.payments {
		if payment.Kind == entities.KindClaimPayout && payment.ClaimID == strings.TrimSpace(claimID) {
			total += payment.Amount
		}
	}
	return total, nil
}

func (s *Store) BuildRevenueSummary(_ context.Context) (ports.RevenueSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary ports.RevenueSummary
	for _, payment := range s.payments {
		summary.PaymentCount++
		switch payment.Kind {
		case entities.KindPremium:
			summary.PremiumsCollected += payment.Amount
		case entities.KindClaimPayout:
			summary.ClaimsPaidOut += payment.Amount
		}
	}
	summary.Net = summary.PremiumsCollected - summary.ClaimsPaidOut
	return summary, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idempotency[strings.TrimSpace(record.Key)] = record
	return nil
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
