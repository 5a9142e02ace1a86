package postgres

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	domainerrors "acphealth/contexts/policy-operations/policy-ledger/domain/errors"
	"acphealth/contexts/policy-operations/policy-ledger/domain/entities"
	"acphealth/contexts/policy-operations/policy-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreatePolicy(ctx context.Context, policy entities.Policy) error {
	row, err := policyModelFromEntity(policy)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetPolicy(ctx context.Context, policyID string) (entities.Policy, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", strings.TrimSpace(policyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, domainerrors.ErrPolicyNotFound
		}
		return entities.Policy{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdatePolicy(ctx context.Context, policy entities.Policy, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&policyModel{}).
		Where("policy_id = ? AND version = ?", strings.TrimSpace(policy.PolicyID), expectedVersion).
		Updates(map[string]any{
			"status":     string(policy.Status),
			"updated_at": policy.UpdatedAt.UTC(),
			"version":    policy.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or another writer won the version race.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&policyModel{}).
			Where("policy_id = ?", strings.TrimSpace(policy.PolicyID)).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrPolicyNotFound
		}
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListPolicies(ctx context.Context, filter ports.PolicyFilter) ([]entities.Policy, error) {
	tx := r.db.WithContext(ctx).Model(&policyModel{})
	if filter.CustomerID != "" {
		tx = tx.Where("customer_id = ?", strings.TrimSpace(filter.CustomerID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []policyModel
	if err := tx.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Policy, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CountPoliciesByStatus(ctx context.Context) (map[entities.PolicyStatus]int, error) {
	type bucket struct {
		Status string
		Count  int
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&policyModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&buckets).
		Error
	if err != nil {
		return nil, err
	}
	counts := make(map[entities.PolicyStatus]int, len(buckets))
	for _, b := range buckets {
		counts[entities.PolicyStatus(b.Status)] = b.Count
	}
	return counts, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) NewNumber(_ context.Context, prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%010d", strings.TrimSpace(prefix), n.Int64()), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type policyModel struct {
	PolicyID       string    `gorm:"column:policy_id;primaryKey"`
	PolicyNumber   string    `gorm:"column:policy_number;uniqueIndex"`
	PlanID         string    `gorm:"column:plan_id"`
	CustomerID     string    `gorm:"column:customer_id;index"`
	Status         string    `gorm:"column:status"`
	CoverageLimit  float64   `gorm:"column:coverage_limit"`
	Deductible     float64   `gorm:"column:deductible"`
	MonthlyPremium float64   `gorm:"column:monthly_premium"`
	AnnualPremium  float64   `gorm:"column:annual_premium"`
	CopayPercent   float64   `gorm:"column:copay_percent"`
	MaxOutOfPocket float64   `gorm:"column:max_out_of_pocket"`
	Frequency      string    `gorm:"column:payment_frequency"`
	PremiumAmount  float64   `gorm:"column:premium_amount"`
	EffectiveDate  time.Time `gorm:"column:effective_date"`
	ExpiryDate     time.Time `gorm:"column:expiry_date"`
	Beneficiaries  string    `gorm:"column:beneficiaries"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	Version        int64     `gorm:"column:version"`
}

func (policyModel) TableName() string {
	return "policies"
}

func policyModelFromEntity(item entities.Policy) (policyModel, error) {
	beneficiaries, err := json.Marshal(item.Beneficiaries)
	if err != nil {
		return policyModel{}, err
	}
	return policyModel{
		PolicyID:       strings.TrimSpace(item.PolicyID),
		PolicyNumber:   strings.TrimSpace(item.PolicyNumber),
		PlanID:         strings.TrimSpace(item.PlanID),
		CustomerID:     strings.TrimSpace(item.CustomerID),
		Status:         string(item.Status),
		CoverageLimit:  item.Terms.CoverageLimit,
		Deductible:     item.Terms.Deductible,
		MonthlyPremium: item.Terms.MonthlyPremium,
		AnnualPremium:  item.Terms.AnnualPremium,
		CopayPercent:   item.Terms.CopayPercent,
		MaxOutOfPocket: item.Terms.MaxOutOfPocket,
		Frequency:      string(item.PaymentFrequency),
		PremiumAmount:  item.PremiumAmount,
		EffectiveDate:  item.EffectiveDate.UTC(),
		ExpiryDate:     item.ExpiryDate.UTC(),
		Beneficiaries:  string(beneficiaries),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
		Version:        item.Version,
	}, nil
}

func (m policyModel) toEntity() (entities.Policy, error) {
	var beneficiaries []entities.Beneficiary
	if m.Beneficiaries != "" {
		if err := json.Unmarshal([]byte(m.Beneficiaries), &beneficiaries); err != nil {
			return entities.Policy{}, err
		}
	}
	return entities.Policy{
		PolicyID:     m.PolicyID,
		PolicyNumber: m.PolicyNumber,
		PlanID:       m.PlanID,
		CustomerID:   m.CustomerID,
		Status:       entities.PolicyStatus(m.Status),
		Terms: entities.CoverageTerms{
			CoverageLimit:  m.CoverageLimit,
			Deductible:     m.Deductible,
			MonthlyPremium: m.MonthlyPremium,
			AnnualPremium:  m.AnnualPremium,
			CopayPercent:   m.CopayPercent,
			MaxOutOfPocket: m.MaxOutOfPocket,
		},
		PaymentFrequency: entities.PaymentFrequency(m.Frequency),
		PremiumAmount:    m.PremiumAmount,
		EffectiveDate:    m.EffectiveDate,
		ExpiryDate:       m.ExpiryDate,
		Beneficiaries:    beneficiaries,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Version:          m.Version,
	}, nil
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "policy_outbox"
}
