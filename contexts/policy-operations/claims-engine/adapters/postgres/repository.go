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

	domainerrors "acphealth/contexts/policy-operations/claims-engine/domain/errors"
	"acphealth/contexts/policy-operations/claims-engine/domain/entities"
	"acphealth/contexts/policy-operations/claims-engine/ports"

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

func (r *Repository) CreateClaim(ctx context.Context, claim entities.Claim) error {
	row := claimModelFromEntity(claim)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, domainerrors.ErrClaimNotFound
		}
		return entities.Claim{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateClaim(ctx context.Context, claim entities.Claim, expectedVersion int64) error {
	updates := map[string]any{
		"status":          string(claim.Status),
		"amount_approved": claim.AmountApproved,
		"denial_reason":   claim.DenialReason,
		"reviewer_id":     claim.ReviewerID,
		"updated_at":      claim.UpdatedAt.UTC(),
		"version":         claim.Version,
	}
	if claim.ReviewedAt != nil {
		updates["reviewed_at"] = claim.ReviewedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("claim_id = ? AND version = ?", strings.TrimSpace(claim.ClaimID), expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or another writer won the version race.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&claimModel{}).
			Where("claim_id = ?", strings.TrimSpace(claim.ClaimID)).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrClaimNotFound
		}
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListClaims(ctx context.Context, filter ports.ClaimFilter) ([]entities.Claim, error) {
	tx := r.db.WithContext(ctx).Model(&claimModel{})
	if filter.PolicyID != "" {
		tx = tx.Where("policy_id = ?", strings.TrimSpace(filter.PolicyID))
	}
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

	var rows []claimModel
	if err := tx.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SumApprovedByPolicy(ctx context.Context, policyID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Select("COALESCE(SUM(amount_approved), 0)").
		Where("policy_id = ? AND status IN ?", strings.TrimSpace(policyID), []string{
			string(entities.ClaimStatusApproved),
			string(entities.ClaimStatusPaid),
		}).
		Scan(&total).
		Error
	return total, err
}

func (r *Repository) HasOpenClaims(ctx context.Context, policyID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("policy_id = ? AND status IN ?", strings.TrimSpace(policyID), []string{
			string(entities.ClaimStatusUnderReview),
			string(entities.ClaimStatusApproved),
		}).
		Count(&count).
		Error
	return count > 0, err
}

func (r *Repository) BuildClaimsSummary(ctx context.Context, customerID string) (ports.ClaimsSummary, error) {
	type bucket struct {
		Status    string
		Count     int
		Requested float64
		Approved  float64
	}
	tx := r.db.WithContext(ctx).Model(&claimModel{})
	if customerID != "" {
		tx = tx.Where("customer_id = ?", strings.TrimSpace(customerID))
	}
	var buckets []bucket
	err := tx.
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount_requested), 0) AS requested, COALESCE(SUM(amount_approved), 0) AS approved").
		Group("status").
		Scan(&buckets).
		Error
	if err != nil {
		return ports.ClaimsSummary{}, err
	}
	summary := ports.ClaimsSummary{ByStatus: make(map[entities.ClaimStatus]int, len(buckets))}
	for _, b := range buckets {
		summary.TotalClaims += b.Count
		summary.ByStatus[entities.ClaimStatus(b.Status)] = b.Count
		summary.TotalRequested += b.Requested
		summary.TotalApproved += b.Approved
	}
	return summary, nil
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

type claimModel struct {
	ClaimID         string     `gorm:"column:claim_id;primaryKey"`
	ClaimNumber     string     `gorm:"column:claim_number;uniqueIndex"`
	PolicyID        string     `gorm:"column:policy_id;index"`
	CustomerID      string     `gorm:"column:customer_id;index"`
	ProviderID      string     `gorm:"column:provider_id"`
	ProviderName    string     `gorm:"column:provider_name"`
	ServiceDate     time.Time  `gorm:"column:service_date"`
	DiagnosisCode   string     `gorm:"column:diagnosis_code"`
	ProcedureCode   string     `gorm:"column:procedure_code"`
	Description     string     `gorm:"column:description"`
	AmountRequested float64    `gorm:"column:amount_requested"`
	AmountApproved  float64    `gorm:"column:amount_approved"`
	DenialReason    string     `gorm:"column:denial_reason"`
	ReviewerID      string     `gorm:"column:reviewer_id"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at"`
	Status          string     `gorm:"column:status"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	Version         int64      `gorm:"column:version"`
}

func (claimModel) TableName() string {
	return "claims"
}

func claimModelFromEntity(item entities.Claim) claimModel {
	row := claimModel{
		ClaimID:         strings.TrimSpace(item.ClaimID),
		ClaimNumber:     strings.TrimSpace(item.ClaimNumber),
		PolicyID:        strings.TrimSpace(item.PolicyID),
		CustomerID:      strings.TrimSpace(item.CustomerID),
		ProviderID:      strings.TrimSpace(item.ProviderID),
		ProviderName:    strings.TrimSpace(item.ProviderName),
		ServiceDate:     item.ServiceDate.UTC(),
		DiagnosisCode:   strings.TrimSpace(item.DiagnosisCode),
		ProcedureCode:   strings.TrimSpace(item.ProcedureCode),
		Description:     strings.TrimSpace(item.Description),
		AmountRequested: item.AmountRequested,
		AmountApproved:  item.AmountApproved,
		DenialReason:    strings.TrimSpace(item.DenialReason),
		ReviewerID:      strings.TrimSpace(item.ReviewerID),
		Status:          string(item.Status),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
		Version:         item.Version,
	}
	if item.ReviewedAt != nil {
		reviewedAt := item.ReviewedAt.UTC()
		row.ReviewedAt = &reviewedAt
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	item := entities.Claim{
		ClaimID:         m.ClaimID,
		ClaimNumber:     m.ClaimNumber,
		PolicyID:        m.PolicyID,
		CustomerID:      m.CustomerID,
		ProviderID:      m.ProviderID,
		ProviderName:    m.ProviderName,
		ServiceDate:     m.ServiceDate,
		DiagnosisCode:   m.DiagnosisCode,
		ProcedureCode:   m.ProcedureCode,
		Description:     m.Description,
		AmountRequested: m.AmountRequested,
		AmountApproved:  m.AmountApproved,
		DenialReason:    m.DenialReason,
		ReviewerID:      m.ReviewerID,
		Status:          entities.ClaimStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Version:         m.Version,
	}
	if m.ReviewedAt != nil {
		reviewedAt := m.ReviewedAt.UTC()
		item.ReviewedAt = &reviewedAt
	}
	return item
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
	return "claim_outbox"
}
