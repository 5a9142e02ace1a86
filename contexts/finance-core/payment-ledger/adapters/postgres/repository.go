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

	domainerrors "acphealth/contexts/finance-core/payment-ledger/domain/errors"
	"acphealth/contexts/finance-core/payment-ledger/domain/entities"
	"acphealth/contexts/finance-core/payment-ledger/ports"

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

func (r *Repository) CreatePayment(ctx context.Context, payment entities.Payment) error {
	row := paymentModelFromEntity(payment)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	var row paymentModel
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", strings.TrimSpace(paymentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payment{}, domainerrors.ErrPaymentNotFound
		}
		return entities.Payment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPayments(ctx context.Context, filter ports.PaymentFilter) ([]entities.Payment, error) {
	tx := r.db.WithContext(ctx).Model(&paymentModel{})
	if filter.PolicyID != "" {
		tx = tx.Where("policy_id = ?", strings.TrimSpace(filter.PolicyID))
	}
	if filter.ClaimID != "" {
		tx = tx.Where("claim_id = ?", strings.TrimSpace(filter.ClaimID))
	}
	if filter.PayerID != "" {
		tx = tx.Where("payer_id = ?", strings.TrimSpace(filter.PayerID))
	}
	if filter.Kind != "" {
		tx = tx.Where("kind = ?", string(filter.Kind))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []paymentModel
	if err := tx.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SumPremiumsByPolicy(ctx context.Context, policyID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("policy_id = ? AND kind = ?", strings.TrimSpace(policyID), string(entities.KindPremium)).
		Scan(&total).
		Error
	return total, err
}

func (r *Repository) SumPayoutsByClaim(ctx context.Context, claimID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("claim_id = ? AND kind = ?", strings.TrimSpace(claimID), string(entities.KindClaimPayout)).
		Scan(&total).
		Error
	return total, err
}

func (r *Repository) BuildRevenueSummary(ctx context.Context) (ports.RevenueSummary, error) {
	type bucket struct {
		Kind  string
		Count int
		Total float64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Select("kind, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("kind").
		Scan(&buckets).
		Error
	if err != nil {
		return ports.RevenueSummary{}, err
	}
	var summary ports.RevenueSummary
	for _, b := range buckets {
		summary.PaymentCount += b.Count
		switch entities.PaymentKind(b.Kind) {
		case entities.KindPremium:
			summary.PremiumsCollected = b.Total
		case entities.KindClaimPayout:
			summary.ClaimsPaidOut = b.Total
		}
	}
	summary.Net = summary.PremiumsCollected - summary.ClaimsPaidOut
	return summary, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row).Error
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

type paymentModel struct {
	PaymentID   string    `gorm:"column:payment_id;primaryKey"`
	Reference   string    `gorm:"column:reference;uniqueIndex"`
	Kind        string    `gorm:"column:kind"`
	PolicyID    string    `gorm:"column:policy_id;index"`
	ClaimID     string    `gorm:"column:claim_id;index"`
	PayerID     string    `gorm:"column:payer_id;index"`
	PayerRole   string    `gorm:"column:payer_role"`
	Amount      float64   `gorm:"column:amount"`
	Method      string    `gorm:"column:method"`
	Description string    `gorm:"column:description"`
	RecordedAt  time.Time `gorm:"column:recorded_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (paymentModel) TableName() string {
	return "payments"
}

func paymentModelFromEntity(item entities.Payment) paymentModel {
	return paymentModel{
		PaymentID:   strings.TrimSpace(item.PaymentID),
		Reference:   strings.TrimSpace(item.Reference),
		Kind:        string(item.Kind),
		PolicyID:    strings.TrimSpace(item.PolicyID),
		ClaimID:     strings.TrimSpace(item.ClaimID),
		PayerID:     strings.TrimSpace(item.PayerID),
		PayerRole:   strings.TrimSpace(item.PayerRole),
		Amount:      item.Amount,
		Method:      string(item.Method),
		Description: strings.TrimSpace(item.Description),
		RecordedAt:  item.RecordedAt.UTC(),
		CreatedAt:   item.CreatedAt.UTC(),
	}
}

func (m paymentModel) toEntity() entities.Payment {
	return entities.Payment{
		PaymentID:   m.PaymentID,
		Reference:   m.Reference,
		Kind:        entities.PaymentKind(m.Kind),
		PolicyID:    m.PolicyID,
		ClaimID:     m.ClaimID,
		PayerID:     m.PayerID,
		PayerRole:   m.PayerRole,
		Amount:      m.Amount,
		Method:      entities.PaymentMethod(m.Method),
		Description: m.Description,
		RecordedAt:  m.RecordedAt,
		CreatedAt:   m.CreatedAt,
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "payment_ledger_idempotency"
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
	return "payment_outbox"
}
