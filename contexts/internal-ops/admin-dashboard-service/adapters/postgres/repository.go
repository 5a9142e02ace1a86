package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/internal-ops/admin-dashboard-service/domain/errors"
	"acphealth/contexts/internal-ops/admin-dashboard-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) AppendAuditLog(ctx context.Context, row ports.AuditLog) error {
	model := auditLogModel{
		AuditID:       strings.TrimSpace(row.AuditID),
		ActorID:       row.ActorID,
		Action:        row.Action,
		TargetID:      row.TargetID,
		Justification: row.Justification,
		OccurredAt:    row.OccurredAt.UTC(),
		SourceIP:      row.SourceIP,
		CorrelationID: row.CorrelationID,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *Repository) ListRecentAuditLogs(ctx context.Context, limit int) ([]ports.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditLogModel
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]ports.AuditLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AuditLog{
			AuditID:       row.AuditID,
			ActorID:       row.ActorID,
			Action:        row.Action,
			TargetID:      row.TargetID,
			Justification: row.Justification,
			OccurredAt:    row.OccurredAt.UTC(),
			SourceIP:      row.SourceIP,
			CorrelationID: row.CorrelationID,
		})
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:          row.Key,
		RequestHash:  row.RequestHash,
		ResponseBody: append([]byte(nil), row.ResponseBody...),
		ExpiresAt:    row.ExpiresAt.UTC(),
	}, nil
}

func (r *Repository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(key),
		RequestHash: requestHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var existing idempotencyModel
		if err := r.db.WithContext(ctx).Where("key = ?", row.Key).First(&existing).Error; err != nil {
			return err
		}
		if existing.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
}

func (r *Repository) Complete(ctx context.Context, key string, responseBody []byte, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&idempotencyModel{}).
		Where("key = ?", strings.TrimSpace(key)).
		Update("response_body", append([]byte(nil), responseBody...)).
		Error
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

type auditLogModel struct {
	AuditID       string    `gorm:"column:audit_id;primaryKey"`
	ActorID       string    `gorm:"column:actor_id;index"`
	Action        string    `gorm:"column:action"`
	TargetID      string    `gorm:"column:target_id"`
	Justification string    `gorm:"column:justification"`
	OccurredAt    time.Time `gorm:"column:occurred_at;index"`
	SourceIP      string    `gorm:"column:source_ip"`
	CorrelationID string    `gorm:"column:correlation_id"`
}

func (auditLogModel) TableName() string {
	return "admin_audit_logs"
}

type idempotencyModel struct {
	Key          string    `gorm:"column:key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	ResponseBody []byte    `gorm:"column:response_body"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "admin_dashboard_idempotency"
}
