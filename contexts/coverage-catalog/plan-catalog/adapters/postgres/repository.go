package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/coverage-catalog/plan-catalog/domain/errors"
	"acphealth/contexts/coverage-catalog/plan-catalog/domain/entities"
	"acphealth/contexts/coverage-catalog/plan-catalog/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreatePlan(ctx context.Context, plan entities.Plan) error {
	row, err := planModelFromEntity(plan)
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

func (r *Repository) GetPlan(ctx context.Context, planID string) (entities.Plan, error) {
	var row planModel
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", strings.TrimSpace(planID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Plan{}, domainerrors.ErrPlanNotFound
		}
		return entities.Plan{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdatePlan(ctx context.Context, plan entities.Plan, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&planModel{}).
		Where("plan_id = ? AND version = ?", strings.TrimSpace(plan.PlanID), expectedVersion).
		Updates(map[string]any{
			"status":     string(plan.Status),
			"updated_at": plan.UpdatedAt.UTC(),
			"version":    plan.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or another writer won the version race.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&planModel{}).
			Where("plan_id = ?", strings.TrimSpace(plan.PlanID)).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrPlanNotFound
		}
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ListPlans(ctx context.Context, filter ports.PlanFilter) ([]entities.Plan, error) {
	tx := r.db.WithContext(ctx).Model(&planModel{})
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

	var rows []planModel
	if err := tx.Order("created_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Plan, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type planModel struct {
	PlanID         string    `gorm:"column:plan_id;primaryKey"`
	Name           string    `gorm:"column:name"`
	PlanType       string    `gorm:"column:plan_type"`
	Description    string    `gorm:"column:description"`
	Status         string    `gorm:"column:status"`
	CoverageLimit  float64   `gorm:"column:coverage_limit"`
	Deductible     float64   `gorm:"column:deductible"`
	MonthlyPremium float64   `gorm:"column:monthly_premium"`
	AnnualPremium  float64   `gorm:"column:annual_premium"`
	CopayPercent   float64   `gorm:"column:copay_percent"`
	MaxOutOfPocket float64   `gorm:"column:max_out_of_pocket"`
	Benefits       string    `gorm:"column:benefits"`
	Exclusions     string    `gorm:"column:exclusions"`
	OwnerID        string    `gorm:"column:owner_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	Version        int64     `gorm:"column:version"`
}

func (planModel) TableName() string {
	return "insurance_plans"
}

func planModelFromEntity(item entities.Plan) (planModel, error) {
	benefits, err := json.Marshal(item.Benefits)
	if err != nil {
		return planModel{}, err
	}
	exclusions, err := json.Marshal(item.Exclusions)
	if err != nil {
		return planModel{}, err
	}
	return planModel{
		PlanID:         strings.TrimSpace(item.PlanID),
		Name:           strings.TrimSpace(item.Name),
		PlanType:       string(item.PlanType),
		Description:    strings.TrimSpace(item.Description),
		Status:         string(item.Status),
		CoverageLimit:  item.Terms.CoverageLimit,
		Deductible:     item.Terms.Deductible,
		MonthlyPremium: item.Terms.MonthlyPremium,
		AnnualPremium:  item.Terms.AnnualPremium,
		CopayPercent:   item.Terms.CopayPercent,
		MaxOutOfPocket: item.Terms.MaxOutOfPocket,
		Benefits:       string(benefits),
		Exclusions:     string(exclusions),
		OwnerID:        strings.TrimSpace(item.OwnerID),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
		Version:        item.Version,
	}, nil
}

func (m planModel) toEntity() (entities.Plan, error) {
	var benefits, exclusions []string
	if m.Benefits != "" {
		if err := json.Unmarshal([]byte(m.Benefits), &benefits); err != nil {
			return entities.Plan{}, err
		}
	}
	if m.Exclusions != "" {
		if err := json.Unmarshal([]byte(m.Exclusions), &exclusions); err != nil {
			return entities.Plan{}, err
		}
	}
	return entities.Plan{
		PlanID:      m.PlanID,
		Name:        m.Name,
		PlanType:    entities.PlanType(m.PlanType),
		Description: m.Description,
		Status:      entities.PlanStatus(m.Status),
		Terms: entities.CoverageTerms{
			CoverageLimit:  m.CoverageLimit,
			Deductible:     m.Deductible,
			MonthlyPremium: m.MonthlyPremium,
			AnnualPremium:  m.AnnualPremium,
			CopayPercent:   m.CopayPercent,
			MaxOutOfPocket: m.MaxOutOfPocket,
		},
		Benefits:   benefits,
		Exclusions: exclusions,
		OwnerID:    m.OwnerID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Version:    m.Version,
	}, nil
}
