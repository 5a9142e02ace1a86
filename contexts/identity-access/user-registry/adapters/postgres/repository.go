package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	"acphealth/contexts/identity-access/user-registry/domain/entities"
	"acphealth/contexts/identity-access/user-registry/ports"

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

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateUser(ctx context.Context, user entities.User) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", strings.TrimSpace(user.UserID)).
		Updates(map[string]any{
			"role":       string(user.Role),
			"active":     user.Active,
			"updated_at": user.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context, filter ports.UserFilter) ([]entities.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []userModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) BuildUserStats(ctx context.Context) (ports.UserStats, error) {
	type roleRow struct {
		Role  string
		Count int
	}
	var rows []roleRow
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).
		Error
	if err != nil {
		return ports.UserStats{}, err
	}

	stats := ports.UserStats{ByRole: make(map[string]int, len(rows))}
	for _, row := range rows {
		stats.ByRole[row.Role] = row.Count
		stats.TotalUsers += row.Count
	}

	var active int64
	err = r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("active = ?", true).
		Count(&active).
		Error
	if err != nil {
		return ports.UserStats{}, err
	}
	stats.ActiveUsers = int(active)
	return stats, nil
}

func (r *Repository) CreateRelationship(ctx context.Context, rel entities.ProviderRelationship) error {
	row := relationshipModelFromEntity(rel)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRelationshipExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetActiveRelationship(ctx context.Context, providerID string, customerID string) (entities.ProviderRelationship, error) {
	var row relationshipModel
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND customer_id = ? AND active", strings.TrimSpace(providerID), strings.TrimSpace(customerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProviderRelationship{}, domainerrors.ErrRelationshipGone
		}
		return entities.ProviderRelationship{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateRelationship(ctx context.Context, rel entities.ProviderRelationship) error {
	result := r.db.WithContext(ctx).
		Model(&relationshipModel{}).
		Where("relationship_id = ?", strings.TrimSpace(rel.RelationshipID)).
		Updates(map[string]any{
			"active":   rel.Active,
			"ended_at": rel.EndedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRelationshipGone
	}
	return nil
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

type userModel struct {
	UserID       string    `gorm:"column:user_id;primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	FullName     string    `gorm:"column:full_name"`
	Phone        string    `gorm:"column:phone"`
	Address      string    `gorm:"column:address"`
	Role         string    `gorm:"column:role"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(item entities.User) userModel {
	return userModel{
		UserID:       strings.TrimSpace(item.UserID),
		Username:     strings.TrimSpace(item.Username),
		Email:        strings.TrimSpace(item.Email),
		PasswordHash: item.PasswordHash,
		FullName:     strings.TrimSpace(item.FullName),
		Phone:        strings.TrimSpace(item.Phone),
		Address:      strings.TrimSpace(item.Address),
		Role:         string(item.Role),
		Active:       item.Active,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:       m.UserID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		Phone:        m.Phone,
		Address:      m.Address,
		Role:         entities.Role(m.Role),
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type relationshipModel struct {
	RelationshipID string     `gorm:"column:relationship_id;primaryKey"`
	ProviderID     string     `gorm:"column:provider_id"`
	CustomerID     string     `gorm:"column:customer_id"`
	Active         bool       `gorm:"column:active"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	EndedAt        *time.Time `gorm:"column:ended_at"`
}

func (relationshipModel) TableName() string {
	return "provider_relationships"
}

func relationshipModelFromEntity(item entities.ProviderRelationship) relationshipModel {
	return relationshipModel{
		RelationshipID: strings.TrimSpace(item.RelationshipID),
		ProviderID:     strings.TrimSpace(item.ProviderID),
		CustomerID:     strings.TrimSpace(item.CustomerID),
		Active:         item.Active,
		CreatedAt:      item.CreatedAt.UTC(),
		EndedAt:        item.EndedAt,
	}
}

func (m relationshipModel) toEntity() entities.ProviderRelationship {
	return entities.ProviderRelationship{
		RelationshipID: m.RelationshipID,
		ProviderID:     m.ProviderID,
		CustomerID:     m.CustomerID,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		EndedAt:        m.EndedAt,
	}
}
