package repository

import (
	"context"

	"menuapi/internal/domain/model"
	"menuapi/internal/pagination"
	repo "menuapi/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return errors.Wrapf(err, "create audit log %s", log.Action)
	}
	return nil
}

// 新しい順。Limitは1..MaxPageSizeに丸める
func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = pagination.DefaultPageSize
	}
	limit = min(limit, pagination.MaxPageSize)

	base := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(auditScopes(f)...)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count audit logs")
	}

	var logs []model.AuditLog
	err := base.Session(&gorm.Session{}).
		Order("id DESC").
		Offset(max(f.Offset, 0)).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list audit logs")
	}
	return logs, total, nil
}

func auditScopes(f repo.AuditLogFilter) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	eq := func(col string, v interface{}) {
		scopes = append(scopes, func(tx *gorm.DB) *gorm.DB { return tx.Where(col+" = ?", v) })
	}
	if f.ActorUserID != nil {
		eq("actor_user_id", *f.ActorUserID)
	}
	if f.Action != nil {
		eq("action", *f.Action)
	}
	if f.ResourceType != nil {
		eq("resource_type", *f.ResourceType)
	}
	if f.ResourceID != nil {
		eq("resource_id", *f.ResourceID)
	}
	return scopes
}
