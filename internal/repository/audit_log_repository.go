package repository

import (
	"context"

	"menuapi/internal/domain/model"
)

// nilの条件は無視する
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	Limit        int
	Offset       int
}

// 商品変更の監査ログ。Createは商品の変更と同じtxで呼ぶ。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 条件に合う件数も返す
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
