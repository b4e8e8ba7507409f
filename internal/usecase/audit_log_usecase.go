package usecase

import (
	"context"
	"net/url"
	"strings"

	"menuapi/internal/domain/model"
	"menuapi/internal/identity"
	"menuapi/internal/pagination"
	repo "menuapi/internal/repository"
	"menuapi/internal/validator"

	"github.com/spf13/cast"
)

var auditActions = map[model.AuditAction]struct{}{
	model.AuditActionCreateProduct: {},
	model.AuditActionUpdateProduct: {},
	model.AuditActionDeleteProduct: {},
}

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

// DI
func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

type AuditLogListOutput struct {
	Items   []model.AuditLog
	Total   int64
	Request pagination.Request
}

// GET /audit-logs
// actor_user_id / action / resource_type / resource_id で絞り込み、新しい順
func (u *AuditLogUsecase) List(ctx context.Context, q url.Values) (AuditLogListOutput, error) {
	if _, ok := identity.FromContext(ctx); !ok {
		return AuditLogListOutput{}, errUnauthorized
	}

	errs := validator.FieldErrors{}
	req, err := pagination.ParseRequest(q)
	mergeFieldErrors(errs, err)

	f := repo.AuditLogFilter{Limit: req.Limit(), Offset: req.Offset()}
	f.ActorUserID = positiveID(errs, q, "actor_user_id")
	f.ResourceID = positiveID(errs, q, "resource_id")

	if v := strings.TrimSpace(q.Get("action")); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		if _, ok := auditActions[a]; !ok {
			errs.Add("action", "must be one of CREATE_PRODUCT, UPDATE_PRODUCT, DELETE_PRODUCT")
		} else {
			f.Action = &a
		}
	}
	if v := strings.TrimSpace(q.Get("resource_type")); v != "" {
		rt := model.AuditResourceType(v)
		if rt != model.AuditResourceProduct {
			errs.Add("resource_type", "must be product")
		} else {
			f.ResourceType = &rt
		}
	}

	if err := errs.OrNil(); err != nil {
		return AuditLogListOutput{}, NewValidationError(err)
	}

	logs, total, err := u.logs.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, internalError(err)
	}
	return AuditLogListOutput{Items: logs, Total: total, Request: req}, nil
}

func positiveID(errs validator.FieldErrors, q url.Values, key string) *int64 {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	id, err := cast.ToInt64E(v)
	if err != nil || id <= 0 {
		errs.Add(key, "a valid positive integer is required")
		return nil
	}
	return &id
}
