package service

//go:generate mockgen -source=audit_service.go -destination=mocks/mock_audit_service.go -package=mocks

import (
	"context"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/pagination"
)

type AuditService interface {
	ListAuditLogs(ctx context.Context, page pagination.Params) ([]model.AuditLog, pagination.Meta, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// ListAuditLogs returns one page of entries, newest first.
func (s *auditService) ListAuditLogs(ctx context.Context, page pagination.Params) ([]model.AuditLog, pagination.Meta, error) {
	logs, total, err := s.repo.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, pagination.Meta{}, apperror.Internal("Fetching audit logs failed, please try again.", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, page.Meta(total), nil
}
