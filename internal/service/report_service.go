package service

import (
	"context"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/repository"
)

type ReportService interface {
	Audit(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
	PresentNow(ctx context.Context) ([]domain.PresentEntry, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) Audit(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.reportRepo.AuditEntries(ctx, limit, offset)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to build audit report")
	}
	return entries, nil
}

func (s *reportService) PresentNow(ctx context.Context) ([]domain.PresentEntry, error) {
	entries, err := s.reportRepo.PresentNow(ctx)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list visitors on premises")
	}
	return entries, nil
}

func (s *reportService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.reportRepo.Stats(ctx)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to compute statistics")
	}
	return stats, nil
}
