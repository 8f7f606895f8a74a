package service

import (
	"context"
	"strings"
	"time"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/mailer"
	"github.com/gatehouse/gatepass/internal/repository"
	"github.com/gatehouse/gatepass/pkg/events"
	"github.com/gatehouse/gatepass/pkg/logger"
)

type VisitService interface {
	Create(ctx context.Context, guestID int64, req *domain.CreateVisitRequest) (*domain.VisitDetail, error)
	ListForGuest(ctx context.Context, guestID int64) ([]domain.VisitDetail, error)
	ListForHost(ctx context.Context, hostID int64, statusFilter string) ([]domain.VisitDetail, error)
	ApproveByHost(ctx context.Context, visitID, hostID int64) (*domain.VisitRequest, error)
	RejectByHost(ctx context.Context, visitID, hostID int64, reason string) (*domain.VisitRequest, error)
	ListPendingSecurity(ctx context.Context) ([]domain.VisitDetail, error)
	RejectBySecurity(ctx context.Context, visitID, securityID int64, reason string) (*domain.VisitRequest, error)
}

type visitService struct {
	visitRepo repository.VisitRepository
	userRepo  repository.UserRepository
	eventBus  events.Publisher
	mail      mailer.Service
}

func NewVisitService(
	visitRepo repository.VisitRepository,
	userRepo repository.UserRepository,
	eventBus events.Publisher,
	mail mailer.Service,
) VisitService {
	return &visitService{
		visitRepo: visitRepo,
		userRepo:  userRepo,
		eventBus:  eventBus,
		mail:      mail,
	}
}

func (s *visitService) Create(ctx context.Context, guestID int64, req *domain.CreateVisitRequest) (*domain.VisitDetail, error) {
	req.Normalize()
	if req.HostEmail == "" || req.Purpose == "" || req.VisitDate == "" {
		return nil, domain.Validationf("host email, purpose, and visit date are required")
	}

	visitDate, err := domain.ParseVisitDate(req.VisitDate, time.Now())
	if err != nil {
		return nil, err
	}

	host, err := s.userRepo.FindHostByEmail(ctx, req.HostEmail)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to resolve host")
	}
	if host == nil {
		return nil, domain.NotFoundf("host not found or user is not a host")
	}

	visit, err := s.visitRepo.Create(ctx, guestID, host.ID, req.Purpose, req.Description, visitDate)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to create visit request")
	}

	if err := s.eventBus.Publish(ctx, events.VisitCreated, events.VisitCreatedEvent{
		VisitID:   visit.ID,
		GuestID:   visit.GuestID,
		HostID:    visit.HostID,
		Purpose:   visit.Purpose,
		VisitDate: visit.VisitDate,
		CreatedAt: visit.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish visit created event", "error", err, "visit_id", visit.ID)
	}

	if err := s.mail.SendVisitRequested(host.Email, host.Name, visit.Purpose, visit.VisitDate); err != nil {
		logger.WarnContext(ctx, "Failed to notify host of new visit request", "error", err, "visit_id", visit.ID)
	}

	return &domain.VisitDetail{
		VisitRequest: *visit,
		Host:         &domain.PersonRef{ID: host.ID, Name: host.Name, Email: host.Email},
	}, nil
}

func (s *visitService) ListForGuest(ctx context.Context, guestID int64) ([]domain.VisitDetail, error) {
	visits, err := s.visitRepo.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list visit requests")
	}
	return visits, nil
}

func (s *visitService) ListForHost(ctx context.Context, hostID int64, statusFilter string) ([]domain.VisitDetail, error) {
	var status *domain.VisitStatus
	if statusFilter != "" {
		parsed, ok := domain.ParseVisitStatus(statusFilter)
		if !ok {
			return nil, domain.Validationf("invalid status filter: %s", statusFilter)
		}
		status = &parsed
	}

	visits, err := s.visitRepo.ListByHost(ctx, hostID, status)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list visit requests")
	}
	return visits, nil
}

// ApproveByHost moves a request to security review. Only the assigned
// host may decide, and only while the request is still pending host
// review.
func (s *visitService) ApproveByHost(ctx context.Context, visitID, hostID int64) (*domain.VisitRequest, error) {
	visit, err := s.resolveHostDecision(ctx, visitID, hostID)
	if err != nil {
		return nil, err
	}

	updated, err := s.visitRepo.Transition(ctx, visitID, domain.StatusPendingHostReview, domain.StatusPendingSecurity)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to approve visit request")
	}
	if updated == nil {
		// Lost a race: another decision landed between our read and the
		// conditional update.
		return nil, domain.Statef("cannot approve request with status: %s", visit.Status)
	}

	s.publishDecision(ctx, events.VisitHostApproved, updated, hostID, "")
	return updated, nil
}

func (s *visitService) RejectByHost(ctx context.Context, visitID, hostID int64, reason string) (*domain.VisitRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validationf("rejection reason is required")
	}

	if _, err := s.resolveHostDecision(ctx, visitID, hostID); err != nil {
		return nil, err
	}

	updated, err := s.visitRepo.Reject(ctx, visitID, domain.StatusPendingHostReview, domain.StatusRejectedByHost, reason)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to reject visit request")
	}
	if updated == nil {
		return nil, domain.Statef("visit request is no longer pending host review")
	}

	s.publishDecision(ctx, events.VisitHostRejected, updated, hostID, reason)
	return updated, nil
}

func (s *visitService) ListPendingSecurity(ctx context.Context) ([]domain.VisitDetail, error) {
	visits, err := s.visitRepo.ListPendingSecurity(ctx)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list pending visit requests")
	}
	return visits, nil
}

func (s *visitService) RejectBySecurity(ctx context.Context, visitID, securityID int64, reason string) (*domain.VisitRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validationf("rejection reason is required")
	}

	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to find visit request")
	}
	if visit == nil {
		return nil, domain.NotFoundf("visit request not found")
	}
	if visit.Status != domain.StatusPendingSecurity {
		return nil, domain.Statef("cannot reject this request. Current status: %s", visit.Status)
	}

	updated, err := s.visitRepo.Reject(ctx, visitID, domain.StatusPendingSecurity, domain.StatusRejectedBySecurity, reason)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to reject visit request")
	}
	if updated == nil {
		return nil, domain.Statef("visit request is no longer pending security review")
	}

	s.publishDecision(ctx, events.VisitSecurityRejected, updated, securityID, reason)
	return updated, nil
}

func (s *visitService) resolveHostDecision(ctx context.Context, visitID, hostID int64) (*domain.VisitRequest, error) {
	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to find visit request")
	}
	if visit == nil {
		return nil, domain.NotFoundf("visit request not found")
	}
	if visit.HostID != hostID {
		return nil, domain.Authorizationf("you are not authorized to decide this request")
	}
	if visit.Status != domain.StatusPendingHostReview {
		return nil, domain.Statef("cannot decide request with status: %s", visit.Status)
	}
	return visit, nil
}

func (s *visitService) publishDecision(ctx context.Context, subject string, visit *domain.VisitRequest, decidedBy int64, reason string) {
	if err := s.eventBus.Publish(ctx, subject, events.VisitDecidedEvent{
		VisitID:   visit.ID,
		DecidedBy: decidedBy,
		Status:    string(visit.Status),
		Reason:    reason,
		DecidedAt: visit.UpdatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish visit decision event", "error", err, "visit_id", visit.ID)
	}
}
