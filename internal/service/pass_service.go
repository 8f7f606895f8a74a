package service

import (
	"context"
	"time"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/mailer"
	"github.com/gatehouse/gatepass/internal/repository"
	"github.com/gatehouse/gatepass/pkg/events"
	"github.com/gatehouse/gatepass/pkg/logger"
)

type CheckInResult struct {
	Traffic *domain.TrafficLog `json:"traffic_log"`
	Pass    *domain.PassDetail `json:"pass"`
}

type LookupResult struct {
	Pass   *domain.PassDetail `json:"pass"`
	Status domain.PassStatus  `json:"status"`
}

type PassService interface {
	Approve(ctx context.Context, visitID, securityID int64) (*domain.IssuedPass, error)
	CheckIn(ctx context.Context, code string, securityID int64) (*CheckInResult, error)
	CheckOut(ctx context.Context, code string) (*CheckInResult, error)
	Lookup(ctx context.Context, code string) (*LookupResult, error)
}

type passService struct {
	passRepo  repository.PassRepository
	visitRepo repository.VisitRepository
	eventBus  events.Publisher
	mail      mailer.Service
}

func NewPassService(
	passRepo repository.PassRepository,
	visitRepo repository.VisitRepository,
	eventBus events.Publisher,
	mail mailer.Service,
) PassService {
	return &passService{
		passRepo:  passRepo,
		visitRepo: visitRepo,
		eventBus:  eventBus,
		mail:      mail,
	}
}

// Approve issues the entry permit and flips the visit request to its
// approved terminal state. The repository performs both writes in one
// transaction; under concurrent approvals exactly one caller gets a
// pass and the rest get a state error.
func (s *passService) Approve(ctx context.Context, visitID, securityID int64) (*domain.IssuedPass, error) {
	visit, err := s.visitRepo.GetDetail(ctx, visitID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to find visit request")
	}
	if visit == nil {
		return nil, domain.NotFoundf("visit request not found")
	}
	if visit.Status != domain.StatusPendingSecurity {
		return nil, domain.Statef("cannot approve this request. Current status: %s", visit.Status)
	}

	validFrom := time.Now()
	validUntil := validFrom.Add(domain.PassValidityHours * time.Hour)

	pass, err := s.passRepo.Issue(ctx, visitID, securityID, validFrom, validUntil)
	if err != nil {
		if domain.KindOf(err) != domain.KindUnexpected {
			return nil, err
		}
		return nil, domain.Unexpected(err, "failed to issue pass")
	}
	visit.Status = domain.StatusApproved

	if err := s.eventBus.Publish(ctx, events.PassIssued, events.PassIssuedEvent{
		PassID:     pass.ID,
		VisitID:    visitID,
		Code:       pass.Code,
		IssuedBy:   securityID,
		ValidFrom:  pass.ValidFrom,
		ValidUntil: pass.ValidUntil,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pass issued event", "error", err, "pass_id", pass.ID)
	}

	if visit.Guest != nil {
		if err := s.mail.SendPassIssued(visit.Guest.Email, visit.Guest.Name, pass.Code, pass.ValidUntil); err != nil {
			logger.WarnContext(ctx, "Failed to email pass code to guest", "error", err, "pass_id", pass.ID)
		}
	}

	return &domain.IssuedPass{
		Pass:          pass,
		ValidityHours: domain.PassValidityHours,
		Visit:         visit,
	}, nil
}

func (s *passService) CheckIn(ctx context.Context, code string, securityID int64) (*CheckInResult, error) {
	detail, err := s.resolvePass(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if detail.IsUsed {
		return nil, domain.Statef("this pass has already been used for check-in")
	}
	if now.After(detail.ValidUntil) {
		return nil, domain.Statef("this pass has expired")
	}
	if now.Before(detail.ValidFrom) {
		return nil, domain.Statef("this pass is not yet valid")
	}

	// The repository re-checks the is_used guard inside the transaction,
	// so the checks above are advisory under concurrency.
	traffic, err := s.passRepo.CheckIn(ctx, detail.ID, securityID)
	if err != nil {
		if domain.KindOf(err) != domain.KindUnexpected {
			return nil, err
		}
		return nil, domain.Unexpected(err, "failed to register check-in")
	}

	if err := s.eventBus.Publish(ctx, events.PassCheckedIn, events.PassMovementEvent{
		PassID:       detail.ID,
		TrafficLogID: traffic.ID,
		Code:         detail.Code,
		RecordedBy:   securityID,
		CheckedInAt:  traffic.CheckedInAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-in event", "error", err, "pass_id", detail.ID)
	}

	detail.IsUsed = true
	detail.Traffic = traffic
	return &CheckInResult{Traffic: traffic, Pass: detail}, nil
}

func (s *passService) CheckOut(ctx context.Context, code string) (*CheckInResult, error) {
	detail, err := s.resolvePass(ctx, code)
	if err != nil {
		return nil, err
	}

	if detail.Traffic == nil {
		return nil, domain.Statef("this pass has not been checked in yet")
	}
	if detail.Traffic.CheckedOutAt != nil {
		return nil, domain.Statef("this pass has already been checked out")
	}

	traffic, err := s.passRepo.CheckOut(ctx, detail.ID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to register check-out")
	}
	if traffic == nil {
		return nil, domain.Statef("this pass has already been checked out")
	}

	if err := s.eventBus.Publish(ctx, events.PassCheckedOut, events.PassMovementEvent{
		PassID:       detail.ID,
		TrafficLogID: traffic.ID,
		Code:         detail.Code,
		CheckedInAt:  traffic.CheckedInAt,
		CheckedOutAt: traffic.CheckedOutAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-out event", "error", err, "pass_id", detail.ID)
	}

	detail.Traffic = traffic
	return &CheckInResult{Traffic: traffic, Pass: detail}, nil
}

func (s *passService) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	detail, err := s.resolvePass(ctx, code)
	if err != nil {
		return nil, err
	}

	return &LookupResult{
		Pass:   detail,
		Status: detail.DerivedStatus(time.Now()),
	}, nil
}

func (s *passService) resolvePass(ctx context.Context, code string) (*domain.PassDetail, error) {
	code = domain.NormalizePassCode(code)
	if code == "" {
		return nil, domain.Validationf("pass code is required")
	}

	detail, err := s.passRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to look up pass")
	}
	if detail == nil {
		return nil, domain.NotFoundf("invalid pass code")
	}
	return detail, nil
}
