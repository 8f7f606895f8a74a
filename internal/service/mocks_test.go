package service_test

import (
	"context"
	"strings"
	"time"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/repository"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID  int64
	users   map[int64]*domain.User
	touched []int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) seed(name, email string, role domain.Role) *domain.User {
	u := &domain.User{
		ID:        m.nextID,
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *mockUserRepo) Create(_ context.Context, name, email, passwordHash, phone string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := m.seed(name, email, role)
	u.PasswordHash = passwordHash
	u.Phone = phone
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindHostByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email && u.Role == domain.RoleHost {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var users []domain.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

type mockTokenRepo struct {
	blacklisted map[string]int64
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{blacklisted: make(map[string]int64)}
}

func (m *mockTokenRepo) Blacklist(_ context.Context, token string, userID int64) error {
	m.blacklisted[token] = userID
	return nil
}

func (m *mockTokenRepo) IsBlacklisted(_ context.Context, token string) (bool, error) {
	_, ok := m.blacklisted[token]
	return ok, nil
}

type mockVisitRepo struct {
	nextID int64
	visits map[int64]*domain.VisitRequest
	users  *mockUserRepo
}

func newMockVisitRepo(users *mockUserRepo) *mockVisitRepo {
	return &mockVisitRepo{nextID: 1, visits: make(map[int64]*domain.VisitRequest), users: users}
}

func (m *mockVisitRepo) Create(_ context.Context, guestID, hostID int64, purpose, description string, visitDate time.Time) (*domain.VisitRequest, error) {
	v := &domain.VisitRequest{
		ID:          m.nextID,
		GuestID:     guestID,
		HostID:      hostID,
		Purpose:     purpose,
		Description: description,
		VisitDate:   visitDate,
		Status:      domain.StatusPendingHostReview,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.visits[v.ID] = v
	m.nextID++
	return v, nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id int64) (*domain.VisitRequest, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, nil
	}
	copy := *v
	return &copy, nil
}

func (m *mockVisitRepo) personRef(id int64) *domain.PersonRef {
	u, ok := m.users.users[id]
	if !ok {
		return &domain.PersonRef{ID: id}
	}
	return &domain.PersonRef{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

func (m *mockVisitRepo) detail(v *domain.VisitRequest) domain.VisitDetail {
	return domain.VisitDetail{
		VisitRequest: *v,
		Guest:        m.personRef(v.GuestID),
		Host:         m.personRef(v.HostID),
	}
}

func (m *mockVisitRepo) GetDetail(_ context.Context, id int64) (*domain.VisitDetail, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, nil
	}
	d := m.detail(v)
	return &d, nil
}

func (m *mockVisitRepo) ListByGuest(_ context.Context, guestID int64) ([]domain.VisitDetail, error) {
	var out []domain.VisitDetail
	for _, v := range m.visits {
		if v.GuestID == guestID {
			out = append(out, m.detail(v))
		}
	}
	return out, nil
}

func (m *mockVisitRepo) ListByHost(_ context.Context, hostID int64, status *domain.VisitStatus) ([]domain.VisitDetail, error) {
	var out []domain.VisitDetail
	for _, v := range m.visits {
		if v.HostID != hostID {
			continue
		}
		if status != nil && v.Status != *status {
			continue
		}
		out = append(out, m.detail(v))
	}
	return out, nil
}

func (m *mockVisitRepo) ListPendingSecurity(_ context.Context) ([]domain.VisitDetail, error) {
	var out []domain.VisitDetail
	for _, v := range m.visits {
		if v.Status == domain.StatusPendingSecurity {
			out = append(out, m.detail(v))
		}
	}
	return out, nil
}

func (m *mockVisitRepo) Transition(_ context.Context, id int64, from, to domain.VisitStatus) (*domain.VisitRequest, error) {
	v, ok := m.visits[id]
	if !ok || v.Status != from {
		return nil, nil
	}
	v.Status = to
	v.UpdatedAt = time.Now()
	copy := *v
	return &copy, nil
}

func (m *mockVisitRepo) Reject(_ context.Context, id int64, from, to domain.VisitStatus, reason string) (*domain.VisitRequest, error) {
	v, ok := m.visits[id]
	if !ok || v.Status != from {
		return nil, nil
	}
	v.Status = to
	v.RejectionReason = reason
	v.UpdatedAt = time.Now()
	copy := *v
	return &copy, nil
}

type mockPassRepo struct {
	nextID  int64
	passes  map[int64]*domain.Pass
	byCode  map[string]int64
	traffic map[int64]*domain.TrafficLog
	visits  *mockVisitRepo
}

func newMockPassRepo(visits *mockVisitRepo) *mockPassRepo {
	return &mockPassRepo{
		nextID:  1,
		passes:  make(map[int64]*domain.Pass),
		byCode:  make(map[string]int64),
		traffic: make(map[int64]*domain.TrafficLog),
		visits:  visits,
	}
}

func (m *mockPassRepo) Issue(_ context.Context, visitRequestID, issuedBy int64, validFrom, validUntil time.Time) (*domain.Pass, error) {
	v, ok := m.visits.visits[visitRequestID]
	if !ok || v.Status != domain.StatusPendingSecurity {
		return nil, domain.Statef("visit request is no longer pending security review")
	}
	v.Status = domain.StatusApproved
	v.UpdatedAt = time.Now()

	code := domain.NewPassCode()
	for m.byCode[code] != 0 {
		code = domain.NewPassCode()
	}

	p := &domain.Pass{
		ID:             m.nextID,
		VisitRequestID: visitRequestID,
		Code:           code,
		IssuedBy:       issuedBy,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		CreatedAt:      time.Now(),
	}
	m.passes[p.ID] = p
	m.byCode[code] = p.ID
	m.nextID++
	return p, nil
}

func (m *mockPassRepo) GetByCode(_ context.Context, code string) (*domain.PassDetail, error) {
	id, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	p := m.passes[id]
	v := m.visits.visits[p.VisitRequestID]

	d := &domain.PassDetail{
		Pass:        *p,
		Purpose:     v.Purpose,
		VisitDate:   v.VisitDate,
		VisitStatus: v.Status,
		Guest:       *m.visits.personRef(v.GuestID),
		Host:        *m.visits.personRef(v.HostID),
	}
	if tl, ok := m.traffic[p.ID]; ok {
		copy := *tl
		d.Traffic = &copy
	}
	return d, nil
}

func (m *mockPassRepo) CheckIn(_ context.Context, passID, recordedBy int64) (*domain.TrafficLog, error) {
	p, ok := m.passes[passID]
	if !ok {
		return nil, domain.NotFoundf("invalid pass code")
	}
	if p.IsUsed {
		return nil, domain.Statef("this pass has already been used for check-in")
	}
	p.IsUsed = true

	tl := &domain.TrafficLog{
		ID:          passID,
		PassID:      passID,
		CheckedInAt: time.Now(),
		RecordedBy:  recordedBy,
		CreatedAt:   time.Now(),
	}
	m.traffic[passID] = tl
	copy := *tl
	return &copy, nil
}

func (m *mockPassRepo) CheckOut(_ context.Context, passID int64) (*domain.TrafficLog, error) {
	tl, ok := m.traffic[passID]
	if !ok || tl.CheckedOutAt != nil {
		return nil, nil
	}
	now := time.Now()
	tl.CheckedOutAt = &now
	copy := *tl
	return &copy, nil
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

type mockEventBus struct {
	published []publishedEvent
}

func (m *mockEventBus) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (m *mockEventBus) Close() error { return nil }

func (m *mockEventBus) subjects() []string {
	var out []string
	for _, e := range m.published {
		out = append(out, e.Subject)
	}
	return out
}

type mockMailer struct {
	lastTo    string
	lastCode  string
	sendCount int
	sendErr   error
}

func (m *mockMailer) SendVisitRequested(toEmail, toName, purpose string, visitDate time.Time) error {
	m.lastTo = toEmail
	m.sendCount++
	return m.sendErr
}

func (m *mockMailer) SendPassIssued(toEmail, toName, code string, validUntil time.Time) error {
	m.lastTo = toEmail
	m.lastCode = code
	m.sendCount++
	return m.sendErr
}
