package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatepass/internal/domain"
)

type VisitRepository interface {
	Create(ctx context.Context, guestID, hostID int64, purpose, description string, visitDate time.Time) (*domain.VisitRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.VisitRequest, error)
	GetDetail(ctx context.Context, id int64) (*domain.VisitDetail, error)
	ListByGuest(ctx context.Context, guestID int64) ([]domain.VisitDetail, error)
	ListByHost(ctx context.Context, hostID int64, status *domain.VisitStatus) ([]domain.VisitDetail, error)
	ListPendingSecurity(ctx context.Context) ([]domain.VisitDetail, error)
	Transition(ctx context.Context, id int64, from, to domain.VisitStatus) (*domain.VisitRequest, error)
	Reject(ctx context.Context, id int64, from, to domain.VisitStatus, reason string) (*domain.VisitRequest, error)
}

type visitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) VisitRepository {
	return &visitRepository{pool: pool}
}

const visitCols = `id, guest_id, host_id, purpose, description, visit_date, status, COALESCE(rejection_reason, ''), created_at, updated_at`

func scanVisit(row pgx.Row) (*domain.VisitRequest, error) {
	var v domain.VisitRequest
	err := row.Scan(&v.ID, &v.GuestID, &v.HostID, &v.Purpose, &v.Description,
		&v.VisitDate, &v.Status, &v.RejectionReason, &v.CreatedAt, &v.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitRepository) Create(ctx context.Context, guestID, hostID int64, purpose, description string, visitDate time.Time) (*domain.VisitRequest, error) {
	const q = `
		INSERT INTO visit_requests (guest_id, host_id, purpose, description, visit_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + visitCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, guestID, hostID, purpose, description, visitDate, domain.StatusPendingHostReview))
}

func (r *visitRepository) GetByID(ctx context.Context, id int64) (*domain.VisitRequest, error) {
	const q = `SELECT ` + visitCols + ` FROM visit_requests WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, id))
}

const visitDetailCols = `
	vr.id, vr.guest_id, vr.host_id, vr.purpose, vr.description, vr.visit_date,
	vr.status, COALESCE(vr.rejection_reason, ''), vr.created_at, vr.updated_at,
	g.id, g.name, g.email, g.phone,
	h.id, h.name, h.email`

func scanVisitDetail(row pgx.Row) (*domain.VisitDetail, error) {
	var d domain.VisitDetail
	var guest, host domain.PersonRef
	err := row.Scan(
		&d.ID, &d.GuestID, &d.HostID, &d.Purpose, &d.Description, &d.VisitDate,
		&d.Status, &d.RejectionReason, &d.CreatedAt, &d.UpdatedAt,
		&guest.ID, &guest.Name, &guest.Email, &guest.Phone,
		&host.ID, &host.Name, &host.Email,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Guest = &guest
	d.Host = &host
	return &d, nil
}

func (r *visitRepository) GetDetail(ctx context.Context, id int64) (*domain.VisitDetail, error) {
	const q = `
		SELECT ` + visitDetailCols + `
		FROM visit_requests vr
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		WHERE vr.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisitDetail(r.pool.QueryRow(ctx, q, id))
}

func (r *visitRepository) listDetails(ctx context.Context, q string, args ...any) ([]domain.VisitDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.VisitDetail
	for rows.Next() {
		var d domain.VisitDetail
		var guest, host domain.PersonRef
		if err := rows.Scan(
			&d.ID, &d.GuestID, &d.HostID, &d.Purpose, &d.Description, &d.VisitDate,
			&d.Status, &d.RejectionReason, &d.CreatedAt, &d.UpdatedAt,
			&guest.ID, &guest.Name, &guest.Email, &guest.Phone,
			&host.ID, &host.Name, &host.Email,
		); err != nil {
			return nil, err
		}
		d.Guest = &guest
		d.Host = &host
		visits = append(visits, d)
	}
	return visits, rows.Err()
}

func (r *visitRepository) ListByGuest(ctx context.Context, guestID int64) ([]domain.VisitDetail, error) {
	const q = `
		SELECT ` + visitDetailCols + `
		FROM visit_requests vr
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		WHERE vr.guest_id = $1
		ORDER BY vr.created_at DESC`

	return r.listDetails(ctx, q, guestID)
}

func (r *visitRepository) ListByHost(ctx context.Context, hostID int64, status *domain.VisitStatus) ([]domain.VisitDetail, error) {
	q := `
		SELECT ` + visitDetailCols + `
		FROM visit_requests vr
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		WHERE vr.host_id = $1`
	args := []any{hostID}
	if status != nil {
		q += ` AND vr.status = $2`
		args = append(args, *status)
	}
	q += ` ORDER BY vr.created_at DESC`

	return r.listDetails(ctx, q, args...)
}

// ListPendingSecurity orders by visit date first so the earliest visits
// get reviewed first.
func (r *visitRepository) ListPendingSecurity(ctx context.Context) ([]domain.VisitDetail, error) {
	const q = `
		SELECT ` + visitDetailCols + `
		FROM visit_requests vr
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		WHERE vr.status = $1
		ORDER BY vr.visit_date, vr.created_at`

	return r.listDetails(ctx, q, domain.StatusPendingSecurity)
}

// Transition flips status only when the row is still in the expected
// state; a nil result means another writer got there first (or the row
// is gone) and the caller must re-resolve.
func (r *visitRepository) Transition(ctx context.Context, id int64, from, to domain.VisitStatus) (*domain.VisitRequest, error) {
	const q = `
		UPDATE visit_requests SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + visitCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, id, from, to))
}

func (r *visitRepository) Reject(ctx context.Context, id int64, from, to domain.VisitStatus, reason string) (*domain.VisitRequest, error) {
	const q = `
		UPDATE visit_requests SET status = $3, rejection_reason = $4, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + visitCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, id, from, to, reason))
}
