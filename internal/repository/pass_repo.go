package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatepass/internal/domain"
)

// maxCodeAttempts bounds the uniqueness retry loop. With 4 random bytes a
// collision is already vanishingly unlikely; hitting this bound means the
// random source or the table is broken.
const maxCodeAttempts = 100

type PassRepository interface {
	Issue(ctx context.Context, visitRequestID, issuedBy int64, validFrom, validUntil time.Time) (*domain.Pass, error)
	GetByCode(ctx context.Context, code string) (*domain.PassDetail, error)
	CheckIn(ctx context.Context, passID, recordedBy int64) (*domain.TrafficLog, error)
	CheckOut(ctx context.Context, passID int64) (*domain.TrafficLog, error)
}

type passRepository struct {
	pool *pgxpool.Pool
}

func NewPassRepository(pool *pgxpool.Pool) PassRepository {
	return &passRepository{pool: pool}
}

const passCols = `id, visit_request_id, code, issued_by, valid_from, valid_until, is_used, created_at`

// Issue flips the visit request to approved and inserts the permit as one
// atomic unit. The status-guard update decides the winner under concurrent
// approvals: whoever sees zero rows affected lost the race.
func (r *passRepository) Issue(ctx context.Context, visitRequestID, issuedBy int64, validFrom, validUntil time.Time) (*domain.Pass, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE visit_requests SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		visitRequestID, domain.StatusApproved, domain.StatusPendingSecurity)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.Statef("visit request is no longer pending security review")
	}

	var pass *domain.Pass
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := domain.NewPassCode()

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM passes WHERE code = $1)`, code).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		var p domain.Pass
		err := tx.QueryRow(ctx, `
			INSERT INTO passes (visit_request_id, code, issued_by, valid_from, valid_until, is_used)
			VALUES ($1, $2, $3, $4, $5, false)
			RETURNING `+passCols,
			visitRequestID, code, issuedBy, validFrom, validUntil,
		).Scan(&p.ID, &p.VisitRequestID, &p.Code, &p.IssuedBy, &p.ValidFrom, &p.ValidUntil, &p.IsUsed, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		pass = &p
		break
	}
	if pass == nil {
		return nil, domain.Unexpected(nil, "could not allocate a unique pass code")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pass, nil
}

func (r *passRepository) GetByCode(ctx context.Context, code string) (*domain.PassDetail, error) {
	const q = `
		SELECT p.id, p.visit_request_id, p.code, p.issued_by, p.valid_from, p.valid_until, p.is_used, p.created_at,
			tl.id, tl.pass_id, tl.checked_in_at, tl.checked_out_at, tl.recorded_by, tl.created_at,
			vr.purpose, vr.visit_date, vr.status,
			g.id, g.name, g.email, g.phone,
			h.id, h.name, h.email,
			s.name
		FROM passes p
		JOIN visit_requests vr ON p.visit_request_id = vr.id
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		JOIN users s ON p.issued_by = s.id
		LEFT JOIN traffic_logs tl ON p.id = tl.pass_id
		WHERE p.code = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var d domain.PassDetail
	var tlID, tlPassID, tlRecordedBy *int64
	var tlCheckedInAt, tlCheckedOutAt, tlCreatedAt *time.Time

	err := r.pool.QueryRow(ctx, q, code).Scan(
		&d.ID, &d.VisitRequestID, &d.Code, &d.IssuedBy, &d.ValidFrom, &d.ValidUntil, &d.IsUsed, &d.CreatedAt,
		&tlID, &tlPassID, &tlCheckedInAt, &tlCheckedOutAt, &tlRecordedBy, &tlCreatedAt,
		&d.Purpose, &d.VisitDate, &d.VisitStatus,
		&d.Guest.ID, &d.Guest.Name, &d.Guest.Email, &d.Guest.Phone,
		&d.Host.ID, &d.Host.Name, &d.Host.Email,
		&d.IssuedByName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if tlID != nil {
		d.Traffic = &domain.TrafficLog{
			ID:           *tlID,
			PassID:       *tlPassID,
			CheckedInAt:  *tlCheckedInAt,
			CheckedOutAt: tlCheckedOutAt,
			RecordedBy:   *tlRecordedBy,
			CreatedAt:    *tlCreatedAt,
		}
	}
	return &d, nil
}

// CheckIn marks the pass used and records the presence episode in one
// transaction. The is_used guard is re-checked here, inside the
// transaction, so two concurrent check-ins on the same code cannot both
// succeed.
func (r *passRepository) CheckIn(ctx context.Context, passID, recordedBy int64) (*domain.TrafficLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE passes SET is_used = true WHERE id = $1 AND is_used = false`, passID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.Statef("this pass has already been used for check-in")
	}

	var tl domain.TrafficLog
	err = tx.QueryRow(ctx, `
		INSERT INTO traffic_logs (pass_id, checked_in_at, recorded_by)
		VALUES ($1, now(), $2)
		RETURNING id, pass_id, checked_in_at, checked_out_at, recorded_by, created_at`,
		passID, recordedBy,
	).Scan(&tl.ID, &tl.PassID, &tl.CheckedInAt, &tl.CheckedOutAt, &tl.RecordedBy, &tl.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &tl, nil
}

// CheckOut sets the checkout time only when it is still unset; a nil
// result means there was nothing to close (raced or already closed).
func (r *passRepository) CheckOut(ctx context.Context, passID int64) (*domain.TrafficLog, error) {
	const q = `
		UPDATE traffic_logs SET checked_out_at = now()
		WHERE pass_id = $1 AND checked_out_at IS NULL
		RETURNING id, pass_id, checked_in_at, checked_out_at, recorded_by, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var tl domain.TrafficLog
	err := r.pool.QueryRow(ctx, q, passID).Scan(
		&tl.ID, &tl.PassID, &tl.CheckedInAt, &tl.CheckedOutAt, &tl.RecordedBy, &tl.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tl, nil
}
