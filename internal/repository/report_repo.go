package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatepass/internal/domain"
)

// ReportRepository serves the read-only admin projections. Nothing here
// mutates state.
type ReportRepository interface {
	AuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
	PresentNow(ctx context.Context) ([]domain.PresentEntry, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) AuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	const q = `
		SELECT vr.id, vr.guest_id, vr.host_id, vr.purpose, vr.description, vr.visit_date,
			vr.status, COALESCE(vr.rejection_reason, ''), vr.created_at, vr.updated_at,
			g.id, g.name, g.email, g.phone,
			h.id, h.name, h.email,
			p.id, p.code, p.valid_from, p.valid_until, p.is_used, p.created_at,
			s.name
		FROM visit_requests vr
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		LEFT JOIN passes p ON vr.id = p.visit_request_id
		LEFT JOIN users s ON p.issued_by = s.id
		ORDER BY vr.created_at DESC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var guest, host domain.PersonRef
		var passID *int64
		var passCode, issuedByName *string
		var validFrom, validUntil, passCreatedAt *time.Time
		var isUsed *bool

		if err := rows.Scan(
			&e.ID, &e.GuestID, &e.HostID, &e.Purpose, &e.Description, &e.VisitDate,
			&e.Status, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt,
			&guest.ID, &guest.Name, &guest.Email, &guest.Phone,
			&host.ID, &host.Name, &host.Email,
			&passID, &passCode, &validFrom, &validUntil, &isUsed, &passCreatedAt,
			&issuedByName,
		); err != nil {
			return nil, err
		}
		e.Guest = &guest
		e.Host = &host
		if passID != nil {
			e.Pass = &domain.PassSummary{
				ID:           *passID,
				Code:         *passCode,
				ValidFrom:    *validFrom,
				ValidUntil:   *validUntil,
				IsUsed:       *isUsed,
				CreatedAt:    *passCreatedAt,
				IssuedByName: *issuedByName,
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *reportRepository) PresentNow(ctx context.Context) ([]domain.PresentEntry, error) {
	const q = `
		SELECT tl.id, tl.checked_in_at, p.code, p.valid_until, vr.purpose, vr.visit_date,
			g.id, g.name, g.email, g.phone,
			h.id, h.name, h.email
		FROM traffic_logs tl
		JOIN passes p ON tl.pass_id = p.id
		JOIN visit_requests vr ON p.visit_request_id = vr.id
		JOIN users g ON vr.guest_id = g.id
		JOIN users h ON vr.host_id = h.id
		WHERE tl.checked_out_at IS NULL
		ORDER BY tl.checked_in_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PresentEntry
	for rows.Next() {
		var e domain.PresentEntry
		if err := rows.Scan(
			&e.TrafficLogID, &e.CheckedInAt, &e.PassCode, &e.ValidUntil, &e.Purpose, &e.VisitDate,
			&e.Guest.ID, &e.Guest.Name, &e.Guest.Email, &e.Guest.Phone,
			&e.Host.ID, &e.Host.Name, &e.Host.Email,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats reads every count inside one repeatable-read transaction so the
// numbers describe a single snapshot even under concurrent writes.
func (r *reportRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := &domain.Stats{
		UsersByRole:    make(map[domain.Role]int64),
		VisitsByStatus: make(map[domain.VisitStatus]int64),
	}

	rows, err := tx.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var role domain.Role
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.UsersByRole[role] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT status, COUNT(*) FROM visit_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status domain.VisitStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.VisitsByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM visit_requests WHERE created_at::date = CURRENT_DATE`,
	).Scan(&stats.TodayVisits); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM traffic_logs WHERE checked_out_at IS NULL`,
	).Scan(&stats.PresentCount); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM traffic_logs WHERE checked_in_at::date = CURRENT_DATE`,
	).Scan(&stats.TodayCheckIns); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM traffic_logs WHERE checked_in_at >= CURRENT_DATE - INTERVAL '7 days'`,
	).Scan(&stats.WeekCheckIns); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
