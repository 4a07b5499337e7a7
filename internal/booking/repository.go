package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Reserve atomically checks the requested window against live bookings
	// on the same resource and inserts the booking if it is free. The check
	// and insert are a single unit with respect to concurrent Reserve calls
	// on the same resource; calls on different resources do not block each
	// other. On contention it returns the conflicting intervals and leaves
	// no partial state behind.
	Reserve(ctx context.Context, b *Booking) ([]Interval, error)

	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UpdateStatus persists a status transition together with the admin
	// note and check-in timestamp.
	UpdateStatus(ctx context.Context, b *Booking) error

	// FindIdentical returns a live booking by the same requester for the
	// exact same resource and window, or ErrNotFound. Used to make reserve
	// retries idempotent.
	FindIdentical(ctx context.Context, resourceID, requesterID string, start, end time.Time) (*Booking, error)

	// HasOverlap reports whether any live booking on the resource
	// intersects [start, end).
	HasOverlap(ctx context.Context, resourceID string, start, end time.Time) (bool, error)

	// ListLiveInRange returns live bookings on the resource intersecting
	// [from, to), ordered by start time.
	ListLiveInRange(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)

	// CompleteOverdue marks approved and checked_in bookings whose end has
	// passed as completed. Returns the number of bookings swept.
	CompleteOverdue(ctx context.Context, now time.Time) (int64, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Reserve(ctx context.Context, b *Booking) ([]Interval, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize writers per resource. The lock is released at commit or
	// rollback, closing the check-then-act window between the overlap scan
	// and the insert.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", b.ResourceID); err != nil {
		return nil, fmt.Errorf("acquire resource lock failed: %w", err)
	}

	query, args, err := psql.Select("start_time", "end_time").
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": b.ResourceID}).
		Where(squirrel.Eq{"status": LiveStatuses}).
		Where(squirrel.Lt{"start_time": b.EndTime}).
		Where(squirrel.Gt{"end_time": b.StartTime}).
		OrderBy("start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("check overlap failed: %w", err)
	}

	var conflicts []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan conflicting interval failed: %w", err)
		}
		conflicts = append(conflicts, iv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read conflicting intervals failed: %w", err)
	}

	if len(conflicts) > 0 {
		return conflicts, nil
	}

	query, args, err = psql.Insert("public.bookings").
		Columns("resource_id", "requester_id", "start_time", "end_time", "status").
		Values(b.ResourceID, b.RequesterID, b.StartTime, b.EndTime, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		// The bookings_no_overlap exclusion constraint is the storage-level
		// backstop for the same invariant; report it as a conflict rather
		// than an infrastructure failure.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return []Interval{{Start: b.StartTime, End: b.EndTime}}, nil
		}
		return nil, fmt.Errorf("insert booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reserve tx failed: %w", err)
	}
	return nil, nil
}

const bookingColumns = `
	b.id, b.resource_id, r.name, b.requester_id, COALESCE(u.display_name, u.email),
	b.start_time, b.end_time, b.status, b.admin_note, b.checked_in_at,
	b.created_at, b.updated_at
`

func scanBooking(row pgx.Row, b *Booking, extra ...any) error {
	dest := []any{
		&b.ID, &b.ResourceID, &b.ResourceName, &b.RequesterID, &b.RequesterName,
		&b.StartTime, &b.EndTime, &b.Status, &b.AdminNote, &b.CheckedInAt,
		&b.CreatedAt, &b.UpdatedAt,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM public.bookings b
		JOIN public.resources r ON b.resource_id = r.id
		JOIN public.users u ON b.requester_id = u.id
		WHERE b.id = $1
	`, bookingColumns)

	var b Booking
	if err := scanBooking(r.pool.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(
		"b.id", "b.resource_id", "r.name", "b.requester_id", "COALESCE(u.display_name, u.email)",
		"b.start_time", "b.end_time", "b.status", "b.admin_note", "b.checked_in_at",
		"b.created_at", "b.updated_at",
		"count(*) OVER() as total_count",
	).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.users u ON b.requester_id = u.id")

	if filter.RequesterID != "" {
		query = query.Where(squirrel.Eq{"b.requester_id": filter.RequesterID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.GtOrEq{"b.end_time": filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.LtOrEq{"b.start_time": filter.EndTime})
	}

	orderBy := "b.start_time"
	if filter.SortBy != "" {
		orderBy = "b." + filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b, &total); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, rows.Err()
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("admin_note", b.AdminNote).
		Set("checked_in_at", b.CheckedInAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) FindIdentical(ctx context.Context, resourceID, requesterID string, start, end time.Time) (*Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM public.bookings b
		JOIN public.resources r ON b.resource_id = r.id
		JOIN public.users u ON b.requester_id = u.id
		WHERE b.resource_id = $1
		  AND b.requester_id = $2
		  AND b.start_time = $3
		  AND b.end_time = $4
		  AND b.status = ANY($5)
		LIMIT 1
	`, bookingColumns)

	var b Booking
	if err := scanBooking(r.pool.QueryRow(ctx, query, resourceID, requesterID, start, end, LiveStatuses), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find identical booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	sub, args, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"status": LiveStatuses}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListLiveInRange(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	query, args, err := psql.Select(
		"b.id", "b.resource_id", "r.name", "b.requester_id", "COALESCE(u.display_name, u.email)",
		"b.start_time", "b.end_time", "b.status", "b.admin_note", "b.checked_in_at",
		"b.created_at", "b.updated_at",
	).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.users u ON b.requester_id = u.id").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(squirrel.Eq{"b.status": LiveStatuses}).
		Where(squirrel.Lt{"b.start_time": to}).
		Where(squirrel.Gt{"b.end_time": from}).
		OrderBy("b.start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build live range query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list live bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("scan live booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}

func (r *pgxRepository) CompleteOverdue(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusCompleted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": []Status{StatusApproved, StatusCheckedIn}}).
		Where(squirrel.LtOrEq{"end_time": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build completion sweep query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("completion sweep failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
