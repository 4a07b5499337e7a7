package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	props, err := json.Marshal(res.Properties)
	if err != nil {
		return fmt.Errorf("marshal resource properties failed: %w", err)
	}

	const query = `
		INSERT INTO public.resources (resource_type, name, is_active, properties)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, res.ResourceType, res.Name, res.IsActive, props).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func scanResource(row pgx.Row, res *Resource, extra ...any) error {
	var props []byte
	dest := []any{
		&res.ID, &res.ResourceType, &res.Name, &res.IsActive, &props,
		&res.PhotoPath, &res.CreatedAt, &res.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	res.Properties = map[string]any{}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &res.Properties); err != nil {
			return fmt.Errorf("unmarshal resource properties failed: %w", err)
		}
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	const query = `
		SELECT id, resource_type, name, is_active, properties, photo_path, created_at, updated_at
		FROM public.resources
		WHERE id = $1
	`

	var res Resource
	if err := scanResource(r.pool.QueryRow(ctx, query, id), &res); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	var args []any
	queryBase := `
		SELECT id, resource_type, name, is_active, properties, photo_path, created_at, updated_at,
		       count(*) OVER() as total_count
		FROM public.resources
		WHERE 1=1
	`
	paramIndex := 1

	if filter.ResourceType != "" {
		queryBase += fmt.Sprintf(" AND resource_type = $%d", paramIndex)
		args = append(args, filter.ResourceType)
		paramIndex++
	}
	if filter.IsActive != nil {
		queryBase += fmt.Sprintf(" AND is_active = $%d", paramIndex)
		args = append(args, *filter.IsActive)
		paramIndex++
	}

	queryBase += " ORDER BY id ASC"

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBase += fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.pool.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int

	for rows.Next() {
		var res Resource
		if err := scanResource(rows, &res, &total); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}

	return result, total, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	props, err := json.Marshal(res.Properties)
	if err != nil {
		return fmt.Errorf("marshal resource properties failed: %w", err)
	}

	const query = `
		UPDATE public.resources
		SET name = $1, is_active = $2, properties = $3, photo_path = $4, updated_at = now()
		WHERE id = $5
	`
	ct, err := r.pool.Exec(ctx, query, res.Name, res.IsActive, props, res.PhotoPath, res.ID)
	if err != nil {
		return fmt.Errorf("update resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.resources WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrHasBookings
		}
		return fmt.Errorf("delete resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
