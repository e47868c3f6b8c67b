package cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores cases and departments in the relational database.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("cases: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q Querier) *PostgresRepository {
	if q == nil {
		panic("cases: querier required")
	}
	return &PostgresRepository{pool: q}
}

// CreateCase inserts a new row.
func (r *PostgresRepository) CreateCase(ctx context.Context, draft *Draft) (*Case, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	status := draft.InitialStatus()
	query := `
		INSERT INTO cases (
			id, reference, kind, citizen_name, citizen_phone, department_id,
			description, media_ref, purpose, visit_date, time_slot, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		draft.Reference,
		string(draft.Kind),
		draft.CitizenName,
		draft.CitizenPhone,
		draft.DepartmentID,
		draft.Description,
		draft.MediaRef,
		draft.Purpose,
		draft.Date,
		draft.TimeSlot,
		status,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("cases: insert failed: %w", err)
	}

	return &Case{
		ID:           id,
		Reference:    draft.Reference,
		Kind:         draft.Kind,
		CitizenName:  draft.CitizenName,
		CitizenPhone: draft.CitizenPhone,
		DepartmentID: draft.DepartmentID,
		Description:  draft.Description,
		MediaRef:     draft.MediaRef,
		Purpose:      draft.Purpose,
		Date:         draft.Date,
		TimeSlot:     draft.TimeSlot,
		Status:       status,
		CreatedAt:    createdAt,
	}, nil
}

const caseColumns = `
	id, reference, kind, citizen_name, citizen_phone, department_id,
	description, media_ref, purpose, visit_date, time_slot, status, created_at
`

// FindByReference fetches a case by its exact reference id.
func (r *PostgresRepository) FindByReference(ctx context.Context, reference string) (*Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE reference = $1`
	return r.scanCase(r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(reference))))
}

// FindLatestByPhone fetches the most recent case filed from a phone number.
func (r *PostgresRepository) FindLatestByPhone(ctx context.Context, phone string) (*Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases
		WHERE lower(citizen_phone) = lower($1)
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanCase(r.pool.QueryRow(ctx, query, phone))
}

func (r *PostgresRepository) scanCase(row pgx.Row) (*Case, error) {
	var c Case
	var kind string
	if err := row.Scan(
		&c.ID,
		&c.Reference,
		&kind,
		&c.CitizenName,
		&c.CitizenPhone,
		&c.DepartmentID,
		&c.Description,
		&c.MediaRef,
		&c.Purpose,
		&c.Date,
		&c.TimeSlot,
		&c.Status,
		&c.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cases: select failed: %w", err)
	}
	c.Kind = Kind(kind)
	return &c, nil
}

// FindDepartment fetches a department by id.
func (r *PostgresRepository) FindDepartment(ctx context.Context, id string) (*Department, error) {
	query := `SELECT id, name, active FROM departments WHERE id = $1`
	var d Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Active); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cases: select department failed: %w", err)
	}
	return &d, nil
}

// ListDepartments returns departments in display order.
func (r *PostgresRepository) ListDepartments(ctx context.Context, activeOnly bool) ([]Department, error) {
	query := `SELECT id, name, active FROM departments`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cases: list departments failed: %w", err)
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Active); err != nil {
			return nil, fmt.Errorf("cases: scan department: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cases: iterate departments: %w", err)
	}
	return out, nil
}

var _ Repository = (*PostgresRepository)(nil)
