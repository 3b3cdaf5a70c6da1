package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicportal/portal-auth/internal/core/domain"
	"github.com/clinicportal/portal-auth/internal/core/ports"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, password_digest, role, status, name, created_at, updated_at`

type AccountRepository struct {
	q Querier
}

func NewAccountRepository(q Querier) *AccountRepository {
	return &AccountRepository{q: q}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.findOne(ctx, "find account by email", query, email)
}

// FindByID backs the live status gate; it runs once per protected request.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.findOne(ctx, "find account by id", query, id)
}

func (r *AccountRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, unavailable(op, err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.Exec(ctx, query,
		a.ID,
		a.Email,
		a.PasswordDigest,
		string(a.Role),
		string(a.Status),
		a.Name,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAccountExists
		}
		return unavailable("insert account", err)
	}
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	const query = `UPDATE accounts SET status = $2, updated_at = now() WHERE id = $1`
	return r.update(ctx, "update account status", query, id, string(status))
}

func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role domain.InternalRole) error {
	const query = `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`
	return r.update(ctx, "update account role", query, id, string(role))
}

func (r *AccountRepository) update(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return unavailable(op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, filter ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	where, args := listWhere(filter)

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, unavailable("count accounts", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM accounts%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		accountColumns, where, len(args)+1, len(args)+2)

	rows, err := r.q.Query(ctx, query, append(args, filter.Limit, offset)...)
	if err != nil {
		return nil, 0, unavailable("list accounts", err)
	}
	defer rows.Close()

	out := make([]*domain.Account, 0, filter.Limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, unavailable("scan account", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, unavailable("list accounts", err)
	}
	return out, total, nil
}

func listWhere(filter ports.ListAccountsFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a      domain.Account
		role   string
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordDigest,
		&role,
		&status,
		&a.Name,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Role = domain.InternalRole(role)
	a.Status = domain.AccountStatus(status)
	return &a, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
