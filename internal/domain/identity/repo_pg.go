package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewave/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, email, name, password_hash, roles, phone, department, designation,
	active, last_login_at, created_at, updated_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Roles, &u.Phone,
		&u.Department, &u.Designation, &u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, roles, phone, department, designation, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Roles, u.Phone, u.Department, u.Designation, u.Active)
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET name=$2, roles=$3, phone=$4, department=$5, designation=$6, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Name, u.Roles, u.Phone, u.Department, u.Designation)
	return err
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id = $1`, id, hash)
	return err
}

func (r *userRepoPG) RecordLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET last_login_at=NOW() WHERE id = $1`, id)
	return err
}

func (r *userRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *userRepoPG) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if role != "" {
		if err = r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE $1 = ANY(roles)`, role).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+userCols+` FROM users WHERE $1 = ANY(roles) ORDER BY name LIMIT $2 OFFSET $3`, role, limit, offset)
	} else {
		if err = r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+userCols+` FROM users ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, nil
}
