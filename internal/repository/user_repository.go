package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passari/web-ui/internal/domain"
)

// UserRepository defines persistence access for web UI accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLoginInfo(ctx context.Context, id int64, ip string, at time.Time) error
	FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error)
	AddRole(ctx context.Context, userID, roleID int64) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, COALESCE(username, ''), COALESCE(password, ''), last_login_at, current_login_at,
       last_login_ip, current_login_ip, COALESCE(login_count, 0), COALESCE(active, FALSE), confirmed_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO "user" (email, username, password, login_count, active)
        VALUES ($1, $2, $3, 0, $4)
        RETURNING id`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Active,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE id=$1`
	return r.getUser(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE lower(email)=lower($1)`
	return r.getUser(ctx, query, email)
}

func (r *userRepository) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.LastLoginAt,
		&user.CurrentLoginAt,
		&user.LastLoginIP,
		&user.CurrentLoginIP,
		&user.LoginCount,
		&user.Active,
		&user.ConfirmedAt,
	); err != nil {
		return nil, err
	}

	roles, err := r.rolesFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *userRepository) rolesFor(ctx context.Context, userID int64) ([]domain.Role, error) {
	const query = `
        SELECT r.id, r.name, COALESCE(r.description, '')
        FROM role r JOIN roles_users ru ON ru.role_id = r.id
        WHERE ru.user_id=$1
        ORDER BY r.name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpdateLoginInfo shifts the current login into the "last" columns and
// records the new one.
func (r *userRepository) UpdateLoginInfo(ctx context.Context, id int64, ip string, at time.Time) error {
	const query = `
        UPDATE "user" SET
            last_login_at = COALESCE(current_login_at, $2),
            last_login_ip = COALESCE(current_login_ip, $3),
            current_login_at = $2,
            current_login_ip = $3,
            login_count = COALESCE(login_count, 0) + 1
        WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id, at, ip)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error) {
	const query = `
        INSERT INTO role (name, description) VALUES ($1, '')
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id, name, COALESCE(description, '')`

	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) AddRole(ctx context.Context, userID, roleID int64) error {
	const query = `
        INSERT INTO roles_users (user_id, role_id) VALUES ($1, $2)
        ON CONFLICT (user_id, role_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}
