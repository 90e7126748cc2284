package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"music_charts_api/internal/common"
	"music_charts_api/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id int64, when time.Time) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, hashed_password, role, is_active)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.HashedPassword, string(user.Role), user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			if strings.Contains(pgErr.ConstraintName, "email") {
				return fmt.Errorf("email already registered: %w", common.ErrConflict)
			}
			return fmt.Errorf("username already registered: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, username)
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *pgUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT id, username, email, hashed_password, role, is_active, created_at, last_login
	          FROM users ` + where
	user := &model.User{}
	var role string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&role, &user.IsActive, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findOne: %w", err)
	}
	user.Role = model.Role(role)
	return user, nil
}

func (r *pgUserRepository) UpdateLastLogin(ctx context.Context, id int64, when time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, when, id); err != nil {
		return fmt.Errorf("pgUserRepository.UpdateLastLogin: %w", err)
	}
	return nil
}
