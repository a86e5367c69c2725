package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	IncrementTokenVersion(ctx context.Context, id string) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, phone, first_name, last_name, image_url, tier, pin_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userID, user.Phone, user.FirstName, user.LastName, user.ImageURL, string(user.Tier), user.PINHash, user.TokenVersion, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUserExists
	}
	return err
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, phone, first_name, last_name, image_url, tier, pin_hash, token_version, created_at
        FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, phone, first_name, last_name, image_url, tier, pin_hash, token_version, created_at
        FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// IncrementTokenVersion bumps the user's token version and returns the new
// value.
func (r *PostgresRepository) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrUserNotFound
	}
	var version int
	err = r.db.QueryRow(ctx, `UPDATE users SET token_version = token_version + 1 WHERE id = $1 RETURNING token_version`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return version, err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		tier      string
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Phone, &user.FirstName, &user.LastName, &user.ImageURL, &tier, &user.PINHash, &user.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.Tier = ledger.Tier(tier)
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
