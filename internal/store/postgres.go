package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
// Migrations are applied separately (see RunMigrations).
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateUser inserts a user, mapping an email collision to ErrUserExists.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (id, email, password_hash, salt, wrapped_master_key, wrapped_keypair, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Salt,
		user.WrappedMasterKey, user.WrappedKeypair, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, salt, wrapped_master_key, wrapped_keypair, created_at
		FROM users
		WHERE email = lower($1)`

	var user User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Salt,
		&user.WrappedMasterKey, &user.WrappedKeypair, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// CreateRecord inserts an image record.
func (s *PostgresStore) CreateRecord(ctx context.Context, rec ImageRecord) error {
	query := `
		INSERT INTO image_records (id, owner_id, encrypted_vector, blob_key, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.EncryptedVector, rec.BlobKey, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image record: %w", err)
	}
	return nil
}

// GetRecord fetches a record scoped to its owner.
func (s *PostgresStore) GetRecord(ctx context.Context, id, ownerID uuid.UUID) (ImageRecord, error) {
	query := `
		SELECT id, owner_id, encrypted_vector, blob_key, created_at
		FROM image_records
		WHERE id = $1 AND owner_id = $2`

	var rec ImageRecord
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&rec.ID, &rec.OwnerID, &rec.EncryptedVector, &rec.BlobKey, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ImageRecord{}, ErrNotFound
		}
		return ImageRecord{}, fmt.Errorf("failed to query image record: %w", err)
	}
	return rec, nil
}

// ListRecords returns all records owned by ownerID.
func (s *PostgresStore) ListRecords(ctx context.Context, ownerID uuid.UUID) ([]ImageRecord, error) {
	query := `
		SELECT id, owner_id, encrypted_vector, blob_key, created_at
		FROM image_records
		WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query image records: %w", err)
	}
	defer rows.Close()

	var out []ImageRecord
	for rows.Next() {
		var rec ImageRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.EncryptedVector, &rec.BlobKey, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate image records: %w", err)
	}
	return out, nil
}

// DeleteRecord removes a record scoped to its owner.
func (s *PostgresStore) DeleteRecord(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM image_records WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
