package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/papercraft/internal/model"
)

// Author store errors.
var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// AuthorRepository handles author data access.
type AuthorRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorRepository creates a new AuthorRepository.
func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

// GetByID retrieves an author by ID.
func (r *AuthorRepository) GetByID(ctx context.Context, id int) (*model.Author, error) {
	return r.getOne(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM authors WHERE id = $1`, id)
}

// GetByEmail retrieves an author by their unique email.
func (r *AuthorRepository) GetByEmail(ctx context.Context, email string) (*model.Author, error) {
	return r.getOne(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM authors WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *AuthorRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Author, error) {
	a := &model.Author{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return a, nil
}

// Create inserts a new author.
func (r *AuthorRepository) Create(ctx context.Context, a *model.Author) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO authors (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdatePassword replaces an author's password hash.
func (r *AuthorRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE authors SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}
