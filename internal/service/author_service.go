package service

import (
	"context"
	"errors"
	"strings"

	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
)

// AuthorStore persists authors.
type AuthorStore interface {
	GetByID(ctx context.Context, id int) (*model.Author, error)
	GetByEmail(ctx context.Context, email string) (*model.Author, error)
	Create(ctx context.Context, a *model.Author) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// AuthorService handles author accounts.
type AuthorService struct {
	repo AuthorStore
	auth *AuthService
}

// NewAuthorService creates a new AuthorService.
func NewAuthorService(repo AuthorStore, auth *AuthService) *AuthorService {
	return &AuthorService{repo: repo, auth: auth}
}

// GetByID retrieves an author by ID.
func (s *AuthorService) GetByID(ctx context.Context, id int) (*model.Author, error) {
	return s.repo.GetByID(ctx, id)
}

// Authenticate returns the author matching the credentials. Unknown emails
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthorService) Authenticate(ctx context.Context, email, password string) (*model.Author, error) {
	a, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.auth.CheckPassword(a.PasswordHash, password); err != nil {
		return nil, err
	}
	return a, nil
}

// Create registers a new author with a hashed password.
func (s *AuthorService) Create(ctx context.Context, email, name, password string) (*model.Author, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &model.Author{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ChangePassword replaces an author's password after checking the current one.
func (s *AuthorService) ChangePassword(ctx context.Context, id int, current, password string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.auth.CheckPassword(a.PasswordHash, current); err != nil {
		return err
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}
