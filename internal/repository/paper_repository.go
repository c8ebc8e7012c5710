package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/papercraft/internal/model"
)

// Paper store errors.
var (
	ErrPaperNotFound   = errors.New("paper not found")
	ErrVersionConflict = errors.New("paper was modified concurrently")
)

// PaperRepository stores papers as JSONB documents with an optimistic
// version counter.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// Create inserts a new paper at version 1.
func (r *PaperRepository) Create(ctx context.Context, authorID int, p model.Paper) (*model.PaperRecord, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode paper: %w", err)
	}

	rec := &model.PaperRecord{AuthorID: authorID, Paper: p}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO papers (author_id, document)
		 VALUES ($1, $2)
		 RETURNING id, version, created_at, updated_at`,
		authorID, doc,
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID retrieves a paper by its UUID.
func (r *PaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaperRecord, error) {
	rec := &model.PaperRecord{}
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, version, document, created_at, updated_at
		 FROM papers WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.AuthorID, &rec.Version, &doc, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(doc, &rec.Paper); err != nil {
		return nil, fmt.Errorf("decode paper %s: %w", id, err)
	}
	return rec, nil
}

// ListByAuthor returns the author's papers, most recently edited first.
func (r *PaperRepository) ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.PaperSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM papers WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id,
		        COALESCE(document->>'schoolName', ''),
		        COALESCE(document->>'examType', ''),
		        COALESCE(document->>'className', ''),
		        COALESCE(document->>'subject', ''),
		        COALESCE((document->>'totalMarks')::int, 0),
		        COALESCE(jsonb_array_length(document->'sections'), 0),
		        updated_at
		 FROM papers
		 WHERE author_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		authorID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	papers := []model.PaperSummary{}
	for rows.Next() {
		var s model.PaperSummary
		if err := rows.Scan(&s.ID, &s.SchoolName, &s.ExamType, &s.ClassName, &s.Subject,
			&s.TotalMarks, &s.Sections, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		papers = append(papers, s)
	}
	return papers, total, rows.Err()
}

// Update stores p if the paper is still at expectedVersion and returns the
// record at its new version.
func (r *PaperRepository) Update(ctx context.Context, id uuid.UUID, expectedVersion int, p model.Paper) (*model.PaperRecord, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode paper: %w", err)
	}

	rec := &model.PaperRecord{ID: id, Paper: p}
	err = r.pool.QueryRow(ctx,
		`UPDATE papers SET document = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3
		 RETURNING author_id, version, created_at, updated_at`,
		doc, id, expectedVersion,
	).Scan(&rec.AuthorID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPaperNotFound
	}
	return nil, ErrVersionConflict
}

// Delete removes a paper.
func (r *PaperRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaperNotFound
	}
	return nil
}
