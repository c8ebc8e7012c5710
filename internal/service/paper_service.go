package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
)

// Paper service errors.
var (
	ErrPaperNotFound  = repository.ErrPaperNotFound
	ErrNotPaperAuthor = errors.New("not the author of this paper")
)

// PaperStore persists paper records.
type PaperStore interface {
	Create(ctx context.Context, authorID int, p model.Paper) (*model.PaperRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaperRecord, error)
	ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.PaperSummary, int, error)
	Update(ctx context.Context, id uuid.UUID, expectedVersion int, p model.Paper) (*model.PaperRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher broadcasts paper change notifications.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.PaperEvent) error
}

// PaperService is the only path through which papers change. Every change
// runs a document operation on the stored paper under a per-paper lock,
// persists the result and publishes a paper_updated event.
type PaperService struct {
	store  PaperStore
	events EventPublisher
	locks  *keyedMutex
	log    zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(store PaperStore, events EventPublisher, log zerolog.Logger) *PaperService {
	return &PaperService{
		store:  store,
		events: events,
		locks:  newKeyedMutex(),
		log:    log.With().Str("component", "paper_service").Logger(),
	}
}

// Create stores a fresh default paper for the author.
func (s *PaperService) Create(ctx context.Context, authorID int) (*model.PaperRecord, error) {
	rec, err := s.store.Create(ctx, authorID, document.New())
	if err != nil {
		return nil, fmt.Errorf("create paper: %w", err)
	}
	s.log.Info().Str("paper_id", rec.ID.String()).Int("author_id", authorID).Msg("Paper created")
	return rec, nil
}

// Import validates a serialized paper and stores it as a new paper.
func (s *PaperService) Import(ctx context.Context, authorID int, raw []byte) (*model.PaperRecord, error) {
	p, err := document.ReplaceDocument(raw)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Create(ctx, authorID, p)
	if err != nil {
		return nil, fmt.Errorf("import paper: %w", err)
	}
	s.log.Info().Str("paper_id", rec.ID.String()).Int("author_id", authorID).Msg("Paper imported")
	return rec, nil
}

// Get returns a paper owned by the author.
func (s *PaperService) Get(ctx context.Context, authorID int, id uuid.UUID) (*model.PaperRecord, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.AuthorID != authorID {
		return nil, ErrNotPaperAuthor
	}
	return rec, nil
}

// List returns a page of the author's papers and the total count.
func (s *PaperService) List(ctx context.Context, authorID, page, perPage int) ([]model.PaperSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.ListByAuthor(ctx, authorID, perPage, (page-1)*perPage)
}

// Delete removes a paper owned by the author.
func (s *PaperService) Delete(ctx context.Context, authorID int, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.Get(ctx, authorID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, model.PaperEvent{Type: model.EventPaperDeleted, PaperID: id})
	return nil
}

// ReplaceDocument swaps the whole paper for a validated serialized one.
// On a parse failure the stored paper is left as it was.
func (s *PaperService) ReplaceDocument(ctx context.Context, authorID int, id uuid.UUID, raw []byte) (*model.PaperRecord, error) {
	next, err := document.ReplaceDocument(raw)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, authorID, id, func(model.Paper) (model.Paper, error) {
		return next, nil
	})
}

// UpdateMetadata edits the paper-level fields.
func (s *PaperService) UpdateMetadata(ctx context.Context, authorID int, id uuid.UUID, patch document.MetadataPatch) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.UpdateMetadata(p, patch)
	})
}

// AddSection appends a new empty section.
func (s *PaperService) AddSection(ctx context.Context, authorID int, id uuid.UUID) (*model.PaperRecord, model.Section, error) {
	var added model.Section
	rec, err := s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		var next model.Paper
		next, added = document.AddSection(p)
		return next, nil
	})
	return rec, added, err
}

// UpdateSection merges a partial section update.
func (s *PaperService) UpdateSection(ctx context.Context, authorID int, id uuid.UUID, sectionID string, patch document.SectionPatch) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.UpdateSection(p, sectionID, patch)
	})
}

// DeleteSection removes a section and its questions.
func (s *PaperService) DeleteSection(ctx context.Context, authorID int, id uuid.UUID, sectionID string) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.DeleteSection(p, sectionID)
	})
}

// MoveSection reorders a section.
func (s *PaperService) MoveSection(ctx context.Context, authorID int, id uuid.UUID, sectionID string, index int) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.MoveSection(p, sectionID, index)
	})
}

// AddQuestion appends a blank question of the given type to a section.
func (s *PaperService) AddQuestion(ctx context.Context, authorID int, id uuid.UUID, sectionID string, typ model.QuestionType) (*model.PaperRecord, model.Question, error) {
	var added model.Question
	rec, err := s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		next, q, err := document.AddQuestion(p, sectionID, typ)
		added = q
		return next, err
	})
	return rec, added, err
}

// UpdateQuestion merges a partial question update.
func (s *PaperService) UpdateQuestion(ctx context.Context, authorID int, id uuid.UUID, sectionID, questionID string, patch document.QuestionPatch) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.UpdateQuestion(p, sectionID, questionID, patch)
	})
}

// DeleteQuestion removes a question.
func (s *PaperService) DeleteQuestion(ctx context.Context, authorID int, id uuid.UUID, sectionID, questionID string) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.DeleteQuestion(p, sectionID, questionID)
	})
}

// MoveQuestion reorders a question within its section.
func (s *PaperService) MoveQuestion(ctx context.Context, authorID int, id uuid.UUID, sectionID, questionID string, index int) (*model.PaperRecord, error) {
	return s.mutate(ctx, authorID, id, func(p model.Paper) (model.Paper, error) {
		return document.MoveQuestion(p, sectionID, questionID, index)
	})
}

// AppendSuggestions adds AI drafted questions to a section. It runs on the
// worker's behalf, so no author check is made. If the paper or the section
// was deleted while the suggestions were generated, it returns
// document.ErrSectionNotFound or ErrPaperNotFound and changes nothing.
func (s *PaperService) AppendSuggestions(ctx context.Context, id uuid.UUID, sectionID string, qs []model.Question) (*model.PaperRecord, error) {
	return s.apply(ctx, id, nil, func(p model.Paper) (model.Paper, error) {
		return document.AppendQuestions(p, sectionID, qs)
	})
}

func (s *PaperService) mutate(ctx context.Context, authorID int, id uuid.UUID, op func(model.Paper) (model.Paper, error)) (*model.PaperRecord, error) {
	return s.apply(ctx, id, func(rec *model.PaperRecord) error {
		if rec.AuthorID != authorID {
			return ErrNotPaperAuthor
		}
		return nil
	}, op)
}

// apply runs op on the stored paper under the paper's lock and persists the
// result. The version check in the store guards writers on other replicas.
func (s *PaperService) apply(ctx context.Context, id uuid.UUID, check func(*model.PaperRecord) error, op func(model.Paper) (model.Paper, error)) (*model.PaperRecord, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(rec); err != nil {
			return nil, err
		}
	}

	next, err := op(rec.Paper)
	if err != nil {
		return nil, err
	}
	next = document.RecomputeTotalMarks(next)

	updated, err := s.store.Update(ctx, id, rec.Version, next)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Warn().Str("paper_id", id.String()).Int("version", rec.Version).Msg("Version conflict")
		}
		return nil, err
	}

	s.publish(ctx, model.PaperEvent{
		Type:       model.EventPaperUpdated,
		PaperID:    id,
		Version:    updated.Version,
		TotalMarks: updated.Paper.TotalMarks,
	})
	return updated, nil
}

// publish sends ev, logging instead of failing: the change is already stored.
func (s *PaperService) publish(ctx context.Context, ev model.PaperEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("paper_id", ev.PaperID.String()).
			Str("event", string(ev.Type)).
			Msg("Publish event failed")
	}
}
