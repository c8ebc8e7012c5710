package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/ai"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
)

// Suggestion errors.
var (
	ErrSuggestionInProgress = errors.New("a suggestion is already being generated for this section")
	ErrAIDisabled           = errors.New("ai suggestions are not configured")
)

// markerMargin extends the in-flight marker past the AI timeout so the
// marker cannot lapse while the worker still holds the job.
const markerMargin = 30 * time.Second

// expiredReason is recorded for a job that waited in the queue longer than
// its marker lived.
const expiredReason = "Suggestion expired before it could run. Please try again."

// SuggestionState is the shared state of in-flight AI suggestions.
type SuggestionState interface {
	Acquire(ctx context.Context, paperID uuid.UUID, sectionID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, paperID uuid.UUID, sectionID string) error
	IsGenerating(ctx context.Context, paperID uuid.UUID, sectionID string) (bool, error)
	Enqueue(ctx context.Context, job model.SuggestionJob) error
	RecordFailure(ctx context.Context, paperID uuid.UUID, sectionID, message string, at time.Time) error
	ClearFailure(ctx context.Context, paperID uuid.UUID, sectionID string) error
	LastFailure(ctx context.Context, paperID uuid.UUID, sectionID string) (string, *time.Time, error)
}

// SuggestionService asks the AI collaborator for draft questions and
// appends them to a section once they arrive.
type SuggestionService struct {
	cfg       *config.Config
	papers    *PaperService
	state     SuggestionState
	events    EventPublisher
	generator ai.Generator
	log       zerolog.Logger
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(
	cfg *config.Config,
	papers *PaperService,
	state SuggestionState,
	events EventPublisher,
	generator ai.Generator,
	log zerolog.Logger,
) *SuggestionService {
	return &SuggestionService{
		cfg:       cfg,
		papers:    papers,
		state:     state,
		events:    events,
		generator: generator,
		log:       log.With().Str("component", "suggestion_service").Logger(),
	}
}

// Enabled reports whether a real generator is configured.
func (s *SuggestionService) Enabled() bool {
	_, noop := s.generator.(ai.Noop)
	return !noop
}

// Request queues a suggestion job for a section. At most one job per
// section is in flight.
func (s *SuggestionService) Request(ctx context.Context, authorID int, paperID uuid.UUID, sectionID string, typ model.QuestionType, count int) (*model.SuggestionJob, error) {
	if !s.Enabled() {
		return nil, ErrAIDisabled
	}
	if !typ.Valid() {
		return nil, document.ErrInvalidQuestionType
	}

	rec, err := s.papers.Get(ctx, authorID, paperID)
	if err != nil {
		return nil, err
	}
	if !hasSection(rec.Paper, sectionID) {
		return nil, document.ErrSectionNotFound
	}

	if count <= 0 {
		count = ai.DefaultCount
	}
	if s.cfg.AIMaxCount > 0 && count > s.cfg.AIMaxCount {
		count = s.cfg.AIMaxCount
	}

	ok, err := s.state.Acquire(ctx, paperID, sectionID, s.markerTTL())
	if err != nil {
		return nil, fmt.Errorf("acquire marker: %w", err)
	}
	if !ok {
		return nil, ErrSuggestionInProgress
	}

	job := model.SuggestionJob{
		PaperID:   paperID,
		SectionID: sectionID,
		Type:      typ,
		Count:     count,
		Subject:   rec.Paper.Subject,
		ClassName: rec.Paper.ClassName,
		QueuedAt:  time.Now().UTC(),
	}
	if err := s.state.Enqueue(ctx, job); err != nil {
		if relErr := s.state.Release(ctx, paperID, sectionID); relErr != nil {
			s.log.Error().Err(relErr).Str("paper_id", paperID.String()).Msg("Release marker failed")
		}
		return nil, fmt.Errorf("enqueue suggestion: %w", err)
	}

	s.log.Info().
		Str("paper_id", paperID.String()).
		Str("section_id", sectionID).
		Str("type", string(typ)).
		Int("count", count).
		Msg("Suggestion queued")
	return &job, nil
}

// Status reports whether a section is generating and its last failure.
func (s *SuggestionService) Status(ctx context.Context, authorID int, paperID uuid.UUID, sectionID string) (*model.SuggestionStatus, error) {
	rec, err := s.papers.Get(ctx, authorID, paperID)
	if err != nil {
		return nil, err
	}
	if !hasSection(rec.Paper, sectionID) {
		return nil, document.ErrSectionNotFound
	}

	generating, err := s.state.IsGenerating(ctx, paperID, sectionID)
	if err != nil {
		return nil, err
	}
	msg, at, err := s.state.LastFailure(ctx, paperID, sectionID)
	if err != nil {
		return nil, err
	}
	return &model.SuggestionStatus{Generating: generating, LastError: msg, LastErrorAt: at}, nil
}

func (s *SuggestionService) markerTTL() time.Duration {
	return s.cfg.AITimeout + markerMargin
}

// Process runs one queued job. The marker is released whatever the outcome;
// failures are recorded for the section and never retried. A job older than
// its marker is not run, and the marker, which may now belong to a newer
// request, is left alone.
func (s *SuggestionService) Process(ctx context.Context, job model.SuggestionJob) {
	// Bookkeeping outlives the worker context so a shutdown mid-call still
	// clears the marker and reports the failure.
	bg := context.WithoutCancel(ctx)
	if age := time.Since(job.QueuedAt); !job.QueuedAt.IsZero() && age > s.markerTTL() {
		s.log.Info().
			Str("paper_id", job.PaperID.String()).
			Str("section_id", job.SectionID).
			Dur("queued_for", age).
			Msg("Suggestion expired in queue")
		s.abandon(bg, job, expiredReason)
		return
	}
	defer func() {
		if err := s.state.Release(bg, job.PaperID, job.SectionID); err != nil {
			s.log.Error().Err(err).Str("paper_id", job.PaperID.String()).Msg("Release marker failed")
		}
	}()

	log := s.log.With().
		Str("paper_id", job.PaperID.String()).
		Str("section_id", job.SectionID).
		Logger()

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	questions, err := s.generator.Generate(genCtx, ai.Request{
		Subject:   job.Subject,
		ClassName: job.ClassName,
		Type:      job.Type,
		Count:     job.Count,
	})
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("Suggestion failed")
		s.fail(bg, job, err)
		return
	}

	if len(questions) == 0 {
		if err := s.state.ClearFailure(bg, job.PaperID, job.SectionID); err != nil {
			log.Warn().Err(err).Msg("Clear failure notice failed")
		}
		log.Info().Msg("Suggestion returned no questions")
		s.notify(bg, model.PaperEvent{
			Type:      model.EventSuggestionCompleted,
			PaperID:   job.PaperID,
			SectionID: job.SectionID,
		})
		return
	}

	rec, err := s.papers.AppendSuggestions(bg, job.PaperID, job.SectionID, questions)
	switch {
	case errors.Is(err, document.ErrSectionNotFound), errors.Is(err, ErrPaperNotFound):
		log.Info().Int("questions", len(questions)).Msg("Suggestion discarded, section no longer exists")
		s.notify(bg, model.PaperEvent{
			Type:      model.EventSuggestionDiscarded,
			PaperID:   job.PaperID,
			SectionID: job.SectionID,
		})
		return
	case err != nil:
		log.Error().Err(err).Msg("Append suggestions failed")
		s.fail(bg, job, err)
		return
	}

	if err := s.state.ClearFailure(bg, job.PaperID, job.SectionID); err != nil {
		log.Warn().Err(err).Msg("Clear failure notice failed")
	}
	log.Info().Int("questions", len(questions)).Int("total_marks", rec.Paper.TotalMarks).Msg("Suggestion appended")
	s.notify(bg, model.PaperEvent{
		Type:       model.EventSuggestionCompleted,
		PaperID:    job.PaperID,
		SectionID:  job.SectionID,
		Version:    rec.Version,
		TotalMarks: rec.Paper.TotalMarks,
		Added:      len(questions),
	})
}

func (s *SuggestionService) fail(ctx context.Context, job model.SuggestionJob, cause error) {
	msg := failureMessage(cause)
	now := time.Now().UTC()
	if err := s.state.RecordFailure(ctx, job.PaperID, job.SectionID, msg, now); err != nil {
		s.log.Error().Err(err).Str("paper_id", job.PaperID.String()).Msg("Record failure notice failed")
	}
	s.notify(ctx, model.PaperEvent{
		Type:      model.EventSuggestionFailed,
		PaperID:   job.PaperID,
		SectionID: job.SectionID,
		Message:   msg,
		At:        now,
	})
}

func (s *SuggestionService) notify(ctx context.Context, ev model.PaperEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", string(ev.Type)).Msg("Publish event failed")
	}
}

// failureMessage is the notice shown to the editor. Collaborator errors
// are reported as is; anything else stays generic.
func failureMessage(err error) string {
	var ce *ai.CollaboratorError
	if errors.As(err, &ce) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "The AI service did not answer in time. Please try again."
		}
		return "Failed to generate questions: " + ce.Err.Error()
	}
	return "Failed to generate questions. Please try again."
}

func hasSection(p model.Paper, sectionID string) bool {
	for _, sec := range p.Sections {
		if sec.ID == sectionID {
			return true
		}
	}
	return false
}

// Cancel abandons a queued job that will not be processed, recording the
// reason as the section's failure notice.
func (s *SuggestionService) Cancel(ctx context.Context, job model.SuggestionJob, reason string) {
	defer func() {
		if err := s.state.Release(ctx, job.PaperID, job.SectionID); err != nil {
			s.log.Error().Err(err).Str("paper_id", job.PaperID.String()).Msg("Release marker failed")
		}
	}()
	s.abandon(ctx, job, reason)
}

func (s *SuggestionService) abandon(ctx context.Context, job model.SuggestionJob, reason string) {
	now := time.Now().UTC()
	if err := s.state.RecordFailure(ctx, job.PaperID, job.SectionID, reason, now); err != nil {
		s.log.Error().Err(err).Str("paper_id", job.PaperID.String()).Msg("Record failure notice failed")
	}
	s.notify(ctx, model.PaperEvent{
		Type:      model.EventSuggestionFailed,
		PaperID:   job.PaperID,
		SectionID: job.SectionID,
		Message:   reason,
		At:        now,
	})
}
