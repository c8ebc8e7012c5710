package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/model"
)

// shutdownReason is recorded for jobs still queued when a draining worker stops.
const shutdownReason = "Suggestion cancelled because the server restarted. Please try again."

// JobQueue is the suggestion queue shared by every replica.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	TryDequeue(ctx context.Context) (string, error)
}

// JobProcessor runs or abandons suggestion jobs.
type JobProcessor interface {
	Process(ctx context.Context, job model.SuggestionJob)
	Cancel(ctx context.Context, job model.SuggestionJob, reason string)
}

// SuggestionWorker consumes suggestion_queue and hands each job to the
// suggestion service. Several workers may share one queue, across replicas.
type SuggestionWorker struct {
	queue       JobQueue
	processor   JobProcessor
	drainOnStop bool
	log         zerolog.Logger
}

// NewSuggestionWorker creates a new SuggestionWorker. With drainOnStop the
// worker cancels every queued job when it stops; leave it off when other
// replicas consume the same queue.
func NewSuggestionWorker(queue JobQueue, processor JobProcessor, id int, drainOnStop bool, log zerolog.Logger) *SuggestionWorker {
	return &SuggestionWorker{
		queue:       queue,
		processor:   processor,
		drainOnStop: drainOnStop,
		log:         log.With().Str("component", "suggestion_worker").Int("worker", id).Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SuggestionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			if w.drainOnStop {
				w.drain(context.Background())
			}
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SuggestionWorker) processNext(ctx context.Context) {
	// Dequeue blocks until an item is available or timeout (1 second).
	raw, err := w.queue.Dequeue(ctx, time.Second)
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Dequeue error")
			time.Sleep(time.Second)
		}
		return
	}

	job, ok := w.decode(raw)
	if !ok {
		return
	}

	w.log.Debug().
		Str("paper_id", job.PaperID.String()).
		Str("section_id", job.SectionID).
		Dur("queued_for", time.Since(job.QueuedAt)).
		Msg("Processing suggestion")
	w.processor.Process(ctx, job)
}

func (w *SuggestionWorker) decode(raw string) (model.SuggestionJob, bool) {
	var job model.SuggestionJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return job, false
	}
	return job, true
}

// drain cancels every job left in the queue so their sections do not stay
// marked as generating. AI calls are not started during shutdown.
func (w *SuggestionWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.queue.TryDequeue(ctx)
		if err != nil {
			break
		}
		job, ok := w.decode(raw)
		if !ok {
			continue
		}
		w.processor.Cancel(ctx, job, shutdownReason)
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Cancelled remaining suggestions")
	}
}
