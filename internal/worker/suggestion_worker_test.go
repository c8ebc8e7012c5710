package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *memQueue) push(t *testing.T, job model.SuggestionJob) {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	q.mu.Lock()
	q.items = append(q.items, string(b))
	q.mu.Unlock()
}

func (q *memQueue) TryDequeue(context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", redis.Nil
	}
	raw := q.items[0]
	q.items = q.items[1:]
	return raw, nil
}

func (q *memQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	if raw, err := q.TryDequeue(ctx); err == nil {
		return raw, nil
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return "", redis.Nil
	}
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type recorder struct {
	mu        sync.Mutex
	processed []model.SuggestionJob
	cancelled []string
}

func (r *recorder) Process(_ context.Context, job model.SuggestionJob) {
	r.mu.Lock()
	r.processed = append(r.processed, job)
	r.mu.Unlock()
}

func (r *recorder) Cancel(_ context.Context, job model.SuggestionJob, reason string) {
	r.mu.Lock()
	r.cancelled = append(r.cancelled, reason)
	r.mu.Unlock()
}

func (r *recorder) processedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

func job() model.SuggestionJob {
	return model.SuggestionJob{PaperID: uuid.New(), SectionID: "sec_1", Type: model.QuestionTypeShort, Count: 2, QueuedAt: time.Now().UTC()}
}

func TestSuggestionWorker_ProcessesQueuedJobs(t *testing.T) {
	q := &memQueue{}
	rec := &recorder{}
	q.push(t, job())
	q.mu.Lock()
	q.items = append(q.items, "not json")
	q.mu.Unlock()
	q.push(t, job())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSuggestionWorker(q, rec, 0, false, zerolog.Nop()).Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rec.processedCount() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Empty(t, rec.cancelled)
}

func TestSuggestionWorker_StopLeavesQueueForOtherReplicas(t *testing.T) {
	q := &memQueue{}
	rec := &recorder{}
	q.push(t, job())
	q.push(t, job())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewSuggestionWorker(q, rec, 0, false, zerolog.Nop()).Start(ctx)

	assert.Equal(t, 2, q.len())
	assert.Empty(t, rec.cancelled)
	assert.Empty(t, rec.processed)
}

func TestSuggestionWorker_DrainOnStop(t *testing.T) {
	q := &memQueue{}
	rec := &recorder{}
	q.push(t, job())
	q.push(t, job())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewSuggestionWorker(q, rec, 0, true, zerolog.Nop()).Start(ctx)

	assert.Zero(t, q.len())
	assert.Equal(t, []string{shutdownReason, shutdownReason}, rec.cancelled)
	assert.Empty(t, rec.processed)
}
