package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/model"
)

// failureTTL bounds how long the last AI failure of a section is reported.
const failureTTL = 24 * time.Hour

// SuggestionStateRepository keeps the Redis side of AI suggestions: the
// per-section in-flight marker, the job queue and the last failure notice.
type SuggestionStateRepository struct {
	rdb *redis.Client
}

// NewSuggestionStateRepository creates a new SuggestionStateRepository.
func NewSuggestionStateRepository(rdb *redis.Client) *SuggestionStateRepository {
	return &SuggestionStateRepository{rdb: rdb}
}

type failureNotice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Acquire sets the in-flight marker for a section. It reports false when
// a generation for that section is already running.
func (r *SuggestionStateRepository) Acquire(ctx context.Context, paperID uuid.UUID, sectionID string, ttl time.Duration) (bool, error) {
	key := config.CacheKey.SectionGeneratingKey(paperID.String(), sectionID)
	return r.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// Release clears the in-flight marker.
func (r *SuggestionStateRepository) Release(ctx context.Context, paperID uuid.UUID, sectionID string) error {
	return r.rdb.Del(ctx, config.CacheKey.SectionGeneratingKey(paperID.String(), sectionID)).Err()
}

// IsGenerating reports whether the in-flight marker is set.
func (r *SuggestionStateRepository) IsGenerating(ctx context.Context, paperID uuid.UUID, sectionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.SectionGeneratingKey(paperID.String(), sectionID)).Result()
	return n > 0, err
}

// Enqueue pushes a job onto the suggestion queue.
func (r *SuggestionStateRepository) Enqueue(ctx context.Context, job model.SuggestionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.rdb.RPush(ctx, config.WorkerKey.SuggestionQueue, payload).Err()
}

// Dequeue waits up to timeout for the next queued job and returns it raw.
// redis.Nil means nothing arrived in time.
func (r *SuggestionStateRepository) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := r.rdb.BLPop(ctx, timeout, config.WorkerKey.SuggestionQueue).Result()
	if err != nil {
		return "", err
	}
	if len(result) < 2 {
		return "", redis.Nil
	}
	return result[1], nil
}

// TryDequeue pops the next queued job without waiting.
func (r *SuggestionStateRepository) TryDequeue(ctx context.Context) (string, error) {
	return r.rdb.LPop(ctx, config.WorkerKey.SuggestionQueue).Result()
}

// RecordFailure stores the last failure message for a section.
func (r *SuggestionStateRepository) RecordFailure(ctx context.Context, paperID uuid.UUID, sectionID, message string, at time.Time) error {
	payload, err := json.Marshal(failureNotice{Message: message, At: at})
	if err != nil {
		return err
	}
	key := config.CacheKey.SectionSuggestionErrorKey(paperID.String(), sectionID)
	return r.rdb.Set(ctx, key, payload, failureTTL).Err()
}

// ClearFailure removes the stored failure for a section.
func (r *SuggestionStateRepository) ClearFailure(ctx context.Context, paperID uuid.UUID, sectionID string) error {
	return r.rdb.Del(ctx, config.CacheKey.SectionSuggestionErrorKey(paperID.String(), sectionID)).Err()
}

// LastFailure returns the stored failure, or an empty message when none is set.
func (r *SuggestionStateRepository) LastFailure(ctx context.Context, paperID uuid.UUID, sectionID string) (string, *time.Time, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.SectionSuggestionErrorKey(paperID.String(), sectionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, nil
		}
		return "", nil, err
	}
	var n failureNotice
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", nil, err
	}
	return n.Message, &n.At, nil
}
