package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/papercraft/internal/ai"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
)

// memStore is an in-memory PaperStore. Papers round-trip through JSON so
// callers never share slices with the stored copy.
type memStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.PaperRecord
	raw     map[uuid.UUID][]byte
}

func newMemStore() *memStore {
	return &memStore{records: map[uuid.UUID]model.PaperRecord{}, raw: map[uuid.UUID][]byte{}}
}

func (m *memStore) put(rec model.PaperRecord) *model.PaperRecord {
	b, err := json.Marshal(rec.Paper)
	if err != nil {
		panic(err)
	}
	m.raw[rec.ID] = b
	rec.Paper = model.Paper{}
	m.records[rec.ID] = rec
	return m.get(rec.ID)
}

func (m *memStore) get(id uuid.UUID) *model.PaperRecord {
	rec := m.records[id]
	if err := json.Unmarshal(m.raw[id], &rec.Paper); err != nil {
		panic(err)
	}
	return &rec
}

func (m *memStore) Create(_ context.Context, authorID int, p model.Paper) (*model.PaperRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	return m.put(model.PaperRecord{ID: uuid.New(), AuthorID: authorID, Version: 1, Paper: p, CreatedAt: now, UpdatedAt: now}), nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.PaperRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return nil, repository.ErrPaperNotFound
	}
	return m.get(id), nil
}

func (m *memStore) ListByAuthor(_ context.Context, authorID, limit, offset int) ([]model.PaperSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.PaperSummary
	for id, rec := range m.records {
		if rec.AuthorID != authorID {
			continue
		}
		p := m.get(id).Paper
		all = append(all, model.PaperSummary{ID: id, Subject: p.Subject, TotalMarks: p.TotalMarks, Sections: len(p.Sections)})
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, expectedVersion int, p model.Paper) (*model.PaperRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrPaperNotFound
	}
	if rec.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	rec.Version++
	rec.Paper = p
	rec.UpdatedAt = time.Now().UTC()
	return m.put(rec), nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return repository.ErrPaperNotFound
	}
	delete(m.records, id)
	delete(m.raw, id)
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []model.PaperEvent
	err    error
}

func (e *memEvents) Publish(_ context.Context, ev model.PaperEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return e.err
}

func (e *memEvents) types() []model.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.EventType, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

func (e *memEvents) last() model.PaperEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events[len(e.events)-1]
}

type memState struct {
	mu       sync.Mutex
	markers  map[string]time.Duration
	queue    []model.SuggestionJob
	failures map[string]string
}

func newMemState() *memState {
	return &memState{markers: map[string]time.Duration{}, failures: map[string]string{}}
}

func stateKey(paperID uuid.UUID, sectionID string) string { return paperID.String() + "/" + sectionID }

func (s *memState) Acquire(_ context.Context, paperID uuid.UUID, sectionID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stateKey(paperID, sectionID)
	if _, ok := s.markers[k]; ok {
		return false, nil
	}
	s.markers[k] = ttl
	return true, nil
}

func (s *memState) Release(_ context.Context, paperID uuid.UUID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, stateKey(paperID, sectionID))
	return nil
}

func (s *memState) IsGenerating(_ context.Context, paperID uuid.UUID, sectionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[stateKey(paperID, sectionID)]
	return ok, nil
}

func (s *memState) Enqueue(_ context.Context, job model.SuggestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, job)
	return nil
}

func (s *memState) RecordFailure(_ context.Context, paperID uuid.UUID, sectionID, message string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[stateKey(paperID, sectionID)] = message
	return nil
}

func (s *memState) ClearFailure(_ context.Context, paperID uuid.UUID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, stateKey(paperID, sectionID))
	return nil
}

func (s *memState) LastFailure(_ context.Context, paperID uuid.UUID, sectionID string) (string, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.failures[stateKey(paperID, sectionID)]
	if !ok {
		return "", nil, nil
	}
	now := time.Now().UTC()
	return msg, &now, nil
}

// stubGenerator returns fixed questions or err. before runs ahead of the
// result, letting tests change the paper while generation is in flight.
type stubGenerator struct {
	questions []model.Question
	err       error
	before    func()
	got       ai.Request
}

func (g *stubGenerator) Generate(_ context.Context, req ai.Request) ([]model.Question, error) {
	g.got = req
	if g.before != nil {
		g.before()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}
