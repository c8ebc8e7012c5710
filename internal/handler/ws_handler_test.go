package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/service"
	ws "github.com/stemsi/papercraft/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	ch        chan *redis.Message
	confirmed func()
}

func (f *fakeFeed) Receive(context.Context) (interface{}, error) {
	if f.confirmed != nil {
		f.confirmed()
	}
	return &redis.Subscription{Kind: "subscribe", Count: 1}, nil
}

func (f *fakeFeed) Channel(...redis.ChannelOption) <-chan *redis.Message { return f.ch }

func (f *fakeFeed) Close() error { return nil }

type feedSubscriber struct{ feed *fakeFeed }

func (s feedSubscriber) Subscribe(context.Context, uuid.UUID) repository.Subscription { return s.feed }

type previewFixture struct {
	store  *paperStore
	papers *service.PaperService
	feed   *fakeFeed
	rec    *model.PaperRecord
	url    string
}

func newPreviewFixture(t *testing.T) *previewFixture {
	t.Helper()
	store := &paperStore{records: map[uuid.UUID]model.PaperRecord{}}
	papers := service.NewPaperService(store, nopEvents{}, zerolog.Nop())
	rec, err := papers.Create(context.Background(), 1)
	require.NoError(t, err)

	feed := &fakeFeed{ch: make(chan *redis.Message, 4)}
	h := NewWSHandler(papers, feedSubscriber{feed}, zerolog.Nop(), nil)

	r := gin.New()
	r.GET("/ws/papers/:id/preview", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{AuthorID: 1, TokenType: service.TokenTypeAuthor})
		c.Next()
	}, h.PreviewStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &previewFixture{
		store:  store,
		papers: papers,
		feed:   feed,
		rec:    rec,
		url:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/papers/" + rec.ID.String() + "/preview",
	}
}

func (f *previewFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func (f *previewFixture) send(t *testing.T, typ model.EventType) {
	t.Helper()
	payload, err := json.Marshal(model.PaperEvent{Type: typ, PaperID: f.rec.ID})
	require.NoError(t, err)
	f.feed.ch <- &redis.Message{Payload: string(payload)}
}

type snapshotFrame struct {
	Event   ws.Event `json:"event"`
	Version int      `json:"version"`
	Preview struct {
		Sections []json.RawMessage `json:"sections"`
	} `json:"preview"`
}

func TestPreviewStream_SnapshotLoadedAfterSubscribe(t *testing.T) {
	f := newPreviewFixture(t)
	f.feed.confirmed = func() {
		_, _, err := f.papers.AddSection(context.Background(), 1, f.rec.ID)
		assert.NoError(t, err)
	}

	conn := f.dial(t)
	var snap snapshotFrame
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, ws.EventSnapshot, snap.Event)
	assert.Equal(t, 2, snap.Version, "an edit made while subscribing is in the first snapshot")
	assert.Len(t, snap.Preview.Sections, 2)
}

func TestPreviewStream_RefreshesOnUpdate(t *testing.T) {
	f := newPreviewFixture(t)
	conn := f.dial(t)

	var snap snapshotFrame
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 1, snap.Version)

	_, _, err := f.papers.AddSection(context.Background(), 1, f.rec.ID)
	require.NoError(t, err)
	f.send(t, model.EventPaperUpdated)

	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 2, snap.Version)
}

func TestPreviewStream_ClosesOnPaperDeleted(t *testing.T) {
	f := newPreviewFixture(t)
	conn := f.dial(t)

	var snap snapshotFrame
	require.NoError(t, conn.ReadJSON(&snap))
	f.send(t, model.EventPaperDeleted)

	var frame ws.PaperDeletedResponse
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, ws.EventPaperDeleted, frame.Event)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestPreviewStream_ClosesWhenSnapshotFails(t *testing.T) {
	f := newPreviewFixture(t)
	conn := f.dial(t)

	var snap snapshotFrame
	require.NoError(t, conn.ReadJSON(&snap))

	// Removed behind the service's back, so no deleted event is sent.
	require.NoError(t, f.store.Delete(context.Background(), f.rec.ID))
	f.send(t, model.EventPaperUpdated)

	var frame ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, ws.EventError, frame.Event)
	assert.Equal(t, "paper unavailable", frame.Error)

	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "connection is closed by the server, got %v", err)
	assert.Equal(t, websocket.CloseInternalServerErr, closeErr.Code)
}
