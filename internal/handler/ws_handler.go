package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/render"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/response"
	"github.com/stemsi/papercraft/internal/service"
	ws "github.com/stemsi/papercraft/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EventSubscriber opens the change feed of one paper.
type EventSubscriber interface {
	Subscribe(ctx context.Context, paperID uuid.UUID) repository.Subscription
}

// WSHandler streams live previews of a paper.
type WSHandler struct {
	paperService *service.PaperService
	events       EventSubscriber
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(paperService *service.PaperService, events EventSubscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		paperService: paperService,
		events:       events,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// PreviewStream godoc
// WS /ws/v1/papers/:id/preview?token=...
// Sends the rendered paper on connect and again after every change, plus
// suggestion progress notices. Clients may send ping or refresh.
func (h *WSHandler) PreviewStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paperID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership is checked before the upgrade so errors use the HTTP envelope.
	if _, err := h.paperService.Get(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failPaper(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer raw.Close()

	wsLog := h.log.With().
		Int("author_id", claims.AuthorID).
		Str("paper_id", paperID.String()).
		Logger()
	wsLog.Info().Msg("Preview connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.events.Subscribe(ctx, paperID)
	defer sub.Close()

	// The first snapshot is loaded only after the subscription is confirmed,
	// so a change committed in between is either in it or on the feed.
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe to paper events failed")
		conn.Close(websocket.CloseInternalServerErr, "event feed unavailable")
		return
	}
	if !h.sendSnapshot(ctx, conn, claims.AuthorID, paperID, wsLog) {
		conn.Close(websocket.CloseInternalServerErr, "paper unavailable")
		return
	}

	go h.pump(ctx, cancel, conn, sub.Channel(), claims.AuthorID, paperID, wsLog)

	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionRefresh:
			h.sendSnapshot(ctx, conn, claims.AuthorID, paperID, wsLog)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// pump forwards paper events to the client until ctx ends or the paper is
// deleted. On return it closes the connection, which also ends the read loop.
func (h *WSHandler) pump(ctx context.Context, cancel context.CancelFunc, conn *ws.Conn, ch <-chan *redis.Message, authorID int, paperID uuid.UUID, wsLog zerolog.Logger) {
	code, reason := websocket.CloseNormalClosure, ""
	defer func() {
		cancel()
		conn.Close(code, reason)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				code, reason = websocket.CloseGoingAway, "event feed closed"
				return
			}
			var ev model.PaperEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Error().Err(err).Msg("Decode paper event")
				continue
			}

			frame, refresh, closing := eventFrame(ev)
			if frame != nil {
				if err := conn.WriteTyped(frame); err != nil {
					return
				}
			}
			if closing {
				reason = "paper deleted"
				return
			}
			if refresh && !h.sendSnapshot(ctx, conn, authorID, paperID, wsLog) {
				code, reason = websocket.CloseInternalServerErr, "paper unavailable"
				return
			}
		}
	}
}

func (h *WSHandler) sendSnapshot(ctx context.Context, conn *ws.Conn, authorID int, paperID uuid.UUID, wsLog zerolog.Logger) bool {
	rec, err := h.paperService.Get(ctx, authorID, paperID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Load paper for snapshot")
		conn.WriteError("paper unavailable")
		return false
	}
	return conn.WriteTyped(snapshotOf(rec)) == nil
}

func snapshotOf(rec *model.PaperRecord) ws.SnapshotResponse {
	return ws.SnapshotResponse{
		Event:      ws.EventSnapshot,
		Version:    rec.Version,
		TotalMarks: rec.Paper.TotalMarks,
		Preview:    render.Render(rec.Paper),
	}
}

// eventFrame maps a paper event to the frame sent to the client, whether a
// fresh snapshot should follow, and whether the stream should end.
func eventFrame(ev model.PaperEvent) (frame interface{}, refresh, closing bool) {
	switch ev.Type {
	case model.EventPaperUpdated:
		return nil, true, false
	case model.EventPaperDeleted:
		return ws.PaperDeletedResponse{Event: ws.EventPaperDeleted}, false, true
	case model.EventSuggestionCompleted:
		return ws.SuggestionResponse{Event: ws.EventSuggestionCompleted, SectionID: ev.SectionID, Added: ev.Added, At: ev.At}, false, false
	case model.EventSuggestionFailed:
		return ws.SuggestionResponse{Event: ws.EventSuggestionFailed, SectionID: ev.SectionID, Message: ev.Message, At: ev.At}, false, false
	case model.EventSuggestionDiscarded:
		return ws.SuggestionResponse{Event: ws.EventSuggestionDiscarded, SectionID: ev.SectionID, At: ev.At}, false, false
	default:
		return nil, false, false
	}
}
