package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/compliance-engine/internal/models"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
	liveOpTimeout  = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveMessage is the websocket frame for live scoring.
// Client frames: "answer" (question_id, value). Server frames: "connected",
// "score" (summary after each answer) and "error".
type LiveMessage struct {
	Type       string               `json:"type"`
	QuestionID string               `json:"question_id,omitempty"`
	Value      *int                 `json:"value,omitempty"`
	Summary    *models.ScoreSummary `json:"summary,omitempty"`
	IsComplete bool                 `json:"is_complete,omitempty"`
	Message    string               `json:"message,omitempty"`
}

// liveConn serializes writes; gorilla connections allow one concurrent writer.
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *liveConn) send(msg LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
		return err
	}
	return nil
}

func (c *liveConn) sendError(message string) {
	c.send(LiveMessage{Type: "error", Message: message})
}

func (c *liveConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
}

func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := s.assessments.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "get assessment")
		return
	}

	fw := s.frameworks.Get(a.FrameworkID)
	if fw == nil {
		respondError(w, http.StatusNotFound, "framework_not_found", "framework not found")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()
	conn := &liveConn{conn: ws}

	slog.Info("live scoring connected", "assessment_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if summary, ok := s.liveSummary(ctx, conn, id); ok {
		conn.send(LiveMessage{Type: "connected", Summary: summary, IsComplete: a.IsComplete})
	}

	ws.SetReadDeadline(time.Now().Add(livePongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(livePongWait))
	})

	var wg sync.WaitGroup

	// Keepalive pings
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(livePingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Read answers until the client goes away
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg LiveMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			conn.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case "answer":
			s.handleLiveAnswer(ctx, conn, id, fw, msg)
		default:
			conn.sendError("unknown message type: " + msg.Type)
		}
	}

	cancel()
	wg.Wait()
	slog.Info("live scoring disconnected", "assessment_id", id)
}

func (s *Server) handleLiveAnswer(ctx context.Context, conn *liveConn, id string, fw *models.Framework, msg LiveMessage) {
	if msg.QuestionID == "" || msg.Value == nil {
		conn.sendError("question_id and value are required")
		return
	}
	if _, ok := fw.FindQuestion(msg.QuestionID); !ok {
		conn.sendError("unknown question: " + msg.QuestionID)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, liveOpTimeout)
	defer cancel()

	a, err := s.assessments.UpdateResponses(opCtx, id, models.Responses{msg.QuestionID: *msg.Value}, false)
	if err != nil {
		slog.Debug("live answer rejected", "assessment_id", id, "question_id", msg.QuestionID, "error", err)
		conn.sendError(err.Error())
		return
	}

	summary, ok := s.liveSummary(opCtx, conn, id)
	if !ok {
		return
	}

	conn.send(LiveMessage{
		Type:       "score",
		QuestionID: msg.QuestionID,
		Summary:    summary,
		IsComplete: a.IsComplete,
	})
}

func (s *Server) liveSummary(ctx context.Context, conn *liveConn, id string) (*models.ScoreSummary, bool) {
	report, err := s.assessments.Report(ctx, id)
	if err != nil {
		slog.Error("failed to build live report", "assessment_id", id, "error", err)
		conn.sendError("failed to score assessment")
		return nil, false
	}
	summary := report.Summary()
	return &summary, true
}
