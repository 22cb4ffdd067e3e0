package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/interview-engine/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const streamWriteWait = 10 * time.Second

// StreamMessage is one frame of the generation progress stream
type StreamMessage struct {
	Type  string                      `json:"type"` // progress, result or error
	Event *orchestrator.ProgressEvent `json:"event,omitempty"`
	Data  interface{}                 `json:"data,omitempty"`
	Error *apiError                   `json:"error,omitempty"`
}

func (s *Server) handleGenerateQuestionsStream(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "id")
	owner := ownerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("generation stream connected", "draft", draftID, "owner", owner)

	// Drain client frames so close and ping control messages are handled
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	// Credits are spent before the first category, so a dropped client does not abort the run
	ctx := context.WithoutCancel(r.Context())

	progress := func(ev orchestrator.ProgressEvent) {
		event := ev
		s.sendStreamMessage(conn, StreamMessage{Type: "progress", Event: &event})
	}

	view, result, err := s.service.GenerateQuestions(ctx, owner, draftID, progress)
	if err != nil {
		status, body := classifyError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to generate questions", "error", err, "draft", draftID)
		}
		s.sendStreamMessage(conn, StreamMessage{Type: "error", Error: body})
	} else {
		s.sendStreamMessage(conn, StreamMessage{Type: "result", Data: map[string]interface{}{
			"draft":             view,
			"credits_deducted":  result.CreditsDeducted,
			"remaining_balance": result.RemainingBalance,
		}})
	}

	deadline := time.Now().Add(streamWriteWait)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	slog.Info("generation stream closed", "draft", draftID)
}

func (s *Server) sendStreamMessage(conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send stream message", "error", err)
		return err
	}
	return nil
}
