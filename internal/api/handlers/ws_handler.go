package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/providers/llm"
	"github.com/supercore/supercore-api/internal/services"
	"github.com/supercore/supercore-api/internal/utils"
)

type WSHandler struct {
	svc      services.ChatService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.ChatService, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type      string        `json:"type"`
	Messages  []chatMessage `json:"messages"`
	SessionID string        `json:"sessionId"`
	Language  string        `json:"language"`
}

type wsServerMsg struct {
	Type          string     `json:"type"` // chunk|done|error
	Content       string     `json:"content,omitempty"`
	SessionID     string     `json:"sessionId,omitempty"`
	Code          utils.Code `json:"code,omitempty"`
	StatusMessage string     `json:"statusMessage,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// Chat runs the streaming exchange over a WebSocket. Each "chat"
// client frame produces a sequence of "chunk" frames ending with
// "done" or "error".
func (h *WSHandler) Chat(c *gin.Context) {
	const op = "WSHandler.Chat"

	if h.svc == nil {
		writeError(c, utils.E(utils.CodeInternal, op, "Missing AI Configuration", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, StatusMessage: "invalid json"})
			continue
		}

		switch msg.Type {
		case "chat":
			h.exchange(ctx, wc, msg)
		case "close":
			return
		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, StatusMessage: "unknown message type"})
		}
	}
}

func (h *WSHandler) exchange(ctx context.Context, wc *wsConn, msg wsClientMsg) {
	msgs := make([]llm.Message, 0, len(msg.Messages))
	for _, m := range msg.Messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	ex, err := h.svc.Exchange(ctx, msgs, msg.SessionID, msg.Language)
	if err != nil {
		_ = wc.writeJSON(wsErr(err))
		return
	}

	for chunk := range ex.Chunks {
		if werr := wc.writeJSON(wsServerMsg{Type: "chunk", Content: chunk, SessionID: ex.SessionID}); werr != nil {
			// client is gone; the service sees the ctx cancellation
			return
		}
	}

	res := <-ex.Result
	if res.Err != nil {
		_ = wc.writeJSON(wsErr(res.Err))
		return
	}

	_ = wc.writeJSON(wsServerMsg{Type: "done", SessionID: ex.SessionID})
}

func wsErr(err error) wsServerMsg {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return wsServerMsg{Type: "error", Code: ae.Code, StatusMessage: ae.Message}
	}
	return wsServerMsg{Type: "error", Code: utils.CodeInternal, StatusMessage: "internal error"}
}
