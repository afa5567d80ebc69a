package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

const (
	// 書き込みタイムアウト
	writeWait = 10 * time.Second
	// pong待ちタイムアウト
	pongWait = 60 * time.Second
	// ping送信間隔（pongWaitより短くする必要がある）
	pingPeriod = (pongWait * 9) / 10
	// 受信メッセージの最大サイズ
	maxMessageSize = 4096
	// 送信バッファサイズ
	sendBufferSize = 16
)

// Session WebSocket接続1本分のセッション
// 書き込みはwritePumpの単一ゴルーチンに集約する
type Session struct {
	userID string
	conn   *websocket.Conn
	send   chan *Message
	done   chan struct{}
	logger *otelinfra.Logger
}

// NewSession 新しいSessionを作成
func NewSession(userID string, conn *websocket.Conn, logger *otelinfra.Logger) *Session {
	return &Session{
		userID: userID,
		conn:   conn,
		send:   make(chan *Message, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// UserID セッションのユーザーIDを返す
func (s *Session) UserID() string {
	return s.userID
}

// Send メッセージを送信キューに積む
// セッションが閉じている、またはキューが詰まっている場合はfalseを返す
func (s *Session) Send(msg *Message) bool {
	select {
	case <-s.done:
		return false
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// Close セッションを閉じる
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// writePump 送信キューを単一ゴルーチンで書き込む
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error(ctx, "Failed to marshal message", err, map[string]interface{}{
					"user_id": s.userID,
					"type":    msg.Type,
				})
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn(ctx, "Failed to write message", map[string]interface{}{
					"user_id": s.userID,
					"error":   err.Error(),
				})
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 受信メッセージをハンドラーに渡す
func (s *Session) readPump(ctx context.Context, handle func(ctx context.Context, s *Session, msg *Message)) {
	defer func() {
		s.Close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(ctx, "Unexpected close", map[string]interface{}{
					"user_id": s.userID,
					"error":   err.Error(),
				})
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn(ctx, "Failed to parse message", map[string]interface{}{
				"user_id": s.userID,
				"error":   err.Error(),
			})
			continue
		}

		handle(ctx, s, &msg)

		select {
		case <-s.done:
			return
		default:
		}
	}
}
