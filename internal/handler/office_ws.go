package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/office"
	"virtual-office-backend/internal/presence"
	"virtual-office-backend/internal/session"
)

// OfficeWSHandler 오피스 뷰 WebSocket 핸들러
type OfficeWSHandler struct {
	office       *office.Office
	interval     time.Duration
	writeTimeout time.Duration

	sessions map[string]*session.Session // sessionID -> session
	mu       sync.RWMutex
}

// OfficeWSMessage 오피스 WebSocket 메시지
type OfficeWSMessage struct {
	Type    string          `json:"type"` // view, presence, subscribe, move, status, step, ping, pong, error
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsUserCommand 클라이언트 조작 페이로드
type wsUserCommand struct {
	UserID        string          `json:"userId"`
	Position      *model.Position `json:"position,omitempty"`
	Status        string          `json:"status,omitempty"`
	Direction     model.Direction `json:"direction,omitempty"`
	IncludeEvents bool            `json:"includeEvents,omitempty"`
}

// NewOfficeWSHandler OfficeWSHandler 생성
func NewOfficeWSHandler(o *office.Office, interval, writeTimeout time.Duration) *OfficeWSHandler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &OfficeWSHandler{
		office:       o,
		interval:     interval,
		writeTimeout: writeTimeout,
		sessions:     make(map[string]*session.Session),
	}
}

func encodeMessage(msgType string, payload any) ([]byte, error) {
	msg := OfficeWSMessage{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}

// HandleWebSocket WebSocket 연결 처리
func (h *OfficeWSHandler) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[OfficeWS] 패닉 복구: %v", r)
		}
	}()

	userID, _ := c.Locals("userID").(string)
	sess := session.New(userID, 16)

	h.mu.Lock()
	h.sessions[sess.ID] = sess
	h.mu.Unlock()

	log.Printf("[OfficeWS] 연결: session=%s user=%q", sess.ID, userID)

	done := make(chan struct{})
	go h.writeLoop(c, sess, done)

	// 연결 해제 시 정리
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sess.ID)
		h.mu.Unlock()
		sess.Close()
		<-done
		c.Close()
		sent, dropped := sess.GetStats()
		log.Printf("[OfficeWS] 연결 해제: session=%s sent=%d dropped=%d duration=%s", sess.ID, sent, dropped, sess.Duration())
	}()

	// 첫 화면 즉시 전송
	h.sendView(sess)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg OfficeWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			h.sendError(sess, "invalid message")
			continue
		}
		h.handleMessage(sess, msg)
	}
}

// writeLoop 세션 큐를 소켓으로 내보낸다 (소켓 쓰기는 이 고루틴만 수행)
func (h *OfficeWSHandler) writeLoop(c *websocket.Conn, sess *session.Session, done chan<- struct{}) {
	defer close(done)
	for msg := range sess.Outbound {
		if h.writeTimeout > 0 {
			c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[OfficeWS] 전송 실패: session=%s err=%v", sess.ID, err)
			// 남은 메시지를 비워 Send 가 막히지 않게 한다
			for range sess.Outbound {
			}
			return
		}
	}
}

func (h *OfficeWSHandler) handleMessage(sess *session.Session, msg OfficeWSMessage) {
	switch msg.Type {
	case "ping":
		if data, err := encodeMessage("pong", nil); err == nil {
			sess.Send(data)
		}
		return
	}

	var cmd wsUserCommand
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			h.sendError(sess, "invalid payload")
			return
		}
	}
	if cmd.UserID == "" {
		cmd.UserID = sess.UserID
	}

	ctx := sess.Context()
	var err error
	switch msg.Type {
	case "subscribe":
		sess.SetIncludeEvents(cmd.IncludeEvents)
	case "move":
		if cmd.Position == nil {
			h.sendError(sess, "position is required")
			return
		}
		_, err = h.office.Move(ctx, cmd.UserID, *cmd.Position)
	case "status":
		_, err = h.office.SetStatus(ctx, cmd.UserID, cmd.Status)
	case "step":
		_, err = h.office.Step(ctx, cmd.UserID, cmd.Direction)
	default:
		h.sendError(sess, "unknown message type")
		return
	}

	if err != nil {
		h.sendError(sess, err.Error())
		return
	}
	h.sendView(sess)
}

func (h *OfficeWSHandler) sendView(sess *session.Session) {
	data, err := encodeMessage("view", h.office.View(sess.IncludeEvents()))
	if err != nil {
		log.Printf("[OfficeWS] 뷰 직렬화 실패: %v", err)
		return
	}
	sess.Send(data)
}

func (h *OfficeWSHandler) sendError(sess *session.Session, message string) {
	if data, err := encodeMessage("error", map[string]string{"message": message}); err == nil {
		sess.Send(data)
	}
}

// snapshotSessions 현재 세션 목록 사본
func (h *OfficeWSHandler) snapshotSessions() []*session.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*session.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast 모든 세션에 현재 뷰 전송. 뷰는 이벤트 포함 여부별로 한 번씩만 만든다.
func (h *OfficeWSHandler) Broadcast() {
	sessions := h.snapshotSessions()
	if len(sessions) == 0 {
		return
	}

	cache := make(map[bool][]byte, 2)
	for _, sess := range sessions {
		include := sess.IncludeEvents()
		data, ok := cache[include]
		if !ok {
			var err error
			data, err = encodeMessage("view", h.office.View(include))
			if err != nil {
				log.Printf("[OfficeWS] 뷰 직렬화 실패: %v", err)
				return
			}
			cache[include] = data
		}
		sess.Send(data)
	}
}

// Run 주기적으로 Broadcast 수행. ctx 취소 시 종료.
func (h *OfficeWSHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// RelayPresence 다른 서버 인스턴스의 Presence 변경을 클라이언트에 전달
func (h *OfficeWSHandler) RelayPresence(update presence.Update) {
	data, err := encodeMessage("presence", update)
	if err != nil {
		return
	}
	for _, sess := range h.snapshotSessions() {
		sess.Send(data)
	}
}

// ConsumePresence 구독 채널의 메시지를 디코딩해 RelayPresence 로 넘긴다.
// serverID 가 같은 메시지(자기 자신이 발행한 것)는 건너뛴다.
func (h *OfficeWSHandler) ConsumePresence(ctx context.Context, payloads <-chan string, serverID string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-payloads:
			if !ok {
				return errors.New("presence subscription closed")
			}
			update, err := presence.DecodeUpdate(payload)
			if err != nil {
				log.Printf("[OfficeWS] ⚠️ Presence 메시지 해석 실패: %v", err)
				continue
			}
			if update.ServerID == serverID {
				continue
			}
			h.RelayPresence(update)
		}
	}
}

// ConnectedSessions 연결된 세션 수
func (h *OfficeWSHandler) ConnectedSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
