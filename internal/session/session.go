package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State WebSocket 연결 상태
type State int

const (
	StateConnected State = iota // 뷰 구독 중
	StateClosed                 // 연결 종료
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session 오피스 뷰를 구독하는 클라이언트 세션 (Thread-Safe)
type Session struct {
	ID          string
	UserID      string // 인증된 사용자 (익명 관전자는 빈 값)
	ConnectedAt time.Time

	mu            sync.RWMutex
	state         State
	includeEvents bool
	sent          uint64
	dropped       uint64

	// 비동기 전송
	Outbound chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

// New 새 세션 생성
func New(userID string, bufferSize int) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		state:       StateConnected,
		Outbound:    make(chan []byte, bufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context 세션 컨텍스트 반환
func (s *Session) Context() context.Context {
	return s.ctx
}

// Send 전송 큐에 메시지 추가. 큐가 가득 차면 버리고 false.
func (s *Session) Send(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return false
	}

	select {
	case s.Outbound <- msg:
		s.sent++
		return true
	default:
		s.dropped++
		return false
	}
}

// SetIncludeEvents 뷰에 이벤트 로그 포함 여부
func (s *Session) SetIncludeEvents(include bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.includeEvents = include
}

// IncludeEvents 이벤트 로그 포함 여부 조회
func (s *Session) IncludeEvents() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.includeEvents
}

// GetState 현재 상태 조회
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// GetStats 통계 조회
func (s *Session) GetStats() (sent, dropped uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sent, s.dropped
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}

// Close 세션 정리
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	s.state = StateClosed
	s.cancel()
	close(s.Outbound)
}

// IsClosed 세션 종료 여부 확인
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state == StateClosed
}
