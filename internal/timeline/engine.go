package timeline

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"virtual-office-backend/internal/model"
)

// DefaultTickInterval 가상 시계 갱신 주기
const DefaultTickInterval = 100 * time.Millisecond

var ErrInvalidSpeed = errors.New("speed must be a finite number")

// State 렌더링용 시계 상태
type State struct {
	CurrentTime time.Time `json:"currentTime"`
	Speed       float64   `json:"speed"`
	IsPaused    bool      `json:"isPaused"`
	IsRecording bool      `json:"isRecording"`
	EventCount  int       `json:"eventCount"`
}

// Option Engine 생성 옵션
type Option func(*Engine)

// WithNow 벽시계 함수 주입 (테스트용)
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSpeed 초기 재생 속도
func WithSpeed(speed float64) Option {
	return func(e *Engine) {
		if !math.IsNaN(speed) && !math.IsInf(speed, 0) {
			e.speed = speed
		}
	}
}

// WithStartTime 초기 가상 시간 (기본값: 벽시계 현재 시각)
func WithStartTime(t time.Time) Option {
	return func(e *Engine) {
		e.currentTime = t
	}
}

// Engine 가상 시계와 추가 전용 이벤트 로그 (Thread-Safe)
type Engine struct {
	mu sync.RWMutex

	now         func() time.Time
	currentTime time.Time
	speed       float64
	paused      bool
	recording   bool
	lastTick    time.Time // 마지막 틱의 벽시계 시각

	events []TimePoint
}

// NewEngine 새 엔진 생성
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		speed: 1,
	}
	for _, opt := range opts {
		opt(e)
	}

	wall := e.now()
	if e.currentTime.IsZero() {
		e.currentTime = wall
	}
	e.lastTick = wall
	return e
}

// Advance 일시정지가 아니면 경과 시간 × 속도만큼 가상 시간을 진행
func (e *Engine) Advance(elapsed time.Duration) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advanceLocked(elapsed)
	return e.currentTime
}

func (e *Engine) advanceLocked(elapsed time.Duration) {
	if e.paused || elapsed <= 0 {
		return
	}
	e.currentTime = e.currentTime.Add(scaleDuration(elapsed, e.speed))
}

// scaleDuration elapsed × speed. int64 범위를 넘으면 최대/최소 Duration 으로 고정한다.
func scaleDuration(elapsed time.Duration, speed float64) time.Duration {
	scaled := float64(elapsed) * speed
	switch {
	case scaled >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case scaled <= math.MinInt64:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(scaled)
}

// Tick 마지막 틱 이후 벽시계 경과 시간을 측정해 진행.
// 일시정지 중에도 기준 시각은 갱신된다.
func (e *Engine) Tick() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	elapsed := now.Sub(e.lastTick)
	e.lastTick = now
	e.advanceLocked(elapsed)
	return e.currentTime
}

// Resync 틱 기준 시각을 현재 벽시계로 재설정 (재시작 시 시간 점프 방지)
func (e *Engine) Resync() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastTick = e.now()
}

// Run 고정 주기로 Tick 을 호출한다. ctx 취소 시 종료.
// 시작할 때마다 기준 시각을 재설정하므로 중단 구간만큼 점프하지 않는다.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	e.Resync()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Timeline] Clock started (interval: %s)", interval)
	defer log.Printf("[Timeline] Clock stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// SetSpeed 재생 속도 교체 (다음 틱부터 적용)
func (e *Engine) SetSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return ErrInvalidSpeed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.speed = speed
	return nil
}

// TogglePause 일시정지 토글. 재개 시 기준 시각을 재설정한다.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		e.lastTick = e.now()
	}
	e.paused = !e.paused
	return e.paused
}

// ToggleRecording 녹화 플래그 토글
func (e *Engine) ToggleRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.recording = !e.recording
	return e.recording
}

// AddEvent 이벤트를 로그 끝에 추가 (중복/순서 검사 없음)
func (e *Engine) AddEvent(tp TimePoint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events = append(e.events, tp)
}

// SetCurrentTime 가상 시간 설정 (일시정지 상태는 유지)
func (e *Engine) SetCurrentTime(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentTime = t
}

// JumpToTime 가상 시간을 설정하고 시계를 멈춘다
func (e *Engine) JumpToTime(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentTime = t
	e.paused = true
}

// Project target 시점의 사용자 상태 재구성 (부수 효과 없음)
func (e *Engine) Project(target time.Time, base []model.User) []model.User {
	return e.ProjectWith(target, base, ProjectOptions{})
}

// ProjectWith 필터를 적용한 투영
func (e *Engine) ProjectWith(target time.Time, base []model.User, opts ProjectOptions) []model.User {
	e.mu.RLock()
	// 로그는 추가 전용이라 길이까지 잘라 둔 슬라이스는 이후에도 변하지 않는다
	events := e.events[:len(e.events):len(e.events)]
	e.mu.RUnlock()

	return Replay(events, target, base, opts)
}

// Events 이벤트 로그 사본 (삽입 순서)
func (e *Engine) Events() []TimePoint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]TimePoint, len(e.events))
	copy(out, e.events)
	return out
}

// CurrentTime 현재 가상 시간
func (e *Engine) CurrentTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.currentTime
}

// IsRecording 녹화 여부
func (e *Engine) IsRecording() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.recording
}

// IsPaused 일시정지 여부
func (e *Engine) IsPaused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.paused
}

// State 현재 시계 상태 조회
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return State{
		CurrentTime: e.currentTime,
		Speed:       e.speed,
		IsPaused:    e.paused,
		IsRecording: e.recording,
		EventCount:  len(e.events),
	}
}
