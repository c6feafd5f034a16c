// Package office composes the live user set with the timeline engine and the
// dimension graph into the view that clients render.
package office

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"virtual-office-backend/internal/dimension"
	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/timeline"
)

// StepDistance 키보드 한 번에 이동하는 거리
const StepDistance = 20

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidUser      = errors.New("user id is required")
	ErrInvalidStatus    = errors.New("status is required")
	ErrInvalidDirection = errors.New("direction must be one of up, down, left, right")
	ErrPaused           = errors.New("timeline is paused")
)

// Publisher 라이브 사용자 변경을 외부로 내보내는 대상 (Redis presence 등)
type Publisher interface {
	PublishUser(ctx context.Context, dimensionID string, user model.User) error
	RemoveUser(ctx context.Context, dimensionID, userID string) error
}

// View 한 번의 렌더링에 필요한 전체 상태
type View struct {
	Clock      timeline.State       `json:"clock"`
	Dimension  model.Dimension      `json:"dimension"`
	Dimensions []model.Dimension    `json:"dimensions"`
	Users      []model.User         `json:"users"`
	Events     []timeline.TimePoint `json:"events,omitempty"`
}

// Option Office 생성 옵션
type Option func(*Office)

// WithPublisher 변경 알림 대상 설정
func WithPublisher(p Publisher) Option {
	return func(o *Office) {
		o.publisher = p
	}
}

// WithUsers 초기 라이브 사용자
func WithUsers(users []model.User) Option {
	return func(o *Office) {
		for _, u := range users {
			o.upsertLocked(u.Clone())
		}
	}
}

// Office 라이브 사용자 집합 + 타임라인 + 차원 그래프 (Thread-Safe)
type Office struct {
	mu    sync.RWMutex
	users []model.User // 접속 순서

	engine    *timeline.Engine
	dims      *dimension.Manager
	publisher Publisher
}

// New Office 생성
func New(engine *timeline.Engine, dims *dimension.Manager, opts ...Option) *Office {
	o := &Office{
		engine: engine,
		dims:   dims,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Engine 타임라인 엔진
func (o *Office) Engine() *timeline.Engine { return o.engine }

// Dimensions 차원 관리자
func (o *Office) Dimensions() *dimension.Manager { return o.dims }

// Connect 사용자를 라이브 집합에 추가 (같은 ID 면 교체)
func (o *Office) Connect(ctx context.Context, user model.User) (model.User, error) {
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return model.User{}, ErrInvalidUser
	}
	if user.Status == "" {
		user.Status = model.UserStatusOnline.String()
	}
	user.IsActive = true

	o.mu.Lock()
	o.upsertLocked(user.Clone())
	o.mu.Unlock()

	o.record(timeline.TimePoint{UserID: user.ID, Change: timeline.Join{}})
	o.publish(ctx, user)

	log.Printf("[Office] User connected: %s (%s)", user.ID, user.Name)
	return user.Clone(), nil
}

// Disconnect 라이브 집합에서 제거. 과거 이벤트는 남는다.
func (o *Office) Disconnect(ctx context.Context, userID string) error {
	o.mu.Lock()
	idx := o.indexLocked(userID)
	if idx < 0 {
		o.mu.Unlock()
		return fmt.Errorf("disconnect %q: %w", userID, ErrUserNotFound)
	}
	o.users = append(o.users[:idx], o.users[idx+1:]...)
	o.mu.Unlock()

	o.record(timeline.TimePoint{UserID: userID, Change: timeline.Leave{}})

	if o.publisher != nil {
		if err := o.publisher.RemoveUser(ctx, o.dims.ActiveID(), userID); err != nil {
			log.Printf("[Office] ⚠️ Failed to remove presence for %s: %v", userID, err)
		}
	}

	log.Printf("[Office] User disconnected: %s", userID)
	return nil
}

// Move 위치 변경. 녹화 중이면 이벤트를 남긴다.
func (o *Office) Move(ctx context.Context, userID string, pos model.Position) (model.User, error) {
	user, err := o.mutate(userID, func(u *model.User) {
		u.Position = pos
	})
	if err != nil {
		return model.User{}, err
	}

	o.record(timeline.TimePoint{UserID: userID, Change: timeline.Move{Position: pos}})
	o.publish(ctx, user)
	return user, nil
}

// Step 키보드 방향 이동 (StepDistance). 일시정지 중에는 거부된다.
func (o *Office) Step(ctx context.Context, userID string, dir model.Direction) (model.User, error) {
	if !dir.IsValid() {
		return model.User{}, ErrInvalidDirection
	}
	if o.engine.IsPaused() {
		return model.User{}, ErrPaused
	}

	var pos model.Position
	user, err := o.mutate(userID, func(u *model.User) {
		u.Position = u.Position.Step(dir, StepDistance)
		pos = u.Position
	})
	if err != nil {
		return model.User{}, err
	}

	o.record(timeline.TimePoint{UserID: userID, Change: timeline.Move{Position: pos}})
	o.publish(ctx, user)
	return user, nil
}

// SetStatus 상태 메시지 변경
func (o *Office) SetStatus(ctx context.Context, userID, status string) (model.User, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return model.User{}, ErrInvalidStatus
	}

	user, err := o.mutate(userID, func(u *model.User) {
		u.Status = status
	})
	if err != nil {
		return model.User{}, err
	}

	o.record(timeline.TimePoint{UserID: userID, Change: timeline.StatusChange{Status: status}})
	o.publish(ctx, user)
	return user, nil
}

// LiveUsers 라이브 사용자 사본
func (o *Office) LiveUsers() []model.User {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := model.CloneUsers(o.users)
	if out == nil {
		out = []model.User{}
	}
	return out
}

// User 라이브 사용자 조회
func (o *Office) User(userID string) (model.User, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	idx := o.indexLocked(userID)
	if idx < 0 {
		return model.User{}, false
	}
	return o.users[idx].Clone(), true
}

// ProjectAt 활성 차원 기준으로 at 시점 사용자 상태 재구성.
// 기준 집합은 활성 차원의 스냅샷, 없으면 라이브 집합.
func (o *Office) ProjectAt(at time.Time) []model.User {
	activeID := o.dims.ActiveID()
	base, ok := o.dims.Snapshot(activeID)
	if !ok {
		base = o.LiveUsers()
	}
	return o.engine.ProjectWith(at, base, timeline.ForDimension(activeID))
}

// View 현재 가상 시간 기준 렌더링 상태
func (o *Office) View(includeEvents bool) View {
	clock := o.engine.State()
	v := View{
		Clock:      clock,
		Dimension:  o.dims.Active(),
		Dimensions: o.dims.List(),
		Users:      o.ProjectAt(clock.CurrentTime),
	}
	if includeEvents {
		v.Events = o.engine.Events()
	}
	return v
}

// Fork 현재 라이브 집합과 가상 시간으로 새 차원 생성
func (o *Office) Fork(name, description string) (model.Dimension, error) {
	return o.dims.Create(name, description, o.LiveUsers(), o.engine.CurrentTime())
}

// Merge 두 차원 병합 (target 우선)
func (o *Office) Merge(sourceID, targetID string) (model.Dimension, error) {
	return o.dims.Merge(sourceID, targetID)
}

// Switch 활성 차원 변경
func (o *Office) Switch(dimensionID string) bool {
	return o.dims.Switch(dimensionID)
}

// mutate 라이브 사용자 한 명을 수정하고 사본을 반환
func (o *Office) mutate(userID string, fn func(u *model.User)) (model.User, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.indexLocked(userID)
	if idx < 0 {
		return model.User{}, fmt.Errorf("user %q: %w", userID, ErrUserNotFound)
	}
	fn(&o.users[idx])
	return o.users[idx].Clone(), nil
}

// record 녹화 중일 때만 현재 가상 시간/활성 차원으로 이벤트 추가
func (o *Office) record(tp timeline.TimePoint) {
	if !o.engine.IsRecording() {
		return
	}
	tp.Timestamp = o.engine.CurrentTime()
	tp.DimensionID = o.dims.ActiveID()
	o.engine.AddEvent(tp)
}

func (o *Office) publish(ctx context.Context, user model.User) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishUser(ctx, o.dims.ActiveID(), user); err != nil {
		log.Printf("[Office] ⚠️ Failed to publish presence for %s: %v", user.ID, err)
	}
}

func (o *Office) upsertLocked(user model.User) {
	if idx := o.indexLocked(user.ID); idx >= 0 {
		o.users[idx] = user
		return
	}
	o.users = append(o.users, user)
}

func (o *Office) indexLocked(userID string) int {
	for i, u := range o.users {
		if u.ID == userID {
			return i
		}
	}
	return -1
}
