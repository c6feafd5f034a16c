// Package dimension manages the forest of alternate office realities.
//
// Every dimension except a root points at an existing parent. A dimension can
// own a snapshot of the user set taken when it was forked or merged. Snapshots
// are structural copies and evolve independently of the live set. Dimensions
// are never deleted, and their id and parent never change.
package dimension

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"virtual-office-backend/internal/model"
)

// DefaultMaxDepth 조상 탐색 최대 깊이
const DefaultMaxDepth = 1024

var (
	ErrNotFound        = errors.New("dimension not found")
	ErrSameDimension   = errors.New("source and target dimension must differ")
	ErrDuplicateID     = errors.New("dimension id already exists")
	ErrParentNotFound  = errors.New("parent dimension not found")
	ErrCycle           = errors.New("dimension would become its own ancestor")
	ErrAncestryTooDeep = errors.New("dimension ancestry exceeds max depth")
	ErrEmptyName       = errors.New("dimension name is required")
)

// Option Manager 생성 옵션
type Option func(*Manager)

// WithNow 생성 시각 함수 주입
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator ID 생성 함수 주입
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithMaxDepth 조상 탐색 깊이 제한
func WithMaxDepth(depth int) Option {
	return func(m *Manager) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// Update 표시용 메타데이터 부분 수정 (nil 필드는 유지)
type Update struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Effects     *model.Effects   `json:"effects,omitempty"`
	Weather     *string          `json:"weather,omitempty"`
	UserCount   *int             `json:"userCount,omitempty"`
	Decorations map[string][]any `json:"decorations,omitempty"`
}

// Manager 차원 포레스트, 활성 포인터, 스냅샷 관리자 (Thread-Safe)
type Manager struct {
	mu sync.RWMutex

	dimensions []model.Dimension // 삽입 순서
	index      map[string]int
	activeID   string
	snapshots  map[string][]model.User

	now      func() time.Time
	newID    func() string
	maxDepth int
}

// NewManager 기본 루트 차원("default")으로 초기화된 Manager 생성
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		index:     make(map[string]int),
		snapshots: make(map[string][]model.User),
		now:       time.Now,
		newID:     uuid.NewString,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.insertLocked(model.Dimension{
		ID:           model.DefaultDimensionID,
		Name:         "Primary Reality",
		Description:  "The main office configuration",
		CreatedAt:    m.now().UTC(),
		UserCount:    7,
		Color:        "#7c3aed",
		OfficeConfig: map[string]any{},
		Anomalies:    []model.Anomaly{},
		Portals:      []model.Portal{},
	})
	m.activeID = model.DefaultDimensionID
	return m
}

// Create 활성 차원에서 분기한 새 차원을 만들고 활성화한다.
// source 는 구조적으로 복사되어 이후 원본 변경과 무관하다.
func (m *Manager) Create(name, description string, source []model.User, at time.Time) (model.Dimension, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Dimension{}, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parent := m.dimensions[m.index[m.activeID]]
	id := m.newID()
	if _, exists := m.index[id]; exists {
		return model.Dimension{}, fmt.Errorf("create %q: %w", id, ErrDuplicateID)
	}

	forkedAt := at
	snapshot := model.CloneUsers(source)
	if snapshot == nil {
		snapshot = []model.User{}
	}

	dim := model.Dimension{
		ID:           id,
		Name:         name,
		Description:  description,
		CreatedAt:    m.now().UTC(),
		ForkedAt:     &forkedAt,
		UserCount:    len(snapshot),
		Color:        colorFromID(id),
		OfficeConfig: model.CloneConfig(parent.OfficeConfig),
		ParentID:     parent.ID,
		Anomalies:    []model.Anomaly{},
		Portals: []model.Portal{
			{
				Position:   model.Position{X: 500, Y: 300},
				TargetID:   parent.ID,
				TargetName: parent.Name,
				Color:      "#7c3aed",
			},
		},
	}

	if err := m.checkParentLocked(dim.ID, dim.ParentID); err != nil {
		return model.Dimension{}, err
	}

	m.insertLocked(dim)
	m.snapshots[id] = snapshot
	m.activeID = id

	log.Printf("[Dimension] Created %s (%q) from %s with %d users", id, name, parent.ID, len(snapshot))
	return dim.Clone(), nil
}

// Switch 활성 차원 변경. 존재하지 않는 ID 면 아무것도 하지 않고 false.
func (m *Manager) Switch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[id]; !ok {
		return false
	}
	m.activeID = id
	return true
}

// Merge source 와 target 을 합친 새 차원을 target 아래에 만들고 활성화한다.
// 같은 사용자 ID 가 겹치면 target 쪽이 남는다.
func (m *Manager) Merge(sourceID, targetID string) (model.Dimension, error) {
	if sourceID == targetID {
		return model.Dimension{}, ErrSameDimension
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sourceIdx, ok := m.index[sourceID]
	if !ok {
		return model.Dimension{}, fmt.Errorf("merge source %q: %w", sourceID, ErrNotFound)
	}
	targetIdx, ok := m.index[targetID]
	if !ok {
		return model.Dimension{}, fmt.Errorf("merge target %q: %w", targetID, ErrNotFound)
	}
	source := m.dimensions[sourceIdx]
	target := m.dimensions[targetIdx]

	id := m.newID()
	if _, exists := m.index[id]; exists {
		return model.Dimension{}, fmt.Errorf("merge %q: %w", id, ErrDuplicateID)
	}

	users := mergeUsers(m.snapshots[targetID], m.snapshots[sourceID])

	anomalies := make([]model.Anomaly, 0, len(target.Anomalies)+len(source.Anomalies))
	anomalies = append(anomalies, target.Anomalies...)
	anomalies = append(anomalies, source.Anomalies...)

	targetClone := target.Clone()
	dim := model.Dimension{
		ID:           id,
		Name:         "Merged: " + target.Name,
		Description:  fmt.Sprintf("Merged from %s into %s", source.Name, target.Name),
		CreatedAt:    m.now().UTC(),
		UserCount:    len(users),
		Color:        target.Color,
		OfficeConfig: targetClone.OfficeConfig,
		ParentID:     targetID,
		Effects:      targetClone.Effects,
		Anomalies:    anomalies,
		Portals: []model.Portal{
			{Position: model.Position{X: 500, Y: 300}, TargetID: targetID, TargetName: target.Name, Color: target.Color},
			{Position: model.Position{X: 700, Y: 300}, TargetID: sourceID, TargetName: source.Name, Color: source.Color},
		},
		Weather: targetClone.Weather,
	}

	if err := m.checkParentLocked(dim.ID, dim.ParentID); err != nil {
		return model.Dimension{}, err
	}

	m.insertLocked(dim)
	m.snapshots[id] = users
	m.activeID = id

	log.Printf("[Dimension] Merged %s into %s as %s (%d users)", sourceID, targetID, id, len(users))
	return dim.Clone(), nil
}

// mergeUsers target 전체 + target 에 없는 source 사용자 (복사본)
func mergeUsers(target, source []model.User) []model.User {
	merged := make([]model.User, 0, len(target)+len(source))
	seen := make(map[string]bool, len(target))
	for _, u := range target {
		merged = append(merged, u.Clone())
		seen[u.ID] = true
	}
	for _, u := range source {
		if seen[u.ID] {
			continue
		}
		merged = append(merged, u.Clone())
		seen[u.ID] = true
	}
	return merged
}

// Update 표시용 메타데이터만 수정
func (m *Manager) Update(id string, upd Update) (model.Dimension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.index[id]
	if !ok {
		return model.Dimension{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	dim := m.dimensions[idx]
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return model.Dimension{}, ErrEmptyName
		}
		dim.Name = name
	}
	if upd.Description != nil {
		dim.Description = *upd.Description
	}
	if upd.Color != nil {
		dim.Color = *upd.Color
	}
	if upd.Effects != nil {
		dim.Effects = model.Dimension{Effects: *upd.Effects}.Clone().Effects
	}
	if upd.Weather != nil {
		weather := *upd.Weather
		dim.Weather = &weather
	}
	if upd.UserCount != nil {
		dim.UserCount = *upd.UserCount
	}
	if upd.Decorations != nil {
		dim.Decorations = model.Dimension{Decorations: upd.Decorations}.Clone().Decorations
	}

	m.dimensions[idx] = dim
	return dim.Clone(), nil
}

// History 루트부터 id 까지의 조상 경로 (루트 → 리프 순)
func (m *Manager) History(id string) ([]model.Dimension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.index[id]; !ok {
		return nil, fmt.Errorf("history %q: %w", id, ErrNotFound)
	}

	var path []model.Dimension
	current := id
	for depth := 0; ; depth++ {
		if depth >= m.maxDepth {
			return nil, fmt.Errorf("history %q: %w", id, ErrAncestryTooDeep)
		}
		idx, ok := m.index[current]
		if !ok {
			break
		}
		dim := m.dimensions[idx]
		path = append(path, dim.Clone())
		if dim.IsRoot() {
			break
		}
		current = dim.ParentID
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Children parentId 가 id 인 차원 목록 (삽입 순서)
func (m *Manager) Children(id string) []model.Dimension {
	m.mu.RLock()
	defer m.mu.RUnlock()

	children := make([]model.Dimension, 0)
	for _, dim := range m.dimensions {
		if dim.ParentID == id && !dim.IsRoot() {
			children = append(children, dim.Clone())
		}
	}
	return children
}

// Get 차원 조회
func (m *Manager) Get(id string) (model.Dimension, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.index[id]
	if !ok {
		return model.Dimension{}, false
	}
	return m.dimensions[idx].Clone(), true
}

// List 전체 차원 목록 (삽입 순서)
func (m *Manager) List() []model.Dimension {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Dimension, len(m.dimensions))
	for i, dim := range m.dimensions {
		out[i] = dim.Clone()
	}
	return out
}

// ActiveID 활성 차원 ID
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.activeID
}

// Active 활성 차원
func (m *Manager) Active() model.Dimension {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.dimensions[m.index[m.activeID]].Clone()
}

// Snapshot 차원에 저장된 사용자 스냅샷 사본. 없으면 false (라이브 집합 사용).
func (m *Manager) Snapshot(id string) ([]model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users, ok := m.snapshots[id]
	if !ok {
		return nil, false
	}
	return model.CloneUsers(users), true
}

// SetSnapshot 차원의 스냅샷을 users 사본으로 교체
func (m *Manager) SetSnapshot(id string, users []model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.index[id]
	if !ok {
		return fmt.Errorf("set snapshot %q: %w", id, ErrNotFound)
	}

	snapshot := model.CloneUsers(users)
	if snapshot == nil {
		snapshot = []model.User{}
	}
	m.snapshots[id] = snapshot
	m.dimensions[idx].UserCount = len(snapshot)
	return nil
}

// Add 외부에서 구성한 차원을 등록 (시드 데이터용).
// 부모가 존재해야 하며 자기 자신을 조상으로 만들 수 없다.
func (m *Manager) Add(dim model.Dimension) (model.Dimension, error) {
	if strings.TrimSpace(dim.ID) == "" {
		dim.ID = m.newID()
	}
	if dim.ParentID == model.RootParentMarker {
		dim.ParentID = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[dim.ID]; exists {
		return model.Dimension{}, fmt.Errorf("add %q: %w", dim.ID, ErrDuplicateID)
	}
	if err := m.checkParentLocked(dim.ID, dim.ParentID); err != nil {
		return model.Dimension{}, err
	}
	if dim.CreatedAt.IsZero() {
		dim.CreatedAt = m.now().UTC()
	}
	if dim.OfficeConfig == nil {
		dim.OfficeConfig = map[string]any{}
	}

	dim = dim.Clone()
	m.insertLocked(dim)
	return dim.Clone(), nil
}

// checkParentLocked 부모 존재 여부와 순환 여부 검사
func (m *Manager) checkParentLocked(id, parentID string) error {
	if model.IsRootParent(parentID) {
		return nil
	}
	if parentID == id {
		return fmt.Errorf("%q: %w", id, ErrCycle)
	}

	// 새 노드 자신이 경로의 첫 칸
	current := parentID
	for depth := 1; ; depth++ {
		if depth >= m.maxDepth {
			return fmt.Errorf("%q: %w", id, ErrAncestryTooDeep)
		}
		idx, ok := m.index[current]
		if !ok {
			if current == parentID {
				return fmt.Errorf("parent %q: %w", parentID, ErrParentNotFound)
			}
			return nil
		}
		dim := m.dimensions[idx]
		if dim.ID == id {
			return fmt.Errorf("%q: %w", id, ErrCycle)
		}
		if dim.IsRoot() {
			return nil
		}
		current = dim.ParentID
	}
}

func (m *Manager) insertLocked(dim model.Dimension) {
	m.index[dim.ID] = len(m.dimensions)
	m.dimensions = append(m.dimensions, dim)
}

// colorFromID ID 에서 결정적으로 UI 색상 생성
func colorFromID(id string) string {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return fmt.Sprintf("#%06x", h&0xffffff)
}
