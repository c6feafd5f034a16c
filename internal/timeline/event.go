package timeline

import (
	"encoding/json"
	"time"

	"virtual-office-backend/internal/model"
)

// Action 이벤트 종류
type Action string

const (
	ActionMove   Action = "move"
	ActionStatus Action = "status"
	ActionJoin   Action = "join"
	ActionLeave  Action = "leave"
)

// String 메서드
func (a Action) String() string {
	return string(a)
}

// Change 이벤트가 기록하는 상태 변화.
// Move | StatusChange | Join | Leave | Unknown 중 하나.
type Change interface {
	Action() Action
	isChange()
}

// Move 위치 변경
type Move struct {
	Position model.Position
}

// StatusChange 상태 메시지 변경
type StatusChange struct {
	Status string
}

// Join 입장 (재생 시 적용하지 않음)
type Join struct{}

// Leave 퇴장 (재생 시 적용하지 않음)
type Leave struct{}

// Unknown 해석할 수 없는 이벤트. 재생 시 무시된다.
type Unknown struct {
	Kind string
}

func (Move) Action() Action { return ActionMove }
func (StatusChange) Action() Action { return ActionStatus }
func (Join) Action() Action { return ActionJoin }
func (Leave) Action() Action { return ActionLeave }
func (u Unknown) Action() Action { return Action(u.Kind) }

func (Move) isChange() {}
func (StatusChange) isChange() {}
func (Join) isChange() {}
func (Leave) isChange() {}
func (Unknown) isChange() {}

// TimePoint 한 번의 상태 변화를 기록한 불변 이벤트
type TimePoint struct {
	Timestamp   time.Time // 가상 시간
	UserID      string
	DimensionID string // 비어 있으면 기본 차원
	Change      Change
}

// NewMove 위치 이벤트 생성
func NewMove(ts time.Time, userID, dimensionID string, pos model.Position) TimePoint {
	return TimePoint{Timestamp: ts, UserID: userID, DimensionID: dimensionID, Change: Move{Position: pos}}
}

// NewStatus 상태 이벤트 생성
func NewStatus(ts time.Time, userID, dimensionID, status string) TimePoint {
	return TimePoint{Timestamp: ts, UserID: userID, DimensionID: dimensionID, Change: StatusChange{Status: status}}
}

// Action 이벤트 종류 반환 (Change 가 없으면 빈 값)
func (tp TimePoint) Action() Action {
	if tp.Change == nil {
		return ""
	}
	return tp.Change.Action()
}

// Dimension 이벤트가 속한 차원 ID (기본값 적용)
func (tp TimePoint) Dimension() string {
	if tp.DimensionID == "" {
		return model.DefaultDimensionID
	}
	return tp.DimensionID
}

// wireTimePoint JSON 전송 형태. 모든 액션이 같은 레코드 모양을 공유한다.
type wireTimePoint struct {
	Timestamp   time.Time       `json:"timestamp"`
	UserID      string          `json:"userId"`
	Action      string          `json:"action"`
	Position    *model.Position `json:"position,omitempty"`
	Status      *string         `json:"status,omitempty"`
	DimensionID string          `json:"dimensionId,omitempty"`
}

// MarshalJSON 평평한 레코드 형태로 직렬화
func (tp TimePoint) MarshalJSON() ([]byte, error) {
	w := wireTimePoint{
		Timestamp:   tp.Timestamp,
		UserID:      tp.UserID,
		Action:      tp.Action().String(),
		DimensionID: tp.DimensionID,
	}
	switch c := tp.Change.(type) {
	case Move:
		pos := c.Position
		w.Position = &pos
	case StatusChange:
		status := c.Status
		w.Status = &status
	}
	return json.Marshal(w)
}

// UnmarshalJSON action 으로 변형을 판별.
// 페이로드가 맞지 않으면 Unknown 으로 남겨 재생 시 무시되게 한다.
func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	var w wireTimePoint
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	tp.Timestamp = w.Timestamp
	tp.UserID = w.UserID
	tp.DimensionID = w.DimensionID

	switch Action(w.Action) {
	case ActionMove:
		if w.Position != nil {
			tp.Change = Move{Position: *w.Position}
			return nil
		}
	case ActionStatus:
		if w.Status != nil {
			tp.Change = StatusChange{Status: *w.Status}
			return nil
		}
	case ActionJoin:
		tp.Change = Join{}
		return nil
	case ActionLeave:
		tp.Change = Leave{}
		return nil
	}

	tp.Change = Unknown{Kind: w.Action}
	return nil
}
