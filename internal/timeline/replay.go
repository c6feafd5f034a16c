package timeline

import (
	"sort"
	"time"

	"virtual-office-backend/internal/model"
)

// ProjectOptions 투영 옵션
type ProjectOptions struct {
	// Filter 가 false 를 반환한 이벤트는 적용하지 않는다.
	Filter func(TimePoint) bool
}

// ForDimension 지정한 차원의 이벤트만 통과시키는 옵션
func ForDimension(dimensionID string) ProjectOptions {
	if dimensionID == "" {
		dimensionID = model.DefaultDimensionID
	}
	return ProjectOptions{
		Filter: func(tp TimePoint) bool {
			return tp.Dimension() == dimensionID
		},
	}
}

// Replay base 사용자 집합에 target 이하 시각의 이벤트를 시간순으로 적용한 결과를 반환한다.
// events 와 base 는 변경하지 않는다.
func Replay(events []TimePoint, target time.Time, base []model.User, opts ProjectOptions) []model.User {
	states := make(map[string]*model.User, len(base))
	order := make([]string, 0, len(base))
	for _, u := range base {
		clone := u.Clone()
		if _, exists := states[u.ID]; !exists {
			order = append(order, u.ID)
		}
		states[u.ID] = &clone
	}

	applicable := make([]TimePoint, 0, len(events))
	for _, evt := range events {
		if evt.Timestamp.After(target) {
			continue
		}
		if opts.Filter != nil && !opts.Filter(evt) {
			continue
		}
		applicable = append(applicable, evt)
	}

	// 같은 타임스탬프는 삽입 순서 유지
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Timestamp.Before(applicable[j].Timestamp)
	})

	for _, evt := range applicable {
		user, ok := states[evt.UserID]
		if !ok {
			continue
		}
		switch c := evt.Change.(type) {
		case Move:
			user.Position = c.Position
		case StatusChange:
			user.Status = c.Status
		}
	}

	users := make([]model.User, 0, len(order))
	for _, id := range order {
		users = append(users, *states[id])
	}
	return users
}
