package model

import (
	"time"
)

// Anomaly 차원 내 시각적 이상 영역
type Anomaly struct {
	AreaID string  `json:"areaId"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
}

// Portal 다른 차원으로 이동하는 포털
type Portal struct {
	Position   Position `json:"position"`
	TargetID   string   `json:"targetId"`
	TargetName string   `json:"targetName"`
	Color      string   `json:"color,omitempty"`
}

// Effects 아바타 시각 효과
type Effects struct {
	AvatarEffect *string `json:"avatarEffect"`
}

// Dimension 평행 세계 트리의 노드
type Dimension struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	CreatedAt    time.Time        `json:"createdAt"`
	ForkedAt     *time.Time       `json:"forkedAt,omitempty"` // 분기 시점의 가상 시간
	UserCount    int              `json:"userCount"`
	Color        string           `json:"color,omitempty"`
	OfficeConfig map[string]any   `json:"officeConfig"`
	ParentID     string           `json:"parentId,omitempty"` // 빈 문자열 또는 "root" 이면 루트
	Effects      Effects          `json:"effects"`
	Anomalies    []Anomaly        `json:"anomalies"`
	Portals      []Portal         `json:"portals"`
	Weather      *string          `json:"weather"`
	Decorations  map[string][]any `json:"decorations,omitempty"`
}

// IsRoot 루트 노드 여부
func (d Dimension) IsRoot() bool {
	return IsRootParent(d.ParentID)
}

// IsRootParent parentId 가 루트 표시인지 확인
func IsRootParent(parentID string) bool {
	return parentID == "" || parentID == RootParentMarker
}

// Clone 맵/슬라이스까지 복사한 독립 사본
func (d Dimension) Clone() Dimension {
	out := d
	if d.ForkedAt != nil {
		t := *d.ForkedAt
		out.ForkedAt = &t
	}
	if d.Effects.AvatarEffect != nil {
		v := *d.Effects.AvatarEffect
		out.Effects.AvatarEffect = &v
	}
	if d.Weather != nil {
		v := *d.Weather
		out.Weather = &v
	}
	out.OfficeConfig = CloneConfig(d.OfficeConfig)
	// 빈 목록도 JSON 에서 [] 로 나가야 한다
	out.Anomalies = make([]Anomaly, len(d.Anomalies))
	copy(out.Anomalies, d.Anomalies)
	out.Portals = make([]Portal, len(d.Portals))
	copy(out.Portals, d.Portals)
	if d.Decorations != nil {
		out.Decorations = make(map[string][]any, len(d.Decorations))
		for k, items := range d.Decorations {
			out.Decorations[k] = cloneSlice(items)
		}
	}
	return out
}

// CloneConfig officeConfig 같은 임의 JSON 형태 맵을 깊은 복사
func CloneConfig(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneConfig(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}
