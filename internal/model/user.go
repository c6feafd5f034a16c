package model

// Position 2D 평면 좌표 (범위 제한 없음)
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Step 방향으로 distance 만큼 이동한 좌표 반환
func (p Position) Step(dir Direction, distance float64) Position {
	switch dir {
	case DirectionUp:
		p.Y -= distance
	case DirectionDown:
		p.Y += distance
	case DirectionLeft:
		p.X -= distance
	case DirectionRight:
		p.X += distance
	}
	return p
}

// User 오피스 참가자
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Status         string   `json:"status"`
	IsActive       bool     `json:"isActive"`
	IsMicrophoneOn bool     `json:"isMicrophoneOn"`
	IsVideoOn      *bool    `json:"isVideoOn,omitempty"`
	PhotoURL       *string  `json:"photoUrl,omitempty"`
	Color          *string  `json:"color,omitempty"`
	Position       Position `json:"position"`
}

// Clone 포인터 필드까지 복사한 독립 사본
func (u User) Clone() User {
	out := u
	if u.IsVideoOn != nil {
		v := *u.IsVideoOn
		out.IsVideoOn = &v
	}
	if u.PhotoURL != nil {
		v := *u.PhotoURL
		out.PhotoURL = &v
	}
	if u.Color != nil {
		v := *u.Color
		out.Color = &v
	}
	return out
}

// CloneUsers 사용자 목록의 구조적 복사 (nil 은 nil 로 유지)
func CloneUsers(users []User) []User {
	if users == nil {
		return nil
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}
