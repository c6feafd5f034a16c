package model

// UserStatus 오피스 사용자 상태
type UserStatus string

const (
	UserStatusOnline    UserStatus = "online"
	UserStatusAway      UserStatus = "away"
	UserStatusBusy      UserStatus = "busy"
	UserStatusInMeeting UserStatus = "inMeeting"
	UserStatusOffline   UserStatus = "offline"
)

// String 메서드
func (s UserStatus) String() string {
	return string(s)
}

// DefaultDimensionID 기본 루트 차원 ID
const DefaultDimensionID = "default"

// RootParentMarker 루트 차원을 나타내는 parentId 값 (빈 문자열과 동일하게 취급)
const RootParentMarker = "root"

// Direction 키보드 이동 방향
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// IsValid 지원하는 방향인지 확인
func (d Direction) IsValid() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	}
	return false
}
