package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"virtual-office-backend/internal/model"
)

// UpdatesChannel 오피스 변경 이벤트 Pub/Sub 채널
const UpdatesChannel = "office_updates"

// presenceTTL 마지막 변경 후 유지 시간 (Heartbeat 로 연장)
const presenceTTL = 60 * time.Second

// UpdateKind 변경 종류
type UpdateKind string

const (
	UpdateUpsert UpdateKind = "upsert"
	UpdateRemove UpdateKind = "remove"
)

// Entry Redis에 저장될 사용자 상태
type Entry struct {
	DimensionID string     `json:"dimensionId"`
	User        model.User `json:"user"`
	UpdatedAt   int64      `json:"updatedAt"`
	ServerID    string     `json:"serverId"` // 멀티 서버 확장 대비
}

// Update Pub/Sub 으로 전파되는 변경 메시지
type Update struct {
	Kind        UpdateKind  `json:"kind"`
	DimensionID string      `json:"dimensionId"`
	UserID      string      `json:"userId"`
	User        *model.User `json:"user,omitempty"`
	ServerID    string      `json:"serverId"`
}

// Manager 오피스 Presence 미러 (office.Publisher 구현)
type Manager struct {
	client   *redis.Client
	serverID string
}

// NewManager 생성자
func NewManager(addr, password string, db int, serverID string) *Manager {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Manager{
		client:   rdb,
		serverID: serverID,
	}
}

// dimensionKey 차원별 사용자 해시 키
func dimensionKey(dimensionID string) string {
	return fmt.Sprintf("presence:office:%s", dimensionID)
}

// PublishUser 사용자 상태 저장 + 변경 이벤트 발행
func (m *Manager) PublishUser(ctx context.Context, dimensionID string, user model.User) error {
	entry := Entry{
		DimensionID: dimensionID,
		User:        user,
		UpdatedAt:   time.Now().Unix(),
		ServerID:    m.serverID,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := dimensionKey(dimensionID)
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, key, user.ID, data)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	u := user
	return m.publish(ctx, Update{
		Kind:        UpdateUpsert,
		DimensionID: dimensionID,
		UserID:      user.ID,
		User:        &u,
		ServerID:    m.serverID,
	})
}

// RemoveUser 사용자 상태 삭제 (Disconnect)
func (m *Manager) RemoveUser(ctx context.Context, dimensionID, userID string) error {
	if err := m.client.HDel(ctx, dimensionKey(dimensionID), userID).Err(); err != nil {
		return err
	}

	return m.publish(ctx, Update{
		Kind:        UpdateRemove,
		DimensionID: dimensionID,
		UserID:      userID,
		ServerID:    m.serverID,
	})
}

// Heartbeat 차원 Presence TTL 연장
func (m *Manager) Heartbeat(ctx context.Context, dimensionID string) error {
	// 키가 없으면 연장할 대상도 없다
	return m.client.Expire(ctx, dimensionKey(dimensionID), presenceTTL).Err()
}

// ListUsers 차원에 기록된 사용자 목록 (다른 서버 인스턴스 포함)
func (m *Manager) ListUsers(ctx context.Context, dimensionID string) ([]Entry, error) {
	values, err := m.client.HGetAll(ctx, dimensionKey(dimensionID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeEntries(values), nil
}

// decodeEntries 깨진 항목은 건너뛴다
func decodeEntries(values map[string]string) []Entry {
	entries := make([]Entry, 0, len(values))
	for _, raw := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (m *Manager) publish(ctx context.Context, update Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return m.client.Publish(ctx, UpdatesChannel, data).Err()
}

// Subscribe 변경 이벤트 구독 (채널 반환)
func (m *Manager) Subscribe(ctx context.Context) *redis.PubSub {
	return m.client.Subscribe(ctx, UpdatesChannel)
}

// Payloads 구독 메시지 페이로드 채널. ctx 취소 시 구독을 닫고 채널도 닫힌다.
func (m *Manager) Payloads(ctx context.Context) <-chan string {
	pubsub := m.Subscribe(ctx)
	out := make(chan string)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// DecodeUpdate 구독 메시지 페이로드 해석
func DecodeUpdate(payload string) (Update, error) {
	var update Update
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return Update{}, err
	}
	return update, nil
}

// ServerID 현재 서버 식별자
func (m *Manager) ServerID() string {
	return m.serverID
}

// Ping 연결 확인
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close 연결 종료
func (m *Manager) Close() error {
	return m.client.Close()
}
