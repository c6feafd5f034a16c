package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Account 데모 계정
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`

	passwordHash []byte
}

// CredentialStore 고정된 데모 계정 집합 (비밀번호는 bcrypt 해시로만 보관)
type CredentialStore struct {
	byEmail map[string]Account
	byID    map[string]Account
}

// DemoAccount 데모 계정 입력값
type DemoAccount struct {
	ID       string
	Name     string
	Email    string
	Password string
	Image    string
}

// DefaultDemoAccounts 기본 제공 데모 계정
func DefaultDemoAccounts() []DemoAccount {
	return []DemoAccount{
		{ID: "1", Name: "Demo User", Email: "demo@example.com", Password: "password123", Image: "/placeholder.svg?height=80&width=80"},
		{ID: "2", Name: "Test User", Email: "test@example.com", Password: "password123", Image: "/placeholder.svg?height=80&width=80"},
	}
}

// NewCredentialStore 계정 목록으로 저장소 생성
func NewCredentialStore(accounts []DemoAccount) (*CredentialStore, error) {
	s := &CredentialStore{
		byEmail: make(map[string]Account, len(accounts)),
		byID:    make(map[string]Account, len(accounts)),
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		acc := Account{
			ID:           a.ID,
			Name:         a.Name,
			Email:        a.Email,
			Image:        a.Image,
			passwordHash: hash,
		}
		s.byEmail[strings.ToLower(a.Email)] = acc
		s.byID[a.ID] = acc
	}
	return s, nil
}

// Authenticate 이메일(대소문자 무시) + 비밀번호 확인
func (s *CredentialStore) Authenticate(email, password string) (Account, error) {
	acc, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// Lookup ID 로 계정 조회
func (s *CredentialStore) Lookup(id string) (Account, bool) {
	acc, ok := s.byID[id]
	return acc, ok
}
