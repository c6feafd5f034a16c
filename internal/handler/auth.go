package handler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/auth"
	"virtual-office-backend/internal/cache"
)

// SessionStore 로그인 세션 저장소 (cache.RedisClient)
type SessionStore interface {
	SaveSession(ctx context.Context, s *cache.UserSession, ttl time.Duration) error
	GetSession(ctx context.Context, userID string) (*cache.UserSession, error)
	DeleteSession(ctx context.Context, userID string) error
	RevokeRefreshToken(ctx context.Context, token string, ttl time.Duration) error
	IsRefreshTokenRevoked(ctx context.Context, token string) (bool, error)
}

// AuthHandler 인증 핸들러
type AuthHandler struct {
	credentials  *auth.CredentialStore
	jwtManager   *auth.JWTManager
	sessions     SessionStore // nil 이면 세션 저장 생략
	secureCookie bool
}

// NewAuthHandler AuthHandler 생성
func NewAuthHandler(credentials *auth.CredentialStore, jwtManager *auth.JWTManager, sessions SessionStore, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		credentials:  credentials,
		jwtManager:   jwtManager,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

// LoginRequest 로그인 요청
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse 인증 응답
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in"`
}

// UserResponse 사용자 응답
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

func toUserResponse(a auth.Account) UserResponse {
	return UserResponse{ID: a.ID, Email: a.Email, Name: a.Name, Image: a.Image}
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// Login 데모 계정 로그인
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	account, err := h.credentials.Authenticate(req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid email or password",
		})
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(account.ID, account.Email, account.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate token",
		})
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(account.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate refresh token",
		})
	}

	if h.sessions != nil {
		s := &cache.UserSession{
			UserID: account.ID,
			Name:   account.Name,
			Email:  account.Email,
			Image:  account.Image,
		}
		if err := h.sessions.SaveSession(c.UserContext(), s, h.jwtManager.RefreshExpiry()); err != nil {
			log.Printf("[Auth] ⚠️ Failed to save session for %s: %v", account.ID, err)
		}
	}

	// HTTP-Only 쿠키로 리프레시 토큰 설정
	h.setRefreshCookie(c, refreshToken, int(h.jwtManager.RefreshExpiry().Seconds()))

	return c.JSON(AuthResponse{
		User:        toUserResponse(account),
		AccessToken: accessToken,
		ExpiresIn:   int64(h.jwtManager.AccessExpiry().Seconds()),
	})
}

// RefreshToken 토큰 갱신
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token not found",
		})
	}

	userID, err := h.jwtManager.ValidateRefreshToken(refreshToken)
	if err == nil && h.sessions != nil {
		revoked, rerr := h.sessions.IsRefreshTokenRevoked(c.UserContext(), refreshToken)
		if rerr != nil {
			log.Printf("[Auth] ⚠️ Revocation check failed: %v", rerr)
		} else if revoked {
			err = auth.ErrInvalidToken
		}
	}
	if err != nil {
		h.setRefreshCookie(c, "", -1)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid or expired refresh token",
		})
	}

	account, ok := h.credentials.Lookup(userID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(account.ID, account.Email, account.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"access_token": accessToken,
		"expires_in":   int64(h.jwtManager.AccessExpiry().Seconds()),
	})
}

// Logout 로그아웃 (세션 삭제 + 리프레시 토큰 폐기)
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if h.sessions != nil {
		ctx := c.UserContext()
		if token := c.Cookies("refresh_token"); token != "" {
			if userID, err := h.jwtManager.ValidateRefreshToken(token); err == nil {
				if err := h.sessions.DeleteSession(ctx, userID); err != nil {
					log.Printf("[Auth] ⚠️ Failed to delete session for %s: %v", userID, err)
				}
			}
			if err := h.sessions.RevokeRefreshToken(ctx, token, h.jwtManager.RefreshExpiry()); err != nil {
				log.Printf("[Auth] ⚠️ Failed to revoke refresh token: %v", err)
			}
		}
	}

	h.setRefreshCookie(c, "", -1)
	return c.JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

// GetMe 현재 사용자 정보 (세션 프로필 우선)
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	if h.sessions != nil {
		s, err := h.sessions.GetSession(c.UserContext(), userID)
		switch {
		case err == nil:
			return c.JSON(UserResponse{ID: s.UserID, Email: s.Email, Name: s.Name, Image: s.Image})
		case !errors.Is(err, cache.ErrSessionNotFound):
			log.Printf("[Auth] ⚠️ Failed to load session for %s: %v", userID, err)
		}
	}

	account, ok := h.credentials.Lookup(userID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}
	return c.JSON(toUserResponse(account))
}
