package server

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"virtual-office-backend/internal/auth"
	"virtual-office-backend/internal/cache"
	"virtual-office-backend/internal/config"
	"virtual-office-backend/internal/database"
	"virtual-office-backend/internal/dimension"
	"virtual-office-backend/internal/handler"
	"virtual-office-backend/internal/middleware"
	"virtual-office-backend/internal/office"
	"virtual-office-backend/internal/presence"
	"virtual-office-backend/internal/service"
	"virtual-office-backend/internal/timeline"
)

// Server Fiber 서버 래퍼
type Server struct {
	app *fiber.App
	cfg *config.Config
	db  *gorm.DB

	engine   *timeline.Engine
	office   *office.Office
	presence *presence.Manager  // Redis 비활성 시 nil
	sessions *cache.RedisClient // Redis 비활성 시 nil

	authHandler      *handler.AuthHandler
	timelineHandler  *handler.TimelineHandler
	dimensionHandler *handler.DimensionHandler
	officeHandler    *handler.OfficeHandler
	officeWSHandler  *handler.OfficeWSHandler
	presenceHandler  *handler.PresenceHandler // Redis 비활성 시 nil
	employeeHandler  *handler.EmployeeHandler // DB 비활성 시 nil
	healthHandler    *handler.HealthHandler
	dimensionMW      *middleware.DimensionMiddleware
	jwtManager       *auth.JWTManager

	cancel context.CancelFunc
}

// New 새 서버 인스턴스 생성 (db 는 nil 허용)
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               "Virtual Office Timeline",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             1 * 1024 * 1024, // 1MB
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	credentials, err := auth.NewCredentialStore(auth.DefaultDemoAccounts())
	if err != nil {
		return nil, err
	}

	s := &Server{
		app:        app,
		cfg:        cfg,
		db:         db,
		jwtManager: jwtManager,
	}

	// Redis 초기화 (선택적)
	var sessions handler.SessionStore
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("⚠️ Redis connection failed: %v (sessions and presence will be disabled)", err)
		} else {
			s.sessions = client
			sessions = client
			s.presence = presence.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Server.ServerID)
			log.Printf("✅ Redis presence enabled (server: %s)", cfg.Server.ServerID)
		}
	} else {
		log.Println("ℹ️ Redis not configured (sessions and presence will be disabled)")
	}

	// 가상 시계 + 차원 트리
	s.engine = timeline.NewEngine(timeline.WithSpeed(cfg.Timeline.DefaultSpeed))
	dims := dimension.NewManager(dimension.WithMaxDepth(cfg.Timeline.DimensionMaxDepth))
	if cfg.Timeline.SeedSamples {
		if err := dims.SeedSamples(); err != nil {
			return nil, err
		}
	}

	var officeOpts []office.Option
	if cfg.Timeline.SeedSamples {
		officeOpts = append(officeOpts, office.WithUsers(office.SampleUsers()))
	}
	if s.presence != nil {
		officeOpts = append(officeOpts, office.WithPublisher(s.presence))
	}
	s.office = office.New(s.engine, dims, officeOpts...)

	s.authHandler = handler.NewAuthHandler(credentials, jwtManager, sessions, cfg.Auth.SecureCookie)
	s.timelineHandler = handler.NewTimelineHandler(s.office)
	s.dimensionHandler = handler.NewDimensionHandler(s.office)
	s.officeHandler = handler.NewOfficeHandler(s.office)
	s.officeWSHandler = handler.NewOfficeWSHandler(s.office, cfg.WebSocket.BroadcastInterval, cfg.WebSocket.WriteTimeout)
	s.dimensionMW = middleware.NewDimensionMiddleware(dims)
	if s.presence != nil {
		s.presenceHandler = handler.NewPresenceHandler(s.office, s.presence)
	}

	if db != nil {
		s.employeeHandler = handler.NewEmployeeHandler(service.NewDirectoryService(db))
	} else {
		log.Println("ℹ️ Database not configured (employee directory will be disabled)")
	}

	s.healthHandler = handler.NewHealthHandler(s.healthChecks()...).
		WithDetail("websocketSessions", func() any { return s.officeWSHandler.ConnectedSessions() })
	return s, nil
}

// healthChecks 활성화된 외부 컴포넌트 상태 확인 목록
func (s *Server) healthChecks() []handler.HealthCheck {
	var checks []handler.HealthCheck
	if s.db != nil {
		checks = append(checks, handler.HealthCheck{
			Name:     "database",
			Critical: true,
			Ping: func(ctx context.Context) error {
				return database.Ping(s.db)
			},
		})
	}
	if s.sessions != nil {
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Ping: s.sessions.Health,
		})
	}
	if s.presence != nil {
		checks = append(checks, handler.HealthCheck{
			Name: "presence",
			Ping: s.presence.Ping,
		})
	}
	return checks
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Seoul",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: s.cfg.CORS.AllowOrigins != "*",
	}))

	// 전역 Rate Limiter (WebSocket 제외)
	if s.cfg.Server.RateLimit > 0 {
		s.app.Use(limiter.New(limiter.Config{
			Max:        s.cfg.Server.RateLimit,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return websocket.IsWebSocketUpgrade(c)
			},
		}))
	}
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,              // 최대 10회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Auth 라우트 그룹
	authGroup := s.app.Group("/auth")
	authGroup.Post("/login", authLimiter, s.authHandler.Login)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", auth.AuthMiddleware(s.jwtManager), s.authHandler.Logout) // 인증된 사용자만
	authGroup.Get("/me", auth.AuthMiddleware(s.jwtManager), s.authHandler.GetMe)

	// Timeline 라우트 그룹
	timelineGroup := s.app.Group("/api/timeline")
	timelineGroup.Get("", s.timelineHandler.GetState)
	timelineGroup.Post("/speed", s.timelineHandler.SetSpeed)
	timelineGroup.Post("/pause", s.timelineHandler.TogglePause)
	timelineGroup.Post("/recording", s.timelineHandler.ToggleRecording)
	timelineGroup.Post("/time", s.timelineHandler.SetTime)
	timelineGroup.Post("/jump", s.timelineHandler.Jump)
	timelineGroup.Get("/events", s.timelineHandler.ListEvents)
	timelineGroup.Post("/events", s.timelineHandler.AddEvent)
	timelineGroup.Post("/project", s.timelineHandler.Project)

	// Dimension 라우트 그룹
	dimensionGroup := s.app.Group("/api/dimensions")
	dimensionGroup.Get("", s.dimensionHandler.List)
	dimensionGroup.Post("", s.dimensionHandler.Create)
	dimensionGroup.Get("/active", s.dimensionHandler.Active)
	dimensionGroup.Post("/merge", s.dimensionHandler.Merge)

	// 특정 차원 라우트 (존재 확인 미들웨어)
	requireDimension := s.dimensionMW.RequireDimension()
	dimensionGroup.Get("/:id", requireDimension, s.dimensionHandler.Get)
	dimensionGroup.Put("/:id", requireDimension, s.dimensionHandler.Update)
	dimensionGroup.Post("/:id/switch", requireDimension, s.dimensionHandler.Switch)
	dimensionGroup.Get("/:id/history", requireDimension, s.dimensionHandler.History)
	dimensionGroup.Get("/:id/children", requireDimension, s.dimensionHandler.Children)
	dimensionGroup.Get("/:id/snapshot", requireDimension, s.dimensionHandler.Snapshot)

	// Office 라우트 그룹 (로그인 시 사용자 정보 사용)
	officeGroup := s.app.Group("/api/office", auth.OptionalAuthMiddleware(s.jwtManager))
	officeGroup.Get("", s.officeHandler.GetView)
	officeGroup.Get("/users", s.officeHandler.ListUsers)
	officeGroup.Post("/users", s.officeHandler.Connect)
	officeGroup.Delete("/users/:id", s.officeHandler.Disconnect)
	officeGroup.Put("/users/:id/position", s.officeHandler.Move)
	officeGroup.Put("/users/:id/status", s.officeHandler.SetStatus)
	officeGroup.Post("/users/:id/step", s.officeHandler.Step)

	// 멀티 서버 Presence 조회 (Redis 필요)
	if s.presenceHandler != nil {
		officeGroup.Get("/presence", s.presenceHandler.List)
	}

	// Employee 디렉터리 라우트 (DB 필요)
	if s.employeeHandler != nil {
		employeeGroup := s.app.Group("/api/employees")
		employeeGroup.Get("", s.employeeHandler.List)
		employeeGroup.Post("", auth.AuthMiddleware(s.jwtManager), s.employeeHandler.Upsert)
	}

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 오피스 뷰 엔드포인트 (토큰은 선택)
	s.app.Get("/ws/office", auth.OptionalAuthMiddleware(s.jwtManager), websocket.New(s.officeWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// startBackground 가상 시계, 뷰 브로드캐스트, Presence 구독 시작
func (s *Server) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.engine.Run(ctx, s.cfg.Timeline.TickInterval)
	go s.officeWSHandler.Run(ctx)

	if s.presence != nil {
		go func() {
			err := s.officeWSHandler.ConsumePresence(ctx, s.presence.Payloads(ctx), s.presence.ServerID())
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("⚠️ Presence relay stopped: %v", err)
			}
		}()
		go s.heartbeat(ctx)
	}
}

// heartbeat 활성 차원 Presence TTL 주기적 연장
func (s *Server) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.presence.Heartbeat(ctx, s.office.Dimensions().ActiveID()); err != nil {
				log.Printf("⚠️ Presence heartbeat failed: %v", err)
			}
		}
	}
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	s.startBackground()

	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.Shutdown(); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Virtual Office Timeline starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/office", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	err := s.app.ShutdownWithTimeout(30 * time.Second)

	if s.presence != nil {
		if cerr := s.presence.Close(); cerr != nil {
			log.Printf("⚠️ Presence close error: %v", cerr)
		}
	}
	if s.sessions != nil {
		if cerr := s.sessions.Close(); cerr != nil {
			log.Printf("⚠️ Redis close error: %v", cerr)
		}
	}
	return err
}

// App 테스트용 Fiber 앱 접근자
func (s *Server) App() *fiber.App {
	return s.app
}
