package main

import (
	"log"

	"gorm.io/gorm"

	"virtual-office-backend/internal/config"
	"virtual-office-backend/internal/database"
	"virtual-office-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결 (사원 디렉터리용, 선택)
	var db *gorm.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.ConnectDB(cfg.Database)
		if err != nil {
			log.Fatalf("❌ Database connection failed: %v", err)
		}
		defer database.Close()

		// Ping 테스트
		if err := database.Ping(db); err != nil {
			log.Fatalf("❌ Database ping failed: %v", err)
		}
		log.Printf("✅ Database connected successfully")

		// DB 버전 확인
		var version string
		db.Raw("SELECT version()").Scan(&version)
		if len(version) > 50 {
			version = version[:50] + "..."
		}
		log.Printf("📦 PostgreSQL: %s", version)
	}

	// 서버 생성 및 설정
	srv, err := server.New(cfg, db)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
