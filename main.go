package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal" // (우아한 종료)
	"syscall"   // (우아한 종료)
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/mysql/v2" // (MySQL 스토어)
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus" // Logrus 사용

	"shiftboard/internal/auth"
	"shiftboard/internal/board"
	"shiftboard/internal/config"
	"shiftboard/internal/database"
	"shiftboard/internal/entry"
	"shiftboard/internal/instance"
	"shiftboard/internal/metrics"
	"shiftboard/internal/middleware"
	"shiftboard/internal/notice"
	"shiftboard/internal/scheduler"
)

func main() {
	var configPath, localPath, region string
	flag.StringVar(&configPath, "conf", "/dba/service/infra/shiftboard", "parameter store key")
	flag.StringVar(&region, "region", "ap-northeast-2", "parameter store region")
	flag.StringVar(&localPath, "local", "", "local yaml config (parameter store 대신 사용)")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// 1. 설정 로드
	var (
		cfg *config.Config
		err error
	)
	if localPath != "" {
		cfg, err = config.FromFile(localPath)
	} else {
		cfg, err = config.FromParamStore(region, configPath)
	}
	if err != nil {
		log.Panic(err)
	}
	log.SetLevel(cfg.Level())
	loc := cfg.Location()

	// 2. DB 연결 및 마이그레이션
	dbo, err := database.CreateConnection(database.DBI{
		User:     cfg.Repository.User,
		Password: cfg.Repository.Password,
		Endpoint: cfg.Repository.Endpoint,
		Port:     cfg.Repository.Port,
		Database: cfg.Repository.Database,
	})
	if err != nil {
		log.Fatalf("Repository Connection failed. %v", err)
	}
	log.Info("Successfully connected to the database.")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if err := database.Migrate(migrateCtx, dbo); err != nil {
		cancelMigrate()
		log.Fatalf("DB migration failed. %v", err)
	}
	cancelMigrate()

	// 3. 의존성 조립 (Dependency Injection)
	sessionStore := session.New(session.Config{
		Storage: mysql.New(mysql.Config{
			Db:    dbo.DB, // (*sqlx.DB에서 표준 *sql.DB 추출)
			Table: "fiber_sessions",
		}),
		Expiration:     12 * time.Hour,
		CookieName:     "shiftboard_session",
		CookieSecure:   false,
		CookieHTTPOnly: true,
	})
	log.Info("MySQL 세션 스토어가 설정되었습니다.")

	metrics.RegisterMetrics()

	// Instance
	instanceStore := instance.NewStore(dbo)
	instanceService := instance.NewService(instanceStore)
	instanceHandler := instance.NewInstanceHandler(instanceService)

	// Entry
	entryStore := entry.NewStore(dbo)
	entryService := entry.NewService(entryStore, instanceService, entry.Options{
		Location:      loc,
		HistoryMonths: *cfg.Board.HistoryMonths,
	})
	entryHandler := entry.NewEntryHandler(entryService)

	// Notice (Slack 미러링은 설정이 있을 때만)
	var announcer notice.Announcer
	if a := notice.NewSlackAnnouncer(cfg.Slack.BotToken, cfg.Slack.ChannelID); a != nil {
		announcer = a
		log.Infof("공지 Slack 미러링 사용 (채널: %s)", cfg.Slack.ChannelID)
	}
	noticeStore := notice.NewStore(dbo)
	noticeService := notice.NewService(noticeStore, announcer)
	noticeHandler := notice.NewNoticeHandler(noticeService)

	// Auth
	authStore := auth.NewStore(dbo)
	authService := auth.NewService(authStore)
	authHandler := auth.NewAuthHandler(authService, sessionStore)

	// Board
	boardService := board.NewService(instanceService, noticeService, entryService)
	boardHandler := board.NewBoardHandler(boardService)

	// Scheduler
	janitor := scheduler.NewScheduler(entryStore, cfg.Board.JanitorCron)

	// 4. Fiber 앱 생성
	app := fiber.New(fiber.Config{
		AppName:      "shiftboard",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 5. 라우트(URL) 설정
	log.Info("라우트를 설정합니다...")

	// 모든 요청에 조회자(로그인 사용자 또는 익명)를 붙입니다.
	app.Use(middleware.ViewerMiddleware(sessionStore))

	authGroup := app.Group("/auth")
	{
		authGroup.Post("/register", authHandler.HandleRegister)
		authGroup.Post("/login", authHandler.HandleLogin)
		authGroup.Get("/setup-otp", authHandler.HandleShowSetupOTP)
		authGroup.Post("/setup-otp", authHandler.HandleProcessSetupOTP)
		authGroup.Post("/verify-otp", authHandler.HandleProcessVerifyOTP)
		authGroup.Get("/me", authHandler.HandleMe)
		authGroup.Get("/logout", middleware.AuthMiddleware(), authHandler.HandleLogout)
	}

	// 익명 조회자도 접근하는 그룹 (권한 판정은 서비스가 합니다)
	api := app.Group("/api")
	{
		api.Get("/board", boardHandler.HandleShowBoard)
		api.Get("/notices", noticeHandler.HandleList)

		api.Get("/instances", instanceHandler.HandleList)
		api.Get("/instances/:id", instanceHandler.HandleGet)
		api.Get("/instances/:id/calendar", entryHandler.HandleCalendar)
		api.Get("/instances/:id/calendar.ics", entryHandler.HandleExportICS)
		api.Get("/instances/:id/schedule", entryHandler.HandleSchedule)

		api.Post("/instances/:id/entries", entryHandler.HandleAddOccupant)
		api.Post("/instances/:id/suggest", entryHandler.HandleToggleSuggest)
		api.Delete("/entries/:id", entryHandler.HandleRemoveOccupant)
	}

	// 관리자 전용 그룹 (ADMIN만)
	adminGroup := api.Group("/admin",
		middleware.AuthMiddleware(),
		middleware.AdminOnlyMiddleware(),
	)
	{
		adminGroup.Post("/instances", instanceHandler.HandleCreate)
		adminGroup.Patch("/instances/:id", instanceHandler.HandleRename)
		adminGroup.Put("/instances/:id/config", instanceHandler.HandleConfigure)
		adminGroup.Delete("/instances/:id", instanceHandler.HandleDelete)

		adminGroup.Post("/notices", noticeHandler.HandleCreate)
		adminGroup.Delete("/notices/:id", noticeHandler.HandleDelete)

		adminGroup.Get("/users", authHandler.HandleAdminUsers)
		adminGroup.Post("/users/privilege", authHandler.HandleChangePrivilege)
		adminGroup.Post("/users/:id/approve", authHandler.HandleApproveUser)
	}

	// 6. 서버 시작 (우아한 종료 로직)
	if err := janitor.Start(); err != nil {
		log.Fatalf("스케줄러 시작 실패: %v", err)
	}

	go func() {
		log.Infof("Shiftboard 서버(HTTP)가 [::]:%d 포트에서 시작됩니다. (timezone: %s)", cfg.Server.Port, loc)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			log.Panicf("HTTP 서버 Listen 실패: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Info("Shiftboard 서버 종료 신호 수신...")

	janitor.Stop()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("HTTP 서버 Shutdown 실패: %v", err)
	}
	if err := dbo.Close(); err != nil {
		log.Errorf("DB 연결 종료 실패: %v", err)
	}

	log.Info("Shiftboard 서버가 정상적으로 종료되었습니다.")
}
