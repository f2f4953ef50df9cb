package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"CampusSOS/internal/feed"
	handlers "CampusSOS/internal/handler"
	"CampusSOS/internal/lifecycle"
	"CampusSOS/internal/models"
	"CampusSOS/internal/realtime"
	"CampusSOS/internal/store"
	"CampusSOS/pkg/backup"
	"CampusSOS/pkg/cache"
	"CampusSOS/pkg/config"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/metrics"
	"CampusSOS/pkg/notification"
	"CampusSOS/pkg/scheduler"
	"CampusSOS/pkg/sse"
	"CampusSOS/pkg/util"
	"CampusSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	ensureAdminExists(db)

	appCache, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Warn("cache unavailable, stats served uncached", zap.Error(err))
	}

	m := metrics.NewMetrics()

	bus := feed.NewBus()
	st := store.New(db, bus)

	manager := lifecycle.New(st, bus, cfg.RefreshLimit)
	manager.Start()
	defer manager.Close()
	if err := manager.Refresh(context.Background()); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}

	hub := websocket.NewHub(nil)
	defer hub.Close()
	sseHub := sse.NewHub(0)

	bridge := realtime.NewBridge(bus, hub, sseHub, m)
	bridge.Start()
	defer bridge.Close()

	// Periodic full refresh covers feed events dropped under backpressure.
	sched := scheduler.New()
	defer sched.Stop()
	sched.Every(cfg.RefreshInterval, scheduler.FuncJob(func(ctx context.Context) {
		if err := manager.Refresh(ctx); err != nil {
			logger.Warn("periodic refresh failed", zap.Error(err))
			return
		}
		active := 0
		for _, a := range manager.Alerts() {
			if a.Status == models.StatusActive {
				active++
			}
		}
		m.SetActiveAlerts(active)
		m.SetWebsocketConnections(hub.GetConnectionCount())
		m.SetSSEClients(sseHub.ClientCount())
	}))

	cr := scheduler.NewCron(nil)
	if _, err := cr.Add("0 0 * * *", scheduler.FuncJob(func(ctx context.Context) {
		stats, err := st.Stats(ctx)
		if err != nil {
			logger.Warn("nightly stats summary failed", zap.Error(err))
			return
		}
		logger.Info("daily alert summary",
			zap.Int64("total", stats.Total),
			zap.Int64("active", stats.Active),
			zap.Int64("resolved_today", stats.ResolvedToday),
			zap.Int64("false_alarms_today", stats.FalseAlarmsToday),
			zap.Float64("avg_resolution_minutes", stats.AvgResolutionMinutes))
	})); err != nil {
		logger.Warn("could not schedule nightly summary", zap.Error(err))
	}
	if err := backup.StartScheduler(cr); err != nil {
		logger.Warn("could not schedule backups", zap.Error(err))
	}
	cr.Start()
	defer cr.Stop()

	notifySub := startAlertNotifications(bus)
	defer notifySub.Release()

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	handlers.NewHandlers(db, st, manager, hub, sseHub, appCache, m).Register(engine)

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := engine.Run(cfg.Addr); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

// startAlertNotifications texts the security desk when a new alert
// lands. Notification failures are logged and dropped; the dashboard is
// the authoritative channel.
func startAlertNotifications(bus *feed.Bus) *feed.Subscription {
	cfg := config.GlobalConfig

	var providers notification.Multi
	if gateway := util.GetEnv("SMS_GATEWAY_URL"); gateway != "" && len(cfg.SecurityPhones) > 0 {
		providers = append(providers, notification.NewSMS(
			notification.SMSConfig{Phones: cfg.SecurityPhones},
			notification.NewHTTPGatewayClient(gateway)))
	}

	return bus.Subscribe(feed.Filter{
		Table: feed.TableAlerts,
		Types: []feed.EventType{feed.Insert},
	}, func(e feed.Event) {
		alert := e.Alert()
		if alert == nil || len(providers) == 0 {
			return
		}
		go func() {
			title := "PANIC ALERT"
			body := fmt.Sprintf("%s (%s) at %.4f,%.4f",
				alert.StudentName, alert.StudentID, alert.Latitude, alert.Longitude)
			if err := providers.Notify(context.Background(), title, body); err != nil {
				logger.Warn("alert notification failed",
					zap.Uint("alert_id", alert.ID), zap.Error(err))
			}
		}()
	})
}

// ensureAdminExists seeds the security-desk account from ADMIN_EMAIL /
// ADMIN_PASSWORD on first boot so the dashboard is never locked out.
func ensureAdminExists(db *gorm.DB) {
	email := util.GetEnv("ADMIN_EMAIL")
	password := util.GetEnv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	db.Model(&models.User{}).
		Where("email = ? AND user_type = ?", email, models.UserTypeAdmin).
		Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("could not hash admin password", zap.Error(err))
		return
	}
	if err := db.Create(&models.User{
		Email:        email,
		Name:         "Campus Security",
		UserType:     models.UserTypeAdmin,
		PasswordHash: string(hash),
	}).Error; err != nil {
		logger.Error("could not seed admin account", zap.Error(err))
		return
	}
	logger.Info("seeded admin account", zap.String("email", email))
}
