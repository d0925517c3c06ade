// Package app инициализирует все компоненты приложения.
// app.go - точка сборки: создаёт БД-пул, хранилище прогресса, репозитории,
// сервисы, обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/bot"
	"serotonyl.ru/manifest369/internal/bot/filters"
	"serotonyl.ru/manifest369/internal/config"
	"serotonyl.ru/manifest369/internal/db/postgres"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/admin"
	"serotonyl.ru/manifest369/internal/features/members"
	"serotonyl.ru/manifest369/internal/features/points"
	"serotonyl.ru/manifest369/internal/features/practice"
	"serotonyl.ru/manifest369/internal/features/streak"
	"serotonyl.ru/manifest369/internal/jobs"
	"serotonyl.ru/manifest369/internal/rules"
	"serotonyl.ru/manifest369/internal/store"
)

// redisKeyPrefix отделяет ключи бота от других данных в Redis.
const redisKeyPrefix = "manifest369:"

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler // nil, если напоминания выключены
	DB        *pgxpool.Pool
	Redis     *redis.Client // nil, если STORE_BACKEND != redis
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен - компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	a.DB = pool

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Хранилище прогресса и правила ===
	kv, err := a.newStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.WithFields(log.Fields{
		"file":      cfg.RulesFile,
		"actions":   len(rs.Actions),
		"max_level": rs.MaxLevel(),
	}).Info("Правила прогресса загружены")

	// === 3. Telegram Bot API ===
	api, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(log.StandardLogger()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	a.BotAPI = api
	if me, err := api.GetMe(ctx); err == nil {
		log.Infof("Авторизован как @%s", me.Username)
	} else {
		log.WithError(err).Warn("getMe не ответил, продолжаем")
	}
	sender := bot.NewSender(api)

	// === 4. Репозитории ===
	loc := cfg.Location()
	memberRepo := members.NewRepository(pool)
	practiceRepo := practice.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	pointsService := points.NewService(kv, points.NewEngine(rs, loc), cfg.StoreMaxRetries)
	streakService := streak.NewService(kv, streak.NewEngine(rs, loc), cfg.StoreMaxRetries)
	achievementService := achievements.NewService(kv, rs.Achievements,
		practice.NewStatsProvider(practiceRepo, pointsService, streakService), cfg.StoreMaxRetries)

	// Выключенные достижения - nil-интерфейс, сервисы их просто не проверяют
	var practiceChecker practice.AchievementChecker
	var adminChecker admin.AchievementChecker
	if cfg.FeatureAchievementsEnabled {
		practiceChecker = achievementService
		adminChecker = achievementService
	}

	schedule := practice.Schedule{
		MorningHour:   cfg.PracticeMorningHour,
		AfternoonHour: cfg.PracticeAfternoonHour,
		EveningHour:   cfg.PracticeEveningHour,
		Location:      loc,
	}
	memberService := members.NewService(memberRepo)
	practiceService := practice.NewService(practiceRepo, pointsService, streakService, practiceChecker, schedule)
	adminService := admin.NewService(adminRepo, pointsService, adminChecker, cfg)

	// === 6. Обработчики ===
	handlers := bot.Handlers{
		Members:      members.NewHandler(memberService, sender),
		Points:       points.NewHandler(pointsService, sender),
		Streak:       streak.NewHandler(streakService, sender),
		Achievements: achievements.NewHandler(achievementService, sender),
		Practice:     practice.NewHandler(practiceService, pointsService, sender),
		Admin:        admin.NewHandler(adminService, sender),
	}

	// === 7. Собираем бота ===
	a.Bot = bot.New(api, cfg, sender, memberService, handlers, filters.NewChatFilter(memberService))

	// === 8. Планировщик напоминаний ===
	if cfg.FeatureRemindersEnabled {
		a.Scheduler = jobs.NewScheduler(schedule, memberService, practiceService, sender)
	}

	return a, nil
}

// newStore выбирает бэкенд хранилища прогресса по STORE_BACKEND.
func (a *App) newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		a.Redis = rdb
		log.WithField("addr", cfg.RedisAddr).Info("Хранилище прогресса: Redis")
		return store.NewRedisStore(rdb, redisKeyPrefix), nil

	case config.StoreBackendMemory:
		log.Warn("Хранилище прогресса: память (данные пропадут при перезапуске)")
		return store.NewMemoryStore(), nil

	default:
		log.Info("Хранилище прогресса: PostgreSQL")
		return store.NewPostgresStore(a.DB), nil
	}
}

// Close освобождает соединения с базами.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
