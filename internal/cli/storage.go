package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/config"
	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/infra/memory"
	pgloader "teacher-assistant-bot/internal/infra/postgres"
	redisinfra "teacher-assistant-bot/internal/infra/redis"
	"teacher-assistant-bot/internal/infra/sqlstore"
	"teacher-assistant-bot/internal/infra/sqlstore/migrations"
)

// recordStore is what every storage driver provides.
type recordStore interface {
	app.UserStore
	app.AttendanceStore
	app.ResultStore
	app.AskStore
	memory.QuestionLoader
	SeedQuestions(ctx context.Context, questions []domain.QuizQuestion) (bool, error)
}

// questionCache is a question repository whose cached set can be dropped.
type questionCache interface {
	app.QuestionRepository
	Invalidate(ctx context.Context) error
}

// backends holds the wired storage for one process.
type backends struct {
	records   recordStore
	questions app.QuestionRepository
	sessions  app.SessionRepository
	locks     app.Locker
	closers   []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}
	var (
		loader memory.QuestionLoader
		cache  questionCache
	)

	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		b.records, loader = store, store
	default:
		db, err := sqlstore.Open(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		applied, err := migrations.Apply(ctx, db)
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info().Strs("migrations", applied).Str("driver", cfg.Storage.Driver).Msg("migrations_applied")
		store := sqlstore.NewStore(db)
		b.records, loader = store, store

		if cfg.Storage.Driver == sqlstore.DriverPostgres {
			pool, err := pgxpool.Connect(ctx, cfg.Storage.DSN)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("connect pgx: %w", err)
			}
			b.closers = append(b.closers, pool.Close)
			loader = pgloader.NewQuestionLoader(pool)
		}
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	lockTTL := config.TTLDuration(cfg.Quiz.LockTTL, 10*time.Second)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.sessions = redisinfra.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
		b.locks = redisinfra.NewLocker(client, lockTTL)
		repo := redisinfra.NewQuestionRepository(client, loader, cacheTTL)
		b.questions, cache = repo, repo
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis_enabled")
	} else {
		b.sessions = memory.NewSessionStore()
		b.locks = memory.NewLocker()
		repo := memory.NewQuestionRepository(loader, cacheTTL)
		b.questions, cache = repo, repo
	}

	seeded, err := b.records.SeedQuestions(ctx, sampleQuestions())
	if err != nil {
		b.Close()
		return nil, err
	}
	if seeded {
		// a shared cache may still hold the set of a previous database
		if err := cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("question_cache_invalidate_failed")
		}
		log.Info().Int("count", len(sampleQuestions())).Msg("questions_seeded")
	}
	return b, nil
}

// sampleQuestions is the starter set written when the question table is empty.
func sampleQuestions() []domain.QuizQuestion {
	return []domain.QuizQuestion{
		{
			Prompt:       "Maktabda darslar necha soatdan boshlanadi?",
			Options:      []string{"8:00", "9:00", "10:00", "11:00"},
			CorrectIndex: 0,
		},
		{
			Prompt:       "Ta'lim metodikasi nima uchun muhim?",
			Options:      []string{"O'quvchilarni anglash uchun", "Faoliyat uchun", "Baholar uchun", "Hamma uchun"},
			CorrectIndex: 0,
		},
		{
			Prompt:       "5E modeli qaysi bosqichni o'z ichiga olmaydi?",
			Options:      []string{"Engage", "Explore", "Explain", "Evaluate"},
			CorrectIndex: 3,
		},
	}
}
