package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"digitrack/pkg/accounts"
	"digitrack/pkg/api"
	"digitrack/pkg/auth"
	"digitrack/pkg/booking"
	"digitrack/pkg/cache"
	"digitrack/pkg/config"
	"digitrack/pkg/database"
	"digitrack/pkg/loginguard"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info().Msg("Starting digitrack service...")

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx := context.Background()
	store, err := attemptStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up login attempt store")
	}

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err := newServer(cfg, db, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build HTTP server")
	}

	log.Info().Str("port", cfg.Port).Msg("digitrack service listening")
	if err := server.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// newLogger builds the process logger. format "console" gives human
// readable output, anything else JSON lines.
func newLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// attemptStore shares login counters through Redis when REDIS_ADDR is set
// and keeps them in process otherwise.
func attemptStore(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (loginguard.AttemptStore, error) {
	if cfg.Addr == "" {
		c := cache.New()
		go sweep(c, time.Minute, log)
		log.Info().Msg("login attempts kept in memory")
		return loginguard.NewMemoryStore(c), nil
	}
	client, err := loginguard.DialRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.Addr).Msg("login attempts kept in redis")
	return loginguard.NewRedisStore(client), nil
}

func sweep(c *cache.Cache, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		if n := c.Sweep(); n > 0 {
			log.Debug().Int("expired", n).Msg("login attempt cache swept")
		}
	}
}

func newServer(cfg *config.Config, db *gorm.DB, store loginguard.AttemptStore, log zerolog.Logger) (*api.Server, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	bookings := booking.NewService(booking.NewGormRepository(db), log).WithMinYear(cfg.Stats.MinYear)
	accts := accounts.NewService(db, bookings, log)

	enforcer, err := auth.NewEnforcer()
	if err != nil {
		return nil, err
	}

	return api.NewServer(api.Deps{
		Bookings: bookings,
		Accounts: accts,
		Guard:    loginguard.New(store, cfg.Login.MaxFailures, cfg.Login.Lockout, log),
		Sessions: auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL),
		Enforcer: enforcer,
		Log:      log,
		Options: api.Options{
			LoginRequestsPerSecond: cfg.Login.RequestsPerSecond,
			StatsYearRange:         cfg.Stats.YearRange,
			SecureCookies:          cfg.Session.Secure,
		},
	})
}
