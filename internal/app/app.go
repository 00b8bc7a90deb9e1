// Package app wires the database pool, the bot and the web server together.
package app

import (
	"context"
	"errors"
	"fmt"

	"winterbot/auth"
	"winterbot/internal/bot"
	"winterbot/internal/config"
	"winterbot/internal/db"
	"winterbot/internal/extensions/misc"
	"winterbot/internal/redis"
	"winterbot/internal/scheduler"
	"winterbot/internal/web"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// errStopped ends the run group once either the bot or the web server returns.
var errStopped = errors.New("component stopped")

type App struct {
	cfg    *config.Config
	logger *log.Logger

	db      *db.DB
	redis   *goredis.Client
	auth    *auth.AuthModule
	sched   *scheduler.Scheduler
	session *discordgo.Session
	bot     *bot.Bot
	web     *web.WebServer
}

// New connects to the database, applies migrations and builds the bot and
// web server. Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.NewDB(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a := &App{cfg: cfg, logger: logger, db: database}

	if err := db.Migrate(ctx, database, logger); err != nil {
		a.Close()
		return nil, err
	}

	var limiter bot.Limiter
	if cfg.RedisAddr != "" {
		a.redis = redis.NewRedisClient(cfg.RedisAddr)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		limiter = redis.NewCooldown(a.redis, cfg.Cooldown)
	} else {
		logger.Warn("REDIS_ADDR not set, command cooldowns disabled")
	}

	if cfg.JWTSecret != "" {
		a.auth = auth.NewAuthModule(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET not set, API writes are unauthenticated")
	}

	a.session, err = discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	// The web server resolves the bot lazily per request, so it can exist first.
	a.web = web.NewWebServer(a, cfg.HTTPAddr, logger)
	a.bot = bot.New(a.session, database, bot.Options{
		ClientID: cfg.ClientID,
		Prefix:   cfg.CommandPrefix,
		Owners:   cfg.OwnerIDs,
		Limiter:  limiter,
		Logger:   logger,
		Router:   a.web.Router(),
	})
	a.bot.LoadExtensions(misc.Extension{})

	a.sched = scheduler.NewScheduler(logger)
	if cfg.PoolStatsSchedule != "" {
		dbLogger := logger.WithPrefix("DB")
		if err := a.sched.AddOrUpdateJob("pool-stats", cfg.PoolStatsSchedule, func() {
			database.LogStats(dbLogger)
		}); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *App) Bot() *bot.Bot { return a.bot }

func (a *App) Auth() *auth.AuthModule { return a.auth }

// Run serves the bot and the REST API until ctx is done or either of them stops.
func (a *App) Run(ctx context.Context) error {
	a.sched.Start()
	defer a.sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.bot.Run(gctx, a.session); err != nil {
			return err
		}
		return errStopped
	})
	g.Go(func() error {
		if err := a.web.Start(gctx); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return errStopped
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) {
		return err
	}
	return nil
}

// Close releases the pool and the redis client.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "err", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
