// Package app wires configuration, infrastructure and the bot handlers
// into a runnable Telegram application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/m3rciful/stockbot/core/bootstrap"
	"github.com/m3rciful/stockbot/core/logger"
	coretelegram "github.com/m3rciful/stockbot/core/telegram"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/core/telegram/router"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/internal/bot"
	"github.com/m3rciful/stockbot/internal/config"
	"github.com/m3rciful/stockbot/internal/flow"
	"github.com/m3rciful/stockbot/internal/httpserver"
	"github.com/m3rciful/stockbot/internal/product"

	tele "gopkg.in/telebot.v4"
)

// sweepSpec is how often idle conversations are collected.
const sweepSpec = "@every 1m"

// App holds the long-lived components of the bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	products *product.Service
	images   *bot.ImageResolver
	handlers *bot.Handlers
	health   *httpserver.Server

	sched *cron.Cron
}

// Bootstrap initialises logging, the database and migrations, then builds the app.
func Bootstrap(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB), nil
}

// New builds the app over an open database.
func New(cfg *config.Config, db *sqlx.DB) *App {
	products := product.NewService(product.NewPGRepository(db))
	images := bot.NewImageResolver()
	formatter := flow.Formatter{Currency: cfg.Catalog.Currency}
	ttl := time.Duration(cfg.Telegram.SessionTTLMinutes) * time.Minute

	a := &App{
		cfg:      cfg,
		db:       db,
		products: products,
		images:   images,
		handlers: bot.New(bot.Deps{
			Wizard:    flow.NewWizard(products, images, formatter),
			Browser:   flow.NewBrowser(products, formatter, cfg.Catalog.PageSize),
			Formatter: formatter,
			Sessions:  state.NewStore[*flow.Session](ttl),
		}),
	}
	if cfg.Server.Enabled {
		a.health = httpserver.New(cfg.Server.Listen, products)
	}
	return a
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := coretelegram.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: bot.AdminRejected,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes([]router.Conversation{a.handlers}, reg, router.MessageOptions{})...)
	routes = append(routes, a.handlers.Routes()...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, rateLimited),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func rateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Slow down a little 🙂"})
	}
	return tghelpers.SendText(c, "⏳ Too many requests, please wait a moment.")
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot != nil {
		a.images.Bind(rt.Bot)
	}

	sweepCtx := context.WithoutCancel(ctx)
	a.sched = cron.New()
	if _, err := a.sched.AddFunc(sweepSpec, func() { a.sweep(sweepCtx) }); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	a.sched.Start()

	if a.health != nil {
		a.health.Start(ctx)
	}
	return nil
}

func (a *App) sweep(ctx context.Context) {
	if n := a.handlers.Sessions().Sweep(); n > 0 {
		logger.Debug(ctx, "app", "sessions.expired", slog.Int("count", n))
	}
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	var firstErr error
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "app", "http.shutdown.fail", slog.String("err", err.Error()))
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close db: %w", err)
		}
	}
	return firstErr
}
