// Package bot assembles the funnel application: storage, settings, funnel
// evaluator, screen renderer, Telegram handlers, and the HTTP surface.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"funnelbot/core/bootstrap"
	"funnelbot/core/logger"
	coretelegram "funnelbot/core/telegram"
	"funnelbot/core/telegram/router"
	"funnelbot/core/telegram/state"
	"funnelbot/internal/admin"
	"funnelbot/internal/funnel"
	"funnelbot/internal/messenger"
	"funnelbot/internal/postback"
	"funnelbot/internal/screen"
	"funnelbot/internal/settings"
	"funnelbot/internal/storage"
	"funnelbot/internal/token"
)

// App is the assembled funnel application.
type App struct {
	cfg *Config
	db  *sqlx.DB

	users     *storage.Users
	kv        *storage.Config
	overrides *storage.Overrides
	settings  *settings.Service
	signer    *token.Signer
	fsm       state.Manager

	// wired in OnStart once the Telegram bot exists
	msgr      *messenger.Bot
	renderer  *screen.Renderer
	evaluator *funnel.Evaluator
	admin     *admin.Panel
	httpStop  context.CancelFunc
	httpDone  chan error
}

// Bootstrap initializes infrastructure and builds the application.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	users, err := storage.NewUsers(res.DB)
	if err != nil {
		return nil, err
	}
	kv := storage.NewConfig(res.DB)

	app := &App{
		cfg:       cfg,
		db:        res.DB,
		users:     users,
		kv:        kv,
		overrides: storage.NewOverrides(res.DB),
		fsm:       state.NewMemoryManager(),
	}
	app.settings = settings.New(kv, settings.Defaults{
		PostbackSecret:    cfg.Funnel.PostbackSecret,
		ChannelID:         cfg.Funnel.ChannelID,
		ChannelURL:        cfg.Funnel.ChannelURL,
		SupportURL:        cfg.Funnel.SupportURL,
		PublicBase:        cfg.HTTP.PublicBase,
		RefRegA:           cfg.Funnel.RefRegA,
		RefRegB:           cfg.Funnel.RefRegB,
		RefDepA:           cfg.Funnel.RefDepA,
		RefDepB:           cfg.Funnel.RefDepB,
		PlatinumThreshold: cfg.Funnel.PlatinumThreshold,
		FirstDepositMin:   cfg.Funnel.FirstDepositMin,
	})
	app.signer = token.NewSigner(app.settings)
	app.admin = admin.NewPanel(
		app.users, app.kv, app.overrides, app.settings, app.fsm,
		cfg.Funnel.AdminIDs, cfg.Funnel.AssetsDir,
		time.Duration(cfg.Funnel.BroadcastDelayMS)*time.Millisecond,
	)

	ctx := context.Background()
	if err := bootstrap.RunSeeders(ctx, res.DB, []bootstrap.Seeder{seedDefaults(app.settings)}); err != nil {
		return nil, err
	}

	return app, nil
}

// seedDefaults writes the gate toggles into the KV store on first run so the
// admin panel reflects them without special-casing missing keys.
func seedDefaults(svc *settings.Service) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, _ *sqlx.DB) error {
		for _, key := range []string{
			settings.KeyCheckSubscription,
			settings.KeyCheckRegistration,
			settings.KeyCheckDeposit,
		} {
			v, err := svc.Get(ctx, key, "")
			if err != nil {
				return err
			}
			if v == "" {
				if err := svc.SetBool(ctx, key, true); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TelegramRunOptions wires handlers, routers, and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerHandlers(reg)

	routes := []coretelegram.Route{
		router.CallbackRoute(reg, router.CallbackOptions{}),
	}
	routes = append(routes, router.TextRoutes(a.fsm, reg, router.TextOptions{
		UnknownText: a.handleStart,
	})...)
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs: a.cfg.Funnel.AdminIDs,
	})...)
	routes = append(routes, coretelegram.Route{
		Endpoint: tele.OnPhoto,
		Handler:  a.handlePhoto,
	})

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// onStart finishes the wiring that needs the live bot instance, then brings
// up the HTTP surface.
func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.msgr = messenger.New(rt.Bot)
	a.renderer = screen.NewRenderer(a.users, a.overrides, a.msgr, a.cfg.Funnel.AssetsDir)
	a.evaluator = funnel.NewEvaluator(a.users, a.renderer, a.msgr, a.settings, a.signer, funnel.MiniApps{
		Standard: a.cfg.Funnel.MiniAppURL,
		VIP:      a.cfg.Funnel.VIPMiniAppURL,
		Support:  a.cfg.Funnel.SupportURL,
	})
	a.admin.Attach(rt.Bot)

	handler := postback.NewHandler(a.users, a.settings, a.signer, a.evaluator)
	server := postback.NewServer(a.cfg.HTTP.Listen, handler)

	httpCtx, cancel := context.WithCancel(context.Background())
	a.httpStop = cancel
	a.httpDone = make(chan error, 1)
	go func() {
		a.httpDone <- server.Start(httpCtx)
	}()

	logger.L.With("component", "app").Info("funnel ready",
		slog.String("event", "funnel.ready"),
		slog.String("http_listen", a.cfg.HTTP.Listen),
		slog.Int("admins", len(a.cfg.Funnel.AdminIDs)),
	)
	return nil
}

// onStop drains the HTTP server and closes the pool.
func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	var firstErr error
	if a.httpStop != nil {
		a.httpStop()
		if err := <-a.httpDone; err != nil {
			firstErr = fmt.Errorf("http shutdown: %w", err)
		}
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("db close: %w", err)
	}
	return firstErr
}
