// File: internal/application/chat_app.go
package application

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"rag-chat-client/internal/config"
	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/domain/ports/adapter"
	"rag-chat-client/internal/domain/ports/repository"
	"rag-chat-client/internal/infra/adapters/filewatcher"
	"rag-chat-client/internal/infra/adapters/qa"
	"rag-chat-client/internal/infra/adapters/terminal"
	"rag-chat-client/internal/infra/api"
	"rag-chat-client/internal/infra/i18n"
	"rag-chat-client/internal/infra/metrics"
	"rag-chat-client/internal/infra/scheduler"
	"rag-chat-client/internal/infra/storage"
	"rag-chat-client/internal/infra/view"
	"rag-chat-client/internal/infra/worker"
	"rag-chat-client/internal/usecase"

	"github.com/rs/zerolog"
)

// ChatApp composes the stores, the backend client and the terminal into one
// runnable client. Optional parts (drop folder, admin server, health probe)
// are nil when disabled in config.
type ChatApp struct {
	Store      *usecase.StateStore
	Controller *terminal.Controller

	cfg      *config.Config
	log      *zerolog.Logger
	kv       repository.KeyValueStore
	renderer *view.Renderer
	pool     *worker.Pool
	console  *terminal.Console
	watcher  *filewatcher.DropWatcher
	admin    *api.Server
	health   *scheduler.Scheduler
}

// NewChatApp builds every component from cfg. in and out are the terminal.
func NewChatApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zerolog.Logger) (*ChatApp, error) {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	defaults := model.APIConfig{Endpoint: cfg.API.Endpoint, APIKey: cfg.API.Key}
	sessions := usecase.NewConfigStore(kv, defaults, logger, cfg.Runtime.Dev)
	store, err := usecase.NewStateStore(ctx, sessions, logger)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("state: %w", err)
	}

	tr, err := i18n.Load(cfg.UI.Locale)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("i18n: %w", err)
	}

	banner := view.NewStatusBanner(cfg.UI.StatusTTL)
	renderer := view.NewRenderer(out, tr, banner, view.DetectOptions(out, cfg.UI.Color), logger)
	store.Subscribe(renderer.OnChange)
	banner.OnChange(func() { renderer.OnChange(store.State(), store.Config()) })

	qaClient := qa.NewHTTPClient(&http.Client{Timeout: cfg.API.Timeout}, logger)
	pool := worker.NewPool(1, logger)

	ctrl := terminal.NewController(terminal.Deps{
		Store:    store,
		Sessions: sessions,
		QA:       qaClient,
		Runner:   pool,
		Banner:   banner,
		Renderer: renderer,
		T:        tr,
		Out:      out,
		Logger:   logger,
		Dev:      cfg.Runtime.Dev,
	})

	app := &ChatApp{
		Store:      store,
		Controller: ctrl,
		cfg:        cfg,
		log:        logger,
		kv:         kv,
		renderer:   renderer,
		pool:       pool,
		console:    terminal.NewConsole(in, ctrl, logger),
	}

	if cfg.Watch.Dir != "" {
		app.watcher, err = filewatcher.NewDropWatcher(cfg.Watch.Dir, cfg.Watch.Extensions, ctrl, logger)
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("drop folder: %w", err)
		}
	}

	if cfg.Admin.Port > 0 {
		metrics.MustRegister()
		app.admin = api.NewServer(cfg.Admin.Port, store, nil, logger)
	}

	if cfg.API.HealthInterval > 0 {
		app.health = scheduler.NewScheduler(cfg.API.HealthInterval, backendProbe(qaClient, store), func(up bool) {
			endpoint := store.Config().Endpoint
			if up {
				banner.Show(tr.T("status_backend_up", endpoint), view.KindInfo)
				return
			}
			banner.Show(tr.T("status_health_offline", endpoint), view.KindWarning)
		}, logger)
	}
	return app, nil
}

// Run starts the background parts, draws the first frame and blocks on the
// console until the user quits, input ends or ctx is cancelled.
func (a *ChatApp) Run(ctx context.Context) error {
	a.pool.Start(ctx)
	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}
	if a.admin != nil {
		go func() {
			if err := a.admin.Start(); err != nil {
				a.log.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}
	if a.health != nil {
		a.health.Start(ctx)
	}

	a.renderer.OnChange(a.Store.State(), a.Store.Config())
	return a.console.Run(ctx)
}

// Close stops background work and releases the store. A request still in
// flight is allowed to finish.
func (a *ChatApp) Close() error {
	if a.health != nil {
		a.health.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.log.Warn().Err(err).Msg("stop watcher")
		}
	}
	a.pool.Stop()
	if a.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.admin.Shutdown(ctx); err != nil {
			a.log.Warn().Err(err).Msg("admin shutdown")
		}
	}
	return a.kv.Close()
}

func backendProbe(svc adapter.QAService, store *usecase.StateStore) scheduler.Prober {
	return scheduler.ProberFunc(func(ctx context.Context) (bool, error) {
		cfg := store.Config()
		hs, err := svc.Health(ctx, adapter.Target{
			Endpoint:  cfg.Endpoint,
			APIKey:    cfg.APIKey,
			SessionID: store.State().SessionID,
		})
		return hs.Online, err
	})
}
