// File: internal/infra/adapters/terminal/controller.go
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/domain/ports/adapter"
	"rag-chat-client/internal/infra/i18n"
	"rag-chat-client/internal/infra/logging"
	"rag-chat-client/internal/infra/metrics"
	"rag-chat-client/internal/infra/view"
	"rag-chat-client/internal/infra/worker"
	"rag-chat-client/internal/usecase"

	"github.com/rs/zerolog"
)

// ErrQuit is returned by Handle when the user asked to leave.
var ErrQuit = errors.New("quit")

// Runner executes network actions off the input loop.
type Runner interface {
	Submit(task worker.Task) error
}

type commandHandler func(ctx context.Context, args string) error

// Controller turns input lines into store mutations and backend calls.
// Precondition failures are shown as status banners and never reach the backend.
type Controller struct {
	store    *usecase.StateStore
	sessions usecase.ConfigStore
	qa       adapter.QAService
	runner   Runner
	banner   *view.StatusBanner
	renderer *view.Renderer
	tr       *i18n.Translator
	out      io.Writer
	log      *zerolog.Logger
	dev      bool

	// guards the loading check-and-set shared by the console and the drop watcher
	mu             sync.Mutex
	confirmPending bool
	routes         map[string]commandHandler
}

type Deps struct {
	Store    *usecase.StateStore
	Sessions usecase.ConfigStore
	QA       adapter.QAService
	Runner   Runner
	Banner   *view.StatusBanner
	Renderer *view.Renderer
	T        *i18n.Translator
	Out      io.Writer
	Logger   *zerolog.Logger
	Dev      bool
}

func NewController(d Deps) *Controller {
	l := d.Logger.With().Str("component", "Controller").Logger()
	c := &Controller{
		store:    d.Store,
		sessions: d.Sessions,
		qa:       d.QA,
		runner:   d.Runner,
		banner:   d.Banner,
		renderer: d.Renderer,
		tr:       d.T,
		out:      d.Out,
		log:      &l,
		dev:      d.Dev,
	}
	c.routes = c.commandRoutes()
	return c
}

func (c *Controller) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"upload":   c.Upload,
		"ask":      c.Ask,
		"clear":    c.handleClear,
		"new":      c.handleNew,
		"endpoint": c.handleEndpoint,
		"key":      c.handleKey,
		"settings": c.handleSettings,
		"health":   c.Health,
		"help":     c.handleHelp,
		"quit":     c.handleQuit,
		"exit":     c.handleQuit,
	}
}

// Handle processes one input line. Only ErrQuit is returned; every other
// failure has already been reported on screen.
func (c *Controller) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)

	// A pending confirmation consumes a yes or a plain answer. Slash-commands
	// decline it and are routed as usual.
	if c.takeConfirm() {
		if isYes(line) {
			return c.newSession(ctx)
		}
		if !strings.HasPrefix(line, "/") {
			return nil
		}
	}

	command, args := "ask", line
	if strings.HasPrefix(line, "/") {
		command, args, _ = strings.Cut(strings.TrimPrefix(line, "/"), " ")
		command = strings.ToLower(command)
		args = strings.TrimSpace(args)
	}

	handler, ok := c.routes[command]
	if !ok {
		metrics.IncCommand("unknown")
		c.status(view.KindWarning, c.tr.T("status_unknown_command", "/"+command))
		return nil
	}
	metrics.IncCommand(command)

	ctx = logging.WithAction(logging.WithSessID(ctx, c.store.State().SessionID), command)
	err := handler(ctx, args)
	if errors.Is(err, ErrQuit) {
		return err
	}
	if err != nil {
		logging.With(ctx, c.log).Debug().Err(err).Msg("action rejected")
	}
	return nil
}

// Upload sends the file at path to the backend. On success the document
// replaces the current one and the conversation is cleared.
func (c *Controller) Upload(ctx context.Context, path string) error {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	if path == "" {
		c.status(view.KindError, c.tr.T("status_usage", "/upload <path>"))
		return domain.ErrInvalidArgument
	}
	if c.store.Config().APIKey == "" {
		c.status(view.KindError, c.tr.T("status_api_key_missing"))
		return domain.ErrAPIKeyMissing
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.status(view.KindError, c.tr.T("status_file_missing", path))
		return fmt.Errorf("stat %q: %w", path, domain.ErrInvalidArgument)
	}
	if !c.begin() {
		c.status(view.KindWarning, c.tr.T("status_busy"))
		return domain.ErrBusy
	}

	target := c.target()
	name, size := info.Name(), info.Size()
	return c.submit(func(ctx context.Context) error {
		defer c.store.SetLoading(false)

		f, err := os.Open(path)
		if err != nil {
			c.status(view.KindError, c.tr.T("status_upload_failed", err.Error()))
			return err
		}
		defer f.Close()

		res, err := c.qa.Upload(ctx, target, adapter.Upload{Name: name, Size: size, Body: f})
		if err != nil {
			c.status(view.KindError, c.tr.T("status_upload_failed", err.Error()))
			return err
		}
		c.store.SetDocument(&model.Document{
			Name:       name,
			Size:       size,
			UploadedAt: time.Now(),
			Chunks:     res.TotalChunks,
		})
		c.status(view.KindSuccess, c.tr.T("status_upload_ok", res.TotalChunks))
		c.store.ClearMessages()
		return nil
	}, true)
}

// UploadDropped is Upload for files that arrive through the drop folder.
func (c *Controller) UploadDropped(ctx context.Context, path string) error {
	metrics.IncCommand("drop")
	ctx = logging.WithAction(logging.WithSessID(ctx, c.store.State().SessionID), "drop")
	c.status(view.KindInfo, c.tr.T("status_file_dropped", filepath.Base(path)))
	return c.Upload(ctx, path)
}

// Ask sends question about the current document. It does nothing while
// another request is in flight.
func (c *Controller) Ask(ctx context.Context, question string) error {
	if c.store.State().IsLoading {
		return domain.ErrBusy
	}
	question = strings.TrimSpace(question)
	if question == "" {
		c.status(view.KindError, c.tr.T("status_question_empty"))
		return domain.ErrEmptyQuestion
	}
	if !c.store.State().HasDocument {
		c.status(view.KindError, c.tr.T("status_no_document"))
		return domain.ErrNoDocument
	}
	if c.store.Config().APIKey == "" {
		c.status(view.KindError, c.tr.T("status_api_key_missing"))
		return domain.ErrAPIKeyMissing
	}
	if !c.begin() {
		return domain.ErrBusy
	}

	c.store.AddMessage(question, model.SenderUser)
	target := c.target()
	return c.submit(func(ctx context.Context) error {
		defer c.store.SetLoading(false)

		res, err := c.qa.Ask(ctx, target, question)
		if err != nil {
			c.status(view.KindError, c.tr.T("status_error", err.Error()))
			return err
		}
		if strings.TrimSpace(res.Answer) == "" {
			c.status(view.KindError, c.tr.T("status_invalid_response"))
			return domain.ErrInvalidResponse
		}
		c.store.AddMessage(res.Answer, model.SenderAssistant)
		return nil
	}, true)
}

// Health probes the backend and reports the result as a status.
func (c *Controller) Health(ctx context.Context, _ string) error {
	target := c.target()
	return c.submit(func(ctx context.Context) error {
		hs, err := c.qa.Health(ctx, target)
		if err != nil {
			c.status(view.KindError, c.tr.T("status_error", err.Error()))
			return err
		}
		if !hs.Online {
			c.status(view.KindWarning, c.tr.T("status_health_offline", target.Endpoint))
			return nil
		}
		c.status(view.KindInfo, c.tr.T("status_health_online", hs.Status, hs.SessionsActive))
		return nil
	}, false)
}

func (c *Controller) handleClear(ctx context.Context, _ string) error {
	if c.store.State().IsLoading {
		return domain.ErrBusy
	}
	c.banner.Dismiss()
	c.store.ClearMessages()
	return nil
}

func (c *Controller) handleNew(ctx context.Context, args string) error {
	if args == "-y" || args == "--yes" {
		return c.newSession(ctx)
	}
	c.mu.Lock()
	c.confirmPending = true
	c.mu.Unlock()
	c.print(c.tr.T("confirm_new_session") + "\n" + c.tr.T("prompt"))
	return nil
}

func (c *Controller) newSession(ctx context.Context) error {
	id, err := c.store.NewSession(ctx)
	metrics.IncSessionStarted()
	if err != nil {
		// the new session is live in memory, only persisting it failed
		c.log.Error().Err(err).Str("session_id", id).Msg("failed to persist session id")
		c.status(view.KindWarning, c.tr.T("status_error", err.Error()))
		return err
	}
	c.status(view.KindSuccess, c.tr.T("status_session_created"))
	return nil
}

func (c *Controller) handleEndpoint(ctx context.Context, args string) error {
	endpoint := strings.TrimRight(args, "/")
	u, err := url.Parse(endpoint)
	if endpoint == "" || err != nil || u.Scheme == "" || u.Host == "" {
		c.status(view.KindError, c.tr.T("status_usage", "/endpoint http://host:port"))
		return domain.ErrInvalidArgument
	}
	return c.saveConfig(ctx, model.APIConfig{Endpoint: endpoint}, "status_endpoint_updated")
}

func (c *Controller) handleKey(ctx context.Context, args string) error {
	if args == "" {
		c.status(view.KindError, c.tr.T("status_usage", "/key <api key>"))
		return domain.ErrInvalidArgument
	}
	return c.saveConfig(ctx, model.APIConfig{APIKey: args}, "status_key_updated")
}

func (c *Controller) saveConfig(ctx context.Context, partial model.APIConfig, okKey string) error {
	c.store.SetConfig(partial)
	if err := c.sessions.Save(ctx, partial); err != nil {
		c.status(view.KindError, c.tr.T("status_error", err.Error()))
		return fmt.Errorf("save config: %w", err)
	}
	cfg := c.store.Config()
	c.log.Info().
		Str("endpoint", cfg.Endpoint).
		Str("api_key", logging.Redact(cfg.APIKey, c.dev)).
		Msg("config updated")
	c.status(view.KindSuccess, c.tr.T(okKey))
	return nil
}

func (c *Controller) handleSettings(ctx context.Context, _ string) error {
	c.print(c.renderer.Settings(c.store.State(), c.store.Config()))
	return nil
}

func (c *Controller) handleHelp(ctx context.Context, _ string) error {
	c.print(c.tr.T("help"))
	return nil
}

func (c *Controller) handleQuit(ctx context.Context, _ string) error {
	return ErrQuit
}

// begin flips the store into loading unless a request is already running.
func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.State().IsLoading {
		return false
	}
	c.store.SetLoading(true)
	return true
}

// submit hands task to the runner. When the runner refuses it, a loading
// flag set by the caller is reset here since the task's own cleanup never runs.
func (c *Controller) submit(task worker.Task, loading bool) error {
	if err := c.runner.Submit(task); err != nil {
		if loading {
			c.store.SetLoading(false)
		}
		c.status(view.KindError, c.tr.T("status_error", err.Error()))
		return err
	}
	return nil
}

func (c *Controller) target() adapter.Target {
	cfg := c.store.Config()
	return adapter.Target{
		Endpoint:  cfg.Endpoint,
		APIKey:    cfg.APIKey,
		SessionID: c.store.State().SessionID,
	}
}

func (c *Controller) takeConfirm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.confirmPending
	c.confirmPending = false
	return p
}

// Status returns the banner currently on screen.
func (c *Controller) Status() (view.Status, bool) {
	return c.banner.Current()
}

func (c *Controller) status(kind view.Kind, text string) {
	c.banner.Show(text, kind)
}

func (c *Controller) print(s string) {
	if c.out == nil {
		return
	}
	if !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
		s += "\n"
	}
	_, _ = io.WriteString(c.out, s)
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
