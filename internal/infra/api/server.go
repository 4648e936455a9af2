package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rag-chat-client/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StateSource is the read side of the state store.
type StateSource interface {
	State() model.AppState
	Config() model.APIConfig
}

// Server is the optional local admin endpoint: metrics, liveness and a
// read-only view of the chat session.
type Server struct {
	state    StateSource
	gatherer prometheus.Gatherer
	log      *zerolog.Logger
	server   *http.Server
}

// NewServer listens on 127.0.0.1:port once started. It uses the default
// prometheus registry when gatherer is nil.
func NewServer(port int, state StateSource, gatherer prometheus.Gatherer, logger *zerolog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	l := logger.With().Str("component", "AdminServer").Logger()
	s := &Server{state: state, gatherer: gatherer, log: &l}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), TraceID(), RequestLog(s.log), Timeout(10*time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/messages", s.handleMessages)
	})
	return r
}

// Start blocks serving until Shutdown. After Shutdown it returns nil at once.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("admin server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown may run before Start; the server then never accepts connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type sessionView struct {
	SessionID   string          `json:"session_id"`
	Endpoint    string          `json:"endpoint"`
	APIKeySet   bool            `json:"api_key_set"`
	IsLoading   bool            `json:"is_loading"`
	HasDocument bool            `json:"has_document"`
	Document    *model.Document `json:"document,omitempty"`
	Messages    int             `json:"messages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	st, cfg := s.state.State(), s.state.Config()
	writeJSON(w, http.StatusOK, sessionView{
		SessionID:   st.SessionID,
		Endpoint:    cfg.Endpoint,
		APIKeySet:   cfg.APIKey != "",
		IsLoading:   st.IsLoading,
		HasDocument: st.HasDocument,
		Document:    st.CurrentDocument,
		Messages:    len(st.Messages),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.state.State().Messages})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
