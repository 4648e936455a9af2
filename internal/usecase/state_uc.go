package usecase

import (
	"context"
	"fmt"
	"sync"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/model"

	"github.com/rs/zerolog"
)

// Listener receives a snapshot of state and config after every mutation.
type Listener func(state model.AppState, cfg model.APIConfig)

// StateStore is the single observable source of truth for the client.
// Every mutator notifies all listeners synchronously, in subscription order,
// before it returns. Listeners run without the store lock held, so they may
// read the store, but they must not mutate it.
type StateStore struct {
	mu     sync.RWMutex
	state  *model.AppState
	config model.APIConfig

	lmu       sync.Mutex
	listeners []subscription
	nextID    int

	sessions ConfigStore
	log      *zerolog.Logger
}

type subscription struct {
	id int
	fn Listener
}

// NewStateStore restores config and session id from sessions. A fresh session
// id is generated when none was saved, and the id in use is saved back.
func NewStateStore(ctx context.Context, sessions ConfigStore, logger *zerolog.Logger) (*StateStore, error) {
	cfg, err := sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	id, err := sessions.LoadSessionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session id: %w", err)
	}
	st := model.NewAppState(id)
	if err := sessions.SaveSessionID(ctx, st.SessionID); err != nil {
		return nil, fmt.Errorf("save session id: %w", err)
	}

	l := logger.With().Str("component", "StateStore").Logger()
	l.Info().Str("session_id", st.SessionID).Bool("restored", id != "").Msg("session ready")
	return &StateStore{state: st, config: cfg, sessions: sessions, log: &l}, nil
}

// State returns a snapshot copy.
func (s *StateStore) State() model.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *StateStore) Config() model.APIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *StateStore) Document() *model.Document {
	return s.State().CurrentDocument
}

func (s *StateStore) Messages() []model.Message {
	return s.State().Messages
}

// SetConfig merges the non-empty fields of partial.
func (s *StateStore) SetConfig(partial model.APIConfig) {
	s.mutate(func(st *model.AppState, cfg *model.APIConfig) {
		*cfg = cfg.Merge(partial)
	})
}

// SetDocument replaces the current document; nil clears it.
func (s *StateStore) SetDocument(doc *model.Document) {
	if doc != nil {
		cp := *doc
		doc = &cp
	}
	s.mutate(func(st *model.AppState, _ *model.APIConfig) {
		st.SetDocument(doc)
	})
}

func (s *StateStore) SetLoading(loading bool) {
	s.mutate(func(st *model.AppState, _ *model.APIConfig) {
		st.IsLoading = loading
	})
}

// AddMessage appends a new message and returns it. Unknown senders are
// rejected without touching the store.
func (s *StateStore) AddMessage(text string, sender model.Sender) (model.Message, error) {
	if !sender.Valid() {
		return model.Message{}, fmt.Errorf("sender %q: %w", sender, domain.ErrInvalidArgument)
	}
	msg := model.NewMessage(text, sender)
	s.mutate(func(st *model.AppState, _ *model.APIConfig) {
		st.Messages = append(st.Messages, msg)
	})
	return msg, nil
}

func (s *StateStore) ClearMessages() {
	s.mutate(func(st *model.AppState, _ *model.APIConfig) {
		st.Messages = make([]model.Message, 0, 16)
	})
}

// NewSession switches to a fresh session id and drops document and messages.
// The abandoned id is removed from storage first, so a failed save leaves no
// session to restore. Listeners are notified even when persisting fails; the
// error is returned so the caller can report it.
func (s *StateStore) NewSession(ctx context.Context) (string, error) {
	var id string
	s.mutate(func(st *model.AppState, _ *model.APIConfig) {
		id = model.NewSessionID()
		for id == st.SessionID {
			id = model.NewSessionID()
		}
		st.Reset(id)
	})
	s.log.Info().Str("session_id", id).Msg("new session")
	if err := s.sessions.ClearSession(ctx); err != nil {
		return id, fmt.Errorf("clear session id: %w", err)
	}
	if err := s.sessions.SaveSessionID(ctx, id); err != nil {
		return id, fmt.Errorf("save session id: %w", err)
	}
	return id, nil
}

// Subscribe registers fn and returns a func that removes it again.
func (s *StateStore) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *StateStore) mutate(fn func(st *model.AppState, cfg *model.APIConfig)) {
	s.mu.Lock()
	fn(s.state, &s.config)
	s.state.Version++
	snap, cfg := s.state.Clone(), s.config
	s.mu.Unlock()
	s.notify(snap, cfg)
}

// notify hands every listener its own copy of the snapshot.
func (s *StateStore) notify(snap model.AppState, cfg model.APIConfig) {
	s.lmu.Lock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.lmu.Unlock()

	for _, sub := range subs {
		sub.fn(snap.Clone(), cfg)
	}
}
