package model

import "github.com/google/uuid"

// APIConfig is the user-editable connection settings.
type APIConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// Merge returns c with every non-empty field of p applied.
func (c APIConfig) Merge(p APIConfig) APIConfig {
	if p.Endpoint != "" {
		c.Endpoint = p.Endpoint
	}
	if p.APIKey != "" {
		c.APIKey = p.APIKey
	}
	return c
}

// AppState is the observable client state. HasDocument mirrors CurrentDocument != nil.
type AppState struct {
	SessionID       string
	CurrentDocument *Document
	IsLoading       bool
	Messages        []Message
	HasDocument     bool
	// Version grows with every mutation; a larger version is a newer snapshot.
	Version uint64
}

func NewAppState(sessionID string) *AppState {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &AppState{
		SessionID: sessionID,
		Messages:  make([]Message, 0, 16),
	}
}

// Clone returns a deep copy so listeners can't reach into the store.
func (s *AppState) Clone() AppState {
	cp := *s
	if s.CurrentDocument != nil {
		d := *s.CurrentDocument
		cp.CurrentDocument = &d
	}
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return cp
}

func (s *AppState) SetDocument(doc *Document) {
	s.CurrentDocument = doc
	s.HasDocument = doc != nil
}

func (s *AppState) Reset(sessionID string) {
	s.SessionID = sessionID
	s.SetDocument(nil)
	s.Messages = make([]Message, 0, 16)
}

func NewSessionID() string { return uuid.NewString() }
