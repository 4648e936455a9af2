package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one turn of the conversation. It is never modified after creation.
type Message struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	Time   time.Time `json:"time"`
}

// NewMessage stamps a message with a ULID so ids sort by creation time.
func NewMessage(text string, sender Sender) Message {
	now := time.Now()
	return Message{
		ID:     ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Text:   text,
		Sender: sender,
		Time:   now,
	}
}
