package adapter

import (
	"context"
	"io"

	"rag-chat-client/internal/domain/model"
)

// Target carries everything a single backend call needs. The store is the
// source of truth, so callers build a fresh Target per request.
type Target struct {
	Endpoint  string
	APIKey    string
	SessionID string
}

// Upload is a file handed to the backend.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// QAService is the port for the document question-answering backend.
type QAService interface {
	// Health reports whether the backend answers. Transport failures are reported
	// as Online=false, not as an error.
	Health(ctx context.Context, t Target) (model.HealthStatus, error)

	// Upload sends a document to be indexed for t.SessionID.
	Upload(ctx context.Context, t Target, file Upload) (*model.UploadResult, error)

	// Ask sends a question about the session's document.
	Ask(ctx context.Context, t Target, question string) (*model.AskResult, error)
}
