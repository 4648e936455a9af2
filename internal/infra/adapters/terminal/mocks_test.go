package terminal

import (
	"context"
	"io"
	"sync"

	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/domain/ports/adapter"
	"rag-chat-client/internal/infra/worker"
)

var _ adapter.QAService = (*fakeQA)(nil)

// fakeQA records calls and returns canned replies.
type fakeQA struct {
	mu          sync.Mutex
	uploadCalls int
	askCalls    int
	healthCalls int
	lastTarget  adapter.Target
	lastBody    string
	lastAsk     string

	upload    *model.UploadResult
	uploadErr error
	answer    string
	askErr    error
	health    model.HealthStatus
}

func (f *fakeQA) Health(ctx context.Context, t adapter.Target) (model.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthCalls++
	f.lastTarget = t
	return f.health, nil
}

func (f *fakeQA) Upload(ctx context.Context, t adapter.Target, file adapter.Upload) (*model.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	f.lastTarget = t
	b, _ := io.ReadAll(file.Body)
	f.lastBody = string(b)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.upload, nil
}

func (f *fakeQA) Ask(ctx context.Context, t adapter.Target, question string) (*model.AskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.askCalls++
	f.lastTarget = t
	f.lastAsk = question
	if f.askErr != nil {
		return nil, f.askErr
	}
	return &model.AskResult{Answer: f.answer}, nil
}

// inlineRunner runs tasks on the caller's goroutine.
type inlineRunner struct {
	refuse error
	tasks  int
}

func (r *inlineRunner) Submit(task worker.Task) error {
	if r.refuse != nil {
		return r.refuse
	}
	r.tasks++
	return task(context.Background())
}
