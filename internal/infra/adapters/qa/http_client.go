// File: internal/infra/adapters/qa/http_client.go
package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/domain/ports/adapter"
	"rag-chat-client/internal/infra/logging"
	"rag-chat-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.QAService = (*HTTPClient)(nil)

const (
	headerAPIKey    = "X-Api-Key"
	headerSessionID = "X-Session-ID"
	formFileField   = "file"

	// cap on error bodies we read back
	maxErrorBody = 64 << 10
)

// HTTPClient talks to the document QA backend over plain HTTP.
type HTTPClient struct {
	client *http.Client
	log    *zerolog.Logger
}

// NewHTTPClient uses hc when non-nil. Timeouts come from the caller's context.
func NewHTTPClient(hc *http.Client, logger *zerolog.Logger) *HTTPClient {
	if hc == nil {
		hc = &http.Client{}
	}
	l := logger.With().Str("component", "QAClient").Logger()
	return &HTTPClient{client: hc, log: &l}
}

func (c *HTTPClient) Health(ctx context.Context, t adapter.Target) (model.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, join(t.Endpoint, "/"), nil)
	if err != nil {
		return model.HealthStatus{}, fmt.Errorf("build health request: %w", err)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest("health", 0, time.Since(start))
		c.log.Debug().Err(err).Str("endpoint", t.Endpoint).Msg("backend unreachable")
		return model.HealthStatus{Online: false}, nil
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest("health", resp.StatusCode, time.Since(start))

	var hs model.HealthStatus
	// Body is informational only; a non-JSON 2xx still means online.
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&hs)
	hs.Online = ok(resp.StatusCode)
	return hs, nil
}

func (c *HTTPClient) Upload(ctx context.Context, t adapter.Target, file adapter.Upload) (*model.UploadResult, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("upload %q: %w", file.Name, domain.ErrInvalidArgument)
	}

	// The multipart body is written into a pipe while the request is sent so
	// the file is never held in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, join(t.Endpoint, "/upload"), pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setAuth(req, t)

	var out model.UploadResult
	if err := c.do(req, "upload", &out); err != nil {
		return nil, err
	}
	metrics.ObserveUploadChunks(out.TotalChunks)
	c.log.Info().
		Str("session_id", t.SessionID).
		Str("file", file.Name).
		Int64("size", file.Size).
		Int("chunks", out.TotalChunks).
		Msg("document uploaded")
	return &out, nil
}

// writeForm streams file as the single form field and closes the form.
func writeForm(mw *multipart.Writer, file adapter.Upload) error {
	part, err := mw.CreateFormFile(formFileField, filepath.Base(file.Name))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("read %q: %w", file.Name, err)
	}
	return mw.Close()
}

func (c *HTTPClient) Ask(ctx context.Context, t adapter.Target, question string) (*model.AskResult, error) {
	b, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, fmt.Errorf("encode question: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, join(t.Endpoint, "/ask"), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req, t)

	var out struct {
		Answer   any `json:"answer"`
		Text     any `json:"text"`
		Response any `json:"response"`
	}
	if err := c.do(req, "ask", &out); err != nil {
		return nil, err
	}
	return &model.AskResult{Answer: firstText(out.Answer, out.Text, out.Response)}, nil
}

// do sends req and decodes a 2xx JSON body into out. Anything else is
// reported as domain.ErrRequestFailed carrying the backend's message.
func (c *HTTPClient) do(req *http.Request, op string, out any) error {
	defer logging.TraceDuration(c.log, "HTTPClient."+op)()
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(op, 0, time.Since(start))
		return fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(op, resp.StatusCode, time.Since(start))

	if !ok(resp.StatusCode) {
		msg := backendError(resp)
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("error", msg).Msg("backend rejected request")
		return fmt.Errorf("%w: %s", domain.ErrRequestFailed, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrInvalidResponse, op, err)
	}
	return nil
}

// backendError extracts {"error": "..."} from a failed response, falling back
// to the HTTP status line.
func backendError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

// firstText returns the first candidate that is a non-blank string.
func firstText(candidates ...any) string {
	for _, c := range candidates {
		if s, isStr := c.(string); isStr && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func setAuth(req *http.Request, t adapter.Target) {
	req.Header.Set(headerAPIKey, t.APIKey)
	req.Header.Set(headerSessionID, t.SessionID)
}

func join(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

func ok(code int) bool { return code >= 200 && code < 300 }
