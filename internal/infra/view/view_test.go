//go:build !integration

package view

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// manualTimer collects scheduled callbacks so tests can fire them on demand.
type manualTimer struct {
	mu  sync.Mutex
	fns []func()
}

func (m *manualTimer) after(_ time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, f)
	return func() bool { return true }
}

func (m *manualTimer) fireAll() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

func newTestRenderer(t *testing.T, out *bytes.Buffer, banner *StatusBanner) *Renderer {
	t.Helper()
	tr, err := i18n.Load("en")
	if err != nil {
		t.Fatalf("load locale: %v", err)
	}
	log := zerolog.Nop()
	return NewRenderer(out, tr, banner, Options{Width: 40}, &log)
}

func sampleState() model.AppState {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	st := model.NewAppState("session-1234567890-abcdefghij")
	st.SetDocument(&model.Document{Name: "report.pdf", Size: 1536, UploadedAt: at, Chunks: 7})
	st.Messages = append(st.Messages,
		model.Message{ID: "1", Text: "what is it?", Sender: model.SenderUser, Time: at},
		model.Message{ID: "2", Text: "hi", Sender: model.SenderAssistant, Time: at},
	)
	return st.Clone()
}

func TestRenderer_Frame(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out, nil)
	cfg := model.APIConfig{Endpoint: "http://localhost:5000", APIKey: "secret"}

	t.Run("assistant answer is shown verbatim", func(t *testing.T) {
		frame := r.Frame(sampleState(), cfg)
		if !strings.Contains(frame, "\n    hi\n") {
			t.Errorf("expected assistant text 'hi' in frame:\n%s", frame)
		}
		if !strings.Contains(frame, "[AI]") || !strings.Contains(frame, "[You]") {
			t.Errorf("expected both avatars:\n%s", frame)
		}
	})

	t.Run("document panel", func(t *testing.T) {
		frame := r.Frame(sampleState(), cfg)
		for _, want := range []string{"report.pdf", "1.5 KB", "Chunks: 7", "10:30:00", "✓ Ready"} {
			if !strings.Contains(frame, want) {
				t.Errorf("missing %q in frame:\n%s", want, frame)
			}
		}
	})

	t.Run("key is masked", func(t *testing.T) {
		frame := r.Frame(sampleState(), cfg)
		if strings.Contains(frame, "secret") {
			t.Error("api key leaked into the frame")
		}
		if !strings.Contains(r.Frame(sampleState(), model.APIConfig{}), "Not set") {
			t.Error("expected 'Not set' for an empty key")
		}
	})

	t.Run("empty state", func(t *testing.T) {
		st := model.NewAppState("s").Clone()
		frame := r.Frame(st, cfg)
		if !strings.Contains(frame, "No documents loaded yet") {
			t.Errorf("missing empty document text:\n%s", frame)
		}
		if !strings.Contains(frame, "Upload a document and start asking questions!") {
			t.Errorf("missing empty conversation hint:\n%s", frame)
		}
		if !strings.Contains(frame, "ask off") {
			t.Errorf("ask must be disabled without a document:\n%s", frame)
		}
	})

	t.Run("loading disables controls and shows indicator", func(t *testing.T) {
		st := sampleState()
		st.IsLoading = true
		frame := r.Frame(st, cfg)
		if !strings.Contains(frame, "AI is thinking...") {
			t.Errorf("missing thinking indicator:\n%s", frame)
		}
		if !strings.Contains(frame, "ask off | clear off | input off") {
			t.Errorf("controls should be disabled while loading:\n%s", frame)
		}
	})

	t.Run("ready controls", func(t *testing.T) {
		if frame := r.Frame(sampleState(), cfg); !strings.Contains(frame, "ask on | clear on | input on") {
			t.Errorf("controls should be enabled:\n%s", frame)
		}
	})
}

func TestRenderer_Idempotent(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out, nil)
	st, cfg := sampleState(), model.APIConfig{Endpoint: "http://x"}

	if err := r.Render(st, cfg); err != nil {
		t.Fatalf("render: %v", err)
	}
	first := out.String()
	out.Reset()
	r.OnChange(st, cfg)
	if out.String() != first {
		t.Errorf("second render differs:\n%s\n---\n%s", first, out.String())
	}
}

func TestRenderer_StripsControlSequences(t *testing.T) {
	var out bytes.Buffer
	b := NewStatusBanner(time.Minute)
	b.after = (&manualTimer{}).after
	r := newTestRenderer(t, &out, b)

	st := sampleState()
	st.CurrentDocument.Name = "evil\x1b]0;title\x07.pdf"
	st.Messages = append(st.Messages,
		model.Message{ID: "3", Text: "ok\x1b[2J\x1b]0;pwned\x07", Sender: model.SenderAssistant, Time: time.Now()},
		model.Message{ID: "4", Text: "me\x1b[31m\u009b2J", Sender: model.SenderUser, Time: time.Now()},
	)
	b.Show("Error: bad\x1b[H", KindError)

	if err := r.Render(st, model.APIConfig{Endpoint: "http://x\x1b[2J"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	frame := out.String()
	if strings.ContainsAny(frame, "\x1b\x07\u009b") {
		t.Errorf("control characters reached the terminal: %q", frame)
	}
	for _, want := range []string{"ok[2J]0;pwned", "evil]0;title.pdf", "me[31m2J", "Error: bad[H"} {
		if !strings.Contains(frame, want) {
			t.Errorf("printable text %q should survive, frame:\n%s", want, frame)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("a\tb\nc\x00\x7f\r"); got != "a\tb\nc" {
		t.Errorf("wanted tab and newline kept, got %q", got)
	}
	if got := SanitizeLine("a\nb\tc"); got != "a b c" {
		t.Errorf("wanted single line, got %q", got)
	}
}

func TestRenderer_SkipsStaleSnapshot(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out, nil)
	cfg := model.APIConfig{Endpoint: "http://x"}

	older := sampleState()
	older.IsLoading = true
	older.Version = 4
	newer := sampleState()
	newer.Version = 5

	if err := r.Render(newer, cfg); err != nil {
		t.Fatalf("render: %v", err)
	}
	out.Reset()
	if err := r.Render(older, cfg); err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("older snapshot should not be drawn over a newer one:\n%s", out.String())
	}

	if err := r.Render(newer, cfg); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.String(), "AI is thinking...") || out.Len() == 0 {
		t.Errorf("same version should redraw the current frame:\n%s", out.String())
	}
}

func TestRenderer_Settings(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out, nil)
	text := r.Settings(sampleState(), model.APIConfig{Endpoint: "http://x", APIKey: "k"})
	if !strings.Contains(text, "session-1234567890-a...") {
		t.Errorf("session id should be truncated to 20:\n%s", text)
	}
	if !strings.Contains(text, "••••••••") {
		t.Errorf("key should be masked:\n%s", text)
	}
}

func TestStatusBanner(t *testing.T) {
	timer := &manualTimer{}
	b := NewStatusBanner(time.Second)
	b.after = timer.after

	changes := 0
	b.OnChange(func() { changes++ })

	b.Show("first", KindInfo)
	b.Show("second", KindError)
	if s, ok := b.Current(); !ok || s.Text != "second" || s.Kind != KindError {
		t.Fatalf("expected latest status, got %+v %v", s, ok)
	}

	// the first timer belongs to a replaced status and must not clear "second" early
	timer.mu.Lock()
	stale := timer.fns[0]
	timer.mu.Unlock()
	stale()
	if _, ok := b.Current(); !ok {
		t.Fatal("stale timer dismissed the newer status")
	}

	timer.fireAll()
	if _, ok := b.Current(); ok {
		t.Error("status should be dismissed after ttl")
	}
	if changes != 3 {
		t.Errorf("expected 3 change callbacks, got %d", changes)
	}

	t.Run("banner appears in frame", func(t *testing.T) {
		var out bytes.Buffer
		r := newTestRenderer(t, &out, b)
		b.Show("API key updated", KindSuccess)
		if frame := r.Frame(sampleState(), model.APIConfig{}); !strings.Contains(frame, "✅ API key updated") {
			t.Errorf("banner missing:\n%s", frame)
		}
		b.Dismiss()
		if frame := r.Frame(sampleState(), model.APIConfig{}); strings.Contains(frame, "API key updated") {
			t.Errorf("dismissed banner still shown:\n%s", frame)
		}
	})
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		1024:            "1 KB",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5 MB",
		1234567:         "1.18 MB",
	}
	for in, want := range cases {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 20); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := Truncate("abcdefghijklmnopqrstuvwxyz", 20); got != "abcdefghijklmnopqrst..." {
		t.Errorf("unexpected %q", got)
	}
}

func TestFormatAssistant(t *testing.T) {
	in := "Here is **bold** and *soft* with `x`.\n\n\n1. first\n- second\n```go\nfmt.Println()\n```"
	got := strings.Join(FormatAssistant(in, false), "\n")
	want := strings.Join([]string{
		"Here is bold and soft with x.",
		"",
		"  1. first",
		"  • second",
		"",
		"│ fmt.Println()",
	}, "\n")
	if got != want {
		t.Errorf("plain formatting:\n%q\nwant\n%q", got, want)
	}

	colored := strings.Join(FormatAssistant("**b**", true), "")
	if !strings.Contains(colored, ansiBold+"b"+ansiBoldOff) {
		t.Errorf("expected ANSI bold, got %q", colored)
	}
}
