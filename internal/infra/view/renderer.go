// File: internal/infra/view/renderer.go
package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/infra/i18n"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
)

const (
	ansiClear  = "\x1b[H\x1b[2J"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiBlue   = "\x1b[34m"
	ansiYellow = "\x1b[33m"

	sessionLabelWidth = 20
)

var statusIcons = map[Kind]string{
	KindSuccess: "✅",
	KindError:   "❌",
	KindInfo:    "ℹ️",
	KindWarning: "⚠️",
}

var statusColors = map[Kind]string{
	KindSuccess: ansiGreen,
	KindError:   ansiRed,
	KindInfo:    ansiBlue,
	KindWarning: ansiYellow,
}

// Options control terminal behaviour.
type Options struct {
	Color bool // ANSI styling
	Clear bool // clear the screen before each frame
	Width int  // rule width in columns
}

// DetectOptions decides color and clearing from the output and the configured
// mode (auto|always|never). Only a real terminal is cleared.
func DetectOptions(out io.Writer, mode string) Options {
	tty := false
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	opts := Options{Clear: tty, Width: 60}
	switch mode {
	case "always":
		opts.Color = true
	case "never":
	default:
		_, noColor := os.LookupEnv("NO_COLOR")
		opts.Color = tty && !noColor
	}
	return opts
}

// Renderer redraws every region of the screen from a state snapshot. The same
// snapshot and banner always produce the same frame.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	tr     *i18n.Translator
	banner *StatusBanner
	opts   Options
	log    *zerolog.Logger

	drawn   bool
	version uint64 // of the last frame written
}

func NewRenderer(out io.Writer, tr *i18n.Translator, banner *StatusBanner, opts Options, logger *zerolog.Logger) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 60
	}
	l := logger.With().Str("component", "Renderer").Logger()
	return &Renderer{out: out, tr: tr, banner: banner, opts: opts, log: &l}
}

// OnChange has the state listener signature so the renderer can subscribe
// directly to the store.
func (r *Renderer) OnChange(st model.AppState, cfg model.APIConfig) {
	if err := r.Render(st, cfg); err != nil {
		r.log.Error().Err(err).Msg("render failed")
	}
}

// Render writes a full frame. A snapshot older than the last frame written is
// skipped; the frame is built under the lock so the banner it shows is never
// older than the one a newer frame already showed.
func (r *Renderer) Render(st model.AppState, cfg model.APIConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drawn && st.Version < r.version {
		r.log.Debug().Uint64("version", st.Version).Uint64("drawn", r.version).Msg("stale frame skipped")
		return nil
	}
	r.drawn, r.version = true, st.Version

	frame := r.Frame(st, cfg)
	if r.opts.Clear {
		frame = ansiClear + frame
	}
	_, err := io.WriteString(r.out, frame)
	return err
}

// Frame builds the screen text without writing it.
func (r *Renderer) Frame(st model.AppState, cfg model.APIConfig) string {
	var b strings.Builder
	r.renderHeader(&b)
	r.renderConfig(&b, cfg)
	r.renderSession(&b, st)
	r.rule(&b)
	r.renderDocuments(&b, st)
	r.rule(&b)
	r.renderMessages(&b, st)
	r.rule(&b)
	r.renderStatus(&b)
	r.renderControls(&b, st)
	b.WriteString(r.tr.T("prompt"))
	return b.String()
}

// Settings is the text shown by the settings command.
func (r *Renderer) Settings(st model.AppState, cfg model.APIConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", r.tr.T("settings_title"))
	r.field(&b, r.tr.T("label_endpoint"), cfg.Endpoint)
	r.field(&b, r.tr.T("label_api_key"), MaskKey(cfg.APIKey, r.tr.T("key_not_set")))
	r.field(&b, r.tr.T("label_session"), Truncate(st.SessionID, sessionLabelWidth))
	fmt.Fprintf(&b, "\n%s\n", r.tr.T("settings_hint"))
	return b.String()
}

func (r *Renderer) renderHeader(b *strings.Builder) {
	b.WriteString(r.style(ansiBold, r.tr.T("title")))
	b.WriteByte('\n')
	r.rule(b)
}

func (r *Renderer) renderConfig(b *strings.Builder, cfg model.APIConfig) {
	r.field(b, r.tr.T("label_endpoint"), cfg.Endpoint)
	r.field(b, r.tr.T("label_api_key"), MaskKey(cfg.APIKey, r.tr.T("key_not_set")))
}

func (r *Renderer) renderSession(b *strings.Builder, st model.AppState) {
	r.field(b, r.tr.T("label_session"), st.SessionID)
}

func (r *Renderer) renderDocuments(b *strings.Builder, st model.AppState) {
	b.WriteString(r.style(ansiBold, r.tr.T("label_documents")))
	b.WriteByte('\n')
	doc := st.CurrentDocument
	if doc == nil {
		fmt.Fprintf(b, "  %s\n", r.style(ansiDim, r.tr.T("no_documents")))
		return
	}
	fmt.Fprintf(b, "  📋 %s\n", SanitizeLine(doc.Name))
	fmt.Fprintf(b, "  %s: %s | %s: %d | %s: %s\n",
		r.tr.T("doc_size"), FormatFileSize(doc.Size),
		r.tr.T("doc_chunks"), doc.Chunks,
		r.tr.T("doc_uploaded"), doc.UploadedAt.Local().Format("15:04:05"),
	)
	fmt.Fprintf(b, "  %s\n", r.style(ansiGreen, r.tr.T("doc_ready")))
}

func (r *Renderer) renderMessages(b *strings.Builder, st model.AppState) {
	b.WriteString(r.style(ansiBold, r.tr.T("label_conversation")))
	b.WriteByte('\n')
	if len(st.Messages) == 0 && !st.IsLoading {
		fmt.Fprintf(b, "  💬 %s\n", r.tr.T("empty_conversation"))
		return
	}
	for _, m := range st.Messages {
		r.renderMessage(b, m)
	}
	if st.IsLoading {
		avatar := r.tr.T("avatar_assistant")
		fmt.Fprintf(b, "%s %s\n", r.avatar(avatar), r.style(ansiDim, r.tr.T("thinking")))
	}
}

func (r *Renderer) renderMessage(b *strings.Builder, m model.Message) {
	avatar := r.tr.T("avatar_user")
	if m.Sender == model.SenderAssistant {
		avatar = r.tr.T("avatar_assistant")
	}
	fmt.Fprintf(b, "%s %s\n", r.avatar(avatar), r.style(ansiDim, FormatTime(m.Time)))

	text := Sanitize(strings.ReplaceAll(m.Text, "\r\n", "\n"))
	var lines []string
	switch {
	case m.Sender == model.SenderAssistant && strings.TrimSpace(text) == "":
		lines = []string{r.tr.T("unable_to_display")}
	case m.Sender == model.SenderAssistant:
		lines = FormatAssistant(text, r.opts.Color)
	default:
		lines = strings.Split(text, "\n")
	}
	for _, l := range lines {
		fmt.Fprintf(b, "    %s\n", l)
	}
}

func (r *Renderer) renderStatus(b *strings.Builder) {
	if r.banner == nil {
		return
	}
	s, ok := r.banner.Current()
	if !ok {
		return
	}
	line := statusIcons[s.Kind] + " " + SanitizeLine(s.Text)
	b.WriteString(r.style(statusColors[s.Kind], line))
	b.WriteByte('\n')
}

// renderControls mirrors which actions are currently accepted.
func (r *Renderer) renderControls(b *strings.Builder, st model.AppState) {
	askOn := !st.IsLoading && st.HasDocument
	clearOn := !st.IsLoading
	inputOn := !st.IsLoading
	fmt.Fprintf(b, "%s: %s %s | %s %s | %s %s\n",
		r.tr.T("controls_label"),
		r.tr.T("control_ask"), r.onOff(askOn),
		r.tr.T("control_clear"), r.onOff(clearOn),
		r.tr.T("control_input"), r.onOff(inputOn),
	)
}

func (r *Renderer) onOff(on bool) string {
	if on {
		return r.style(ansiGreen, r.tr.T("control_enabled"))
	}
	return r.style(ansiRed, r.tr.T("control_disabled"))
}

// avatar pads the label so message text lines up regardless of locale.
func (r *Renderer) avatar(name string) string {
	return r.style(ansiBold, runewidth.FillRight("["+name+"]", 6))
}

func (r *Renderer) field(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", runewidth.FillRight(label+":", 16), SanitizeLine(value))
}

func (r *Renderer) rule(b *strings.Builder) {
	b.WriteString(r.style(ansiDim, strings.Repeat("─", r.opts.Width)))
	b.WriteByte('\n')
}

func (r *Renderer) style(code, s string) string {
	if !r.opts.Color || code == "" {
		return s
	}
	return code + s + ansiReset
}
