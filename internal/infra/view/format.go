package view

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders n bytes with two decimals at most, e.g. "1.5 KB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	const k = 1024.0
	i := int(math.Floor(math.Log(float64(n)) / math.Log(k)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(n)/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatTime is the short clock shown next to each message.
func FormatTime(t time.Time) string {
	return t.Local().Format("15:04")
}

// Truncate cuts s to max columns and appends "..." when it was longer.
func Truncate(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "") + "..."
}

// Sanitize drops control runes (C0, DEL and C1) so text from the backend or
// the file system cannot move the cursor or retitle the terminal. Newlines and
// tabs survive; invalid UTF-8 becomes U+FFFD.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLine is Sanitize for single-line fields; line breaks become spaces.
func SanitizeLine(s string) string {
	return Sanitize(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s))
}

// MaskKey hides a configured key entirely.
func MaskKey(key, notSet string) string {
	if key == "" {
		return notSet
	}
	return "••••••••"
}

var (
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic   = regexp.MustCompile(`\*(.+?)\*`)
	reCode     = regexp.MustCompile("`([^`]+)`")
	reNumbered = regexp.MustCompile(`^\s*(\d+)\.\s+(.+)$`)
	reBullet   = regexp.MustCompile(`^\s*[-•]\s+(.+)$`)
)

const (
	ansiBold      = "\x1b[1m"
	ansiBoldOff   = "\x1b[22m"
	ansiItalic    = "\x1b[3m"
	ansiItalicOff = "\x1b[23m"
	ansiCyan      = "\x1b[36m"
	ansiDim       = "\x1b[2m"
	ansiReset     = "\x1b[0m"
	ansiFgOff     = "\x1b[39m"
)

// FormatAssistant turns the backend's light markdown into terminal text.
// Without color the markers are dropped and only the text remains.
func FormatAssistant(text string, color bool) []string {
	var lines []string
	parts := strings.Split(text, "```")
	for i, part := range parts {
		if i%2 == 1 {
			lines = append(lines, codeBlock(part, color)...)
			continue
		}
		for _, line := range strings.Split(part, "\n") {
			lines = append(lines, formatLine(line, color))
		}
	}
	return trimBlank(collapseBlank(lines))
}

func codeBlock(body string, color bool) []string {
	body = strings.Trim(body, "\n")
	// drop a language tag on the opening fence
	if nl := strings.IndexByte(body, '\n'); nl > 0 && !strings.ContainsAny(body[:nl], " \t") {
		body = body[nl+1:]
	}
	var out []string
	for _, l := range strings.Split(body, "\n") {
		if color {
			out = append(out, ansiDim+"│ "+ansiReset+l)
		} else {
			out = append(out, "│ "+l)
		}
	}
	return out
}

func formatLine(line string, color bool) string {
	if m := reNumbered.FindStringSubmatch(line); m != nil {
		line = "  " + m[1] + ". " + m[2]
	} else if m := reBullet.FindStringSubmatch(line); m != nil {
		line = "  • " + m[1]
	}
	if color {
		line = reBold.ReplaceAllString(line, ansiBold+"$1"+ansiBoldOff)
		line = reItalic.ReplaceAllString(line, ansiItalic+"$1"+ansiItalicOff)
		line = reCode.ReplaceAllString(line, ansiCyan+"$1"+ansiFgOff)
		return line
	}
	line = reBold.ReplaceAllString(line, "$1")
	line = reItalic.ReplaceAllString(line, "$1")
	return reCode.ReplaceAllString(line, "$1")
}

func collapseBlank(lines []string) []string {
	out := lines[:0:0]
	for i, l := range lines {
		if strings.TrimSpace(l) == "" && i > 0 && strings.TrimSpace(lines[i-1]) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
