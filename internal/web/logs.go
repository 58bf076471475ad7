package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogBuffer keeps the most recent lines written by the process logger for
// /api/logs. It is a zapcore.WriteSyncer and understands both the console and
// the JSON encoder layout well enough to recover each line's level.
type LogBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []logLine
	partial []byte
	dropped uint64
}

type logLine struct {
	text  string
	level zapcore.Level
}

var _ zapcore.WriteSyncer = (*LogBuffer)(nil)

func NewLogBuffer(maxLines int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = 2000
	}
	return &LogBuffer{max: maxLines}
}

// Write splits p into lines. A trailing fragment without a newline is held
// until the rest of the line arrives.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := p
	if len(b.partial) > 0 {
		data = append(b.partial, p...)
		b.partial = nil
	}
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.appendLocked(string(bytes.TrimRight(data[:i], "\r")))
		data = data[i+1:]
	}
	if len(data) > 0 {
		b.partial = append([]byte(nil), data...)
	}
	return len(p), nil
}

func (b *LogBuffer) Sync() error { return nil }

func (b *LogBuffer) appendLocked(text string) {
	if text == "" {
		return
	}
	b.lines = append(b.lines, logLine{text: text, level: lineLevel(text)})
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
		b.dropped += uint64(over)
	}
}

// lineLevel finds the level field of an encoded entry. Lines it cannot read
// count as info.
func lineLevel(text string) zapcore.Level {
	var field string
	if strings.HasPrefix(text, "{") {
		const key = `"level":"`
		i := strings.Index(text, key)
		if i < 0 {
			return zapcore.InfoLevel
		}
		field = text[i+len(key):]
		if j := strings.IndexByte(field, '"'); j >= 0 {
			field = field[:j]
		}
	} else {
		parts := strings.SplitN(text, "\t", 3)
		if len(parts) < 2 {
			return zapcore.InfoLevel
		}
		field = parts[1]
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(field))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

type LogsResponse struct {
	NowUTC  string   `json:"now_utc"`
	Dropped uint64   `json:"dropped"`
	Lines   []string `json:"lines"`
}

// Snapshot returns up to tail of the newest lines at or above minLevel.
func (b *LogBuffer) Snapshot(tail int, minLevel zapcore.Level) (lines []string, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tail <= 0 {
		tail = 200
	}
	for i := len(b.lines) - 1; i >= 0 && len(lines) < tail; i-- {
		if b.lines[i].level >= minLevel {
			lines = append(lines, b.lines[i].text)
		}
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, b.dropped
}

// Handler serves the buffer. Query parameters: tail (1..5000), level (a zap
// level name) and format=text.
func (b *LogBuffer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()

		tail := 200
		if s := strings.TrimSpace(q.Get("tail")); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 || v > 5000 {
				http.Error(w, "tail must be an integer in [1,5000]", http.StatusBadRequest)
				return
			}
			tail = v
		}
		minLevel := zapcore.DebugLevel
		if s := strings.TrimSpace(q.Get("level")); s != "" {
			lvl, err := zapcore.ParseLevel(strings.ToLower(s))
			if err != nil {
				http.Error(w, "level must be one of debug, info, warn, error", http.StatusBadRequest)
				return
			}
			minLevel = lvl
		}

		lines, dropped := b.Snapshot(tail, minLevel)
		w.Header().Set("Cache-Control", "no-store")

		if strings.EqualFold(q.Get("format"), "text") {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if dropped > 0 {
				_, _ = fmt.Fprintf(w, "[dropped=%d]\n", dropped)
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(w, line)
			}
			return
		}

		bts, err := json.MarshalIndent(LogsResponse{
			NowUTC:  time.Now().UTC().Format(time.RFC3339Nano),
			Dropped: dropped,
			Lines:   lines,
		}, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(bts)
		_, _ = w.Write([]byte("\n"))
	})
}
