package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// TimeLayout is the timestamp prefix of every text record.
const TimeLayout = "2006-01-02 15:04:05,000"

type Logger struct {
	mu     *sync.Mutex
	w      io.Writer
	name   string
	ndjson bool
	runID  string
	now    func() time.Time
}

type Options struct {
	Name   string
	NDJSON bool
	// Echo also writes records to the console writer when a log file is set.
	Echo bool
}

type Event struct {
	TS      string `json:"ts"`
	Level   string `json:"level"`
	Logger  string `json:"logger"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

// New opens the log sink for one run. With an empty logFile records go to
// stdout only; otherwise the file is opened for append and never truncated.
// The returned closer is nil when no file was opened.
func New(stdout io.Writer, logFile string, opts Options) (*Logger, io.Closer, error) {
	l := &Logger{
		mu:     &sync.Mutex{},
		name:   fallback(opts.Name, "rtfcheck"),
		ndjson: opts.NDJSON,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
	if strings.TrimSpace(logFile) == "" {
		l.w = stdout
		return l, nil, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file failed (%s): %w", logFile, err)
	}
	l.w = f
	if opts.Echo && stdout != nil {
		l.w = io.MultiWriter(f, stdout)
	}
	return l, f, nil
}

// Named returns a logger that shares the sink but reports a different name.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.name = fallback(name, l.name)
	return &child
}

func (l *Logger) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *Logger) Debug(msg string) { l.log(LevelDebug, msg) }
func (l *Logger) Info(msg string)  { l.log(LevelInfo, msg) }
func (l *Logger) Warn(msg string)  { l.log(LevelWarning, msg) }
func (l *Logger) Error(msg string) { l.log(LevelError, msg) }

func (l *Logger) log(level, msg string) {
	l.Emit(Event{Level: level, Message: msg})
}

func (l *Logger) Emit(ev Event) {
	if l == nil || l.w == nil {
		return
	}
	if ev.TS == "" {
		ev.TS = l.now().Format(TimeLayout)
	}
	if ev.Level == "" {
		ev.Level = LevelInfo
	}
	if ev.Logger == "" {
		ev.Logger = l.name
	}
	if ev.RunID == "" {
		ev.RunID = l.runID
	}
	line, ok := l.format(ev)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, line)
}

func (l *Logger) format(ev Event) (string, bool) {
	if l.ndjson {
		b, err := json.Marshal(ev)
		if err != nil {
			return "", false
		}
		return string(b) + "\n", true
	}
	// one record per line
	msg := strings.ReplaceAll(ev.Message, "\n", " ")
	return fmt.Sprintf("%s - %s - %s - %s\n", ev.TS, ev.Logger, ev.Level, msg), true
}

// ReadAll returns the full contents of a log file.
func ReadAll(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read log file failed (%s): %w", path, err)
	}
	return string(raw), nil
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
