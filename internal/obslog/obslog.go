// Package obslog is Asteria's structured logger, generalizing the
// teacher's pkg/logging.Logger (level/format, async buffered writer,
// request-scoped fields) from HTTP request logging to script run
// logging: a "request ID" becomes a run ID, and the fields a handler
// would attach (method, path, status) become the ones the engine
// actually has (script file, function name, source line).
package obslog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log entry.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Format selects the wire shape of emitted entries.
type Format int

const (
	Text Format = iota
	JSON
)

// Entry is one structured log record.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RunID     string                 `json:"run_id,omitempty"`
	Script    string                 `json:"script,omitempty"`
	Func      string                 `json:"func,omitempty"`
	Line      uint32                 `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Config configures a Logger.
type Config struct {
	MinLevel   Level
	Format     Format
	Output     io.Writer
	BufferSize int
}

// Logger buffers entries on a channel and drains them from a single
// goroutine, so concurrent natives calls logging from goroutines (a
// broadcast callback, a query result handler) never interleave partial
// writes.
type Logger struct {
	cfg    Config
	buffer chan Entry
	wg     sync.WaitGroup
	runID  string
}

// New starts a Logger. RunID identifies one top-level script execution,
// so every entry emitted while running that script can be correlated.
func New(cfg Config, runID string) *Logger {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	l := &Logger{cfg: cfg, buffer: make(chan Entry, cfg.BufferSize), runID: runID}
	l.wg.Add(1)
	go l.drain()
	return l
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for e := range l.buffer {
		l.write(e)
	}
}

func (l *Logger) write(e Entry) {
	if l.cfg.Format == JSON {
		b, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(l.cfg.Output, "obslog: marshal error: %v\n", err)
			return
		}
		fmt.Fprintln(l.cfg.Output, string(b))
		return
	}
	loc := ""
	if e.Script != "" {
		loc = fmt.Sprintf(" %s:%d", e.Script, e.Line)
	}
	fn := ""
	if e.Func != "" {
		fn = fmt.Sprintf(" in %s", e.Func)
	}
	fmt.Fprintf(l.cfg.Output, "%s [%s] %s%s%s\n", e.Timestamp.Format(time.RFC3339), e.Level, e.Message, fn, loc)
}

func (l *Logger) log(level Level, msg string, script string, fn string, line uint32, fields map[string]interface{}) {
	if level < l.cfg.MinLevel {
		return
	}
	l.buffer <- Entry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		RunID:     l.runID,
		Script:    script,
		Func:      fn,
		Line:      line,
		Fields:    fields,
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(Debug, fmt.Sprintf(format, args...), "", "", 0, nil) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(Info, fmt.Sprintf(format, args...), "", "", 0, nil) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(Warn, fmt.Sprintf(format, args...), "", "", 0, nil) }

// NativeCall logs one natives/* invocation (db_open, kv_open, ws_open, ...).
func (l *Logger) NativeCall(name string, fields map[string]interface{}) {
	l.log(Info, "native call", "", name, 0, fields)
}

// Thrown logs an uncaught exception's origin, so the embedder sees it
// in its own log stream even when the CLI's stderr report is suppressed.
func (l *Logger) Thrown(script, fn string, line uint32, message string) {
	l.log(Error, message, script, fn, line, nil)
}

// Close drains remaining entries and stops the background goroutine.
func (l *Logger) Close() {
	close(l.buffer)
	l.wg.Wait()
}
