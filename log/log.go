// Package log is koffetch's ambient logging package, grounded on
// github.com/aofei/air's Logger (leveled, text/template-formatted, pooled
// buffers) generalized with a structured-fields helper in the style of its
// Printj/Infoj JSON variants.
package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"text/template"
	"time"
)

// Level is the severity of a log entry.
type Level uint8

// Levels, lowest to highest severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields is a structured-logging field bag, analogous to the map passed to
// air.Logger's Debugj/Infoj/Warnj/Errorj.
type Fields map[string]interface{}

// DefaultFormat is the text/template format string new Loggers use unless
// overridden, mirroring air's default LogFormat.
const DefaultFormat = `{"time":"{{.time_rfc3339}}","level":"{{.level}}"}`

// Logger is a leveled logger with an optional minimum level and a
// text/template-formatted header, followed by either a plain message or a
// JSON-encoded Fields payload.
type Logger struct {
	Output   io.Writer
	MinLevel Level
	Format   string

	mu         sync.Mutex
	bufferPool *sync.Pool
	tmpl       *template.Template
}

// New returns a Logger writing to out at MinLevel and above.
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		Output:   out,
		MinLevel: minLevel,
		Format:   DefaultFormat,
		bufferPool: &sync.Pool{
			New: func() interface{} { return &bytes.Buffer{} },
		},
	}
}

// Nop returns a Logger that discards everything, used as the Context
// default so the library stays silent unless a caller wires one in.
func Nop() *Logger {
	return New(io.Discard, LevelError+1)
}

func (l *Logger) enabled(lvl Level) bool {
	return l != nil && l.Output != nil && lvl >= l.MinLevel
}

func (l *Logger) header(lvl Level) map[string]interface{} {
	return map[string]interface{}{
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        lvl.String(),
	}
}

func (l *Logger) log(lvl Level, message string, fields Fields) {
	if !l.enabled(lvl) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tmpl == nil {
		format := l.Format
		if format == "" {
			format = DefaultFormat
		}
		l.tmpl = template.Must(template.New("koffetch-log").Parse(format))
	}

	buf := l.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	if err := l.tmpl.Execute(buf, l.header(lvl)); err != nil {
		fmt.Fprintf(l.Output, "%s %s\n", lvl, message)
		return
	}

	s := buf.String()
	if len(s) > 0 && s[len(s)-1] == '}' {
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(',')
		if message != "" {
			buf.WriteString(`"message":`)
			b, _ := json.Marshal(message)
			buf.Write(b)
			if len(fields) > 0 {
				buf.WriteByte(',')
			}
		}
		i := 0
		for k, v := range fields {
			b, _ := json.Marshal(v)
			buf.WriteString(`"`)
			buf.WriteString(k)
			buf.WriteString(`":`)
			buf.Write(b)
			if i < len(fields)-1 {
				buf.WriteByte(',')
			}
			i++
		}
		buf.WriteByte('}')
	} else {
		buf.WriteByte(' ')
		buf.WriteString(message)
	}
	buf.WriteByte('\n')
	l.Output.Write(buf.Bytes())
}

// Debug logs message at LevelDebug.
func (l *Logger) Debug(message string) { l.log(LevelDebug, message, nil) }

// Debugw logs message at LevelDebug with structured fields.
func (l *Logger) Debugw(message string, fields Fields) { l.log(LevelDebug, message, fields) }

// Info logs message at LevelInfo.
func (l *Logger) Info(message string) { l.log(LevelInfo, message, nil) }

// Infow logs message at LevelInfo with structured fields.
func (l *Logger) Infow(message string, fields Fields) { l.log(LevelInfo, message, fields) }

// Warn logs message at LevelWarn.
func (l *Logger) Warn(message string) { l.log(LevelWarn, message, nil) }

// Warnw logs message at LevelWarn with structured fields.
func (l *Logger) Warnw(message string, fields Fields) { l.log(LevelWarn, message, fields) }

// Error logs message at LevelError.
func (l *Logger) Error(message string) { l.log(LevelError, message, nil) }

// Errorw logs message at LevelError with structured fields.
func (l *Logger) Errorw(message string, fields Fields) { l.log(LevelError, message, fields) }
