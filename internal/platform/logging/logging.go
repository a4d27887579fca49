package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string `yaml:"log_level"`
	Dir      string `yaml:"log_dir"`
	Filename string `yaml:"log_file"`
}

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m" // timestamp: grey
	colorDebug = "\x1b[36m" // DEBUG: cyan
	colorInfo  = "\x1b[32m" // INFO: green
	colorWarn  = "\x1b[33m" // WARN: yellow
	colorError = "\x1b[31m" // ERROR: red
)

// moduleColors maps the bracketed tag prefix of a message to its console colour.
var moduleColors = map[string]string{
	"[BOOT]":      "\x1b[96m",
	"[HTTP]":      "\x1b[95m",
	"[PIPELINE]":  "\x1b[94m",
	"[CLASSIFY]":  "\x1b[34m",
	"[KNOWLEDGE]": "\x1b[35m",
	"[VLLLM]":     "\x1b[92m",
	"[STORAGE]":   "\x1b[97m",
	"[AUTH]":      "\x1b[93m",
	"[EVENTS]":    "\x1b[90m",
}

// consoleHandler renders tagged, coloured log lines for the console.
type consoleHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelColor, levelStr string
	switch r.Level {
	case slog.LevelDebug:
		levelColor, levelStr = colorDebug, "DEBUG"
	case slog.LevelWarn:
		levelColor, levelStr = colorWarn, "WARN"
	case slog.LevelError:
		levelColor, levelStr = colorError, "ERROR"
	default:
		levelColor, levelStr = colorInfo, "INFO"
	}

	msg := r.Message
	var output string
	if tagColor, ok := tagColorFor(msg); ok {
		output = fmt.Sprintf("%s[%s]%s %s%s%s",
			colorTime, timeStr, colorReset,
			tagColor, msg, colorReset)
	} else {
		output = fmt.Sprintf("%s[%s]%s %s[%s]%s %s",
			colorTime, timeStr, colorReset,
			levelColor, levelStr, colorReset,
			msg)
	}

	if r.NumAttrs() > 0 {
		output += " {"
		r.Attrs(func(a slog.Attr) bool {
			output += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		output += " }"
	}
	output += "\n"

	_, err := h.writer.Write([]byte(output))
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(_ string) slog.Handler      { return h }

func tagColorFor(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", false
	}
	for tag, color := range moduleColors {
		if strings.HasPrefix(msg, tag) {
			return color, true
		}
	}
	return "", false
}

// Logger writes formatted text to the console and JSON records to an
// optional log file.
type Logger struct {
	config     Config
	jsonLogger *slog.Logger
	textLogger *slog.Logger
	logFile    *os.File
}

// DefaultLogger is the process-wide fallback used when no logger was injected.
var DefaultLogger *Logger

func parseLevel(configLevel string) slog.Level {
	switch strings.ToLower(configLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger from config. When Dir is empty no file sink is opened.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	logger := &Logger{
		config: cfg,
		textLogger: slog.New(&consoleHandler{
			writer: os.Stdout,
			level:  level,
		}),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		filename := cfg.Filename
		if filename == "" {
			filename = "server.log"
		}
		logPath := filepath.Join(cfg.Dir, filename)
		file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.logFile = file
		logger.jsonLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level: level,
		}))
	}

	if DefaultLogger == nil {
		DefaultLogger = logger
	}
	return logger, nil
}

// Slog exposes the structured console logger for integrations that want slog.
func (l *Logger) Slog() *slog.Logger {
	return l.textLogger
}

func (l *Logger) log(level slog.Level, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.textLogger.Log(context.Background(), level, msg)
	if l.jsonLogger != nil {
		l.jsonLogger.Log(context.Background(), level, msg)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(slog.LevelError, format, args...)
}

// DebugTag logs a debug message with a bracketed module tag prefix.
func (l *Logger) DebugTag(tag, format string, args ...interface{}) {
	l.Debug("["+tag+"] "+format, args...)
}

func (l *Logger) InfoTag(tag, format string, args ...interface{}) {
	l.Info("["+tag+"] "+format, args...)
}

func (l *Logger) WarnTag(tag, format string, args ...interface{}) {
	l.Warn("["+tag+"] "+format, args...)
}

func (l *Logger) ErrorTag(tag, format string, args ...interface{}) {
	l.Error("["+tag+"] "+format, args...)
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() {
	if l.logFile != nil {
		_ = l.logFile.Close()
		l.logFile = nil
	}
}
