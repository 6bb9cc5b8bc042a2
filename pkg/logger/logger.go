package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	NONE
)

var (
	level     = INFO
	stdLogger = log.New(os.Stderr, "[reviewgen] ", log.LstdFlags)
)

// ParseLevel maps a level name to a LogLevel. Unknown names fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	case "none":
		return NONE
	default:
		return INFO
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "NONE"
	}
}

// Init sets the level and, when logfilePath is set, appends output to that
// file as well as stderr.
func Init(logfilePath string, levelStr string) error {
	level = ParseLevel(levelStr)

	if logfilePath != "" {
		dir := filepath.Dir(logfilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(logfilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		stdLogger.SetOutput(io.MultiWriter(os.Stderr, f))
	} else {
		stdLogger.SetOutput(os.Stderr)
	}
	return nil
}

// SetOutput redirects all log output. Used by tests.
func SetOutput(w io.Writer) { stdLogger.SetOutput(w) }

// Level returns the active level.
func Level() LogLevel { return level }

// SetLevel changes the active level.
func SetLevel(l LogLevel) { level = l }

func Debug(msg string, args ...any) {
	if level <= DEBUG {
		stdLogger.Printf("[DEBUG] "+msg, args...)
	}
}
func Info(msg string, args ...any) {
	if level <= INFO {
		stdLogger.Printf("[INFO] "+msg, args...)
	}
}
func Warn(msg string, args ...any) {
	if level <= WARN {
		stdLogger.Printf("[WARN] "+msg, args...)
	}
}
func Error(msg string, args ...any) {
	if level <= ERROR {
		stdLogger.Printf("[ERROR] "+msg, args...)
	}
}

// New returns a *log.Logger for packages that accept one (ingest, dataset).
// Its lines go through the shared output at level l and are dropped while l
// is below the active level.
func New(l LogLevel) *log.Logger {
	return log.New(levelWriter{l}, "", 0)
}

type levelWriter struct{ l LogLevel }

func (w levelWriter) Write(p []byte) (int, error) {
	if level <= w.l && w.l != NONE {
		stdLogger.Print("[" + w.l.String() + "] " + strings.TrimRight(string(p), "\n"))
	}
	return len(p), nil
}
