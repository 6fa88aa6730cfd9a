// Package logger provides named loggers for process diagnostics. Output
// goes to stderr (and optionally a log file): stdout carries the wire
// protocol and must never receive log lines.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

type Logger struct {
	l *log.Logger
}

// NewLogger creates a logger tagged with a component name and an instance
// id (callers typically pass a fresh uuid).
func NewLogger(name, instanceID string) *Logger {
	if len(instanceID) > 8 {
		instanceID = instanceID[:8]
	}
	prefix := fmt.Sprintf("[%s %s] ", name, instanceID)
	return &Logger{
		l: log.New(output(), prefix, log.LstdFlags),
	}
}

func (l *Logger) Info(msg string)  { l.l.Println("INFO:", msg) }
func (l *Logger) Warn(msg string)  { l.l.Println("WARN:", msg) }
func (l *Logger) Error(msg string) { l.l.Println("ERROR:", msg) }

func output() io.Writer {
	cfg := LogConfig()
	if cfg.LogDir == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(filepath.Join(cfg.LogDir, "sqlmcp.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file, falling back to stderr: %v", err)
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, f)
}
