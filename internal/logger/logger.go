// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Level orders the severities a Logger will emit. Messages below the
// configured level are dropped before they reach the file/stdout writer or
// any subscriber.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps the standard log package with file output, level filtering,
// and a broadcast fan-out so live consumers (the websocket event stream)
// can subscribe to the same stream operators see on disk.
type Logger struct {
	file        *os.File
	logger      *log.Logger
	level       Level
	broadcast   chan string
	subscribers map[chan string]bool
	subMu       sync.RWMutex
	mu          sync.RWMutex
	closed      bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger. If already initialized, returns the
// existing logger (even if closed).
func Init(logFile string) (*Logger, error) {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(logFile, LevelInfo)
	})
	return defaultLogger, err
}

// NewLogger creates a new logger instance writing to both stdout and logFile.
func NewLogger(logFile string, level Level) (*Logger, error) {
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)

	l := &Logger{
		file:        file,
		logger:      log.New(multiWriter, "", log.LstdFlags|log.Lshortfile),
		level:       level,
		broadcast:   make(chan string, 100),
		subscribers: make(map[chan string]bool),
		closed:      false,
	}

	go l.broadcastLoop()

	return l, nil
}

// SetLevel adjusts the minimum level emitted; the server calls it once at
// startup to apply RAG_LOG_LEVEL from the loaded configuration.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetDefault returns the default logger instance, falling back to a
// stdout-only logger if Init was never called or the logger was closed.
func GetDefault() *Logger {
	if defaultLogger == nil {
		defaultLogger = &Logger{
			logger:      log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile),
			level:       LevelInfo,
			broadcast:   make(chan string, 100),
			subscribers: make(map[chan string]bool),
			closed:      false,
		}
		go defaultLogger.broadcastLoop()
		return defaultLogger
	}

	defaultLogger.mu.RLock()
	closed := defaultLogger.closed
	broadcast := defaultLogger.broadcast
	defaultLogger.mu.RUnlock()

	if closed || broadcast == nil {
		defaultLogger = &Logger{
			logger:      log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile),
			level:       LevelInfo,
			broadcast:   make(chan string, 100),
			subscribers: make(map[chan string]bool),
			closed:      false,
		}
		go defaultLogger.broadcastLoop()
	}

	return defaultLogger
}

// Subscribe returns a channel that receives every log line emitted from
// this point on, for tailing over the websocket event stream (GET /events).
func (l *Logger) Subscribe() <-chan string {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	closed := l.closed
	broadcast := l.broadcast
	l.mu.RUnlock()

	if closed || broadcast == nil {
		return nil
	}

	clientChan := make(chan string, 64)

	l.subMu.Lock()
	if l.subscribers == nil {
		l.subscribers = make(map[chan string]bool)
	}
	l.subscribers[clientChan] = true
	l.subMu.Unlock()

	return clientChan
}

// Unsubscribe removes a client channel from subscribers.
func (l *Logger) Unsubscribe(ch <-chan string) {
	if ch == nil {
		return
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()

	for sub := range l.subscribers {
		if sub == ch {
			delete(l.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (l *Logger) broadcastLoop() {
	defer func() {
		l.subMu.Lock()
		for ch := range l.subscribers {
			close(ch)
		}
		l.subscribers = make(map[chan string]bool)
		l.subMu.Unlock()
	}()

	for logLine := range l.broadcast {
		l.subMu.RLock()
		subscribers := make([]chan string, 0, len(l.subscribers))
		for ch := range l.subscribers {
			subscribers = append(subscribers, ch)
		}
		l.subMu.RUnlock()

		for _, ch := range subscribers {
			select {
			case ch <- logLine:
			default:
			}
		}
	}
}

func levelName(level Level) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) logMessage(level Level, format string, v ...interface{}) {
	l.mu.RLock()
	closed := l.closed
	minLevel := l.level
	l.mu.RUnlock()

	if closed || level < minLevel {
		return
	}

	message := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logLine := fmt.Sprintf("[%s] [%s] %s", timestamp, levelName(level), message)

	if l.logger != nil {
		l.logger.Output(3, logLine)
	}

	select {
	case l.broadcast <- logLine:
	default:
	}
}

func (l *Logger) Printf(format string, v ...interface{}) { l.logMessage(LevelInfo, format, v...) }
func (l *Logger) Print(v ...interface{})                 { l.logMessage(LevelInfo, "%s", fmt.Sprint(v...)) }
func (l *Logger) Println(v ...interface{})               { l.logMessage(LevelInfo, "%s", fmt.Sprint(v...)) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.logMessage(LevelError, format, v...) }
func (l *Logger) Error(v ...interface{})                 { l.logMessage(LevelError, "%s", fmt.Sprint(v...)) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.logMessage(LevelWarn, format, v...) }
func (l *Logger) Warn(v ...interface{})                  { l.logMessage(LevelWarn, "%s", fmt.Sprint(v...)) }
func (l *Logger) Debugf(format string, v ...interface{}) { l.logMessage(LevelDebug, format, v...) }
func (l *Logger) Debug(v ...interface{})                 { l.logMessage(LevelDebug, "%s", fmt.Sprint(v...)) }

func (l *Logger) Fatal(v ...interface{}) {
	l.logMessage(LevelError, "%s", fmt.Sprint(v...))
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logMessage(LevelError, format, v...)
	os.Exit(1)
}

// Close closes the log file and stops broadcasting.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.broadcast)

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions operating on the default logger.
func Printf(format string, v ...interface{})  { GetDefault().Printf(format, v...) }
func Print(v ...interface{})                  { GetDefault().Print(v...) }
func Println(v ...interface{})                { GetDefault().Println(v...) }
func Errorf(format string, v ...interface{})  { GetDefault().Errorf(format, v...) }
func Error(v ...interface{})                  { GetDefault().Error(v...) }
func Warnf(format string, v ...interface{})   { GetDefault().Warnf(format, v...) }
func Warn(v ...interface{})                   { GetDefault().Warn(v...) }
func Debugf(format string, v ...interface{})  { GetDefault().Debugf(format, v...) }
func Debug(v ...interface{})                  { GetDefault().Debug(v...) }
func Fatal(v ...interface{})                  { GetDefault().Fatal(v...) }
func Fatalf(format string, v ...interface{})  { GetDefault().Fatalf(format, v...) }
