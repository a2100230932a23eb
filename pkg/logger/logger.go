package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the API server and the seed command.
// Printf-style helpers plus key/value variants (Infow, Warnw, Errorw).

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// Init sets the global level from text (debug, info, warn, error, fatal). Unknown values mean info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(l)
}

func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, msg string) {
	logger.Printf("%s [%s] %s", time.Now().UTC().Format(time.RFC3339), strings.ToUpper(levelNames[l]), msg)
}

func logf(l Level, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	output(l, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Fields is a set of key/value pairs appended to a structured log line.
type Fields map[string]interface{}

// render formats fields as sorted key=value pairs; values containing spaces are quoted.
func (f Fields) render() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		val := fmt.Sprint(f[k])
		if strings.ContainsAny(val, " \t\"") {
			val = fmt.Sprintf("%q", val)
		}
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(val)
	}
	return b.String()
}

func logw(l Level, msg string, f Fields) {
	if !enabled(l) {
		return
	}
	output(l, msg+f.render())
}

func Debugw(msg string, f Fields) { logw(LevelDebug, msg, f) }
func Infow(msg string, f Fields)  { logw(LevelInfo, msg, f) }
func Warnw(msg string, f Fields)  { logw(LevelWarn, msg, f) }
func Errorw(msg string, f Fields) { logw(LevelError, msg, f) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[level]
}
