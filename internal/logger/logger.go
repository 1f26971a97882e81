// Package logger is the process-wide diagnostic log for hotelrag.
//
// Warnings and errors are always written. Debug, info and section output
// appear only after SetVerbose(true), which the CLI calls for --verbose.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level orders log severities.
type Level int

// Severities, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var prefixes = map[Level]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[ERROR] ",
}

var std = struct {
	sync.Mutex
	min Level
	out io.Writer
}{min: LevelWarn, out: os.Stderr}

// SetVerbose lowers the threshold to debug, or restores it to warn.
func SetVerbose(v bool) {
	std.Lock()
	defer std.Unlock()
	if v {
		std.min = LevelDebug
	} else {
		std.min = LevelWarn
	}
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return Enabled(LevelDebug)
}

// Enabled reports whether messages at level are written.
func Enabled(level Level) bool {
	std.Lock()
	defer std.Unlock()
	return level >= std.min
}

// SetOutput redirects all log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	std.Lock()
	defer std.Unlock()
	std.out = w
}

func logf(level Level, format string, args ...any) {
	std.Lock()
	defer std.Unlock()
	if level < std.min {
		return
	}
	fmt.Fprintf(std.out, prefixes[level]+format+"\n", args...)
}

// Debug traces internal steps.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info reports progress.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn reports a recoverable problem.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error reports a failed operation.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section writes a banner separating phases of verbose output.
func Section(name string) {
	std.Lock()
	defer std.Unlock()
	if std.min > LevelDebug {
		return
	}
	fmt.Fprintf(std.out, "\n=== %s ===\n", name)
}
