package logx

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Higher levels are more severe.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal // exits the process after writing
	LevelOff   // disables output
)

var levelNames = [...]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
	LevelOff:   "OFF",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// LookupLevel resolves a level name case-insensitively. "WARNING" is
// accepted as WARN.
func LookupLevel(name string) (Level, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARNING" {
		return LevelWarn, true
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l), true
		}
	}
	return LevelInfo, false
}

// ParseLevel is LookupLevel falling back to INFO for unknown names.
func ParseLevel(name string) Level {
	l, _ := LookupLevel(name)
	return l
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, ok := LookupLevel(string(b))
	if !ok {
		return fmt.Errorf("logx: unknown level %q", b)
	}
	*l = v
	return nil
}

// Enabled reports whether entries at target pass a logger set to l.
func (l Level) Enabled(target Level) bool {
	return l <= target
}
