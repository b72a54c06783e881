// control/logger.go
// Author: momentics <momentics@gmail.com>
//
// Structured JSON logging shared by the server components.

package control

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the logger type passed between components. A nil *Logger is
// valid and logs nothing.
type Logger = logiface.Logger[logiface.Event]

// ParseLevel maps a level keyword to a logiface level. Both the syslog
// keywords and the common aliases (warn, error) are accepted.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logiface.LevelTrace, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "info", "":
		return logiface.LevelInformational, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a JSON logger writing to w at the given level.
func NewLogger(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField("time")),
		stumpy.L.WithLevel(lvl),
	).Logger(), nil
}
