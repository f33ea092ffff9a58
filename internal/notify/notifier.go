// Package notify carries transient user-facing notices (the toast equivalent
// of the dashboard) from the aggregation layer to whichever surface renders
// them. The notifier is injected explicitly; there is no ambient singleton.
package notify

import (
	"log/slog"
	"sync"
)

// Level grades a notice for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier receives transient notices. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(level Level, msg string)
}

// SlogNotifier forwards notices to a structured logger.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier wraps the supplied logger; nil falls back to the default.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

// Notify logs the notice at the matching slog level.
func (n *SlogNotifier) Notify(level Level, msg string) {
	switch level {
	case LevelError:
		n.logger.Error(msg, slog.String("notice", string(level)))
	case LevelWarning:
		n.logger.Warn(msg, slog.String("notice", string(level)))
	default:
		n.logger.Info(msg, slog.String("notice", string(level)))
	}
}

// Fanout forwards each notice to every wrapped notifier.
func Fanout(notifiers ...Notifier) Notifier {
	return fanout(notifiers)
}

type fanout []Notifier

func (f fanout) Notify(level Level, msg string) {
	for _, n := range f {
		if n != nil {
			n.Notify(level, msg)
		}
	}
}

// Notice is one recorded notification.
type Notice struct {
	Level Level
	Msg   string
}

// Recorder collects notices in memory; used by tests and the API's
// notification drain endpoint.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify appends the notice.
func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: level, Msg: msg})
	r.mu.Unlock()
}

// Drain returns all recorded notices and clears the buffer.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}
