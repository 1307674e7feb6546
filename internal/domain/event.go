package domain

import (
	"fmt"
	"time"
)

// Stage names a step of the copywriting pipeline.
type Stage string

const (
	StageInit       Stage = "init"
	StageUploading  Stage = "uploading"
	StagePolling    Stage = "polling"
	StageTranscript Stage = "transcript"
	StageAnalysis   Stage = "analysis"
	StageRewrite    Stage = "rewrite"
	StageRefine     Stage = "refine"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// ProgressEvent is a single progress update of a long-running action.
type ProgressEvent struct {
	Time    time.Time     `json:"time"`
	Elapsed time.Duration `json:"elapsed"`
	Stage   Stage         `json:"stage"`
	Message string        `json:"message"`
}

// String formats the event as a log line.
func (e ProgressEvent) String() string {
	return fmt.Sprintf("[%s] %s (elapsed %.1fs)", e.Time.Format("15:04:05"), e.Message, e.Elapsed.Seconds())
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(ProgressEvent)

// ProgressLog records events relative to a start time and forwards them.
type ProgressLog struct {
	start  time.Time
	now    func() time.Time
	notify ProgressFunc
	events []ProgressEvent
}

// NewProgressLog starts a log at the current time.
func NewProgressLog(notify ProgressFunc) *ProgressLog {
	return newProgressLog(time.Now, notify)
}

func newProgressLog(now func() time.Time, notify ProgressFunc) *ProgressLog {
	return &ProgressLog{
		start:  now(),
		now:    now,
		notify: notify,
	}
}

// Add records an event.
func (l *ProgressLog) Add(stage Stage, format string, args ...interface{}) {
	t := l.now()
	ev := ProgressEvent{
		Time:    t,
		Elapsed: t.Sub(l.start),
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
	l.events = append(l.events, ev)
	if l.notify != nil {
		l.notify(ev)
	}
}

// Events returns the recorded events in order.
func (l *ProgressLog) Events() []ProgressEvent {
	out := make([]ProgressEvent, len(l.events))
	copy(out, l.events)
	return out
}
