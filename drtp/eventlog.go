package drtp

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const defaultEventBuffer = 200

// traceTimeFormat stamps trace lines with microsecond wall-clock times.
const traceTimeFormat = "15:04:05.000000"

type event struct {
	level zerolog.Level
	msg   string
	quit  bool
}

// EventLog decouples trace production from console output. Producers
// enqueue lines without ever blocking on I/O, and a single consumer
// goroutine owns all printing, so the transfer loops never stall on the
// terminal and lines never interleave.
type EventLog struct {
	in      chan event
	done    chan struct{}
	log     zerolog.Logger
	dropped atomic.Uint64
}

// NewEventLog starts the consumer goroutine. debug widens the level
// filter from info to debug.
func NewEventLog(out io.Writer, debug bool) *EventLog {
	return newEventLog(out, debug, defaultEventBuffer)
}

func newEventLog(out io.Writer, debug bool, buffer int) *EventLog {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: traceTimeFormat, NoColor: true}
	l := &EventLog{
		in:   make(chan event, buffer),
		done: make(chan struct{}),
		log:  zerolog.New(console).Level(level).With().Timestamp().Logger(),
	}
	go l.run()
	return l
}

// Infof enqueues a transfer trace line.
func (l *EventLog) Infof(format string, args ...interface{}) {
	l.emit(zerolog.InfoLevel, format, args...)
}

// Debugf enqueues a diagnostic line, printed only with debug enabled.
func (l *EventLog) Debugf(format string, args ...interface{}) {
	l.emit(zerolog.DebugLevel, format, args...)
}

func (l *EventLog) emit(level zerolog.Level, format string, args ...interface{}) {
	if level < l.log.GetLevel() {
		return
	}
	select {
	case l.in <- event{level: level, msg: fmt.Sprintf(format, args...)}:
	default:
		l.dropped.Inc()
	}
}

// Dropped counts lines discarded because the queue was full.
func (l *EventLog) Dropped() uint64 {
	return l.dropped.Load()
}

// Close delivers the quit sentinel and waits for the queued lines to
// drain. Close once, after the producers are done; anything enqueued
// later is silently discarded.
func (l *EventLog) Close() {
	l.in <- event{quit: true}
	<-l.done
}

func (l *EventLog) run() {
	for ev := range l.in {
		if ev.quit {
			break
		}
		l.log.WithLevel(ev.level).Msg(ev.msg)
	}
	if n := l.dropped.Load(); n > 0 {
		l.log.Warn().Uint64("lines", n).Msg("event queue overflowed, lines dropped")
	}
	close(l.done)
}
