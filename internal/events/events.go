// Package events defines the typed payloads the scheduler emits on every
// successful poll, and the Sink interface that decouples payload
// construction from however they eventually reach a listener. ClientID
// fields are tagged to marshal as decimal strings so a JSON transport at
// the command-surface boundary never loses precision on a 64-bit id.
package events

import "fmt"

const (
	NameBool  = "plc-bool-update"
	NameWord  = "plc-word-update"
	NameDword = "plc-dword-update"
	NameFloat = "plc-float-update"
)

// BoolUpdate is emitted for every successful coil poll.
type BoolUpdate struct {
	ClientID uint64 `json:"clientId,string"`
	Address  uint16 `json:"address"`
	Value    bool   `json:"value"`
}

// WordUpdate is emitted for every successful poll of a Word-typed task,
// from a holding register or, when ReadOnly is set, an input register.
type WordUpdate struct {
	ClientID uint64 `json:"clientId,string"`
	Address  uint16 `json:"address"`
	Value    uint16 `json:"value"`
	ReadOnly bool   `json:"readOnly"`
}

// DwordUpdate is emitted for every successful poll of a Dword-typed task.
type DwordUpdate struct {
	ClientID uint64 `json:"clientId,string"`
	Address  uint16 `json:"address"`
	Value    uint32 `json:"value"`
	ReadOnly bool   `json:"readOnly"`
}

// FloatUpdate is emitted for every successful poll of a Float-typed task.
type FloatUpdate struct {
	ClientID uint64  `json:"clientId,string"`
	Address  uint16  `json:"address"`
	Value    float32 `json:"value"`
	ReadOnly bool    `json:"readOnly"`
}

// Sink receives a named payload. Implementations must not block the
// scheduler's dispatch goroutine for long; LogSink and ChannelSink in
// sinks.go are both effectively non-blocking.
type Sink interface {
	Emit(name string, payload interface{})
}

// Emitter adapts the scheduler's typed reads into Sink.Emit calls. Calling
// any Emit* method on an Emitter not built by New is a programming error and panics, the
// same way dereferencing a nil pointer would — there is no sensible
// fallback for an event with nowhere to go.
type Emitter struct {
	sink Sink
}

// New returns an Emitter that publishes to sink.
func New(sink Sink) *Emitter {
	if sink == nil {
		panic("events: New called with a nil Sink")
	}
	return &Emitter{sink: sink}
}

func (e *Emitter) require() {
	if e.sink == nil {
		panic("events: Emit called before the Emitter was initialised")
	}
}

// EmitBool publishes a BoolUpdate.
func (e *Emitter) EmitBool(clientID uint64, address uint16, value bool) {
	e.require()
	e.sink.Emit(NameBool, BoolUpdate{ClientID: clientID, Address: address, Value: value})
}

// EmitWord publishes a WordUpdate.
func (e *Emitter) EmitWord(clientID uint64, address uint16, value uint16, readOnly bool) {
	e.require()
	e.sink.Emit(NameWord, WordUpdate{ClientID: clientID, Address: address, Value: value, ReadOnly: readOnly})
}

// EmitDword publishes a DwordUpdate.
func (e *Emitter) EmitDword(clientID uint64, address uint16, value uint32, readOnly bool) {
	e.require()
	e.sink.Emit(NameDword, DwordUpdate{ClientID: clientID, Address: address, Value: value, ReadOnly: readOnly})
}

// EmitFloat publishes a FloatUpdate.
func (e *Emitter) EmitFloat(clientID uint64, address uint16, value float32, readOnly bool) {
	e.require()
	e.sink.Emit(NameFloat, FloatUpdate{ClientID: clientID, Address: address, Value: value, ReadOnly: readOnly})
}

// fmtPayload renders a payload for LogSink; kept separate from
// Emit so a future structured sink can reuse the same shape without
// pulling in logging concerns.
func fmtPayload(name string, payload interface{}) string {
	return fmt.Sprintf("%s %+v", name, payload)
}
