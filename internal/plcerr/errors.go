// Package plcerr defines the flat, localisable error taxonomy shared by the
// connection manager and task scheduler. Every kind carries a Chinese
// primary message (matching the original backend's boundary contract) with
// an English fallback, resolved through internal/i18n.
package plcerr

import (
	"fmt"

	"plcbridge/internal/i18n"
)

// Kind distinguishes the error taxonomy's flat set of variants without
// resorting to string matching.
type Kind int

const (
	KindInvalidIP Kind = iota
	KindSerialPortNotFound
	KindClientNotFound
	KindTaskNotFound
	KindZeroInterval
	KindOther
)

// Error is the concrete error type for every kind in this taxonomy. Client
// code should branch on Kind via errors.As, not on Error()'s text.
type Error struct {
	Kind     Kind
	IP       string
	Port     string
	ClientID uint64
	Address  uint16
	Detail   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidIP:
		return i18n.T("invalid_ip", e.IP)
	case KindSerialPortNotFound:
		return i18n.T("serial_port_not_found", e.Port)
	case KindClientNotFound:
		return i18n.T("client_not_found", e.ClientID)
	case KindTaskNotFound:
		return i18n.T("task_not_found", e.ClientID, e.Address)
	case KindZeroInterval:
		return i18n.T("zero_interval")
	default:
		return i18n.T("other", e.Detail)
	}
}

// InvalidIP reports that input did not parse as a dotted-quad IPv4 literal
// and DNS resolution yielded no IPv4 address.
func InvalidIP(input string) error {
	return &Error{Kind: KindInvalidIP, IP: input}
}

// SerialPortNotFound reports that device is absent from the system's
// enumerated serial ports.
func SerialPortNotFound(device string) error {
	return &Error{Kind: KindSerialPortNotFound, Port: device}
}

// ClientNotFound reports that no connection with this id exists in the
// manager's map.
func ClientNotFound(clientID uint64) error {
	return &Error{Kind: KindClientNotFound, ClientID: clientID}
}

// TaskNotFound reports an unregister of a task key the scheduler does not
// recognise.
func TaskNotFound(clientID uint64, address uint16) error {
	return &Error{Kind: KindTaskNotFound, ClientID: clientID, Address: address}
}

// ZeroInterval reports that a task registration requested interval_ms=0.
func ZeroInterval() error {
	return &Error{Kind: KindZeroInterval}
}

// Other wraps a transport error or a validation message that does not fit
// one of the other kinds.
func Other(format string, args ...interface{}) error {
	return &Error{Kind: KindOther, Detail: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
