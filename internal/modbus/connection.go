// Package modbus manages the pool of live Modbus TCP/RTU connections. Each
// connection is keyed deterministically so that repeated requests for the
// same physical endpoint resolve to the same 64-bit id without a prior
// lookup, mirroring the original backend's client-id scheme.
package modbus

import (
	"hash/fnv"
	"net"
	"regexp"
	"strings"
	"sync"

	gb "github.com/goburrow/modbus"

	"plcbridge/internal/plcerr"
)

// Kind distinguishes the transport a Connection was opened over.
type Kind int

const (
	KindTCP Kind = iota
	KindRTU
)

func (k Kind) String() string {
	if k == KindRTU {
		return "rtu"
	}
	return "tcp"
}

// Connection wraps a single goburrow/modbus client. All access to Client
// goes through the Manager, which serialises requests per connection with
// Mu so that a scheduler dispatch and an interactive command never race on
// the same wire.
type Connection struct {
	ID       uint64
	Kind     Kind
	Endpoint string
	SlaveID  uint8

	Mu     sync.Mutex
	Client gb.Client
	closer interface{ Close() error }
}

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

func isIPv4Literal(s string) bool {
	if !ipv4Pattern.MatchString(s) {
		return false
	}
	return net.ParseIP(s) != nil
}

// resolveIPv4 accepts a dotted-quad literal as-is, or resolves host to its
// first IPv4 address via DNS.
func resolveIPv4(host string) (string, error) {
	if isIPv4Literal(host) {
		return host, nil
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return "", plcerr.InvalidIP(host)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", plcerr.InvalidIP(host)
}

// tcpKey packs a resolved IPv4 address and port into a stable 64-bit id:
// (ipv4 << 16) | port. This matches the original backend's scheme bit for
// bit, so the same endpoint always yields the same client id.
func tcpKey(ipv4 string, port uint16) (uint64, error) {
	ip := net.ParseIP(ipv4)
	if ip == nil || ip.To4() == nil {
		return 0, plcerr.InvalidIP(ipv4)
	}
	v4 := ip.To4()
	ipVal := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	return uint64(ipVal)<<16 | uint64(port), nil
}

// rtuKey hashes the upper-cased device name with FNV-1a. The original
// backend used Rust's DefaultHasher (SipHash), a process-specific keyed
// hash with no Go equivalent in this dependency set; FNV-1a over the
// stdlib's hash/fnv gives the same property that matters here — a stable,
// collision-resistant 64-bit id derived purely from the device name — so
// this is a deliberate stdlib choice rather than a dropped dependency.
func rtuKey(device string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(device)))
	return h.Sum64()
}

func (c *Connection) close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
