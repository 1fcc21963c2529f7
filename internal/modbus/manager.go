package modbus

import (
	"fmt"
	"sync"
	"time"

	gb "github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"plcbridge/internal/plcerr"
	"plcbridge/pkg/utils"
)

const dialTimeout = 1 * time.Second

// Manager owns every live connection, keyed by the deterministic ids
// computed in this package. OpenTCP/OpenSerial are idempotent: requesting
// the same endpoint twice returns the existing connection's id rather than
// dialing again.
type Manager struct {
	log *logrus.Logger

	mu    sync.Mutex
	conns map[uint64]*Connection
}

// NewManager returns a Manager that logs through log.
func NewManager(log *logrus.Logger) *Manager {
	return &Manager{
		log:   log,
		conns: make(map[uint64]*Connection),
	}
}

// OpenTCP resolves host (an IPv4 literal or a hostname), dials a Modbus TCP
// client against host:port, and returns its connection id. host is resolved
// before key generation so "plc.local" and its literal address always
// produce the same id.
func (m *Manager) OpenTCP(host string, port uint16, slaveID uint8) (uint64, error) {
	ip, err := resolveIPv4(host)
	if err != nil {
		return 0, err
	}
	id, err := tcpKey(ip, port)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	if _, ok := m.conns[id]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	handler := gb.NewTCPClientHandler(fmt.Sprintf("%s:%d", host, port))
	handler.Timeout = dialTimeout
	handler.SlaveId = slaveID
	if err := handler.Connect(); err != nil {
		return 0, plcerr.Other("tcp connect %s:%d: %v", host, port, err)
	}

	conn := &Connection{
		ID:       id,
		Kind:     KindTCP,
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		SlaveID:  slaveID,
		Client:   gb.NewClient(handler),
		closer:   handler,
	}

	m.mu.Lock()
	if existing, ok := m.conns[id]; ok {
		m.mu.Unlock()
		conn.close()
		return existing.ID, nil
	}
	m.conns[id] = conn
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"id": id, "endpoint": conn.Endpoint}).Info("tcp connection opened")
	return id, nil
}

// OpenSerial validates device against the system's enumerated serial ports,
// dials a Modbus RTU client, and probes it with a single-register read to
// confirm the link is usable before handing back its connection id. A
// failed probe removes the connection, mirroring the original backend's
// rollback-on-probe-failure behaviour.
func (m *Manager) OpenSerial(device string, baudRate int, slaveID uint8) (uint64, error) {
	if !utils.ValidateSerialPort(device) {
		return 0, plcerr.SerialPortNotFound(device)
	}
	id := rtuKey(device)

	m.mu.Lock()
	if _, ok := m.conns[id]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	handler := gb.NewRTUClientHandler(device)
	handler.BaudRate = baudRate
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = slaveID
	handler.Timeout = dialTimeout
	if err := handler.Connect(); err != nil {
		return 0, plcerr.Other("rtu connect %s: %v", device, err)
	}

	client := gb.NewClient(handler)
	conn := &Connection{
		ID:       id,
		Kind:     KindRTU,
		Endpoint: device,
		SlaveID:  slaveID,
		Client:   client,
		closer:   handler,
	}

	m.mu.Lock()
	if existing, ok := m.conns[id]; ok {
		m.mu.Unlock()
		conn.close()
		return existing.ID, nil
	}
	m.conns[id] = conn
	m.mu.Unlock()

	if _, err := conn.Client.ReadHoldingRegisters(0, 1); err != nil {
		m.mu.Lock()
		delete(m.conns, id)
		m.mu.Unlock()
		conn.close()
		return 0, plcerr.Other("rtu probe %s: %v", device, err)
	}

	m.log.WithFields(logrus.Fields{"id": id, "endpoint": device}).Info("serial connection opened")
	return id, nil
}

// Disconnect closes and removes the connection with the given id.
func (m *Manager) Disconnect(id uint64) error {
	m.mu.Lock()
	conn, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
	}
	m.mu.Unlock()

	if !ok {
		return plcerr.ClientNotFound(id)
	}
	return conn.close()
}

// Exists reports whether a connection with the given id is open.
func (m *Manager) Exists(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[id]
	return ok
}

// List returns the ids of every open connection.
func (m *Manager) List() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) get(id uint64) (*Connection, error) {
	m.mu.Lock()
	conn, ok := m.conns[id]
	m.mu.Unlock()
	if !ok {
		return nil, plcerr.ClientNotFound(id)
	}
	return conn, nil
}

// ReadHoldingRegisters reads quantity holding registers starting at address
// from the given connection, serialised against concurrent use of that
// connection.
func (m *Manager) ReadHoldingRegisters(id uint64, address, quantity uint16) ([]byte, error) {
	conn, err := m.get(id)
	if err != nil {
		return nil, err
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	return conn.Client.ReadHoldingRegisters(address, quantity)
}

// ReadInputRegisters reads quantity input registers starting at address.
func (m *Manager) ReadInputRegisters(id uint64, address, quantity uint16) ([]byte, error) {
	conn, err := m.get(id)
	if err != nil {
		return nil, err
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	return conn.Client.ReadInputRegisters(address, quantity)
}

// ReadCoils reads quantity coils starting at address.
func (m *Manager) ReadCoils(id uint64, address, quantity uint16) ([]byte, error) {
	conn, err := m.get(id)
	if err != nil {
		return nil, err
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	return conn.Client.ReadCoils(address, quantity)
}

// WriteSingleRegister writes value to the holding register at address.
func (m *Manager) WriteSingleRegister(id uint64, address, value uint16) error {
	conn, err := m.get(id)
	if err != nil {
		return err
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	_, err = conn.Client.WriteSingleRegister(address, value)
	return err
}

// WriteMultipleRegisters writes values starting at address, used for the
// two-register Dword/Float encodings.
func (m *Manager) WriteMultipleRegisters(id uint64, address uint16, values []byte) error {
	conn, err := m.get(id)
	if err != nil {
		return err
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	quantity := uint16(len(values) / 2)
	_, err = conn.Client.WriteMultipleRegisters(address, quantity, values)
	return err
}

// WriteSingleCoil writes a bool to the coil at address.
func (m *Manager) WriteSingleCoil(id uint64, address uint16, value bool) error {
	conn, err := m.get(id)
	if err != nil {
		return err
	}
	var raw uint16
	if value {
		raw = 0xFF00
	}
	conn.Mu.Lock()
	defer conn.Mu.Unlock()
	_, err = conn.Client.WriteSingleCoil(address, raw)
	return err
}

// CloseAll disconnects every open connection concurrently, returning the
// first error encountered. Used by the runtime on shutdown so teardown
// latency is bounded by the slowest single link, not their sum.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[uint64]*Connection)
	m.mu.Unlock()

	var g errgroup.Group
	for _, c := range conns {
		c := c
		g.Go(func() error {
			return c.close()
		})
	}
	return g.Wait()
}
