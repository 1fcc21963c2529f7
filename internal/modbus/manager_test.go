package modbus

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plcbridge/internal/plcerr"
)

// fakeClient is a minimal gb.Client stand-in that records call counts, the
// most holding-register reads ever in flight at once, and written coil
// values, so tests can assert mutual exclusion without a real transport.
type fakeClient struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	holding     map[uint16]uint16
	coils       map[uint16]uint16
}

func newFakeClient() *fakeClient {
	return &fakeClient{holding: make(map[uint16]uint16), coils: make(map[uint16]uint16)}
}

func (f *fakeClient) ReadCoils(address, quantity uint16) ([]byte, error)          { return nil, nil }
func (f *fakeClient) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) { return nil, nil }
func (f *fakeClient) WriteSingleCoil(address, value uint16) ([]byte, error) {
	f.coils[address] = value
	return nil, nil
}
func (f *fakeClient) WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return make([]byte, quantity*2), nil
}
func (f *fakeClient) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	time.Sleep(50 * time.Microsecond)
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return make([]byte, quantity*2), nil
}
func (f *fakeClient) WriteSingleRegister(address, value uint16) ([]byte, error) {
	f.holding[address] = value
	return nil, nil
}
func (f *fakeClient) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity uint16, value []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) MaskWriteRegister(address, andMask, orMask uint16) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) ReadFIFOQueue(address uint16) ([]byte, error) { return nil, nil }

type noopCloser struct{ closed bool }

func (c *noopCloser) Close() error {
	c.closed = true
	return nil
}

// inject bypasses OpenTCP/OpenSerial's real dialing, registering a
// connection backed by a fake client directly in the manager's map.
func (m *Manager) inject(id uint64, kind Kind, client *fakeClient, closer *noopCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[id] = &Connection{ID: id, Kind: kind, Client: client, closer: closer}
}

func testManager() *Manager {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewManager(log)
}

func TestTCPKeyStability(t *testing.T) {
	k1, err := tcpKey("192.168.0.31", 502)
	require.NoError(t, err)
	k2, err := tcpKey("192.168.0.31", 502)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := tcpKey("192.168.0.31", 503)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestTCPKeyMatchesSpecExample(t *testing.T) {
	// S1: open_tcp("192.168.1.10", 502) -> (0xC0A8010A << 16) | 502.
	k, err := tcpKey("192.168.1.10", 502)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xC0A8010A)<<16|502, k)
}

func TestResolveIPv4MatchesSpecExample(t *testing.T) {
	// S2: open_tcp("localhost", 1502) resolves to 127.0.0.1 ->
	// (0x7F000001 << 16) | 1502. The test starts from the resolved literal
	// 127.0.0.1, so it checks the literal path of resolveIPv4 and the key,
	// not a hostname lookup.
	ip, err := resolveIPv4("127.0.0.1")
	require.NoError(t, err)
	k, err := tcpKey(ip, 1502)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7F000001)<<16|1502, k)
}

func TestRTUKeyCaseInsensitive(t *testing.T) {
	assert.Equal(t, rtuKey("com3"), rtuKey("COM3"))
	assert.NotEqual(t, rtuKey("COM3"), rtuKey("COM4"))
}

func TestManagerExistsAndList(t *testing.T) {
	m := testManager()
	id := uint64(12345)
	m.inject(id, KindTCP, newFakeClient(), &noopCloser{})

	assert.True(t, m.Exists(id))
	assert.Equal(t, []uint64{id}, m.List())
}

func TestDisconnectUnknownReturnsClientNotFound(t *testing.T) {
	m := testManager()
	err := m.Disconnect(999)
	assert.True(t, plcerr.Is(err, plcerr.KindClientNotFound))
}

func TestDisconnectClosesAndRemoves(t *testing.T) {
	m := testManager()
	id := uint64(42)
	closer := &noopCloser{}
	m.inject(id, KindTCP, newFakeClient(), closer)

	require.NoError(t, m.Disconnect(id))
	assert.True(t, closer.closed)
	assert.False(t, m.Exists(id))
}

func TestReadHoldingRegistersSerialisesPerConnection(t *testing.T) {
	m := testManager()
	id := uint64(7)
	fc := newFakeClient()
	m.inject(id, KindTCP, fc, &noopCloser{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ReadHoldingRegisters(id, 0, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, fc.calls)
	assert.Equal(t, 1, fc.maxInFlight)
}

func TestReadInputRegistersReachesTheClient(t *testing.T) {
	m := testManager()
	id := uint64(8)
	fc := newFakeClient()
	m.inject(id, KindTCP, fc, &noopCloser{})

	raw, err := m.ReadInputRegisters(id, 0, 2)
	require.NoError(t, err)
	assert.Len(t, raw, 4)
}

func TestWriteSingleCoilEncodesOnOff(t *testing.T) {
	m := testManager()
	id := uint64(1)
	fc := newFakeClient()
	m.inject(id, KindTCP, fc, &noopCloser{})

	require.NoError(t, m.WriteSingleCoil(id, 3, true))
	assert.Equal(t, uint16(0xFF00), fc.coils[3])
	require.NoError(t, m.WriteSingleCoil(id, 3, false))
	assert.Equal(t, uint16(0x0000), fc.coils[3])
}

func TestCloseAllDisconnectsEverything(t *testing.T) {
	m := testManager()
	closers := []*noopCloser{{}, {}, {}}
	for i, c := range closers {
		m.inject(uint64(i+1), KindTCP, newFakeClient(), c)
	}

	require.NoError(t, m.CloseAll())
	for _, c := range closers {
		assert.True(t, c.closed)
	}
	assert.Empty(t, m.List())
}
