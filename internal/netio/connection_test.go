package netio

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/config"
	"github.com/roxxel/obsidian/internal/packets"
	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

type fakeHost struct {
	mu     sync.Mutex
	cfg    *config.Config
	table  *registry.Table
	auth   collab.Authenticator
	world  collab.WorldSource
	disp   collab.EventDispatcher
	full   bool
	bound  map[uuid.UUID]*Connection
	forgot []*Connection
}

func newFakeHost(cfg *config.Config) *fakeHost {
	t := registry.NewTable()
	packets.Register(t)
	return &fakeHost{
		cfg:   cfg,
		table: t,
		auth:  fakeAuthenticator{},
		world: collab.NewFlatWorldSource(),
		disp:  collab.NewLoggingDispatcher(zap.NewNop(), "1.16.5", 754, int(cfg.MaxPlayers), cfg.Motd),
		bound: make(map[uuid.UUID]*Connection),
	}
}

func (h *fakeHost) Logger() *zap.Logger                     { return zap.NewNop() }
func (h *fakeHost) Table() *registry.Table                  { return h.table }
func (h *fakeHost) Config() *config.Config                  { return h.cfg }
func (h *fakeHost) Authenticator() collab.Authenticator     { return h.auth }
func (h *fakeHost) World() collab.WorldSource               { return h.world }
func (h *fakeHost) Dispatcher() collab.EventDispatcher      { return h.disp }
func (h *fakeHost) AtCapacity() bool                        { return h.full }

func (h *fakeHost) BindPlayer(conn *Connection, profile collab.PlayerProfile) *Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.bound[profile.UUID]
	if prev != nil && prev != conn {
		prev.Kick("Logged in from another location")
	}
	h.bound[profile.UUID] = conn
	return prev
}

func (h *fakeHost) Forget(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forgot = append(h.forgot, conn)
}

func (h *fakeHost) Broadcast(exclude uint64, id int32, packet any, lossy bool) {}

type fakeAuthenticator struct{}

func (fakeAuthenticator) VerifySession(ctx context.Context, username, serverIDHash string) (collab.PlayerProfile, error) {
	return collab.PlayerProfile{Username: username}, nil
}

type nopHandler struct{}

func (nopHandler) Deliver(ctx DeliverContext) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Port:                 25565,
		MaxPlayers:           20,
		CompressionThreshold: 256,
		KeepAliveIntervalMs:  20000,
		KeepAliveTimeoutMs:   30000,
		LoginTimeoutMs:       30000,
		RSAKeyBits:           512,
	}
}

func TestOfflineLoginReachesPlayState(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	cfg := testConfig()
	cfg.OnlineMode = false
	host := newFakeHost(cfg)
	conn := New(1, serverConn, host, nopHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		conn.Serve(ctx)
		close(done)
	}()

	writeClientPacket(t, clientConn, 0x00, func(w *proto.Writer) {
		w.WriteVarInt(754)
		_ = w.WriteString("localhost")
		w.WriteUint16(25565)
		w.WriteVarInt(int32(packets.NextStateLogin))
	})
	writeClientPacket(t, clientConn, 0x00, func(w *proto.Writer) {
		_ = w.WriteString("Notch")
	})

	readUntilLoginSuccess(t, clientConn)

	require.Eventually(t, func() bool {
		return conn.State() == registry.Play
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	cancel()
	// The writer is blocked sending the Play-state packets that follow
	// LoginSuccess; closing the client end releases it.
	clientConn.Close()
	<-done
}

func writeClientPacket(t *testing.T, conn net.Conn, id int32, build func(w *proto.Writer)) {
	t.Helper()
	w := proto.NewWriter()
	w.WriteVarInt(id)
	build(w)
	body := w.Bytes()

	lenBuf := proto.NewWriter()
	lenBuf.WriteVarInt(int32(len(body)))
	_, err := conn.Write(append(lenBuf.Bytes(), body...))
	require.NoError(t, err)
}

// readUntilLoginSuccess drains clientbound frames until it sees the
// LoginSuccess packet id (0x02) or times out. After SetCompression
// (0x03) every frame starts with a data_length VarInt; LoginSuccess is
// below the test threshold, so it arrives with data_length 0.
func readUntilLoginSuccess(t *testing.T, conn net.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	compressed := false
	for i := 0; i < 16; i++ {
		length, err := readRawVarInt(conn)
		require.NoError(t, err)
		buf := make([]byte, length)
		_, err = readFull(conn, buf)
		require.NoError(t, err)
		r := proto.NewReader(buf)
		if compressed {
			dataLength, err := r.ReadVarInt()
			require.NoError(t, err)
			if dataLength != 0 {
				continue
			}
		}
		id, err := r.ReadVarInt()
		require.NoError(t, err)
		if id == 0x02 {
			return
		}
		if id == 0x03 {
			compressed = true
		}
	}
	t.Fatal("did not observe LoginSuccess within frame budget")
}

func readRawVarInt(conn net.Conn) (int32, error) {
	var result int32
	var shift uint
	buf := make([]byte, 1)
	for {
		if _, err := readFull(conn, buf); err != nil {
			return 0, err
		}
		result |= int32(buf[0]&0x7F) << shift
		if buf[0]&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func TestCheckKeepAliveTimesOutWithoutEcho(t *testing.T) {
	_, serverConn := net.Pipe()
	defer serverConn.Close()

	host := newFakeHost(testConfig())
	conn := New(1, serverConn, host, nopHandler{})
	conn.setState(registry.Play)

	require.NoError(t, conn.checkKeepAlive(time.Millisecond, 10*time.Millisecond))
	conn.mu.Lock()
	require.True(t, conn.keepaliveAwait)
	conn.keepaliveSentAt = time.Now().Add(-time.Hour)
	conn.mu.Unlock()

	err := conn.checkKeepAlive(time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
}

func TestOnKeepAliveEchoRejectsTokenMismatch(t *testing.T) {
	_, serverConn := net.Pipe()
	defer serverConn.Close()

	host := newFakeHost(testConfig())
	conn := New(1, serverConn, host, nopHandler{})
	conn.setState(registry.Play)

	conn.mu.Lock()
	conn.keepaliveAwait = true
	conn.keepaliveToken = 42
	conn.mu.Unlock()

	err := conn.onKeepAliveEcho(packets.KeepAlive{ID: 7})
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
}

func TestOnKeepAliveEchoAcceptsMatchingToken(t *testing.T) {
	_, serverConn := net.Pipe()
	defer serverConn.Close()

	host := newFakeHost(testConfig())
	conn := New(1, serverConn, host, nopHandler{})
	conn.setState(registry.Play)

	conn.mu.Lock()
	conn.keepaliveAwait = true
	conn.keepaliveToken = 42
	conn.mu.Unlock()

	require.NoError(t, conn.onKeepAliveEcho(packets.KeepAlive{ID: 42}))

	conn.mu.Lock()
	await := conn.keepaliveAwait
	conn.mu.Unlock()
	require.False(t, await)
}

// TestKeepAliveTimeoutSendsNoDisconnect pins down baseline §7's "no
// Disconnect is attempted" behavior on a missed keep-alive, as opposed
// to the ErrProtocolViolation branch in handleFatal which does send
// one.
func TestKeepAliveTimeoutSendsNoDisconnect(t *testing.T) {
	_, serverConn := net.Pipe()
	defer serverConn.Close()

	host := newFakeHost(testConfig())
	conn := New(1, serverConn, host, nopHandler{})
	conn.setState(registry.Play)

	conn.handleFatal(ErrKeepAliveTimeout)

	select {
	case item := <-conn.outbound:
		t.Fatalf("unexpected outbound packet after keep-alive timeout: %+v", item)
	default:
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
