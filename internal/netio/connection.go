// Package netio implements the per-connection state machine (baseline
// §4.4): it owns the socket, the frame pipeline, the keep-alive
// timers, the login handshake, and the read/write loops. Gameplay
// reaction to decoded packets is delegated to a Handler; everything
// structural about state (Handshake, LoginStart, EncryptionResponse,
// KeepAlive) is handled here, matching the teacher's own
// handleConnection/processPacket split between connection plumbing and
// packet-specific behavior.
package netio

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/frame"
	"github.com/roxxel/obsidian/internal/packets"
	"github.com/roxxel/obsidian/internal/proto"
	"github.com/roxxel/obsidian/internal/registry"
)

// outboundQueueSize is the bounded write queue's capacity, per
// baseline §5's "Outbound queue is bounded (default 256 packets)".
const outboundQueueSize = 256

// pollInterval bounds how long the read loop can block in a single
// socket read before re-checking for cancellation or a login-phase
// timeout, approximating baseline §5's "observe [cancellation] within
// one frame boundary" without needing a second goroutine per reader.
const pollInterval = time.Second

type outboundItem struct {
	desc   *registry.Descriptor
	packet any
	lossy  bool
}

// Connection is one accepted socket's full protocol state: the frame
// pipeline, the current Handshaking/Status/Login/Play state, the
// keep-alive bookkeeping, and the bounded outbound queue a single
// writer goroutine drains.
type Connection struct {
	ID       uint64
	host     Host
	handler  Handler
	conn     net.Conn
	pipeline *frame.Pipeline
	table    *registry.Table
	logger   *zap.Logger

	createdAt     time.Time
	loginDeadline time.Time

	mu         sync.Mutex
	state      registry.State
	profile    collab.PlayerProfile
	hasProfile bool

	pendingUsername string
	verifyToken     []byte
	rsaKey          *rsa.PrivateKey
	rsaPublicDER    []byte
	serverID        string

	keepaliveAwait  bool
	keepaliveToken  int64
	keepaliveSentAt time.Time
	lastActivity    time.Time

	outbound  chan outboundItem
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New wraps an accepted socket as a Connection in the Handshaking
// state. The caller must call Serve to run it.
func New(id uint64, conn net.Conn, host Host, handler Handler) *Connection {
	now := time.Now()
	return &Connection{
		ID:            id,
		host:          host,
		handler:       handler,
		conn:          conn,
		pipeline:      frame.New(conn),
		table:         host.Table(),
		logger:        host.Logger().With(zap.Uint64("conn", id), zap.String("remote", conn.RemoteAddr().String())),
		createdAt:     now,
		loginDeadline: now.Add(host.Config().LoginTimeout()),
		state:         registry.Handshaking,
		lastActivity:  now,
		outbound:      make(chan outboundItem, outboundQueueSize),
		closeCh:       make(chan struct{}),
	}
}

// State returns the connection's current protocol state.
func (c *Connection) State() registry.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) setState(s registry.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Profile returns the bound player profile and whether one is bound
// yet (it is not, before LoginSuccess).
func (c *Connection) Profile() (collab.PlayerProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile, c.hasProfile
}

func (c *Connection) setProfile(p collab.PlayerProfile) {
	c.mu.Lock()
	c.profile = p
	c.hasProfile = true
	c.mu.Unlock()
}

// Close begins connection shutdown. Safe to call more than once and
// from any goroutine.
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.closeCh) })
}

// Closed reports whether Close has run.
func (c *Connection) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// Send implements Sender: it looks up packet id's clientbound
// descriptor in the connection's current state and enqueues it,
// dropping lossy packets when the outbound queue is full rather than
// blocking the caller (baseline §5's backpressure rule).
func (c *Connection) Send(id int32, packet any, lossy bool) error {
	desc, ok := c.table.Lookup(c.State(), registry.Clientbound, id)
	if !ok {
		return fmt.Errorf("netio: no clientbound descriptor for id=0x%02X in state %s", id, c.State())
	}
	item := outboundItem{desc: desc, packet: packet, lossy: lossy}
	select {
	case c.outbound <- item:
		return nil
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	if lossy {
		return nil
	}
	select {
	case c.outbound <- item:
		return nil
	case <-c.closeCh:
		return ErrConnectionClosed
	}
}

// Kick queues a best-effort Disconnect in the connection's current
// state and closes it. The Disconnect is queued (or skipped, in the
// Handshaking and Status states, which have no Disconnect packet)
// before Close runs, and the writer flushes the queue on close, so a
// caller evicting a duplicate login sees the old connection Closed by
// the time Kick returns; the socket itself is closed later, by Serve.
func (c *Connection) Kick(reason string) {
	c.sendDisconnect(reason)
	c.Close()
}

func (c *Connection) sendDisconnect(reason string) {
	doc := fmt.Sprintf(`{"text":%q}`, reason)
	state := c.State()
	var id int32
	switch state {
	case registry.Login:
		id = 0x00
	case registry.Play:
		id = 0x19
	default:
		return
	}
	if err := c.Send(id, disconnectPacketFor(state, doc), false); err != nil {
		c.logger.Debug("failed to send disconnect", zap.Error(err))
	}
}

func disconnectPacketFor(state registry.State, doc string) any {
	if state == registry.Play {
		return packets.PlayDisconnect{Reason: doc}
	}
	return packets.Disconnect{Reason: doc}
}

// Serve runs the connection to completion: the writer loop on its own
// goroutine, the reader loop on the caller's, returning once both have
// stopped and the socket is closed.
func (c *Connection) Serve(ctx context.Context) {
	defer c.host.Forget(c)
	defer c.conn.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("writer panic", zap.Any("panic", r))
				c.Close()
			}
		}()
		c.writeLoop()
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("reader panic", zap.Any("panic", r))
			}
		}()
		c.readLoop(ctx)
	}()
	c.Close()
	wg.Wait()

	if profile, ok := c.Profile(); ok {
		c.host.Dispatcher().OnLeave(profile)
	}
}

func (c *Connection) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.sendDisconnect("Server shutting down")
			return
		case <-c.closeCh:
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pollInterval))
		body, err := c.pipeline.ReadFrame()
		if err != nil {
			if isTimeout(err) {
				if c.State() != registry.Play && time.Now().After(c.loginDeadline) {
					c.sendDisconnect("Login timed out")
					return
				}
				continue
			}
			c.logger.Debug("read loop terminating", zap.Error(err))
			return
		}
		_ = c.conn.SetReadDeadline(time.Time{})

		c.mu.Lock()
		c.lastActivity = time.Now()
		c.mu.Unlock()

		if err := c.dispatch(body); err != nil {
			c.handleFatal(err)
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Connection) handleFatal(err error) {
	switch {
	case errors.Is(err, ErrKeepAliveTimeout):
		c.logger.Info("keep-alive timeout")
	case errors.Is(err, ErrAuthFailed):
		c.logger.Info("authentication failed", zap.Error(err))
	case errors.Is(err, ErrProtocolViolation):
		c.logger.Warn("protocol violation", zap.Error(err))
		c.sendDisconnect("Protocol error")
	default:
		c.logger.Debug("connection terminating", zap.Error(err))
	}
}

func (c *Connection) dispatch(body []byte) error {
	r := proto.NewReader(body)
	id, err := r.ReadVarInt()
	if err != nil {
		return fmt.Errorf("%w: reading packet id: %v", ErrProtocolViolation, err)
	}
	state := c.State()
	desc, ok := c.table.Lookup(state, registry.Serverbound, id)
	if !ok {
		c.logger.Debug("unknown packet", zap.Int32("id", id), zap.String("state", state.String()), zap.NamedError("reason", ErrUnknownPacket))
		return nil
	}
	packet, err := desc.Decode(r)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", desc.Name, ErrProtocolViolation, err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%s: %w: trailing bytes", desc.Name, ErrProtocolViolation)
	}
	return c.handlePacket(packet)
}

func (c *Connection) handlePacket(packet any) error {
	switch p := packet.(type) {
	case packets.Handshake:
		return c.onHandshake(p)
	case packets.LoginStart:
		return c.onLoginStart(p)
	case packets.EncryptionResponse:
		return c.onEncryptionResponse(p)
	case packets.KeepAlive:
		return c.onKeepAliveEcho(p)
	default:
		profile, hasProfile := c.Profile()
		ctx := DeliverContext{
			ConnID:     c.ID,
			State:      c.State(),
			Packet:     packet,
			Sender:     c,
			Host:       c.host,
			Profile:    profile,
			HasProfile: hasProfile,
		}
		return c.handler.Deliver(ctx)
	}
}

func (c *Connection) onHandshake(h packets.Handshake) error {
	switch h.NextState {
	case packets.NextStateStatus:
		c.setState(registry.Status)
		return nil
	case packets.NextStateLogin:
		c.setState(registry.Login)
		return nil
	default:
		return fmt.Errorf("%w: invalid next_state %d", ErrProtocolViolation, h.NextState)
	}
}

func (c *Connection) onLoginStart(ls packets.LoginStart) error {
	if c.host.AtCapacity() {
		c.sendDisconnect("The server is full")
		return ErrCapacity
	}
	c.pendingUsername = ls.Username

	cfg := c.host.Config()
	if !cfg.OnlineMode {
		return c.finishLogin(collab.PlayerProfile{UUID: offlineUUID(ls.Username), Username: ls.Username})
	}

	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return fmt.Errorf("netio: generating verify token: %w", err)
	}
	c.verifyToken = token

	key, err := rsa.GenerateKey(rand.Reader, cfg.RSAKeyBits)
	if err != nil {
		return fmt.Errorf("netio: generating RSA key: %w", err)
	}
	c.rsaKey = key
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("netio: marshaling RSA public key: %w", err)
	}
	c.rsaPublicDER = pubDER
	c.serverID = randomServerID()

	return c.Send(0x01, packets.EncryptionRequest{
		ServerID:    c.serverID,
		PublicKey:   pubDER,
		VerifyToken: token,
	}, false)
}

func (c *Connection) onEncryptionResponse(er packets.EncryptionResponse) error {
	if c.rsaKey == nil {
		return fmt.Errorf("%w: unexpected EncryptionResponse", ErrProtocolViolation)
	}
	secret, err := rsa.DecryptPKCS1v15(rand.Reader, c.rsaKey, er.SharedSecret)
	if err != nil {
		return fmt.Errorf("%w: decrypting shared secret: %v", ErrProtocolViolation, err)
	}
	token, err := rsa.DecryptPKCS1v15(rand.Reader, c.rsaKey, er.VerifyToken)
	if err != nil || !bytes.Equal(token, c.verifyToken) {
		return fmt.Errorf("%w: verify token mismatch", ErrProtocolViolation)
	}
	if err := c.pipeline.EnableEncryption(secret); err != nil {
		return fmt.Errorf("netio: enabling encryption: %w", err)
	}

	hash := sessionHash(c.serverID, secret, c.rsaPublicDER)
	profile, err := c.host.Authenticator().VerifySession(context.Background(), c.pendingUsername, hash)
	if err != nil {
		c.sendDisconnect("Failed to verify username")
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return c.finishLogin(profile)
}

func (c *Connection) finishLogin(profile collab.PlayerProfile) error {
	cfg := c.host.Config()
	// A negative threshold leaves compression off. Otherwise writeItem
	// switches the pipeline to compressed framing once SetCompression
	// itself has gone out uncompressed.
	if cfg.CompressionThreshold >= 0 {
		if err := c.Send(0x03, packets.SetCompression{Threshold: cfg.CompressionThreshold}, false); err != nil {
			return err
		}
	}
	if err := c.Send(0x02, packets.LoginSuccess{UUID: profile.UUID, Username: profile.Username}, false); err != nil {
		return err
	}

	c.setState(registry.Play)
	c.setProfile(profile)

	// BindPlayer itself kicks any connection already bound to profile
	// before it commits this one, so there is nothing left to do with
	// its return value here.
	c.host.BindPlayer(c, profile)

	c.host.Dispatcher().OnJoin(profile)
	return c.sendJoinGame()
}

func (c *Connection) sendJoinGame() error {
	join := packets.JoinGame{
		EntityID:            int32(c.ID),
		IsHardcore:          false,
		Gamemode:            0,
		PreviousGamemode:    -1,
		WorldNames:          []string{"minecraft:overworld"},
		DimensionCodec:      packets.DefaultDimensionCodec(),
		Dimension:           packets.DefaultDimensionType(),
		WorldName:           "minecraft:overworld",
		HashedSeed:          0,
		MaxPlayers:          int32(c.host.Config().MaxPlayers),
		ViewDistance:        10,
		ReducedDebugInfo:    false,
		EnableRespawnScreen: true,
		IsDebug:             false,
		IsFlat:              true,
	}
	if err := c.Send(0x24, join, false); err != nil {
		return err
	}
	if err := c.Send(0x0D, packets.ServerDifficulty{Difficulty: 0, Locked: false}, false); err != nil {
		return err
	}
	if err := c.Send(0x18, packets.PluginMessage{Channel: "minecraft:brand", Data: []byte("obsidian")}, false); err != nil {
		return err
	}
	if err := c.Send(0x42, packets.SpawnPosition{X: 0, Y: 64, Z: 0}, false); err != nil {
		return err
	}
	return c.Send(0x34, packets.PlayerPositionAndLook{X: 0, Y: 64, Z: 0, Yaw: 0, Pitch: 0, Flags: 0, TeleportID: 0}, false)
}

func (c *Connection) onKeepAliveEcho(ka packets.KeepAlive) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.keepaliveAwait || ka.ID != c.keepaliveToken {
		return ErrKeepAliveTimeout
	}
	c.keepaliveAwait = false
	return nil
}

// writeLoop drains the outbound queue and runs the keep-alive ticker
// until the connection closes. It does not watch ctx directly: the
// read loop is what observes cancellation and enqueues a shutdown
// Disconnect, and that enqueue always happens-before Close() runs, so
// waiting on closeCh alone still sees that packet. A ctx.Done() case
// here would instead race the pending Disconnect against the
// cancellation signal in the same select, since both become ready
// together and select does not prefer one ready case over another; the
// packet could be silently dropped.
func (c *Connection) writeLoop() {
	cfg := c.host.Config()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			c.drainOutbound()
			return
		case <-ticker.C:
			if err := c.checkKeepAlive(cfg.KeepAliveInterval(), cfg.KeepAliveTimeout()); err != nil {
				c.handleFatal(err)
				// Unlike a dispatch error, this fires on the writer's own
				// goroutine: nothing else will close the connection and
				// unblock the reader, so do it here.
				c.Close()
				return
			}
		case item, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.writeItem(item); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}

// drainOutbound flushes whatever is already queued once the connection
// is closing, so a Disconnect enqueued just before Close is not lost.
func (c *Connection) drainOutbound() {
	for {
		select {
		case item := <-c.outbound:
			if err := c.writeItem(item); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) checkKeepAlive(interval, timeout time.Duration) error {
	if c.State() != registry.Play {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.keepaliveAwait {
		if now.Sub(c.keepaliveSentAt) > timeout {
			return ErrKeepAliveTimeout
		}
		return nil
	}
	if now.Sub(c.keepaliveSentAt) < interval {
		return nil
	}
	c.keepaliveToken = now.UnixNano()
	c.keepaliveSentAt = now
	c.keepaliveAwait = true
	desc, ok := c.table.Lookup(registry.Play, registry.Clientbound, 0x20)
	if !ok {
		return nil
	}
	select {
	case c.outbound <- outboundItem{desc: desc, packet: packets.KeepAlive{ID: c.keepaliveToken}, lossy: false}:
	default:
	}
	return nil
}

func (c *Connection) writeItem(item outboundItem) error {
	w := proto.AcquireWriter()
	defer w.Release()
	w.WriteVarInt(item.desc.ID)
	if err := item.desc.Encode(w, item.packet); err != nil {
		return fmt.Errorf("netio: encoding %s: %w", item.desc.Name, err)
	}
	if err := c.pipeline.WriteFrame(w.Bytes()); err != nil {
		return err
	}
	if sc, ok := item.packet.(packets.SetCompression); ok {
		if err := c.pipeline.EnableCompression(sc.Threshold); err != nil {
			return fmt.Errorf("netio: enabling compression: %w", err)
		}
	}
	return nil
}
