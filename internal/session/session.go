// Package session owns the listener, the connection registry, and the
// duplicate-login/capacity policy (baseline §4.5). Manager implements
// netio.Host so internal/netio never imports this package.
package session

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/config"
	"github.com/roxxel/obsidian/internal/netio"
	"github.com/roxxel/obsidian/internal/registry"
)

// Manager accepts connections, tracks them by id and by bound player
// UUID, and enforces the server-wide connection cap and the rate at
// which new connections are accepted.
type Manager struct {
	cfg     *config.Config
	table   *registry.Table
	log     *zap.Logger
	auth    collab.Authenticator
	world   collab.WorldSource
	disp    collab.EventDispatcher
	handler netio.Handler

	acceptLimiter *rate.Limiter

	nextID uint64

	mu       sync.Mutex
	conns    map[uint64]*netio.Connection
	byPlayer map[uuid.UUID]*netio.Connection

	listener net.Listener
}

// Deps bundles the collaborator implementations and packet handler a
// Manager needs; split out from the constructor's positional
// parameters since the list is otherwise unreadable.
type Deps struct {
	Authenticator collab.Authenticator
	World         collab.WorldSource
	Dispatcher    collab.EventDispatcher
	Handler       netio.Handler
}

// New builds a Manager. Call Serve to start accepting connections.
func New(cfg *config.Config, table *registry.Table, log *zap.Logger, deps Deps) *Manager {
	return &Manager{
		cfg:   cfg,
		table: table,
		log:   log,
		auth:  deps.Authenticator,
		world: deps.World,
		disp:  deps.Dispatcher,
		// The limiter counts accepted TCP connections (20 per second,
		// burst of 4); Serve closes any connection accepted over that
		// rate.
		acceptLimiter: rate.NewLimiter(rate.Limit(20), 4),
		handler:       deps.Handler,
		conns:         make(map[uint64]*netio.Connection),
		byPlayer:      make(map[uuid.UUID]*netio.Connection),
	}
}

// Serve binds the listener and accepts connections until ctx is
// cancelled or Shutdown is called.
func (m *Manager) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(m.cfg.BindAddress, strconv.Itoa(int(m.cfg.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	m.listener = ln
	m.log.Info("listening", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !m.acceptLimiter.Allow() {
			conn.Close()
			continue
		}
		id := atomic.AddUint64(&m.nextID, 1)
		c := netio.New(id, conn, m, m.handler)
		m.mu.Lock()
		m.conns[id] = c
		m.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Serve(ctx)
		}()
	}
}

// Shutdown stops accepting new connections. Serve's own ctx parameter
// is what propagates cancellation down into already-running
// connections; Shutdown only unblocks the Accept call itself.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.listener != nil {
		return m.listener.Close()
	}
	return nil
}

// --- netio.Host ---

func (m *Manager) Logger() *zap.Logger                 { return m.log }
func (m *Manager) Table() *registry.Table              { return m.table }
func (m *Manager) Config() *config.Config              { return m.cfg }
func (m *Manager) Authenticator() collab.Authenticator { return m.auth }
func (m *Manager) World() collab.WorldSource           { return m.world }
func (m *Manager) Dispatcher() collab.EventDispatcher  { return m.disp }

func (m *Manager) AtCapacity() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns) >= int(m.cfg.MaxPlayers)
}

func (m *Manager) BindPlayer(conn *netio.Connection, profile collab.PlayerProfile) *netio.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.byPlayer[profile.UUID]
	if prev == conn {
		return nil
	}
	if prev != nil {
		// The evicted connection must be kicked before the new entry
		// below becomes visible to any other BindPlayer/Forget call, not
		// after: a reader racing in on conn would otherwise find two
		// connections briefly claiming the same player.
		prev.Kick("Logged in from another location")
	}
	m.byPlayer[profile.UUID] = conn
	return prev
}

func (m *Manager) Forget(conn *netio.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, conn.ID)
	if profile, ok := conn.Profile(); ok {
		if m.byPlayer[profile.UUID] == conn {
			delete(m.byPlayer, profile.UUID)
		}
	}
}

func (m *Manager) Broadcast(exclude uint64, id int32, packet any, lossy bool) {
	m.mu.Lock()
	targets := make([]*netio.Connection, 0, len(m.conns))
	for connID, c := range m.conns {
		if connID == exclude {
			continue
		}
		if c.State() != registry.Play {
			continue
		}
		targets = append(targets, c)
	}
	m.mu.Unlock()

	for _, c := range targets {
		if err := c.Send(id, packet, lossy); err != nil {
			m.log.Debug("broadcast send failed", zap.Uint64("conn", c.ID), zap.Error(err))
		}
	}
}
