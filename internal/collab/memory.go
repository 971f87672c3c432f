package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlatWorldSource is a superflat world: every block below y=4 is
// stone, everything else is air, and every chunk is the same empty
// column. It exists so a connection can reach and hold the Play state
// without a real world backing it.
type FlatWorldSource struct {
	mu        sync.Mutex
	overrides map[Position]BlockState
}

// NewFlatWorldSource returns a ready-to-use superflat world.
func NewFlatWorldSource() *FlatWorldSource {
	return &FlatWorldSource{overrides: make(map[Position]BlockState)}
}

func (w *FlatWorldSource) GetBlock(pos Position) (BlockState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.overrides[pos]; ok {
		return b, nil
	}
	if pos.Y < 4 {
		return BlockState{ID: 1}, nil // stone
	}
	return BlockState{ID: 0}, nil // air
}

func (w *FlatWorldSource) GetChunk(x, z int32) (ChunkColumn, error) {
	return ChunkColumn{X: x, Z: z, Data: nil}, nil
}

func (w *FlatWorldSource) SetBlock(pos Position, block BlockState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overrides[pos] = block
	return nil
}

// LoggingDispatcher reports player lifecycle and chat events through a
// structured logger and answers status pings from a fixed payload,
// mirroring the shape of the teacher's own StatusResponse struct
// (version/players/description/favicon) without the player-count
// simulator, which is gameplay presentation, not protocol engine
// scope.
type LoggingDispatcher struct {
	log         *zap.Logger
	versionName string
	protocol    int
	maxPlayers  int
	motd        string

	mu     sync.Mutex
	online int
}

// NewLoggingDispatcher builds a dispatcher that logs through log and
// answers status requests with the given fixed server metadata.
func NewLoggingDispatcher(log *zap.Logger, versionName string, protocol, maxPlayers int, motd string) *LoggingDispatcher {
	return &LoggingDispatcher{log: log, versionName: versionName, protocol: protocol, maxPlayers: maxPlayers, motd: motd}
}

func (d *LoggingDispatcher) OnJoin(profile PlayerProfile) {
	d.mu.Lock()
	d.online++
	d.mu.Unlock()
	d.log.Info("player joined", zap.String("username", profile.Username), zap.String("uuid", profile.UUID.String()))
}

func (d *LoggingDispatcher) OnLeave(profile PlayerProfile) {
	d.mu.Lock()
	if d.online > 0 {
		d.online--
	}
	d.mu.Unlock()
	d.log.Info("player left", zap.String("username", profile.Username), zap.String("uuid", profile.UUID.String()))
}

func (d *LoggingDispatcher) OnChat(profile PlayerProfile, message string) {
	d.log.Info("chat", zap.String("username", profile.Username), zap.String("message", message))
}

func (d *LoggingDispatcher) OnStatusRequest() StatusPayload {
	d.mu.Lock()
	online := d.online
	d.mu.Unlock()
	return StatusPayload{
		VersionName:     d.versionName,
		ProtocolVersion: d.protocol,
		MaxPlayers:      d.maxPlayers,
		OnlinePlayers:   online,
		MOTD:            d.motd,
	}
}

// MojangAuthenticator verifies a client's session the way vanilla
// servers do in online mode: a GET against the session server's
// hasJoined endpoint, keyed by username and the server hash computed
// from the RSA/AES handshake (internal/netio computes the hash; this
// type only performs the lookup).
type MojangAuthenticator struct {
	client   *http.Client
	endpoint string
}

// NewMojangAuthenticator builds an authenticator against endpoint
// (baseline's server_id_hash_prefix config key exists so tests can
// point this at a fake server instead of Mojang's).
func NewMojangAuthenticator(endpoint string) *MojangAuthenticator {
	if endpoint == "" {
		endpoint = "https://sessionserver.mojang.com/session/minecraft/hasJoined"
	}
	return &MojangAuthenticator{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

type hasJoinedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *MojangAuthenticator) VerifySession(ctx context.Context, username, serverIDHash string) (PlayerProfile, error) {
	u := fmt.Sprintf("%s?username=%s&serverId=%s", a.endpoint, url.QueryEscape(username), url.QueryEscape(serverIDHash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("collab: building session request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("collab: session server request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return PlayerProfile{}, fmt.Errorf("collab: session server rejected %q", username)
	}
	if resp.StatusCode != http.StatusOK {
		return PlayerProfile{}, fmt.Errorf("collab: session server returned status %d", resp.StatusCode)
	}
	var body hasJoinedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return PlayerProfile{}, fmt.Errorf("collab: decoding session response: %w", err)
	}
	id, err := uuid.Parse(dashifyUUID(body.ID))
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("collab: parsing session uuid: %w", err)
	}
	return PlayerProfile{UUID: id, Username: body.Name}, nil
}

// dashifyUUID inserts the canonical dashes into Mojang's undashed
// 32-hex-digit UUID form.
func dashifyUUID(raw string) string {
	if len(raw) != 32 {
		return raw
	}
	return raw[0:8] + "-" + raw[8:12] + "-" + raw[12:16] + "-" + raw[16:20] + "-" + raw[20:32]
}
