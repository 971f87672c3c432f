// Package config loads the JSON configuration file the server is
// started with, applying the teacher's own default-substitution style
// (see dmitrymodder-minewire's main(), which fills in cfg.ProtocolID
// and cfg.MaxPlayers when the file leaves them zero) to a JSON decoder
// instead of the teacher's YAML one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds every server-wide setting: the seven keys named in
// baseline §6 plus the bind address, login deadline, session-server
// override, and RSA key size a complete server needs but the
// distilled spec never puts in config.
type Config struct {
	Port                 uint16 `json:"port"`
	Motd                 string `json:"motd"`
	MaxPlayers           uint32 `json:"max_players"`
	OnlineMode           bool   `json:"online_mode"`
	CompressionThreshold int32  `json:"compression_threshold"`
	KeepAliveIntervalMs  uint32 `json:"keepalive_interval_ms"`
	KeepAliveTimeoutMs   uint32 `json:"keepalive_timeout_ms"`

	BindAddress        string `json:"bind_address"`
	LoginTimeoutMs     uint32 `json:"login_timeout_ms"`
	ServerIDHashPrefix string `json:"server_id_hash_prefix"`
	RSAKeyBits         int    `json:"rsa_key_bits"`
}

// rawConfig mirrors Config but leaves CompressionThreshold as a
// pointer: 0 is a legitimate, distinct setting ("compress everything"),
// so unlike every other field here it cannot use the zero value to
// mean "absent from the file".
type rawConfig struct {
	Port                 uint16 `json:"port"`
	Motd                 string `json:"motd"`
	MaxPlayers           uint32 `json:"max_players"`
	OnlineMode           bool   `json:"online_mode"`
	CompressionThreshold *int32 `json:"compression_threshold"`
	KeepAliveIntervalMs  uint32 `json:"keepalive_interval_ms"`
	KeepAliveTimeoutMs   uint32 `json:"keepalive_timeout_ms"`

	BindAddress        string `json:"bind_address"`
	LoginTimeoutMs     uint32 `json:"login_timeout_ms"`
	ServerIDHashPrefix string `json:"server_id_hash_prefix"`
	RSAKeyBits         int    `json:"rsa_key_bits"`
}

// Load reads and decodes path. compression_threshold defaults to 256
// only when the key is absent; the fields applyDefaults covers get
// their default when the file leaves them at zero, and the rest keep
// whatever the file says.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	var raw rawConfig
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	cfg := Config{
		Port:                raw.Port,
		Motd:                raw.Motd,
		MaxPlayers:          raw.MaxPlayers,
		OnlineMode:          raw.OnlineMode,
		KeepAliveIntervalMs: raw.KeepAliveIntervalMs,
		KeepAliveTimeoutMs:  raw.KeepAliveTimeoutMs,
		BindAddress:         raw.BindAddress,
		LoginTimeoutMs:      raw.LoginTimeoutMs,
		ServerIDHashPrefix:  raw.ServerIDHashPrefix,
		RSAKeyBits:          raw.RSAKeyBits,
	}
	if raw.CompressionThreshold != nil {
		cfg.CompressionThreshold = *raw.CompressionThreshold
	} else {
		cfg.CompressionThreshold = 256
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 25565
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = 20
	}
	if cfg.KeepAliveIntervalMs == 0 {
		cfg.KeepAliveIntervalMs = 20000
	}
	if cfg.KeepAliveTimeoutMs == 0 {
		cfg.KeepAliveTimeoutMs = 30000
	}
	if cfg.BindAddress == "" {
		cfg.BindAddress = "0.0.0.0"
	}
	if cfg.LoginTimeoutMs == 0 {
		cfg.LoginTimeoutMs = 30000
	}
	if cfg.RSAKeyBits == 0 {
		cfg.RSAKeyBits = 1024
	}
}
