// Command mcserver runs the protocol engine: it loads configuration,
// wires the default in-memory collaborators, and serves connections
// until told to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/roxxel/obsidian/internal/collab"
	"github.com/roxxel/obsidian/internal/config"
	"github.com/roxxel/obsidian/internal/handler"
	"github.com/roxxel/obsidian/internal/packets"
	"github.com/roxxel/obsidian/internal/registry"
	"github.com/roxxel/obsidian/internal/session"
)

// ServerVersion is the engine's own release tag, independent of the
// Minecraft protocol version it speaks.
const ServerVersion = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "server.json", "path to the server configuration file")
	dev := flag.Bool("dev", false, "use human-readable development logging instead of JSON")
	showVersion := flag.Bool("version", false, "print the server version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mcserver v%s (protocol 754)\n", ServerVersion)
		return 0
	}

	log, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcserver: building logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading configuration", zap.Error(err))
		return 1
	}

	table := registry.NewTable()
	packets.Register(table)

	var authenticator collab.Authenticator
	if cfg.OnlineMode {
		authenticator = collab.NewMojangAuthenticator(cfg.ServerIDHashPrefix)
	} else {
		authenticator = offlineAuthenticator{}
	}

	deps := session.Deps{
		Authenticator: authenticator,
		World:         collab.NewFlatWorldSource(),
		Dispatcher:    collab.NewLoggingDispatcher(log, "1.16.5", 754, int(cfg.MaxPlayers), cfg.Motd),
	}
	deps.Handler = handler.New(log)

	mgr := session.New(cfg, table, log, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", zap.String("version", ServerVersion), zap.Uint16("port", cfg.Port))
	if err := mgr.Serve(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// offlineAuthenticator is never actually called: LoginStart in offline
// mode short-circuits straight to the derived UUID without consulting
// an Authenticator at all. It exists only so a non-nil value is always
// threaded through session.Deps.
type offlineAuthenticator struct{}

func (offlineAuthenticator) VerifySession(ctx context.Context, username, serverIDHash string) (collab.PlayerProfile, error) {
	return collab.PlayerProfile{Username: username}, nil
}
