package packets

import "github.com/roxxel/obsidian/internal/registry"

// Register populates t with every packet descriptor this server
// knows, across all four connection states. Called once at startup
// (cmd/mcserver); the table is read-only afterward.
func Register(t *registry.Table) {
	registerHandshake(t)
	registerStatus(t)
	registerLogin(t)
	registerPlay(t)
}
